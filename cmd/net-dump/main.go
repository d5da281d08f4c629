// net-dump prints the raw S-expression structure of an exported netlist.
// Handy when the structured parser rejects a file and the question is what
// kicad-cli actually wrote.
package main

import (
	"fmt"
	"os"

	"github.com/chewxy/sexp"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: net-dump <netlist_file>")
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File size: %d bytes\n", len(data))

	sexps, err := sexp.ParseString(string(data))
	if err != nil {
		fmt.Printf("Error parsing s-expression: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Top-level expressions: %d\n", len(sexps))
	for i, s := range sexps {
		fmt.Printf("[%d] leaf=%v", i, s.IsLeaf())
		if !s.IsLeaf() {
			fmt.Printf(" leaves=%d", s.LeafCount())
		}
		fmt.Println()
	}
}
