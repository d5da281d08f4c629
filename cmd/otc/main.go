package main

import "github.com/OpenTraceLab/OpenTraceCheck/cmd/otc/cmd"

func main() {
	cmd.Execute()
}
