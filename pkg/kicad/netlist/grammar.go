package netlist

import (
	"fmt"
	"io"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// netlistLexer tokenizes the S-expression netlist that kicad-cli exports.
// Unquoted atoms are a single Symbol token whatever they contain, so a bare
// value like 3V3 or -12V never splits at the digit boundary.
var netlistLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Symbol", Pattern: `[^\s()"]+`},
})

// Document is the parse tree root. A netlist file is a single (export ...)
// expression.
type Document struct {
	Root *Node `parser:"@@"`
}

// Node is one parenthesized expression: a symbol head followed by atom and
// child-node values in source order.
type Node struct {
	Name   string   `parser:"LParen @Symbol"`
	Values []*Value `parser:"@@* RParen"`
}

// Value is either a nested node or an atom.
type Value struct {
	Node   *Node   `parser:"  @@"`
	Str    *string `parser:"| @String"`
	Symbol *string `parser:"| @Symbol"`
}

// Atom returns the value's text when it is an atom, or "" for a nested node.
func (v *Value) Atom() string {
	switch {
	case v.Str != nil:
		return *v.Str
	case v.Symbol != nil:
		return *v.Symbol
	}
	return ""
}

// Child returns the first child node with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, v := range n.Values {
		if v.Node != nil && v.Node.Name == name {
			return v.Node
		}
	}
	return nil
}

// Children returns every child node with the given name.
func (n *Node) Children(name string) []*Node {
	var out []*Node
	for _, v := range n.Values {
		if v.Node != nil && v.Node.Name == name {
			out = append(out, v.Node)
		}
	}
	return out
}

// Atom returns the node's first atom value, so (name "GND") yields "GND".
func (n *Node) Atom() string {
	for _, v := range n.Values {
		if s := v.Atom(); v.Node == nil {
			return s
		}
	}
	return ""
}

// ChildAtom returns the first atom of the named child, or "".
func (n *Node) ChildAtom(name string) string {
	if c := n.Child(name); c != nil {
		return c.Atom()
	}
	return ""
}

type parser struct {
	parser *participle.Parser[Document]
}

func newParser() (*parser, error) {
	p, err := participle.Build[Document](
		participle.Lexer(netlistLexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}
	return &parser{parser: p}, nil
}

func (p *parser) Parse(r io.Reader) (*Document, error) {
	doc, err := p.parser.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return doc, nil
}

func (p *parser) ParseString(input string) (*Document, error) {
	doc, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return doc, nil
}
