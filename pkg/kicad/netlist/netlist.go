// Package netlist exports a KiCad schematic to its S-expression netlist via
// kicad-cli and parses the result into components and nets.
package netlist

import (
	"fmt"
	"io"
	"strings"
)

// Component is one (comp ...) entry from the netlist.
type Component struct {
	Ref         string
	Value       string
	Footprint   string
	Description string
	LibSource   string
	SheetPath   string
}

// NetNode is one pin connection inside a net.
type NetNode struct {
	Ref      string
	Pin      string
	PinFunc  string
	PinType  string
}

// Net is one (net ...) entry: a named electrical net and its connections.
type Net struct {
	Code  string
	Name  string
	Nodes []NetNode
}

// Netlist is the parsed export.
type Netlist struct {
	Version    string
	Source     string
	Date       string
	Tool       string
	Components []Component
	Nets       []Net
}

// Summary returns a one-line description for logs and the status bar.
func (n *Netlist) Summary() string {
	return fmt.Sprintf("%d components, %d nets", len(n.Components), len(n.Nets))
}

// Parse reads an exported netlist.
func Parse(r io.Reader) (*Netlist, error) {
	p, err := newParser()
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(r)
	if err != nil {
		return nil, err
	}
	return fromDocument(doc)
}

// ParseString parses an exported netlist held in memory.
func ParseString(input string) (*Netlist, error) {
	p, err := newParser()
	if err != nil {
		return nil, err
	}
	doc, err := p.ParseString(input)
	if err != nil {
		return nil, err
	}
	return fromDocument(doc)
}

func fromDocument(doc *Document) (*Netlist, error) {
	root := doc.Root
	if root == nil || root.Name != "export" {
		return nil, fmt.Errorf("netlist root is not an export expression")
	}

	n := &Netlist{Version: root.ChildAtom("version")}

	if design := root.Child("design"); design != nil {
		n.Source = design.ChildAtom("source")
		n.Date = design.ChildAtom("date")
		n.Tool = design.ChildAtom("tool")
	}

	if comps := root.Child("components"); comps != nil {
		for _, comp := range comps.Children("comp") {
			c := Component{
				Ref:         comp.ChildAtom("ref"),
				Value:       comp.ChildAtom("value"),
				Footprint:   comp.ChildAtom("footprint"),
				Description: comp.ChildAtom("description"),
			}
			if lib := comp.Child("libsource"); lib != nil {
				c.LibSource = strings.TrimPrefix(lib.ChildAtom("lib")+":"+lib.ChildAtom("part"), ":")
			}
			if sp := comp.Child("sheetpath"); sp != nil {
				c.SheetPath = sp.ChildAtom("names")
			}
			if c.Ref == "" {
				return nil, fmt.Errorf("component without ref in netlist")
			}
			n.Components = append(n.Components, c)
		}
	}

	if nets := root.Child("nets"); nets != nil {
		for _, netNode := range nets.Children("net") {
			net := Net{
				Code: netNode.ChildAtom("code"),
				Name: netNode.ChildAtom("name"),
			}
			for _, node := range netNode.Children("node") {
				net.Nodes = append(net.Nodes, NetNode{
					Ref:     node.ChildAtom("ref"),
					Pin:     node.ChildAtom("pin"),
					PinFunc: node.ChildAtom("pinfunction"),
					PinType: node.ChildAtom("pintype"),
				})
			}
			n.Nets = append(n.Nets, net)
		}
	}

	return n, nil
}
