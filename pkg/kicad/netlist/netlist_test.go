package netlist

import (
	"strings"
	"testing"
)

const sampleNetlist = `(export (version "E")
  (design
    (source "/home/user/amp/amp.kicad_sch")
    (date "2025-01-12 10:03:11")
    (tool "Eeschema 8.0.4"))
  (components
    (comp (ref "R1")
      (value "10k")
      (footprint "Resistor_SMD:R_0603_1608Metric")
      (libsource (lib "Device") (part "R") (description "Resistor"))
      (sheetpath (names "/") (tstamps "/")))
    (comp (ref "C1")
      (value "100n")
      (footprint "Capacitor_SMD:C_0603_1608Metric")
      (libsource (lib "Device") (part "C") (description "Capacitor")))
    (comp (ref "U1")
      (value "NE5532")
      (footprint "Package_SO:SOIC-8_3.9x4.9mm_P1.27mm")))
  (nets
    (net (code "1") (name "GND")
      (node (ref "C1") (pin "2") (pintype "passive"))
      (node (ref "U1") (pin "4") (pinfunction "V-") (pintype "power_in")))
    (net (code "2") (name "/OUT")
      (node (ref "R1") (pin "2") (pintype "passive"))
      (node (ref "U1") (pin "1") (pinfunction "OUT1") (pintype "output")))))`

func TestParseString(t *testing.T) {
	n, err := ParseString(sampleNetlist)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	if n.Version != "E" {
		t.Errorf("Version = %q, want E", n.Version)
	}
	if n.Tool != "Eeschema 8.0.4" {
		t.Errorf("Tool = %q", n.Tool)
	}
	if len(n.Components) != 3 {
		t.Fatalf("got %d components, want 3", len(n.Components))
	}

	r1 := n.Components[0]
	if r1.Ref != "R1" || r1.Value != "10k" {
		t.Errorf("R1 = %+v", r1)
	}
	if r1.LibSource != "Device:R" {
		t.Errorf("R1 LibSource = %q, want Device:R", r1.LibSource)
	}
	if r1.SheetPath != "/" {
		t.Errorf("R1 SheetPath = %q, want /", r1.SheetPath)
	}

	if len(n.Nets) != 2 {
		t.Fatalf("got %d nets, want 2", len(n.Nets))
	}
	gnd := n.Nets[0]
	if gnd.Name != "GND" || len(gnd.Nodes) != 2 {
		t.Errorf("GND = %+v", gnd)
	}
	if gnd.Nodes[1].PinFunc != "V-" || gnd.Nodes[1].PinType != "power_in" {
		t.Errorf("GND node = %+v", gnd.Nodes[1])
	}
}

func TestParseReader(t *testing.T) {
	n, err := Parse(strings.NewReader(sampleNetlist))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := n.Summary(); got != "3 components, 2 nets" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestParseNotAnExport(t *testing.T) {
	if _, err := ParseString(`(kicad_sch (version 20231120))`); err == nil {
		t.Error("ParseString() accepted a non-netlist document")
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := ParseString(`(export (version "E"`); err == nil {
		t.Error("ParseString() accepted unbalanced parens")
	}
}

func TestParseUnquotedAtoms(t *testing.T) {
	n, err := ParseString(`(export (version E)
  (components (comp (ref R1) (value 3V3)))
  (nets (net (code 1) (name +3V3)
    (node (ref R1) (pin 2)))))`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if n.Components[0].Value != "3V3" {
		t.Errorf("Value = %q, want 3V3", n.Components[0].Value)
	}
	net := n.Nets[0]
	if net.Code != "1" || net.Name != "+3V3" {
		t.Errorf("net = %+v", net)
	}
	if net.Nodes[0].Pin != "2" {
		t.Errorf("Pin = %q, want 2", net.Nodes[0].Pin)
	}
}

func TestParseEscapedString(t *testing.T) {
	n, err := ParseString(`(export (version "E")
  (components (comp (ref "R1") (value "1k \"precision\"")))
  (nets))`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if n.Components[0].Value != `1k "precision"` {
		t.Errorf("Value = %q", n.Components[0].Value)
	}
}
