package analysis

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"
)

func TestWriteFindingsCSV(t *testing.T) {
	findings := []Finding{
		{ID: "F1", Severity: SeverityFatal, Description: "U1 VCC unconnected", Recommendation: "Connect pin 8", Reference: "U1"},
		{ID: "F2", Severity: SeverityBestPractice, Description: "Missing test points", Recommendation: "Add TP on key nets"},
	}

	var buf bytes.Buffer
	if err := WriteFindingsCSV(&buf, findings); err != nil {
		t.Fatalf("WriteFindingsCSV() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][1] != "Level" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "F1" || rows[1][1] != "Fatal" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][4] != "" {
		t.Errorf("empty reference should stay empty, got %q", rows[2][4])
	}
}

func TestWriteComparisonCSV(t *testing.T) {
	reports := []*Report{
		{
			Model: "openai/gpt-4o-mini",
			Findings: []Finding{
				{Severity: SeverityFatal},
				{Severity: SeverityMajor},
				{Severity: SeverityNiceToHave},
			},
			Usage:    Usage{InputTokens: 1200, OutputTokens: 300, TotalTokens: 1500},
			Duration: 4520 * time.Millisecond,
		},
		nil, // a failed run leaves a nil slot
		{
			Model:    "google/gemini-2.5-flash",
			Usage:    Usage{InputTokens: 900, OutputTokens: 100, TotalTokens: 1000},
			Duration: 2 * time.Second,
		},
	}

	var buf bytes.Buffer
	if err := WriteComparisonCSV(&buf, reports); err != nil {
		t.Fatalf("WriteComparisonCSV() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (header plus two reports)", len(rows))
	}

	first := rows[1]
	if first[0] != "openai/gpt-4o-mini" || first[1] != "3" || first[2] != "1" || first[6] != "1" {
		t.Errorf("row = %v", first)
	}
	if first[10] != "4.52" {
		t.Errorf("response time = %q, want 4.52", first[10])
	}
}
