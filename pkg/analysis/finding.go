// Package analysis defines the finding model produced by an LLM review of a
// KiCad netlist, along with report aggregation and CSV export helpers.
package analysis

import (
	"fmt"
	"time"
)

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityFatal        Severity = "Fatal"
	SeverityMajor        Severity = "Major"
	SeverityMinor        Severity = "Minor"
	SeverityBestPractice Severity = "Best Practice"
	SeverityNiceToHave   Severity = "Nice To Have"
)

// AllSeverities lists every severity level in display order, most severe first.
var AllSeverities = []Severity{
	SeverityFatal,
	SeverityMajor,
	SeverityMinor,
	SeverityBestPractice,
	SeverityNiceToHave,
}

// Valid reports whether s is one of the fixed severity levels.
func (s Severity) Valid() bool {
	for _, level := range AllSeverities {
		if s == level {
			return true
		}
	}
	return false
}

// Finding is one structured result from a netlist review. Findings are
// immutable once produced by a provider adapter.
type Finding struct {
	ID             string   `json:"id"`
	Severity       Severity `json:"level"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	Reference      string   `json:"reference,omitempty"`
}

// Validate checks the invariants every finding must hold: a non-empty ID and
// a severity drawn from the fixed set.
func (f Finding) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("finding has empty id")
	}
	if !f.Severity.Valid() {
		return fmt.Errorf("finding %s: unknown severity %q", f.ID, f.Severity)
	}
	return nil
}

// FilterBySeverity returns the findings whose severity is in the given set,
// preserving order. A nil or empty set selects nothing.
func FilterBySeverity(findings []Finding, levels map[Severity]bool) []Finding {
	if len(levels) == 0 {
		return nil
	}
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if levels[f.Severity] {
			out = append(out, f)
		}
	}
	return out
}

// CountBySeverity tallies findings per severity level.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int, len(AllSeverities))
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

// Usage records the token consumption reported by a provider for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Report is the complete outcome of one analysis run.
type Report struct {
	RunID       string
	Model       string
	Findings    []Finding
	Usage       Usage
	Components  int
	Nets        int
	Duration    time.Duration
	GeneratedAt time.Time
}

// Summary returns a one-line description of the report suitable for a status
// bar or log entry.
func (r *Report) Summary() string {
	counts := CountBySeverity(r.Findings)
	return fmt.Sprintf("%d finding(s) (%d fatal, %d major) from %s in %s",
		len(r.Findings), counts[SeverityFatal], counts[SeverityMajor], r.Model, r.Duration.Round(time.Millisecond))
}
