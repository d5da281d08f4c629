package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
)

// findingsHeader matches the column layout consumed by downstream review
// spreadsheets; keep in sync with WriteComparisonCSV.
var findingsHeader = []string{"ID", "Level", "Description", "Recommendation", "Reference"}

// WriteFindingsCSV writes one row per finding.
func WriteFindingsCSV(w io.Writer, findings []Finding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(findingsHeader); err != nil {
		return err
	}
	for _, f := range findings {
		row := []string{f.ID, string(f.Severity), f.Description, f.Recommendation, f.Reference}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var comparisonHeader = []string{
	"Model", "Total_Findings", "Fatal", "Major", "Minor",
	"Best_Practice", "Nice_To_Have", "Total_Tokens",
	"Input_Tokens", "Output_Tokens", "Response_Time_Seconds",
}

// WriteComparisonCSV writes a per-model summary row for each report, used by
// the multi-model batch mode to compare providers side by side.
func WriteComparisonCSV(w io.Writer, reports []*Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(comparisonHeader); err != nil {
		return err
	}
	for _, r := range reports {
		if r == nil {
			continue
		}
		counts := CountBySeverity(r.Findings)
		row := []string{
			r.Model,
			fmt.Sprintf("%d", len(r.Findings)),
			fmt.Sprintf("%d", counts[SeverityFatal]),
			fmt.Sprintf("%d", counts[SeverityMajor]),
			fmt.Sprintf("%d", counts[SeverityMinor]),
			fmt.Sprintf("%d", counts[SeverityBestPractice]),
			fmt.Sprintf("%d", counts[SeverityNiceToHave]),
			fmt.Sprintf("%d", r.Usage.TotalTokens),
			fmt.Sprintf("%d", r.Usage.InputTokens),
			fmt.Sprintf("%d", r.Usage.OutputTokens),
			fmt.Sprintf("%.2f", r.Duration.Seconds()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
