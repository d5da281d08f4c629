package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCheck/internal/logging"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/analysis"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/checker"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/llm"
)

var (
	analyzeModel     string
	analyzeAllModels bool
	analyzeNetlist   string
	analyzeOutputDir string
	analyzeTimeout   time.Duration
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [project-dir]",
	Short: "Run a schematic review from the command line",
	Long: `Export the project's netlist, send it for LLM review, and print the
findings. With --all-models the netlist goes to every model that has an
API key configured, and per-model CSVs plus a comparison summary are
written to the output directory.

Examples:
  otc analyze ~/projects/amp
  otc analyze --model anthropic/claude-sonnet-4-5 ~/projects/amp
  otc analyze --netlist amp.net
  otc analyze --all-models --output-dir ./reports ~/projects/amp`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeModel, "model", "m", "", "model to use (provider/model), defaults to the configured one")
	analyzeCmd.Flags().BoolVar(&analyzeAllModels, "all-models", false, "run every model with a configured API key")
	analyzeCmd.Flags().StringVar(&analyzeNetlist, "netlist", "", "analyze an already-exported netlist file instead of a project")
	analyzeCmd.Flags().StringVarP(&analyzeOutputDir, "output-dir", "o", ".", "directory for CSV output")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute, "overall timeout for the run")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	chk, err := checker.New(cfg, logging.Logger)
	if err != nil {
		// A netlist file skips the export step, so a missing kicad-cli
		// only matters when a project directory was given.
		if analyzeNetlist == "" {
			return err
		}
		chk = &checker.Checker{
			Config:      cfg,
			NewProvider: llm.New,
			Log:         logging.Logger,
			MaxTokens:   checker.DefaultMaxTokens,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	model := analyzeModel
	if model == "" {
		model = cfg.SelectedModel
	}

	switch {
	case analyzeAllModels:
		if len(args) != 1 {
			return fmt.Errorf("--all-models requires a project directory")
		}
		return analyzeAll(ctx, chk, args[0])

	case analyzeNetlist != "":
		data, err := os.ReadFile(analyzeNetlist)
		if err != nil {
			return err
		}
		report, err := chk.AnalyzeNetlist(ctx, string(data), model)
		if err != nil {
			return err
		}
		printReport(report)
		return nil

	default:
		if len(args) != 1 {
			return fmt.Errorf("provide a project directory or --netlist")
		}
		report, err := chk.RunModel(ctx, args[0], model)
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	}
}

func analyzeAll(ctx context.Context, chk *checker.Checker, projectDir string) error {
	models := chk.Config.ModelsWithKeys()
	if len(models) == 0 {
		return fmt.Errorf("no models have API keys configured; run otc config set-key first")
	}

	reports, errs, err := chk.RunAllModels(ctx, projectDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(analyzeOutputDir, 0o755); err != nil {
		return err
	}

	for i, report := range reports {
		if report == nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", models[i].Ref, errs[i])
			continue
		}
		fmt.Printf("%s: %s\n", report.Model, report.Summary())

		name := fmt.Sprintf("findings_%s_%s.csv", models[i].Ref.Provider, models[i].Ref.Model)
		if err := writeFindingsFile(filepath.Join(analyzeOutputDir, name), report.Findings); err != nil {
			return err
		}
	}

	comparison := filepath.Join(analyzeOutputDir, "model_comparison.csv")
	f, err := os.Create(comparison)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := analysis.WriteComparisonCSV(f, reports); err != nil {
		return err
	}
	fmt.Printf("comparison written to %s\n", comparison)
	return nil
}

func writeFindingsFile(path string, findings []analysis.Finding) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return analysis.WriteFindingsCSV(f, findings)
}

func printReport(report *analysis.Report) {
	fmt.Printf("%s\n\n", report.Summary())
	for _, f := range report.Findings {
		fmt.Printf("[%s] %s: %s\n", f.Severity, f.ID, f.Description)
		fmt.Printf("    recommendation: %s\n", f.Recommendation)
		if f.Reference != "" {
			fmt.Printf("    reference: %s\n", f.Reference)
		}
	}
	fmt.Printf("\ntokens: %d in / %d out, %.1fs\n",
		report.Usage.InputTokens, report.Usage.OutputTokens, report.Duration.Seconds())
}
