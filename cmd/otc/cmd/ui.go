package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCheck/internal/logging"
	"github.com/OpenTraceLab/OpenTraceCheck/internal/ui"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/checker"
)

var uiCmd = &cobra.Command{
	Use:   "ui [project-dir]",
	Short: "Launch the graphical review interface",
	Long: `Launch the GUI for reviewing a KiCad project. The interface runs the
netlist export and LLM analysis, lists the findings filtered by severity,
and shows the recommendation for each one.

Examples:
  # Open the UI with a project preselected
  otc ui ~/projects/amp

  # Open the UI and pick the project inside it
  otc ui`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}

	chk, err := checker.New(cfg, logging.Logger)
	if err != nil {
		return err
	}

	state := ui.NewState()
	state.SetSelectedModel(cfg.SelectedModel)
	state.SetStatus("Ready")
	if len(args) == 1 {
		state.SetProjectDir(args[0])
		state.AppendLog(fmt.Sprintf("Project directory: %s", args[0]))
	}

	return ui.Run(chk, state, cfgPath)
}
