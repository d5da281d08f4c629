package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCheck/internal/logging"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "otc",
	Short: "LLM-assisted KiCad schematic review",
	Long: `OpenTraceCheck exports a KiCad schematic to its netlist and sends it
to an LLM for design review. Findings come back classified by severity,
from Fatal down to Nice To Have.

Examples:
  otc ui ~/projects/amp                     # Review a project in the GUI
  otc analyze ~/projects/amp                # Review on the command line
  otc analyze --all-models ~/projects/amp   # Compare every configured model
  otc config set-key openai sk-...          # Store an API key`,
	Version: "0.3.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the configuration file")
}

// loadConfig reads the configuration, warning instead of failing on a
// malformed file so a bad edit never locks the user out.
func loadConfig() (*config.Config, string, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
	}
	return cfg, path, nil
}
