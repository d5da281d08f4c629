package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCheck/pkg/kicad/netlist"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/kicad/project"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <project-dir>",
	Short: "Export a project's netlist without analyzing it",
	Long: `Locate the KiCad project and run kicad-cli to export its S-expression
netlist. Useful for inspecting exactly what would be sent for review.

Examples:
  otc export ~/projects/amp
  otc export -o amp.net ~/projects/amp`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (defaults to <project>.net in the project directory)")
}

func runExport(cmd *cobra.Command, args []string) error {
	proj, err := project.Locate(args[0])
	if err != nil {
		return err
	}

	exporter, err := netlist.NewExporter()
	if err != nil {
		return err
	}

	out := exportOutput
	if out == "" {
		out = proj.Dir + "/" + proj.Name + ".net"
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	text, err := exporter.Export(ctx, proj.SchematicPath, out)
	if err != nil {
		return err
	}

	if n, err := netlist.ParseString(text); err == nil {
		fmt.Printf("exported %s (%s)\n", out, n.Summary())
	} else {
		fmt.Printf("exported %s (parse warning: %v)\n", out, err)
	}
	return nil
}
