package netlist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
)

// stubCLI writes an executable script that mimics kicad-cli sch export
// netlist: it copies a canned netlist to the --output path.
func stubCLI(t *testing.T, payload string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub script requires a POSIX shell")
	}

	dir := t.TempDir()
	payloadPath := filepath.Join(dir, "payload.net")
	if err := os.WriteFile(payloadPath, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	script := "#!/bin/sh\n" +
		"out=\"\"\n" +
		"while [ $# -gt 0 ]; do\n" +
		"  if [ \"$1\" = \"--output\" ]; then out=\"$2\"; shift; fi\n" +
		"  shift\n" +
		"done\n" +
		"if [ " + strconv.Itoa(exitCode) + " -ne 0 ]; then echo 'export failed' >&2; exit " + strconv.Itoa(exitCode) + "; fi\n" +
		"cp " + payloadPath + " \"$out\"\n"

	cliPath := filepath.Join(dir, "kicad-cli")
	if err := os.WriteFile(cliPath, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return cliPath
}

func TestExport(t *testing.T) {
	cli := stubCLI(t, sampleNetlist, 0)
	sch := filepath.Join(t.TempDir(), "amp.kicad_sch")
	if err := os.WriteFile(sch, []byte("(kicad_sch)"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := &Exporter{CLIPath: cli}
	text, err := e.ExportTemp(context.Background(), sch)
	if err != nil {
		t.Fatalf("ExportTemp() error = %v", err)
	}

	n, err := ParseString(text)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if len(n.Components) != 3 {
		t.Errorf("got %d components, want 3", len(n.Components))
	}
}

func TestExportMissingSchematic(t *testing.T) {
	e := &Exporter{CLIPath: stubCLI(t, sampleNetlist, 0)}
	_, err := e.ExportTemp(context.Background(), filepath.Join(t.TempDir(), "nope.kicad_sch"))
	var xerr *ExportError
	if !errors.As(err, &xerr) {
		t.Fatalf("error type = %T, want *ExportError", err)
	}
}

func TestExportCLIFailure(t *testing.T) {
	cli := stubCLI(t, "", 1)
	sch := filepath.Join(t.TempDir(), "amp.kicad_sch")
	if err := os.WriteFile(sch, []byte("(kicad_sch)"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := &Exporter{CLIPath: cli}
	_, err := e.ExportTemp(context.Background(), sch)
	var xerr *ExportError
	if !errors.As(err, &xerr) {
		t.Fatalf("error type = %T, want *ExportError", err)
	}
	if xerr.Reason == "" {
		t.Error("ExportError has empty reason")
	}
}

func TestFindKiCadCLIEnv(t *testing.T) {
	cli := stubCLI(t, "", 0)
	t.Setenv("KICAD_CLI", cli)

	got, err := FindKiCadCLI()
	if err != nil {
		t.Fatalf("FindKiCadCLI() error = %v", err)
	}
	if got != cli {
		t.Errorf("FindKiCadCLI() = %q, want %q", got, cli)
	}
}

func TestFindKiCadCLIEnvMissing(t *testing.T) {
	t.Setenv("KICAD_CLI", filepath.Join(t.TempDir(), "absent"))
	if _, err := FindKiCadCLI(); err == nil {
		t.Error("FindKiCadCLI() accepted a missing KICAD_CLI path")
	}
}
