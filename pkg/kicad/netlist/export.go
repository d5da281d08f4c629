package netlist

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// ExportError reports a failed kicad-cli invocation with enough context to
// show the user why the export did not produce a netlist.
type ExportError struct {
	Reason string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("netlist export: %s: %v", e.Reason, e.Err)
	}
	return "netlist export: " + e.Reason
}

func (e *ExportError) Unwrap() error { return e.Err }

// DefaultTimeout bounds one kicad-cli run. Large hierarchical designs export
// in seconds, so a minute means something is wedged.
const DefaultTimeout = 60 * time.Second

// Exporter runs kicad-cli to turn a schematic into an S-expression netlist.
type Exporter struct {
	CLIPath string
	Timeout time.Duration
}

// NewExporter locates kicad-cli and returns an exporter bound to it.
func NewExporter() (*Exporter, error) {
	cli, err := FindKiCadCLI()
	if err != nil {
		return nil, err
	}
	return &Exporter{CLIPath: cli, Timeout: DefaultTimeout}, nil
}

// FindKiCadCLI resolves the kicad-cli binary: $KICAD_CLI first, then PATH,
// then the platform install directories.
func FindKiCadCLI() (string, error) {
	if env := os.Getenv("KICAD_CLI"); env != "" {
		if _, err := os.Stat(env); err != nil {
			return "", &ExportError{Reason: "KICAD_CLI points at a missing binary", Err: err}
		}
		return env, nil
	}
	if path, err := exec.LookPath("kicad-cli"); err == nil {
		return path, nil
	}
	for _, candidate := range platformCLIPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", &ExportError{Reason: "kicad-cli not found; install KiCad 8+ or set KICAD_CLI"}
}

func platformCLIPaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/Applications/KiCad/KiCad.app/Contents/MacOS/kicad-cli"}
	case "windows":
		var out []string
		for _, ver := range []string{"9.0", "8.0"} {
			out = append(out, filepath.Join(`C:\Program Files\KiCad`, ver, `bin\kicad-cli.exe`))
		}
		return out
	default:
		return []string{"/usr/bin/kicad-cli", "/usr/local/bin/kicad-cli"}
	}
}

// Export writes the netlist for schematicPath to outPath and returns the
// netlist text.
func (e *Exporter) Export(ctx context.Context, schematicPath, outPath string) (string, error) {
	if _, err := os.Stat(schematicPath); err != nil {
		return "", &ExportError{Reason: "schematic not found", Err: err}
	}

	timeout := e.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.CLIPath,
		"sch", "export", "netlist",
		"--output", outPath,
		schematicPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", &ExportError{Reason: fmt.Sprintf("kicad-cli timed out after %s", timeout), Err: err}
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "kicad-cli failed"
		}
		return "", &ExportError{Reason: msg, Err: err}
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", &ExportError{Reason: "kicad-cli produced no output file", Err: err}
	}
	if len(data) == 0 {
		return "", &ExportError{Reason: "exported netlist is empty"}
	}
	return string(data), nil
}

// ExportTemp exports to a temporary file and cleans it up, returning just the
// netlist text.
func (e *Exporter) ExportTemp(ctx context.Context, schematicPath string) (string, error) {
	tmp, err := os.CreateTemp("", "otc-*.net")
	if err != nil {
		return "", &ExportError{Reason: "create temp file", Err: err}
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	return e.Export(ctx, schematicPath, tmp.Name())
}
