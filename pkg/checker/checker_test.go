package checker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceCheck/pkg/analysis"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/config"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/kicad/netlist"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/kicad/project"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/llm"
)

const testNetlist = `(export (version "E")
  (components
    (comp (ref "R1") (value "10k"))
    (comp (ref "U1") (value "NE5532")))
  (nets
    (net (code "1") (name "GND")
      (node (ref "U1") (pin "4")))))`

type fakeProvider struct {
	id       string
	findings []analysis.Finding
	err      error
	block    chan struct{} // when set, Analyze waits until closed
	mu       sync.Mutex
	calls    int
}

func (f *fakeProvider) ID() string   { return f.id }
func (f *fakeProvider) Name() string { return f.id }

func (f *fakeProvider) Analyze(ctx context.Context, req llm.Request) (*llm.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Result{
		Findings: f.findings,
		Usage:    analysis.Usage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150},
	}, nil
}

func testChecker(p *fakeProvider) *Checker {
	cfg := config.Default()
	cfg.SetAPIKey("openai", "test-key")
	return &Checker{
		Config: cfg,
		NewProvider: func(id, apiKey string) (llm.Provider, error) {
			return p, nil
		},
		Log:       zap.NewNop().Sugar(),
		MaxTokens: 1024,
	}
}

func TestAnalyzeNetlist(t *testing.T) {
	p := &fakeProvider{
		id: "openai",
		findings: []analysis.Finding{
			{ID: "F1", Severity: analysis.SeverityFatal, Description: "d", Recommendation: "r"},
			{ID: "F2", Severity: analysis.SeverityMinor, Description: "d", Recommendation: "r"},
		},
	}
	c := testChecker(p)

	report, err := c.AnalyzeNetlist(context.Background(), testNetlist, "openai/gpt-4o-mini")
	if err != nil {
		t.Fatalf("AnalyzeNetlist() error = %v", err)
	}
	if len(report.Findings) != 2 {
		t.Errorf("got %d findings, want 2", len(report.Findings))
	}
	if report.Components != 2 || report.Nets != 1 {
		t.Errorf("counts = %d components / %d nets, want 2 / 1", report.Components, report.Nets)
	}
	if report.RunID == "" {
		t.Error("report has no run ID")
	}
	if report.Usage.TotalTokens != 150 {
		t.Errorf("TotalTokens = %d, want 150", report.Usage.TotalTokens)
	}
}

func TestAnalyzeNetlistProviderError(t *testing.T) {
	want := &llm.ProviderError{Provider: "openai", Op: "decode", Err: errors.New("bad json")}
	c := testChecker(&fakeProvider{id: "openai", err: want})

	_, err := c.AnalyzeNetlist(context.Background(), testNetlist, "openai/gpt-4o-mini")
	var perr *llm.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
}

func TestAnalyzeNetlistUnknownModel(t *testing.T) {
	c := testChecker(&fakeProvider{id: "openai"})
	if _, err := c.AnalyzeNetlist(context.Background(), testNetlist, "not-a-model"); err == nil {
		t.Error("AnalyzeNetlist() accepted a malformed model identifier")
	}
}

func TestRunModelNoProject(t *testing.T) {
	p := &fakeProvider{id: "openai"}
	c := testChecker(p)
	c.Exporter = &netlist.Exporter{CLIPath: "kicad-cli"}

	_, err := c.RunModel(context.Background(), t.TempDir(), "openai/gpt-4o-mini")
	var xerr *netlist.ExportError
	if !errors.As(err, &xerr) {
		t.Fatalf("error type = %T, want *ExportError", err)
	}
	if !errors.Is(err, project.ErrNoProject) {
		t.Errorf("error = %v, want ErrNoProject in the chain", err)
	}
	if p.calls != 0 {
		t.Errorf("provider called %d time(s) despite the failed export", p.calls)
	}
	if c.Busy() {
		t.Error("checker still busy after failed run")
	}
}

func TestConcurrentRunRejected(t *testing.T) {
	block := make(chan struct{})
	p := &fakeProvider{id: "openai", block: block}
	c := testChecker(p)

	done := make(chan error, 1)
	go func() {
		_, err := c.AnalyzeNetlist(context.Background(), testNetlist, "openai/gpt-4o-mini")
		done <- err
	}()

	// Wait for the first run to take the slot.
	deadline := time.After(2 * time.Second)
	for !c.Busy() {
		select {
		case <-deadline:
			t.Fatal("first run never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	_, err := c.AnalyzeNetlist(context.Background(), testNetlist, "openai/gpt-4o-mini")
	if !errors.Is(err, ErrRunInProgress) {
		t.Errorf("second run error = %v, want ErrRunInProgress", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Errorf("first run error = %v", err)
	}
	if c.Busy() {
		t.Error("checker still busy after run finished")
	}
}
