// Package checker runs the full analysis pipeline: locate a KiCad project,
// export its netlist, send the netlist to an LLM provider, and collect the
// findings into a report.
package checker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceCheck/pkg/analysis"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/config"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/kicad/netlist"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/kicad/project"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/llm"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/tokens"
)

// ErrRunInProgress is returned when Run is called while a previous run has
// not finished. Runs are serialized; a second request is rejected rather
// than queued.
var ErrRunInProgress = errors.New("an analysis run is already in progress")

// DefaultMaxTokens is the reply budget requested from providers.
const DefaultMaxTokens = 8192

// Checker orchestrates one analysis run at a time.
type Checker struct {
	Config      *config.Config
	Exporter    *netlist.Exporter
	NewProvider func(id, apiKey string) (llm.Provider, error)
	Log         *zap.SugaredLogger
	MaxTokens   int

	mu      sync.Mutex
	running bool
}

// New builds a checker with a located kicad-cli exporter and the real
// provider constructors.
func New(cfg *config.Config, log *zap.SugaredLogger) (*Checker, error) {
	exporter, err := netlist.NewExporter()
	if err != nil {
		return nil, err
	}
	return &Checker{
		Config:      cfg,
		Exporter:    exporter,
		NewProvider: llm.New,
		Log:         log,
		MaxTokens:   DefaultMaxTokens,
	}, nil
}

// Busy reports whether a run is in flight.
func (c *Checker) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Checker) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrRunInProgress
	}
	c.running = true
	return nil
}

func (c *Checker) release() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

// Run analyzes the KiCad project in projectDir with the configured model.
func (c *Checker) Run(ctx context.Context, projectDir string) (*analysis.Report, error) {
	return c.RunModel(ctx, projectDir, c.Config.SelectedModel)
}

// RunModel analyzes the project with a specific model. Only one run may be in
// flight; concurrent calls fail with ErrRunInProgress.
func (c *Checker) RunModel(ctx context.Context, projectDir, model string) (*analysis.Report, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	text, counts, err := c.exportNetlist(ctx, projectDir)
	if err != nil {
		return nil, err
	}
	return c.analyze(ctx, text, counts, model)
}

// RunAllModels analyzes the project once per catalog model that has an API
// key, reusing a single netlist export. Reports arrive in catalog order; a
// nil report slot means that model's run failed, with the error in the
// matching errs slot.
func (c *Checker) RunAllModels(ctx context.Context, projectDir string) ([]*analysis.Report, []error, error) {
	if err := c.acquire(); err != nil {
		return nil, nil, err
	}
	defer c.release()

	text, counts, err := c.exportNetlist(ctx, projectDir)
	if err != nil {
		return nil, nil, err
	}

	models := c.Config.ModelsWithKeys()
	reports := make([]*analysis.Report, len(models))
	errs := make([]error, len(models))
	for i, m := range models {
		reports[i], errs[i] = c.analyze(ctx, text, counts, m.Ref.String())
		if errs[i] != nil {
			c.Log.Warnw("model run failed", "model", m.Ref.String(), "error", errs[i])
		}
	}
	return reports, errs, nil
}

// AnalyzeNetlist analyzes an already-exported netlist, bypassing kicad-cli.
func (c *Checker) AnalyzeNetlist(ctx context.Context, netlistText, model string) (*analysis.Report, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	return c.analyze(ctx, netlistText, parseCounts(netlistText, c.Log), model)
}

type netlistCounts struct {
	components int
	nets       int
}

func (c *Checker) exportNetlist(ctx context.Context, projectDir string) (string, netlistCounts, error) {
	proj, err := project.Locate(projectDir)
	if err != nil {
		return "", netlistCounts{}, &netlist.ExportError{Reason: "no project to export", Err: err}
	}
	c.Log.Infow("project located", "name", proj.Name, "schematic", proj.SchematicPath)

	text, err := c.Exporter.ExportTemp(ctx, proj.SchematicPath)
	if err != nil {
		return "", netlistCounts{}, err
	}
	counts := parseCounts(text, c.Log)
	c.Log.Infow("netlist exported", "components", counts.components, "nets", counts.nets)
	return text, counts, nil
}

// parseCounts parses the netlist for the report's component and net counts.
// A parse failure is logged but does not block analysis, since the provider
// receives the raw text either way.
func parseCounts(text string, log *zap.SugaredLogger) netlistCounts {
	n, err := netlist.ParseString(text)
	if err != nil {
		log.Warnw("netlist parse failed", "error", err)
		return netlistCounts{}
	}
	return netlistCounts{components: len(n.Components), nets: len(n.Nets)}
}

func (c *Checker) analyze(ctx context.Context, netlistText string, counts netlistCounts, model string) (*analysis.Report, error) {
	ref, err := config.ParseModelRef(model)
	if err != nil {
		return nil, err
	}

	apiKey := c.Config.ProviderAPIKeys[ref.Provider]
	provider, err := c.NewProvider(ref.Provider, apiKey)
	if err != nil {
		return nil, err
	}

	maxTokens := c.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	prompt := buildPrompt(netlistText)
	promptTokens := tokens.Count(systemPrompt) + tokens.Count(prompt)
	if m, ok := config.LookupModel(model); ok {
		if !tokens.FitsContext(promptTokens, maxTokens, m.ContextTokens) {
			c.Log.Warnw("prompt may exceed the model's context window",
				"model", model, "prompt_tokens", promptTokens, "context_tokens", m.ContextTokens)
		}
	}

	c.Log.Infow("sending netlist for analysis", "model", model, "prompt_tokens", promptTokens)
	start := time.Now()
	result, err := provider.Analyze(ctx, llm.Request{
		Model:     ref.Model,
		System:    systemPrompt,
		Prompt:    prompt,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, err
	}

	report := &analysis.Report{
		RunID:       uuid.NewString(),
		Model:       model,
		Findings:    result.Findings,
		Usage:       result.Usage,
		Components:  counts.components,
		Nets:        counts.nets,
		Duration:    time.Since(start),
		GeneratedAt: time.Now(),
	}
	c.Log.Infow("analysis complete", "run_id", report.RunID, "summary", report.Summary())
	return report, nil
}
