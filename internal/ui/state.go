package ui

import (
	"sync"
	"time"

	"github.com/OpenTraceLab/OpenTraceCheck/pkg/analysis"
)

// StateSnapshot captures a copy of the state data for rendering without
// requiring the UI to hold locks while laying out widgets.
type StateSnapshot struct {
	ProjectDir    string
	SelectedModel string

	Busy      bool
	LastError error
	Status    string

	Report      *analysis.Report
	SelectedIdx int
	Filters     map[analysis.Severity]bool
	ShowAll     bool

	SelectedView appView
	Logs         []string

	LastUpdated time.Time
}

// VisibleFindings applies the severity filter to the report's findings.
func (s *StateSnapshot) VisibleFindings() []analysis.Finding {
	if s.Report == nil {
		return nil
	}
	return analysis.FilterBySeverity(s.Report.Findings, s.Filters)
}

// AppState tracks the mutable state shared between the Gio event loop and
// the background goroutine running an analysis.
type AppState struct {
	mu sync.RWMutex

	projectDir    string
	selectedModel string

	busy      bool
	lastError error
	status    string

	report      *analysis.Report
	selectedIdx int
	filters     map[analysis.Severity]bool
	showAll     bool

	selectedView appView

	logs     []string
	logLimit int

	lastUpdated time.Time
}

// NewState returns a baseline AppState with every severity visible.
func NewState() *AppState {
	filters := make(map[analysis.Severity]bool, len(analysis.AllSeverities))
	for _, sev := range analysis.AllSeverities {
		filters[sev] = true
	}
	return &AppState{
		selectedIdx:  -1,
		filters:      filters,
		showAll:      true,
		logLimit:     200,
		status:       "Idle",
		selectedView: viewResults,
		lastUpdated:  time.Now(),
	}
}

// Snapshot returns a copy of the mutable state for rendering.
func (s *AppState) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filterCopy := make(map[analysis.Severity]bool, len(s.filters))
	for sev, on := range s.filters {
		filterCopy[sev] = on
	}

	logCopy := make([]string, len(s.logs))
	copy(logCopy, s.logs)

	var reportCopy *analysis.Report
	if s.report != nil {
		clone := *s.report
		clone.Findings = make([]analysis.Finding, len(s.report.Findings))
		copy(clone.Findings, s.report.Findings)
		reportCopy = &clone
	}

	return StateSnapshot{
		ProjectDir:    s.projectDir,
		SelectedModel: s.selectedModel,
		Busy:          s.busy,
		LastError:     s.lastError,
		Status:        s.status,
		Report:        reportCopy,
		SelectedIdx:   s.selectedIdx,
		Filters:       filterCopy,
		ShowAll:       s.showAll,
		SelectedView:  s.selectedView,
		Logs:          logCopy,
		LastUpdated:   s.lastUpdated,
	}
}

// SetProjectDir records the directory holding the KiCad project.
func (s *AppState) SetProjectDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectDir = dir
	s.lastUpdated = time.Now()
}

// ProjectDir returns the configured project directory.
func (s *AppState) ProjectDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectDir
}

// SetSelectedModel records the model used for the next run.
func (s *AppState) SetSelectedModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedModel = model
	s.lastUpdated = time.Now()
}

// SelectedModel returns the model chosen for the next run.
func (s *AppState) SelectedModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedModel
}

// SetReport replaces the current report and resets the selection cursor.
func (s *AppState) SetReport(r *analysis.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.report = r
	if r == nil || len(r.Findings) == 0 {
		s.selectedIdx = -1
	} else {
		s.selectedIdx = 0
	}
	s.lastUpdated = time.Now()
}

// Report returns the current report, if any.
func (s *AppState) Report() *analysis.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// SelectFinding moves the selection cursor to idx within the visible list.
func (s *AppState) SelectFinding(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 {
		return
	}
	s.selectedIdx = idx
	s.lastUpdated = time.Now()
}

// ToggleSeverity flips one severity's visibility. The all-levels flag tracks
// whether every level is on, so unchecking any level clears it.
func (s *AppState) ToggleSeverity(sev analysis.Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters[sev] = !s.filters[sev]
	s.showAll = true
	for _, level := range analysis.AllSeverities {
		if !s.filters[level] {
			s.showAll = false
			break
		}
	}
	s.selectedIdx = -1
	s.lastUpdated = time.Now()
}

// SetShowAll turns every severity on (checked) or off (unchecked).
func (s *AppState) SetShowAll(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, level := range analysis.AllSeverities {
		s.filters[level] = on
	}
	s.showAll = on
	s.selectedIdx = -1
	s.lastUpdated = time.Now()
}

// SetBusy toggles the busy flag.
func (s *AppState) SetBusy(busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = busy
	s.lastUpdated = time.Now()
}

// Busy returns the current busy flag.
func (s *AppState) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// SetStatus updates the user-facing status message.
func (s *AppState) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.lastUpdated = time.Now()
}

// SetError stores the latest error surfaced to the UI.
func (s *AppState) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
	s.lastUpdated = time.Now()
}

// AppendLog appends a log message, trimming the oldest entries past the limit.
func (s *AppState) AppendLog(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, msg)
	if s.logLimit > 0 && len(s.logs) > s.logLimit {
		offset := len(s.logs) - s.logLimit
		s.logs = append([]string(nil), s.logs[offset:]...)
	}
	s.lastUpdated = time.Now()
}

// SetView updates the active workspace selection.
func (s *AppState) SetView(view appView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedView == view {
		return
	}
	s.selectedView = view
	s.lastUpdated = time.Now()
}

// SelectedView reports the current workspace selection.
func (s *AppState) SelectedView() appView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedView
}
