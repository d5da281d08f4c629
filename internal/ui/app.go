// Package ui implements the Gio desktop interface: run an analysis against a
// KiCad project, browse the findings by severity, and manage configuration.
package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"time"

	"gioui.org/app"
	"gioui.org/gesture"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/oligo/gioview/theme"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"github.com/OpenTraceLab/OpenTraceCheck/pkg/analysis"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/checker"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/config"
)

type appView int

const (
	viewResults appView = iota
	viewConfig
)

type navEntry struct {
	view  appView
	name  string
	icon  *widget.Icon
	click widget.Clickable
}

// App drives the Gio-based checker UI.
type App struct {
	Window  *app.Window
	State   *AppState
	Checker *checker.Checker

	gvTheme *theme.Theme
	ops     op.Ops

	runBtn       widget.Clickable
	exportBtn    widget.Clickable
	allFilterBtn widget.Clickable

	projectDirEditor widget.Editor

	findingsList layout.List
	logList      layout.List

	findingClicks map[int]*widget.Clickable
	filterButtons map[analysis.Severity]*widget.Clickable

	logPaneHeight float32
	logSplitter   gesture.Drag
	logSplitLastY float32
	logSplitDrag  bool

	currentView appView
	navEntries  []navEntry

	// configPath is the file the configuration was loaded from. Save writes
	// back to the same file; empty means the default location.
	configPath string

	configView *configView
}

// New wires the Gio window, theme, checker, and shared state together.
// configPath is where the settings view persists edits; "" uses the default
// configuration file.
func New(window *app.Window, chk *checker.Checker, state *AppState, configPath string) *App {
	if state == nil {
		state = NewState()
	}
	window.Option(app.Title("OpenTraceCheck"), app.Size(unit.Dp(1200), unit.Dp(800)))

	gv := theme.NewTheme("", nil, false)
	a := &App{
		Window:        window,
		State:         state,
		Checker:       chk,
		gvTheme:       gv,
		findingsList:  layout.List{Axis: layout.Vertical},
		logList:       layout.List{Axis: layout.Vertical},
		findingClicks: make(map[int]*widget.Clickable),
		filterButtons: func() map[analysis.Severity]*widget.Clickable {
			m := make(map[analysis.Severity]*widget.Clickable, len(analysis.AllSeverities))
			for _, sev := range analysis.AllSeverities {
				m[sev] = new(widget.Clickable)
			}
			return m
		}(),
		currentView: state.SelectedView(),
		configPath:  configPath,
	}
	a.projectDirEditor.SingleLine = true
	a.projectDirEditor.SetText(state.ProjectDir())
	a.configView = newConfigView(a)
	a.initNavigation()
	return a
}

// Run processes Gio events until the window is closed.
func (a *App) Run() error {
	for {
		e := a.Window.Event()
		switch ev := e.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&a.ops, ev)
			a.layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}

func (a *App) initNavigation() {
	makeIcon := func(data []byte, name string) *widget.Icon {
		icon, err := widget.NewIcon(data)
		if err != nil {
			log.Printf("ui: failed to load %s icon: %v", name, err)
			return nil
		}
		return icon
	}
	a.navEntries = []navEntry{
		{
			view: viewResults,
			name: "Results",
			icon: makeIcon(icons.ActionAssessment, "results"),
		},
		{
			view: viewConfig,
			name: "Configuration",
			icon: makeIcon(icons.ActionSettings, "configuration"),
		},
	}
	a.selectNav(a.State.SelectedView(), false)
}

func (a *App) selectNav(view appView, updateState bool) {
	a.currentView = view
	if updateState {
		a.State.SetView(view)
	}
	a.invalidate()
}

func (a *App) layout(gtx layout.Context) layout.Dimensions {
	state := a.State.Snapshot()
	if state.SelectedView != a.currentView {
		a.selectNav(state.SelectedView, false)
	}

	paint.FillShape(gtx.Ops, color.NRGBA{R: 238, G: 241, B: 251, A: 255}, clip.Rect{Max: gtx.Constraints.Max}.Op())

	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return a.layoutNavigation(gtx)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return a.layoutTopBar(gtx, &state)
				}),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return a.layoutMain(gtx, state)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return a.layoutLogSplitter(gtx)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return a.layoutLogPane(gtx, state)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return a.layoutStatus(gtx, state)
				}),
			)
		}),
	)
}

func (a *App) theme() *material.Theme {
	return a.gvTheme.Theme
}

func (a *App) layoutNavigation(gtx layout.Context) layout.Dimensions {
	width := gtx.Dp(unit.Dp(160))
	gtx.Constraints.Min.X = width
	gtx.Constraints.Max.X = width
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			paint.FillShape(gtx.Ops, color.NRGBA{R: 45, G: 50, B: 68, A: 255}, clip.Rect{Max: gtx.Constraints.Max}.Op())
			return layout.Dimensions{Size: gtx.Constraints.Max}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Top: unit.Dp(24), Bottom: unit.Dp(24), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				children := make([]layout.FlexChild, 0, len(a.navEntries)*2)
				for i := range a.navEntries {
					entry := &a.navEntries[i]
					children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return a.layoutNavEntry(gtx, entry)
					}))
					children = append(children, layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout))
				}
				return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
			})
		}),
	)
}

func (a *App) layoutNavEntry(gtx layout.Context, entry *navEntry) layout.Dimensions {
	for entry.click.Clicked(gtx) {
		a.selectNav(entry.view, true)
	}

	width := gtx.Constraints.Max.X
	if width <= 0 {
		width = gtx.Dp(unit.Dp(140))
	}
	height := gtx.Dp(unit.Dp(52))
	size := image.Pt(width, height)
	gtx.Constraints.Min = size
	gtx.Constraints.Max = size

	selected := a.currentView == entry.view
	bg := color.NRGBA{R: 45, G: 50, B: 68, A: 255}
	if entry.click.Hovered() {
		bg = color.NRGBA{R: 60, G: 66, B: 88, A: 255}
	}
	if selected {
		bg = color.NRGBA{R: 0, G: 140, B: 180, A: 255}
	}
	textColor := color.NRGBA{R: 240, G: 244, B: 255, A: 255}

	return entry.click.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Stack{}.Layout(gtx,
			layout.Expanded(func(gtx layout.Context) layout.Dimensions {
				inset := gtx.Dp(unit.Dp(2))
				rect := image.Rectangle{Max: size}.Inset(inset)
				paint.FillShape(gtx.Ops, bg, clip.RRect{
					Rect: rect,
					NW:   gtx.Dp(unit.Dp(8)),
					NE:   gtx.Dp(unit.Dp(8)),
					SW:   gtx.Dp(unit.Dp(8)),
					SE:   gtx.Dp(unit.Dp(8)),
				}.Op(gtx.Ops))
				return layout.Dimensions{Size: rect.Size()}
			}),
			layout.Stacked(func(gtx layout.Context) layout.Dimensions {
				return layout.Inset{Top: unit.Dp(6), Bottom: unit.Dp(6), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							size := gtx.Dp(unit.Dp(28))
							gtx.Constraints.Min = image.Pt(size, size)
							gtx.Constraints.Max = gtx.Constraints.Min
							if entry.icon != nil {
								return entry.icon.Layout(gtx, textColor)
							}
							return layout.Dimensions{Size: image.Pt(size, size)}
						}),
						layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							lbl := material.Body2(a.theme(), entry.name)
							lbl.Color = textColor
							lbl.Alignment = text.Start
							return lbl.Layout(gtx)
						}),
					)
				})
			}),
		)
	})
}

func (a *App) layoutTopBar(gtx layout.Context, state *StateSnapshot) layout.Dimensions {
	return layout.Inset{
		Top: unit.Dp(12), Bottom: unit.Dp(4), Left: unit.Dp(16), Right: unit.Dp(16),
	}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(material.H6(a.theme(), "Schematic Review").Layout),
			layout.Rigid(layout.Spacer{Width: unit.Dp(24)}.Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				ed := material.Editor(a.theme(), &a.projectDirEditor, "KiCad project directory")
				return layout.Inset{Top: unit.Dp(4), Bottom: unit.Dp(4)}.Layout(gtx, ed.Layout)
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(12)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				label := "Analyze Schematic"
				if state.Busy {
					label = "Analyzing..."
				}
				btn := material.Button(a.theme(), &a.runBtn, label)
				btn.Inset = layout.UniformInset(unit.Dp(8))
				dims := btn.Layout(gtx)
				for a.runBtn.Clicked(gtx) {
					a.RunAnalysis()
				}
				return dims
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				btn := material.Button(a.theme(), &a.exportBtn, "Export CSV")
				btn.Inset = layout.UniformInset(unit.Dp(8))
				dims := btn.Layout(gtx)
				for a.exportBtn.Clicked(gtx) {
					a.ExportCSV()
				}
				return dims
			}),
		)
	})
}

func (a *App) layoutMain(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	body := func(gtx layout.Context) layout.Dimensions {
		switch a.currentView {
		case viewConfig:
			return a.configView.layout(gtx, state)
		default:
			return a.layoutResults(gtx, state)
		}
	}
	return layout.Inset{Left: unit.Dp(12), Right: unit.Dp(12), Bottom: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Stack{}.Layout(gtx,
			layout.Expanded(func(gtx layout.Context) layout.Dimensions {
				paint.FillShape(gtx.Ops, color.NRGBA{R: 248, G: 248, B: 253, A: 255}, clip.RRect{
					Rect: image.Rectangle{Max: gtx.Constraints.Max},
					NW:   gtx.Dp(unit.Dp(12)),
					NE:   gtx.Dp(unit.Dp(12)),
					SW:   gtx.Dp(unit.Dp(12)),
					SE:   gtx.Dp(unit.Dp(12)),
				}.Op(gtx.Ops))
				return layout.Dimensions{Size: gtx.Constraints.Max}
			}),
			layout.Stacked(func(gtx layout.Context) layout.Dimensions {
				return layout.UniformInset(unit.Dp(16)).Layout(gtx, body)
			}),
		)
	})
}

func (a *App) layoutResults(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return a.layoutFilterRow(gtx, state)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(10)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return a.layoutFindings(gtx, state)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(12)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					width := gtx.Dp(unit.Dp(320))
					gtx.Constraints.Min.X = width
					gtx.Constraints.Max.X = width
					return a.layoutDetails(gtx, state)
				}),
			)
		}),
	)
}

func (a *App) layoutFilterRow(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	children := make([]layout.FlexChild, 0, len(analysis.AllSeverities)*2+2)

	children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
		btn := material.Button(a.theme(), &a.allFilterBtn, "All")
		if state.ShowAll {
			btn.Background = color.NRGBA{R: 98, G: 146, B: 255, A: 255}
		} else {
			btn.Background = color.NRGBA{R: 60, G: 64, B: 76, A: 255}
		}
		btn.Inset = layout.UniformInset(unit.Dp(6))
		dims := btn.Layout(gtx)
		for a.allFilterBtn.Clicked(gtx) {
			a.State.SetShowAll(!state.ShowAll)
			a.invalidate()
		}
		return dims
	}))
	children = append(children, layout.Rigid(layout.Spacer{Width: unit.Dp(6)}.Layout))

	for _, sev := range analysis.AllSeverities {
		severity := sev
		children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			btn := material.Button(a.theme(), a.filterButtons[severity], string(severity))
			if state.Filters[severity] {
				btn.Background = severityColor(severity)
			} else {
				btn.Background = color.NRGBA{R: 60, G: 64, B: 76, A: 255}
			}
			btn.Inset = layout.UniformInset(unit.Dp(6))
			dims := btn.Layout(gtx)
			for a.filterButtons[severity].Clicked(gtx) {
				a.State.ToggleSeverity(severity)
				a.invalidate()
			}
			return dims
		}))
		children = append(children, layout.Rigid(layout.Spacer{Width: unit.Dp(6)}.Layout))
	}

	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx, children...)
}

func (a *App) layoutFindings(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	findings := state.VisibleFindings()
	if state.Report == nil {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(material.Body1(a.theme(), "No analysis yet.").Layout),
			layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
			layout.Rigid(material.Body2(a.theme(), "Set the project directory and press Analyze Schematic.").Layout),
		)
	}
	if len(findings) == 0 {
		return material.Body1(a.theme(), "No findings match the current filters.").Layout(gtx)
	}

	return a.findingsList.Layout(gtx, len(findings), func(gtx layout.Context, idx int) layout.Dimensions {
		if idx >= len(findings) {
			return layout.Dimensions{}
		}
		f := findings[idx]
		clk := a.findingClickable(idx)
		selected := idx == state.SelectedIdx

		for clk.Clicked(gtx) {
			a.State.SelectFinding(idx)
			a.invalidate()
		}

		return clk.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			bg := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			if selected {
				bg = color.NRGBA{R: 226, G: 234, B: 252, A: 255}
			} else if clk.Hovered() {
				bg = color.NRGBA{R: 240, G: 243, B: 250, A: 255}
			}
			return layout.Stack{}.Layout(gtx,
				layout.Expanded(func(gtx layout.Context) layout.Dimensions {
					paint.FillShape(gtx.Ops, bg, clip.Rect{Max: gtx.Constraints.Max}.Op())
					return layout.Dimensions{Size: gtx.Constraints.Max}
				}),
				layout.Stacked(func(gtx layout.Context) layout.Dimensions {
					return layout.Inset{Top: unit.Dp(6), Bottom: unit.Dp(6), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
						return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
							layout.Rigid(func(gtx layout.Context) layout.Dimensions {
								width := gtx.Dp(unit.Dp(110))
								gtx.Constraints.Min.X = width
								gtx.Constraints.Max.X = width
								lbl := material.Body2(a.theme(), string(f.Severity))
								lbl.Color = severityColor(f.Severity)
								lbl.Font.Weight = 600
								return lbl.Layout(gtx)
							}),
							layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
							layout.Flexed(1, material.Body2(a.theme(), f.Description).Layout),
							layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
							layout.Rigid(func(gtx layout.Context) layout.Dimensions {
								lbl := material.Caption(a.theme(), f.Reference)
								lbl.Color = color.NRGBA{R: 110, G: 116, B: 132, A: 255}
								return lbl.Layout(gtx)
							}),
						)
					})
				}),
			)
		})
	})
}

func (a *App) layoutDetails(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	findings := state.VisibleFindings()
	header := material.H6(a.theme(), "Finding Details")

	if state.SelectedIdx < 0 || state.SelectedIdx >= len(findings) {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(header.Layout),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Rigid(material.Body2(a.theme(), "Select a finding to view details.").Layout),
		)
	}
	f := findings[state.SelectedIdx]

	sevLbl := material.Body1(a.theme(), string(f.Severity))
	sevLbl.Color = severityColor(f.Severity)
	sevLbl.Font.Weight = 600

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(header.Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(material.Caption(a.theme(), "ID: "+f.ID).Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(4)}.Layout),
		layout.Rigid(sevLbl.Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(material.Body2(a.theme(), f.Description).Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
		layout.Rigid(material.Caption(a.theme(), "Recommendation").Layout),
		layout.Rigid(material.Body2(a.theme(), f.Recommendation).Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if f.Reference == "" {
				return layout.Dimensions{}
			}
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(material.Caption(a.theme(), "Reference").Layout),
				layout.Rigid(material.Body2(a.theme(), f.Reference).Layout),
			)
		}),
	)
}

func severityColor(sev analysis.Severity) color.NRGBA {
	switch sev {
	case analysis.SeverityFatal:
		return color.NRGBA{R: 200, G: 40, B: 50, A: 255}
	case analysis.SeverityMajor:
		return color.NRGBA{R: 225, G: 120, B: 30, A: 255}
	case analysis.SeverityMinor:
		return color.NRGBA{R: 190, G: 160, B: 20, A: 255}
	case analysis.SeverityBestPractice:
		return color.NRGBA{R: 60, G: 130, B: 210, A: 255}
	default:
		return color.NRGBA{R: 64, G: 170, B: 110, A: 255}
	}
}

func (a *App) layoutLogSplitter(gtx layout.Context) layout.Dimensions {
	height := gtx.Dp(unit.Dp(8))
	if height < 4 {
		height = 4
	}
	size := image.Pt(gtx.Constraints.Max.X, height)
	if size.X == 0 {
		size.X = gtx.Dp(unit.Dp(400))
	}
	rect := clip.Rect{Max: size}
	paint.FillShape(gtx.Ops, color.NRGBA{R: 210, G: 214, B: 228, A: 255}, rect.Op())

	stack := rect.Push(gtx.Ops)
	a.logSplitter.Add(gtx.Ops)
	stack.Pop()

	if ev, ok := a.logSplitter.Update(gtx.Metric, gtx.Source, gesture.Vertical); ok {
		switch ev.Kind {
		case pointer.Press:
			a.logSplitDrag = true
			a.logSplitLastY = ev.Position.Y
		case pointer.Drag:
			if a.logSplitDrag {
				dy := ev.Position.Y - a.logSplitLastY
				a.logSplitLastY = ev.Position.Y
				a.logPaneHeight -= dy
				a.clampLogPaneHeight(gtx)
				a.invalidate()
			}
		case pointer.Release, pointer.Cancel:
			a.logSplitDrag = false
		}
	}
	return layout.Dimensions{Size: size}
}

func (a *App) layoutLogPane(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	a.ensureLogPaneHeight(gtx)
	height := int(a.logPaneHeight)
	if h := gtx.Constraints.Max.Y; h > 0 && height > h {
		height = h
	}
	gtx.Constraints.Min.Y = height
	gtx.Constraints.Max.Y = height
	return layout.Inset{
		Left: unit.Dp(16), Right: unit.Dp(16), Top: unit.Dp(6), Bottom: unit.Dp(6),
	}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		if len(state.Logs) == 0 {
			return material.Caption(a.theme(), "Logs will appear here.").Layout(gtx)
		}
		return a.logList.Layout(gtx, len(state.Logs), func(gtx layout.Context, idx int) layout.Dimensions {
			if idx >= len(state.Logs) {
				return layout.Dimensions{}
			}
			lbl := material.Caption(a.theme(), state.Logs[idx])
			lbl.Color = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
			return lbl.Layout(gtx)
		})
	})
}

func (a *App) ensureLogPaneHeight(gtx layout.Context) {
	if a.logPaneHeight > 0 {
		return
	}
	a.logPaneHeight = float32(gtx.Dp(unit.Dp(140)))
	a.clampLogPaneHeight(gtx)
}

func (a *App) clampLogPaneHeight(gtx layout.Context) {
	min := float32(gtx.Dp(unit.Dp(60)))
	max := float32(gtx.Dp(unit.Dp(360)))
	if a.logPaneHeight < min {
		a.logPaneHeight = min
	}
	if a.logPaneHeight > max {
		a.logPaneHeight = max
	}
}

func (a *App) layoutStatus(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	modelLabel := "Model: " + state.SelectedModel
	if state.SelectedModel == "" {
		modelLabel = "Model: not selected"
	}
	countsLabel := "No report"
	if state.Report != nil {
		counts := analysis.CountBySeverity(state.Report.Findings)
		countsLabel = fmt.Sprintf("%d finding(s): %d fatal, %d major, %d minor",
			len(state.Report.Findings),
			counts[analysis.SeverityFatal],
			counts[analysis.SeverityMajor],
			counts[analysis.SeverityMinor])
	}
	statusLabel := "Status: " + state.Status

	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			paint.FillShape(gtx.Ops, color.NRGBA{R: 230, G: 234, B: 244, A: 255}, clip.Rect{Max: gtx.Constraints.Max}.Op())
			return layout.Dimensions{Size: gtx.Constraints.Max}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			inset := layout.Inset{Left: unit.Dp(16), Right: unit.Dp(16), Top: unit.Dp(8), Bottom: unit.Dp(8)}
			return inset.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
					layout.Rigid(material.Body2(a.theme(), modelLabel).Layout),
					layout.Rigid(layout.Spacer{Width: unit.Dp(18)}.Layout),
					layout.Rigid(material.Body2(a.theme(), countsLabel).Layout),
					layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
						return layout.Dimensions{}
					}),
					layout.Rigid(material.Body2(a.theme(), statusLabel).Layout),
				)
			})
		}),
	)
}

func (a *App) findingClickable(idx int) *widget.Clickable {
	if clk, ok := a.findingClicks[idx]; ok {
		return clk
	}
	clk := &widget.Clickable{}
	a.findingClicks[idx] = clk
	return clk
}

// invalidate requests a new frame.
func (a *App) invalidate() {
	if a.Window != nil {
		a.Window.Invalidate()
	}
}

// RunAnalysis exports the netlist and sends it for review in the background.
func (a *App) RunAnalysis() {
	if a.State.Busy() {
		return
	}
	projectDir := a.projectDirEditor.Text()
	if projectDir == "" {
		a.State.SetStatus("Set a project directory first")
		a.invalidate()
		return
	}
	a.State.SetProjectDir(projectDir)

	model := a.State.SelectedModel()
	if model == "" {
		model = a.Checker.Config.SelectedModel
		a.State.SetSelectedModel(model)
	}

	a.State.SetBusy(true)
	a.State.SetStatus("Exporting netlist...")
	a.State.AppendLog(fmt.Sprintf("Starting analysis of %s with %s", projectDir, model))
	a.invalidate()

	go func() {
		defer func() {
			a.State.SetBusy(false)
			a.invalidate()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		report, err := a.Checker.RunModel(ctx, projectDir, model)
		if err != nil {
			a.State.SetError(err)
			a.State.AppendLog(fmt.Sprintf("Analysis failed: %v", err))
			a.State.SetStatus("Analysis failed")
			return
		}

		a.State.SetReport(report)
		a.State.SetError(nil)
		a.State.SetStatus(report.Summary())
		a.State.AppendLog(fmt.Sprintf("Analysis finished: %s", report.Summary()))
		a.State.AppendLog(fmt.Sprintf("Tokens: %d in / %d out", report.Usage.InputTokens, report.Usage.OutputTokens))
		a.invalidate()
	}()
}

// ExportCSV writes the current findings next to the project.
func (a *App) ExportCSV() {
	report := a.State.Report()
	if report == nil {
		a.State.SetStatus("Nothing to export yet")
		a.invalidate()
		return
	}

	dir := a.State.ProjectDir()
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, fmt.Sprintf("findings_%s.csv", time.Now().Format("20060102_150405")))

	f, err := os.Create(path)
	if err != nil {
		a.State.SetError(err)
		a.State.AppendLog(fmt.Sprintf("CSV export failed: %v", err))
		a.invalidate()
		return
	}
	defer f.Close()

	if err := analysis.WriteFindingsCSV(f, report.Findings); err != nil {
		a.State.SetError(err)
		a.State.AppendLog(fmt.Sprintf("CSV export failed: %v", err))
		a.invalidate()
		return
	}
	a.State.AppendLog("Findings exported to " + path)
	a.State.SetStatus("Exported " + filepath.Base(path))
	a.invalidate()
}

// currentConfig exposes the checker's configuration for the settings view.
func (a *App) currentConfig() *config.Config {
	return a.Checker.Config
}
