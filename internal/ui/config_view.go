package ui

import (
	"fmt"

	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/oligo/gioview/menu"
	"github.com/oligo/gioview/theme"

	"github.com/OpenTraceLab/OpenTraceCheck/pkg/config"
)

// configView is the settings workspace: model selection and per-provider API
// keys, persisted to the shared configuration file.
type configView struct {
	app *App

	modelMenu    *menu.DropdownMenu
	modelMenuBtn widget.Clickable

	keyEditors map[string]*widget.Editor
	showKeys   widget.Bool

	saveBtn    widget.Clickable
	saveStatus string
}

func newConfigView(a *App) *configView {
	v := &configView{
		app:        a,
		keyEditors: make(map[string]*widget.Editor, len(config.KnownProviders)),
	}
	cfg := a.currentConfig()
	for _, provider := range config.KnownProviders {
		ed := new(widget.Editor)
		ed.SingleLine = true
		ed.Mask = '*'
		ed.SetText(cfg.ProviderAPIKeys[provider])
		v.keyEditors[provider] = ed
	}
	if a.State.SelectedModel() == "" {
		a.State.SetSelectedModel(cfg.SelectedModel)
	}
	v.modelMenu = v.buildModelMenu()
	return v
}

func (v *configView) buildModelMenu() *menu.DropdownMenu {
	opts := make([]menu.MenuOption, 0, len(config.AvailableModels))
	for _, m := range config.AvailableModels {
		model := m
		opts = append(opts, menu.MenuOption{
			OnClicked: func() error {
				v.app.State.SetSelectedModel(model.Ref.String())
				v.app.invalidate()
				return nil
			},
			Layout: func(gtx menu.C, th *theme.Theme) menu.D {
				lbl := material.Body1(th.Theme, fmt.Sprintf("%s (%s)", model.Name, model.Ref))
				if model.Ref.String() == v.app.State.SelectedModel() {
					lbl.Color = th.Palette.ContrastBg
				}
				return layout.Inset{Left: unit.Dp(4), Right: unit.Dp(4)}.Layout(gtx, lbl.Layout)
			},
		})
	}
	drop := menu.NewDropdownMenu([][]menu.MenuOption{opts})
	drop.MaxWidth = unit.Dp(320)
	return drop
}

func (v *configView) layout(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	th := v.app.theme()

	children := []layout.FlexChild{
		layout.Rigid(material.H5(th, "Configuration").Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return v.layoutModelPicker(gtx, state)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(18)}.Layout),
		layout.Rigid(material.H6(th, "API Keys").Layout),
		layout.Rigid(material.Caption(th, "Keys are stored in "+v.storePath()+".").Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
	}

	for _, provider := range config.KnownProviders {
		p := provider
		children = append(children,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return v.layoutKeyRow(gtx, p)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		)
	}

	children = append(children,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if v.showKeys.Update(gtx) {
				var mask rune = '*'
				if v.showKeys.Value {
					mask = 0
				}
				for _, ed := range v.keyEditors {
					ed.Mask = mask
				}
				v.app.invalidate()
			}
			return material.CheckBox(th, &v.showKeys, "Show keys").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(16)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			btn := material.Button(th, &v.saveBtn, "Save Configuration")
			dims := btn.Layout(gtx)
			for v.saveBtn.Clicked(gtx) {
				v.save()
			}
			return dims
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if v.saveStatus == "" {
				return layout.Dimensions{}
			}
			return material.Caption(th, v.saveStatus).Layout(gtx)
		}),
	)

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
}

func (v *configView) layoutModelPicker(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	th := v.app.theme()
	current := state.SelectedModel
	if current == "" {
		current = config.DefaultModel
	}
	name := current
	if m, ok := config.LookupModel(current); ok {
		name = fmt.Sprintf("%s (%s)", m.Name, m.Ref)
	}

	return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(material.Body1(th, name).Layout),
				layout.Rigid(material.Caption(th, "Model used for schematic analysis.").Layout),
			)
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if v.modelMenuBtn.Clicked(gtx) {
				v.modelMenu.ToggleVisibility(gtx)
			}
			dims := material.Button(th, &v.modelMenuBtn, "Change").Layout(gtx)
			v.modelMenu.Layout(gtx, v.app.gvTheme)
			return dims
		}),
	)
}

func (v *configView) layoutKeyRow(gtx layout.Context, provider string) layout.Dimensions {
	th := v.app.theme()
	return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			width := gtx.Dp(unit.Dp(100))
			gtx.Constraints.Min.X = width
			gtx.Constraints.Max.X = width
			return material.Body2(th, provider).Layout(gtx)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			ed := material.Editor(th, v.keyEditors[provider], "API key")
			return ed.Layout(gtx)
		}),
	)
}

// storePath is the file save() writes: the path the configuration was
// loaded from, or the default location.
func (v *configView) storePath() string {
	if v.app.configPath != "" {
		return v.app.configPath
	}
	path, err := config.DefaultPath()
	if err != nil {
		return "the default configuration file"
	}
	return path
}

func (v *configView) save() {
	cfg := v.app.currentConfig()
	cfg.SelectedModel = v.app.State.SelectedModel()
	for provider, ed := range v.keyEditors {
		key := ed.Text()
		if key == "" {
			cfg.RemoveAPIKey(provider)
			continue
		}
		cfg.SetAPIKey(provider, key)
	}

	path := v.app.configPath
	var err error
	if path == "" {
		path, err = config.DefaultPath()
	}
	if err == nil {
		err = config.Save(path, cfg)
	}
	if err != nil {
		v.saveStatus = fmt.Sprintf("Save failed: %v", err)
		v.app.State.AppendLog(v.saveStatus)
	} else {
		v.saveStatus = "Configuration saved"
		v.app.State.AppendLog("Configuration saved to " + path)
	}
	v.app.invalidate()
}
