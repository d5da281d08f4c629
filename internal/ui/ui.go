package ui

import (
	"log"
	"os"

	"gioui.org/app"

	"github.com/OpenTraceLab/OpenTraceCheck/pkg/checker"
)

// Run launches the Gio UI and blocks until the window closes. Configuration
// edits are saved back to configPath; "" uses the default file.
func Run(chk *checker.Checker, state *AppState, configPath string) error {
	if state == nil {
		state = NewState()
	}

	go func() {
		w := new(app.Window)
		ui := New(w, chk, state, configPath)
		if err := ui.Run(); err != nil {
			log.Printf("ui: %v", err)
		}
		os.Exit(0)
	}()

	app.Main()
	return nil
}
