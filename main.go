// Package main provides the entry point for the Lamino Align application.
package main

import (
	"log"
	"os"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"

	"lamino-align/internal/app"
	"lamino-align/internal/version"
	"lamino-align/ui/mainwindow"
	"lamino-align/ui/prefs"
)

const appID = "io.lamino.align"

const (
	prefKeyWindowWidth  = "windowWidth"
	prefKeyWindowHeight = "windowHeight"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting Lamino Align v%s", version.Version)

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.LaminoTheme{})

	appPrefs := prefs.Load()
	appState := app.NewState()

	win := mainwindow.New(fyneApp, appState)
	win.Resize(fyne.NewSize(
		float32(appPrefs.Float(prefKeyWindowWidth, 1280)),
		float32(appPrefs.Float(prefKeyWindowHeight, 800)),
	))

	if len(os.Args) > 1 {
		if err := appState.LoadProject(os.Args[1]); err != nil {
			log.Printf("Failed to load project %s: %v", os.Args[1], err)
		}
	} else {
		win.RestoreLastProject()
	}

	setupHotReload(win, appPrefs)

	win.SetOnClosed(func() {
		size := win.Canvas().Size()
		appPrefs.SetFloat(prefKeyWindowWidth, float64(size.Width))
		appPrefs.SetFloat(prefKeyWindowHeight, float64(size.Height))
		if err := appPrefs.SaveIfDirty(); err != nil {
			log.Printf("Failed to save preferences: %v", err)
		}
	})

	win.ShowAndRun()
}

// setupHotReload prompts for a restart when the binary is recompiled.
func setupHotReload(win *mainwindow.MainWindow, appPrefs *prefs.Prefs) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("Hot reload: unable to determine executable path")
		return
	}

	reloader.OnNewBinary(func() {
		log.Println("Hot reload: newer binary detected")
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(restart bool) {
				if !restart {
					reloader.ResetBaseline()
					reloader.Start()
					return
				}
				if err := appPrefs.SaveIfDirty(); err != nil {
					log.Printf("Failed to save preferences: %v", err)
				}
				log.Println("Hot reload: restarting...")
				if err := reloader.Restart(); err != nil {
					log.Printf("Hot reload: restart failed: %v", err)
				}
			}, win.Window)
	})

	reloader.Start()
}
