// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"lamino-align/internal/app"
	"lamino-align/internal/version"
	"lamino-align/ui/canvas"
	"lamino-align/ui/panels"
)

const (
	prefKeyLastDir     = "lastDirectory"
	prefKeyLastProject = "lastProject"

	projectExt = ".lamproj"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	canvas    *canvas.FrameCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label

	fitToWindowItem *fyne.MenuItem
}

// New creates the main window.
func New(fyneApp fyne.App, state *app.State) *MainWindow {
	win := fyneApp.NewWindow("Lamino Align")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	return mw
}

// setupUI creates the main layout: side panel | canvas, status bar below.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewFrameCanvas()

	mw.sidePanel = panels.NewSidePanel(mw.state, mw.canvas)
	mw.sidePanel.SetWindow(mw.Window)

	mw.statusBar = widget.NewLabel("Ready")

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		mw.canvas.Container(),
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.28)

	content := container.NewBorder(
		nil,
		container.NewPadded(mw.statusBar),
		nil,
		nil,
		split,
	)

	mw.SetContent(content)
}

// createToolbar creates the zoom toolbar.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	zoomOutBtn := widget.NewButton("-", func() {
		mw.onZoomOut()
	})
	zoomInBtn := widget.NewButton("+", func() {
		mw.onZoomIn()
	})
	fitBtn := widget.NewButton("Fit", func() {
		mw.onToggleFitToWindow()
	})
	actualBtn := widget.NewButton("1:1", func() {
		mw.onActualSize()
	})

	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		fitBtn,
		actualBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Project", mw.onNewProject),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Load Experiment...", mw.onLoadExperiment),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	mw.fitToWindowItem = fyne.NewMenuItem("  Fit to Window", mw.onToggleFitToWindow)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		mw.fitToWindowItem,
		fyne.NewMenuItem("Actual Size", mw.onActualSize),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Crop Stack", mw.onCropStack),
		fyne.NewMenuItem("Unwrap Stack", mw.onUnwrapStack),
		fyne.NewMenuItem("Align Stack", mw.onAlignStack),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mainMenu := fyne.NewMainMenu(fileMenu, viewMenu, toolsMenu, helpMenu)
	mw.SetMainMenu(mainMenu)
}

// setupEventHandlers keeps the canvas and title in sync with the pipeline.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("Lamino Align - " + filepath.Base(path))
			mw.updateStatus("Project loaded: " + path)
		}
		mw.refreshFrame()
	})

	mw.state.On(app.EventProjectSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("Lamino Align - " + filepath.Base(path))
			mw.updateStatus("Project saved: " + path)
			mw.app.Preferences().SetString(prefKeyLastProject, path)
		}
	})

	mw.state.On(app.EventStackLoaded, func(data interface{}) {
		mw.refreshFrame()
		if mw.state.Current != nil {
			mw.updateStatus(fmt.Sprintf("Loaded %d frames", mw.state.Current.Len()))
		}
	})

	mw.state.On(app.EventFrameChanged, func(interface{}) {
		mw.refreshFrame()
	})

	mw.state.On(app.EventCropApplied, func(interface{}) {
		mw.refreshFrame()
		mw.updateStatus("Stack cropped")
	})

	mw.state.On(app.EventUnwrapComplete, func(interface{}) {
		mw.refreshFrame()
		mw.updateStatus("Phase unwrap complete")
	})

	mw.state.On(app.EventAlignmentComplete, func(interface{}) {
		mw.refreshFrame()
		mw.updateStatus("Alignment complete")
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})
}

// refreshFrame renders the current frame onto the canvas.
func (mw *MainWindow) refreshFrame() {
	f := mw.state.CurrentFrame()
	if f == nil {
		mw.canvas.SetImage(nil)
		return
	}
	mw.canvas.SetImage(f.Render())
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// RestoreLastProject reopens the most recently saved project, if any.
func (mw *MainWindow) RestoreLastProject() {
	path := mw.app.Preferences().String(prefKeyLastProject)
	if path == "" {
		return
	}
	if err := mw.state.LoadProject(path); err != nil {
		mw.updateStatus(fmt.Sprintf("Could not reopen %s: %v", filepath.Base(path), err))
	}
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	dir := filepath.Dir(filePath)
	mw.app.Preferences().SetString(prefKeyLastDir, dir)
}

// Menu action handlers

func (mw *MainWindow) onNewProject() {
	mw.state.Reset()
	mw.canvas.SetImage(nil)
	mw.canvas.ClearAllOverlays()
	mw.SetTitle("Lamino Align - New Project")
	mw.updateStatus("New project")
}

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.app.Preferences().SetString(prefKeyLastProject, path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{projectExt}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onLoadExperiment() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		mw.updateStatus("Loading frames...")
		go func() {
			if err := mw.state.LoadExperiment(path); err != nil {
				mw.updateStatus(fmt.Sprintf("Load failed: %v", err))
			}
		}()
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".yaml", ".yml"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveProject() {
	if mw.state.ProjectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	if err := mw.state.SaveProject(mw.state.ProjectPath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != projectExt {
			path += projectExt
		}
		mw.saveLastDir(path)
		if err := mw.state.SaveProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName("project" + projectExt)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onCropStack() {
	if err := mw.state.ApplyCrop(); err != nil {
		mw.updateStatus(fmt.Sprintf("Crop failed: %v", err))
	}
}

func (mw *MainWindow) onUnwrapStack() {
	mw.updateStatus("Unwrapping...")
	go func() {
		if err := mw.state.ApplyUnwrap(); err != nil {
			mw.updateStatus(fmt.Sprintf("Unwrap failed: %v", err))
		}
	}()
}

func (mw *MainWindow) onAlignStack() {
	mw.updateStatus("Estimating drift...")
	go func() {
		if err := mw.state.ApplyAlignment(); err != nil {
			mw.updateStatus(fmt.Sprintf("Alignment failed: %v", err))
		}
	}()
}

func (mw *MainWindow) onZoomIn() {
	mw.disableFitToWindow()
	mw.canvas.ZoomIn()
}

func (mw *MainWindow) onZoomOut() {
	mw.disableFitToWindow()
	mw.canvas.ZoomOut()
}

func (mw *MainWindow) onToggleFitToWindow() {
	enabled := !mw.canvas.GetFitToWindow()
	mw.canvas.SetFitToWindow(enabled)

	if enabled {
		mw.fitToWindowItem.Label = "✓ Fit to Window"
	} else {
		mw.fitToWindowItem.Label = "  Fit to Window"
	}
}

func (mw *MainWindow) onActualSize() {
	mw.disableFitToWindow()
	mw.canvas.SetZoom(1.0)
}

func (mw *MainWindow) disableFitToWindow() {
	if mw.canvas.GetFitToWindow() {
		mw.canvas.SetFitToWindow(false)
		mw.fitToWindowItem.Label = "  Fit to Window"
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Lamino Align",
		fmt.Sprintf("Lamino Align v%s\n\n"+
			"Projection stack cropping, phase unwrapping, and\n"+
			"drift alignment for laminography scans.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
