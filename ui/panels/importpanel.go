package panels

import (
	"fmt"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"lamino-align/internal/app"
	"lamino-align/internal/loader"
	"lamino-align/internal/stack"
	"lamino-align/ui/canvas"
	"lamino-align/ui/dialogs"
)

// ImportPanel loads experiment descriptors and steps through the frames of
// the loaded stack.
type ImportPanel struct {
	state     *app.State
	window    fyne.Window
	container fyne.CanvasObject

	pathEntry  *widget.Entry
	loadButton *widget.Button

	framesLabel *widget.Label
	shapeLabel  *widget.Label
	angleLabel  *widget.Label
	dpiLabel    *widget.Label

	frameSlider  *widget.Slider
	frameLabel   *widget.Label
	framePreview *fynecanvas.Image

	statusLabel *widget.Label
}

// NewImportPanel creates the import panel.
func NewImportPanel(state *app.State) *ImportPanel {
	ip := &ImportPanel{state: state}

	ip.pathEntry = widget.NewEntry()
	ip.pathEntry.SetPlaceHolder("experiment.yaml")

	browseButton := widget.NewButton("Browse...", func() {
		ip.onBrowse()
	})

	ip.loadButton = widget.NewButton("Load Stack", func() {
		ip.onLoad(ip.pathEntry.Text)
	})

	editButton := widget.NewButton("Edit...", func() {
		ip.onEdit()
	})

	ip.framesLabel = widget.NewLabel("No stack loaded")
	ip.shapeLabel = widget.NewLabel("")
	ip.angleLabel = widget.NewLabel("")
	ip.dpiLabel = widget.NewLabel("")
	ip.statusLabel = widget.NewLabel("")
	ip.statusLabel.Wrapping = fyne.TextWrapWord

	ip.frameLabel = widget.NewLabel("Frame: -")
	ip.framePreview = &fynecanvas.Image{FillMode: fynecanvas.ImageFillContain}
	ip.framePreview.SetMinSize(fyne.NewSize(96, 96))
	ip.frameSlider = widget.NewSlider(0, 0)
	ip.frameSlider.Step = 1
	ip.frameSlider.OnChanged = func(v float64) {
		if err := state.SelectFrame(int(v)); err == nil {
			ip.updateFrameLabel()
		}
	}

	ip.container = container.NewVBox(
		widget.NewCard("Experiment", "", container.NewVBox(
			ip.pathEntry,
			container.NewHBox(browseButton, editButton, ip.loadButton),
			ip.statusLabel,
		)),
		widget.NewCard("Stack", "", container.NewVBox(
			ip.framesLabel,
			ip.shapeLabel,
			ip.angleLabel,
			ip.dpiLabel,
		)),
		widget.NewCard("Frame", "", container.NewVBox(
			ip.frameLabel,
			ip.frameSlider,
			ip.framePreview,
		)),
	)

	state.On(app.EventStackLoaded, func(interface{}) {
		ip.updateStackInfo()
	})
	state.On(app.EventCropApplied, func(interface{}) {
		ip.updateStackInfo()
	})
	state.On(app.EventFrameChanged, func(interface{}) {
		ip.updateFrameLabel()
	})
	state.On(app.EventProjectLoaded, func(interface{}) {
		ip.pathEntry.SetText(state.ExperimentPath)
	})

	return ip
}

// Container returns the panel container.
func (ip *ImportPanel) Container() fyne.CanvasObject {
	return ip.container
}

// SetWindow sets the parent window for file dialogs.
func (ip *ImportPanel) SetWindow(w fyne.Window) {
	ip.window = w
}

func (ip *ImportPanel) onBrowse() {
	if ip.window == nil {
		return
	}
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		ip.pathEntry.SetText(path)
		ip.onLoad(path)
	}, ip.window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".yaml", ".yml"}))
	fd.Show()
}

// onEdit opens the descriptor editor for the current path, creating a new
// descriptor when the file doesn't exist yet.
func (ip *ImportPanel) onEdit() {
	path := ip.pathEntry.Text
	if path == "" {
		ip.statusLabel.SetText("Enter an experiment file path")
		return
	}

	exp, err := loader.Load(path)
	if err != nil {
		exp = &loader.Experiment{Name: "New experiment", FilePattern: "*"}
	}

	dlg := dialogs.NewExperimentDialog(exp, ip.window, func(updated *loader.Experiment) {
		if err := loader.Save(path, updated); err != nil {
			ip.statusLabel.SetText(fmt.Sprintf("Save failed: %v", err))
			return
		}
		ip.onLoad(path)
	})
	dlg.Show()
}

func (ip *ImportPanel) onLoad(path string) {
	if path == "" {
		ip.statusLabel.SetText("Enter an experiment file path")
		return
	}
	ip.statusLabel.SetText("Loading frames...")
	ip.loadButton.Disable()

	go func() {
		err := ip.state.LoadExperiment(path)
		ip.loadButton.Enable()
		if err != nil {
			ip.statusLabel.SetText(fmt.Sprintf("Load failed: %v", err))
			return
		}
		ip.statusLabel.SetText("")
	}()
}

func (ip *ImportPanel) updateStackInfo() {
	cur := ip.state.Current
	if cur == nil || cur.Len() == 0 {
		ip.framesLabel.SetText("No stack loaded")
		ip.shapeLabel.SetText("")
		ip.angleLabel.SetText("")
		ip.dpiLabel.SetText("")
		return
	}

	ip.framesLabel.SetText(fmt.Sprintf("%d frames", cur.Len()))
	shape := cur.Shape()
	ip.shapeLabel.SetText(fmt.Sprintf("%dx%d pixels", shape.Width, shape.Height))

	first, last := cur.Frames[0], cur.Frames[cur.Len()-1]
	ip.angleLabel.SetText(fmt.Sprintf("Angles: %.1f to %.1f", first.Angle, last.Angle))
	ip.dpiLabel.SetText(dpiText(first))

	ip.frameSlider.Max = float64(cur.Len() - 1)
	ip.frameSlider.SetValue(float64(ip.state.FrameIndex))
	ip.updateFrameLabel()
}

func (ip *ImportPanel) updateFrameLabel() {
	f := ip.state.CurrentFrame()
	if f == nil {
		ip.frameLabel.SetText("Frame: -")
		ip.framePreview.Image = nil
		ip.framePreview.Refresh()
		return
	}
	ip.frameLabel.SetText(fmt.Sprintf("Frame %d/%d  scan %d  %.1f deg",
		ip.state.FrameIndex+1, ip.state.Current.Len(), f.Scan, f.Angle))
	ip.framePreview.Image = canvas.Thumbnail(f.Render())
	ip.framePreview.Refresh()
}

func dpiText(f *stack.Frame) string {
	if f.DPI > 0 {
		return fmt.Sprintf("DPI: %.0f", f.DPI)
	}
	return "DPI: unknown"
}
