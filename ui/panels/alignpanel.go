package panels

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"lamino-align/internal/alignment"
	"lamino-align/internal/app"
)

// AlignPanel configures and runs frame-to-frame drift correction.
type AlignPanel struct {
	state     *app.State
	container fyne.CanvasObject

	maxShift    *widget.Entry
	reference   *widget.Entry
	useOpenCV   *widget.Check
	runButton   *widget.Button
	statusLabel *widget.Label
	driftLabel  *widget.Label
}

// NewAlignPanel creates the alignment panel.
func NewAlignPanel(state *app.State) *AlignPanel {
	ap := &AlignPanel{state: state}

	defaults := alignment.DefaultOptions()
	ap.maxShift = widget.NewEntry()
	ap.maxShift.SetText(strconv.Itoa(defaults.MaxShift))
	ap.reference = widget.NewEntry()
	ap.reference.SetText("0")
	ap.useOpenCV = widget.NewCheck("Use OpenCV matcher", nil)

	ap.statusLabel = widget.NewLabel("")
	ap.statusLabel.Wrapping = fyne.TextWrapWord
	ap.driftLabel = widget.NewLabel("")
	ap.driftLabel.Wrapping = fyne.TextWrapWord

	ap.runButton = widget.NewButton("Align Stack", func() {
		ap.onRun()
	})

	ap.container = container.NewVBox(
		widget.NewCard("Drift Search", "", container.NewVBox(
			widget.NewForm(
				widget.NewFormItem("Max shift (px)", ap.maxShift),
				widget.NewFormItem("Reference frame", ap.reference),
			),
			ap.useOpenCV,
		)),
		widget.NewCard("Run", "", container.NewVBox(
			ap.runButton,
			ap.statusLabel,
			ap.driftLabel,
		)),
	)

	state.On(app.EventAlignmentComplete, func(data interface{}) {
		drifts, ok := data.([]alignment.Drift)
		if !ok {
			return
		}
		ap.statusLabel.SetText("Alignment complete")
		ap.driftLabel.SetText(formatDrifts(drifts))
	})

	return ap
}

// Container returns the panel container.
func (ap *AlignPanel) Container() fyne.CanvasObject {
	return ap.container
}

func (ap *AlignPanel) onRun() {
	maxShift, err := strconv.Atoi(ap.maxShift.Text)
	if err != nil {
		ap.statusLabel.SetText(fmt.Sprintf("Invalid max shift: %q", ap.maxShift.Text))
		return
	}
	reference, err := strconv.Atoi(ap.reference.Text)
	if err != nil {
		ap.statusLabel.SetText(fmt.Sprintf("Invalid reference frame: %q", ap.reference.Text))
		return
	}

	ap.state.Align = alignment.Options{
		MaxShift:  maxShift,
		Reference: reference,
		UseOpenCV: ap.useOpenCV.Checked,
	}

	ap.statusLabel.SetText("Estimating drift...")
	ap.runButton.Disable()

	// The NCC search is quadratic in the shift bound; keep it off the UI
	// loop.
	go func() {
		err := ap.state.ApplyAlignment()
		ap.runButton.Enable()
		if err != nil {
			ap.statusLabel.SetText(fmt.Sprintf("Alignment failed: %v", err))
		}
	}()
}

// formatDrifts summarizes per-frame drifts, eliding long stacks.
func formatDrifts(drifts []alignment.Drift) string {
	const maxShown = 12
	var b strings.Builder
	for i, d := range drifts {
		if i == maxShown {
			fmt.Fprintf(&b, "... %d more", len(drifts)-maxShown)
			break
		}
		fmt.Fprintf(&b, "#%d: (%+d, %+d)\n", i, d.DX, d.DY)
	}
	return b.String()
}
