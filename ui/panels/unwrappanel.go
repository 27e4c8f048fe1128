package panels

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"lamino-align/internal/app"
	"lamino-align/internal/options"
	"lamino-align/internal/roi"
)

// UnwrapPanel configures and runs phase unwrapping.
type UnwrapPanel struct {
	state     *app.State
	container fyne.CanvasObject

	methodSelect *widget.RadioGroup
	maxIter      *widget.Entry
	tolerance    *widget.Entry
	rowMajor     *widget.Check

	rampCheck  *widget.Check
	airWidth   *widget.Entry
	airHeight  *widget.Entry
	airOffsetX *widget.Entry
	airOffsetY *widget.Entry

	runButton   *widget.Button
	statusLabel *widget.Label
}

const (
	methodLabelIterative = "Iterative residual"
	methodLabelGradient  = "Gradient integration"
)

// NewUnwrapPanel creates the unwrap panel.
func NewUnwrapPanel(state *app.State) *UnwrapPanel {
	up := &UnwrapPanel{state: state}

	up.methodSelect = widget.NewRadioGroup(
		[]string{methodLabelIterative, methodLabelGradient}, nil)
	up.methodSelect.SetSelected(methodLabelIterative)

	defaults := options.DefaultPhaseUnwrapOptions()
	up.maxIter = widget.NewEntry()
	up.maxIter.SetText(strconv.Itoa(defaults.IterativeResidual.MaxIterations))
	up.tolerance = widget.NewEntry()
	up.tolerance.SetText(strconv.FormatFloat(defaults.IterativeResidual.Tolerance, 'g', -1, 64))
	up.rowMajor = widget.NewCheck("Integrate rows first", nil)
	up.rowMajor.SetChecked(defaults.GradientIntegration.RowMajor)

	up.rampCheck = widget.NewCheck("Remove air-gap ramp", nil)
	up.airWidth = widget.NewEntry()
	up.airWidth.SetText("0")
	up.airHeight = widget.NewEntry()
	up.airHeight.SetText("0")
	up.airOffsetX = widget.NewEntry()
	up.airOffsetX.SetText("0")
	up.airOffsetY = widget.NewEntry()
	up.airOffsetY.SetText("0")

	up.statusLabel = widget.NewLabel("")
	up.statusLabel.Wrapping = fyne.TextWrapWord

	up.runButton = widget.NewButton("Unwrap Stack", func() {
		up.onRun()
	})

	up.container = container.NewVBox(
		widget.NewCard("Method", "", container.NewVBox(
			up.methodSelect,
			widget.NewForm(
				widget.NewFormItem("Max sweeps", up.maxIter),
				widget.NewFormItem("Tolerance", up.tolerance),
			),
			up.rowMajor,
		)),
		widget.NewCard("Air-Gap Ramp", "", container.NewVBox(
			up.rampCheck,
			widget.NewForm(
				widget.NewFormItem("Air width", up.airWidth),
				widget.NewFormItem("Air height", up.airHeight),
				widget.NewFormItem("Offset X", up.airOffsetX),
				widget.NewFormItem("Offset Y", up.airOffsetY),
			),
		)),
		widget.NewCard("Run", "", container.NewVBox(
			up.runButton,
			up.statusLabel,
		)),
	)

	state.On(app.EventUnwrapComplete, func(interface{}) {
		up.statusLabel.SetText("Unwrap complete")
	})

	return up
}

// Container returns the panel container.
func (up *UnwrapPanel) Container() fyne.CanvasObject {
	return up.container
}

// buildOptions reads the controls into a PhaseUnwrapOptions value.
func (up *UnwrapPanel) buildOptions() (options.PhaseUnwrapOptions, error) {
	opts := options.DefaultPhaseUnwrapOptions()

	if up.methodSelect.Selected == methodLabelGradient {
		opts.Method = options.UnwrapGradientIntegration
	} else {
		opts.Method = options.UnwrapIterativeResidual
	}

	maxIter, err := strconv.Atoi(up.maxIter.Text)
	if err != nil {
		return opts, fmt.Errorf("invalid max sweeps: %q", up.maxIter.Text)
	}
	opts.IterativeResidual.MaxIterations = maxIter

	tol, err := strconv.ParseFloat(up.tolerance.Text, 64)
	if err != nil {
		return opts, fmt.Errorf("invalid tolerance: %q", up.tolerance.Text)
	}
	opts.IterativeResidual.Tolerance = tol
	opts.GradientIntegration.RowMajor = up.rowMajor.Checked

	opts.RampRemoval.Enabled = up.rampCheck.Checked
	if opts.RampRemoval.Enabled {
		parse := func(e *widget.Entry, name string) (int, error) {
			v, err := strconv.Atoi(e.Text)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %q", name, e.Text)
			}
			return v, nil
		}
		w, err := parse(up.airWidth, "air width")
		if err != nil {
			return opts, err
		}
		h, err := parse(up.airHeight, "air height")
		if err != nil {
			return opts, err
		}
		ox, err := parse(up.airOffsetX, "offset x")
		if err != nil {
			return opts, err
		}
		oy, err := parse(up.airOffsetY, "offset y")
		if err != nil {
			return opts, err
		}
		opts.RampRemoval.AirRegion = options.ROIOptions{
			Shape: options.ROIShapeRectangular,
			Rectangle: roi.RectangularROI{
				HorizontalExtent: w,
				VerticalExtent:   h,
				HorizontalOffset: ox,
				VerticalOffset:   oy,
			},
		}
	}
	return opts, nil
}

func (up *UnwrapPanel) onRun() {
	opts, err := up.buildOptions()
	if err != nil {
		up.statusLabel.SetText(err.Error())
		return
	}
	if err := opts.Validate(); err != nil {
		up.statusLabel.SetText(err.Error())
		return
	}

	up.state.Unwrap = opts
	up.statusLabel.SetText("Unwrapping...")
	up.runButton.Disable()

	// Run off the UI loop; frames can be large.
	go func() {
		err := up.state.ApplyUnwrap()
		up.runButton.Enable()
		if err != nil {
			up.statusLabel.SetText(fmt.Sprintf("Unwrap failed: %v", err))
		}
	}()
}
