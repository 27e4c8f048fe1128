package panels

import (
	"fmt"
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"lamino-align/internal/app"
	"lamino-align/internal/roi"
	"lamino-align/ui/canvas"
)

// roiOverlayName is the canvas overlay key for the crop region.
const roiOverlayName = "roi"

// ROIPanel edits the rectangular crop region. Every edit is forced into the
// frame bounds immediately; the entries are rewritten with the corrected
// values so the user always sees the region that will actually be used.
type ROIPanel struct {
	state     *app.State
	canvas    *canvas.FrameCanvas
	container fyne.CanvasObject

	hExtent *widget.Entry
	vExtent *widget.Entry
	hOffset *widget.Entry
	vOffset *widget.Entry

	divisorSelect *widget.Select
	policySelect  *widget.Select

	statusLabel *widget.Label
	cropButton  *widget.Button
}

// NewROIPanel creates the ROI editing panel.
func NewROIPanel(state *app.State, cvs *canvas.FrameCanvas) *ROIPanel {
	rp := &ROIPanel{
		state:  state,
		canvas: cvs,
	}

	rp.hExtent = widget.NewEntry()
	rp.vExtent = widget.NewEntry()
	rp.hOffset = widget.NewEntry()
	rp.vOffset = widget.NewEntry()
	rp.statusLabel = widget.NewLabel("")
	rp.statusLabel.Wrapping = fyne.TextWrapWord

	// Commit on focus loss / enter, not per keystroke.
	for _, e := range []*widget.Entry{rp.hExtent, rp.vExtent, rp.hOffset, rp.vOffset} {
		e.OnSubmitted = func(string) { rp.applyEntries() }
	}

	rp.divisorSelect = widget.NewSelect([]string{"1", "2", "4", "8", "16", "32"}, nil)
	rp.divisorSelect.SetSelected("1")

	rp.policySelect = widget.NewSelect([]string{
		roi.RoundNearest.String(),
		roi.RoundCeil.String(),
		roi.RoundFloor.String(),
	}, nil)
	rp.policySelect.SetSelected(roi.RoundNearest.String())

	snapButton := widget.NewButton("Snap Extents", func() {
		rp.snapExtents()
	})

	selectButton := widget.NewButton("Select on Frame", func() {
		rp.statusLabel.SetText("Drag a rectangle on the frame...")
		cvs.EnableSelectMode()
	})
	cvs.OnSelect(func(x1, y1, x2, y2 float64) {
		rp.onRegionSelected(x1, y1, x2, y2)
	})

	applyButton := widget.NewButton("Apply Region", func() {
		rp.applyEntries()
	})

	rp.cropButton = widget.NewButton("Crop Stack", func() {
		if err := state.ApplyCrop(); err != nil {
			rp.statusLabel.SetText(fmt.Sprintf("Crop failed: %v", err))
			return
		}
		shape := state.Current.Shape()
		rp.statusLabel.SetText(fmt.Sprintf("Cropped to %dx%d", shape.Width, shape.Height))
	})

	fullButton := widget.NewButton("Full Frame", func() {
		o := rp.state.ROI
		o.Rectangle = roi.RectangularROI{}
		if _, err := state.SetROI(o); err != nil {
			rp.statusLabel.SetText(err.Error())
			return
		}
		rp.statusLabel.SetText("Region reset to full frame")
	})

	rp.container = container.NewVBox(
		widget.NewCard("Crop Region", "", container.NewVBox(
			widget.NewForm(
				widget.NewFormItem("Width", rp.hExtent),
				widget.NewFormItem("Height", rp.vExtent),
				widget.NewFormItem("Offset X", rp.hOffset),
				widget.NewFormItem("Offset Y", rp.vOffset),
			),
			container.NewHBox(applyButton, fullButton),
			selectButton,
		)),
		widget.NewCard("Snap to Divisor", "", container.NewVBox(
			widget.NewForm(
				widget.NewFormItem("Divisor", rp.divisorSelect),
				widget.NewFormItem("Rounding", rp.policySelect),
			),
			snapButton,
		)),
		widget.NewCard("Apply", "", container.NewVBox(
			rp.cropButton,
			rp.statusLabel,
		)),
	)

	state.On(app.EventROIChanged, func(data interface{}) {
		if res, ok := data.(roi.ClampResult); ok {
			rp.showClampResult(res)
		}
		rp.refreshEntries()
		rp.refreshOverlay()
	})
	state.On(app.EventStackLoaded, func(interface{}) {
		// Re-clamp the stored region against the new frame shape.
		if _, err := state.SetROI(state.ROI); err != nil {
			rp.statusLabel.SetText(err.Error())
		}
	})
	state.On(app.EventCropApplied, func(interface{}) {
		rp.canvas.ClearOverlay(roiOverlayName)
	})

	rp.refreshEntries()
	return rp
}

// Container returns the panel container.
func (rp *ROIPanel) Container() fyne.CanvasObject {
	return rp.container
}

func (rp *ROIPanel) refreshEntries() {
	r := rp.state.ROI.Rectangle
	rp.hExtent.SetText(strconv.Itoa(r.HorizontalExtent))
	rp.vExtent.SetText(strconv.Itoa(r.VerticalExtent))
	rp.hOffset.SetText(strconv.Itoa(r.HorizontalOffset))
	rp.vOffset.SetText(strconv.Itoa(r.VerticalOffset))
}

func (rp *ROIPanel) showClampResult(res roi.ClampResult) {
	if res.WasClamped {
		rp.statusLabel.SetText(fmt.Sprintf(
			"Region adjusted to fit the frame: %dx%d at (%d, %d)",
			res.ROI.HorizontalExtent, res.ROI.VerticalExtent,
			res.ROI.HorizontalOffset, res.ROI.VerticalOffset))
	} else {
		rp.statusLabel.SetText("")
	}
}

// refreshOverlay redraws the ROI rectangle on the canvas in frame
// coordinates.
func (rp *ROIPanel) refreshOverlay() {
	raw := rp.state.Raw
	if raw == nil || raw.Len() == 0 {
		rp.canvas.ClearOverlay(roiOverlayName)
		return
	}

	bounds, _, err := roi.ResolveAbsoluteBounds(rp.state.ROI.Rectangle, raw.Shape())
	if err != nil {
		rp.canvas.ClearOverlay(roiOverlayName)
		return
	}

	rp.canvas.SetOverlay(roiOverlayName, &canvas.Overlay{
		Color: color.RGBA{R: 0x00, G: 0xBC, B: 0xD4, A: 0xFF},
		Rectangles: []canvas.OverlayRect{{
			X:      bounds.XStart,
			Y:      bounds.YStart,
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
			Label:  fmt.Sprintf("ROI %dX%d", bounds.Dx(), bounds.Dy()),
			Fill:   canvas.FillTarget,
		}},
	})
}

// applyEntries parses the four entries and stores the region, letting the
// bounds correction rewrite anything that doesn't fit.
func (rp *ROIPanel) applyEntries() {
	parse := func(e *widget.Entry, name string) (int, bool) {
		v, err := strconv.Atoi(e.Text)
		if err != nil {
			rp.statusLabel.SetText(fmt.Sprintf("Invalid %s: %q", name, e.Text))
			return 0, false
		}
		return v, true
	}

	he, ok := parse(rp.hExtent, "width")
	if !ok {
		return
	}
	ve, ok := parse(rp.vExtent, "height")
	if !ok {
		return
	}
	ho, ok := parse(rp.hOffset, "offset x")
	if !ok {
		return
	}
	vo, ok := parse(rp.vOffset, "offset y")
	if !ok {
		return
	}

	o := rp.state.ROI
	o.Rectangle = roi.RectangularROI{
		HorizontalExtent: he,
		VerticalExtent:   ve,
		HorizontalOffset: ho,
		VerticalOffset:   vo,
	}
	if _, err := rp.state.SetROI(o); err != nil {
		rp.statusLabel.SetText(err.Error())
	}
}

// snapExtents rounds both extents to the selected divisor and re-applies.
func (rp *ROIPanel) snapExtents() {
	divisor, err := strconv.Atoi(rp.divisorSelect.Selected)
	if err != nil {
		return
	}
	policy, err := parsePolicy(rp.policySelect.Selected)
	if err != nil {
		rp.statusLabel.SetText(err.Error())
		return
	}

	r := rp.state.ROI.Rectangle
	snapped, err := roi.RoundSliceToDivisor(
		[]float64{float64(r.HorizontalExtent), float64(r.VerticalExtent)},
		divisor, policy)
	if err != nil {
		rp.statusLabel.SetText(err.Error())
		return
	}
	r.HorizontalExtent = snapped[0]
	r.VerticalExtent = snapped[1]

	o := rp.state.ROI
	o.Rectangle = r
	if _, err := rp.state.SetROI(o); err != nil {
		rp.statusLabel.SetText(err.Error())
		return
	}
	rp.statusLabel.SetText(fmt.Sprintf("Extents snapped to multiples of %d", divisor))
}

// onRegionSelected converts a rubber-band rectangle in frame coordinates to
// the center/extent form and applies it.
func (rp *ROIPanel) onRegionSelected(x1, y1, x2, y2 float64) {
	raw := rp.state.Raw
	if raw == nil || raw.Len() == 0 {
		rp.statusLabel.SetText("Load a stack first")
		return
	}
	shape := raw.Shape()

	width := int(x2 - x1)
	height := int(y2 - y1)
	if width < 1 || height < 1 {
		rp.statusLabel.SetText("Selection too small")
		return
	}

	// Offsets are measured from the frame center to the region center.
	centerX := int(x1) + width/2
	centerY := int(y1) + height/2

	o := rp.state.ROI
	o.Rectangle = roi.RectangularROI{
		HorizontalExtent: width,
		VerticalExtent:   height,
		HorizontalOffset: centerX - shape.Width/2,
		VerticalOffset:   centerY - shape.Height/2,
	}
	if _, err := rp.state.SetROI(o); err != nil {
		rp.statusLabel.SetText(err.Error())
	}
}

func parsePolicy(name string) (roi.RoundPolicy, error) {
	switch name {
	case roi.RoundNearest.String():
		return roi.RoundNearest, nil
	case roi.RoundCeil.String():
		return roi.RoundCeil, nil
	case roi.RoundFloor.String():
		return roi.RoundFloor, nil
	}
	return 0, fmt.Errorf("unknown rounding policy %q", name)
}
