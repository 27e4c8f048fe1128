// Package panels provides the tabbed control panels for the application.
package panels

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"

	"lamino-align/internal/app"
	"lamino-align/ui/canvas"
)

// SidePanel groups the pipeline panels into a tabbed container, one tab per
// processing stage.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs

	importPanel *ImportPanel
	roiPanel    *ROIPanel
	unwrapPanel *UnwrapPanel
	alignPanel  *AlignPanel
}

// NewSidePanel creates the side panel.
func NewSidePanel(state *app.State, cvs *canvas.FrameCanvas) *SidePanel {
	sp := &SidePanel{state: state}

	sp.importPanel = NewImportPanel(state)
	sp.roiPanel = NewROIPanel(state, cvs)
	sp.unwrapPanel = NewUnwrapPanel(state)
	sp.alignPanel = NewAlignPanel(state)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Import", sp.importPanel.Container()),
		container.NewTabItem("Crop", sp.roiPanel.Container()),
		container.NewTabItem("Unwrap", sp.unwrapPanel.Container()),
		container.NewTabItem("Align", sp.alignPanel.Container()),
	)

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.importPanel.SetWindow(w)
}
