// Package canvas provides the frame display with pan, zoom, overlays, and
// rubber-band region selection.
package canvas

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25
)

// FrameCanvas displays a single projection frame with pan, zoom, overlays,
// and rubber-band selection.
type FrameCanvas struct {
	widget.BaseWidget

	// Frame being displayed, rendered to 8-bit grayscale upstream
	img image.Image

	// Overlays keyed by name (e.g. "roi", "air_region")
	overlays map[string]*Overlay

	// Display state
	raster *fynecanvas.Raster
	zoom   float64

	// Selection (rubber-band)
	selecting     bool
	selectMode    bool // When true, the next drag creates a selection
	selectStart   fyne.Position
	selectEnd     fyne.Position
	selectionRect *OverlayRect // Current selection in canvas coords

	// Container
	scroll  *zoomScroll
	content *draggableContent
	imgSize fyne.Size

	// Fit to window
	fitToWindow    bool
	lastScrollSize fyne.Size

	// Callbacks
	onZoomChange func(zoom float64)
	onSelect     func(x1, y1, x2, y2 float64) // Image coordinates
}

// zoomScroll wraps a scroll container but intercepts the wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *FrameCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *FrameCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Offset returns the scroll container's current offset.
func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

// Size returns the scroll container's size.
func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

// Refresh refreshes the scroll container.
func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

// Resize sets the size of the scroll container.
func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// draggableContent wraps the raster to handle mouse events.
type draggableContent struct {
	widget.BaseWidget
	canvas *FrameCanvas
	raster *fynecanvas.Raster
}

func newDraggableContent(fc *FrameCanvas, raster *fynecanvas.Raster) *draggableContent {
	dc := &draggableContent{canvas: fc, raster: raster}
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *draggableContent) CreateRenderer() fyne.WidgetRenderer {
	return &draggableContentRenderer{content: dc}
}

func (dc *draggableContent) MinSize() fyne.Size {
	return dc.raster.MinSize()
}

func (dc *draggableContent) Dragged(ev *fyne.DragEvent) {
	if !dc.canvas.selectMode {
		return
	}

	// ev.Position is viewport-relative; add the scroll offset to get the
	// content position.
	scrollOffset := dc.canvas.scroll.Offset()
	pos := fyne.Position{
		X: ev.Position.X + scrollOffset.X,
		Y: ev.Position.Y + scrollOffset.Y,
	}

	if !dc.canvas.selecting {
		dc.canvas.selecting = true
		dc.canvas.selectStart = pos
	}
	dc.canvas.selectEnd = pos

	x1, y1 := float64(dc.canvas.selectStart.X), float64(dc.canvas.selectStart.Y)
	x2, y2 := float64(dc.canvas.selectEnd.X), float64(dc.canvas.selectEnd.Y)
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}

	dc.canvas.selectionRect = &OverlayRect{
		X:      int(x1),
		Y:      int(y1),
		Width:  int(x2 - x1),
		Height: int(y2 - y1),
	}
	dc.canvas.Refresh()
}

func (dc *draggableContent) DragEnd() {
	if !dc.canvas.selectMode || !dc.canvas.selecting {
		return
	}

	dc.canvas.selecting = false
	dc.canvas.selectMode = false // Auto-disable after selection

	if dc.canvas.onSelect != nil && dc.canvas.selectionRect != nil {
		rect := dc.canvas.selectionRect
		// Report in image coordinates.
		z := dc.canvas.zoom
		dc.canvas.onSelect(
			float64(rect.X)/z,
			float64(rect.Y)/z,
			float64(rect.X+rect.Width)/z,
			float64(rect.Y+rect.Height)/z,
		)
	}

	dc.canvas.selectionRect = nil
	dc.canvas.Refresh()
}

func (dc *draggableContent) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		dc.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		dc.canvas.ZoomOut()
	}
}

type draggableContentRenderer struct {
	content *draggableContent
}

func (r *draggableContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *draggableContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *draggableContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *draggableContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *draggableContentRenderer) Destroy() {}

// NewFrameCanvas creates an empty frame canvas.
func NewFrameCanvas() *FrameCanvas {
	fc := &FrameCanvas{
		zoom:     1.0,
		imgSize:  fyne.NewSize(400, 300),
		overlays: make(map[string]*Overlay),
	}

	fc.raster = fynecanvas.NewRaster(fc.draw)
	fc.raster.ScaleMode = fynecanvas.ImageScalePixels
	fc.raster.SetMinSize(fc.imgSize)

	fc.content = newDraggableContent(fc, fc.raster)
	fc.scroll = newZoomScroll(fc.content, fc)

	fc.ExtendBaseWidget(fc)
	return fc
}

// EnableSelectMode arms rubber-band selection for the next drag.
func (fc *FrameCanvas) EnableSelectMode() {
	fc.selectMode = true
	fc.selecting = false
	fc.selectionRect = nil
}

// Container returns the canvas container for embedding in layouts.
func (fc *FrameCanvas) Container() fyne.CanvasObject {
	return fc.scroll
}

// SetImage sets the frame image to display.
func (fc *FrameCanvas) SetImage(img image.Image) {
	fc.img = img
	fc.updateContentSize()
}

// GetImage returns the displayed image.
func (fc *FrameCanvas) GetImage() image.Image {
	return fc.img
}

// SetOverlay sets an overlay with the given name.
func (fc *FrameCanvas) SetOverlay(name string, overlay *Overlay) {
	fc.overlays[name] = overlay
	fc.Refresh()
}

// ClearOverlay removes an overlay by name.
func (fc *FrameCanvas) ClearOverlay(name string) {
	delete(fc.overlays, name)
	fc.Refresh()
}

// ClearAllOverlays removes all overlays.
func (fc *FrameCanvas) ClearAllOverlays() {
	fc.overlays = make(map[string]*Overlay)
	fc.Refresh()
}

// SetZoom sets the zoom level.
func (fc *FrameCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	fc.zoom = zoom
	fc.updateContentSize()

	if fc.onZoomChange != nil {
		fc.onZoomChange(zoom)
	}
}

// GetZoom returns the current zoom level.
func (fc *FrameCanvas) GetZoom() float64 {
	return fc.zoom
}

// ZoomIn increases the zoom level.
func (fc *FrameCanvas) ZoomIn() {
	fc.SetZoom(fc.zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (fc *FrameCanvas) ZoomOut() {
	fc.SetZoom(fc.zoom / zoomStep)
}

// FitToWindow adjusts zoom to fit the frame in the visible area.
func (fc *FrameCanvas) FitToWindow() {
	bounds := fc.imageBounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return
	}

	viewSize := fc.scroll.Size()
	if viewSize.Width <= 0 || viewSize.Height <= 0 {
		return
	}

	zoomX := float64(viewSize.Width) / float64(bounds.Dx())
	zoomY := float64(viewSize.Height) / float64(bounds.Dy())

	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}

	fc.SetZoom(zoom * 0.95) // Leave a small margin
}

// SetFitToWindow enables or disables auto-fit on resize.
func (fc *FrameCanvas) SetFitToWindow(fit bool) {
	fc.fitToWindow = fit
	if fit {
		fc.FitToWindow()
	}
}

// GetFitToWindow returns the current fit-to-window state.
func (fc *FrameCanvas) GetFitToWindow() bool {
	return fc.fitToWindow
}

// CheckResize auto-fits when the scroll container was resized.
func (fc *FrameCanvas) CheckResize(size fyne.Size) {
	if !fc.fitToWindow {
		return
	}
	if size.Width > 0 && size.Height > 0 && size != fc.lastScrollSize {
		fc.lastScrollSize = size
		fc.FitToWindow()
	}
}

// OnZoomChange sets a callback for zoom changes.
func (fc *FrameCanvas) OnZoomChange(callback func(zoom float64)) {
	fc.onZoomChange = callback
}

// OnSelect sets a callback for selection completion. Coordinates are in
// image space.
func (fc *FrameCanvas) OnSelect(callback func(x1, y1, x2, y2 float64)) {
	fc.onSelect = callback
}

// ImageToCanvas converts image coordinates to canvas coordinates.
func (fc *FrameCanvas) ImageToCanvas(imgX, imgY float64) (canvasX, canvasY float64) {
	return imgX * fc.zoom, imgY * fc.zoom
}

// CanvasToImage converts canvas coordinates to image coordinates.
func (fc *FrameCanvas) CanvasToImage(canvasX, canvasY float64) (imgX, imgY float64) {
	return canvasX / fc.zoom, canvasY / fc.zoom
}

// Refresh refreshes the canvas display.
func (fc *FrameCanvas) Refresh() {
	fc.raster.Refresh()
}

func (fc *FrameCanvas) imageBounds() image.Rectangle {
	if fc.img == nil {
		return image.Rectangle{}
	}
	return fc.img.Bounds()
}

// updateContentSize updates the content size based on image and zoom.
func (fc *FrameCanvas) updateContentSize() {
	bounds := fc.imageBounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		fc.imgSize = fyne.NewSize(400, 300)
	} else {
		width := float32(float64(bounds.Dx()) * fc.zoom)
		height := float32(float64(bounds.Dy()) * fc.zoom)
		fc.imgSize = fyne.NewSize(width, height)
	}

	fc.raster.SetMinSize(fc.imgSize)
	fc.raster.Resize(fc.imgSize)
	if fc.content != nil {
		fc.content.Resize(fc.imgSize)
		fc.content.Refresh()
	}
	fc.raster.Refresh()
	if fc.scroll != nil {
		fc.scroll.Refresh()
	}
}

// draw is the raster drawing function.
func (fc *FrameCanvas) draw(w, h int) image.Image {
	currentSize := fyne.NewSize(float32(w), float32(h))
	if fc.fitToWindow && currentSize != fc.lastScrollSize && w > 0 && h > 0 {
		fc.lastScrollSize = currentSize
		// Schedule fit after this draw completes.
		go fc.FitToWindow()
	}

	output := image.NewRGBA(image.Rect(0, 0, w, h))

	// Black background.
	for i := 3; i < len(output.Pix); i += 4 {
		output.Pix[i] = 255
	}

	fc.blitFrame(output, w, h)

	for _, overlay := range fc.overlays {
		if overlay != nil {
			fc.drawOverlay(output, overlay)
		}
	}

	if fc.selecting && fc.selectionRect != nil {
		fc.drawSelectionRect(output, fc.selectionRect)
	}

	return output
}

// blitFrame draws the frame image onto the output, nearest-neighbor scaled
// by the zoom factor.
func (fc *FrameCanvas) blitFrame(output *image.RGBA, w, h int) {
	if fc.img == nil {
		return
	}
	srcBounds := fc.img.Bounds()

	for y := 0; y < h; y++ {
		srcY := int(float64(y)/fc.zoom) + srcBounds.Min.Y
		if srcY < srcBounds.Min.Y || srcY >= srcBounds.Max.Y {
			continue
		}
		for x := 0; x < w; x++ {
			srcX := int(float64(x)/fc.zoom) + srcBounds.Min.X
			if srcX < srcBounds.Min.X || srcX >= srcBounds.Max.X {
				continue
			}
			output.Set(x, y, fc.img.At(srcX, srcY))
		}
	}
}

// drawSelectionRect draws the in-progress rubber-band rectangle.
func (fc *FrameCanvas) drawSelectionRect(output *image.RGBA, rect *OverlayRect) {
	col := color.RGBA{R: 0x00, G: 0xBC, B: 0xD4, A: 0xFF}
	drawRectOutline(output, rect.X, rect.Y, rect.X+rect.Width, rect.Y+rect.Height, col)
}

// CreateRenderer implements fyne.Widget.
func (fc *FrameCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &frameCanvasRenderer{canvas: fc}
}

type frameCanvasRenderer struct {
	canvas *FrameCanvas
}

func (r *frameCanvasRenderer) Layout(size fyne.Size) {
	if r.canvas.scroll != nil {
		r.canvas.scroll.Resize(size)
	} else if r.canvas.content != nil {
		r.canvas.content.Resize(size)
	}
	r.canvas.CheckResize(size)
}

func (r *frameCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *frameCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *frameCanvasRenderer) Objects() []fyne.CanvasObject {
	if r.canvas.scroll != nil {
		return []fyne.CanvasObject{r.canvas.scroll}
	}
	return []fyne.CanvasObject{r.canvas.content}
}

func (r *frameCanvasRenderer) Destroy() {}
