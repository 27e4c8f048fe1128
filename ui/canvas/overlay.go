package canvas

import (
	"image/color"
)

// Overlay is a named set of rectangles drawn over the frame in image
// coordinates.
type Overlay struct {
	Rectangles []OverlayRect
	Color      color.RGBA
}

// FillPattern indicates how to fill an overlay rectangle.
type FillPattern int

const (
	FillNone   FillPattern = iota // Just outline
	FillStripe                    // Diagonal stripe
	FillTarget                    // Crosshairs through center
)

// OverlayRect is a rectangle to draw on the overlay.
type OverlayRect struct {
	X, Y, Width, Height int
	Label               string // Optional label drawn above the top-left corner
	Fill                FillPattern
	StripeInterval      int // Interval for the stripe pattern (0 = 16 px)
}
