// Package roi provides the ROI geometry core: converting a center/extent
// description of a rectangular region into absolute pixel bounds within a
// 2D array, and forcing out-of-bounds regions back inside the array.
package roi

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for malformed inputs (non-positive array
// dimensions, explicitly negative extents, non-positive divisors).
var ErrInvalidArgument = errors.New("invalid argument")

// RectangularROI describes a rectangular region of interest relative to the
// center of a 2D array. An extent of zero is "unset" and resolves to the
// full array dimension. Offsets displace the ROI center from the array
// center; positive horizontal is right, positive vertical is down.
type RectangularROI struct {
	HorizontalExtent int `json:"horizontal_extent"`
	VerticalExtent   int `json:"vertical_extent"`
	HorizontalOffset int `json:"horizontal_offset"`
	VerticalOffset   int `json:"vertical_offset"`
}

// ArrayShape holds the dimensions of a 2D array as (height, width).
type ArrayShape struct {
	Height int `json:"height"`
	Width  int `json:"width"`
}

// Bounds holds absolute pixel-index bounds within a 2D array. The window
// covers columns [XStart, XEnd) and rows [YStart, YEnd).
type Bounds struct {
	XStart, XEnd int
	YStart, YEnd int
}

// Dx returns the window width in pixels.
func (b Bounds) Dx() int { return b.XEnd - b.XStart }

// Dy returns the window height in pixels.
func (b Bounds) Dy() int { return b.YEnd - b.YStart }

// ClampResult is the outcome of forcing an ROI into array bounds.
// WasClamped is true if any edge had to be adjusted.
type ClampResult struct {
	ROI        RectangularROI
	WasClamped bool
}

// clampAxis resolves one axis of the ROI window. dim is the array size along
// the axis, extent the resolved window size, offset the displacement of the
// window center from the axis center (dim/2).
//
// The two edge corrections are applied unconditionally in fixed order (low
// edge, then high edge) and chain within the axis: when both edges violate
// the bounds, the second correction sees the first one's clamped value. The
// corrected offset is recomputed from the shrunk window, not shifted.
func clampAxis(dim, extent, offset int) (start, end, corrected int, clamped bool) {
	center := dim / 2
	half := extent / 2
	start = center + offset - half
	end = center + offset + half
	corrected = offset

	if start < 0 {
		start = 0
		corrected = (end-start)/2 - center
		clamped = true
	}
	if end > dim {
		end = dim
		corrected = center - (end-start)/2
		clamped = true
	}

	// Degenerate window: a sub-2px extent collapses to zero width, and a
	// window displaced entirely past one edge survives the corrections
	// above with end <= start. Pin a single pixel at the nearer edge.
	if end <= start {
		if start >= dim {
			start = dim - 1
			clamped = true
		}
		if start < 0 {
			start = 0
			clamped = true
		}
		end = start + 1
		corrected = start - center
	}
	return start, end, corrected, clamped
}

// ResolveAbsoluteBounds converts an ROI into absolute pixel bounds against
// the given array shape. The returned flag reports whether any edge had to
// be clamped. The result always satisfies
// 0 <= XStart < XEnd <= Width and 0 <= YStart < YEnd <= Height.
func ResolveAbsoluteBounds(r RectangularROI, shape ArrayShape) (Bounds, bool, error) {
	b, _, oob, err := resolve(r, shape)
	return b, oob, err
}

// ClampToBounds forces an ROI into the array bounds, shrinking and
// recentering as needed. The input is never mutated; out-of-bounds ROIs are
// a normal outcome reported through WasClamped, not an error.
func ClampToBounds(r RectangularROI, shape ArrayShape) (ClampResult, error) {
	b, corrected, oob, err := resolve(r, shape)
	if err != nil {
		return ClampResult{}, err
	}
	out := RectangularROI{
		HorizontalExtent: b.Dx(),
		VerticalExtent:   b.Dy(),
		HorizontalOffset: corrected.HorizontalOffset,
		VerticalOffset:   corrected.VerticalOffset,
	}

	// A clamp against an edge can leave the window with an odd extent, and
	// resolving an odd extent shaves one pixel (symmetric half-width). Resolve
	// the corrected ROI once more so the reported ROI re-resolves to itself.
	b2, c2, _, err := resolve(out, shape)
	if err != nil {
		return ClampResult{}, err
	}
	out = RectangularROI{
		HorizontalExtent: b2.Dx(),
		VerticalExtent:   b2.Dy(),
		HorizontalOffset: c2.HorizontalOffset,
		VerticalOffset:   c2.VerticalOffset,
	}
	return ClampResult{ROI: out, WasClamped: oob}, nil
}

func resolve(r RectangularROI, shape ArrayShape) (Bounds, RectangularROI, bool, error) {
	if shape.Width <= 0 || shape.Height <= 0 {
		return Bounds{}, RectangularROI{}, false,
			fmt.Errorf("%w: array shape %dx%d must have positive dimensions", ErrInvalidArgument, shape.Height, shape.Width)
	}
	if r.HorizontalExtent < 0 || r.VerticalExtent < 0 {
		return Bounds{}, RectangularROI{}, false,
			fmt.Errorf("%w: negative extent (%d, %d)", ErrInvalidArgument, r.HorizontalExtent, r.VerticalExtent)
	}

	wx := r.HorizontalExtent
	if wx == 0 {
		wx = shape.Width
	}
	wy := r.VerticalExtent
	if wy == 0 {
		wy = shape.Height
	}

	xStart, xEnd, cx, xClamped := clampAxis(shape.Width, wx, r.HorizontalOffset)
	yStart, yEnd, cy, yClamped := clampAxis(shape.Height, wy, r.VerticalOffset)

	bounds := Bounds{XStart: xStart, XEnd: xEnd, YStart: yStart, YEnd: yEnd}
	corrected := RectangularROI{HorizontalOffset: cx, VerticalOffset: cy}
	return bounds, corrected, xClamped || yClamped, nil
}
