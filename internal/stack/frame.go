// Package stack provides the projection stack data model: per-frame phase
// data with scan metadata, loading from image files, and ROI cropping.
package stack

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"lamino-align/internal/roi"
)

// Frame holds one projection: a dense float64 phase image plus the metadata
// needed to order and identify it within an experiment.
type Frame struct {
	Path  string  // Original file path
	Scan  int     // Scan number parsed from the filename
	Angle float64 // Rotation angle in degrees
	DPI   float64 // Detected or user-specified DPI
	Data  *mat.Dense
}

// Shape returns the frame dimensions as (height, width).
func (f *Frame) Shape() roi.ArrayShape {
	if f.Data == nil {
		return roi.ArrayShape{}
	}
	rows, cols := f.Data.Dims()
	return roi.ArrayShape{Height: rows, Width: cols}
}

// MinMax returns the minimum and maximum values in the frame.
func (f *Frame) MinMax() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	rows, cols := f.Data.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := f.Data.At(i, j)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}

// Render converts the frame to an 8-bit grayscale image, scaling the value
// range to full contrast. Used by the canvas and the thumbnail strip.
func (f *Frame) Render() *image.Gray {
	rows, cols := f.Data.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))

	lo, hi := f.MinMax()
	span := hi - lo
	if span == 0 {
		span = 1
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := (f.Data.At(i, j) - lo) / span
			img.SetGray(j, i, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}
	return img
}

// Stack is an ordered collection of frames sharing one shape.
type Stack struct {
	Frames []*Frame
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Append adds a frame, enforcing that all frames share the same shape.
func (s *Stack) Append(f *Frame) error {
	if f == nil || f.Data == nil {
		return fmt.Errorf("nil frame")
	}
	if len(s.Frames) > 0 {
		if got, want := f.Shape(), s.Shape(); got != want {
			return fmt.Errorf("frame %s shape %dx%d does not match stack shape %dx%d",
				f.Path, got.Height, got.Width, want.Height, want.Width)
		}
	}
	s.Frames = append(s.Frames, f)
	return nil
}

// Len returns the number of frames.
func (s *Stack) Len() int { return len(s.Frames) }

// Shape returns the common frame shape, or the zero shape for an empty stack.
func (s *Stack) Shape() roi.ArrayShape {
	if len(s.Frames) == 0 {
		return roi.ArrayShape{}
	}
	return s.Frames[0].Shape()
}

// SortByAngle orders the frames by ascending rotation angle, breaking ties
// by scan number.
func (s *Stack) SortByAngle() {
	sort.SliceStable(s.Frames, func(i, j int) bool {
		if s.Frames[i].Angle != s.Frames[j].Angle {
			return s.Frames[i].Angle < s.Frames[j].Angle
		}
		return s.Frames[i].Scan < s.Frames[j].Scan
	})
}
