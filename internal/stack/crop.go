package stack

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"lamino-align/internal/roi"
)

// Crop returns a new stack restricted to the given ROI. The ROI is forced
// into the stack bounds first; the applied region is reported through the
// returned ClampResult so callers can persist the corrected parameters.
// The receiver is not modified.
func (s *Stack) Crop(r roi.RectangularROI) (*Stack, roi.ClampResult, error) {
	if s.Len() == 0 {
		return nil, roi.ClampResult{}, fmt.Errorf("crop: empty stack")
	}
	shape := s.Shape()

	res, err := roi.ClampToBounds(r, shape)
	if err != nil {
		return nil, roi.ClampResult{}, fmt.Errorf("crop: %w", err)
	}
	// Slice from the corrected ROI so the reported parameters describe
	// exactly the window that was cut.
	bounds, _, err := roi.ResolveAbsoluteBounds(res.ROI, shape)
	if err != nil {
		return nil, roi.ClampResult{}, fmt.Errorf("crop: %w", err)
	}

	out := NewStack()
	for _, f := range s.Frames {
		sub := f.Data.Slice(bounds.YStart, bounds.YEnd, bounds.XStart, bounds.XEnd)
		cropped := &Frame{
			Path:  f.Path,
			Scan:  f.Scan,
			Angle: f.Angle,
			DPI:   f.DPI,
			Data:  mat.DenseCopyOf(sub),
		}
		if err := out.Append(cropped); err != nil {
			return nil, roi.ClampResult{}, err
		}
	}
	return out, res, nil
}
