package unwrap

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"lamino-align/internal/options"
	"lamino-align/internal/roi"
	"lamino-align/internal/stack"
)

// RemoveAirGapRamp estimates a linear phase ramp a*x + b*y + c over the
// air-only region of each frame and subtracts it from the whole frame. The
// air region is forced into the frame bounds first; the region actually
// used is reported through the returned ClampResult. The input stack is not
// modified.
func RemoveAirGapRamp(s *stack.Stack, air options.ROIOptions) (*stack.Stack, roi.ClampResult, error) {
	if err := air.Validate(); err != nil {
		return nil, roi.ClampResult{}, fmt.Errorf("air region: %w", err)
	}
	if s.Len() == 0 {
		return nil, roi.ClampResult{}, fmt.Errorf("ramp removal: empty stack")
	}
	shape := s.Shape()

	res, err := roi.ClampToBounds(air.Rectangle, shape)
	if err != nil {
		return nil, roi.ClampResult{}, fmt.Errorf("ramp removal: %w", err)
	}
	// Fit over the corrected region so the reported parameters describe
	// exactly the pixels that went into the plane fit.
	bounds, _, err := roi.ResolveAbsoluteBounds(res.ROI, shape)
	if err != nil {
		return nil, roi.ClampResult{}, fmt.Errorf("ramp removal: %w", err)
	}

	out := stack.NewStack()
	for _, f := range s.Frames {
		a, b, c, err := fitPlane(f.Data, bounds)
		if err != nil {
			return nil, roi.ClampResult{}, fmt.Errorf("ramp removal on %s: %w", f.Path, err)
		}

		rows, cols := f.Data.Dims()
		flat := mat.NewDense(rows, cols, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				flat.Set(i, j, f.Data.At(i, j)-(a*float64(j)+b*float64(i)+c))
			}
		}

		frame := &stack.Frame{
			Path:  f.Path,
			Scan:  f.Scan,
			Angle: f.Angle,
			DPI:   f.DPI,
			Data:  flat,
		}
		if err := out.Append(frame); err != nil {
			return nil, roi.ClampResult{}, err
		}
	}
	return out, res, nil
}

// fitPlane least-squares fits z = a*x + b*y + c over the window.
func fitPlane(m *mat.Dense, w roi.Bounds) (a, b, c float64, err error) {
	n := w.Dx() * w.Dy()
	design := mat.NewDense(n, 3, nil)
	rhs := mat.NewVecDense(n, nil)

	k := 0
	for i := w.YStart; i < w.YEnd; i++ {
		for j := w.XStart; j < w.XEnd; j++ {
			design.Set(k, 0, float64(j))
			design.Set(k, 1, float64(i))
			design.Set(k, 2, 1)
			rhs.SetVec(k, m.At(i, j))
			k++
		}
	}

	var coef mat.VecDense
	if err := coef.SolveVec(design, rhs); err != nil {
		return 0, 0, 0, fmt.Errorf("plane fit: %w", err)
	}
	return coef.AtVec(0), coef.AtVec(1), coef.AtVec(2), nil
}
