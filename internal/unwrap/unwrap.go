// Package unwrap implements phase unwrapping for projection stacks:
// iterative residual correction, gradient integration, and removal of the
// linear phase ramp estimated over an air-only region.
package unwrap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"lamino-align/internal/options"
	"lamino-align/internal/stack"
)

const twoPi = 2 * math.Pi

// UnwrapStack unwraps every frame of the stack using the configured method,
// then optionally removes the air-gap ramp. The input stack is not modified.
func UnwrapStack(s *stack.Stack, opts options.PhaseUnwrapOptions) (*stack.Stack, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("unwrap options: %w", err)
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("unwrap: empty stack")
	}

	out := stack.NewStack()
	for _, f := range s.Frames {
		var data *mat.Dense
		switch opts.Method {
		case options.UnwrapIterativeResidual:
			data, _ = IterativeResidual(f.Data,
				opts.IterativeResidual.MaxIterations, opts.IterativeResidual.Tolerance)
		case options.UnwrapGradientIntegration:
			data = GradientIntegration(f.Data, opts.GradientIntegration.RowMajor)
		}

		unwrapped := &stack.Frame{
			Path:  f.Path,
			Scan:  f.Scan,
			Angle: f.Angle,
			DPI:   f.DPI,
			Data:  data,
		}
		if err := out.Append(unwrapped); err != nil {
			return nil, err
		}
	}

	if opts.RampRemoval.Enabled {
		flattened, res, err := RemoveAirGapRamp(out, opts.RampRemoval.AirRegion)
		if err != nil {
			return nil, err
		}
		if res.WasClamped {
			fmt.Printf("Ramp removal: air region clamped to %+v\n", res.ROI)
		}
		out = flattened
	}
	return out, nil
}

// wrapToPi maps a phase difference into (-pi, pi]. The half-open interval
// needs the subtracted multiple to round halves down, so exact odd multiples
// of pi land on +pi rather than -pi.
func wrapToPi(x float64) float64 {
	return x - twoPi*math.Ceil(x/twoPi-0.5)
}

// IterativeResidual unwraps a frame by sweeping rows then columns,
// subtracting the nearest 2-pi multiple from every neighbor difference,
// until a sweep applies no correction larger than tol or maxIter sweeps
// have run. Returns the unwrapped copy and the number of sweeps used.
func IterativeResidual(m *mat.Dense, maxIter int, tol float64) (*mat.Dense, int) {
	out := mat.DenseCopyOf(m)
	rows, cols := out.Dims()

	for iter := 1; iter <= maxIter; iter++ {
		var largest float64

		// Horizontal sweep: make each row continuous left to right.
		for i := 0; i < rows; i++ {
			for j := 1; j < cols; j++ {
				d := out.At(i, j) - out.At(i, j-1)
				if k := math.Round(d / twoPi); k != 0 {
					out.Set(i, j, out.At(i, j)-k*twoPi)
					if c := math.Abs(k) * twoPi; c > largest {
						largest = c
					}
				}
			}
		}

		// Vertical sweep: make each column continuous top to bottom.
		for j := 0; j < cols; j++ {
			for i := 1; i < rows; i++ {
				d := out.At(i, j) - out.At(i-1, j)
				if k := math.Round(d / twoPi); k != 0 {
					out.Set(i, j, out.At(i, j)-k*twoPi)
					if c := math.Abs(k) * twoPi; c > largest {
						largest = c
					}
				}
			}
		}

		if largest <= tol {
			return out, iter
		}
	}
	return out, maxIter
}

// GradientIntegration unwraps a frame by integrating wrapped neighbor
// differences from the top-left corner. With rowMajor the first column is
// integrated vertically and each row horizontally from it; otherwise the
// roles are swapped. Exact whenever the true phase changes by less than pi
// between neighbors.
func GradientIntegration(m *mat.Dense, rowMajor bool) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Set(0, 0, m.At(0, 0))

	if rowMajor {
		for i := 1; i < rows; i++ {
			out.Set(i, 0, out.At(i-1, 0)+wrapToPi(m.At(i, 0)-m.At(i-1, 0)))
		}
		for i := 0; i < rows; i++ {
			for j := 1; j < cols; j++ {
				out.Set(i, j, out.At(i, j-1)+wrapToPi(m.At(i, j)-m.At(i, j-1)))
			}
		}
		return out
	}

	for j := 1; j < cols; j++ {
		out.Set(0, j, out.At(0, j-1)+wrapToPi(m.At(0, j)-m.At(0, j-1)))
	}
	for j := 0; j < cols; j++ {
		for i := 1; i < rows; i++ {
			out.Set(i, j, out.At(i-1, j)+wrapToPi(m.At(i, j)-m.At(i-1, j)))
		}
	}
	return out
}
