// Package alignment estimates and corrects frame-to-frame drift in a
// projection stack using normalized cross-correlation.
package alignment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"lamino-align/internal/stack"
)

// Drift is the integer translation, right and down positive, that best
// aligns a frame to the reference. Applying (DX, DY) to the frame with
// ApplyShift moves its content onto the reference. Score is the NCC peak.
type Drift struct {
	DX    int
	DY    int
	Score float64
}

// Options controls drift estimation.
type Options struct {
	// MaxShift bounds the search window in pixels on both axes.
	MaxShift int
	// Reference is the index of the frame the others are aligned to.
	Reference int
	// UseOpenCV routes estimation through gocv's matchTemplate. The pure
	// Go search is used otherwise, or when frames are too small for the
	// template inset.
	UseOpenCV bool
}

// DefaultOptions returns drift estimation defaults.
func DefaultOptions() Options {
	return Options{MaxShift: 20}
}

// EstimateDrift finds the integer shift of mov relative to ref that
// maximizes normalized cross-correlation over the overlapping region.
// The search covers [-maxShift, maxShift] on both axes.
func EstimateDrift(ref, mov *mat.Dense, maxShift int) (Drift, error) {
	rr, rc := ref.Dims()
	mr, mc := mov.Dims()
	if rr != mr || rc != mc {
		return Drift{}, fmt.Errorf("drift: frame shapes differ: %dx%d vs %dx%d", rr, rc, mr, mc)
	}
	if maxShift <= 0 {
		return Drift{}, fmt.Errorf("drift: max shift must be positive, got %d", maxShift)
	}
	if maxShift >= rr || maxShift >= rc {
		return Drift{}, fmt.Errorf("drift: max shift %d too large for %dx%d frames", maxShift, rr, rc)
	}

	best := Drift{Score: math.Inf(-1)}
	for dy := -maxShift; dy <= maxShift; dy++ {
		for dx := -maxShift; dx <= maxShift; dx++ {
			score := nccAt(ref, mov, dx, dy)
			if score > best.Score {
				best = Drift{DX: dx, DY: dy, Score: score}
			}
		}
	}
	return best, nil
}

// nccAt computes normalized cross-correlation between ref and mov shifted
// by (dx, dy), over the pixels where the two overlap.
func nccAt(ref, mov *mat.Dense, dx, dy int) float64 {
	rows, cols := ref.Dims()

	y0, y1 := 0, rows
	x0, x1 := 0, cols
	if dy > 0 {
		y0 = dy
	} else {
		y1 = rows + dy
	}
	if dx > 0 {
		x0 = dx
	} else {
		x1 = cols + dx
	}
	n := float64((y1 - y0) * (x1 - x0))
	if n == 0 {
		return math.Inf(-1)
	}

	var sumR, sumM float64
	for i := y0; i < y1; i++ {
		for j := x0; j < x1; j++ {
			sumR += ref.At(i, j)
			sumM += mov.At(i-dy, j-dx)
		}
	}
	meanR, meanM := sumR/n, sumM/n

	var cross, varR, varM float64
	for i := y0; i < y1; i++ {
		for j := x0; j < x1; j++ {
			r := ref.At(i, j) - meanR
			m := mov.At(i-dy, j-dx) - meanM
			cross += r * m
			varR += r * r
			varM += m * m
		}
	}
	denom := math.Sqrt(varR * varM)
	if denom == 0 {
		return math.Inf(-1)
	}
	return cross / denom
}

// ApplyShift translates the frame data by (dx, dy), filling uncovered
// pixels with zero. The input is not modified.
func ApplyShift(m *mat.Dense, dx, dy int) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		si := i - dy
		if si < 0 || si >= rows {
			continue
		}
		for j := 0; j < cols; j++ {
			sj := j - dx
			if sj < 0 || sj >= cols {
				continue
			}
			out.Set(i, j, m.At(si, sj))
		}
	}
	return out
}

// AlignStack estimates every frame's drift against the reference frame and
// returns a shift-corrected copy of the stack plus the per-frame drifts.
func AlignStack(s *stack.Stack, opts Options) (*stack.Stack, []Drift, error) {
	if s.Len() == 0 {
		return nil, nil, fmt.Errorf("align: empty stack")
	}
	if opts.Reference < 0 || opts.Reference >= s.Len() {
		return nil, nil, fmt.Errorf("align: reference index %d out of range", opts.Reference)
	}
	ref := s.Frames[opts.Reference].Data

	estimate := EstimateDrift
	if opts.UseOpenCV {
		estimate = EstimateDriftOpenCV
	}

	out := stack.NewStack()
	drifts := make([]Drift, 0, s.Len())
	for idx, f := range s.Frames {
		var d Drift
		if idx != opts.Reference {
			var err error
			d, err = estimate(ref, f.Data, opts.MaxShift)
			if err != nil {
				return nil, nil, fmt.Errorf("align frame %d: %w", idx, err)
			}
		}
		drifts = append(drifts, d)

		corrected := &stack.Frame{
			Path:  f.Path,
			Scan:  f.Scan,
			Angle: f.Angle,
			DPI:   f.DPI,
			Data:  ApplyShift(f.Data, d.DX, d.DY),
		}
		if err := out.Append(corrected); err != nil {
			return nil, nil, err
		}
	}
	return out, drifts, nil
}
