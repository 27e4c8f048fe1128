package unwrap

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"lamino-align/internal/options"
	"lamino-align/internal/roi"
	"lamino-align/internal/stack"
)

// truePhase is a smooth ramp whose neighbor steps stay below pi so both
// unwrappers can recover it exactly.
func truePhase(rows, cols int) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, 0.2*float64(i)+0.3*float64(j))
		}
	}
	return m
}

func wrapped(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	w := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			w.Set(i, j, wrapToPi(m.At(i, j)))
		}
	}
	return w
}

func maxAbsDiff(a, b *mat.Dense) float64 {
	rows, cols := a.Dims()
	var worst float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if d := math.Abs(a.At(i, j) - b.At(i, j)); d > worst {
				worst = d
			}
		}
	}
	return worst
}

func TestGradientIntegrationRecoversSmoothPhase(t *testing.T) {
	phi := truePhase(20, 30)
	for _, rowMajor := range []bool{true, false} {
		got := GradientIntegration(wrapped(phi), rowMajor)
		if d := maxAbsDiff(got, phi); d > 1e-9 {
			t.Fatalf("rowMajor=%v: max deviation %g", rowMajor, d)
		}
	}
}

func TestIterativeResidualRecoversSmoothPhase(t *testing.T) {
	phi := truePhase(20, 30)
	got, iters := IterativeResidual(wrapped(phi), 50, 1e-6)
	if iters >= 50 {
		t.Fatalf("did not converge, used %d sweeps", iters)
	}
	if d := maxAbsDiff(got, phi); d > 1e-9 {
		t.Fatalf("max deviation %g after %d sweeps", d, iters)
	}
}

func TestIterativeResidualLeavesUnwrappedPhaseAlone(t *testing.T) {
	phi := truePhase(10, 10)
	got, iters := IterativeResidual(phi, 50, 1e-6)
	if iters != 1 {
		t.Fatalf("clean input should converge in one sweep, used %d", iters)
	}
	if d := maxAbsDiff(got, phi); d != 0 {
		t.Fatalf("clean input changed by %g", d)
	}
}

func TestWrapToPi(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi / 2, math.Pi / 2},
		{2 * math.Pi, 0},
		{2*math.Pi + 0.25, 0.25},
		{-2*math.Pi - 0.25, -0.25},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{7 * math.Pi, math.Pi},
		{-7 * math.Pi, math.Pi},
	}
	for _, tc := range cases {
		if got := wrapToPi(tc.in); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("wrapToPi(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRemoveAirGapRamp(t *testing.T) {
	// Signal in the middle, pure ramp elsewhere. Fitting the ramp over an
	// air strip on the left must flatten the background to zero.
	rows, cols := 40, 60
	m := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, 0.01*float64(j)-0.02*float64(i)+0.5)
		}
	}
	m.Set(20, 40, m.At(20, 40)+3) // object pixel outside the air region

	s := stack.NewStack()
	if err := s.Append(&stack.Frame{Data: m}); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Air strip: 10 wide, full height, hugging the left edge.
	air := options.DefaultROIOptions()
	air.Rectangle = roi.RectangularROI{HorizontalExtent: 10, HorizontalOffset: -25}

	flat, res, err := RemoveAirGapRamp(s, air)
	if err != nil {
		t.Fatalf("ramp removal: %v", err)
	}
	if res.WasClamped {
		t.Fatalf("in-bounds air region should not clamp: %+v", res)
	}

	out := flat.Frames[0].Data
	if v := math.Abs(out.At(5, 5)); v > 1e-9 {
		t.Fatalf("background not flattened: %g", v)
	}
	if v := out.At(20, 40); math.Abs(v-3) > 1e-9 {
		t.Fatalf("object contrast lost: got %g, want 3", v)
	}
}

func TestRemoveAirGapRampClampsRegion(t *testing.T) {
	s := stack.NewStack()
	if err := s.Append(&stack.Frame{Data: truePhase(20, 20)}); err != nil {
		t.Fatalf("append: %v", err)
	}

	air := options.DefaultROIOptions()
	air.Rectangle = roi.RectangularROI{HorizontalExtent: 100, VerticalExtent: 100}

	_, res, err := RemoveAirGapRamp(s, air)
	if err != nil {
		t.Fatalf("ramp removal: %v", err)
	}
	if !res.WasClamped {
		t.Fatalf("oversized air region must be clamped")
	}
	if res.ROI.HorizontalExtent != 20 || res.ROI.VerticalExtent != 20 {
		t.Fatalf("corrected region = %+v", res.ROI)
	}
}

func TestUnwrapStack(t *testing.T) {
	phi := truePhase(16, 16)
	s := stack.NewStack()
	if err := s.Append(&stack.Frame{Scan: 1, Angle: 12.5, Data: wrapped(phi)}); err != nil {
		t.Fatalf("append: %v", err)
	}

	opts := options.DefaultPhaseUnwrapOptions()
	out, err := UnwrapStack(s, opts)
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("len = %d", out.Len())
	}
	if out.Frames[0].Scan != 1 || out.Frames[0].Angle != 12.5 {
		t.Fatalf("metadata lost: %+v", out.Frames[0])
	}
	if d := maxAbsDiff(out.Frames[0].Data, phi); d > 1e-9 {
		t.Fatalf("max deviation %g", d)
	}

	opts.Method = options.UnwrapMethod("nope")
	if _, err := UnwrapStack(s, opts); err == nil {
		t.Fatalf("bad method should fail")
	}
}
