package roi

import (
	"errors"
	"testing"
)

func TestResolveAbsoluteBounds_CenteredFit(t *testing.T) {
	shape := ArrayShape{Height: 100, Width: 200}
	r := RectangularROI{HorizontalExtent: 50, VerticalExtent: 40}

	b, oob, err := ResolveAbsoluteBounds(r, shape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if oob {
		t.Fatalf("centered ROI should not be clamped")
	}
	want := Bounds{XStart: 75, XEnd: 125, YStart: 30, YEnd: 70}
	if b != want {
		t.Fatalf("bounds = %+v, want %+v", b, want)
	}
}

func TestResolveAbsoluteBounds_UnsetExtentsResolveToFullArray(t *testing.T) {
	shape := ArrayShape{Height: 100, Width: 200}

	b, oob, err := ResolveAbsoluteBounds(RectangularROI{}, shape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if oob {
		t.Fatalf("full-array ROI should not be clamped")
	}
	if b.XStart != 0 || b.XEnd != 200 || b.YStart != 0 || b.YEnd != 100 {
		t.Fatalf("full-array bounds wrong: %+v", b)
	}

	res, err := ClampToBounds(RectangularROI{}, shape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := RectangularROI{HorizontalExtent: 200, VerticalExtent: 100}
	if res.ROI != want || res.WasClamped {
		t.Fatalf("clamp = %+v, want %+v unclamped", res, want)
	}
}

func TestClampToBounds_ExtentLargerThanArray(t *testing.T) {
	shape := ArrayShape{Height: 100, Width: 200}
	r := RectangularROI{HorizontalExtent: 300, VerticalExtent: 40}

	b, oob, err := ResolveAbsoluteBounds(r, shape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !oob {
		t.Fatalf("oversized ROI must report out of bounds")
	}
	if b.XStart != 0 || b.XEnd != 200 {
		t.Fatalf("x bounds = [%d, %d), want [0, 200)", b.XStart, b.XEnd)
	}

	res, err := ClampToBounds(r, shape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ROI.HorizontalExtent != 200 || res.ROI.HorizontalOffset != 0 {
		t.Fatalf("corrected = %+v, want extent 200 offset 0", res.ROI)
	}
	if !res.WasClamped {
		t.Fatalf("WasClamped should be true")
	}
}

func TestClampToBounds_AsymmetricOffsetOverflow(t *testing.T) {
	// Candidate window is [-20, 40); the low edge clamp pins the window at
	// zero and recomputes the offset from the shrunk width.
	shape := ArrayShape{Height: 100, Width: 100}
	r := RectangularROI{HorizontalExtent: 60, VerticalExtent: 60, HorizontalOffset: -40}

	b, oob, err := ResolveAbsoluteBounds(r, shape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !oob {
		t.Fatalf("expected out of bounds")
	}
	if b.XStart != 0 || b.XEnd != 40 {
		t.Fatalf("x bounds = [%d, %d), want [0, 40)", b.XStart, b.XEnd)
	}

	res, err := ClampToBounds(r, shape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := RectangularROI{HorizontalExtent: 40, VerticalExtent: 60, HorizontalOffset: -30}
	if res.ROI != want {
		t.Fatalf("corrected = %+v, want %+v", res.ROI, want)
	}
}

func TestClampToBounds_BothEdgesViolatedChainsWithinAxis(t *testing.T) {
	// Extent exceeds the array from both sides. The low-edge correction
	// fires first, then the high-edge correction recomputes from the
	// already-clamped start. The window ends up exactly [0, width).
	shape := ArrayShape{Height: 50, Width: 60}
	r := RectangularROI{HorizontalExtent: 200, VerticalExtent: 9, HorizontalOffset: 7}

	res, err := ClampToBounds(r, shape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.WasClamped {
		t.Fatalf("WasClamped should be true")
	}
	if res.ROI.HorizontalExtent != 60 || res.ROI.HorizontalOffset != 0 {
		t.Fatalf("corrected = %+v, want extent 60 offset 0", res.ROI)
	}
}

func TestClampToBounds_FullyDisplacedWindow(t *testing.T) {
	shape := ArrayShape{Height: 100, Width: 100}
	cases := []struct {
		name   string
		roi    RectangularROI
		want   RectangularROI
		bounds Bounds
	}{
		{
			name:   "past right edge",
			roi:    RectangularROI{HorizontalExtent: 10, VerticalExtent: 10, HorizontalOffset: 100},
			want:   RectangularROI{HorizontalExtent: 1, VerticalExtent: 10, HorizontalOffset: 49, VerticalOffset: 0},
			bounds: Bounds{XStart: 99, XEnd: 100, YStart: 45, YEnd: 55},
		},
		{
			name:   "past left edge",
			roi:    RectangularROI{HorizontalExtent: 10, VerticalExtent: 10, HorizontalOffset: -100},
			want:   RectangularROI{HorizontalExtent: 1, VerticalExtent: 10, HorizontalOffset: -50, VerticalOffset: 0},
			bounds: Bounds{XStart: 0, XEnd: 1, YStart: 45, YEnd: 55},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, oob, err := ResolveAbsoluteBounds(tc.roi, shape)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !oob {
				t.Fatalf("expected out of bounds")
			}
			if b != tc.bounds {
				t.Fatalf("bounds = %+v, want %+v", b, tc.bounds)
			}

			res, err := ClampToBounds(tc.roi, shape)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.ROI != tc.want {
				t.Fatalf("corrected = %+v, want %+v", res.ROI, tc.want)
			}
		})
	}
}

func TestClampToBounds_SinglePixelExtent(t *testing.T) {
	// A 1px extent has zero half-width; the window still covers one pixel.
	shape := ArrayShape{Height: 100, Width: 100}
	r := RectangularROI{HorizontalExtent: 1, VerticalExtent: 1}

	b, oob, err := ResolveAbsoluteBounds(r, shape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if oob {
		t.Fatalf("in-bounds 1px ROI should not be flagged")
	}
	if b.XStart != 50 || b.XEnd != 51 || b.YStart != 50 || b.YEnd != 51 {
		t.Fatalf("bounds = %+v", b)
	}
}

func TestClampToBounds_IdempotentForInBoundsROI(t *testing.T) {
	shape := ArrayShape{Height: 200, Width: 300}
	r := RectangularROI{HorizontalExtent: 40, VerticalExtent: 60, HorizontalOffset: 10, VerticalOffset: -5}

	res, err := ClampToBounds(r, shape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.WasClamped {
		t.Fatalf("in-bounds ROI should not be clamped")
	}
	if res.ROI != r {
		t.Fatalf("in-bounds ROI changed: %+v -> %+v", r, res.ROI)
	}
}

func TestClampToBounds_OddClampedWindowRoundTrips(t *testing.T) {
	// Clamping against an odd array dimension can leave the window with an
	// odd extent; the reported ROI must still resolve back to itself.
	shape := ArrayShape{Height: 31, Width: 47}
	cases := []struct {
		name string
		roi  RectangularROI
		want RectangularROI
	}{
		{
			name: "extent past both edges",
			roi:  RectangularROI{HorizontalExtent: 300, VerticalExtent: 40},
			want: RectangularROI{HorizontalExtent: 46, VerticalExtent: 30},
		},
		{
			name: "offset past low edge",
			roi:  RectangularROI{HorizontalExtent: 60, VerticalExtent: 60, HorizontalOffset: -40},
			want: RectangularROI{HorizontalExtent: 12, VerticalExtent: 30, HorizontalOffset: -17},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ClampToBounds(tc.roi, shape)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !res.WasClamped {
				t.Fatalf("WasClamped should be true")
			}
			if res.ROI != tc.want {
				t.Fatalf("corrected = %+v, want %+v", res.ROI, tc.want)
			}

			again, err := ClampToBounds(res.ROI, shape)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if again.ROI != res.ROI || again.WasClamped {
				t.Fatalf("corrected ROI did not round-trip: %+v -> %+v", res.ROI, again.ROI)
			}
		})
	}
}

func TestClampToBounds_DoubleClampIsStable(t *testing.T) {
	shapes := []ArrayShape{
		{Height: 100, Width: 200},
		{Height: 64, Width: 64},
		{Height: 31, Width: 47},
		{Height: 1, Width: 1},
	}
	rois := []RectangularROI{
		{},
		{HorizontalExtent: 300, VerticalExtent: 40},
		{HorizontalExtent: 60, VerticalExtent: 60, HorizontalOffset: -40},
		{HorizontalExtent: 10, VerticalExtent: 10, HorizontalOffset: 500, VerticalOffset: -500},
		{HorizontalExtent: 5, VerticalExtent: 7, HorizontalOffset: 3, VerticalOffset: -2},
		{HorizontalExtent: 1, VerticalExtent: 1},
	}

	for _, shape := range shapes {
		for _, r := range rois {
			first, err := ClampToBounds(r, shape)
			if err != nil {
				t.Fatalf("first clamp of %+v against %+v: %v", r, shape, err)
			}
			second, err := ClampToBounds(first.ROI, shape)
			if err != nil {
				t.Fatalf("second clamp of %+v against %+v: %v", first.ROI, shape, err)
			}
			if second.ROI != first.ROI {
				t.Errorf("clamp not stable for %+v against %+v: %+v -> %+v",
					r, shape, first.ROI, second.ROI)
			}
			if second.WasClamped {
				t.Errorf("second clamp flagged for %+v against %+v", r, shape)
			}
		}
	}
}

func TestResolveAbsoluteBounds_InBoundsInvariant(t *testing.T) {
	shapes := []ArrayShape{
		{Height: 1, Width: 1},
		{Height: 1, Width: 500},
		{Height: 33, Width: 17},
		{Height: 100, Width: 200},
	}
	extents := []int{0, 1, 2, 5, 16, 99, 1000}
	offsets := []int{-1000, -50, -3, 0, 3, 50, 1000}

	for _, shape := range shapes {
		for _, we := range extents {
			for _, he := range extents {
				for _, ox := range offsets {
					for _, oy := range offsets {
						r := RectangularROI{
							HorizontalExtent: we,
							VerticalExtent:   he,
							HorizontalOffset: ox,
							VerticalOffset:   oy,
						}
						b, _, err := ResolveAbsoluteBounds(r, shape)
						if err != nil {
							t.Fatalf("resolve %+v against %+v: %v", r, shape, err)
						}
						if b.XStart < 0 || b.XStart >= b.XEnd || b.XEnd > shape.Width ||
							b.YStart < 0 || b.YStart >= b.YEnd || b.YEnd > shape.Height {
							t.Fatalf("invariant violated for %+v against %+v: %+v", r, shape, b)
						}
					}
				}
			}
		}
	}
}

func TestResolveAbsoluteBounds_InvalidArguments(t *testing.T) {
	cases := []struct {
		name  string
		roi   RectangularROI
		shape ArrayShape
	}{
		{"zero width", RectangularROI{}, ArrayShape{Height: 10, Width: 0}},
		{"zero height", RectangularROI{}, ArrayShape{Height: 0, Width: 10}},
		{"negative dims", RectangularROI{}, ArrayShape{Height: -4, Width: -4}},
		{"negative horizontal extent", RectangularROI{HorizontalExtent: -1}, ArrayShape{Height: 10, Width: 10}},
		{"negative vertical extent", RectangularROI{VerticalExtent: -7}, ArrayShape{Height: 10, Width: 10}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := ResolveAbsoluteBounds(tc.roi, tc.shape); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			if _, err := ClampToBounds(tc.roi, tc.shape); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument from clamp, got %v", err)
			}
		})
	}
}

func TestClampToBounds_DoesNotMutateInput(t *testing.T) {
	shape := ArrayShape{Height: 100, Width: 100}
	r := RectangularROI{HorizontalExtent: 300, VerticalExtent: 300, HorizontalOffset: 12, VerticalOffset: -9}
	orig := r

	if _, err := ClampToBounds(r, shape); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != orig {
		t.Fatalf("input mutated: %+v -> %+v", orig, r)
	}
}
