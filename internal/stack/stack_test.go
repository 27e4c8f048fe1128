package stack

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"lamino-align/internal/roi"
)

func rampFrame(rows, cols int) *Frame {
	data := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data[i*cols+j] = float64(i*cols + j)
		}
	}
	return &Frame{Data: mat.NewDense(rows, cols, data)}
}

func TestAppendRejectsShapeMismatch(t *testing.T) {
	s := NewStack()
	if err := s.Append(rampFrame(10, 20)); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := s.Append(rampFrame(10, 21)); err == nil {
		t.Fatalf("mismatched frame should be rejected")
	}
	if err := s.Append(rampFrame(10, 20)); err != nil {
		t.Fatalf("matching append: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
}

func TestStackShape(t *testing.T) {
	s := NewStack()
	if got := s.Shape(); got != (roi.ArrayShape{}) {
		t.Fatalf("empty stack shape = %+v", got)
	}
	if err := s.Append(rampFrame(30, 40)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := s.Shape(); got.Height != 30 || got.Width != 40 {
		t.Fatalf("shape = %+v, want 30x40", got)
	}
}

func TestSortByAngle(t *testing.T) {
	s := NewStack()
	angles := []float64{90, -45, 0, -45}
	scans := []int{4, 2, 3, 1}
	for i := range angles {
		f := rampFrame(4, 4)
		f.Angle = angles[i]
		f.Scan = scans[i]
		if err := s.Append(f); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	s.SortByAngle()

	wantAngles := []float64{-45, -45, 0, 90}
	wantScans := []int{1, 2, 3, 4}
	for i, f := range s.Frames {
		if f.Angle != wantAngles[i] || f.Scan != wantScans[i] {
			t.Fatalf("frame %d = (angle %v, scan %d), want (angle %v, scan %d)",
				i, f.Angle, f.Scan, wantAngles[i], wantScans[i])
		}
	}
}

func TestCrop(t *testing.T) {
	s := NewStack()
	if err := s.Append(rampFrame(10, 20)); err != nil {
		t.Fatalf("append: %v", err)
	}

	r := roi.RectangularROI{HorizontalExtent: 8, VerticalExtent: 4}
	cropped, res, err := s.Crop(r)
	if err != nil {
		t.Fatalf("crop: %v", err)
	}
	if res.WasClamped {
		t.Fatalf("in-bounds crop should not clamp")
	}
	if got := cropped.Shape(); got.Height != 4 || got.Width != 8 {
		t.Fatalf("cropped shape = %+v, want 4x8", got)
	}

	// Window is columns [6,14) and rows [3,7) of the 10x20 ramp; the first
	// element must be row 3, col 6.
	if got := cropped.Frames[0].Data.At(0, 0); got != float64(3*20+6) {
		t.Fatalf("cropped origin value = %v, want %v", got, float64(3*20+6))
	}
}

func TestCropClampsOversizedROI(t *testing.T) {
	s := NewStack()
	if err := s.Append(rampFrame(10, 20)); err != nil {
		t.Fatalf("append: %v", err)
	}

	r := roi.RectangularROI{HorizontalExtent: 100, VerticalExtent: 100}
	cropped, res, err := s.Crop(r)
	if err != nil {
		t.Fatalf("crop: %v", err)
	}
	if !res.WasClamped {
		t.Fatalf("oversized crop must report clamping")
	}
	if got := cropped.Shape(); got.Height != 10 || got.Width != 20 {
		t.Fatalf("cropped shape = %+v, want full 10x20", got)
	}
	if res.ROI.HorizontalExtent != 20 || res.ROI.VerticalExtent != 10 {
		t.Fatalf("corrected ROI = %+v", res.ROI)
	}
}

func TestCropEmptyStack(t *testing.T) {
	if _, _, err := NewStack().Crop(roi.RectangularROI{}); err == nil {
		t.Fatalf("cropping an empty stack should fail")
	}
}

func TestGuessScanFromFilename(t *testing.T) {
	cases := []struct {
		path string
		want int
	}{
		{"/data/proj_0042.tif", 42},
		{"scan128_unwrapped.tiff", 128},
		{"frame.png", 0},
		{"/data/2xfm_0881.mda.h5.tif", 2},
	}
	for _, tc := range cases {
		if got := guessScanFromFilename(tc.path); got != tc.want {
			t.Fatalf("guessScanFromFilename(%q) = %d, want %d", tc.path, got, tc.want)
		}
	}
}

func TestFrameRenderNormalizesRange(t *testing.T) {
	f := rampFrame(2, 2) // values 0..3
	img := f.Render()
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("render bounds = %v", img.Bounds())
	}
	if img.GrayAt(0, 0).Y != 0 {
		t.Fatalf("min pixel = %d, want 0", img.GrayAt(0, 0).Y)
	}
	if img.GrayAt(1, 1).Y != 255 {
		t.Fatalf("max pixel = %d, want 255", img.GrayAt(1, 1).Y)
	}
}
