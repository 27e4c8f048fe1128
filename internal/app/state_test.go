package app

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"lamino-align/internal/options"
	"lamino-align/internal/roi"
	"lamino-align/internal/stack"
)

func testStack(t *testing.T, n, rows, cols int) *stack.Stack {
	t.Helper()
	s := stack.NewStack()
	for k := 0; k < n; k++ {
		m := mat.NewDense(rows, cols, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				m.Set(i, j, 0.1*float64(i)+0.2*float64(j))
			}
		}
		f := &stack.Frame{Scan: k, Angle: float64(k) * 10, Data: m}
		if err := s.Append(f); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return s
}

func TestSetROIClampsAgainstLoadedStack(t *testing.T) {
	s := NewState()
	s.Raw = testStack(t, 1, 50, 50)
	s.Current = s.Raw

	var events int
	s.On(EventROIChanged, func(interface{}) { events++ })

	o := options.DefaultROIOptions()
	o.Rectangle = roi.RectangularROI{HorizontalExtent: 200, VerticalExtent: 10}
	res, err := s.SetROI(o)
	if err != nil {
		t.Fatalf("set roi: %v", err)
	}
	if !res.WasClamped {
		t.Fatalf("oversized ROI should clamp")
	}
	if s.ROI.Rectangle.HorizontalExtent != 50 {
		t.Fatalf("stored extent = %d, want 50", s.ROI.Rectangle.HorizontalExtent)
	}
	if events != 1 {
		t.Fatalf("roi event fired %d times", events)
	}
	if !s.Modified {
		t.Fatalf("setting the ROI should mark the project modified")
	}
}

func TestSetROIRejectsInvalidOptions(t *testing.T) {
	s := NewState()
	o := options.ROIOptions{Shape: "hexagonal"}
	if _, err := s.SetROI(o); err == nil {
		t.Fatalf("unknown shape should fail")
	}
}

func TestApplyCropResetsPipeline(t *testing.T) {
	s := NewState()
	s.Raw = testStack(t, 2, 40, 40)
	s.Current = s.Raw
	s.Unwrapped = true
	s.Aligned = true

	o := options.DefaultROIOptions()
	o.Rectangle = roi.RectangularROI{HorizontalExtent: 20, VerticalExtent: 10}
	if _, err := s.SetROI(o); err != nil {
		t.Fatalf("set roi: %v", err)
	}
	if err := s.ApplyCrop(); err != nil {
		t.Fatalf("crop: %v", err)
	}

	if got := s.Current.Shape(); got.Height != 10 || got.Width != 20 {
		t.Fatalf("cropped shape = %+v", got)
	}
	if s.Unwrapped || s.Aligned {
		t.Fatalf("crop must reset later pipeline steps")
	}
	if s.Raw.Shape().Height != 40 {
		t.Fatalf("raw stack was modified")
	}
}

func TestApplyUnwrapOnWorkingStack(t *testing.T) {
	s := NewState()
	s.Raw = testStack(t, 1, 20, 20)
	s.Current = s.Raw

	if err := s.ApplyUnwrap(); err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if !s.Unwrapped {
		t.Fatalf("unwrapped flag not set")
	}
	// The test ramp has no wraps; unwrapping must be a no-op.
	raw := s.Raw.Frames[0].Data
	got := s.Current.Frames[0].Data
	for i := 0; i < 20; i++ {
		for j := 0; j < 20; j++ {
			if math.Abs(got.At(i, j)-raw.At(i, j)) > 1e-12 {
				t.Fatalf("unwrap changed a continuous frame at (%d,%d)", i, j)
			}
		}
	}
}

func TestSelectFrame(t *testing.T) {
	s := NewState()
	if err := s.SelectFrame(0); err == nil {
		t.Fatalf("selecting with no stack should fail")
	}

	s.Raw = testStack(t, 3, 8, 8)
	s.Current = s.Raw
	if err := s.SelectFrame(2); err != nil {
		t.Fatalf("select: %v", err)
	}
	if f := s.CurrentFrame(); f == nil || f.Scan != 2 {
		t.Fatalf("current frame = %+v", f)
	}
	if err := s.SelectFrame(3); err == nil {
		t.Fatalf("out-of-range index should fail")
	}
}

func TestProjectRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.lamproj")

	s := NewState()
	s.ROI.Rectangle = roi.RectangularROI{
		HorizontalExtent: 30, VerticalExtent: 20,
		HorizontalOffset: 5, VerticalOffset: -5,
	}
	s.Unwrap.Method = options.UnwrapGradientIntegration
	s.Align.MaxShift = 12
	s.FrameIndex = 4

	var saved, loaded bool
	s.On(EventProjectSaved, func(interface{}) { saved = true })
	if err := s.SaveProject(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !saved {
		t.Fatalf("save event not emitted")
	}
	if s.Modified {
		t.Fatalf("save should clear the modified flag")
	}

	restored := NewState()
	restored.On(EventProjectLoaded, func(interface{}) { loaded = true })
	if err := restored.LoadProject(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded {
		t.Fatalf("load event not emitted")
	}
	if restored.ROI.Rectangle != s.ROI.Rectangle {
		t.Fatalf("roi = %+v, want %+v", restored.ROI.Rectangle, s.ROI.Rectangle)
	}
	if restored.Unwrap.Method != options.UnwrapGradientIntegration {
		t.Fatalf("unwrap method = %q", restored.Unwrap.Method)
	}
	if restored.Align.MaxShift != 12 {
		t.Fatalf("align max shift = %d", restored.Align.MaxShift)
	}
}

func TestLoadProjectFallsBackOnInvalidOptions(t *testing.T) {
	// A hand-edited or newer-version project can carry option values the
	// pipelines can't use; loading must succeed with the defaults instead.
	dir := t.TempDir()
	path := filepath.Join(dir, "edited.lamproj")
	data := `{
		"version": 1,
		"roi": {"shape": "hexagonal", "rectangle": {"horizontal_extent": 30}},
		"unwrap": {"method": "branch_cut"},
		"align_max_shift": 9
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := NewState()
	if err := s.LoadProject(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.ROI != options.DefaultROIOptions() {
		t.Fatalf("roi options = %+v, want defaults", s.ROI)
	}
	wantUnwrap := options.DefaultPhaseUnwrapOptions()
	if s.Unwrap.Method != wantUnwrap.Method {
		t.Fatalf("unwrap method = %q, want %q", s.Unwrap.Method, wantUnwrap.Method)
	}
	if s.Unwrap.IterativeResidual != wantUnwrap.IterativeResidual {
		t.Fatalf("iterative residual options = %+v, want defaults", s.Unwrap.IterativeResidual)
	}
	if s.Align.MaxShift != 9 {
		t.Fatalf("align max shift = %d, want 9", s.Align.MaxShift)
	}
}
