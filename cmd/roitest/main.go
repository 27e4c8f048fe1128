// Command roitest resolves a crop region against a frame shape and prints
// the clamped bounds. With an experiment descriptor it crops the whole stack
// and reports the resulting shape.
package main

import (
	"flag"
	"fmt"
	"os"

	"lamino-align/internal/loader"
	"lamino-align/internal/roi"
)

func main() {
	experiment := flag.String("e", "", "Path to experiment descriptor (optional)")
	frameW := flag.Int("fw", 0, "Frame width when no experiment is given")
	frameH := flag.Int("fh", 0, "Frame height when no experiment is given")
	width := flag.Int("w", 0, "Region width (0 = full width)")
	height := flag.Int("h", 0, "Region height (0 = full height)")
	offsetX := flag.Int("x", 0, "Horizontal offset of the region center")
	offsetY := flag.Int("y", 0, "Vertical offset of the region center")
	divisor := flag.Int("div", 1, "Snap extents to a multiple of this divisor")
	policy := flag.String("round", "nearest", "Rounding policy: nearest, ceil, or floor")
	flag.Parse()

	if *experiment == "" && (*frameW <= 0 || *frameH <= 0) {
		fmt.Println("Usage: roitest -e <experiment> | -fw <width> -fh <height> [-w -h -x -y] [-div N -round nearest|ceil|floor]")
		os.Exit(1)
	}

	rect := roi.RectangularROI{
		HorizontalExtent: *width,
		VerticalExtent:   *height,
		HorizontalOffset: *offsetX,
		VerticalOffset:   *offsetY,
	}

	if *divisor > 1 {
		p, err := parsePolicy(*policy)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		snapped, err := roi.RoundSliceToDivisor(
			[]float64{float64(rect.HorizontalExtent), float64(rect.VerticalExtent)},
			*divisor, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Snap failed: %v\n", err)
			os.Exit(1)
		}
		rect.HorizontalExtent = snapped[0]
		rect.VerticalExtent = snapped[1]
		fmt.Printf("Snapped extents to %dx%d (multiples of %d, %s)\n",
			rect.HorizontalExtent, rect.VerticalExtent, *divisor, p)
	}

	if *experiment == "" {
		resolveOnly(rect, roi.ArrayShape{Width: *frameW, Height: *frameH})
		return
	}

	fmt.Printf("=== Loading %s ===\n", *experiment)
	exp, err := loader.Load(*experiment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load experiment: %v\n", err)
		os.Exit(1)
	}
	s, err := loader.LoadStack(exp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load stack: %v\n", err)
		os.Exit(1)
	}
	shape := s.Shape()
	fmt.Printf("Loaded %d frames, %dx%d\n", s.Len(), shape.Width, shape.Height)

	resolveOnly(rect, shape)

	fmt.Printf("\n=== Cropping stack ===\n")
	cropped, res, err := s.Crop(rect)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crop failed: %v\n", err)
		os.Exit(1)
	}
	outShape := cropped.Shape()
	fmt.Printf("Cropped %d frames to %dx%d\n", cropped.Len(), outShape.Width, outShape.Height)
	if res.WasClamped {
		fmt.Printf("Region was adjusted: %dx%d at offset (%d, %d)\n",
			res.ROI.HorizontalExtent, res.ROI.VerticalExtent,
			res.ROI.HorizontalOffset, res.ROI.VerticalOffset)
	}
}

// resolveOnly prints the absolute pixel bounds for the region.
func resolveOnly(rect roi.RectangularROI, shape roi.ArrayShape) {
	res, err := roi.ClampToBounds(rect, shape)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid region: %v\n", err)
		os.Exit(1)
	}
	bounds, _, err := roi.ResolveAbsoluteBounds(res.ROI, shape)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid region: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n=== Resolved region (frame %dx%d) ===\n", shape.Width, shape.Height)
	fmt.Printf("X: [%d, %d)  width %d\n", bounds.XStart, bounds.XEnd, bounds.Dx())
	fmt.Printf("Y: [%d, %d)  height %d\n", bounds.YStart, bounds.YEnd, bounds.Dy())
	if res.WasClamped {
		fmt.Printf("Clamped: offsets corrected to (%d, %d)\n",
			res.ROI.HorizontalOffset, res.ROI.VerticalOffset)
	} else {
		fmt.Println("Region fits without adjustment")
	}
}

func parsePolicy(name string) (roi.RoundPolicy, error) {
	switch name {
	case roi.RoundNearest.String():
		return roi.RoundNearest, nil
	case roi.RoundCeil.String():
		return roi.RoundCeil, nil
	case roi.RoundFloor.String():
		return roi.RoundFloor, nil
	}
	return 0, fmt.Errorf("unknown rounding policy %q", name)
}
