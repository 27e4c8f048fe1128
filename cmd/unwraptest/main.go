// Command unwraptest runs phase unwrapping on an experiment stack headlessly
// and prints per-frame value ranges.
package main

import (
	"flag"
	"fmt"
	"os"

	"lamino-align/internal/loader"
	"lamino-align/internal/options"
	"lamino-align/internal/roi"
	"lamino-align/internal/unwrap"
)

func main() {
	experiment := flag.String("e", "", "Path to experiment descriptor")
	method := flag.String("m", "iterative", "Unwrap method: iterative or gradient")
	maxIter := flag.Int("iter", 0, "Max sweeps for the iterative method (0 = default)")
	tolerance := flag.Float64("tol", 0, "Residual tolerance for the iterative method (0 = default)")
	rowMajor := flag.Bool("rows", true, "Integrate rows first (gradient method)")
	ramp := flag.Bool("ramp", false, "Remove the air-gap ramp after unwrapping")
	airW := flag.Int("aw", 0, "Air region width")
	airH := flag.Int("ah", 0, "Air region height")
	airX := flag.Int("ax", 0, "Air region horizontal offset")
	airY := flag.Int("ay", 0, "Air region vertical offset")
	flag.Parse()

	if *experiment == "" {
		fmt.Println("Usage: unwraptest -e <experiment> [-m iterative|gradient] [-ramp -aw -ah -ax -ay]")
		os.Exit(1)
	}

	opts := options.DefaultPhaseUnwrapOptions()
	switch *method {
	case "iterative":
		opts.Method = options.UnwrapIterativeResidual
	case "gradient":
		opts.Method = options.UnwrapGradientIntegration
	default:
		fmt.Fprintf(os.Stderr, "Unknown method %q\n", *method)
		os.Exit(1)
	}
	if *maxIter > 0 {
		opts.IterativeResidual.MaxIterations = *maxIter
	}
	if *tolerance > 0 {
		opts.IterativeResidual.Tolerance = *tolerance
	}
	opts.GradientIntegration.RowMajor = *rowMajor

	if *ramp {
		opts.RampRemoval.Enabled = true
		opts.RampRemoval.AirRegion = options.ROIOptions{
			Shape: options.ROIShapeRectangular,
			Rectangle: roi.RectangularROI{
				HorizontalExtent: *airW,
				VerticalExtent:   *airH,
				HorizontalOffset: *airX,
				VerticalOffset:   *airY,
			},
		}
	}
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid options: %v\n", err)
		os.Exit(1)
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

	fmt.Printf("\n=== Unwrapping (%s) ===\n", *method)
	unwrapped, err := unwrap.UnwrapStack(s, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unwrap failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nPer-frame value ranges (before -> after):")
	for i, f := range s.Frames {
		lo, hi := f.MinMax()
		ulo, uhi := unwrapped.Frames[i].MinMax()
		fmt.Printf("  #%d scan %d %.1f deg: [%.3f, %.3f] -> [%.3f, %.3f]\n",
			i, f.Scan, f.Angle, lo, hi, ulo, uhi)
	}
}
