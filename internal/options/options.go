// Package options defines the value-type option structs shared between the
// UI panels, the processing pipelines, and project persistence. Options are
// passed and returned by value; panels hold their own copies and never share
// a mutable instance.
package options

import (
	"fmt"

	"lamino-align/internal/roi"
)

// ROIShape identifies the kind of region of interest.
type ROIShape string

const (
	ROIShapeRectangular ROIShape = "rectangular"
	ROIShapeElliptical  ROIShape = "elliptical"
)

// ROIOptions selects an ROI shape and carries its parameters. Only
// rectangular regions are implemented; the elliptical variant is accepted in
// project files for forward compatibility.
type ROIOptions struct {
	Shape     ROIShape           `json:"shape"`
	Rectangle roi.RectangularROI `json:"rectangle"`
}

// DefaultROIOptions returns a rectangular ROI covering the full array.
func DefaultROIOptions() ROIOptions {
	return ROIOptions{Shape: ROIShapeRectangular}
}

// Validate checks that the options describe a usable ROI.
func (o ROIOptions) Validate() error {
	switch o.Shape {
	case ROIShapeRectangular:
	case ROIShapeElliptical:
		return fmt.Errorf("elliptical ROIs are not implemented")
	default:
		return fmt.Errorf("unknown ROI shape %q", o.Shape)
	}
	if o.Rectangle.HorizontalExtent < 0 || o.Rectangle.VerticalExtent < 0 {
		return fmt.Errorf("negative ROI extent (%d, %d)",
			o.Rectangle.HorizontalExtent, o.Rectangle.VerticalExtent)
	}
	return nil
}

// UnwrapMethod selects the phase unwrapping algorithm.
type UnwrapMethod string

const (
	UnwrapIterativeResidual   UnwrapMethod = "iterative_residual"
	UnwrapGradientIntegration UnwrapMethod = "gradient_integration"
)

// IterativeResidualOptions configures the iterative residual unwrapper.
type IterativeResidualOptions struct {
	MaxIterations int     `json:"max_iterations"`
	Tolerance     float64 `json:"tolerance"`
}

// GradientIntegrationOptions configures the gradient integration unwrapper.
type GradientIntegrationOptions struct {
	// RowMajor integrates rows before columns when true.
	RowMajor bool `json:"row_major"`
}

// AirGapRampRemovalOptions configures removal of the linear phase ramp
// estimated over an air-only region of each projection.
type AirGapRampRemovalOptions struct {
	Enabled   bool       `json:"enabled"`
	AirRegion ROIOptions `json:"air_region"`
}

// PhaseUnwrapOptions bundles everything the phase unwrapping step needs.
type PhaseUnwrapOptions struct {
	Method              UnwrapMethod               `json:"method"`
	IterativeResidual   IterativeResidualOptions   `json:"iterative_residual"`
	GradientIntegration GradientIntegrationOptions `json:"gradient_integration"`
	RampRemoval         AirGapRampRemovalOptions   `json:"remove_ramp_using_air_gap"`
}

// DefaultPhaseUnwrapOptions returns the options used for a fresh project.
func DefaultPhaseUnwrapOptions() PhaseUnwrapOptions {
	return PhaseUnwrapOptions{
		Method: UnwrapIterativeResidual,
		IterativeResidual: IterativeResidualOptions{
			MaxIterations: 50,
			Tolerance:     1e-6,
		},
		GradientIntegration: GradientIntegrationOptions{RowMajor: true},
		RampRemoval: AirGapRampRemovalOptions{
			AirRegion: DefaultROIOptions(),
		},
	}
}

// Validate checks the unwrap options.
func (o PhaseUnwrapOptions) Validate() error {
	switch o.Method {
	case UnwrapIterativeResidual, UnwrapGradientIntegration:
	default:
		return fmt.Errorf("unknown unwrap method %q", o.Method)
	}
	if o.Method == UnwrapIterativeResidual && o.IterativeResidual.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d",
			o.IterativeResidual.MaxIterations)
	}
	if o.RampRemoval.Enabled {
		if err := o.RampRemoval.AirRegion.Validate(); err != nil {
			return fmt.Errorf("air region: %w", err)
		}
	}
	return nil
}

// LoadOptions restricts which scans of an experiment are loaded.
type LoadOptions struct {
	// Folder containing the projection frames; relative paths are resolved
	// against the experiment descriptor.
	Folder string `json:"folder"`

	// ScanStart and ScanEnd bound the scan numbers to include; zero means
	// unbounded on that side.
	ScanStart int `json:"scan_start,omitempty"`
	ScanEnd   int `json:"scan_end,omitempty"`

	// ScanList, when non-empty, loads exactly these scan numbers and wins
	// over the start/end range.
	ScanList []int `json:"scan_list,omitempty"`
}

// Includes reports whether a scan number passes the load filters.
func (o LoadOptions) Includes(scan int) bool {
	if len(o.ScanList) > 0 {
		for _, s := range o.ScanList {
			if s == scan {
				return true
			}
		}
		return false
	}
	if o.ScanStart != 0 && scan < o.ScanStart {
		return false
	}
	if o.ScanEnd != 0 && scan > o.ScanEnd {
		return false
	}
	return true
}
