// Package app provides application lifecycle management, shared state, and
// events.
package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"lamino-align/internal/alignment"
	"lamino-align/internal/loader"
	"lamino-align/internal/options"
	"lamino-align/internal/roi"
	"lamino-align/internal/stack"
	"lamino-align/internal/unwrap"
)

// State holds the application state: the loaded projection stack, the
// processing options, and the results of the pipeline steps.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath string
	Modified    bool

	// Experiment descriptor the stack was loaded from
	ExperimentPath string

	// Raw projections as loaded, sorted by angle
	Raw *stack.Stack

	// Current is the working stack after the applied pipeline steps;
	// points at Raw until a step runs.
	Current *stack.Stack

	// Pipeline options
	ROI    options.ROIOptions
	Unwrap options.PhaseUnwrapOptions
	Align  alignment.Options

	// Pipeline results
	CropResult roi.ClampResult
	Cropped    bool
	Unwrapped  bool
	Aligned    bool
	Drifts     []alignment.Drift

	// Currently displayed frame index into Current
	FrameIndex int

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventStackLoaded
	EventFrameChanged
	EventROIChanged
	EventCropApplied
	EventUnwrapComplete
	EventAlignmentComplete
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a new application state with default options.
func NewState() *State {
	return &State{
		ROI:       options.DefaultROIOptions(),
		Unwrap:    options.DefaultPhaseUnwrapOptions(),
		Align:     alignment.DefaultOptions(),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// Reset clears the project and any loaded stack, restoring default options.
func (s *State) Reset() {
	s.mu.Lock()
	s.ProjectPath = ""
	s.ExperimentPath = ""
	s.Raw = nil
	s.Current = nil
	s.ROI = options.DefaultROIOptions()
	s.Unwrap = options.DefaultPhaseUnwrapOptions()
	s.Align = alignment.DefaultOptions()
	s.CropResult = roi.ClampResult{}
	s.Cropped = false
	s.Unwrapped = false
	s.Aligned = false
	s.Drifts = nil
	s.FrameIndex = 0
	s.mu.Unlock()

	s.SetModified(false)
}

// LoadExperiment reads an experiment descriptor and loads its projection
// stack. Any previous pipeline results are discarded.
func (s *State) LoadExperiment(path string) error {
	exp, err := loader.Load(path)
	if err != nil {
		return err
	}
	loaded, err := loader.LoadStack(exp)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ExperimentPath = path
	s.Raw = loaded
	s.Current = loaded
	s.Cropped = false
	s.Unwrapped = false
	s.Aligned = false
	s.Drifts = nil
	s.CropResult = roi.ClampResult{}
	s.FrameIndex = 0
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventStackLoaded, loaded)
	return nil
}

// SelectFrame changes the displayed frame index.
func (s *State) SelectFrame(index int) error {
	s.mu.Lock()
	if s.Current == nil || index < 0 || index >= s.Current.Len() {
		n := 0
		if s.Current != nil {
			n = s.Current.Len()
		}
		s.mu.Unlock()
		return fmt.Errorf("frame index %d out of range [0, %d)", index, n)
	}
	s.FrameIndex = index
	s.mu.Unlock()

	s.Emit(EventFrameChanged, index)
	return nil
}

// CurrentFrame returns the displayed frame, or nil when nothing is loaded.
func (s *State) CurrentFrame() *stack.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Current == nil || s.Current.Len() == 0 {
		return nil
	}
	return s.Current.Frames[s.FrameIndex]
}

// SetROI stores new ROI options, forcing the rectangle into the frame
// bounds first when a stack is loaded. Returns the clamp result so callers
// can show the corrected values.
func (s *State) SetROI(o options.ROIOptions) (roi.ClampResult, error) {
	if err := o.Validate(); err != nil {
		return roi.ClampResult{}, err
	}

	s.mu.Lock()
	res := roi.ClampResult{ROI: o.Rectangle}
	if s.Raw != nil && s.Raw.Len() > 0 {
		var err error
		res, err = roi.ClampToBounds(o.Rectangle, s.Raw.Shape())
		if err != nil {
			s.mu.Unlock()
			return roi.ClampResult{}, err
		}
		o.Rectangle = res.ROI
	}
	s.ROI = o
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventROIChanged, res)
	return res, nil
}

// ApplyCrop crops the raw stack to the current ROI and resets the later
// pipeline steps onto the cropped copy.
func (s *State) ApplyCrop() error {
	s.mu.RLock()
	raw := s.Raw
	rect := s.ROI.Rectangle
	s.mu.RUnlock()

	if raw == nil || raw.Len() == 0 {
		return fmt.Errorf("no stack loaded")
	}
	cropped, res, err := raw.Crop(rect)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.Current = cropped
	s.CropResult = res
	s.Cropped = true
	s.Unwrapped = false
	s.Aligned = false
	s.Drifts = nil
	if s.FrameIndex >= cropped.Len() {
		s.FrameIndex = 0
	}
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventCropApplied, res)
	return nil
}

// ApplyUnwrap unwraps the working stack with the current options.
func (s *State) ApplyUnwrap() error {
	s.mu.RLock()
	cur := s.Current
	opts := s.Unwrap
	s.mu.RUnlock()

	if cur == nil || cur.Len() == 0 {
		return fmt.Errorf("no stack loaded")
	}
	unwrapped, err := unwrap.UnwrapStack(cur, opts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.Current = unwrapped
	s.Unwrapped = true
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventUnwrapComplete, nil)
	return nil
}

// ApplyAlignment estimates and corrects per-frame drift on the working
// stack with the current options.
func (s *State) ApplyAlignment() error {
	s.mu.RLock()
	cur := s.Current
	opts := s.Align
	s.mu.RUnlock()

	if cur == nil || cur.Len() == 0 {
		return fmt.Errorf("no stack loaded")
	}
	aligned, drifts, err := alignment.AlignStack(cur, opts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.Current = aligned
	s.Aligned = true
	s.Drifts = drifts
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventAlignmentComplete, drifts)
	return nil
}

// ProjectFile represents the JSON structure of a .lamproj file.
type ProjectFile struct {
	Version        int                        `json:"version"`
	ExperimentPath string                     `json:"experiment,omitempty"`
	ROI            options.ROIOptions         `json:"roi"`
	Unwrap         options.PhaseUnwrapOptions `json:"unwrap"`
	AlignMaxShift  int                        `json:"align_max_shift,omitempty"`
	AlignReference int                        `json:"align_reference,omitempty"`
	AlignOpenCV    bool                       `json:"align_opencv,omitempty"`
	FrameIndex     int                        `json:"frame_index,omitempty"`
}

// LoadProject loads a project from the specified path. The experiment it
// references, if any, is reloaded; pipeline steps are not re-run.
func (s *State) LoadProject(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var proj ProjectFile
	if err := json.Unmarshal(data, &proj); err != nil {
		return fmt.Errorf("failed to parse project %s: %w", path, err)
	}

	// Options from the file are only adopted when they validate; a project
	// written by hand or by a newer version falls back to the defaults
	// instead of smuggling unusable values into the pipelines.
	projROI := proj.ROI
	if err := projROI.Validate(); err != nil {
		log.Printf("project %s: roi options invalid (%v), using defaults", path, err)
		projROI = options.DefaultROIOptions()
	}
	projUnwrap := proj.Unwrap
	if err := projUnwrap.Validate(); err != nil {
		log.Printf("project %s: unwrap options invalid (%v), using defaults", path, err)
		projUnwrap = options.DefaultPhaseUnwrapOptions()
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.ROI = projROI
	s.Unwrap = projUnwrap
	s.Align = alignment.Options{
		MaxShift:  proj.AlignMaxShift,
		Reference: proj.AlignReference,
		UseOpenCV: proj.AlignOpenCV,
	}
	if s.Align.MaxShift == 0 {
		s.Align = alignment.DefaultOptions()
		s.Align.Reference = proj.AlignReference
		s.Align.UseOpenCV = proj.AlignOpenCV
	}
	s.mu.Unlock()

	if proj.ExperimentPath != "" {
		expPath := proj.ExperimentPath
		if !filepath.IsAbs(expPath) {
			expPath = filepath.Join(filepath.Dir(path), expPath)
		}
		if err := s.LoadExperiment(expPath); err != nil {
			return err
		}
		if proj.FrameIndex > 0 {
			// Best effort; stale indices are ignored.
			_ = s.SelectFrame(proj.FrameIndex)
		}
	}

	s.mu.Lock()
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventProjectLoaded, path)
	return nil
}

// SaveProject saves the project to the specified path.
func (s *State) SaveProject(path string) error {
	s.mu.RLock()
	proj := ProjectFile{
		Version:        1,
		ROI:            s.ROI,
		Unwrap:         s.Unwrap,
		AlignMaxShift:  s.Align.MaxShift,
		AlignReference: s.Align.Reference,
		AlignOpenCV:    s.Align.UseOpenCV,
		FrameIndex:     s.FrameIndex,
	}
	if s.ExperimentPath != "" {
		rel, err := filepath.Rel(filepath.Dir(path), s.ExperimentPath)
		if err == nil {
			proj.ExperimentPath = rel
		} else {
			proj.ExperimentPath = s.ExperimentPath
		}
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(proj, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventProjectSaved, path)
	return nil
}
