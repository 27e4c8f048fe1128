// Package loader reads experiment descriptor files and builds projection
// stacks from the frame files they point at.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"lamino-align/internal/options"
	"lamino-align/internal/stack"
)

// Experiment describes one measurement: where the projection frames live
// and which tilt angle each scan was recorded at. Angles keys are scan
// numbers; frames whose scan has no angle entry get angle 0.
type Experiment struct {
	Name        string          `yaml:"name"`
	FrameFolder string          `yaml:"frame_folder"`
	FilePattern string          `yaml:"file_pattern"`
	Angles      map[int]float64 `yaml:"angles"`
	ScanStart   int             `yaml:"scan_start"`
	ScanEnd     int             `yaml:"scan_end"`
	ScanList    []int           `yaml:"scan_list"`
}

// Load parses an experiment descriptor file.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment file: %w", err)
	}

	var exp Experiment
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("failed to parse experiment file %s: %w", path, err)
	}

	if exp.FrameFolder == "" {
		return nil, fmt.Errorf("experiment file %s: frame_folder is required", path)
	}
	if exp.FilePattern == "" {
		exp.FilePattern = "*"
	}
	// Relative frame folders are resolved against the descriptor location.
	if !filepath.IsAbs(exp.FrameFolder) {
		exp.FrameFolder = filepath.Join(filepath.Dir(path), exp.FrameFolder)
	}
	return &exp, nil
}

// Save writes the experiment descriptor to a YAML file.
func Save(path string, exp *Experiment) error {
	data, err := yaml.Marshal(exp)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadOptions converts the descriptor's scan filters into load options.
func (e *Experiment) LoadOptions() options.LoadOptions {
	return options.LoadOptions{
		Folder:    e.FrameFolder,
		ScanStart: e.ScanStart,
		ScanEnd:   e.ScanEnd,
		ScanList:  e.ScanList,
	}
}

// LoadStack reads every frame file matching the experiment's pattern,
// applies its scan filters, assigns angles, and returns the frames as a
// stack sorted by angle.
func LoadStack(exp *Experiment) (*stack.Stack, error) {
	matches, err := filepath.Glob(filepath.Join(exp.FrameFolder, exp.FilePattern))
	if err != nil {
		return nil, fmt.Errorf("bad file pattern %q: %w", exp.FilePattern, err)
	}
	sort.Strings(matches)

	opts := exp.LoadOptions()
	s := stack.NewStack()
	for _, path := range matches {
		if !stack.IsSupportedFormat(path) {
			continue
		}
		f, err := stack.LoadFrame(path)
		if err != nil {
			return nil, err
		}
		if !opts.Includes(f.Scan) {
			continue
		}
		if angle, ok := exp.Angles[f.Scan]; ok {
			f.Angle = angle
		}
		if err := s.Append(f); err != nil {
			return nil, fmt.Errorf("frame %s: %w", path, err)
		}
	}

	if s.Len() == 0 {
		return nil, fmt.Errorf("no frames matched %q in %s",
			exp.FilePattern, exp.FrameFolder)
	}
	s.SortByAngle()
	return s, nil
}
