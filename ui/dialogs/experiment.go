// Package dialogs provides application dialogs.
package dialogs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"lamino-align/internal/loader"
)

// ExperimentDialog provides a property sheet for editing an experiment
// descriptor: the frame folder, the file pattern, and the scan filters.
type ExperimentDialog struct {
	exp    *loader.Experiment
	window fyne.Window

	nameEntry    *widget.Entry
	folderEntry  *widget.Entry
	patternEntry *widget.Entry

	scanStartEntry *widget.Entry
	scanEndEntry   *widget.Entry
	scanListEntry  *widget.Entry

	anglesEntry *widget.Entry

	onSave func(*loader.Experiment)
}

// NewExperimentDialog creates an experiment descriptor dialog. The
// experiment is modified in place when the user saves.
func NewExperimentDialog(exp *loader.Experiment, window fyne.Window, onSave func(*loader.Experiment)) *ExperimentDialog {
	return &ExperimentDialog{
		exp:    exp,
		window: window,
		onSave: onSave,
	}
}

// Show displays the dialog.
func (d *ExperimentDialog) Show() {
	content := d.createContent()

	dlg := dialog.NewCustomConfirm(
		"Experiment: "+d.exp.Name,
		"Save",
		"Cancel",
		content,
		func(save bool) {
			if !save {
				return
			}
			if err := d.applyChanges(); err != nil {
				dialog.ShowError(err, d.window)
				return
			}
			if d.onSave != nil {
				d.onSave(d.exp)
			}
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(480, 560))
	dlg.Show()
}

func (d *ExperimentDialog) createContent() fyne.CanvasObject {
	d.nameEntry = widget.NewEntry()
	d.nameEntry.SetText(d.exp.Name)

	d.folderEntry = widget.NewEntry()
	d.folderEntry.SetText(d.exp.FrameFolder)

	d.patternEntry = widget.NewEntry()
	d.patternEntry.SetText(d.exp.FilePattern)
	d.patternEntry.SetPlaceHolder("*")

	framesForm := widget.NewForm(
		widget.NewFormItem("Name", d.nameEntry),
		widget.NewFormItem("Frame folder", d.folderEntry),
		widget.NewFormItem("File pattern", d.patternEntry),
	)

	d.scanStartEntry = widget.NewEntry()
	d.scanStartEntry.SetText(strconv.Itoa(d.exp.ScanStart))
	d.scanEndEntry = widget.NewEntry()
	d.scanEndEntry.SetText(strconv.Itoa(d.exp.ScanEnd))
	d.scanListEntry = widget.NewEntry()
	d.scanListEntry.SetText(formatScanList(d.exp.ScanList))
	d.scanListEntry.SetPlaceHolder("e.g. 1, 3, 7")

	filtersForm := widget.NewForm(
		widget.NewFormItem("Scan start", d.scanStartEntry),
		widget.NewFormItem("Scan end", d.scanEndEntry),
		widget.NewFormItem("Scan list", d.scanListEntry),
	)

	d.anglesEntry = widget.NewMultiLineEntry()
	d.anglesEntry.SetText(formatAngles(d.exp.Angles))
	d.anglesEntry.SetPlaceHolder("scan: angle, one per line\ne.g. 1: -45.0")
	d.anglesEntry.SetMinRowsVisible(6)

	return container.NewVBox(
		widget.NewCard("Frames", "", framesForm),
		widget.NewCard("Scan Filters", "", filtersForm),
		widget.NewCard("Tilt Angles", "", d.anglesEntry),
	)
}

func (d *ExperimentDialog) applyChanges() error {
	scanStart, err := strconv.Atoi(d.scanStartEntry.Text)
	if err != nil {
		return fmt.Errorf("invalid scan start: %q", d.scanStartEntry.Text)
	}
	scanEnd, err := strconv.Atoi(d.scanEndEntry.Text)
	if err != nil {
		return fmt.Errorf("invalid scan end: %q", d.scanEndEntry.Text)
	}
	scanList, err := parseScanList(d.scanListEntry.Text)
	if err != nil {
		return err
	}
	angles, err := parseAngles(d.anglesEntry.Text)
	if err != nil {
		return err
	}
	if d.folderEntry.Text == "" {
		return fmt.Errorf("frame folder is required")
	}

	d.exp.Name = d.nameEntry.Text
	d.exp.FrameFolder = d.folderEntry.Text
	d.exp.FilePattern = d.patternEntry.Text
	d.exp.ScanStart = scanStart
	d.exp.ScanEnd = scanEnd
	d.exp.ScanList = scanList
	d.exp.Angles = angles
	return nil
}

// formatScanList renders a scan list as "1, 3, 7".
func formatScanList(scans []int) string {
	parts := make([]string, len(scans))
	for i, s := range scans {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ", ")
}

// parseScanList parses "1, 3, 7" into a scan list. Empty means no filter.
func parseScanList(text string) ([]int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	var scans []int
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid scan number: %q", part)
		}
		scans = append(scans, v)
	}
	return scans, nil
}

// formatAngles renders the angle map as "scan: angle" lines in scan order.
func formatAngles(angles map[int]float64) string {
	scans := make([]int, 0, len(angles))
	for s := range angles {
		scans = append(scans, s)
	}
	sort.Ints(scans)

	var b strings.Builder
	for _, s := range scans {
		fmt.Fprintf(&b, "%d: %g\n", s, angles[s])
	}
	return b.String()
}

// parseAngles parses "scan: angle" lines back into an angle map.
func parseAngles(text string) (map[int]float64, error) {
	angles := make(map[int]float64)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		scanStr, angleStr, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("invalid angle line: %q", line)
		}
		scan, err := strconv.Atoi(strings.TrimSpace(scanStr))
		if err != nil {
			return nil, fmt.Errorf("invalid scan number in %q", line)
		}
		angle, err := strconv.ParseFloat(strings.TrimSpace(angleStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid angle in %q", line)
		}
		angles[scan] = angle
	}
	if len(angles) == 0 {
		return nil, nil
	}
	return angles, nil
}
