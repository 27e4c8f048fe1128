package stack

import (
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	_ "golang.org/x/image/tiff"
)

// scanPattern extracts the scan number from frame filenames such as
// "proj_0042.tif" or "scan128_unwrapped.tiff".
var scanPattern = regexp.MustCompile(`(\d+)`)

// LoadFrame reads an image file and converts it to a float64 phase frame.
// Color images are reduced to luminance; 16-bit grayscale keeps its full
// range.
func LoadFrame(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}

	f := &Frame{
		Path: path,
		Scan: guessScanFromFilename(path),
		Data: toDense(img),
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" {
		if dpi, err := extractTIFFDPI(path); err == nil {
			f.DPI = dpi
		}
	}
	return f, nil
}

// toDense converts an image to a dense float64 matrix of luminance values.
func toDense(img image.Image) *mat.Dense {
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()
	data := make([]float64, rows*cols)

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Rec. 601 luma on the 16-bit channel values.
			data[y*cols+x] = 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
		}
	}
	return mat.NewDense(rows, cols, data)
}

// guessScanFromFilename pulls the first run of digits out of the base name.
// Returns 0 if there is none.
func guessScanFromFilename(path string) int {
	base := filepath.Base(path)
	m := scanPattern.FindString(base)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// SupportedFormats returns the list of supported frame file extensions.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported frame format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// extractTIFFDPI attempts to extract DPI from TIFF metadata.
func extractTIFFDPI(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	// Read TIFF header to determine byte order
	header := make([]byte, 8)
	if _, err := file.Read(header); err != nil {
		return 0, err
	}

	var byteOrder binary.ByteOrder
	if header[0] == 'I' && header[1] == 'I' {
		byteOrder = binary.LittleEndian
	} else if header[0] == 'M' && header[1] == 'M' {
		byteOrder = binary.BigEndian
	} else {
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	// Get offset to first IFD
	ifdOffset := byteOrder.Uint32(header[4:8])

	if _, err := file.Seek(int64(ifdOffset), 0); err != nil {
		return 0, err
	}

	var numEntries uint16
	if err := binary.Read(file, byteOrder, &numEntries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	var resUnit uint16 = 2 // Default to inches

	for i := uint16(0); i < numEntries; i++ {
		entry := make([]byte, 12)
		if _, err := file.Read(entry); err != nil {
			return 0, err
		}

		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		valueOffset := byteOrder.Uint32(entry[8:12])

		switch tag {
		case 282: // XResolution
			if fieldType == 5 { // RATIONAL
				xRes = readTIFFRational(file, int64(valueOffset), byteOrder)
			}
		case 283: // YResolution
			if fieldType == 5 { // RATIONAL
				yRes = readTIFFRational(file, int64(valueOffset), byteOrder)
			}
		case 296: // ResolutionUnit
			if fieldType == 3 { // SHORT
				resUnit = uint16(valueOffset)
			}
		}
	}

	if xRes == 0 && yRes == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}

	// Convert from centimeters to inches if needed
	if resUnit == 3 {
		dpi *= 2.54
	}

	if dpi == 0 {
		return 0, fmt.Errorf("DPI is zero")
	}
	return dpi, nil
}

// readTIFFRational reads a RATIONAL value (two uint32s) from a TIFF file.
func readTIFFRational(file *os.File, offset int64, byteOrder binary.ByteOrder) float64 {
	currentPos, _ := file.Seek(0, 1) // Save current position
	defer file.Seek(currentPos, 0)   // Restore position

	file.Seek(offset, 0)
	var num, denom uint32
	binary.Read(file, byteOrder, &num)
	binary.Read(file, byteOrder, &denom)

	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}
