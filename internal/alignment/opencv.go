package alignment

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// EstimateDriftOpenCV estimates drift via gocv's matchTemplate. The moving
// frame's central region, inset by maxShift on every side, is used as the
// template and searched for in the reference. Falls back to the pure Go
// search when the frames are too small to leave a usable template.
func EstimateDriftOpenCV(ref, mov *mat.Dense, maxShift int) (Drift, error) {
	rows, cols := ref.Dims()
	mr, mc := mov.Dims()
	if rows != mr || cols != mc {
		return Drift{}, fmt.Errorf("drift: frame shapes differ: %dx%d vs %dx%d", rows, cols, mr, mc)
	}
	if maxShift <= 0 {
		return Drift{}, fmt.Errorf("drift: max shift must be positive, got %d", maxShift)
	}
	if rows-2*maxShift < 8 || cols-2*maxShift < 8 {
		return EstimateDrift(ref, mov, maxShift)
	}

	refMat := denseToMat(ref)
	defer refMat.Close()
	movMat := denseToMat(mov)
	defer movMat.Close()

	// Central template, inset so every candidate shift stays in bounds.
	templ := movMat.Region(image.Rect(maxShift, maxShift, cols-maxShift, rows-maxShift))
	defer templ.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(refMat, templ, &result, gocv.TmCcoeffNormed, mask)

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)

	// The template sits at (maxShift, maxShift) in the moving frame; its
	// match position in the reference gives the aligning translation.
	return Drift{
		DX:    maxLoc.X - maxShift,
		DY:    maxLoc.Y - maxShift,
		Score: float64(maxVal),
	}, nil
}

// denseToMat copies a float64 matrix into a 32-bit float gocv Mat.
func denseToMat(m *mat.Dense) gocv.Mat {
	rows, cols := m.Dims()
	out := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV32F)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.SetFloatAt(i, j, float32(m.At(i, j)))
		}
	}
	return out
}
