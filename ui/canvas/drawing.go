package canvas

import (
	"image"
	"image/color"
)

// digitPatterns contains 3x5 pixel patterns for digits 0-9, five rows of
// three bits each. Used for overlay labels so we don't pull a font renderer
// into the raster path.
var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b001, 0b001, 0b001}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

// charPatterns covers the handful of non-digit characters overlay labels
// use (region names and dimension separators).
var charPatterns = map[rune][5]uint8{
	'A': {0b010, 0b101, 0b111, 0b101, 0b101},
	'I': {0b111, 0b010, 0b010, 0b010, 0b111},
	'O': {0b010, 0b101, 0b101, 0b101, 0b010},
	'R': {0b110, 0b101, 0b110, 0b101, 0b101},
	'X': {0b101, 0b101, 0b010, 0b101, 0b101},
	'+': {0b000, 0b010, 0b111, 0b010, 0b000},
	'-': {0b000, 0b000, 0b111, 0b000, 0b000},
	' ': {0b000, 0b000, 0b000, 0b000, 0b000},
}

func charPattern(ch rune) [5]uint8 {
	if ch >= '0' && ch <= '9' {
		return digitPatterns[ch-'0']
	}
	if ch >= 'a' && ch <= 'z' {
		ch = ch - 'a' + 'A'
	}
	if pattern, ok := charPatterns[ch]; ok {
		return pattern
	}
	return [5]uint8{}
}

// drawOverlay draws an overlay's rectangles, scaled by the current zoom.
func (fc *FrameCanvas) drawOverlay(output *image.RGBA, overlay *Overlay) {
	col := overlay.Color

	for _, rect := range overlay.Rectangles {
		x1 := int(float64(rect.X) * fc.zoom)
		y1 := int(float64(rect.Y) * fc.zoom)
		x2 := int(float64(rect.X+rect.Width) * fc.zoom)
		y2 := int(float64(rect.Y+rect.Height) * fc.zoom)

		switch rect.Fill {
		case FillStripe:
			interval := rect.StripeInterval
			if interval <= 0 {
				interval = 16
			}
			step := int(float64(interval) * fc.zoom)
			if step < 2 {
				step = 2
			}
			drawStripes(output, x1, y1, x2, y2, step, col)
		case FillTarget:
			cx, cy := (x1+x2)/2, (y1+y2)/2
			drawLine(output, x1, cy, x2, cy, col)
			drawLine(output, cx, y1, cx, y2, col)
		}

		drawRectOutline(output, x1, y1, x2, y2, col)

		if rect.Label != "" {
			drawLabel(output, rect.Label, x1, y1-8, col)
		}
	}
}

// drawRectOutline draws a one pixel rectangle outline, clipped to the
// output bounds.
func drawRectOutline(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA) {
	drawLine(output, x1, y1, x2, y1, col)
	drawLine(output, x1, y2, x2, y2, col)
	drawLine(output, x1, y1, x1, y2, col)
	drawLine(output, x2, y1, x2, y2, col)
}

// drawLine draws a horizontal or vertical line, clipped to the output.
func drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA) {
	bounds := output.Bounds()
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	if x1 == x2 {
		if x1 < bounds.Min.X || x1 >= bounds.Max.X {
			return
		}
		for y := maxInt(y1, bounds.Min.Y); y <= minInt(y2, bounds.Max.Y-1); y++ {
			output.SetRGBA(x1, y, col)
		}
		return
	}
	if y1 < bounds.Min.Y || y1 >= bounds.Max.Y {
		return
	}
	for x := maxInt(x1, bounds.Min.X); x <= minInt(x2, bounds.Max.X-1); x++ {
		output.SetRGBA(x, y1, col)
	}
}

// drawStripes fills the rectangle with diagonal stripes.
func drawStripes(output *image.RGBA, x1, y1, x2, y2, step int, col color.RGBA) {
	bounds := output.Bounds()
	for y := maxInt(y1, bounds.Min.Y); y < minInt(y2, bounds.Max.Y); y++ {
		for x := maxInt(x1, bounds.Min.X); x < minInt(x2, bounds.Max.X); x++ {
			if (x+y)%step == 0 {
				output.SetRGBA(x, y, col)
			}
		}
	}
}

// drawLabel renders a short label with the built-in 3x5 font at scale 2.
func drawLabel(output *image.RGBA, label string, x, y int, col color.RGBA) {
	const scale = 2
	bounds := output.Bounds()
	cx := x
	for _, ch := range label {
		pattern := charPattern(ch)
		for row := 0; row < 5; row++ {
			for bit := 0; bit < 3; bit++ {
				if pattern[row]&(1<<(2-bit)) == 0 {
					continue
				}
				for dy := 0; dy < scale; dy++ {
					for dx := 0; dx < scale; dx++ {
						px := cx + bit*scale + dx
						py := y + row*scale + dy
						if px >= bounds.Min.X && px < bounds.Max.X &&
							py >= bounds.Min.Y && py < bounds.Max.Y {
							output.SetRGBA(px, py, col)
						}
					}
				}
			}
		}
		cx += 4 * scale
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
