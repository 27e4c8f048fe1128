package canvas

import (
	"image"

	"github.com/nfnt/resize"
)

// thumbnailSize is the bounding box for frame strip thumbnails.
const thumbnailSize = 96

// Thumbnail scales a frame image down to fit the strip, preserving aspect
// ratio. Images already within the box are returned unchanged.
func Thumbnail(img image.Image) image.Image {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	if b.Dx() <= thumbnailSize && b.Dy() <= thumbnailSize {
		return img
	}
	return resize.Thumbnail(thumbnailSize, thumbnailSize, img, resize.Lanczos3)
}
