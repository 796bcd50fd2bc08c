// utils/image_utils.go
package utils

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

const (
	// Post images are bounded to this box before upload. Fixed policy to
	// cap stored asset size.
	maxImageWidth  = 800
	maxImageHeight = 800
	// JPEG re-encode quality
	jpegQuality = 80
)

// ProcessPostImage decodes an uploaded image, scales it down to fit
// within 800x800 preserving aspect ratio, and re-encodes it as JPEG.
// Images already inside the bounding box are re-encoded without resizing.
func ProcessPostImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxImageWidth || bounds.Dy() > maxImageHeight {
		img = imaging.Fit(img, maxImageWidth, maxImageHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %v", err)
	}

	return buf.Bytes(), nil
}
