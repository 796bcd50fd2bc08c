package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestImage(t *testing.T, width, height int, asPNG bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 10 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if asPNG {
		require.NoError(t, png.Encode(&buf, img))
	} else {
		require.NoError(t, jpeg.Encode(&buf, img, nil))
	}
	return buf.Bytes()
}

// TestProcessPostImage_DownscalesLargeImages verifies the 800x800 bound.
func TestProcessPostImage_DownscalesLargeImages(t *testing.T) {
	out, err := ProcessPostImage(encodeTestImage(t, 1600, 1200, false))
	require.NoError(t, err)

	decoded, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.LessOrEqual(t, decoded.Bounds().Dx(), 800)
	assert.LessOrEqual(t, decoded.Bounds().Dy(), 800)
}

// TestProcessPostImage_PreservesAspectRatio checks Fit keeps proportions.
func TestProcessPostImage_PreservesAspectRatio(t *testing.T) {
	out, err := ProcessPostImage(encodeTestImage(t, 2000, 1000, false))
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 800, decoded.Bounds().Dx())
	assert.Equal(t, 400, decoded.Bounds().Dy())
}

// TestProcessPostImage_SmallImageNotUpscaled verifies images already
// inside the box keep their dimensions.
func TestProcessPostImage_SmallImageNotUpscaled(t *testing.T) {
	out, err := ProcessPostImage(encodeTestImage(t, 300, 200, false))
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 300, decoded.Bounds().Dx())
	assert.Equal(t, 200, decoded.Bounds().Dy())
}

// TestProcessPostImage_ConvertsPNGToJPEG verifies re-encoding regardless
// of the source format.
func TestProcessPostImage_ConvertsPNGToJPEG(t *testing.T) {
	out, err := ProcessPostImage(encodeTestImage(t, 400, 400, true))
	require.NoError(t, err)

	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestProcessPostImage_RejectsGarbage(t *testing.T) {
	_, err := ProcessPostImage([]byte("definitely not an image"))
	assert.Error(t, err)
}
