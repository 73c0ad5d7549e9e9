package images

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func getTestImage() image.Image {
	// A simple 100x50 red image.
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}
	return img
}

func TestThumbnail(t *testing.T) {
	img := getTestImage()

	thumb := Thumbnail(img, 50)
	assert.Equal(t, 50, thumb.Bounds().Dx())
	assert.Equal(t, 25, thumb.Bounds().Dy(), "aspect ratio is kept")

	assert.Same(t, img, Thumbnail(img, 0), "zero width keeps the image")
	assert.Same(t, img, Thumbnail(img, 100), "same width keeps the image")
}

func TestMatToThumbnail(t *testing.T) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 1080, 1920, gocv.MatTypeCV8UC3)
	defer mat.Close()

	thumb, err := MatToThumbnail(mat, 480)
	require.NoError(t, err)
	assert.Equal(t, 480, thumb.Bounds().Dx())
	assert.Equal(t, 270, thumb.Bounds().Dy())

	empty := gocv.NewMat()
	defer empty.Close()
	_, err = MatToThumbnail(empty, 480)
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestEncodeDecodeImage(t *testing.T) {
	for _, format := range []ImageFormat{FormatPNG, FormatJPEG, FormatWebP} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeImage(&buf, getTestImage(), format, 80))
			assert.NotZero(t, buf.Len())

			decoded, err := DecodeImage(buf.Bytes(), format)
			require.NoError(t, err)
			assert.Equal(t, 100, decoded.Bounds().Dx())
			assert.Equal(t, 50, decoded.Bounds().Dy())
		})
	}
}

func TestEncodeImage_Unsupported(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, EncodeImage(&buf, getTestImage(), ImageFormat("gif"), 80))
}

func TestDecodeImage_Invalid(t *testing.T) {
	_, err := DecodeImage(nil, FormatPNG)
	assert.Error(t, err)

	_, err = DecodeImage([]byte("not a jpeg"), FormatJPEG)
	assert.Error(t, err)
}

func TestParseImageFormat(t *testing.T) {
	for input, expected := range map[string]ImageFormat{
		"":     FormatPNG,
		"png":  FormatPNG,
		"JPG":  FormatJPEG,
		"jpeg": FormatJPEG,
		"webp": FormatWebP,
	} {
		format, err := ParseImageFormat(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, format, input)
	}

	_, err := ParseImageFormat("tiff")
	assert.Error(t, err)

	assert.Equal(t, ".jpg", FormatJPEG.Extension())
	assert.Equal(t, ".webp", FormatWebP.Extension())
	assert.Equal(t, ".png", FormatPNG.Extension())
}
