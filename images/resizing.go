package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DefaultQuality is used for lossy encodings when no quality is given.
const DefaultQuality = 90

// Thumbnail scales img to the given width, keeping the aspect ratio. A zero
// width, or the image's own width, returns img unchanged.
func Thumbnail(img image.Image, width uint) image.Image {
	if width == 0 || int(width) == img.Bounds().Dx() {
		return img
	}
	return resize.Resize(width, 0, img, resize.Lanczos3)
}

// MatToThumbnail converts a BGR Mat into a Go image scaled to width.
//
// Arguments:
//   - mat: The source image. It is not modified.
//   - width: The target width, zero to keep the original size.
//
// Returns:
//   - image.Image: The scaled image.
//   - error: If the Mat is empty or cannot be converted.
func MatToThumbnail(mat gocv.Mat, width uint) (image.Image, error) {
	if mat.Empty() {
		return nil, ErrEmptyFrame
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "convert mat to image")
	}
	return Thumbnail(img, width), nil
}

// EncodeImage writes img to w in the given format. Quality applies to JPEG
// and WebP; values outside 1-100 fall back to DefaultQuality.
func EncodeImage(w io.Writer, img image.Image, format ImageFormat, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	switch format {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	case FormatPNG:
		return png.Encode(w, img)
	default:
		return errors.Errorf("unsupported image format %q", format)
	}
}

// DecodeImage decodes an encoded image of the given format.
func DecodeImage(b []byte, format ImageFormat) (image.Image, error) {
	if len(b) == 0 {
		return nil, errors.New("empty image data")
	}

	r := bytes.NewReader(b)
	var (
		img image.Image
		err error
	)
	switch format {
	case FormatJPEG:
		img, err = jpeg.Decode(r)
	case FormatWebP:
		img, err = webp.Decode(r)
	case FormatPNG:
		img, err = png.Decode(r)
	default:
		return nil, errors.Errorf("unsupported image format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s image", format)
	}
	return img, nil
}
