// Package pixel turns uploaded bytes into the canonical, upright RGB buffer the
// rest of the pipeline works on, and enforces the image size limits.
package pixel

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

var errEmptyImage = errors.New("empty image data")

// Buffer is a decoded image in NRGBA layout with every alpha value set to
// opaque. It has no mutators; the pipeline call that decoded it owns it.
type Buffer struct {
	img *image.NRGBA
}

// Decode parses raw bytes as JPEG, PNG, GIF, WebP, BMP or TIFF, applies the
// EXIF orientation, and flattens the result to opaque RGB. The input slice is
// not retained.
func Decode(data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, domain.ErrInvalidImage.WithError(errEmptyImage)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage.
			WithMessage("Failed to load image: %v", err).
			WithError(fmt.Errorf("decode image: %w", err))
	}

	src = orient(src, orientation(data))

	img := imaging.Clone(src)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}

	return &Buffer{img: img}, nil
}

// FromImage builds a buffer from an already decoded image.
func FromImage(src image.Image) *Buffer {
	img := imaging.Clone(src)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return &Buffer{img: img}
}

func (b *Buffer) Width() int {
	return b.img.Bounds().Dx()
}

func (b *Buffer) Height() int {
	return b.img.Bounds().Dy()
}

// Bounds is always anchored at the origin.
func (b *Buffer) Bounds() image.Rectangle {
	return b.img.Bounds()
}

// Image exposes the pixels read-only by convention; callers must not modify it.
func (b *Buffer) Image() image.Image {
	return b.img
}

// EncodeJPEG re-encodes the canonical pixels for engines that take bytes, so
// face boxes they return share this buffer's coordinate space.
func (b *Buffer) EncodeJPEG(quality int) ([]byte, error) {
	var out bytes.Buffer
	if err := imaging.Encode(&out, b.img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}

// orientation returns the EXIF orientation tag, or 1 when absent or unreadable.
func orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

func orient(img image.Image, o int) image.Image {
	switch o {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}
