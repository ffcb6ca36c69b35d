package pixel

import (
	"bytes"
	"image"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

const (
	DefaultMinSize = 150
	DefaultMaxSize = 4096
)

// Validator enforces the accepted image dimension range, inclusive on both ends.
type Validator struct {
	MinSize int
	MaxSize int
}

func NewValidator(minSize, maxSize int) Validator {
	return Validator{MinSize: minSize, MaxSize: maxSize}
}

// CheckSize fails with LOW_QUALITY_IMAGE when either side is outside
// [MinSize, MaxSize].
func (v Validator) CheckSize(b *Buffer) error {
	w, h := b.Width(), b.Height()

	if h < v.MinSize || w < v.MinSize {
		return domain.ErrLowQualityImage.WithMessage(
			"Image too small (%dx%dpx). Minimum size: %dx%dpx", w, h, v.MinSize, v.MinSize)
	}

	if h > v.MaxSize || w > v.MaxSize {
		return domain.ErrLowQualityImage.WithMessage(
			"Image too large (%dx%dpx). Maximum size: %dx%dpx", w, h, v.MaxSize, v.MaxSize)
	}

	return nil
}

// CheckHeader reads only the image header and rejects dimensions above
// MaxSize before any pixels are allocated. Headers it cannot parse pass
// through so that Decode reports them as INVALID_IMAGE. EXIF rotation never
// changes the outcome since the limit is square.
func (v Validator) CheckHeader(data []byte) error {
	if v.MaxSize <= 0 {
		return nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	if cfg.Width > v.MaxSize || cfg.Height > v.MaxSize {
		return domain.ErrLowQualityImage.WithMessage(
			"Image too large (%dx%dpx). Maximum size: %dx%dpx", cfg.Width, cfg.Height, v.MaxSize, v.MaxSize)
	}

	return nil
}
