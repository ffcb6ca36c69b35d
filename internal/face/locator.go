// Package face finds the single usable face in an image and extracts its
// embedding, applying the quality gate in between.
package face

import (
	"context"
	"errors"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/pixel"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/quality"
)

// LocatorConfig holds the acceptance thresholds.
type LocatorConfig struct {
	// MinConfidence is exclusive: candidates must score strictly above it.
	MinConfidence    float64
	MinFaceSize      int
	QualityThreshold float64
}

type Locator struct {
	detector provider.Detector
	scorer   *quality.Scorer
	cfg      LocatorConfig
	logger   *slog.Logger
}

func NewLocator(detector provider.Detector, scorer *quality.Scorer, cfg LocatorConfig, logger *slog.Logger) *Locator {
	return &Locator{
		detector: detector,
		scorer:   scorer,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "face_locator")),
	}
}

// Locate returns the box and quality score of the only confident face.
//
// Infrastructure failures (deadline, cancellation, unreachable engine) are
// reported as SERVICE_UNAVAILABLE. Any other detection error is reported as
// NO_FACE_DETECTED with the cause attached and logged.
func (l *Locator) Locate(ctx context.Context, buf *pixel.Buffer) (domain.FaceRegion, float64, error) {
	candidates, err := l.detector.Detect(ctx, buf)
	if err != nil {
		if isUnavailable(ctx, err) {
			return domain.FaceRegion{}, 0, domain.ErrServiceUnavailable.WithError(err)
		}
		l.logger.ErrorContext(ctx, "face detection error",
			slog.String("engine", l.detector.Name()),
			slog.String("error", err.Error()),
		)
		return domain.FaceRegion{}, 0, domain.ErrNoFaceDetected.WithError(err)
	}

	faces := make([]provider.Detection, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence > l.cfg.MinConfidence {
			faces = append(faces, c)
		}
	}

	switch {
	case len(faces) == 0:
		return domain.FaceRegion{}, 0, domain.ErrNoFaceDetected
	case len(faces) > 1:
		return domain.FaceRegion{}, 0, domain.ErrMultipleFaces.WithMessage(
			"Multiple faces detected (%d). Please provide image with single face.", len(faces))
	}

	region := faces[0].Region
	if region.W < l.cfg.MinFaceSize || region.H < l.cfg.MinFaceSize {
		return domain.FaceRegion{}, 0, domain.ErrLowQualityImage.WithMessage(
			"Face too small (%dx%dpx). Minimum: %dx%dpx",
			region.W, region.H, l.cfg.MinFaceSize, l.cfg.MinFaceSize)
	}

	score := l.scorer.Score(buf, region)
	if score < l.cfg.QualityThreshold {
		return domain.FaceRegion{}, 0, domain.ErrLowQualityImage.WithMessage(
			"Image quality too low (score: %.1f/100, minimum: %.1f). Please provide clearer image with better lighting.",
			score, l.cfg.QualityThreshold)
	}

	l.logger.InfoContext(ctx, "face detected",
		slog.Int("width", region.W),
		slog.Int("height", region.H),
		slog.Float64("quality", score),
	)

	return region, score, nil
}

func isUnavailable(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, provider.ErrUnavailable)
}
