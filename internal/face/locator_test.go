package face

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/pixel"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/facegate/internal/quality"
)

var defaultLocatorConfig = LocatorConfig{
	MinConfidence:    0.9,
	MinFaceSize:      80,
	QualityThreshold: 30,
}

func checkerboard(w, h int) *pixel.Buffer {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return pixel.FromImage(img)
}

func black(w, h int) *pixel.Buffer {
	return pixel.FromImage(image.NewGray(image.Rect(0, 0, w, h)))
}

func detection(x, y, w, h int, confidence float64) provider.Detection {
	return provider.Detection{Region: domain.FaceRegion{X: x, Y: y, W: w, H: h}, Confidence: confidence}
}

func newLocator(engine provider.Detector, logs *bytes.Buffer) *Locator {
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewLocator(engine, quality.NewScorer(), defaultLocatorConfig, logger)
}

func TestLocator_Locate(t *testing.T) {
	tests := []struct {
		name        string
		engine      *mock.Engine
		buf         *pixel.Buffer
		wantErr     error
		wantMessage string
		wantRegion  domain.FaceRegion
	}{
		{
			name:       "single confident face",
			engine:     mock.New(mock.WithDetections(detection(100, 100, 200, 200, 0.99))),
			buf:        checkerboard(400, 400),
			wantRegion: domain.FaceRegion{X: 100, Y: 100, W: 200, H: 200},
		},
		{
			name:    "no candidates",
			engine:  mock.New(mock.WithDetections()),
			buf:     checkerboard(400, 400),
			wantErr: domain.ErrNoFaceDetected,
		},
		{
			name:    "confidence exactly at threshold is rejected",
			engine:  mock.New(mock.WithDetections(detection(100, 100, 200, 200, 0.9))),
			buf:     checkerboard(400, 400),
			wantErr: domain.ErrNoFaceDetected,
		},
		{
			name: "low confidence candidates are ignored",
			engine: mock.New(mock.WithDetections(
				detection(0, 0, 100, 100, 0.2),
				detection(100, 100, 200, 200, 0.95),
			)),
			buf:        checkerboard(400, 400),
			wantRegion: domain.FaceRegion{X: 100, Y: 100, W: 200, H: 200},
		},
		{
			name: "multiple confident faces",
			engine: mock.New(mock.WithDetections(
				detection(0, 0, 100, 100, 0.99),
				detection(200, 0, 100, 100, 0.98),
				detection(0, 200, 100, 100, 0.97),
			)),
			buf:         checkerboard(400, 400),
			wantErr:     domain.ErrMultipleFaces,
			wantMessage: "Multiple faces detected (3)",
		},
		{
			name:        "face narrower than minimum",
			engine:      mock.New(mock.WithDetections(detection(10, 10, 79, 120, 0.99))),
			buf:         checkerboard(400, 400),
			wantErr:     domain.ErrLowQualityImage,
			wantMessage: "Face too small (79x120px). Minimum: 80x80px",
		},
		{
			name:        "dark blurry face below quality threshold",
			engine:      mock.New(mock.WithDetections(detection(100, 100, 100, 100, 0.99))),
			buf:         black(400, 400),
			wantErr:     domain.ErrLowQualityImage,
			wantMessage: "Image quality too low (score: 6.",
		},
		{
			name:    "unexpected engine error becomes no face",
			engine:  mock.New(mock.WithDetectError(errors.New("detector exploded"))),
			buf:     checkerboard(400, 400),
			wantErr: domain.ErrNoFaceDetected,
		},
		{
			name:    "unreachable engine is service unavailable",
			engine:  mock.New(mock.WithDetectError(fmt.Errorf("dial: %w", provider.ErrUnavailable))),
			buf:     checkerboard(400, 400),
			wantErr: domain.ErrServiceUnavailable,
		},
		{
			name:    "engine deadline is service unavailable",
			engine:  mock.New(mock.WithDetectError(context.DeadlineExceeded)),
			buf:     checkerboard(400, 400),
			wantErr: domain.ErrServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			l := newLocator(tt.engine, &logs)

			region, score, err := l.Locate(context.Background(), tt.buf)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantMessage != "" {
					assert.Contains(t, err.Error(), tt.wantMessage)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantRegion, region)
			assert.GreaterOrEqual(t, score, defaultLocatorConfig.QualityThreshold)
			assert.LessOrEqual(t, score, 100.0)
		})
	}
}

func TestLocator_LogsReclassifiedCause(t *testing.T) {
	var logs bytes.Buffer
	l := newLocator(mock.New(mock.WithDetectError(errors.New("cv2 error: bad input"))), &logs)

	_, _, err := l.Locate(context.Background(), checkerboard(200, 200))

	require.ErrorIs(t, err, domain.ErrNoFaceDetected)
	assert.ErrorContains(t, err, "cv2 error: bad input")
	assert.Contains(t, logs.String(), "cv2 error: bad input")
	assert.Contains(t, logs.String(), "component=face_locator")
}

func TestLocator_CancelledContext(t *testing.T) {
	var logs bytes.Buffer
	l := newLocator(mock.New(mock.WithDetectError(errors.New("request aborted"))), &logs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := l.Locate(ctx, checkerboard(200, 200))

	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}
