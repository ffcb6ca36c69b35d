package mock

import (
	"context"
	"crypto/sha256"
	"image"
	"math"
	"sync/atomic"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/pixel"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

const defaultDimension = 512

// Engine implementa provider.Engine para testes e desenvolvimento.
// By default it reports a single face covering the central 60% of any
// non-uniform image and no face on a flat image.
type Engine struct {
	dimension    int
	detections   []provider.Detection
	detectErr    error
	representErr error

	detectCalls    atomic.Int64
	representCalls atomic.Int64
}

var _ provider.Engine = (*Engine)(nil)

type Option func(*Engine)

// WithDimension sets the embedding length.
func WithDimension(n int) Option {
	return func(e *Engine) { e.dimension = n }
}

// WithDetections fixes the candidates returned by Detect.
func WithDetections(d ...provider.Detection) Option {
	return func(e *Engine) {
		e.detections = append([]provider.Detection{}, d...)
	}
}

func WithDetectError(err error) Option {
	return func(e *Engine) { e.detectErr = err }
}

func WithRepresentError(err error) Option {
	return func(e *Engine) { e.representErr = err }
}

// New cria uma nova instância do mock engine
func New(opts ...Option) *Engine {
	e := &Engine{dimension: defaultDimension}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Name() string {
	return "mock"
}

func (e *Engine) Ping(ctx context.Context) error {
	return nil
}

func (e *Engine) Detect(ctx context.Context, img *pixel.Buffer) ([]provider.Detection, error) {
	e.detectCalls.Add(1)
	if e.detectErr != nil {
		return nil, e.detectErr
	}
	if e.detections != nil {
		return append([]provider.Detection{}, e.detections...), nil
	}
	if flat(img.Image()) {
		return []provider.Detection{}, nil
	}

	w, h := img.Width(), img.Height()
	return []provider.Detection{
		{
			Region: domain.FaceRegion{
				X: w / 5,
				Y: h / 5,
				W: w * 3 / 5,
				H: h * 3 / 5,
			},
			Confidence: 0.99,
		},
	}, nil
}

// Represent gera embedding determinístico baseado no hash dos pixels
func (e *Engine) Represent(ctx context.Context, img *pixel.Buffer) ([]provider.Representation, error) {
	e.representCalls.Add(1)
	if e.representErr != nil {
		return nil, e.representErr
	}
	if e.detections == nil && flat(img.Image()) {
		return []provider.Representation{}, nil
	}

	return []provider.Representation{
		{Embedding: generateEmbedding(img.Image(), e.dimension)},
	}, nil
}

// DetectCalls returns how many times Detect was invoked.
func (e *Engine) DetectCalls() int64 {
	return e.detectCalls.Load()
}

// RepresentCalls returns how many times Represent was invoked.
func (e *Engine) RepresentCalls() int64 {
	return e.representCalls.Load()
}

func flat(img image.Image) bool {
	b := img.Bounds()
	r0, g0, b0, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r != r0 || g != g0 || bl != b0 {
				return false
			}
		}
	}
	return true
}

// generateEmbedding maps the pixel hash to a unit vector
func generateEmbedding(img image.Image, dimension int) []float64 {
	h := sha256.New()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			_, _ = h.Write([]byte{byte(r >> 8), byte(g >> 8), byte(bl >> 8)})
		}
	}
	hash := h.Sum(nil)

	embedding := make([]float64, dimension)
	for i := range embedding {
		embedding[i] = (float64(hash[i%len(hash)])/255.0)*2 - 1 + float64(i%7)*1e-3
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		embedding[0], norm = 1, 1
	}

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}
