package provider

import (
	"context"
	"errors"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/pixel"
)

// ErrUnavailable marks infrastructure failures: the engine could not be
// reached or no inference slot was free before the deadline. Callers should
// report these as retryable.
var ErrUnavailable = errors.New("embedding engine unavailable")

// Engine is the face detection and embedding collaborator. Implementations
// must not retain the buffer after returning.
type Engine interface {
	// Detect returns zero or more face candidates. Zero faces is not an error.
	Detect(ctx context.Context, img *pixel.Buffer) ([]Detection, error)

	// Represent returns one embedding per face found with detection enforced.
	// It may return an empty slice or an error when no face is present.
	Represent(ctx context.Context, img *pixel.Buffer) ([]Representation, error)

	// Name identifies the backend in logs and metrics.
	Name() string
}

// Detector is the detection half of an Engine.
type Detector interface {
	Detect(ctx context.Context, img *pixel.Buffer) ([]Detection, error)
	Name() string
}

// Representer is the embedding half of an Engine.
type Representer interface {
	Represent(ctx context.Context, img *pixel.Buffer) ([]Representation, error)
	Name() string
}

// Detection is a face candidate in buffer pixel coordinates with a
// confidence in [0, 1].
type Detection struct {
	Region     domain.FaceRegion `json:"region"`
	Confidence float64           `json:"confidence"`
}

// Representation is a single face embedding.
type Representation struct {
	Embedding []float64         `json:"embedding"`
	Region    domain.FaceRegion `json:"region"`
}
