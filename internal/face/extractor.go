package face

import (
	"context"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/pixel"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

type Extractor struct {
	representer provider.Representer
}

func NewExtractor(representer provider.Representer) *Extractor {
	return &Extractor{representer: representer}
}

// Extract returns the embedding of the first face the engine finds with
// detection enforced. Engine errors are returned as is, except deadline and
// cancellation which become SERVICE_UNAVAILABLE.
func (e *Extractor) Extract(ctx context.Context, buf *pixel.Buffer) ([]float64, error) {
	reps, err := e.representer.Represent(ctx, buf)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.ErrServiceUnavailable.WithError(err)
		}
		return nil, err
	}

	if len(reps) == 0 || len(reps[0].Embedding) == 0 {
		return nil, domain.ErrNoFaceDetected.WithMessage("Failed to generate face embedding")
	}

	return reps[0].Embedding, nil
}
