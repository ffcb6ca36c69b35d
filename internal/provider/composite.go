package provider

import (
	"context"
	"errors"

	"github.com/saturnino-fabrica-de-software/facegate/internal/pixel"
)

// Composite pairs a detection backend with an embedding backend, e.g. a
// cloud detector with a self-hosted embedding model.
type Composite struct {
	Detector    Detector
	Representer Representer
}

var _ Engine = (*Composite)(nil)

func NewComposite(detector Detector, representer Representer) *Composite {
	return &Composite{Detector: detector, Representer: representer}
}

func (c *Composite) Name() string {
	return c.Detector.Name() + "+" + c.Representer.Name()
}

func (c *Composite) Detect(ctx context.Context, img *pixel.Buffer) ([]Detection, error) {
	return c.Detector.Detect(ctx, img)
}

func (c *Composite) Represent(ctx context.Context, img *pixel.Buffer) ([]Representation, error) {
	return c.Representer.Represent(ctx, img)
}

// Ping checks both halves that support it.
func (c *Composite) Ping(ctx context.Context) error {
	var errs []error
	if p, ok := c.Detector.(Pinger); ok {
		errs = append(errs, p.Ping(ctx))
	}
	if p, ok := c.Representer.(Pinger); ok {
		errs = append(errs, p.Ping(ctx))
	}
	return errors.Join(errs...)
}
