package provider

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/saturnino-fabrica-de-software/facegate/internal/pixel"
)

// Limited caps the number of in-flight calls into an engine. A limit of one
// serializes access for runtimes that are not safe for concurrent use.
type Limited struct {
	engine Engine
	sem    *semaphore.Weighted
}

var _ Engine = (*Limited)(nil)

func NewLimited(engine Engine, maxConcurrent int) *Limited {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Limited{
		engine: engine,
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

func (l *Limited) Name() string {
	return l.engine.Name()
}

func (l *Limited) Detect(ctx context.Context, img *pixel.Buffer) ([]Detection, error) {
	if err := l.acquire(ctx); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)

	return l.engine.Detect(ctx, img)
}

func (l *Limited) Represent(ctx context.Context, img *pixel.Buffer) ([]Representation, error) {
	if err := l.acquire(ctx); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)

	return l.engine.Represent(ctx, img)
}

// Ping bypasses the limit so health checks are not queued behind inference.
func (l *Limited) Ping(ctx context.Context) error {
	if p, ok := l.engine.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (l *Limited) acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: waiting for inference slot: %w", ErrUnavailable, err)
	}
	return nil
}
