package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/saturnino-fabrica-de-software/facegate/internal/pixel"
)

// Pinger is implemented by engines that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Factory builds an engine. It is called at most once per successful
// initialization.
type Factory func(ctx context.Context) (Engine, error)

// Lazy defers engine construction to the first call. Concurrent first calls
// wait on the same initialization; a failed initialization is retried by the
// next call.
type Lazy struct {
	name    string
	factory Factory

	mu     sync.Mutex
	engine Engine
}

var _ Engine = (*Lazy)(nil)

func NewLazy(name string, factory Factory) *Lazy {
	return &Lazy{name: name, factory: factory}
}

func (l *Lazy) Name() string {
	return l.name
}

// Initialized reports whether the engine has been built.
func (l *Lazy) Initialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine != nil
}

func (l *Lazy) Detect(ctx context.Context, img *pixel.Buffer) ([]Detection, error) {
	engine, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return engine.Detect(ctx, img)
}

func (l *Lazy) Represent(ctx context.Context, img *pixel.Buffer) ([]Representation, error) {
	engine, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return engine.Represent(ctx, img)
}

// Ping initializes the engine if needed and forwards to it when supported.
func (l *Lazy) Ping(ctx context.Context) error {
	engine, err := l.get(ctx)
	if err != nil {
		return err
	}
	if p, ok := engine.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (l *Lazy) get(ctx context.Context) (Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.engine != nil {
		return l.engine, nil
	}

	engine, err := l.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize %s engine: %w: %w", l.name, ErrUnavailable, err)
	}

	l.engine = engine
	return engine, nil
}
