package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/pixel"
	"github.com/saturnino-fabrica-de-software/facegate/internal/similarity"
)

const (
	OperationEnroll = "enroll"
	OperationVerify = "verify"
)

// Stage names a step of an enroll or verify call.
type Stage string

const (
	StageDecoding   Stage = "decoding"
	StageValidating Stage = "validating"
	StageLocating   Stage = "locating"
	StageExtracting Stage = "extracting"
	StageComparing  Stage = "comparing"
	StageDone       Stage = "done"
)

// Outcome codes recorded for successful calls. Failures record the AppError code.
const (
	OutcomeEnrolled = "ENROLLED"
	OutcomeMatch    = "MATCH"
	OutcomeNoMatch  = "NO_MATCH"
)

// StageError is the failure of a single stage. It unwraps to the AppError
// that classifies it.
type StageError struct {
	Operation string
	Stage     Stage
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type FaceLocator interface {
	Locate(ctx context.Context, buf *pixel.Buffer) (domain.FaceRegion, float64, error)
}

type EmbeddingExtractor interface {
	Extract(ctx context.Context, buf *pixel.Buffer) ([]float64, error)
}

// Recorder receives pipeline measurements. StageDone carries the total
// duration of a successful call.
type Recorder interface {
	ObserveStage(operation string, stage Stage, elapsed time.Duration)
	ObserveOutcome(operation, code string)
	ObserveQuality(score float64)
	ObserveDistance(distance float64)
}

type noopRecorder struct{}

func (noopRecorder) ObserveStage(string, Stage, time.Duration) {}
func (noopRecorder) ObserveOutcome(string, string)             {}
func (noopRecorder) ObserveQuality(float64)                    {}
func (noopRecorder) ObserveDistance(float64)                   {}

// Pipeline runs enroll and verify calls. It keeps no per-request state and is
// safe for concurrent use.
type Pipeline struct {
	validator  pixel.Validator
	locator    FaceLocator
	extractor  EmbeddingExtractor
	comparator *similarity.Comparator
	recorder   Recorder
	timeout    time.Duration
	logger     *slog.Logger
}

type Option func(*Pipeline)

func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithTimeout bounds each call. Zero leaves the caller's deadline alone.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

func NewPipeline(
	validator pixel.Validator,
	locator FaceLocator,
	extractor EmbeddingExtractor,
	comparator *similarity.Comparator,
	logger *slog.Logger,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		validator:  validator,
		locator:    locator,
		extractor:  extractor,
		comparator: comparator,
		recorder:   noopRecorder{},
		logger:     logger.With(slog.String("component", "pipeline")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Threshold returns the configured decision threshold.
func (p *Pipeline) Threshold() float64 {
	return p.comparator.Threshold
}

// Enroll produces the embedding of the single face in image.
func (p *Pipeline) Enroll(ctx context.Context, image []byte) (*domain.Enrollment, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	start := time.Now()

	face, err := p.prepare(ctx, OperationEnroll, image, nil)
	if err != nil {
		p.recorder.ObserveOutcome(OperationEnroll, outcomeCode(err))
		return nil, err
	}

	p.recorder.ObserveStage(OperationEnroll, StageDone, time.Since(start))
	p.recorder.ObserveOutcome(OperationEnroll, OutcomeEnrolled)

	return &domain.Enrollment{
		Embedding:    face.embedding,
		QualityScore: face.quality,
		FaceSize:     face.region.Size(),
	}, nil
}

// Verify compares the face in image against a stored embedding. The live
// image goes through the same quality gate as enrollment; this screens out
// degenerate images but is not liveness detection.
func (p *Pipeline) Verify(ctx context.Context, image []byte, stored []float64) (*domain.Verification, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	start := time.Now()

	face, err := p.prepare(ctx, OperationVerify, image, stored)
	if err != nil {
		p.recorder.ObserveOutcome(OperationVerify, outcomeCode(err))
		return nil, err
	}

	var decision domain.VerificationDecision
	err = p.step(ctx, OperationVerify, StageComparing, func() error {
		var err error
		decision, err = p.comparator.Compare(face.embedding, stored)
		return err
	})
	if err != nil {
		p.recorder.ObserveOutcome(OperationVerify, outcomeCode(err))
		return nil, err
	}

	p.recorder.ObserveStage(OperationVerify, StageDone, time.Since(start))
	p.recorder.ObserveDistance(decision.Distance)
	if decision.IsMatch {
		p.recorder.ObserveOutcome(OperationVerify, OutcomeMatch)
	} else {
		p.recorder.ObserveOutcome(OperationVerify, OutcomeNoMatch)
	}

	p.logger.InfoContext(ctx, "verification completed",
		slog.Float64("distance", decision.Distance),
		slog.Float64("threshold", decision.ThresholdUsed),
		slog.Bool("match", decision.IsMatch),
		slog.Float64("confidence", decision.Confidence),
	)

	return &domain.Verification{
		VerificationDecision: decision,
		QualityScore:         face.quality,
		FaceSize:             face.region.Size(),
	}, nil
}

type acceptedFace struct {
	region    domain.FaceRegion
	quality   float64
	embedding []float64
}

// prepare runs the stages shared by enroll and verify. For verify the stored
// embedding is validated before any engine call.
func (p *Pipeline) prepare(ctx context.Context, op string, image []byte, stored []float64) (*acceptedFace, error) {
	var (
		buf  *pixel.Buffer
		face acceptedFace
	)

	err := p.step(ctx, op, StageDecoding, func() error {
		if err := p.validator.CheckHeader(image); err != nil {
			return err
		}
		var err error
		buf, err = pixel.Decode(image)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.step(ctx, op, StageValidating, func() error {
		if err := p.validator.CheckSize(buf); err != nil {
			return err
		}
		if op == OperationVerify {
			return p.comparator.Validate(stored)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.step(ctx, op, StageLocating, func() error {
		var err error
		face.region, face.quality, err = p.locator.Locate(ctx, buf)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.recorder.ObserveQuality(face.quality)

	err = p.step(ctx, op, StageExtracting, func() error {
		var err error
		face.embedding, err = p.extractor.Extract(ctx, buf)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &face, nil
}

// step checks for cancellation at the stage boundary, times fn, and wraps any
// failure in a StageError.
func (p *Pipeline) step(ctx context.Context, op string, stage Stage, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Operation: op, Stage: stage, Err: domain.ErrServiceUnavailable.WithError(err)}
	}

	start := time.Now()
	err := fn()
	p.recorder.ObserveStage(op, stage, time.Since(start))

	if err == nil {
		return nil
	}

	var appErr *domain.AppError
	if !errors.As(err, &appErr) && ctx.Err() != nil {
		err = domain.ErrServiceUnavailable.WithError(err)
	}

	p.logger.DebugContext(ctx, "stage failed",
		slog.String("operation", op),
		slog.String("stage", string(stage)),
		slog.String("error", err.Error()),
	)

	return &StageError{Operation: op, Stage: stage, Err: err}
}

func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

func outcomeCode(err error) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return domain.ErrInternal.Code
}
