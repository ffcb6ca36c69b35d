package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// ReasonCode classifies why a request was rejected
type ReasonCode string

const (
	ReasonNoFaceDetected     ReasonCode = "NO_FACE_DETECTED"
	ReasonMultipleFaces      ReasonCode = "MULTIPLE_FACES"
	ReasonLowQualityImage    ReasonCode = "LOW_QUALITY_IMAGE"
	ReasonInvalidFileType    ReasonCode = "INVALID_FILE_TYPE"
	ReasonInvalidImage       ReasonCode = "INVALID_IMAGE"
	ReasonInvalidEmbedding   ReasonCode = "INVALID_EMBEDDING"
	ReasonVerificationFailed ReasonCode = "VERIFICATION_FAILED"
)

// Event is a security-relevant rejection. It never carries image bytes or
// embeddings.
type Event struct {
	ID         uuid.UUID  `json:"id"`
	Timestamp  time.Time  `json:"timestamp"`
	Endpoint   string     `json:"endpoint"`
	ReasonCode ReasonCode `json:"reason_code"`
	Details    string     `json:"details"`
	RequestID  string     `json:"request_id,omitempty"`
	ClientIP   string     `json:"client_ip,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// ReasonFor maps a pipeline error to its audit reason. Errors that are not
// caller-actionable rejections (infra, internal) report false.
func ReasonFor(err error) (ReasonCode, bool) {
	switch {
	case errors.Is(err, domain.ErrNoFaceDetected):
		return ReasonNoFaceDetected, true
	case errors.Is(err, domain.ErrMultipleFaces):
		return ReasonMultipleFaces, true
	case errors.Is(err, domain.ErrLowQualityImage):
		return ReasonLowQualityImage, true
	case errors.Is(err, domain.ErrInvalidFileType):
		return ReasonInvalidFileType, true
	case errors.Is(err, domain.ErrInvalidImage):
		return ReasonInvalidImage, true
	case errors.Is(err, domain.ErrInvalidEmbedding):
		return ReasonInvalidEmbedding, true
	}
	return "", false
}

func stamp(event *Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
}

// SlogLogger writes audit events as WARN records
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger using slog
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	stamp(&event)

	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("endpoint", event.Endpoint),
		slog.String("reason", string(event.ReasonCode)),
		slog.String("details", event.Details),
	}
	if event.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", event.RequestID))
	}
	if event.ClientIP != "" {
		attrs = append(attrs, slog.String("client_ip", event.ClientIP))
	}

	l.logger.WarnContext(ctx, "security alert", attrs...)

	return nil
}

// MultiLogger fans an event out to every sink. All sinks are attempted; the
// first error is returned.
type MultiLogger struct {
	sinks []Logger
}

func NewMultiLogger(sinks ...Logger) *MultiLogger {
	return &MultiLogger{sinks: sinks}
}

func (m *MultiLogger) Log(ctx context.Context, event Event) error {
	stamp(&event)

	var first error
	for _, sink := range m.sinks {
		if err := sink.Log(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
