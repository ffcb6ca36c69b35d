package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultWriteTimeout bounds a single insert so a slow database never holds
// up the response that triggered the event.
const DefaultWriteTimeout = 2 * time.Second

// DB interface for database operations
type DB interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PostgresLogger persists audit events to the security_audits table
type PostgresLogger struct {
	db      DB
	timeout time.Duration
}

// NewPostgresLogger creates an audit logger backed by a pgx pool
func NewPostgresLogger(pool *pgxpool.Pool, timeout time.Duration) *PostgresLogger {
	return NewPostgresLoggerWithDB(pool, timeout)
}

// NewPostgresLoggerWithDB creates an audit logger with custom DB interface
func NewPostgresLoggerWithDB(db DB, timeout time.Duration) *PostgresLogger {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return &PostgresLogger{
		db:      db,
		timeout: timeout,
	}
}

func (p *PostgresLogger) Log(ctx context.Context, event Event) error {
	stamp(&event)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	query := `
		INSERT INTO security_audits (id, created_at, endpoint, reason_code, details, request_id, client_ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.db.Exec(ctx, query,
		event.ID,
		event.Timestamp,
		event.Endpoint,
		string(event.ReasonCode),
		event.Details,
		nullable(event.RequestID),
		nullable(event.ClientIP),
	)
	if err != nil {
		return fmt.Errorf("insert security audit: %w", err)
	}

	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
