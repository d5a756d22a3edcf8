package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// TransientStoreError marks a load that failed on connectivity after the
// retry budget was spent. Input files stay on disk so the run can be replayed.
type TransientStoreError struct {
	Table    string
	Attempts int
	Err      error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("transient store failure on %s after %d attempts: %v", e.Table, e.Attempts, e.Err)
}

func (e *TransientStoreError) Unwrap() error { return e.Err }

// ConstraintViolationError marks a chunk the destination schema rejected. The
// offending chunk is persisted for offline inspection and never retried.
type ConstraintViolationError struct {
	Table     string
	ChunkPath string
	Err       error
}

func (e *ConstraintViolationError) Error() string {
	if e.ChunkPath != "" {
		return fmt.Sprintf("constraint violation on %s (chunk saved to %s): %v", e.Table, e.ChunkPath, e.Err)
	}
	return fmt.Sprintf("constraint violation on %s: %v", e.Table, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error { return e.Err }

// isTransient reports whether the error is a connectivity-class failure worth
// discarding the pool and retrying: connection exceptions (class 08), server
// shutdown (57P*), pool exhaustion (53300), or plain network errors.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"):
			return true
		case strings.HasPrefix(pgErr.Code, "57P"):
			return true
		case pgErr.Code == "53300":
			return true
		}
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}

// isConstraint reports whether the error is the batch disagreeing with the
// destination schema: integrity violations (class 23), data exceptions
// (class 22), or an undefined column/table (42703, 42P01), which is how a new
// portal column first shows up. These all earn a chunk dump and no retry.
func isConstraint(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "42703", "42P01":
		return true
	}
	return strings.HasPrefix(pgErr.Code, "23") || strings.HasPrefix(pgErr.Code, "22")
}
