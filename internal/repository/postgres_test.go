package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWithRetry_RetriesSerializationFailure(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		if calls < 2 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	permanent := &pgconn.PgError{Code: pgerrcode.UniqueViolation}

	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return errors.New("dial tcp: connection refused")
	})

	assert.Error(t, err)
	assert.Equal(t, len(retryDelays)+1, calls)
}

func TestWithRetry_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := withRetry(ctx, func() error {
		return &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPostgresResolvePath_UsesSafePIN(t *testing.T) {
	r := &PostgresRepository{}
	assert.Equal(t, "pin_states/a_b", r.ResolvePath("a b"))
	assert.Equal(t, r.ResolvePath("a/b"), r.ResolvePath("a b"))
}
