package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIdempotencyConflict indicates the key was already used for a different order request.
	ErrIdempotencyConflict = errors.New("idempotency key already used for a different order")
	// ErrIdempotencyKeyTaken is returned by Save when another unit of work claimed the key first.
	ErrIdempotencyKeyTaken = errors.New("idempotency key already claimed")
)

// IdempotencyRecord ties a client-supplied key to the order it produced.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderID     int64
	CreatedAt   time.Time
}

// IdempotencyStore remembers which order a retried placement must replay.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save claims the key inside the current unit of work. It returns ErrIdempotencyKeyTaken
	// when the key already exists.
	Save(ctx context.Context, record IdempotencyRecord) error
	// ForgetOrder releases every key that replays the order, so a retry places a new one.
	ForgetOrder(ctx context.Context, orderID int64) error
}
