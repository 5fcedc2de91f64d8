package ports

import (
	"context"
	"errors"
)

// StoredResponse contains the response data to replay for a reused key.
// Fingerprint identifies the request body that produced it.
type StoredResponse struct {
	StatusCode  int
	Body        []byte
	OrderID     int64
	Fingerprint string
}

// Pending reports whether the key is reserved by a request that has not finished yet.
func (r StoredResponse) Pending() bool {
	return r.StatusCode == 0
}

// IdempotencyStore lets order creation be retried safely.
//
// Reserve claims key for the caller and returns nil, nil when the caller now owns it.
// Otherwise it returns the live entry, which is Pending while its owner is still running.
// Save completes a reservation (or stores a fresh entry) and never replaces a completed
// live response. Release drops a reservation that did not produce a response.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key, fingerprint string) (*StoredResponse, error)
	Save(ctx context.Context, key string, response StoredResponse) error
	Release(ctx context.Context, key string) error
}

var (
	// ErrIdempotencyKeyReused is returned when a key is replayed with a different request body.
	ErrIdempotencyKeyReused = errors.New("idempotency key reused with a different request")
	// ErrIdempotencyRequestInProgress is returned while another request holds the key.
	ErrIdempotencyRequestInProgress = errors.New("a request with this idempotency key is in progress")
)
