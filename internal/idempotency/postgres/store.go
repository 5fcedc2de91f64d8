package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

type Store struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewStore creates a store whose keys are ignored once older than ttl. A zero ttl keeps them forever.
func NewStore(pool *pgxpool.Pool, ttl time.Duration) *Store {
	return &Store{pool: pool, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	query := `
		SELECT status_code, body, order_id, fingerprint
		FROM idempotency_keys
		WHERE key = $1
		  AND ($2::bigint = 0 OR created_at > now() - make_interval(secs => $2::bigint))
	`

	var resp ports.StoredResponse
	err := s.pool.QueryRow(ctx, query, key, int64(s.ttl/time.Second)).Scan(
		&resp.StatusCode,
		&resp.Body,
		&resp.OrderID,
		&resp.Fingerprint,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select idempotency key: %w", err)
	}

	return &resp, nil
}

// Reserve inserts a pending row for key. When a live row already exists it is returned
// instead and the caller does not own the key.
func (s *Store) Reserve(ctx context.Context, key, fingerprint string) (*ports.StoredResponse, error) {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, order_id, fingerprint)
		VALUES ($1, 0, ''::bytea, 0, $2)
		ON CONFLICT (key) DO UPDATE
		SET status_code = 0,
		    body = ''::bytea,
		    order_id = 0,
		    fingerprint = EXCLUDED.fingerprint,
		    created_at = now()
		WHERE $3::bigint > 0
		  AND idempotency_keys.created_at <= now() - make_interval(secs => $3::bigint)
		RETURNING key
	`

	var reserved string
	err := s.pool.QueryRow(ctx, query, key, fingerprint, int64(s.ttl/time.Second)).Scan(&reserved)
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reserve idempotency key: %w", err)
	}

	existing, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// The row expired between the insert and the lookup; report it as held.
		return &ports.StoredResponse{Fingerprint: fingerprint}, nil
	}
	return existing, nil
}

// Save completes a pending row or inserts the response. A completed row is only
// replaced once it has expired.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, order_id, fingerprint)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE
		SET status_code = EXCLUDED.status_code,
		    body = EXCLUDED.body,
		    order_id = EXCLUDED.order_id,
		    fingerprint = EXCLUDED.fingerprint,
		    created_at = now()
		WHERE idempotency_keys.status_code = 0
		   OR ($6::bigint > 0
		       AND idempotency_keys.created_at <= now() - make_interval(secs => $6::bigint))
	`

	_, err := s.pool.Exec(ctx, query,
		key,
		response.StatusCode,
		response.Body,
		response.OrderID,
		response.Fingerprint,
		int64(s.ttl/time.Second),
	)
	if err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}

	return nil
}

// Release deletes a pending row so the key can be retried.
func (s *Store) Release(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1 AND status_code = 0`, key); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
