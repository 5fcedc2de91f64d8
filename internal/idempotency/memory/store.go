package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

type entry struct {
	response ports.StoredResponse
	storedAt time.Time
}

// Store retains create-order responses in process memory for replaying retries.
type Store struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]entry
}

// NewStore creates a store whose entries expire after ttl. A zero ttl keeps entries forever.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]entry),
	}
}

func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[key]
	if !ok || s.expired(item) {
		return nil, nil
	}
	return copyResponse(item.response), nil
}

// Reserve records a pending entry for key unless a live one exists, which is returned instead.
func (s *Store) Reserve(_ context.Context, key, fingerprint string) (*ports.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.items[key]; ok && !s.expired(item) {
		return copyResponse(item.response), nil
	}
	s.items[key] = entry{response: ports.StoredResponse{Fingerprint: fingerprint}, storedAt: s.now()}
	return nil, nil
}

// Save completes a pending entry or stores response when the key is free.
// A completed live entry is kept.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.items[key]; ok && !s.expired(item) && !item.response.Pending() {
		return nil
	}
	response.Body = append([]byte(nil), response.Body...)
	s.items[key] = entry{response: response, storedAt: s.now()}
	return nil
}

// Release removes a pending entry. Completed entries are left alone.
func (s *Store) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.items[key]; ok && item.response.Pending() {
		delete(s.items, key)
	}
	return nil
}

func (s *Store) expired(item entry) bool {
	return s.ttl > 0 && s.now().Sub(item.storedAt) > s.ttl
}

func copyResponse(response ports.StoredResponse) *ports.StoredResponse {
	response.Body = append([]byte(nil), response.Body...)
	return &response
}
