package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("returns nil for unknown key", func(t *testing.T) {
		store := NewStore(time.Hour)

		got, err := store.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("keeps the first response for a key", func(t *testing.T) {
		store := NewStore(time.Hour)

		first := ports.StoredResponse{StatusCode: 201, Body: []byte(`{"id":1}`), OrderID: 1, Fingerprint: "a"}
		second := ports.StoredResponse{StatusCode: 201, Body: []byte(`{"id":2}`), OrderID: 2, Fingerprint: "b"}
		if err := store.Save(ctx, "k", first); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := store.Save(ctx, "k", second); err != nil {
			t.Fatalf("save: %v", err)
		}

		got, _ := store.Get(ctx, "k")
		if got == nil || got.OrderID != 1 || got.Fingerprint != "a" {
			t.Errorf("expected first response, got %+v", got)
		}
	})

	t.Run("returned body is a copy", func(t *testing.T) {
		store := NewStore(0)
		_ = store.Save(ctx, "k", ports.StoredResponse{Body: []byte("abc")})

		got, _ := store.Get(ctx, "k")
		got.Body[0] = 'x'

		again, _ := store.Get(ctx, "k")
		if string(again.Body) != "abc" {
			t.Errorf("stored body mutated: %s", again.Body)
		}
	})

	t.Run("expires entries after ttl", func(t *testing.T) {
		store := NewStore(time.Minute)
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		_ = store.Save(ctx, "k", ports.StoredResponse{OrderID: 1})
		now = now.Add(2 * time.Minute)

		got, _ := store.Get(ctx, "k")
		if got != nil {
			t.Errorf("expected expired entry, got %+v", got)
		}

		_ = store.Save(ctx, "k", ports.StoredResponse{OrderID: 2})
		got, _ = store.Get(ctx, "k")
		if got == nil || got.OrderID != 2 {
			t.Errorf("expected replacement after expiry, got %+v", got)
		}
	})

	t.Run("reserve grants a key to one caller", func(t *testing.T) {
		store := NewStore(time.Hour)

		var owners atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				existing, err := store.Reserve(ctx, "k", "fp")
				if err != nil {
					t.Errorf("reserve: %v", err)
					return
				}
				if existing == nil {
					owners.Add(1)
				} else if !existing.Pending() || existing.Fingerprint != "fp" {
					t.Errorf("expected pending entry with fingerprint, got %+v", existing)
				}
			}()
		}
		wg.Wait()

		if got := owners.Load(); got != 1 {
			t.Errorf("expected exactly one owner, got %d", got)
		}
	})

	t.Run("save completes a reservation", func(t *testing.T) {
		store := NewStore(time.Hour)

		if existing, _ := store.Reserve(ctx, "k", "fp"); existing != nil {
			t.Fatalf("expected fresh reservation, got %+v", existing)
		}
		if err := store.Save(ctx, "k", ports.StoredResponse{StatusCode: 201, Body: []byte(`{"id":5}`), OrderID: 5, Fingerprint: "fp"}); err != nil {
			t.Fatalf("save: %v", err)
		}

		existing, _ := store.Reserve(ctx, "k", "fp")
		if existing == nil || existing.Pending() || existing.OrderID != 5 {
			t.Errorf("expected completed response, got %+v", existing)
		}
	})

	t.Run("release frees a pending key only", func(t *testing.T) {
		store := NewStore(time.Hour)

		_, _ = store.Reserve(ctx, "pending", "fp")
		if err := store.Release(ctx, "pending"); err != nil {
			t.Fatalf("release: %v", err)
		}
		if existing, _ := store.Reserve(ctx, "pending", "other"); existing != nil {
			t.Errorf("expected key to be free after release, got %+v", existing)
		}

		_ = store.Save(ctx, "done", ports.StoredResponse{StatusCode: 201, OrderID: 1})
		_ = store.Release(ctx, "done")
		if got, _ := store.Get(ctx, "done"); got == nil || got.OrderID != 1 {
			t.Errorf("expected completed entry to survive release, got %+v", got)
		}
	})

	t.Run("expired reservation can be taken over", func(t *testing.T) {
		store := NewStore(time.Minute)
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		_, _ = store.Reserve(ctx, "k", "fp")
		now = now.Add(2 * time.Minute)

		if existing, _ := store.Reserve(ctx, "k", "fp"); existing != nil {
			t.Errorf("expected stale reservation to be replaced, got %+v", existing)
		}
	})
}
