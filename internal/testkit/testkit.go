// Package testkit builds throwaway stores and fixtures for package tests.
package testkit

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/actor"
	"github.com/hackgods/care-booking/internal/storage/sqlite"
)

// OpenStore opens a migrated sqlite store under t.TempDir and closes it on
// cleanup.
func OpenStore(t testing.TB) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "care-booking.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close sqlite store: %v", err)
		}
	})
	return store
}

type ActorOption func(*actor.Actor)

func WithBaseFee(fee float64) ActorOption {
	return func(a *actor.Actor) { a.BaseFee = &fee }
}

func WithSpecialty(specialty string) ActorOption {
	return func(a *actor.Actor) { a.Specialty = &specialty }
}

func Inactive() ActorOption {
	return func(a *actor.Actor) { a.Active = false }
}

// SeedActor inserts an active actor with the given role straight into the
// store, skipping password hashing.
func SeedActor(t testing.TB, repo actor.Repository, role actor.Role, opts ...ActorOption) *actor.Actor {
	t.Helper()

	id := uuid.New()
	now := time.Now().UTC().Truncate(time.Millisecond)
	a := &actor.Actor{
		ID:           id,
		Name:         fmt.Sprintf("%s %s", role, id.String()[:8]),
		Email:        fmt.Sprintf("%s@example.test", id),
		PasswordHash: "x",
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(a)
	}

	created, err := repo.CreateActor(context.Background(), a)
	if err != nil {
		t.Fatalf("seed %s: %v", role, err)
	}
	return created
}
