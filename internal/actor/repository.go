package actor

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrActorNotFound      = errors.New("actor not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidActor       = errors.New("invalid actor")
	ErrInvalidCredentials = errors.New("invalid email, password or role")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetActor(ctx context.Context, id uuid.UUID) (*Actor, error)
	GetActorByEmail(ctx context.Context, email string) (*Actor, error)
	CreateActor(ctx context.Context, a *Actor) (*Actor, error)
	ListActors(ctx context.Context, f Filter) ([]Actor, error)
	SetActorActive(ctx context.Context, id uuid.UUID, active bool) (*Actor, error)

	CountActorsByRole(ctx context.Context) (map[Role]RoleCount, error)
}
