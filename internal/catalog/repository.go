package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrServiceNotFound = errors.New("wellness service not found")
	ErrInvalidService  = errors.New("invalid wellness service")
)

type Repository interface {
	CreateService(ctx context.Context, s *WellnessService) (*WellnessService, error)
	GetService(ctx context.Context, id uuid.UUID) (*WellnessService, error)
	// ListServices returns active services, optionally restricted to one category.
	ListServices(ctx context.Context, category *Category) ([]WellnessService, error)
	CountActiveServicesByCategory(ctx context.Context) (map[Category]int64, error)
}
