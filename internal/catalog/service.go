package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

type CreateInput struct {
	Name            string
	Description     *string
	Category        string
	DurationMinutes int
	Price           float64
	MaxParticipants *int
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*WellnessService, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidService)
	}
	category, err := ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	if in.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidService)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidService)
	}
	if in.MaxParticipants != nil && *in.MaxParticipants <= 0 {
		return nil, fmt.Errorf("%w: max participants must be positive", ErrInvalidService)
	}

	now := s.now().UTC()
	created, err := s.repo.CreateService(ctx, &WellnessService{
		ID:              uuid.New(),
		Name:            name,
		Description:     in.Description,
		Category:        category,
		DurationMinutes: in.DurationMinutes,
		Price:           math.Round(in.Price*100) / 100,
		Active:          true,
		MaxParticipants: in.MaxParticipants,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("create wellness service: %w", err)
	}

	s.logger.Info("wellness service created",
		zap.String("service_id", created.ID.String()),
		zap.String("category", string(created.Category)),
	)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*WellnessService, error) {
	svc, err := s.repo.GetService(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get wellness service: %w", err)
	}
	return svc, nil
}

// List returns active services. An empty category lists all of them.
func (s *Service) List(ctx context.Context, category string) ([]WellnessService, error) {
	var filter *Category
	if category != "" {
		c, err := ParseCategory(category)
		if err != nil {
			return nil, err
		}
		filter = &c
	}
	services, err := s.repo.ListServices(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list wellness services: %w", err)
	}
	return services, nil
}
