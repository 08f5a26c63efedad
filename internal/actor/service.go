package actor

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// TokenIssuer mints bearer credentials for an authenticated actor.
type TokenIssuer interface {
	Issue(subject uuid.UUID, role Role) (string, error)
}

type Service struct {
	repo   Repository
	tokens TokenIssuer
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, tokens TokenIssuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Phone    *string

	Specialty         *string
	LicenseNumber     *string
	YearsOfExperience *int
	BaseFee           *float64

	Address     *string
	DateOfBirth *time.Time
	Gender      *string
}

// Register creates an active actor and returns it together with a fresh token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Actor, string, error) {
	a, err := in.build()
	if err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	a.PasswordHash = string(hash)

	now := s.now().UTC()
	a.ID = uuid.New()
	a.Active = true
	a.CreatedAt = now
	a.UpdatedAt = now

	created, err := s.repo.CreateActor(ctx, a)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("create actor: %w", err)
	}

	token, err := s.tokens.Issue(created.ID, created.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("actor registered",
		zap.String("actor_id", created.ID.String()),
		zap.String("role", string(created.Role)),
	)
	return created, token, nil
}

// Login checks the password and that the actor holds the claimed role.
func (s *Service) Login(ctx context.Context, email, password, role string) (*Actor, string, error) {
	a, err := s.repo.GetActorByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrActorNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("load actor: %w", err)
	}
	if !a.Active {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if role != "" {
		r, err := ParseRole(role)
		if err != nil || r != a.Role {
			return nil, "", ErrInvalidCredentials
		}
	}

	token, err := s.tokens.Issue(a.ID, a.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return a, token, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Actor, error) {
	a, err := s.repo.GetActor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get actor: %w", err)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]Actor, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	actors, err := s.repo.ListActors(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	return actors, nil
}

// Deactivate soft-deletes an actor. Actors are never removed.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*Actor, error) {
	a, err := s.repo.SetActorActive(ctx, id, false)
	if err != nil {
		return nil, fmt.Errorf("deactivate actor: %w", err)
	}
	s.logger.Info("actor deactivated", zap.String("actor_id", id.String()))
	return a, nil
}

func (in RegisterInput) build() (*Actor, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidActor)
	}
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidActor)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidActor, minPasswordLength)
	}
	role, err := ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	a := &Actor{
		Name:  name,
		Email: email,
		Phone: in.Phone,
		Role:  role,
	}

	switch role {
	case RoleProvider:
		if in.BaseFee != nil && *in.BaseFee < 0 {
			return nil, fmt.Errorf("%w: base fee must not be negative", ErrInvalidActor)
		}
		if in.YearsOfExperience != nil && *in.YearsOfExperience < 0 {
			return nil, fmt.Errorf("%w: years of experience must not be negative", ErrInvalidActor)
		}
		a.Specialty = in.Specialty
		a.LicenseNumber = in.LicenseNumber
		a.YearsOfExperience = in.YearsOfExperience
		a.BaseFee = in.BaseFee
	case RoleRequester:
		a.Address = in.Address
		a.DateOfBirth = in.DateOfBirth
		if in.Gender != nil {
			g, err := ParseGender(*in.Gender)
			if err != nil {
				return nil, err
			}
			a.Gender = &g
		}
	}

	return a, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
