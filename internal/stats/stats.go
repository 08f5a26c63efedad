// Package stats folds persisted appointments, actors and catalog entries
// into count maps. Every enum member appears in the result, zero when absent.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/hackgods/care-booking/internal/actor"
	"github.com/hackgods/care-booking/internal/appointment"
	"github.com/hackgods/care-booking/internal/catalog"
)

type Repository interface {
	CountAppointmentsByStatus(ctx context.Context) (map[appointment.Status]int64, error)
	CountAppointmentsByPaymentStatus(ctx context.Context) (map[appointment.PaymentStatus]int64, error)
	CountActorsByRole(ctx context.Context) (map[actor.Role]actor.RoleCount, error)
	CountActiveServicesByCategory(ctx context.Context) (map[catalog.Category]int64, error)
}

// Sweeper reports overdue appointments.
type Sweeper interface {
	SweepOverdue(ctx context.Context, now time.Time) ([]appointment.Appointment, error)
}

type Service struct {
	repo    Repository
	sweeper Sweeper
}

func NewService(repo Repository, sweeper Sweeper) *Service {
	return &Service{repo: repo, sweeper: sweeper}
}

type AppointmentStats struct {
	Total           int64
	ByStatus        map[appointment.Status]int64
	ByPaymentStatus map[appointment.PaymentStatus]int64
}

func (s *Service) Appointments(ctx context.Context) (AppointmentStats, error) {
	byStatus, err := s.repo.CountAppointmentsByStatus(ctx)
	if err != nil {
		return AppointmentStats{}, fmt.Errorf("count appointments by status: %w", err)
	}
	byPayment, err := s.repo.CountAppointmentsByPaymentStatus(ctx)
	if err != nil {
		return AppointmentStats{}, fmt.Errorf("count appointments by payment status: %w", err)
	}

	out := AppointmentStats{
		ByStatus:        make(map[appointment.Status]int64, len(appointment.Statuses)),
		ByPaymentStatus: make(map[appointment.PaymentStatus]int64, len(appointment.PaymentStatuses)),
	}
	for _, st := range appointment.Statuses {
		out.ByStatus[st] = byStatus[st]
		out.Total += byStatus[st]
	}
	for _, ps := range appointment.PaymentStatuses {
		out.ByPaymentStatus[ps] = byPayment[ps]
	}
	return out, nil
}

type UserStats struct {
	Total  int64
	Active int64
	ByRole map[actor.Role]actor.RoleCount
}

func (s *Service) Users(ctx context.Context) (UserStats, error) {
	counts, err := s.repo.CountActorsByRole(ctx)
	if err != nil {
		return UserStats{}, fmt.Errorf("count actors by role: %w", err)
	}

	out := UserStats{ByRole: make(map[actor.Role]actor.RoleCount, len(actor.Roles))}
	for _, r := range actor.Roles {
		c := counts[r]
		out.ByRole[r] = c
		out.Total += c.Total
		out.Active += c.Active
	}
	return out, nil
}

type CatalogStats struct {
	Total      int64
	ByCategory map[catalog.Category]int64
}

func (s *Service) Catalog(ctx context.Context) (CatalogStats, error) {
	counts, err := s.repo.CountActiveServicesByCategory(ctx)
	if err != nil {
		return CatalogStats{}, fmt.Errorf("count services by category: %w", err)
	}

	out := CatalogStats{ByCategory: make(map[catalog.Category]int64, len(catalog.Categories))}
	for _, c := range catalog.Categories {
		out.ByCategory[c] = counts[c]
		out.Total += counts[c]
	}
	return out, nil
}

func (s *Service) Overdue(ctx context.Context, now time.Time) ([]appointment.Appointment, error) {
	return s.sweeper.SweepOverdue(ctx, now)
}
