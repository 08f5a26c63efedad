package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/hackgods/care-booking/internal/catalog"
	"github.com/hackgods/care-booking/internal/testkit"
)

func intPtr(v int) *int { return &v }

func TestCreateNormalisesInput(t *testing.T) {
	t.Parallel()

	svc := catalog.NewService(testkit.OpenStore(t), zaptest.NewLogger(t))

	created, err := svc.Create(context.Background(), catalog.CreateInput{
		Name:            "  Sleep clinic  ",
		Category:        "sleep_therapy",
		DurationMinutes: 60,
		Price:           49.999,
		MaxParticipants: intPtr(8),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Sleep clinic" || created.Category != catalog.CategorySleepTherapy {
		t.Fatalf("created = %+v", created)
	}
	if created.Price != 50 || !created.Active {
		t.Fatalf("price %v active %v, want 50 true", created.Price, created.Active)
	}

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MaxParticipants == nil || *got.MaxParticipants != 8 {
		t.Fatalf("max participants = %v, want 8", got.MaxParticipants)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	svc := catalog.NewService(testkit.OpenStore(t), zaptest.NewLogger(t))

	tests := []struct {
		name string
		in   catalog.CreateInput
	}{
		{"blank name", catalog.CreateInput{Name: " ", Category: "YOGA", DurationMinutes: 30}},
		{"unknown category", catalog.CreateInput{Name: "Reiki", Category: "ENERGY", DurationMinutes: 30}},
		{"zero duration", catalog.CreateInput{Name: "Yoga", Category: "YOGA"}},
		{"negative price", catalog.CreateInput{Name: "Yoga", Category: "YOGA", DurationMinutes: 30, Price: -1}},
		{"zero capacity", catalog.CreateInput{Name: "Yoga", Category: "YOGA", DurationMinutes: 30, MaxParticipants: intPtr(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			if !errors.Is(err, catalog.ErrInvalidService) {
				t.Fatalf("err = %v, want ErrInvalidService", err)
			}
		})
	}
}

func TestListFiltersByCategory(t *testing.T) {
	t.Parallel()

	svc := catalog.NewService(testkit.OpenStore(t), zaptest.NewLogger(t))
	ctx := context.Background()

	for _, in := range []catalog.CreateInput{
		{Name: "Vinyasa", Category: "YOGA", DurationMinutes: 60, Price: 15},
		{Name: "Hatha", Category: "YOGA", DurationMinutes: 45, Price: 12},
		{Name: "Meal plan", Category: "NUTRITION", DurationMinutes: 30, Price: 40},
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create %s: %v", in.Name, err)
		}
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}

	yoga, err := svc.List(ctx, "yoga")
	if err != nil {
		t.Fatalf("list yoga: %v", err)
	}
	if len(yoga) != 2 {
		t.Fatalf("len(yoga) = %d, want 2", len(yoga))
	}
	for _, s := range yoga {
		if s.Category != catalog.CategoryYoga {
			t.Fatalf("unexpected category %s", s.Category)
		}
	}

	if _, err := svc.List(ctx, "astrology"); !errors.Is(err, catalog.ErrInvalidService) {
		t.Fatalf("err = %v, want ErrInvalidService", err)
	}
}

func TestGetUnknownService(t *testing.T) {
	t.Parallel()

	svc := catalog.NewService(testkit.OpenStore(t), zaptest.NewLogger(t))

	if _, err := svc.Get(context.Background(), uuid.New()); !errors.Is(err, catalog.ErrServiceNotFound) {
		t.Fatalf("err = %v, want ErrServiceNotFound", err)
	}
}
