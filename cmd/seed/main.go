package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"github.com/hackgods/care-booking/internal/actor"
	"github.com/hackgods/care-booking/internal/auth"
	"github.com/hackgods/care-booking/internal/catalog"
	"github.com/hackgods/care-booking/internal/config"
	"github.com/hackgods/care-booking/internal/logging"
	"github.com/hackgods/care-booking/internal/storage"
)

// seedPassword is shared by every generated account.
const seedPassword = "password123"

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

func main() {
	providers := flag.Int("providers", 25, "number of providers to create")
	requesters := flag.Int("requesters", 200, "number of requesters to create")
	adminEmail := flag.String("admin-email", "admin@care-booking.local", "email of the admin account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("seed starting", zap.String("store_driver", cfg.StoreDriver))

	ctx := context.Background()

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	store, err := storage.Open(openCtx, cfg)
	cancel()
	if err != nil {
		logger.Fatal("store open error", zap.Error(err))
	}
	defer store.Close()

	_ = gofakeit.Seed(time.Now().UnixNano())

	// Registration logs every actor, so keep the services quiet.
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	actors := actor.NewService(store, tokens, zap.NewNop())
	services := catalog.NewService(store, zap.NewNop())

	if err := seedAdmin(ctx, actors, *adminEmail); err != nil {
		logger.Fatal("seed admin", zap.Error(err))
	}
	if err := seedProviders(ctx, actors, *providers, logger); err != nil {
		logger.Fatal("seed providers", zap.Error(err))
	}
	if err := seedRequesters(ctx, actors, *requesters, logger); err != nil {
		logger.Fatal("seed requesters", zap.Error(err))
	}
	if err := seedCatalog(ctx, services); err != nil {
		logger.Fatal("seed catalog", zap.Error(err))
	}

	logger.Info("seed complete",
		zap.String("admin_email", *adminEmail),
		zap.String("password", seedPassword),
	)
}

func seedAdmin(ctx context.Context, actors *actor.Service, email string) error {
	_, _, err := actors.Register(ctx, actor.RegisterInput{
		Name:     "Administrator",
		Email:    email,
		Password: seedPassword,
		Role:     string(actor.RoleAdmin),
	})
	if errors.Is(err, actor.ErrEmailTaken) {
		return nil
	}
	return err
}

func seedProviders(ctx context.Context, actors *actor.Service, count int, logger *zap.Logger) error {
	logger.Info("seeding providers", zap.Int("count", count))

	for i := 0; i < count; i++ {
		specialty := specialties[gofakeit.Number(0, len(specialties)-1)]
		years := gofakeit.Number(1, 35)
		fee := float64(gofakeit.Number(40, 250))
		license := fmt.Sprintf("LIC-%06d", gofakeit.Number(0, 999999))
		phone := gofakeit.Phone()

		_, _, err := actors.Register(ctx, actor.RegisterInput{
			Name:              "Dr. " + gofakeit.Name(),
			Email:             fmt.Sprintf("provider%d.%s", i, gofakeit.Email()),
			Password:          seedPassword,
			Role:              string(actor.RoleProvider),
			Phone:             &phone,
			Specialty:         &specialty,
			LicenseNumber:     &license,
			YearsOfExperience: &years,
			BaseFee:           &fee,
		})
		if err != nil && !errors.Is(err, actor.ErrEmailTaken) {
			return err
		}
	}
	return nil
}

func seedRequesters(ctx context.Context, actors *actor.Service, count int, logger *zap.Logger) error {
	logger.Info("seeding requesters", zap.Int("count", count))

	genders := []string{string(actor.GenderMale), string(actor.GenderFemale), string(actor.GenderOther)}

	for i := 0; i < count; i++ {
		phone := gofakeit.Phone()
		address := gofakeit.Address().Address
		gender := genders[gofakeit.Number(0, len(genders)-1)]
		dob := time.Date(gofakeit.Number(1940, 2010), time.Month(gofakeit.Number(1, 12)), gofakeit.Number(1, 28), 0, 0, 0, 0, time.UTC)

		_, _, err := actors.Register(ctx, actor.RegisterInput{
			Name:        gofakeit.Name(),
			Email:       fmt.Sprintf("requester%d.%s", i, gofakeit.Email()),
			Password:    seedPassword,
			Role:        string(actor.RoleRequester),
			Phone:       &phone,
			Address:     &address,
			DateOfBirth: &dob,
			Gender:      &gender,
		})
		if err != nil && !errors.Is(err, actor.ErrEmailTaken) {
			return err
		}

		if (i+1)%50 == 0 {
			logger.Info("requesters seeded", zap.Int("done", i+1), zap.Int("total", count))
		}
	}
	return nil
}

func seedCatalog(ctx context.Context, services *catalog.Service) error {
	for _, c := range catalog.Categories {
		capacity := gofakeit.Number(5, 20)
		desc := fmt.Sprintf("Group %s session", c)
		_, err := services.Create(ctx, catalog.CreateInput{
			Name:            gofakeit.Name() + " " + string(c),
			Description:     &desc,
			Category:        string(c),
			DurationMinutes: 30 * gofakeit.Number(1, 4),
			Price:           float64(gofakeit.Number(15, 120)),
			MaxParticipants: &capacity,
		})
		if err != nil {
			return fmt.Errorf("create %s service: %w", c, err)
		}
	}
	return nil
}
