package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryFitness          Category = "FITNESS"
	CategoryNutrition        Category = "NUTRITION"
	CategoryMentalHealth     Category = "MENTAL_HEALTH"
	CategoryPreventiveCare   Category = "PREVENTIVE_CARE"
	CategoryRehabilitation   Category = "REHABILITATION"
	CategoryWeightManagement Category = "WEIGHT_MANAGEMENT"
	CategoryStressManagement Category = "STRESS_MANAGEMENT"
	CategorySleepTherapy     Category = "SLEEP_THERAPY"
	CategoryYoga             Category = "YOGA"
	CategoryMeditation       Category = "MEDITATION"
)

var Categories = []Category{
	CategoryFitness,
	CategoryNutrition,
	CategoryMentalHealth,
	CategoryPreventiveCare,
	CategoryRehabilitation,
	CategoryWeightManagement,
	CategoryStressManagement,
	CategorySleepTherapy,
	CategoryYoga,
	CategoryMeditation,
}

func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidService, raw)
}

// WellnessService is a bookable offering in the catalog.
type WellnessService struct {
	ID                  uuid.UUID
	Name                string
	Description         *string
	Category            Category
	DurationMinutes     int
	Price               float64
	Active              bool
	MaxParticipants     *int
	CurrentParticipants int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
