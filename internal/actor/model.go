package actor

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleRequester Role = "REQUESTER"
	RoleProvider  Role = "PROVIDER"
	RoleAdmin     Role = "ADMIN"
)

// Roles lists the closed role set in a stable order.
var Roles = []Role{RoleRequester, RoleProvider, RoleAdmin}

func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleRequester, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

func ParseGender(raw string) (Gender, error) {
	g := Gender(strings.ToUpper(strings.TrimSpace(raw)))
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return g, nil
	}
	return "", fmt.Errorf("%w: unknown gender %q", ErrInvalidActor, raw)
}

// Actor is any identity taking part in a booking. Provider and requester
// specific fields stay nil for other roles.
type Actor struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        *string
	PasswordHash string
	Role         Role
	Active       bool

	Specialty         *string
	LicenseNumber     *string
	YearsOfExperience *int
	BaseFee           *float64

	Address     *string
	DateOfBirth *time.Time
	Gender      *Gender

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Filter struct {
	Role       *Role
	ActiveOnly bool
	Specialty  *string
	Limit      int
	Offset     int
}

// RoleCount is the number of actors holding a role, split by the active flag.
type RoleCount struct {
	Total  int64
	Active int64
}
