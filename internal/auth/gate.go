package auth

import (
	"errors"
	"slices"

	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/actor"
)

var ErrUnauthorized = errors.New("role lacks the required capability")

type Capability string

const (
	AppointmentsListAll         Capability = "appointments:list-all"
	AppointmentsListByProvider  Capability = "appointments:list-by-provider"
	AppointmentsListByRequester Capability = "appointments:list-by-requester"
	AppointmentsBook            Capability = "appointments:book"
	AppointmentsSetStatus       Capability = "appointments:set-status"
	AppointmentsUpdate          Capability = "appointments:update"
	AppointmentsCancel          Capability = "appointments:cancel"
	AppointmentsRead            Capability = "appointments:read"

	PaymentsListAll         Capability = "payments:list-all"
	PaymentsListByProvider  Capability = "payments:list-by-provider"
	PaymentsListByRequester Capability = "payments:list-by-requester"
	PaymentsProcess         Capability = "payments:process"
	PaymentsRefund          Capability = "payments:refund"
	PaymentsRevenue         Capability = "payments:revenue"
	PaymentsRead            Capability = "payments:read"

	UsersListAll    Capability = "users:list-all"
	UsersRead       Capability = "users:read"
	UsersDeactivate Capability = "users:deactivate"

	CatalogRead   Capability = "catalog:read"
	CatalogManage Capability = "catalog:manage"

	StatsRead Capability = "stats:read"
)

var (
	adminOnly = []actor.Role{actor.RoleAdmin}
	anyRole   = []actor.Role{actor.RoleAdmin, actor.RoleProvider, actor.RoleRequester}
)

// capabilities is fixed at compile time. Ownership of the target entity is
// checked separately through Principal.ActsFor.
var capabilities = map[Capability][]actor.Role{
	AppointmentsListAll:         adminOnly,
	AppointmentsListByProvider:  {actor.RoleAdmin, actor.RoleProvider},
	AppointmentsListByRequester: {actor.RoleAdmin, actor.RoleRequester},
	AppointmentsBook:            {actor.RoleAdmin, actor.RoleRequester},
	AppointmentsSetStatus:       {actor.RoleAdmin, actor.RoleProvider},
	AppointmentsUpdate:          {actor.RoleAdmin, actor.RoleProvider},
	AppointmentsCancel:          anyRole,
	AppointmentsRead:            anyRole,

	PaymentsListAll:         adminOnly,
	PaymentsListByProvider:  {actor.RoleAdmin, actor.RoleProvider},
	PaymentsListByRequester: {actor.RoleAdmin, actor.RoleRequester},
	PaymentsProcess:         {actor.RoleAdmin, actor.RoleRequester},
	PaymentsRefund:          adminOnly,
	PaymentsRevenue:         adminOnly,
	PaymentsRead:            anyRole,

	UsersListAll:    adminOnly,
	UsersRead:       anyRole,
	UsersDeactivate: adminOnly,

	CatalogRead:   anyRole,
	CatalogManage: adminOnly,

	StatsRead: adminOnly,
}

// Allows reports whether role holds capability.
func Allows(role actor.Role, c Capability) bool {
	return slices.Contains(capabilities[c], role)
}

// Principal is the authenticated caller.
type Principal struct {
	Subject uuid.UUID
	Role    actor.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == actor.RoleAdmin
}

// ActsFor reports whether the principal may act on behalf of any of ids.
// Admins act for everyone.
func (p Principal) ActsFor(ids ...uuid.UUID) bool {
	if p.IsAdmin() {
		return true
	}
	return slices.Contains(ids, p.Subject)
}

type Verifier interface {
	Verify(raw string) (Principal, error)
}

// Gate resolves a bearer credential and checks a capability. It has no side
// effects.
type Gate struct {
	verifier Verifier
}

func NewGate(v Verifier) *Gate {
	return &Gate{verifier: v}
}

func (g *Gate) Authorize(credential string, c Capability) (Principal, error) {
	p, err := g.verifier.Verify(credential)
	if err != nil {
		return Principal{}, err
	}
	if !Allows(p.Role, c) {
		return Principal{}, ErrUnauthorized
	}
	return p, nil
}
