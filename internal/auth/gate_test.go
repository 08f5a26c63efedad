package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/actor"
)

func TestAllowsMatchesRoleTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		cap  Capability
		want []actor.Role
	}{
		{AppointmentsListAll, []actor.Role{actor.RoleAdmin}},
		{PaymentsRefund, []actor.Role{actor.RoleAdmin}},
		{PaymentsRevenue, []actor.Role{actor.RoleAdmin}},
		{StatsRead, []actor.Role{actor.RoleAdmin}},
		{CatalogManage, []actor.Role{actor.RoleAdmin}},
		{UsersDeactivate, []actor.Role{actor.RoleAdmin}},
		{AppointmentsListByProvider, []actor.Role{actor.RoleAdmin, actor.RoleProvider}},
		{AppointmentsSetStatus, []actor.Role{actor.RoleAdmin, actor.RoleProvider}},
		{AppointmentsBook, []actor.Role{actor.RoleAdmin, actor.RoleRequester}},
		{PaymentsProcess, []actor.Role{actor.RoleAdmin, actor.RoleRequester}},
		{AppointmentsCancel, []actor.Role{actor.RoleAdmin, actor.RoleProvider, actor.RoleRequester}},
		{AppointmentsRead, []actor.Role{actor.RoleAdmin, actor.RoleProvider, actor.RoleRequester}},
		{CatalogRead, []actor.Role{actor.RoleAdmin, actor.RoleProvider, actor.RoleRequester}},
	}

	for _, tc := range cases {
		allowed := map[actor.Role]bool{}
		for _, r := range tc.want {
			allowed[r] = true
		}
		for _, role := range actor.Roles {
			if got := Allows(role, tc.cap); got != allowed[role] {
				t.Errorf("Allows(%s, %s) = %v, want %v", role, tc.cap, got, allowed[role])
			}
		}
	}

	if Allows(actor.RoleAdmin, Capability("made:up")) {
		t.Fatal("unknown capability must not be allowed")
	}
}

func TestGateAuthorize(t *testing.T) {
	t.Parallel()

	tokens := NewTokenManager("secret", "care-booking", time.Hour)
	gate := NewGate(tokens)
	id := uuid.New()
	raw, err := tokens.Issue(id, actor.RoleRequester)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	p, err := gate.Authorize(raw, AppointmentsBook)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if p.Subject != id || p.Role != actor.RoleRequester {
		t.Fatalf("principal = %+v", p)
	}

	if _, err := gate.Authorize(raw, PaymentsRefund); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("refund err = %v, want ErrUnauthorized", err)
	}
	if _, err := gate.Authorize("junk", AppointmentsRead); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("junk err = %v, want ErrInvalidCredential", err)
	}
}

func TestActsFor(t *testing.T) {
	t.Parallel()

	self, other := uuid.New(), uuid.New()

	requester := Principal{Subject: self, Role: actor.RoleRequester}
	if !requester.ActsFor(other, self) {
		t.Fatal("principal should act for itself")
	}
	if requester.ActsFor(other) {
		t.Fatal("principal must not act for someone else")
	}

	admin := Principal{Subject: uuid.New(), Role: actor.RoleAdmin}
	if !admin.ActsFor(other) {
		t.Fatal("admin acts for everyone")
	}
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	if _, ok := PrincipalFrom(context.Background()); ok {
		t.Fatal("empty context has no principal")
	}
	want := Principal{Subject: uuid.New(), Role: actor.RoleProvider}
	got, ok := PrincipalFrom(WithPrincipal(context.Background(), want))
	if !ok || got != want {
		t.Fatalf("principal = %+v, %v", got, ok)
	}
}
