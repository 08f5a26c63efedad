package actor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/hackgods/care-booking/internal/actor"
	"github.com/hackgods/care-booking/internal/auth"
	"github.com/hackgods/care-booking/internal/testkit"
)

func newService(t *testing.T) (*actor.Service, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("secret", "care-booking", time.Hour)
	return actor.NewService(testkit.OpenStore(t), tokens, zaptest.NewLogger(t)), tokens
}

func ptr[T any](v T) *T { return &v }

func TestRegisterAndLogin(t *testing.T) {
	svc, tokens := newService(t)
	ctx := context.Background()

	created, token, err := svc.Register(ctx, actor.RegisterInput{
		Name:      "Dr. Ada",
		Email:     "  Ada@Example.com ",
		Password:  "s3cret!",
		Role:      "provider",
		Specialty: ptr("Cardiology"),
		BaseFee:   ptr(120.0),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Email != "ada@example.com" || created.Role != actor.RoleProvider || !created.Active {
		t.Fatalf("created = %+v", created)
	}
	if created.PasswordHash == "s3cret!" || created.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
	p, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("verify registration token: %v", err)
	}
	if p.Subject != created.ID {
		t.Fatalf("token subject = %s, want %s", p.Subject, created.ID)
	}

	logged, _, err := svc.Login(ctx, "ADA@example.com", "s3cret!", "PROVIDER")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != created.ID {
		t.Fatalf("login id = %s, want %s", logged.ID, created.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   actor.RegisterInput
		want error
	}{
		{"no name", actor.RegisterInput{Email: "a@b.co", Password: "123456", Role: "REQUESTER"}, actor.ErrInvalidActor},
		{"bad email", actor.RegisterInput{Name: "A", Email: "nope", Password: "123456", Role: "REQUESTER"}, actor.ErrInvalidActor},
		{"short password", actor.RegisterInput{Name: "A", Email: "a@b.co", Password: "123", Role: "REQUESTER"}, actor.ErrInvalidActor},
		{"unknown role", actor.RegisterInput{Name: "A", Email: "a@b.co", Password: "123456", Role: "NURSE"}, actor.ErrInvalidRole},
		{"negative fee", actor.RegisterInput{Name: "A", Email: "a@b.co", Password: "123456", Role: "PROVIDER", BaseFee: ptr(-1.0)}, actor.ErrInvalidActor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.Register(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	in := actor.RegisterInput{Name: "Rae", Email: "rae@example.com", Password: "123456", Role: "REQUESTER"}

	if _, _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("register: %v", err)
	}
	in.Email = "RAE@example.com"
	if _, _, err := svc.Register(ctx, in); !errors.Is(err, actor.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, _, err := svc.Register(ctx, actor.RegisterInput{
		Name: "Rae", Email: "rae@example.com", Password: "123456", Role: "REQUESTER",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	attempts := []struct{ email, password, role string }{
		{"rae@example.com", "wrong", ""},
		{"nobody@example.com", "123456", ""},
		{"rae@example.com", "123456", "ADMIN"},
	}
	for _, a := range attempts {
		if _, _, err := svc.Login(ctx, a.email, a.password, a.role); !errors.Is(err, actor.ErrInvalidCredentials) {
			t.Errorf("login(%q, %q, %q) err = %v, want ErrInvalidCredentials", a.email, a.password, a.role, err)
		}
	}

	if _, err := svc.Deactivate(ctx, created.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, _, err := svc.Login(ctx, "rae@example.com", "123456", ""); !errors.Is(err, actor.ErrInvalidCredentials) {
		t.Fatalf("inactive login err = %v, want ErrInvalidCredentials", err)
	}
}

func TestListAndDeactivate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	register := func(name, email, role string, specialty *string) *actor.Actor {
		t.Helper()
		a, _, err := svc.Register(ctx, actor.RegisterInput{
			Name: name, Email: email, Password: "123456", Role: role, Specialty: specialty,
		})
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
		return a
	}
	cardio := register("Dr. Heart", "heart@example.com", "PROVIDER", ptr("Cardiology"))
	register("Dr. Skin", "skin@example.com", "PROVIDER", ptr("Dermatology"))
	register("Rae", "rae@example.com", "REQUESTER", nil)

	role := actor.RoleProvider
	providers, err := svc.List(ctx, actor.Filter{Role: &role})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(providers) != 2 {
		t.Fatalf("providers = %d, want 2", len(providers))
	}

	matches, err := svc.List(ctx, actor.Filter{Role: &role, Specialty: ptr("cardio")})
	if err != nil {
		t.Fatalf("list by specialty: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != cardio.ID {
		t.Fatalf("specialty filter = %v", matches)
	}

	deactivated, err := svc.Deactivate(ctx, cardio.ID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if deactivated.Active {
		t.Fatal("actor still active")
	}
	active, err := svc.List(ctx, actor.Filter{Role: &role, ActiveOnly: true})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active providers = %d, want 1", len(active))
	}

	if _, err := svc.Get(ctx, cardio.ID); err != nil {
		t.Fatalf("deactivated actor must still be readable: %v", err)
	}
}
