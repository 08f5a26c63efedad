package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hackgods/care-booking/internal/actor"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", "care-booking", time.Hour)
	id := uuid.New()

	raw, err := m.Issue(id, actor.RoleProvider)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	p, err := m.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.Subject != id || p.Role != actor.RoleProvider {
		t.Fatalf("principal = %+v", p)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewTokenManager("secret", "care-booking", time.Minute)
	issuedAt := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issuedAt }

	raw, err := m.Issue(uuid.New(), actor.RoleRequester)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	if _, err := m.Verify(raw); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("err = %v, want ErrInvalidCredential", err)
	}
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	m := NewTokenManager("secret", "care-booking", time.Hour)

	other := NewTokenManager("other-secret", "care-booking", time.Hour)
	wrongKey, _ := other.Issue(uuid.New(), actor.RoleAdmin)

	wrongIssuer, _ := NewTokenManager("secret", "someone-else", time.Hour).Issue(uuid.New(), actor.RoleAdmin)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "ADMIN",
		"iss":  "care-booking",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "ADMIN",
		"iss":  "care-booking",
	})
	forever, _ := noExpiry.SignedString([]byte("secret"))

	badRole := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "ROOT",
		"iss":  "care-booking",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	rooted, _ := badRole.SignedString([]byte("secret"))

	for name, raw := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"wrong key":    wrongKey,
		"wrong issuer": wrongIssuer,
		"alg none":     unsigned,
		"no expiry":    forever,
		"unknown role": rooted,
	} {
		if _, err := m.Verify(raw); !errors.Is(err, ErrInvalidCredential) {
			t.Errorf("%s: err = %v, want ErrInvalidCredential", name, err)
		}
	}
}
