package bearer

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := sign(t, jwt.MapClaims{"sub": "alice@example.com", "exp": exp.Unix()})

	got, ok := Expiry(token)
	if !ok {
		t.Fatalf("expected exp claim")
	}
	if !got.Equal(exp) {
		t.Fatalf("got %v, want %v", got, exp)
	}

	sub, ok := Subject(token)
	if !ok || sub != "alice@example.com" {
		t.Fatalf("unexpected subject %q", sub)
	}
}

func TestExpiry_OpaqueAndMissing(t *testing.T) {
	if _, ok := Expiry("opaque-token"); ok {
		t.Fatalf("opaque tokens have no expiry")
	}
	if _, ok := Expiry(""); ok {
		t.Fatalf("empty token has no expiry")
	}
	if _, ok := Expiry(sign(t, jwt.MapClaims{"sub": "x"})); ok {
		t.Fatalf("token without exp has no expiry")
	}
}

func TestExpiresWithin(t *testing.T) {
	now := time.Now()
	soon := sign(t, jwt.MapClaims{"exp": now.Add(2 * time.Minute).Unix()})
	later := sign(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})

	if !ExpiresWithin(soon, now, 5*time.Minute) {
		t.Fatalf("token expiring in 2m must be within 5m")
	}
	if ExpiresWithin(later, now, 5*time.Minute) {
		t.Fatalf("token expiring in 1h must not be within 5m")
	}
	if ExpiresWithin("opaque", now, time.Hour) {
		t.Fatalf("opaque tokens never expire client-side")
	}
}
