// Package bearer inspects access tokens issued by the backend without
// verifying them. Verification is the backend's job; the console only reads
// the expiry to decide when to rotate and how long to cache.
package bearer

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expiry returns the exp claim of a JWT. Opaque or malformed tokens and
// tokens without exp report ok=false.
func Expiry(token string) (exp time.Time, ok bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	t, err := claims.GetExpirationTime()
	if err != nil || t == nil {
		return time.Time{}, false
	}
	return t.Time, true
}

// Subject returns the sub claim of a JWT, if any.
func Subject(token string) (string, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", false
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}

// ExpiresWithin reports whether the token carries an exp claim that falls
// before now+d.
func ExpiresWithin(token string, now time.Time, d time.Duration) bool {
	exp, ok := Expiry(token)
	if !ok {
		return false
	}
	return exp.Before(now.Add(d))
}
