package auth

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim from the payload segment of token. The
// header and signature are not inspected. Tokens that are not JWTs, carry no
// exp, or are already expired fall back to now+ttl; ok reports whether the
// claim was used.
func TokenExpiry(token string, now time.Time, ttl time.Duration) (expiresAt time.Time, ok bool) {
	fallback := now.Add(ttl)
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fallback, false
	}

	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return fallback, false
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return fallback, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fallback, false
	}
	if !exp.Time.After(now) {
		return fallback, false
	}
	return exp.Time, true
}
