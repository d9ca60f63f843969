package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"roulette-live-client/internal/models"
)

// CheckToken inspects the bearer token's registered claims without verifying
// the signature (the backend holds the key; we only need to know whether the
// token is worth sending). Returns the expiry when one is present.
func CheckToken(token string, now time.Time) (time.Time, error) {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, errors.Wrap(err, "parse access token")
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	if !now.Before(claims.ExpiresAt.Time) {
		return claims.ExpiresAt.Time, models.ErrTokenExpired
	}
	return claims.ExpiresAt.Time, nil
}
