// Package auth issues the access tokens accepted by the admin endpoints.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenType = "access"

	RoleAdmin = "admin"
)

var ErrMissingSecret = errors.New("jwt access secret is not configured")

// IssueAccessToken signs an HS256 access token for an operator.
func IssueAccessToken(secret string, operatorID uuid.UUID, roles []string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	if roles == nil {
		roles = []string{}
	}

	claims := jwt.MapClaims{
		"sub":   operatorID.String(),
		"type":  accessTokenType,
		"roles": roles,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(secret))
}
