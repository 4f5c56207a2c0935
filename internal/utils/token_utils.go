package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateAuditorJWT mints an HMAC-signed bearer token for the audit
// surface. The subject identifies the auditor.
func GenerateAuditorJWT(auditorID string, secret string, expiryDuration time.Duration, issuer string) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   auditorID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiryDuration)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		NotBefore: jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
