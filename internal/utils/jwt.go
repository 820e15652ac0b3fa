package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

// SetJWTSecret sets the secret used to sign session handles.
func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// HandleClaims are the claims embedded in a session handle. The handle
// carries only the opaque session id; Jira credentials stay server-side.
type HandleClaims struct {
	jwt.RegisteredClaims
}

// GenerateSessionHandle signs a handle referencing sessionID, valid for
// lifetime from now.
func GenerateSessionHandle(sessionID string, lifetime time.Duration) (string, error) {
	now := time.Now()
	claims := HandleClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseSessionHandle validates the handle's signature and expiry and returns
// the referenced session id.
func ParseSessionHandle(handle string) (string, error) {
	token, err := jwt.ParseWithClaims(handle, &HandleClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*HandleClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid session handle")
	}
	return claims.Subject, nil
}

// NewSessionID returns an unguessable opaque session id (32 bytes of
// entropy, base64url).
func NewSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
