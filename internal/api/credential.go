package api

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long an issued API credential stays verifiable.
const DefaultTokenTTL = 365 * 24 * time.Hour

// SecretFromEnv returns the HS256 signing secret.
func SecretFromEnv() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		return nil, errors.New("JWT_SECRET_KEY is empty")
	}
	return []byte(secret), nil
}

// Issuer signs API credentials at registration time.
type Issuer struct {
	Secret []byte
	TTL    time.Duration
}

func (i Issuer) Issue(userID, email, firstName, lastName string) (string, error) {
	ttl := i.TTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}

	claims := jwt.MapClaims{
		"sub":        userID,
		"email":      email,
		"first_name": firstName,
		"last_name":  lastName,
		"iat":        time.Now().Unix(),
		"exp":        time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.Secret)
}

// CredentialVerifier checks a bearer token's signature, independent of
// whether the token exists in the store.
type CredentialVerifier interface {
	Verify(tokenString string) error
}

// Verifier is the HS256 CredentialVerifier used in production.
type Verifier struct {
	Secret []byte
}

func (v Verifier) Verify(tokenString string) error {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.Secret, nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return jwt.ErrTokenUnverifiable
	}
	return nil
}
