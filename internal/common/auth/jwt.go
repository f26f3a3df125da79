// Package auth issues and verifies the signed bearer tokens gating the API,
// and holds the credential store they are minted against.
package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CarVault/CarVault/internal/common/config"
)

// ErrUnauthorized is the one error every verification failure collapses
// into; callers never learn whether the signature, expiry or subject failed.
var ErrUnauthorized = errors.New("unauthorized")

// Claims are the token claims: granted roles plus the registered set.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

const (
	defaultValidity = 24 * time.Hour
	clockSkewLeeway = 60 * time.Second
)

// TokenService signs and verifies HS256 tokens with a pre-shared key.
type TokenService struct {
	key      []byte
	subject  string
	validity time.Duration
}

// NewTokenService decodes the base64 HMAC key and resolves the validity
// window from cfg (default 24h).
func NewTokenService(cfg config.AuthConfig) (*TokenService, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("auth secret_key is empty")
	}
	key, err := base64.StdEncoding.DecodeString(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("auth secret_key is not valid base64: %w", err)
	}

	validity := defaultValidity
	if cfg.TokenValidity != "" {
		validity, err = time.ParseDuration(cfg.TokenValidity)
		if err != nil {
			return nil, fmt.Errorf("invalid token_validity: %w", err)
		}
		if validity <= 0 {
			validity = defaultValidity
		}
	}

	return &TokenService{
		key:      key,
		subject:  cfg.Username,
		validity: validity,
	}, nil
}

// Generate mints an HS256 token for subject with the given roles.
func (s *TokenService) Generate(subject string, roles []string) (token string, expiresAt time.Time, err error) {
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("subject is empty")
	}

	now := time.Now()
	expiresAt = now.Add(s.validity)

	c := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses raw (with or without a "Bearer " prefix) and returns its
// claims. A token is valid iff the HS256 signature verifies, it is not
// expired beyond 60s of clock skew, and the subject matches the configured
// principal.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	tokenStr := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(tokenStr), "bearer ") {
		tokenStr = strings.TrimSpace(tokenStr[len("bearer "):])
	}
	if tokenStr == "" {
		return nil, ErrUnauthorized
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return s.key, nil
	}, jwt.WithLeeway(clockSkewLeeway))
	if err != nil || parsed == nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}

	if claims.Subject != s.subject {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// HasRole reports whether the claims grant role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
