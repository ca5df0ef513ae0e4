package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hypervisual/finance-workflow/internal/domain/entity"
)

// ErrInvalidToken is returned for missing, malformed, or expired tokens.
var ErrInvalidToken = errors.New("invalid token")

// identityClaims carries the acting identity inside the JWT.
type identityClaims struct {
	Name        string   `json:"name,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies the HMAC-signed bearer tokens the API
// authenticates with.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// IssueToken signs a token for the given identity.
func (m *TokenManager) IssueToken(identity entity.Identity) (string, error) {
	now := time.Now()
	claims := identityClaims{
		Name:        identity.Name,
		Role:        identity.Role,
		Permissions: identity.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token and reconstructs the acting identity.
func (m *TokenManager) ParseToken(tokenString string) (entity.Identity, error) {
	var claims identityClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return entity.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return entity.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return entity.Identity{
		ID:          claims.Subject,
		Name:        claims.Name,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	}, nil
}
