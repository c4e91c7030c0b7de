package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleOperator is the only role allowed to drive generation runs
const RoleOperator = "operator"

// DefaultTTL is the lifetime of a token when none is given
const DefaultTTL = 24 * time.Hour

var (
	// ErrMissingSecret is returned when a token manager is created without a secret
	ErrMissingSecret = errors.New("jwt secret is required")
	// ErrInvalidRole is returned when a valid token carries another role
	ErrInvalidRole = errors.New("invalid token role")
)

// JWTClaims represents the claims in our JWT token
type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 operator tokens
type TokenManager struct {
	secret []byte
}

// NewTokenManager creates a token manager signing with secret
func NewTokenManager(secret string) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenManager{secret: []byte(secret)}, nil
}

// GenerateOperatorToken generates a JWT for subject valid for ttl
func (m *TokenManager) GenerateOperatorToken(subject string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := &JWTClaims{
		Role: RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a JWT token and returns the claims
func (m *TokenManager) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrInvalidKey
	}
	if claims.Role != RoleOperator {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, claims.Role)
	}

	return claims, nil
}
