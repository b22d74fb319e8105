package jwt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Error variables
var (
	ErrInvalidToken               = errors.New("invalid token")
	ErrInvalidAuthorizationHeader = errors.New("invalid authorization header")
)

const (
	// DefaultExpiration is the token lifetime used when none is configured.
	DefaultExpiration = 60 * time.Minute
	// DefaultSecretKey is an insecure placeholder, it must be overridden in production.
	DefaultSecretKey = "dev-secret"
)

// JWT provides methods to generate and validate JWT tokens.
type JWT struct {
	SecretKey string           // Secret key for signing tokens
	Exp       time.Duration    // Token expiration duration
	Now       func() time.Time // Clock used for issuing and verifying tokens
}

// Opt configures a JWT instance.
type Opt func(*JWT)

// WithSecretKey sets the HMAC signing secret.
func WithSecretKey(secret string) Opt {
	return func(j *JWT) {
		j.SecretKey = secret
	}
}

// WithExpiration sets the token lifetime.
func WithExpiration(exp time.Duration) Opt {
	return func(j *JWT) {
		j.Exp = exp
	}
}

// WithClock sets the time source, mostly useful in tests.
func WithClock(now func() time.Time) Opt {
	return func(j *JWT) {
		if now != nil {
			j.Now = now
		}
	}
}

// New creates a new JWT instance
func New(opts ...Opt) *JWT {
	j := &JWT{
		SecretKey: DefaultSecretKey,
		Exp:       DefaultExpiration,
		Now:       time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Generate creates a JWT token whose subject is the given user id.
func (j *JWT) Generate(ctx context.Context, userID int64) (string, error) {
	now := j.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.Exp)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.SecretKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// GetSubject verifies the token and returns its subject claim.
// Every verification failure is reported as ErrInvalidToken.
func (j *JWT) GetSubject(ctx context.Context, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(j.SecretKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: subject not found in token", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>" header value.
func ParseBearer(authHeader string) (string, error) {
	if authHeader == "" {
		return "", fmt.Errorf("%w: missing", ErrInvalidAuthorizationHeader)
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("%w: expected bearer scheme", ErrInvalidAuthorizationHeader)
	}

	return parts[1], nil
}
