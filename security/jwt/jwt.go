// Package jwt mints and validates the signed tokens that carry the
// authentication state between requests.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ncobase/passport/config"
	"github.com/ncobase/passport/nanoid"
	"github.com/ncobase/passport/structs"
)

// Kind distinguishes the two token flavors. An access token authenticates
// requests; a refresh token may only be exchanged for a new access token.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrTokenMalformed indicates the token is not a structurally valid JWT.
	ErrTokenMalformed = errors.New("token is malformed")
	// ErrTokenSignatureInvalid indicates the signature does not verify.
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	// ErrTokenExpired indicates the token verified but is past its expiry.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid covers every other validation failure.
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims is the decoded, verified content of a token.
type Claims struct {
	ID        string
	Subject   string
	Role      structs.Role
	Kind      Kind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager signs and verifies tokens with a shared HMAC key.
type TokenManager struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager creates a token manager from the auth configuration.
func NewTokenManager(c *config.JWT) (*TokenManager, error) {
	if c == nil || c.Secret == "" {
		return nil, errors.New("jwt: signing secret is required")
	}
	return &TokenManager{
		key:        []byte(c.Secret),
		accessTTL:  c.AccessExpire,
		refreshTTL: c.RefreshExpire,
	}, nil
}

// TTL returns the configured lifetime for the given token kind.
func (m *TokenManager) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return m.refreshTTL
	}
	return m.accessTTL
}

// Mint signs a token of the given kind for the user. Identity travels as the
// subject; the role and kind ride in the payload claim.
func (m *TokenManager) Mint(user *structs.User, kind Kind, now time.Time) (string, error) {
	if user == nil {
		return "", errors.New("jwt: user is required")
	}
	claims := jwt.MapClaims{
		"jti": nanoid.Alphanumeric(21),
		"sub": user.Username,
		"iat": now.Unix(),
		"exp": now.Add(m.TTL(kind)).Unix(),
		"payload": map[string]any{
			"role": string(user.Role),
			"type": string(kind),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("jwt: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies the token signature and expiry against now and returns
// the decoded claims. Failures are classified into the sentinel errors above.
func (m *TokenManager) Validate(tokenValue string, now time.Time) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	token, err := parser.Parse(tokenValue, func(t *jwt.Token) (any, error) {
		return m.key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return decode(mapClaims)
}

// ExtractSubject verifies the token and returns its subject.
func (m *TokenManager) ExtractSubject(tokenValue string, now time.Time) (string, error) {
	claims, err := m.Validate(tokenValue, now)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}

func decode(claims jwt.MapClaims) (*Claims, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrTokenInvalid
	}
	out := &Claims{Subject: sub}

	if jti, ok := claims["jti"].(string); ok {
		out.ID = jti
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrTokenInvalid
	}
	out.ExpiresAt = exp.Time

	payload, ok := claims["payload"].(map[string]any)
	if !ok {
		return nil, ErrTokenInvalid
	}
	role, _ := payload["role"].(string)
	out.Role = structs.Role(role)
	kind, _ := payload["type"].(string)
	switch Kind(kind) {
	case KindAccess, KindRefresh:
		out.Kind = Kind(kind)
	default:
		return nil, ErrTokenInvalid
	}
	return out, nil
}
