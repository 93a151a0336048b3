package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the payload of tokens issued at login.
type TokenClaims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email,omitempty"`
	UserType string `json:"userType,omitempty"`
	jwt.RegisteredClaims
}

// JWTIssuer signs and verifies HS256 bearer tokens.
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret, issuer string, ttl time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}
	return &JWTIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a token for id that expires after the issuer's ttl.
func (m *JWTIssuer) Issue(id Identity) (string, time.Time, error) {
	if id.AccountID == "" {
		return "", time.Time{}, errors.New("jwt: account id is empty")
	}

	now := m.now().UTC()
	exp := now.Add(m.ttl)
	claims := TokenClaims{
		UserID:   id.AccountID,
		Email:    id.Email,
		UserType: id.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   id.AccountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, exp, nil
}

func (m *JWTIssuer) Verify(ctx context.Context, token string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var claims TokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)

	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, newError(KindExpired, err)
	}
	if err != nil {
		return nil, newError(KindInvalid, err)
	}
	if claims.UserID == "" {
		return nil, newError(KindInvalid, errors.New("token carries no userId"))
	}

	return &Identity{
		AccountID: claims.UserID,
		Email:     claims.Email,
		UserType:  claims.UserType,
	}, nil
}

var _ Verifier = (*JWTIssuer)(nil)
