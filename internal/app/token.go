package app

import (
	"errors"
	"time"

	"wearables/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what a verified access token says about its bearer.
type TokenClaims struct {
	Email     string
	RecordKey string
	ExpiresAt time.Time
}

type accessClaims struct {
	RecordKey string `json:"record_key"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. Tokens expire ttl after issue.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for the account and returns it with its expiry.
func (t *TokenIssuer) Issue(a *domain.Account) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := accessClaims{
		RecordKey: a.RecordKey,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.Email,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature, issuer and expiry of token.
func (t *TokenIssuer) Parse(token string) (*TokenClaims, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized.New("")
	}
	parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired.Wrap(err)
		}
		return nil, domain.ErrTokenInvalid.Wrap(err)
	}
	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrTokenInvalid.New("missing subject")
	}
	return &TokenClaims{
		Email:     claims.Subject,
		RecordKey: claims.RecordKey,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
