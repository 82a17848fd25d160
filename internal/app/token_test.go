package app

import (
	"errors"
	"testing"
	"time"

	"wearables/internal/domain"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", "wearables", time.Hour)
	now := time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return now }

	token, exp, err := issuer.Issue(&domain.Account{Email: "kim@example.com", RecordKey: "k1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.Equal(now.Add(time.Hour)) {
		t.Errorf("unexpected expiry %v", exp)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Email != "kim@example.com" || claims.RecordKey != "k1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTokenIssuer_Errors(t *testing.T) {
	issuer := NewTokenIssuer("secret", "wearables", time.Hour)
	now := time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return now }
	token, _, _ := issuer.Issue(&domain.Account{Email: "kim@example.com"})

	expired := NewTokenIssuer("secret", "wearables", time.Hour)
	expired.now = func() time.Time { return now.Add(2 * time.Hour) }

	otherKey := NewTokenIssuer("different", "wearables", time.Hour)
	otherKey.now = issuer.now
	otherIssuer := NewTokenIssuer("secret", "someone-else", time.Hour)
	otherIssuer.now = issuer.now

	tests := []struct {
		name   string
		parser *TokenIssuer
		token  string
		want   domain.ErrorCode
	}{
		{"missing", issuer, "", domain.ErrUnauthorized},
		{"expired", expired, token, domain.ErrTokenExpired},
		{"wrong key", otherKey, token, domain.ErrTokenInvalid},
		{"wrong issuer", otherIssuer, token, domain.ErrTokenInvalid},
		{"garbage", issuer, "not.a.token", domain.ErrTokenInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.parser.Parse(tc.token)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %s, got %v", tc.want.Code, err)
			}
		})
	}
}
