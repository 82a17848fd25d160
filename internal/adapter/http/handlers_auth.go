// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"wearables/internal/app"
	"wearables/internal/domain"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCConfig holds the provider used for SSO login. The zero value disables
// SSO.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// NewOIDCConfig discovers the issuer and builds the code-flow configuration.
func NewOIDCConfig(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return OIDCConfig{}, fmt.Errorf("discover oidc provider %s: %w", issuer, err)
	}
	return OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}, nil
}

type memberView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	RecordKey string    `json:"recordKey"`
	CreatedAt time.Time `json:"createdAt"`
}

func toMemberView(a *domain.Account) memberView {
	return memberView{
		ID:        a.ID,
		Name:      a.Name,
		Nickname:  a.Nickname,
		Email:     a.Email,
		RecordKey: a.RecordKey,
		CreatedAt: a.CreatedAt,
	}
}

type loginView struct {
	AccessToken string     `json:"accessToken"`
	TokenType   string     `json:"tokenType"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	Member      memberView `json:"member"`
}

func toLoginView(res *app.LoginResult) loginView {
	return loginView{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   res.ExpiresAt,
		Member:      toMemberView(res.Account),
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, "ok", map[string]any{
		"ssoEnabled": s.oidcConfig.Enabled,
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req struct {
		Name      string `json:"name"`
		Nickname  string `json:"nickname"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		RecordKey string `json:"recordKey"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	account, err := s.auth.Signup(r.Context(), app.SignupInput{
		Name:      req.Name,
		Nickname:  req.Nickname,
		Email:     req.Email,
		Password:  req.Password,
		RecordKey: req.RecordKey,
	})
	if err != nil {
		s.logFailure("signup", err)
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "member created", toMemberView(account))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logFailure("login", err)
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "login succeeded", toLoginView(res))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	account := accountFrom(r.Context())
	if account == nil {
		writeError(w, domain.ErrUnauthorized.New(""))
		return
	}
	writeOK(w, http.StatusOK, "ok", toMemberView(account))
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "sso disabled"})
		return
	}
	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.oidcConfig.OAuth2Config.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "sso disabled"})
		return
	}

	state, err := r.Cookie("oauth_state")
	if err != nil || r.URL.Query().Get("state") != state.Value {
		writeError(w, domain.ErrInvalidInput.New("invalid state"))
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "oauth_state", MaxAge: -1, Path: "/"})

	token, err := s.oidcConfig.OAuth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		writeError(w, domain.ErrInternal.Wrap(fmt.Errorf("exchange code: %w", err)))
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		writeError(w, domain.ErrTokenInvalid.New("no id_token"))
		return
	}

	idToken, err := s.oidcConfig.Provider.Verifier(&oidc.Config{ClientID: s.oidcConfig.OAuth2Config.ClientID}).Verify(r.Context(), rawIDToken)
	if err != nil {
		writeError(w, domain.ErrTokenInvalid.Wrap(err))
		return
	}

	var claims struct {
		Email string `json:"email"`
		Sub   string `json:"sub"`
	}
	if err = idToken.Claims(&claims); err != nil {
		writeError(w, domain.ErrTokenInvalid.Wrap(err))
		return
	}

	identity := claims.Email
	if identity == "" {
		identity = claims.Sub
	}

	res, err := s.auth.LoginWithSSO(r.Context(), identity)
	if err != nil {
		s.logFailure("sso login", err)
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "login succeeded", toLoginView(res))
}

// logFailure logs server-side failures; client errors are only counted by
// the request log.
func (s *Server) logFailure(op string, err error) {
	if domain.CodeOf(err).Kind == domain.KindInternal {
		s.log.Error(op+" failed", "error", err)
	}
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
