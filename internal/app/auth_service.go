// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wearables/internal/domain"
	"wearables/internal/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// SignupInput carries the fields of a new member.
type SignupInput struct {
	Name      string
	Nickname  string
	Email     string
	Password  string
	RecordKey string
}

// LoginResult is a freshly issued access token and the member it belongs to.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	Account     *domain.Account
}

// AuthService handles member registration, credential checks and access
// tokens.
type AuthService struct {
	accounts domain.AccountRepository
	tokens   *TokenIssuer
	log      *logger.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(accounts domain.AccountRepository, tokens *TokenIssuer, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
		log:      log,
	}
}

// Signup validates the input, checks uniqueness and stores a new account with
// a bcrypt password hash. A record key is generated when none is supplied.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Nickname = strings.TrimSpace(in.Nickname)
	in.Email = strings.TrimSpace(in.Email)
	in.RecordKey = strings.TrimSpace(in.RecordKey)

	switch {
	case in.Name == "":
		return nil, domain.ErrInvalidInput.New("name is required")
	case in.Nickname == "":
		return nil, domain.ErrInvalidInput.New("nickname is required")
	case !strings.Contains(in.Email, "@"):
		return nil, domain.ErrInvalidInput.New("email is invalid")
	case len(in.Password) < minPasswordLength:
		return nil, domain.ErrInvalidInput.Newf("password must be at least %d characters", minPasswordLength)
	}

	if taken, err := s.accounts.ExistsByEmail(ctx, in.Email); err != nil {
		return nil, domain.ErrInternal.Wrap(err)
	} else if taken {
		return nil, domain.ErrEmailTaken.New(in.Email)
	}
	if taken, err := s.accounts.ExistsByNickname(ctx, in.Nickname); err != nil {
		return nil, domain.ErrInternal.Wrap(err)
	} else if taken {
		return nil, domain.ErrNicknameTaken.New(in.Nickname)
	}
	if in.RecordKey == "" {
		in.RecordKey = uuid.NewString()
	} else if taken, err := s.accounts.ExistsByRecordKey(ctx, in.RecordKey); err != nil {
		return nil, domain.ErrInternal.Wrap(err)
	} else if taken {
		return nil, domain.ErrRecordKeyLinked.New(in.RecordKey)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal.Wrap(err)
	}

	account, err := s.accounts.Create(ctx, domain.Account{
		Name:         in.Name,
		Nickname:     in.Nickname,
		Email:        in.Email,
		PasswordHash: string(hash),
		RecordKey:    in.RecordKey,
	})
	if err != nil {
		return nil, catalogOrInternal(err)
	}
	s.log.Info("member signed up", "memberId", account.ID, "recordKey", account.RecordKey)
	return account, nil
}

// Login checks the credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, domain.ErrInternal.Wrap(err)
	}
	if account == nil || account.PasswordHash == "" {
		return nil, domain.ErrBadCredentials.New("")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrBadCredentials.New("")
	}
	return s.issue(account)
}

// LoginWithSSO issues a token for an identity already verified by the OIDC
// provider, provisioning an account on first login.
func (s *AuthService) LoginWithSSO(ctx context.Context, email string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ErrInvalidInput.New("identity has no email or subject")
	}
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInternal.Wrap(err)
	}
	if account == nil {
		local := email
		if i := strings.IndexByte(email, '@'); i > 0 {
			local = email[:i]
		}
		account, err = s.accounts.Create(ctx, domain.Account{
			Name:      local,
			Nickname:  fmt.Sprintf("%s-%s", local, uuid.NewString()[:8]),
			Email:     email,
			RecordKey: uuid.NewString(),
		})
		if err != nil {
			// Lost a race with a concurrent first login.
			account, err = s.accounts.GetByEmail(ctx, email)
			if err != nil || account == nil {
				return nil, domain.ErrInternal.Newf("provision sso account %s", email)
			}
		} else {
			s.log.Info("provisioned sso member", "memberId", account.ID, "recordKey", account.RecordKey)
		}
	}
	return s.issue(account)
}

// Authenticate resolves a bearer token to the account it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByEmail(ctx, claims.Email)
	if err != nil {
		return nil, domain.ErrInternal.Wrap(err)
	}
	if account == nil {
		return nil, domain.ErrTokenInvalid.New("member no longer exists")
	}
	return account, nil
}

func (s *AuthService) issue(account *domain.Account) (*LoginResult, error) {
	token, expiresAt, err := s.tokens.Issue(account)
	if err != nil {
		return nil, domain.ErrInternal.Wrap(err)
	}
	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, Account: account}, nil
}

// catalogOrInternal keeps catalog errors raised by adapters (for example a
// unique violation mapped to a conflict) and wraps anything else.
func catalogOrInternal(err error) error {
	var e *domain.Error
	if errors.As(err, &e) {
		return err
	}
	return domain.ErrInternal.Wrap(err)
}
