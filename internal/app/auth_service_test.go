package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"wearables/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

type mockAccountRepo struct {
	getByEmailFn        func(ctx context.Context, email string) (*domain.Account, error)
	getByRecordKeyFn    func(ctx context.Context, recordKey string) (*domain.Account, error)
	existsByEmailFn     func(ctx context.Context, email string) (bool, error)
	existsByNicknameFn  func(ctx context.Context, nickname string) (bool, error)
	existsByRecordKeyFn func(ctx context.Context, recordKey string) (bool, error)
	createFn            func(ctx context.Context, a domain.Account) (*domain.Account, error)
}

func (m *mockAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockAccountRepo) GetByRecordKey(ctx context.Context, recordKey string) (*domain.Account, error) {
	if m.getByRecordKeyFn != nil {
		return m.getByRecordKeyFn(ctx, recordKey)
	}
	return nil, nil
}

func (m *mockAccountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockAccountRepo) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	if m.existsByNicknameFn != nil {
		return m.existsByNicknameFn(ctx, nickname)
	}
	return false, nil
}

func (m *mockAccountRepo) ExistsByRecordKey(ctx context.Context, recordKey string) (bool, error) {
	if m.existsByRecordKeyFn != nil {
		return m.existsByRecordKeyFn(ctx, recordKey)
	}
	return false, nil
}

func (m *mockAccountRepo) Create(ctx context.Context, a domain.Account) (*domain.Account, error) {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	a.ID = 1
	return &a, nil
}

func newTestAuth(repo domain.AccountRepository) *AuthService {
	return NewAuthService(repo, NewTokenIssuer("test-secret", "wearables-test", time.Hour), nil)
}

func TestAuthService_Signup_Success(t *testing.T) {
	var stored domain.Account
	repo := &mockAccountRepo{
		createFn: func(_ context.Context, a domain.Account) (*domain.Account, error) {
			stored = a
			a.ID = 7
			return &a, nil
		},
	}
	svc := newTestAuth(repo)

	a, err := svc.Signup(context.Background(), SignupInput{
		Name: "Kim", Nickname: "kim", Email: "kim@example.com", Password: "longenough",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a.ID != 7 {
		t.Errorf("expected ID 7, got %d", a.ID)
	}
	if stored.RecordKey == "" {
		t.Error("expected a generated record key")
	}
	if stored.PasswordHash == "longenough" {
		t.Error("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("longenough")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Signup_Rejections(t *testing.T) {
	valid := SignupInput{Name: "Kim", Nickname: "kim", Email: "kim@example.com", Password: "longenough", RecordKey: "k1"}

	tests := []struct {
		name   string
		mutate func(in *SignupInput)
		repo   *mockAccountRepo
		want   domain.ErrorCode
	}{
		{"short password", func(in *SignupInput) { in.Password = "short" }, &mockAccountRepo{}, domain.ErrInvalidInput},
		{"bad email", func(in *SignupInput) { in.Email = "kim.example.com" }, &mockAccountRepo{}, domain.ErrInvalidInput},
		{"missing nickname", func(in *SignupInput) { in.Nickname = " " }, &mockAccountRepo{}, domain.ErrInvalidInput},
		{"email taken", func(in *SignupInput) {}, &mockAccountRepo{
			existsByEmailFn: func(context.Context, string) (bool, error) { return true, nil },
		}, domain.ErrEmailTaken},
		{"nickname taken", func(in *SignupInput) {}, &mockAccountRepo{
			existsByNicknameFn: func(context.Context, string) (bool, error) { return true, nil },
		}, domain.ErrNicknameTaken},
		{"record key linked", func(in *SignupInput) {}, &mockAccountRepo{
			existsByRecordKeyFn: func(context.Context, string) (bool, error) { return true, nil },
		}, domain.ErrRecordKeyLinked},
		{"repository failure", func(in *SignupInput) {}, &mockAccountRepo{
			existsByEmailFn: func(context.Context, string) (bool, error) { return false, errors.New("db down") },
		}, domain.ErrInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			_, err := newTestAuth(tc.repo).Signup(context.Background(), in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %s, got %v", tc.want.Code, err)
			}
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	password := "testpass123"
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	account := &domain.Account{ID: 1, Email: "kim@example.com", PasswordHash: string(hash), RecordKey: "k1"}

	repo := &mockAccountRepo{
		getByEmailFn: func(_ context.Context, email string) (*domain.Account, error) {
			if email == account.Email {
				return account, nil
			}
			return nil, nil
		},
	}
	svc := newTestAuth(repo)

	res, err := svc.Login(ctx, "kim@example.com", password)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.AccessToken == "" {
		t.Fatal("expected token, got empty string")
	}

	got, err := svc.Authenticate(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.RecordKey != "k1" {
		t.Errorf("expected record key k1, got %s", got.RecordKey)
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	repo := &mockAccountRepo{
		getByEmailFn: func(_ context.Context, email string) (*domain.Account, error) {
			if email == "kim@example.com" {
				return &domain.Account{ID: 1, Email: email, PasswordHash: string(hash)}, nil
			}
			return nil, nil
		},
	}
	svc := newTestAuth(repo)

	if _, err := svc.Login(context.Background(), "kim@example.com", "wrongpass"); !errors.Is(err, domain.ErrBadCredentials) {
		t.Errorf("expected ErrBadCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "correctpass"); !errors.Is(err, domain.ErrBadCredentials) {
		t.Errorf("expected ErrBadCredentials for unknown email, got %v", err)
	}
}

func TestAuthService_Authenticate_DeletedAccount(t *testing.T) {
	tokens := NewTokenIssuer("test-secret", "wearables-test", time.Hour)
	token, _, err := tokens.Issue(&domain.Account{Email: "gone@example.com", RecordKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	svc := NewAuthService(&mockAccountRepo{}, tokens, nil)

	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestAuthService_LoginWithSSO_Provisions(t *testing.T) {
	created := false
	repo := &mockAccountRepo{
		createFn: func(_ context.Context, a domain.Account) (*domain.Account, error) {
			created = true
			if a.PasswordHash != "" {
				t.Error("sso accounts must not have a usable password")
			}
			if a.RecordKey == "" || a.Nickname == "" {
				t.Error("expected generated record key and nickname")
			}
			a.ID = 3
			return &a, nil
		},
	}
	svc := newTestAuth(repo)

	res, err := svc.LoginWithSSO(context.Background(), "sso@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !created {
		t.Error("expected account to be provisioned")
	}
	if res.Account.Email != "sso@example.com" || res.AccessToken == "" {
		t.Errorf("unexpected login result: %+v", res)
	}
}
