package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"wearables/internal/domain"
)

const accountColumns = "id, name, nickname, email, password_hash, record_key, created_at, updated_at"

func (d *DB) getAccount(ctx context.Context, where string, arg any) (*domain.Account, error) {
	var a domain.Account
	err := d.sql.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE "+where+" = $1",
		arg,
	).Scan(&a.ID, &a.Name, &a.Nickname, &a.Email, &a.PasswordHash, &a.RecordKey, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByEmail retrieves an account by email.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return d.getAccount(ctx, "email", email)
}

// GetByRecordKey retrieves an account by record key.
func (d *DB) GetByRecordKey(ctx context.Context, recordKey string) (*domain.Account, error) {
	return d.getAccount(ctx, "record_key", recordKey)
}

func (d *DB) exists(ctx context.Context, column string, arg any) (bool, error) {
	var ok bool
	err := d.sql.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM accounts WHERE "+column+" = $1)",
		arg,
	).Scan(&ok)
	return ok, err
}

func (d *DB) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return d.exists(ctx, "email", email)
}

func (d *DB) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return d.exists(ctx, "nickname", nickname)
}

func (d *DB) ExistsByRecordKey(ctx context.Context, recordKey string) (bool, error) {
	return d.exists(ctx, "record_key", recordKey)
}

// Create inserts an account. A unique violation that slipped past the
// service's existence checks is reported as the matching conflict code.
func (d *DB) Create(ctx context.Context, a domain.Account) (*domain.Account, error) {
	now := time.Now().UTC()
	err := d.sql.QueryRowContext(ctx,
		`INSERT INTO accounts (name, nickname, email, password_hash, record_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id, created_at, updated_at`,
		a.Name, a.Nickname, a.Email, a.PasswordHash, a.RecordKey, now,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if constraint, ok := uniqueViolation(err); ok {
		return nil, conflictFor(constraint).Wrap(err)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func conflictFor(constraint string) domain.ErrorCode {
	switch constraint {
	case "accounts_email_key":
		return domain.ErrEmailTaken
	case "accounts_nickname_key":
		return domain.ErrNicknameTaken
	case "accounts_record_key_key":
		return domain.ErrRecordKeyLinked
	default:
		return domain.ErrInternal
	}
}
