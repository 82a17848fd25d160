package domain

import (
	"context"
	"time"
)

// Account is a registered member. RecordKey links the member to the activity
// data its devices upload.
type Account struct {
	ID           int64
	Name         string
	Nickname     string
	Email        string
	PasswordHash string
	RecordKey    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountRepository defines the port for account persistence operations.
// Get methods return (nil, nil) when no account matches.
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByRecordKey(ctx context.Context, recordKey string) (*Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	ExistsByRecordKey(ctx context.Context, recordKey string) (bool, error)
	Create(ctx context.Context, a Account) (*Account, error)
}
