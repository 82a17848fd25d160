package postgres

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"wearables/internal/domain"

	"github.com/lib/pq"
)

func TestUniqueViolationMapping(t *testing.T) {
	tests := []struct {
		constraint string
		want       domain.ErrorCode
	}{
		{"accounts_email_key", domain.ErrEmailTaken},
		{"accounts_nickname_key", domain.ErrNicknameTaken},
		{"accounts_record_key_key", domain.ErrRecordKeyLinked},
		{"something_else", domain.ErrInternal},
	}
	for _, tc := range tests {
		t.Run(tc.constraint, func(t *testing.T) {
			err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: tc.constraint})
			constraint, ok := uniqueViolation(err)
			if !ok {
				t.Fatal("expected unique violation")
			}
			if got := conflictFor(constraint); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want.Code, got.Code)
			}
		})
	}

	if _, ok := uniqueViolation(&pq.Error{Code: "23503"}); ok {
		t.Error("foreign key violation must not map to a conflict")
	}
	if _, ok := uniqueViolation(errors.New("plain")); ok {
		t.Error("plain error must not map to a conflict")
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected up and down migrations, got %v", files)
	}
}
