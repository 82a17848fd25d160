package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactsSensitiveKeys(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("login", "email", "a@b.c", "password", "hunter22", "recordKey", "u1")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["email"] != "[REDACTED]" {
		t.Errorf("expected email redacted, got %v", fields["email"])
	}
	if fields["password"] != "[REDACTED]" {
		t.Errorf("expected password redacted, got %v", fields["password"])
	}
	if fields["recordKey"] != "u1" {
		t.Errorf("expected recordKey kept, got %v", fields["recordKey"])
	}
}

func TestRedactsJWTLookingValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.With("header", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhQGIuYyJ9.sig").Warn("bad request")

	fields := logs.All()[0].ContextMap()
	if fields["header"] != "[REDACTED]" {
		t.Errorf("expected jwt redacted, got %v", fields["header"])
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	if _, err := New("development", "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := New("production", "warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
