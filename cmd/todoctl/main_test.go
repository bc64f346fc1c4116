package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/geocoder89/todohub/internal/accounts"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/store"
)

func useSQLite(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "todoctl.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("APP_ENV", "test")
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	root := newRootCmd(log)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	useSQLite(t)

	out, err := execute(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "schema up to date (sqlite)") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCreateUserThenSetPassword(t *testing.T) {
	path := useSQLite(t)

	if _, err := execute(t, "create-user", "alice", "secret1", "--email", "alice@x.com"); err != nil {
		t.Fatalf("create-user: %v", err)
	}

	if _, err := execute(t, "create-user", "alice", "secret1", "--email", "other@x.com"); err == nil {
		t.Fatalf("expected duplicate username to fail")
	}

	out, err := execute(t, "set-password", "alice@x.com", "another-secret")
	if err != nil {
		t.Fatalf("set-password: %v", err)
	}
	if !strings.Contains(out, "password updated for alice@x.com") {
		t.Fatalf("unexpected output %q", out)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(context.Background(), config.Config{DBDriver: config.DriverSQLite, SQLitePath: path}, nil, log)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	svc := accounts.NewService(st.Users, log)
	if _, err := svc.Authenticate(context.Background(), "alice", "another-secret"); err != nil {
		t.Fatalf("new password should authenticate: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "alice", "secret1"); err == nil {
		t.Fatalf("old password should be rejected")
	}
}

func TestSetPassword_Validation(t *testing.T) {
	useSQLite(t)

	if _, err := execute(t, "set-password", "only-one-arg"); err == nil {
		t.Fatalf("expected arg count error")
	}

	if _, err := execute(t, "create-user", "bob", "secret1", "--email", "bob@x.com"); err != nil {
		t.Fatalf("create-user: %v", err)
	}

	if _, err := execute(t, "set-password", "bob@x.com", "123"); err == nil {
		t.Fatalf("expected short password to be rejected")
	}

	if _, err := execute(t, "set-password", "nobody@x.com", "long-enough"); err == nil {
		t.Fatalf("expected unknown email to fail")
	}
}
