package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/domain/user"
)

func TestOpen_SQLite(t *testing.T) {
	cfg := config.Config{
		DBDriver:   config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "nested", "todohub.db"),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	s, err := Open(ctx, cfg, nil, log)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if s.Driver != config.DriverSQLite {
		t.Fatalf("driver: got %q", s.Driver)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	u, err := s.Users.Create(ctx, user.User{Username: "alice", Email: "alice@x.com", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	l, err := s.Lists.Create(ctx, u.ID, todo.CreateListRequest{Title: "groceries"})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	it, err := s.Items.Create(ctx, todo.CreateItemRequest{ListID: l.ID, Title: "milk"})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if it.Status != todo.StatusPending {
		t.Fatalf("status: got %q", it.Status)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, err := Open(context.Background(), config.Config{DBDriver: "mysql"}, nil, log); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
