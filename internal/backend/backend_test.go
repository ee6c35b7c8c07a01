package backend_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alvinp540/edutrack/internal/backend"
	"github.com/alvinp540/edutrack/internal/config"
	"github.com/alvinp540/edutrack/store"
)

func TestOpen_BadgerInMemory(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	b, err := backend.Open(context.Background(), config.Config{
		Driver: config.DriverBadger,
		Badger: config.Badger{InMemory: true},
	}, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer b.Close(context.Background())

	if b.Name() != "badger" {
		t.Errorf("expected badger backend, got %s", b.Name())
	}
	if err := b.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if !strings.Contains(logs.String(), "store opened") {
		t.Errorf("expected open to be logged, got %q", logs.String())
	}
}

func TestOpen_BadgerOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "edutrack.db")
	ctx := context.Background()

	b, err := backend.Open(ctx, config.Config{Driver: config.DriverBadger, Badger: config.Badger{Path: dir}}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := b.Insert(ctx, store.Subjects, store.Document{"code": "MATH"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := b.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err = backend.Open(ctx, config.Config{Driver: config.DriverBadger, Badger: config.Badger{Path: dir}}, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close(ctx)

	doc, err := b.FindOne(ctx, store.Subjects, store.ByID(id))
	if err != nil {
		t.Fatalf("FindOne after reopen: %v", err)
	}
	if doc.String("code") != "MATH" {
		t.Errorf("expected MATH, got %q", doc.String("code"))
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		missing bool
	}{
		{"mongodb without uri", config.Config{Driver: config.DriverMongoDB, MongoDB: config.MongoDB{Database: "edutrack"}}, true},
		{"dynamodb without region", config.Config{Driver: config.DriverDynamoDB}, true},
		{"unknown driver", config.Config{Driver: "sqlite"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := backend.Open(context.Background(), tt.cfg, nil)
			if err == nil {
				b.Close(context.Background())
				t.Fatal("expected error")
			}
			if got := errors.Is(err, config.ErrConfigurationMissing); got != tt.missing {
				t.Errorf("errors.Is(err, ErrConfigurationMissing) = %v, want %v (err: %v)", got, tt.missing, err)
			}
		})
	}
}
