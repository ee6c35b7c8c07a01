package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alvinp540/edutrack/store"
)

func TestDefaultConfig(t *testing.T) {
	cfg := store.DefaultConfig()

	naturalKeys := map[store.Collection]string{
		store.Teachers: "employee_number",
		store.Classes:  "name",
		store.Students: "admission_number",
		store.Subjects: "code",
		store.Exams:    "name",
	}
	for c, field := range naturalKeys {
		if !cfg.IsIndexed(c, field) {
			t.Errorf("expected %s.%s to be indexed", c, field)
		}
	}
	if cfg.TablePrefix != "" {
		t.Errorf("expected empty prefix, got %q", cfg.TablePrefix)
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := store.Config{TablePrefix: "edutrack_"}.WithDefaults()

	if cfg.TablePrefix != "edutrack_" {
		t.Errorf("expected prefix preserved, got %q", cfg.TablePrefix)
	}
	if !cfg.IsIndexed(store.Results, "exam_id") {
		t.Error("expected default indexes filled in")
	}

	custom := store.Config{Indexes: map[store.Collection][]string{}}.WithDefaults()
	if custom.IsIndexed(store.Results, "exam_id") {
		t.Error("expected explicit empty indexes to be kept")
	}
}

func TestConfig_TableName(t *testing.T) {
	tests := []struct {
		prefix   string
		coll     store.Collection
		expected string
	}{
		{"", store.Students, "students"},
		{"edutrack_", store.Attendance, "edutrack_attendance"},
		{"dev-", store.Results, "dev-results"},
	}

	for _, tt := range tests {
		cfg := store.Config{TablePrefix: tt.prefix}
		if got := cfg.TableName(tt.coll); got != tt.expected {
			t.Errorf("TableName(%q) with prefix %q = %q, want %q", tt.coll, tt.prefix, got, tt.expected)
		}
	}
}

func TestIndexName(t *testing.T) {
	if got := store.IndexName("admission_number"); got != "admission_number-index" {
		t.Errorf("IndexName = %q", got)
	}
}

func TestKnown(t *testing.T) {
	for _, c := range store.Collections {
		if !store.Known(c) {
			t.Errorf("expected %s to be known", c)
		}
	}
	if store.Known("lessons") {
		t.Error("expected lessons to be unknown")
	}
}

func TestOpError(t *testing.T) {
	cause := errors.New("connection refused")
	err := store.Unavailable("mongodb", "FindOne", store.Students, cause)

	if !errors.Is(err, store.ErrUnavailable) {
		t.Error("expected errors.Is(err, ErrUnavailable)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the driver error to be unwrappable")
	}
	if errors.Is(err, store.ErrNotFound) {
		t.Error("expected OpError not to match ErrNotFound")
	}
	if err.Error() != "mongodb FindOne students: connection refused" {
		t.Errorf("unexpected message %q", err.Error())
	}

	wrapped := fmt.Errorf("resolve student: %w", err)
	var opErr *store.OpError
	if !errors.As(wrapped, &opErr) || opErr.Op != "FindOne" {
		t.Errorf("expected *OpError through wrapping, got %v", wrapped)
	}

	if store.Unavailable("mongodb", "Ping", "", nil) != nil {
		t.Error("expected nil for a nil driver error")
	}
}
