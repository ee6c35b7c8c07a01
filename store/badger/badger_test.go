package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/alvinp540/edutrack/internal/keys"
	"github.com/alvinp540/edutrack/store"
	"github.com/alvinp540/edutrack/store/storetest"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := Open(Options{InMemory: true, Store: store.DefaultConfig()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if !b.db.IsClosed() {
			_ = b.Close(context.Background())
		}
	})
	return b
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend { return newTestBackend(t) })
}

func TestConformance_TablePrefix(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend {
		b, err := Open(Options{InMemory: true, Store: store.Config{TablePrefix: "edutrack_"}})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		t.Cleanup(func() { _ = b.Close(context.Background()) })
		return b
	})
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open(Options{}); err == nil {
		t.Error("expected error without path or in-memory")
	}
}

func TestOpen_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := Open(Options{Path: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := b.Insert(ctx, store.Teachers, store.Document{"employee_number": "TSC001"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := b.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(Options{Path: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close(ctx)

	doc, err := reopened.FindOne(ctx, store.Teachers, store.Filter{"employee_number": "TSC001"})
	if err != nil {
		t.Fatalf("FindOne after reopen: %v", err)
	}
	if doc.ID() != id {
		t.Errorf("expected id %q, got %q", id, doc.ID())
	}
}

func TestInsert_CreatedAtFromClock(t *testing.T) {
	b := newTestBackend(t)
	fixed := time.Date(2024, 1, 8, 7, 45, 12, 345678901, time.UTC)
	b.now = func() time.Time { return fixed }

	id, err := b.Insert(context.Background(), store.Classes, store.Document{"name": "Form 3 North"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	doc, err := b.FindOne(context.Background(), store.Classes, store.ByID(id))
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	expected := fixed.Truncate(time.Millisecond)
	if !doc.Time(store.FieldCreatedAt).Equal(expected) {
		t.Errorf("expected created_at %v, got %v", expected, doc[store.FieldCreatedAt])
	}
}

func TestIndexEntries_FollowUpdatesAndDeletes(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	id, err := b.Insert(ctx, store.Students, store.Document{"admission_number": "MAKI2024001", "class_id": "c1"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if n := countKeys(t, b, keys.IndexPrefix("", "students", "class_id", "c1")); n != 1 {
		t.Errorf("expected 1 class_id index entry, got %d", n)
	}

	// Removing the reference drops its index entry.
	if _, err := b.UpdateOne(ctx, store.Students, store.ByID(id), store.Document{"class_id": nil}); err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}
	if n := countKeys(t, b, keys.IndexPrefix("", "students", "class_id", "c1")); n != 0 {
		t.Errorf("expected stale index entry removed, got %d", n)
	}

	if _, err := b.DeleteMany(ctx, store.Students, store.ByID(id)); err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if n := countKeys(t, b, keys.IndexPrefix("", "students", "admission_number", "MAKI2024001")); n != 0 {
		t.Errorf("expected admission_number index entry removed, got %d", n)
	}
	if n := countKeys(t, b, keys.DocumentPrefix("", "students")); n != 0 {
		t.Errorf("expected no student documents, got %d", n)
	}
}

func TestUpdateOne_NilRemovesField(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	id, _ := b.Insert(ctx, store.Results, store.Document{"score": 70.0, "remarks": "Good"})
	if _, err := b.UpdateOne(ctx, store.Results, store.ByID(id), store.Document{"remarks": nil}); err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}

	doc, err := b.FindOne(ctx, store.Results, store.ByID(id))
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if _, ok := doc["remarks"]; ok {
		t.Errorf("expected remarks removed, got %#v", doc["remarks"])
	}
	if !store.Matches(doc, store.Filter{"remarks": nil}) {
		t.Error("expected removed field to match a nil filter")
	}
}

func TestClosed_Unavailable(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	if err := b.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := b.Ping(ctx); !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from Ping, got %v", err)
	}
	if _, err := b.FindMany(ctx, store.Teachers, store.Filter{}); !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from FindMany, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	b := newTestBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Insert(ctx, store.Teachers, store.Document{"employee_number": "TSC001"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func countKeys(t *testing.T, b *Backend, prefix []byte) int {
	t.Helper()
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	return n
}
