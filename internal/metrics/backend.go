package metrics

import (
	"context"
	"time"

	"github.com/alvinp540/edutrack/store"
)

// Backend wraps a store.Backend and records every call.
type Backend struct {
	store.Backend
	metrics *Metrics
}

// Instrument returns b wrapped so that its calls are counted and timed.
func Instrument(b store.Backend, m *Metrics) *Backend {
	return &Backend{Backend: b, metrics: m}
}

// Unwrap returns the wrapped backend.
func (b *Backend) Unwrap() store.Backend { return b.Backend }

// Insert implements store.Backend.
func (b *Backend) Insert(ctx context.Context, c store.Collection, doc store.Document) (id string, err error) {
	defer b.observe(c, "Insert", time.Now(), &err)
	return b.Backend.Insert(ctx, c, doc)
}

// FindOne implements store.Backend.
func (b *Backend) FindOne(ctx context.Context, c store.Collection, f store.Filter) (doc store.Document, err error) {
	defer b.observe(c, "FindOne", time.Now(), &err)
	return b.Backend.FindOne(ctx, c, f)
}

// FindMany implements store.Backend.
func (b *Backend) FindMany(ctx context.Context, c store.Collection, f store.Filter, order ...store.Ordering) (docs []store.Document, err error) {
	defer b.observe(c, "FindMany", time.Now(), &err)
	return b.Backend.FindMany(ctx, c, f, order...)
}

// UpdateOne implements store.Backend.
func (b *Backend) UpdateOne(ctx context.Context, c store.Collection, f store.Filter, set store.Document) (n int64, err error) {
	defer b.observe(c, "UpdateOne", time.Now(), &err)
	return b.Backend.UpdateOne(ctx, c, f, set)
}

// DeleteMany implements store.Backend.
func (b *Backend) DeleteMany(ctx context.Context, c store.Collection, f store.Filter) (n int64, err error) {
	defer b.observe(c, "DeleteMany", time.Now(), &err)
	return b.Backend.DeleteMany(ctx, c, f)
}

// Count implements store.Backend.
func (b *Backend) Count(ctx context.Context, c store.Collection, f store.Filter) (n int64, err error) {
	defer b.observe(c, "Count", time.Now(), &err)
	return b.Backend.Count(ctx, c, f)
}

// CountBy keeps the wrapped backend's Grouper, if any, reachable.
func (b *Backend) CountBy(ctx context.Context, c store.Collection, f store.Filter, field string) (counts map[string]int64, err error) {
	defer b.observe(c, "CountBy", time.Now(), &err)
	return store.CountBy(ctx, b.Backend, c, f, field)
}

// Ping implements store.Backend.
func (b *Backend) Ping(ctx context.Context) (err error) {
	defer b.observe("", "Ping", time.Now(), &err)
	return b.Backend.Ping(ctx)
}

func (b *Backend) observe(c store.Collection, op string, start time.Time, err *error) {
	b.metrics.observe(b.Backend.Name(), c, op, start, *err)
}

var _ store.Grouper = (*Backend)(nil)
