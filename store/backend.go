package store

import (
	"context"
	"time"
)

// Collection names one document collection (a DynamoDB table, a MongoDB
// collection or a Badger key prefix).
type Collection string

const (
	Teachers   Collection = "teachers"
	Classes    Collection = "classes"
	Students   Collection = "students"
	Subjects   Collection = "subjects"
	Attendance Collection = "attendance"
	Exams      Collection = "exams"
	Results    Collection = "results"
)

// Collections lists every collection in a stable order.
var Collections = []Collection{Teachers, Classes, Students, Subjects, Attendance, Exams, Results}

// Managed fields are set by the backend and never accepted from callers.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
)

// Document is a stored record as a field name to value mapping.
//
// Values are normalized by every backend to one of: string, float64, int64,
// bool, time.Time or nil.
type Document map[string]any

// String returns the string value of field, or "" when absent or not a string.
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// Float returns the numeric value of field.
func (d Document) Float(field string) (float64, bool) {
	switch v := d[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Time returns the time value of field. RFC 3339 strings are accepted since
// DynamoDB has no native time type.
func (d Document) Time(field string) time.Time {
	switch v := d[field].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ID returns the document's primary identifier.
func (d Document) ID() string { return d.String(FieldID) }

// Filter is a conjunction of equality conditions. The key FieldID matches
// the primary identifier.
type Filter map[string]any

// ByID returns a filter matching the primary identifier id.
func ByID(id string) Filter { return Filter{FieldID: id} }

// Ordering sorts FindMany results on one field.
type Ordering struct {
	Field     string
	Ascending bool
}

// Backend is the document store used by every higher layer.
//
// Implementations are safe for concurrent use. Every method that touches the
// store wraps driver failures so that errors.Is(err, ErrUnavailable) holds.
type Backend interface {
	// Name identifies the backend in logs and metrics ("mongodb", "dynamodb", "badger").
	Name() string

	// ParseID reports whether s is a primary identifier in the backend's
	// native format and returns it in canonical form.
	ParseID(s string) (string, bool)

	// Insert stores doc, assigning FieldID and FieldCreatedAt, and returns the new id.
	Insert(ctx context.Context, c Collection, doc Document) (string, error)

	// FindOne returns the first document matching f, or ErrNotFound.
	FindOne(ctx context.Context, c Collection, f Filter) (Document, error)

	// FindMany returns every document matching f, sorted by order when given.
	FindMany(ctx context.Context, c Collection, f Filter, order ...Ordering) ([]Document, error)

	// UpdateOne applies set to the first document matching f and returns the
	// number of documents matched (0 or 1). Managed fields in set are ignored.
	UpdateOne(ctx context.Context, c Collection, f Filter, set Document) (int64, error)

	// DeleteMany removes every document matching f and returns how many were removed.
	DeleteMany(ctx context.Context, c Collection, f Filter) (int64, error)

	// Count returns the number of documents matching f.
	Count(ctx context.Context, c Collection, f Filter) (int64, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases the connection. The backend must not be used afterwards.
	Close(ctx context.Context) error
}

// Grouper is implemented by backends that can count documents grouped by a
// field value in a single round trip.
type Grouper interface {
	CountBy(ctx context.Context, c Collection, f Filter, field string) (map[string]int64, error)
}

// CountBy counts documents matching f grouped by the string value of field.
// Documents whose field is absent or not a string are grouped under "".
// It uses the backend's Grouper implementation when there is one.
func CountBy(ctx context.Context, b Backend, c Collection, f Filter, field string) (map[string]int64, error) {
	if g, ok := b.(Grouper); ok {
		return g.CountBy(ctx, c, f, field)
	}
	docs, err := b.FindMany(ctx, c, f)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, doc := range docs {
		counts[doc.String(field)]++
	}
	return counts, nil
}

// Known reports whether c is one of the edutrack collections.
func Known(c Collection) bool {
	for _, k := range Collections {
		if k == c {
			return true
		}
	}
	return false
}
