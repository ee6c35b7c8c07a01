package school

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alvinp540/edutrack/store"
)

var (
	// ErrNotFound is returned when a reference resolves neither as a primary
	// id nor as a natural key.
	ErrNotFound = errors.New("edutrack: not found")

	// ErrInvalidInput is returned for malformed caller input: empty
	// references, bad dates, out of range scores, empty updates.
	ErrInvalidInput = errors.New("edutrack: invalid input")

	// ErrNoMatch is returned when an update or delete targets no record.
	// Errors caused by an unresolvable reference match both ErrNoMatch and
	// ErrNotFound.
	ErrNoMatch = errors.New("edutrack: no matching record")
)

// NotFoundError reports the reference that failed to resolve.
type NotFoundError struct {
	Collection store.Collection
	Ref        string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", entityName(e.Collection), e.Ref)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AmbiguousError reports a natural key shared by more than one record.
// Resolution never picks one of several matches, so it matches ErrNotFound.
type AmbiguousError struct {
	Collection store.Collection
	Field      string
	Value      string
	Matches    int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s %q is ambiguous: %d records have %s = %q",
		entityName(e.Collection), e.Value, e.Matches, e.Field, e.Value)
}

func (e *AmbiguousError) Is(target error) bool { return target == ErrNotFound }

// InputError lists validation failures by field name.
type InputError struct {
	Fields map[string]string
}

func (e *InputError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, e.Fields[f])
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(field, format string, args ...any) error {
	return &InputError{Fields: map[string]string{field: field + " " + fmt.Sprintf(format, args...)}}
}

// noMatch marks err, an unresolvable reference of an update or delete, as a no-op.
func noMatch(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNoMatch, err)
	}
	return err
}

func entityName(c store.Collection) string {
	switch c {
	case store.Teachers:
		return "teacher"
	case store.Classes:
		return "class"
	case store.Students:
		return "student"
	case store.Subjects:
		return "subject"
	case store.Attendance:
		return "attendance record"
	case store.Exams:
		return "exam"
	case store.Results:
		return "result"
	}
	return string(c)
}
