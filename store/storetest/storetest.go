// Package storetest provides a conformance suite for store.Backend
// implementations.
//
// Each backend package runs it against a fresh instance:
//
//	func TestConformance(t *testing.T) {
//		storetest.Run(t, func(t *testing.T) store.Backend { return newTestBackend(t) })
//	}
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/alvinp540/edutrack/store"
)

// Factory returns an empty backend. It registers its own cleanup.
type Factory func(t *testing.T) store.Backend

// Run runs every conformance test as a subtest of t.
func Run(t *testing.T, newBackend Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, b store.Backend)
	}{
		{"InsertAssignsManagedFields", testInsertAssignsManagedFields},
		{"FindOneByID", testFindOneByID},
		{"FindOneNotFound", testFindOneNotFound},
		{"FindByIndexedField", testFindByIndexedField},
		{"FindByUnindexedField", testFindByUnindexedField},
		{"FindCompoundFilter", testFindCompoundFilter},
		{"FindManyOrdering", testFindManyOrdering},
		{"UpdateOnePartial", testUpdateOnePartial},
		{"UpdateOneIdenticalValues", testUpdateOneIdenticalValues},
		{"UpdateOneNoMatch", testUpdateOneNoMatch},
		{"UpdateOneIndexedField", testUpdateOneIndexedField},
		{"UpdateOneManagedFields", testUpdateOneManagedFields},
		{"DeleteMany", testDeleteMany},
		{"Count", testCount},
		{"CountBy", testCountBy},
		{"UnknownCollection", testUnknownCollection},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newBackend(t))
		})
	}
}

func insert(t *testing.T, b store.Backend, c store.Collection, doc store.Document) string {
	t.Helper()
	id, err := b.Insert(context.Background(), c, doc)
	if err != nil {
		t.Fatalf("Insert(%s): %v", c, err)
	}
	return id
}

// missingID returns a well-formed id that no document has.
func missingID(t *testing.T, b store.Backend) string {
	t.Helper()
	ctx := context.Background()
	id := insert(t, b, store.Teachers, store.Document{"employee_number": "GONE"})
	if _, err := b.DeleteMany(ctx, store.Teachers, store.ByID(id)); err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	return id
}

func testInsertAssignsManagedFields(t *testing.T, b store.Backend) {
	ctx := context.Background()

	id := insert(t, b, store.Teachers, store.Document{
		"id":              "caller-supplied",
		"employee_number": "TSC001",
		"first_name":      "Grace",
	})

	if _, ok := b.ParseID(id); !ok {
		t.Errorf("Insert returned %q, which ParseID rejects", id)
	}

	doc, err := b.FindOne(ctx, store.Teachers, store.ByID(id))
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if doc.ID() != id {
		t.Errorf("expected id %q, got %q", id, doc.ID())
	}
	if doc.Time(store.FieldCreatedAt).IsZero() {
		t.Errorf("expected created_at to be set, got %#v", doc[store.FieldCreatedAt])
	}
	if doc.String("first_name") != "Grace" {
		t.Errorf("expected first_name Grace, got %#v", doc["first_name"])
	}
}

func testFindOneByID(t *testing.T, b store.Backend) {
	ctx := context.Background()

	insert(t, b, store.Subjects, store.Document{"code": "ENG", "name": "English"})
	id := insert(t, b, store.Subjects, store.Document{"code": "MATH", "name": "Mathematics"})

	doc, err := b.FindOne(ctx, store.Subjects, store.ByID(id))
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if doc.String("code") != "MATH" {
		t.Errorf("expected MATH, got %q", doc.String("code"))
	}
}

func testFindOneNotFound(t *testing.T, b store.Backend) {
	ctx := context.Background()

	_, err := b.FindOne(ctx, store.Teachers, store.ByID(missingID(t, b)))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing id, got %v", err)
	}

	_, err = b.FindOne(ctx, store.Teachers, store.ByID("not-an-id"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for malformed id, got %v", err)
	}

	_, err = b.FindOne(ctx, store.Teachers, store.Filter{"employee_number": "NOBODY"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing natural key, got %v", err)
	}
}

func testFindByIndexedField(t *testing.T, b store.Backend) {
	ctx := context.Background()

	classID := insert(t, b, store.Classes, store.Document{"name": "Form 2 East", "form": 2})
	insert(t, b, store.Students, store.Document{"admission_number": "MAKI2024001", "class_id": classID})
	insert(t, b, store.Students, store.Document{"admission_number": "MAKI2024002", "class_id": classID})
	insert(t, b, store.Students, store.Document{"admission_number": "MAKI2024003"})

	doc, err := b.FindOne(ctx, store.Students, store.Filter{"admission_number": "MAKI2024002"})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if doc.String("class_id") != classID {
		t.Errorf("expected class_id %q, got %#v", classID, doc["class_id"])
	}

	docs, err := b.FindMany(ctx, store.Students, store.Filter{"class_id": classID})
	if err != nil {
		t.Fatalf("FindMany: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 students in class, got %d", len(docs))
	}
}

func testFindByUnindexedField(t *testing.T, b store.Backend) {
	ctx := context.Background()

	insert(t, b, store.Teachers, store.Document{"employee_number": "TSC001", "department": "Sciences"})
	insert(t, b, store.Teachers, store.Document{"employee_number": "TSC002", "department": "Languages"})
	insert(t, b, store.Teachers, store.Document{"employee_number": "TSC003", "department": "Sciences"})

	docs, err := b.FindMany(ctx, store.Teachers, store.Filter{"department": "Sciences"})
	if err != nil {
		t.Fatalf("FindMany: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 science teachers, got %d", len(docs))
	}

	all, err := b.FindMany(ctx, store.Teachers, store.Filter{})
	if err != nil {
		t.Fatalf("FindMany: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 teachers, got %d", len(all))
	}
}

func testFindCompoundFilter(t *testing.T, b store.Backend) {
	ctx := context.Background()

	s1 := insert(t, b, store.Students, store.Document{"admission_number": "MAKI2024001"})
	s2 := insert(t, b, store.Students, store.Document{"admission_number": "MAKI2024002"})
	insert(t, b, store.Attendance, store.Document{"student_id": s1, "date": "2024-01-08", "status": "Present"})
	insert(t, b, store.Attendance, store.Document{"student_id": s1, "date": "2024-01-09", "status": "Absent"})
	insert(t, b, store.Attendance, store.Document{"student_id": s2, "date": "2024-01-08", "status": "Late"})

	docs, err := b.FindMany(ctx, store.Attendance, store.Filter{"student_id": s1, "date": "2024-01-08"})
	if err != nil {
		t.Fatalf("FindMany: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(docs))
	}
	if docs[0].String("status") != "Present" {
		t.Errorf("expected Present, got %q", docs[0].String("status"))
	}
}

func testFindManyOrdering(t *testing.T, b store.Backend) {
	ctx := context.Background()

	s1 := insert(t, b, store.Students, store.Document{"admission_number": "MAKI2024001"})
	for _, date := range []string{"2024-01-09", "2024-01-11", "2024-01-08", "2024-01-10"} {
		insert(t, b, store.Attendance, store.Document{"student_id": s1, "date": date, "status": "Present"})
	}

	docs, err := b.FindMany(ctx, store.Attendance, store.Filter{"student_id": s1},
		store.Ordering{Field: "date", Ascending: false})
	if err != nil {
		t.Fatalf("FindMany: %v", err)
	}

	expected := []string{"2024-01-11", "2024-01-10", "2024-01-09", "2024-01-08"}
	if len(docs) != len(expected) {
		t.Fatalf("expected %d records, got %d", len(expected), len(docs))
	}
	for i, doc := range docs {
		if doc.String("date") != expected[i] {
			t.Errorf("position %d: expected %s, got %s", i, expected[i], doc.String("date"))
		}
	}
}

func testUpdateOnePartial(t *testing.T, b store.Backend) {
	ctx := context.Background()

	id := insert(t, b, store.Teachers, store.Document{
		"employee_number": "TSC001",
		"phone":           "0700000001",
		"email":           "grace@school.ac.ke",
	})

	n, err := b.UpdateOne(ctx, store.Teachers, store.ByID(id), store.Document{"phone": "0711111111"})
	if err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 matched, got %d", n)
	}

	doc, err := b.FindOne(ctx, store.Teachers, store.ByID(id))
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if doc.String("phone") != "0711111111" {
		t.Errorf("expected updated phone, got %q", doc.String("phone"))
	}
	if doc.String("email") != "grace@school.ac.ke" {
		t.Errorf("expected email unchanged, got %q", doc.String("email"))
	}
}

func testUpdateOneIdenticalValues(t *testing.T, b store.Backend) {
	ctx := context.Background()

	id := insert(t, b, store.Results, store.Document{"score": 92.0, "grade": "A"})

	n, err := b.UpdateOne(ctx, store.Results, store.ByID(id), store.Document{"score": 92.0, "grade": "A"})
	if err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 matched for identical values, got %d", n)
	}
}

func testUpdateOneNoMatch(t *testing.T, b store.Backend) {
	ctx := context.Background()

	n, err := b.UpdateOne(ctx, store.Teachers, store.ByID(missingID(t, b)), store.Document{"phone": "0700"})
	if err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 matched, got %d", n)
	}
}

func testUpdateOneIndexedField(t *testing.T, b store.Backend) {
	ctx := context.Background()

	id := insert(t, b, store.Subjects, store.Document{"code": "MAT", "name": "Mathematics"})

	if _, err := b.UpdateOne(ctx, store.Subjects, store.ByID(id), store.Document{"code": "MATH"}); err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}

	doc, err := b.FindOne(ctx, store.Subjects, store.Filter{"code": "MATH"})
	if err != nil {
		t.Fatalf("FindOne by new code: %v", err)
	}
	if doc.ID() != id {
		t.Errorf("expected id %q, got %q", id, doc.ID())
	}

	if _, err := b.FindOne(ctx, store.Subjects, store.Filter{"code": "MAT"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected old code to be gone, got %v", err)
	}
}

func testUpdateOneManagedFields(t *testing.T, b store.Backend) {
	ctx := context.Background()

	id := insert(t, b, store.Exams, store.Document{"name": "Mid Term 1", "date": "2024-03-01"})
	before, err := b.FindOne(ctx, store.Exams, store.ByID(id))
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}

	_, err = b.UpdateOne(ctx, store.Exams, store.ByID(id), store.Document{
		"id":         "other",
		"created_at": "1999-01-01T00:00:00Z",
		"date":       "2024-03-04",
	})
	if err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}

	after, err := b.FindOne(ctx, store.Exams, store.ByID(id))
	if err != nil {
		t.Fatalf("FindOne after update: %v", err)
	}
	if after.String("date") != "2024-03-04" {
		t.Errorf("expected date updated, got %q", after.String("date"))
	}
	if !after.Time(store.FieldCreatedAt).Equal(before.Time(store.FieldCreatedAt)) {
		t.Errorf("created_at changed from %v to %v", before[store.FieldCreatedAt], after[store.FieldCreatedAt])
	}
}

func testDeleteMany(t *testing.T, b store.Backend) {
	ctx := context.Background()

	s1 := insert(t, b, store.Students, store.Document{"admission_number": "MAKI2024001"})
	s2 := insert(t, b, store.Students, store.Document{"admission_number": "MAKI2024002"})
	insert(t, b, store.Results, store.Document{"student_id": s1, "score": 50.0})
	insert(t, b, store.Results, store.Document{"student_id": s1, "score": 60.0})
	insert(t, b, store.Results, store.Document{"student_id": s2, "score": 70.0})

	n, err := b.DeleteMany(ctx, store.Results, store.Filter{"student_id": s1})
	if err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}

	remaining, err := b.Count(ctx, store.Results, store.Filter{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if remaining != 1 {
		t.Errorf("expected 1 remaining, got %d", remaining)
	}

	n, err = b.DeleteMany(ctx, store.Results, store.Filter{"student_id": s1})
	if err != nil {
		t.Fatalf("DeleteMany again: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 deleted on second call, got %d", n)
	}
}

func testCount(t *testing.T, b store.Backend) {
	ctx := context.Background()

	classID := insert(t, b, store.Classes, store.Document{"name": "Form 1 West"})
	insert(t, b, store.Exams, store.Document{"name": "Opener", "class_id": classID})
	insert(t, b, store.Exams, store.Document{"name": "Mid Term", "class_id": classID})
	insert(t, b, store.Exams, store.Document{"name": "End Term"})

	tests := []struct {
		name     string
		filter   store.Filter
		expected int64
	}{
		{"all", store.Filter{}, 3},
		{"by reference", store.Filter{"class_id": classID}, 2},
		{"by natural key", store.Filter{"name": "End Term"}, 1},
		{"no match", store.Filter{"name": "Mock"}, 0},
	}

	for _, tt := range tests {
		n, err := b.Count(ctx, store.Exams, tt.filter)
		if err != nil {
			t.Fatalf("%s: Count: %v", tt.name, err)
		}
		if n != tt.expected {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.expected, n)
		}
	}
}

func testCountBy(t *testing.T, b store.Backend) {
	ctx := context.Background()

	s1 := insert(t, b, store.Students, store.Document{"admission_number": "MAKI2024001"})
	s2 := insert(t, b, store.Students, store.Document{"admission_number": "MAKI2024002"})
	for i, status := range []string{"Present", "Present", "Late", "Present", "Absent"} {
		insert(t, b, store.Attendance, store.Document{
			"student_id": s1,
			"date":       []string{"2024-01-08", "2024-01-09", "2024-01-10", "2024-01-11", "2024-01-12"}[i],
			"status":     status,
		})
	}
	insert(t, b, store.Attendance, store.Document{"student_id": s2, "date": "2024-01-08", "status": "Absent"})

	counts, err := store.CountBy(ctx, b, store.Attendance, store.Filter{"student_id": s1}, "status")
	if err != nil {
		t.Fatalf("CountBy: %v", err)
	}

	expected := map[string]int64{"Present": 3, "Late": 1, "Absent": 1}
	if len(counts) != len(expected) {
		t.Errorf("expected %d groups, got %v", len(expected), counts)
	}
	for status, n := range expected {
		if counts[status] != n {
			t.Errorf("expected %s=%d, got %d", status, n, counts[status])
		}
	}
}

func testUnknownCollection(t *testing.T, b store.Backend) {
	ctx := context.Background()

	_, err := b.Insert(ctx, "lessons", store.Document{"name": "x"})
	if !errors.Is(err, store.ErrUnknownCollection) {
		t.Errorf("expected ErrUnknownCollection from Insert, got %v", err)
	}

	_, err = b.FindMany(ctx, "lessons", store.Filter{})
	if !errors.Is(err, store.ErrUnknownCollection) {
		t.Errorf("expected ErrUnknownCollection from FindMany, got %v", err)
	}
}

func testPing(t *testing.T, b store.Backend) {
	if err := b.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
