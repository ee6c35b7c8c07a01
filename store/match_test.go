package store_test

import (
	"testing"
	"time"

	"github.com/alvinp540/edutrack/store"
)

func TestMatches(t *testing.T) {
	day := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	doc := store.Document{
		"id":         "r1",
		"student_id": "s1",
		"score":      92.0,
		"form":       int64(2),
		"created_at": day,
	}

	tests := []struct {
		name     string
		filter   store.Filter
		expected bool
	}{
		{"empty filter", store.Filter{}, true},
		{"id", store.ByID("r1"), true},
		{"wrong id", store.ByID("r2"), false},
		{"conjunction", store.Filter{"id": "r1", "student_id": "s1"}, true},
		{"conjunction one miss", store.Filter{"id": "r1", "student_id": "s2"}, false},
		{"float equals int", store.Filter{"form": 2}, true},
		{"int equals float", store.Filter{"score": int64(92)}, true},
		{"float", store.Filter{"score": 92.0}, true},
		{"number vs string", store.Filter{"score": "92"}, false},
		{"time", store.Filter{"created_at": day.In(time.FixedZone("EAT", 3*3600))}, true},
		{"absent matches nil", store.Filter{"remarks": nil}, true},
		{"present does not match nil", store.Filter{"student_id": nil}, false},
		{"absent does not match value", store.Filter{"remarks": "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := store.Matches(doc, tt.filter); got != tt.expected {
				t.Errorf("Matches(%v) = %v, want %v", tt.filter, got, tt.expected)
			}
		})
	}
}

func TestSortDocuments(t *testing.T) {
	docs := []store.Document{
		{"id": "a", "date": "2024-01-09"},
		{"id": "b", "date": "2024-01-11"},
		{"id": "c"},
		{"id": "d", "date": "2024-01-08"},
	}

	store.SortDocuments(docs, store.Ordering{Field: "date", Ascending: true})
	expected := []string{"c", "d", "a", "b"}
	for i, doc := range docs {
		if doc.ID() != expected[i] {
			t.Errorf("ascending position %d: expected %s, got %s", i, expected[i], doc.ID())
		}
	}

	store.SortDocuments(docs, store.Ordering{Field: "date"})
	expected = []string{"b", "a", "d", "c"}
	for i, doc := range docs {
		if doc.ID() != expected[i] {
			t.Errorf("descending position %d: expected %s, got %s", i, expected[i], doc.ID())
		}
	}
}

func TestSortDocuments_Numbers(t *testing.T) {
	docs := []store.Document{
		{"id": "a", "score": 65.0},
		{"id": "b", "score": int64(92)},
		{"id": "c", "score": 70.5},
	}

	store.SortDocuments(docs, store.Ordering{Field: "score"})

	expected := []string{"b", "c", "a"}
	for i, doc := range docs {
		if doc.ID() != expected[i] {
			t.Errorf("position %d: expected %s, got %s", i, expected[i], doc.ID())
		}
	}
}

func TestSortDocuments_Stable(t *testing.T) {
	docs := []store.Document{
		{"id": "a", "status": "Present"},
		{"id": "b", "status": "Absent"},
		{"id": "c", "status": "Present"},
	}

	store.SortDocuments(docs, store.Ordering{Field: "status", Ascending: true})

	expected := []string{"b", "a", "c"}
	for i, doc := range docs {
		if doc.ID() != expected[i] {
			t.Errorf("position %d: expected %s, got %s", i, expected[i], doc.ID())
		}
	}
}

func TestSortDocuments_SecondaryOrdering(t *testing.T) {
	docs := []store.Document{
		{"id": "a", "date": "2024-01-08", "status": "Present"},
		{"id": "b", "date": "2024-01-09", "status": "Absent"},
		{"id": "c", "date": "2024-01-08", "status": "Absent"},
	}

	store.SortDocuments(docs,
		store.Ordering{Field: "date"},
		store.Ordering{Field: "status", Ascending: true})

	expected := []string{"b", "c", "a"}
	for i, doc := range docs {
		if doc.ID() != expected[i] {
			t.Errorf("position %d: expected %s, got %s", i, expected[i], doc.ID())
		}
	}
}

func TestSettable(t *testing.T) {
	set := store.Document{"id": "x", "created_at": "now", "phone": "0700"}

	out := store.Settable(set)

	if len(out) != 1 || out["phone"] != "0700" {
		t.Errorf("expected only phone, got %v", out)
	}
	if len(set) != 3 {
		t.Error("expected input to be left untouched")
	}
}

func TestDocument_Accessors(t *testing.T) {
	doc := store.Document{
		"id":         "t1",
		"name":       "Grace",
		"score":      int32(81),
		"created_at": "2024-01-08T09:30:00Z",
		"bad_time":   "yesterday",
	}

	if doc.ID() != "t1" {
		t.Errorf("ID() = %q", doc.ID())
	}
	if doc.String("score") != "" {
		t.Error("expected String on a number to be empty")
	}
	if v, ok := doc.Float("score"); !ok || v != 81 {
		t.Errorf("Float(score) = %v, %v", v, ok)
	}
	if _, ok := doc.Float("name"); ok {
		t.Error("expected Float on a string to fail")
	}
	if doc.Time("created_at").Hour() != 9 {
		t.Errorf("Time(created_at) = %v", doc.Time("created_at"))
	}
	if !doc.Time("bad_time").IsZero() {
		t.Error("expected zero time for an unparsable string")
	}
}
