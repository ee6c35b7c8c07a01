package keys

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
)

func TestDocument(t *testing.T) {
	tests := []struct {
		prefix     string
		collection string
		id         string
		expected   string
	}{
		{"", "students", "s1", "students/d/s1"},
		{"edutrack_", "teachers", "t1", "edutrack_teachers/d/t1"},
		{"", "results", "0b6f2c8e-3c1b-4f4e-9d36-1f0f6e0b7a11", "results/d/0b6f2c8e-3c1b-4f4e-9d36-1f0f6e0b7a11"},
	}

	for _, tt := range tests {
		result := string(Document(tt.prefix, tt.collection, tt.id))
		if result != tt.expected {
			t.Errorf("Document(%q, %q, %q) = %q, want %q",
				tt.prefix, tt.collection, tt.id, result, tt.expected)
		}
	}
}

func TestDocument_HasDocumentPrefix(t *testing.T) {
	key := Document("", "students", "s1")
	if !bytes.HasPrefix(key, DocumentPrefix("", "students")) {
		t.Errorf("document key %q does not start with its collection prefix", key)
	}
	if bytes.HasPrefix(key, DocumentPrefix("", "student")) {
		t.Errorf("document key %q matched a shorter collection prefix", key)
	}
}

func TestIndex_Format(t *testing.T) {
	key := string(Index("", "students", "admission_number", "MAKI2024001", "s1"))

	parts := strings.Split(key, "/")
	if len(parts) != 5 {
		t.Fatalf("expected 5 segments, got %d: %q", len(parts), key)
	}
	if parts[0] != "students" || parts[1] != "i" || parts[2] != "admission_number" || parts[4] != "s1" {
		t.Errorf("unexpected key layout %q", key)
	}
	if len(parts[3]) != 32 {
		t.Errorf("expected 32 character hash, got %d", len(parts[3]))
	}
}

func TestIndex_ValueWithSeparator(t *testing.T) {
	key := Index("", "classes", "name", "Form 1/East", "c1")

	if ID(key) != "c1" {
		t.Errorf("expected id c1, got %q", ID(key))
	}
	if strings.Count(string(key), "/") != 4 {
		t.Errorf("value separator leaked into key %q", key)
	}
}

func TestIndexPrefix_MatchesOnlyEqualValues(t *testing.T) {
	prefix := IndexPrefix("", "students", "class_id", "c1")

	if !bytes.HasPrefix(Index("", "students", "class_id", "c1", "s1"), prefix) {
		t.Error("expected entry for the same value to share the prefix")
	}
	if bytes.HasPrefix(Index("", "students", "class_id", "c2", "s1"), prefix) {
		t.Error("expected entry for a different value not to share the prefix")
	}
}

func TestValueHash_Deterministic(t *testing.T) {
	h1 := ValueHash("code", "MATH")
	h2 := ValueHash("code", "MATH")
	if h1 != h2 {
		t.Errorf("expected same hash, got %q and %q", h1, h2)
	}
}

func TestValueHash_FieldIsolation(t *testing.T) {
	if ValueHash("name", "Form 1") == ValueHash("code", "Form 1") {
		t.Error("expected different hashes for different fields with the same value")
	}
}

func TestValueHash_Distribution(t *testing.T) {
	hashes := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		hashes[ValueHash("admission_number", "MAKI"+strconv.Itoa(2024000+i))] = true
	}
	if len(hashes) != 1000 {
		t.Errorf("expected 1000 distinct hashes, got %d", len(hashes))
	}
}

func TestID(t *testing.T) {
	tests := []struct {
		key      []byte
		expected string
	}{
		{Document("", "students", "s1"), "s1"},
		{Index("x_", "results", "exam_id", "e1", "r9"), "r9"},
		{[]byte("noseparator"), ""},
	}

	for _, tt := range tests {
		if got := ID(tt.key); got != tt.expected {
			t.Errorf("ID(%q) = %q, want %q", tt.key, got, tt.expected)
		}
	}
}
