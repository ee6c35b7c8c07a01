package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/alvinp540/edutrack/store"
)

func TestParseID(t *testing.T) {
	b := &Backend{}
	oid := primitive.NewObjectID()

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"hex", oid.Hex(), oid.Hex(), true},
		{"employee number", "TSC12345", "", false},
		{"uuid", "0b6f2c8e-3c1b-4f4e-9d36-1f0f6e0b7a11", "", false},
		{"23 chars", oid.Hex()[:23], "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := b.ParseID(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseID(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestToFilter_ID(t *testing.T) {
	oid := primitive.NewObjectID()

	filter, ok := toFilter(store.ByID(oid.Hex()))
	if !ok {
		t.Fatal("expected a usable filter")
	}
	if filter["_id"] != oid {
		t.Errorf("expected _id ObjectID, got %#v", filter["_id"])
	}
	if _, ok := filter["id"]; ok {
		t.Error("expected id to be renamed to _id")
	}
}

func TestToFilter_InvalidIDMatchesNothing(t *testing.T) {
	if _, ok := toFilter(store.ByID("MAKI2024001")); ok {
		t.Error("expected an invalid id filter to be unusable")
	}
}

func TestToFilter_References(t *testing.T) {
	oid := primitive.NewObjectID()

	filter, _ := toFilter(store.Filter{
		"student_id": oid.Hex(),
		"date":       "2024-01-08",
		"class_id":   "not-hex",
	})

	if filter["student_id"] != oid {
		t.Errorf("expected student_id ObjectID, got %#v", filter["student_id"])
	}
	if filter["date"] != "2024-01-08" {
		t.Errorf("expected date untouched, got %#v", filter["date"])
	}
	if filter["class_id"] != "not-hex" {
		t.Errorf("expected non-hex reference untouched, got %#v", filter["class_id"])
	}
}

func TestToBSON(t *testing.T) {
	oid := primitive.NewObjectID()

	m := toBSON(store.Document{
		"teacher_id": oid.Hex(),
		"code":       "MATH",
		"name":       "Mathematics",
	})

	if m["teacher_id"] != oid {
		t.Errorf("expected teacher_id ObjectID, got %#v", m["teacher_id"])
	}
	if m["code"] != "MATH" || m["name"] != "Mathematics" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestFieldName(t *testing.T) {
	if fieldName("id") != "_id" {
		t.Errorf("expected _id, got %q", fieldName("id"))
	}
	if fieldName("date") != "date" {
		t.Errorf("expected date, got %q", fieldName("date"))
	}
}
