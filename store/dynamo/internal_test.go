package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/alvinp540/edutrack/store"
)

// --- buildFilter Tests ---

func TestBuildFilter_Empty(t *testing.T) {
	cond := buildFilter(store.Filter{})
	if cond.expr != "" {
		t.Errorf("expected empty expression, got %q", cond.expr)
	}
	if len(cond.names) != 0 || len(cond.values) != 0 {
		t.Errorf("expected no placeholders, got %v %v", cond.names, cond.values)
	}
}

func TestBuildFilter_SortedFields(t *testing.T) {
	cond := buildFilter(store.Filter{
		"student_id": "s1",
		"date":       "2024-01-08",
	})

	expected := "#f0 = :v0 AND #f1 = :v1"
	if cond.expr != expected {
		t.Errorf("expected %q, got %q", expected, cond.expr)
	}
	if cond.names["#f0"] != "date" {
		t.Errorf("expected #f0 -> date, got %q", cond.names["#f0"])
	}
	if cond.names["#f1"] != "student_id" {
		t.Errorf("expected #f1 -> student_id, got %q", cond.names["#f1"])
	}
	if v, ok := cond.values[":v1"].(*types.AttributeValueMemberS); !ok || v.Value != "s1" {
		t.Errorf("expected :v1 = s1, got %#v", cond.values[":v1"])
	}
}

func TestBuildFilter_NilValue(t *testing.T) {
	cond := buildFilter(store.Filter{"class_id": nil})

	if cond.expr != "attribute_not_exists(#f0)" {
		t.Errorf("expected attribute_not_exists clause, got %q", cond.expr)
	}
	if len(cond.values) != 0 {
		t.Errorf("expected no values for nil condition, got %d", len(cond.values))
	}
}

func TestBuildFilter_Number(t *testing.T) {
	cond := buildFilter(store.Filter{"score": 92.5})

	if v, ok := cond.values[":v0"].(*types.AttributeValueMemberN); !ok || v.Value != "92.5" {
		t.Errorf("expected :v0 = N(92.5), got %#v", cond.values[":v0"])
	}
}

// --- buildUpdate Tests ---

func TestBuildUpdate_SetOnly(t *testing.T) {
	upd, err := buildUpdate(store.Document{"score": 65.0, "grade": "D"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "SET #attr0 = :val0, #attr1 = :val1"
	if upd.expr != expected {
		t.Errorf("expected %q, got %q", expected, upd.expr)
	}
	if upd.names["#attr0"] != "grade" || upd.names["#attr1"] != "score" {
		t.Errorf("unexpected names %v", upd.names)
	}
}

func TestBuildUpdate_SetAndRemove(t *testing.T) {
	upd, err := buildUpdate(store.Document{"phone": "0700", "class_id": nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "SET #attr1 = :val1 REMOVE #attr0"
	if upd.expr != expected {
		t.Errorf("expected %q, got %q", expected, upd.expr)
	}
	if _, ok := upd.values[":val0"]; ok {
		t.Error("expected no value placeholder for removed attribute")
	}
}

func TestBuildUpdate_RemoveOnly(t *testing.T) {
	upd, err := buildUpdate(store.Document{"remarks": nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upd.expr != "REMOVE #attr0" {
		t.Errorf("expected REMOVE clause, got %q", upd.expr)
	}
	if upd.values != nil {
		t.Errorf("expected nil values map, got %v", upd.values)
	}
}

// --- unmarshalDocument Tests ---

func TestUnmarshalDocument(t *testing.T) {
	raw := map[string]types.AttributeValue{
		"id":         &types.AttributeValueMemberS{Value: "0b6f2c8e-3c1b-4f4e-9d36-1f0f6e0b7a11"},
		"score":      &types.AttributeValueMemberN{Value: "92"},
		"remarks":    &types.AttributeValueMemberNULL{Value: true},
		"created_at": &types.AttributeValueMemberS{Value: "2024-01-01T00:00:00Z"},
	}

	doc := unmarshalDocument(raw)

	if doc.ID() != "0b6f2c8e-3c1b-4f4e-9d36-1f0f6e0b7a11" {
		t.Errorf("unexpected id %q", doc.ID())
	}
	if score, ok := doc.Float("score"); !ok || score != 92 {
		t.Errorf("expected score 92, got %v (%v)", score, ok)
	}
	if doc["remarks"] != nil {
		t.Errorf("expected nil remarks, got %#v", doc["remarks"])
	}
	if doc.Time("created_at").Year() != 2024 {
		t.Errorf("expected created_at in 2024, got %v", doc.Time("created_at"))
	}
}

// --- Backend Tests ---

func TestParseID(t *testing.T) {
	b := New(nil, store.DefaultConfig())

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"canonical", "0b6f2c8e-3c1b-4f4e-9d36-1f0f6e0b7a11", "0b6f2c8e-3c1b-4f4e-9d36-1f0f6e0b7a11", true},
		{"uppercase", "0B6F2C8E-3C1B-4F4E-9D36-1F0F6E0B7A11", "0b6f2c8e-3c1b-4f4e-9d36-1f0f6e0b7a11", true},
		{"admission number", "MAKI2024001", "", false},
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

func TestIndexQuery(t *testing.T) {
	b := New(nil, store.DefaultConfig())

	q, ok := b.indexQuery("attendance", store.Attendance, store.Filter{
		"student_id": "s1",
		"date":       "2024-01-08",
	})
	if !ok {
		t.Fatal("expected an index query for student_id")
	}
	if *q.IndexName != "student_id-index" {
		t.Errorf("expected student_id-index, got %q", *q.IndexName)
	}
	if *q.KeyConditionExpression != "#pk = :pk" {
		t.Errorf("unexpected key condition %q", *q.KeyConditionExpression)
	}
	if q.FilterExpression == nil || *q.FilterExpression != "#f0 = :v0" {
		t.Errorf("expected date filter, got %v", q.FilterExpression)
	}
	if q.ExpressionAttributeNames["#f0"] != "date" {
		t.Errorf("expected #f0 -> date, got %q", q.ExpressionAttributeNames["#f0"])
	}
}

func TestIndexQuery_NotIndexed(t *testing.T) {
	b := New(nil, store.DefaultConfig())

	if _, ok := b.indexQuery("teachers", store.Teachers, store.Filter{"department": "Sciences"}); ok {
		t.Error("expected no index query for an unindexed field")
	}
}

func TestTable_UnknownCollection(t *testing.T) {
	b := New(nil, store.Config{TablePrefix: "edutrack_"})

	if name, err := b.table(store.Students); err != nil || name != "edutrack_students" {
		t.Errorf("expected edutrack_students, got %q (%v)", name, err)
	}
	if _, err := b.table("lessons"); err == nil {
		t.Error("expected error for unknown collection")
	}
}
