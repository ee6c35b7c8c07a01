package stream_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/alvinp540/edutrack/store"
	"github.com/alvinp540/edutrack/store/badger"
	"github.com/alvinp540/edutrack/stream"
)

const resultsARN = "arn:aws:dynamodb:eu-west-1:123456789012:table/results/stream/2024-01-08T00:00:00.000"

func newBackend(t *testing.T) *badger.Backend {
	t.Helper()
	b, err := badger.Open(badger.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return b
}

func insertResult(t *testing.T, b store.Backend, score float64, grade string) string {
	t.Helper()
	id, err := b.Insert(context.Background(), store.Results, store.Document{
		"student_id": "s1",
		"exam_id":    "e1",
		"subject_id": "m1",
		"score":      score,
		"grade":      grade,
	})
	if err != nil {
		t.Fatalf("insert result: %v", err)
	}
	return id
}

func resultEvent(name, id, score, grade string) events.DynamoDBEventRecord {
	image := map[string]events.DynamoDBAttributeValue{
		"id":    events.NewStringAttribute(id),
		"score": events.NewNumberAttribute(score),
	}
	if grade != "" {
		image["grade"] = events.NewStringAttribute(grade)
	}
	return events.DynamoDBEventRecord{
		EventID:        "evt-" + id,
		EventName:      name,
		EventSourceArn: resultsARN,
		Change: events.DynamoDBStreamRecord{
			Keys:     map[string]events.DynamoDBAttributeValue{"id": events.NewStringAttribute(id)},
			NewImage: image,
		},
	}
}

func gradeOf(t *testing.T, b store.Backend, id string) string {
	t.Helper()
	doc, err := b.FindOne(context.Background(), store.Results, store.ByID(id))
	if err != nil {
		t.Fatalf("find result: %v", err)
	}
	return doc.String("grade")
}

func TestNewHandler(t *testing.T) {
	// Test with nil backend and logger (should not panic)
	h := stream.NewHandler(nil, "", nil)
	if h == nil {
		t.Fatal("expected non-nil Handler")
	}
}

func TestHandleGradeSync_EmptyEvent(t *testing.T) {
	h := stream.NewHandler(nil, "results", nil)

	if err := h.HandleGradeSync(context.Background(), events.DynamoDBEvent{}); err != nil {
		t.Errorf("expected nil error for empty event, got %v", err)
	}
}

func TestHandleGradeSync_CorrectsInconsistentGrades(t *testing.T) {
	b := newBackend(t)
	h := stream.NewHandler(b, "results", nil)

	stale := insertResult(t, b, 65, "A")
	missing := insertResult(t, b, 92, "")
	fine := insertResult(t, b, 81, "B")

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		resultEvent("MODIFY", stale, "65", "A"),
		resultEvent("INSERT", missing, "92", ""),
		resultEvent("INSERT", fine, "81", "B"),
	}}

	if err := h.HandleGradeSync(context.Background(), event); err != nil {
		t.Fatalf("HandleGradeSync: %v", err)
	}

	tests := []struct {
		name string
		id   string
		want string
	}{
		{"stale grade rewritten", stale, "D"},
		{"missing grade filled", missing, "A"},
		{"consistent grade kept", fine, "B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gradeOf(t, b, tt.id); got != tt.want {
				t.Errorf("grade = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleGradeSync_IgnoresOtherTables(t *testing.T) {
	b := newBackend(t)
	h := stream.NewHandler(b, "results", nil)
	id := insertResult(t, b, 40, "A")

	record := resultEvent("MODIFY", id, "40", "A")
	record.EventSourceArn = "arn:aws:dynamodb:eu-west-1:123456789012:table/students/stream/2024-01-08T00:00:00.000"

	if err := h.HandleGradeSync(context.Background(), events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{record}}); err != nil {
		t.Fatalf("HandleGradeSync: %v", err)
	}
	if got := gradeOf(t, b, id); got != "A" {
		t.Errorf("expected grade untouched, got %q", got)
	}
}

func TestHandleGradeSync_DeletedResult(t *testing.T) {
	b := newBackend(t)
	h := stream.NewHandler(b, "results", nil)
	id := insertResult(t, b, 40, "A")
	if _, err := b.DeleteMany(context.Background(), store.Results, store.ByID(id)); err != nil {
		t.Fatalf("delete: %v", err)
	}

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{resultEvent("MODIFY", id, "40", "A")}}
	if err := h.HandleGradeSync(context.Background(), event); err != nil {
		t.Errorf("expected a deleted result to be skipped, got %v", err)
	}
}

func TestHandleGradeSync_StoreErrorIsReturned(t *testing.T) {
	b := newBackend(t)
	h := stream.NewHandler(b, "results", nil)
	id := insertResult(t, b, 40, "A")
	_ = b.Close(context.Background())

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{resultEvent("MODIFY", id, "40", "A")}}
	err := h.HandleGradeSync(context.Background(), event)
	if !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable so the batch is retried, got %v", err)
	}
}
