package store_test

import (
	"testing"

	"github.com/alvinp540/edutrack/store"
)

func TestNewRegistry(t *testing.T) {
	r := store.NewRegistry()
	if r == nil {
		t.Fatal("expected non-nil Registry")
	}
	if len(r.AllRelationships()) != 0 {
		t.Errorf("expected empty registry, got %d relationships", len(r.AllRelationships()))
	}
}

func TestRegistry_Register(t *testing.T) {
	r := store.NewRegistry()

	r.Register(store.Relationship{
		Parent: store.Teachers,
		Child:  store.Classes,
		Field:  "class_teacher_id",
	})

	rels := r.AllRelationships()
	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(rels))
	}
	if rels[0].Parent != store.Teachers {
		t.Errorf("expected Parent 'teachers', got %q", rels[0].Parent)
	}
	if rels[0].Field != "class_teacher_id" {
		t.Errorf("expected Field 'class_teacher_id', got %q", rels[0].Field)
	}
}

func TestRegistry_ChildrenOf(t *testing.T) {
	r := store.NewRegistry()

	r.Register(store.Relationship{Parent: store.Classes, Child: store.Students, Field: "class_id"})
	r.Register(store.Relationship{Parent: store.Students, Child: store.Results, Field: "student_id"})

	classChildren := r.ChildrenOf(store.Classes)
	if len(classChildren) != 1 {
		t.Fatalf("expected 1 child for classes, got %d", len(classChildren))
	}
	if classChildren[0].Child != store.Students {
		t.Errorf("expected child 'students', got %q", classChildren[0].Child)
	}

	studentChildren := r.ChildrenOf(store.Students)
	if len(studentChildren) != 1 || studentChildren[0].Child != store.Results {
		t.Errorf("expected results as the only child of students, got %v", studentChildren)
	}

	if len(r.ChildrenOf(store.Results)) != 0 {
		t.Errorf("expected 0 children for results, got %d", len(r.ChildrenOf(store.Results)))
	}
}

func TestRegistry_HasChildren(t *testing.T) {
	r := store.NewRegistry()
	r.Register(store.Relationship{Parent: store.Exams, Child: store.Results, Field: "exam_id"})

	if !r.HasChildren(store.Exams) {
		t.Error("expected exams to have children")
	}
	if r.HasChildren(store.Results) {
		t.Error("expected results to have no children")
	}
	if r.HasChildren("") {
		t.Error("expected empty collection to have no children")
	}
}

func TestRegistry_AllRelationships_Order(t *testing.T) {
	r := store.NewRegistry()
	fields := []string{"student_id", "exam_id", "subject_id"}
	for _, f := range fields {
		r.Register(store.Relationship{Parent: store.Students, Child: store.Results, Field: f})
	}

	rels := r.AllRelationships()
	for i, rel := range rels {
		if rel.Field != fields[i] {
			t.Errorf("position %d: expected %q, got %q", i, fields[i], rel.Field)
		}
	}
}

func TestRegistry_Register_DuplicateRelationship(t *testing.T) {
	r := store.NewRegistry()
	rel := store.Relationship{Parent: store.Teachers, Child: store.Subjects, Field: "teacher_id"}

	r.Register(rel)
	r.Register(rel)

	// Duplicates are kept; registration does not dedupe
	if len(r.ChildrenOf(store.Teachers)) != 2 {
		t.Errorf("expected 2 relationships, got %d", len(r.ChildrenOf(store.Teachers)))
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := store.DefaultRegistry()

	tests := []struct {
		parent   store.Collection
		expected []string
	}{
		{store.Teachers, []string{"classes.class_teacher_id", "subjects.teacher_id"}},
		{store.Classes, []string{"students.class_id", "exams.class_id"}},
		{store.Students, []string{"attendance.student_id", "results.student_id"}},
		{store.Subjects, []string{"results.subject_id"}},
		{store.Exams, []string{"results.exam_id"}},
		{store.Attendance, nil},
		{store.Results, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.parent), func(t *testing.T) {
			children := r.ChildrenOf(tt.parent)
			if len(children) != len(tt.expected) {
				t.Fatalf("expected %d references, got %d", len(tt.expected), len(children))
			}
			for i, rel := range children {
				got := string(rel.Child) + "." + rel.Field
				if got != tt.expected[i] {
					t.Errorf("position %d: expected %q, got %q", i, tt.expected[i], got)
				}
			}
		})
	}

	if len(r.AllRelationships()) != 8 {
		t.Errorf("expected 8 relationships, got %d", len(r.AllRelationships()))
	}
}

func TestDefaultRegistry_FieldsAreIndexed(t *testing.T) {
	cfg := store.DefaultConfig()
	for _, rel := range store.DefaultRegistry().AllRelationships() {
		if !cfg.IsIndexed(rel.Child, rel.Field) {
			t.Errorf("reference %s.%s has no index", rel.Child, rel.Field)
		}
	}
}
