package store

// Relationship records that documents of Child reference documents of Parent
// through Field.
type Relationship struct {
	// Parent is the referenced collection (e.g., teachers).
	Parent Collection

	// Child is the referencing collection (e.g., classes).
	Child Collection

	// Field is the attribute in Child holding the parent's id (e.g., "class_teacher_id").
	Field string
}

// Registry holds all known references between collections. References are
// not enforced: deleting a parent leaves its children pointing at a missing id.
type Registry struct {
	relationships []Relationship
	byParent      map[Collection][]Relationship
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		relationships: []Relationship{},
		byParent:      make(map[Collection][]Relationship),
	}
}

// DefaultRegistry returns the references of the edutrack data model.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Relationship{Parent: Teachers, Child: Classes, Field: "class_teacher_id"})
	r.Register(Relationship{Parent: Teachers, Child: Subjects, Field: "teacher_id"})
	r.Register(Relationship{Parent: Classes, Child: Students, Field: "class_id"})
	r.Register(Relationship{Parent: Classes, Child: Exams, Field: "class_id"})
	r.Register(Relationship{Parent: Students, Child: Attendance, Field: "student_id"})
	r.Register(Relationship{Parent: Students, Child: Results, Field: "student_id"})
	r.Register(Relationship{Parent: Exams, Child: Results, Field: "exam_id"})
	r.Register(Relationship{Parent: Subjects, Child: Results, Field: "subject_id"})
	return r
}

// Register adds a relationship to the registry.
func (r *Registry) Register(rel Relationship) {
	r.relationships = append(r.relationships, rel)
	r.byParent[rel.Parent] = append(r.byParent[rel.Parent], rel)
}

// ChildrenOf returns all relationships in which parent is referenced.
func (r *Registry) ChildrenOf(parent Collection) []Relationship {
	return r.byParent[parent]
}

// AllRelationships returns all registered relationships.
func (r *Registry) AllRelationships() []Relationship {
	return r.relationships
}

// HasChildren returns true if any collection references parent.
func (r *Registry) HasChildren(parent Collection) bool {
	return len(r.byParent[parent]) > 0
}
