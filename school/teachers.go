package school

import (
	"context"

	"github.com/alvinp540/edutrack/store"
)

// AddTeacher stores a new teacher and returns its id.
func (s *Service) AddTeacher(ctx context.Context, in NewTeacher) (string, error) {
	if err := validateStruct(in); err != nil {
		return "", err
	}
	return s.insert(ctx, store.Teachers, in.document())
}

// GetTeacher returns the teacher ref (id or employee number) refers to.
func (s *Service) GetTeacher(ctx context.Context, ref string) (Teacher, error) {
	doc, err := s.resolver.Document(ctx, store.Teachers, ref)
	if err != nil {
		return Teacher{}, err
	}
	return teacherFrom(doc), nil
}

// ListTeachers returns every teacher ordered by employee number.
func (s *Service) ListTeachers(ctx context.Context) ([]Teacher, error) {
	docs, err := s.list(ctx, store.Teachers, store.Filter{},
		store.Ordering{Field: "employee_number", Ascending: true})
	if err != nil {
		return nil, err
	}
	return convert(docs, teacherFrom), nil
}

// UpdateTeacher applies the set fields of p.
func (s *Service) UpdateTeacher(ctx context.Context, ref string, p TeacherPatch) error {
	set, err := p.document()
	if err != nil {
		return err
	}
	return s.update(ctx, store.Teachers, ref, set)
}

// DeleteTeacher deletes a teacher. Classes and subjects referencing it keep
// the stale id.
func (s *Service) DeleteTeacher(ctx context.Context, ref string) (int64, error) {
	return s.remove(ctx, store.Teachers, ref)
}
