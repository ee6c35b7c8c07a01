package school

import (
	"context"

	"github.com/alvinp540/edutrack/store"
)

// AddSubject stores a new subject and returns its id.
func (s *Service) AddSubject(ctx context.Context, in NewSubject) (string, error) {
	if err := validateStruct(in); err != nil {
		return "", err
	}
	doc := store.Document{"code": in.Code, "name": in.Name}
	if err := s.reference(ctx, doc, "teacher_id", store.Teachers, in.Teacher); err != nil {
		return "", err
	}
	return s.insert(ctx, store.Subjects, doc)
}

// GetSubject returns the subject ref (id or code) refers to.
func (s *Service) GetSubject(ctx context.Context, ref string) (Subject, error) {
	doc, err := s.resolver.Document(ctx, store.Subjects, ref)
	if err != nil {
		return Subject{}, err
	}
	return subjectFrom(doc), nil
}

// ListSubjects returns every subject ordered by code.
func (s *Service) ListSubjects(ctx context.Context) ([]Subject, error) {
	docs, err := s.list(ctx, store.Subjects, store.Filter{},
		store.Ordering{Field: "code", Ascending: true})
	if err != nil {
		return nil, err
	}
	return convert(docs, subjectFrom), nil
}

// UpdateSubject applies the set fields of p.
func (s *Service) UpdateSubject(ctx context.Context, ref string, p SubjectPatch) error {
	if err := checkSet(
		optionalCheck{"code", p.Code, naturalTag},
		optionalCheck{"name", p.Name, notBlankTag},
	); err != nil {
		return err
	}
	set := store.Document{}
	p.Code.ApplyTo(set, "code")
	p.Name.ApplyTo(set, "name")
	if err := s.patchReference(ctx, set, "teacher_id", store.Teachers, p.Teacher); err != nil {
		return err
	}
	return s.update(ctx, store.Subjects, ref, set)
}

// DeleteSubject deletes a subject. Results referencing it keep the stale id.
func (s *Service) DeleteSubject(ctx context.Context, ref string) (int64, error) {
	return s.remove(ctx, store.Subjects, ref)
}
