package school

import (
	"context"

	"github.com/alvinp540/edutrack/store"
)

// AddClass stores a new class and returns its id.
func (s *Service) AddClass(ctx context.Context, in NewClass) (string, error) {
	if err := validateStruct(in); err != nil {
		return "", err
	}
	doc := store.Document{"name": in.Name, "form": in.Form}
	if err := s.reference(ctx, doc, "class_teacher_id", store.Teachers, in.ClassTeacher); err != nil {
		return "", err
	}
	return s.insert(ctx, store.Classes, doc)
}

// GetClass returns the class ref (id or name) refers to.
func (s *Service) GetClass(ctx context.Context, ref string) (Class, error) {
	doc, err := s.resolver.Document(ctx, store.Classes, ref)
	if err != nil {
		return Class{}, err
	}
	return classFrom(doc), nil
}

// ListClasses returns every class ordered by name.
func (s *Service) ListClasses(ctx context.Context) ([]Class, error) {
	docs, err := s.list(ctx, store.Classes, store.Filter{},
		store.Ordering{Field: "name", Ascending: true})
	if err != nil {
		return nil, err
	}
	return convert(docs, classFrom), nil
}

// UpdateClass applies the set fields of p.
func (s *Service) UpdateClass(ctx context.Context, ref string, p ClassPatch) error {
	if err := checkSet(
		optionalCheck{"name", p.Name, naturalTag},
		optionalCheck{"form", p.Form, notBlankTag},
	); err != nil {
		return err
	}
	set := store.Document{}
	p.Name.ApplyTo(set, "name")
	p.Form.ApplyTo(set, "form")
	if err := s.patchReference(ctx, set, "class_teacher_id", store.Teachers, p.ClassTeacher); err != nil {
		return err
	}
	return s.update(ctx, store.Classes, ref, set)
}

// DeleteClass deletes a class. Students and exams referencing it keep the
// stale id.
func (s *Service) DeleteClass(ctx context.Context, ref string) (int64, error) {
	return s.remove(ctx, store.Classes, ref)
}
