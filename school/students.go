package school

import (
	"context"

	"github.com/alvinp540/edutrack/store"
)

// AddStudent stores a new student and returns its id.
func (s *Service) AddStudent(ctx context.Context, in NewStudent) (string, error) {
	if err := validateStruct(in); err != nil {
		return "", err
	}
	doc := compact(store.Document{
		"admission_number": in.AdmissionNumber,
		"first_name":       in.FirstName,
		"last_name":        in.LastName,
		"gender":           in.Gender,
		"date_of_birth":    in.DateOfBirth,
		"parent_phone":     in.ParentPhone,
	})
	if err := s.reference(ctx, doc, "class_id", store.Classes, in.Class); err != nil {
		return "", err
	}
	return s.insert(ctx, store.Students, doc)
}

// GetStudent returns the student ref (id or admission number) refers to.
func (s *Service) GetStudent(ctx context.Context, ref string) (Student, error) {
	doc, err := s.resolver.Document(ctx, store.Students, ref)
	if err != nil {
		return Student{}, err
	}
	return studentFrom(doc), nil
}

// ListStudents returns every student ordered by admission number.
func (s *Service) ListStudents(ctx context.Context) ([]Student, error) {
	docs, err := s.list(ctx, store.Students, store.Filter{},
		store.Ordering{Field: "admission_number", Ascending: true})
	if err != nil {
		return nil, err
	}
	return convert(docs, studentFrom), nil
}

// UpdateStudent applies the set fields of p.
func (s *Service) UpdateStudent(ctx context.Context, ref string, p StudentPatch) error {
	if err := checkSet(
		optionalCheck{"admission_number", p.AdmissionNumber, naturalTag},
		optionalCheck{"first_name", p.FirstName, notBlankTag},
		optionalCheck{"last_name", p.LastName, notBlankTag},
		optionalCheck{"date_of_birth", p.DateOfBirth, "omitempty,datetime=2006-01-02"},
	); err != nil {
		return err
	}
	set := store.Document{}
	p.AdmissionNumber.ApplyTo(set, "admission_number")
	p.FirstName.ApplyTo(set, "first_name")
	p.LastName.ApplyTo(set, "last_name")
	p.Gender.ApplyTo(set, "gender")
	p.DateOfBirth.ApplyTo(set, "date_of_birth")
	p.ParentPhone.ApplyTo(set, "parent_phone")
	if err := s.patchReference(ctx, set, "class_id", store.Classes, p.Class); err != nil {
		return err
	}
	return s.update(ctx, store.Students, ref, set)
}

// DeleteStudent deletes a student. Their attendance and results are kept.
func (s *Service) DeleteStudent(ctx context.Context, ref string) (int64, error) {
	return s.remove(ctx, store.Students, ref)
}
