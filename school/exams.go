package school

import (
	"context"

	"github.com/alvinp540/edutrack/store"
)

// AddExam stores a new exam for a class and returns its id.
func (s *Service) AddExam(ctx context.Context, in NewExam) (string, error) {
	if err := validateStruct(in); err != nil {
		return "", err
	}
	doc := store.Document{"name": in.Name, "date": in.Date}
	if err := s.reference(ctx, doc, "class_id", store.Classes, in.Class); err != nil {
		return "", err
	}
	return s.insert(ctx, store.Exams, doc)
}

// GetExam returns the exam ref (id or name) refers to.
func (s *Service) GetExam(ctx context.Context, ref string) (Exam, error) {
	doc, err := s.resolver.Document(ctx, store.Exams, ref)
	if err != nil {
		return Exam{}, err
	}
	return examFrom(doc), nil
}

// ListExams returns every exam ordered by date, then name.
func (s *Service) ListExams(ctx context.Context) ([]Exam, error) {
	docs, err := s.list(ctx, store.Exams, store.Filter{},
		store.Ordering{Field: "date", Ascending: true},
		store.Ordering{Field: "name", Ascending: true})
	if err != nil {
		return nil, err
	}
	return convert(docs, examFrom), nil
}

// UpdateExam applies the set fields of p. The class cannot be removed.
func (s *Service) UpdateExam(ctx context.Context, ref string, p ExamPatch) error {
	if err := checkSet(
		optionalCheck{"name", p.Name, naturalTag},
		optionalCheck{"date", p.Date, "required,datetime=2006-01-02"},
		optionalCheck{"class", p.Class, notBlankTag},
	); err != nil {
		return err
	}
	set := store.Document{}
	p.Name.ApplyTo(set, "name")
	p.Date.ApplyTo(set, "date")
	if err := s.patchReference(ctx, set, "class_id", store.Classes, p.Class); err != nil {
		return err
	}
	return s.update(ctx, store.Exams, ref, set)
}

// DeleteExam deletes an exam. Results referencing it keep the stale id.
func (s *Service) DeleteExam(ctx context.Context, ref string) (int64, error) {
	return s.remove(ctx, store.Exams, ref)
}
