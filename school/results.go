package school

import (
	"context"

	"github.com/alvinp540/edutrack/store"
)

// GetResult returns the result with primary id id. Results have no natural key.
func (s *Service) GetResult(ctx context.Context, id string) (Result, error) {
	doc, err := s.resolver.Document(ctx, store.Results, id)
	if err != nil {
		return Result{}, err
	}
	return resultFrom(doc), nil
}

// ListResults returns every result, oldest first.
func (s *Service) ListResults(ctx context.Context) ([]Result, error) {
	docs, err := s.list(ctx, store.Results, store.Filter{},
		store.Ordering{Field: store.FieldCreatedAt, Ascending: true})
	if err != nil {
		return nil, err
	}
	return convert(docs, resultFrom), nil
}

// StudentResults returns every result of a student, oldest first.
func (s *Service) StudentResults(ctx context.Context, studentRef string) ([]Result, error) {
	studentID, err := s.resolver.Resolve(ctx, store.Students, studentRef)
	if err != nil {
		return nil, err
	}
	return s.resultsOf(ctx, studentID)
}

func (s *Service) resultsOf(ctx context.Context, studentID string) ([]Result, error) {
	docs, err := s.list(ctx, store.Results, store.Filter{"student_id": studentID},
		store.Ordering{Field: store.FieldCreatedAt, Ascending: true})
	if err != nil {
		return nil, err
	}
	return convert(docs, resultFrom), nil
}

// UpdateResult applies the set fields of p. A new score rewrites the grade
// in the same write.
func (s *Service) UpdateResult(ctx context.Context, id string, p ResultPatch) error {
	set, err := p.document()
	if err != nil {
		return err
	}
	return s.update(ctx, store.Results, id, set)
}

// DeleteResult deletes the result with primary id id.
func (s *Service) DeleteResult(ctx context.Context, id string) (int64, error) {
	return s.remove(ctx, store.Results, id)
}
