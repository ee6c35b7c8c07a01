package school

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alvinp540/edutrack/store"
)

// compositeSeparator splits a composite attendance key "<student>|<date>".
const compositeSeparator = "|"

// Strategy names reported to a ResolveObserver.
const (
	StrategyPrimaryID  = "primary_id"
	StrategyNaturalKey = "natural_key"
	StrategyComposite  = "composite"
)

// Resolution outcomes reported to a ResolveObserver.
const (
	OutcomeHit       = "hit"
	OutcomeMiss      = "miss"
	OutcomeAmbiguous = "ambiguous"
	OutcomeError     = "error"
)

// NaturalKeys maps each collection with a natural key to its field.
// Attendance and results have none.
var NaturalKeys = map[store.Collection]string{
	store.Teachers: "employee_number",
	store.Classes:  "name",
	store.Students: "admission_number",
	store.Subjects: "code",
	store.Exams:    "name",
}

// ResolveObserver is called once for every strategy attempted.
type ResolveObserver func(c store.Collection, strategy, outcome string)

// strategy is one lookup attempt. find returns nil, nil when the input does
// not apply or nothing matched, so that the next strategy runs.
type strategy struct {
	name string
	find func(ctx context.Context, input string) (store.Document, error)
}

// Resolver turns caller input (a primary id or a natural key) into a stored
// document.
//
// Strategies run in a fixed order and stop at the first hit: primary id,
// then natural key (or, for attendance, the composite student|date key). A
// natural key that happens to look like a primary id is only found when no
// record has that primary id.
type Resolver struct {
	backend store.Backend
	observe ResolveObserver
}

// NewResolver creates a Resolver over b. observe may be nil.
func NewResolver(b store.Backend, observe ResolveObserver) *Resolver {
	return &Resolver{backend: b, observe: observe}
}

// Resolve returns the primary id of the record input refers to.
func (r *Resolver) Resolve(ctx context.Context, c store.Collection, input string) (string, error) {
	doc, err := r.Document(ctx, c, input)
	if err != nil {
		return "", err
	}
	return doc.ID(), nil
}

// Document returns the record input refers to.
func (r *Resolver) Document(ctx context.Context, c store.Collection, input string) (store.Document, error) {
	return r.run(ctx, c, input, r.strategies(c, false))
}

// resolveForDelete is Resolve with surrounding whitespace trimmed before the
// natural key attempt.
func (r *Resolver) resolveForDelete(ctx context.Context, c store.Collection, input string) (string, error) {
	doc, err := r.run(ctx, c, input, r.strategies(c, true))
	if err != nil {
		return "", err
	}
	return doc.ID(), nil
}

func (r *Resolver) run(ctx context.Context, c store.Collection, input string, strategies []strategy) (store.Document, error) {
	if strings.TrimSpace(input) == "" {
		return nil, invalid(entityName(c), "reference is required")
	}

	for _, s := range strategies {
		doc, err := s.find(ctx, input)
		switch {
		case err != nil:
			outcome := OutcomeError
			var amb *AmbiguousError
			if errors.As(err, &amb) {
				outcome = OutcomeAmbiguous
			}
			r.report(c, s.name, outcome)
			return nil, err
		case doc != nil:
			r.report(c, s.name, OutcomeHit)
			return doc, nil
		}
		r.report(c, s.name, OutcomeMiss)
	}
	return nil, &NotFoundError{Collection: c, Ref: input}
}

func (r *Resolver) report(c store.Collection, strategy, outcome string) {
	if r.observe != nil {
		r.observe(c, strategy, outcome)
	}
}

func (r *Resolver) strategies(c store.Collection, trim bool) []strategy {
	out := []strategy{r.byPrimaryID(c)}
	if field, ok := NaturalKeys[c]; ok {
		out = append(out, r.byNaturalKey(c, field, trim))
	}
	if c == store.Attendance {
		out = append(out, r.byComposite(trim))
	}
	return out
}

func (r *Resolver) byPrimaryID(c store.Collection) strategy {
	return strategy{
		name: StrategyPrimaryID,
		find: func(ctx context.Context, input string) (store.Document, error) {
			id, ok := r.backend.ParseID(input)
			if !ok {
				return nil, nil
			}
			doc, err := r.backend.FindOne(ctx, c, store.ByID(id))
			if errors.Is(err, store.ErrNotFound) {
				return nil, nil
			}
			return doc, err
		},
	}
}

func (r *Resolver) byNaturalKey(c store.Collection, field string, trim bool) strategy {
	return strategy{
		name: StrategyNaturalKey,
		find: func(ctx context.Context, input string) (store.Document, error) {
			if trim {
				input = strings.TrimSpace(input)
			}
			return r.unique(ctx, c, store.Filter{field: input}, field, input)
		},
	}
}

// byComposite resolves "<student ref>|<YYYY-MM-DD>" by resolving the
// student, parsing the date and looking up the (student_id, date) pair.
func (r *Resolver) byComposite(trim bool) strategy {
	return strategy{
		name: StrategyComposite,
		find: func(ctx context.Context, input string) (store.Document, error) {
			studentRef, date, ok := strings.Cut(input, compositeSeparator)
			if !ok {
				return nil, nil
			}
			if trim {
				studentRef = strings.TrimSpace(studentRef)
				date = strings.TrimSpace(date)
			}
			if strings.TrimSpace(studentRef) == "" || strings.TrimSpace(date) == "" {
				return nil, invalid("attendance", "key %q must have the form <student>|<YYYY-MM-DD>", input)
			}

			student, err := r.run(ctx, store.Students, studentRef, r.strategies(store.Students, trim))
			if err != nil {
				return nil, err
			}
			if _, err := time.Parse(dateLayout, date); err != nil {
				return nil, invalid("date", "%q is not a YYYY-MM-DD date", date)
			}

			filter := store.Filter{"student_id": student.ID(), "date": date}
			return r.unique(ctx, store.Attendance, filter, "student|date", input)
		},
	}
}

// unique returns the only document matching f, nil when none does and an
// *AmbiguousError when several do.
func (r *Resolver) unique(ctx context.Context, c store.Collection, f store.Filter, field, value string) (store.Document, error) {
	docs, err := r.backend.FindMany(ctx, c, f)
	if err != nil {
		return nil, err
	}
	switch len(docs) {
	case 0:
		return nil, nil
	case 1:
		return docs[0], nil
	}
	return nil, &AmbiguousError{Collection: c, Field: field, Value: value, Matches: len(docs)}
}
