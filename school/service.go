package school

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alvinp540/edutrack/store"
)

// Service exposes the edutrack operations over one store.Backend.
//
// The backend is opened by the caller and passed in; Service never closes it.
type Service struct {
	backend  store.Backend
	resolver *Resolver
	registry *store.Registry
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistry replaces store.DefaultRegistry as the source of references
// checked after deletes.
func WithRegistry(r *store.Registry) Option {
	return func(s *Service) { s.registry = r }
}

// WithResolveObserver reports every resolution strategy attempt to fn.
func WithResolveObserver(fn ResolveObserver) Option {
	return func(s *Service) { s.resolver.observe = fn }
}

// NewService creates a new Service.
func NewService(b store.Backend, opts ...Option) *Service {
	s := &Service{
		backend:  b,
		resolver: NewResolver(b, nil),
		registry: store.DefaultRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolver returns the service's resolver.
func (s *Service) Resolver() *Resolver { return s.resolver }

// Backend returns the underlying backend.
func (s *Service) Backend() store.Backend { return s.backend }

func (s *Service) insert(ctx context.Context, c store.Collection, doc store.Document) (string, error) {
	trimNaturalKey(c, doc)
	if err := s.ensureUnique(ctx, c, doc, ""); err != nil {
		return "", err
	}
	id, err := s.backend.Insert(ctx, c, doc)
	if err != nil {
		return "", fmt.Errorf("add %s: %w", entityName(c), err)
	}
	s.logger.Debug("document added", "collection", c, "id", id)
	return id, nil
}

func (s *Service) list(ctx context.Context, c store.Collection, f store.Filter, order ...store.Ordering) ([]store.Document, error) {
	docs, err := s.backend.FindMany(ctx, c, f, order...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	return docs, nil
}

// update applies set to the record ref resolves to.
func (s *Service) update(ctx context.Context, c store.Collection, ref string, set store.Document) error {
	if len(set) == 0 {
		return invalid("update", "has no fields to change")
	}
	id, err := s.resolver.Resolve(ctx, c, ref)
	if err != nil {
		return noMatch(err)
	}

	trimNaturalKey(c, set)
	if err := s.ensureUnique(ctx, c, set, id); err != nil {
		return err
	}

	n, err := s.backend.UpdateOne(ctx, c, store.ByID(id), set)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", entityName(c), id, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s %s: %w", entityName(c), id, ErrNoMatch)
	}
	s.logger.Debug("document updated", "collection", c, "id", id, "fields", len(set))
	return nil
}

// ensureUnique rejects doc when its natural key is held by a record other
// than except. Concurrent writers can still race past this check.
func (s *Service) ensureUnique(ctx context.Context, c store.Collection, doc store.Document, except string) error {
	field, ok := NaturalKeys[c]
	if !ok {
		return nil
	}
	value, ok := doc[field].(string)
	if !ok {
		return nil
	}
	docs, err := s.backend.FindMany(ctx, c, store.Filter{field: value})
	if err != nil {
		return fmt.Errorf("check %s: %w", field, err)
	}
	for _, d := range docs {
		if d.ID() != except {
			return invalid(field, "%q already exists", value)
		}
	}
	return nil
}

// trimNaturalKey strips surrounding whitespace from the natural key in doc,
// so that stored keys match the trimmed input of lookups and deletes.
func trimNaturalKey(c store.Collection, doc store.Document) {
	field, ok := NaturalKeys[c]
	if !ok {
		return
	}
	if v, ok := doc[field].(string); ok {
		doc[field] = strings.TrimSpace(v)
	}
}

// remove deletes the record ref resolves to and returns the number of
// records removed. References to it are left dangling and logged.
func (s *Service) remove(ctx context.Context, c store.Collection, ref string) (int64, error) {
	id, err := s.resolver.resolveForDelete(ctx, c, ref)
	if err != nil {
		return 0, noMatch(err)
	}

	n, err := s.backend.DeleteMany(ctx, c, store.ByID(id))
	if err != nil {
		return 0, fmt.Errorf("delete %s %s: %w", entityName(c), id, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("delete %s %s: %w", entityName(c), id, ErrNoMatch)
	}
	s.logger.Info("document deleted", "collection", c, "id", id)
	s.warnDangling(ctx, c, id)
	return n, nil
}

// warnDangling logs the children still referencing a deleted parent.
func (s *Service) warnDangling(ctx context.Context, parent store.Collection, id string) {
	for _, rel := range s.registry.ChildrenOf(parent) {
		n, err := s.backend.Count(ctx, rel.Child, store.Filter{rel.Field: id})
		if err != nil {
			s.logger.Warn("failed to count references",
				"collection", rel.Child,
				"field", rel.Field,
				"error", err,
			)
			continue
		}
		if n > 0 {
			s.logger.Warn("dangling references",
				"deleted", parent,
				"id", id,
				"referencedBy", rel.Child,
				"field", rel.Field,
				"count", n,
			)
		}
	}
}

// reference resolves an optional reference for an insert. An empty ref
// yields no field.
func (s *Service) reference(ctx context.Context, doc store.Document, field string, c store.Collection, ref string) error {
	if ref == "" {
		return nil
	}
	id, err := s.resolver.Resolve(ctx, c, ref)
	if err != nil {
		return err
	}
	doc[field] = id
	return nil
}

// patchReference resolves an optional reference for an update. Setting it
// to "" removes the reference.
func (s *Service) patchReference(ctx context.Context, set store.Document, field string, c store.Collection, ref store.Optional[string]) error {
	v, ok := ref.Get()
	if !ok {
		return nil
	}
	if v == "" {
		set[field] = nil
		return nil
	}
	id, err := s.resolver.Resolve(ctx, c, v)
	if err != nil {
		return err
	}
	set[field] = id
	return nil
}
