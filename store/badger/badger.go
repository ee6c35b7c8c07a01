// Package badger implements store.Backend on an embedded BadgerDB.
//
// Documents are stored as BSON under keys.Document. Every field listed in
// store.Config.Indexes with a string value also gets a keys.Index entry, so
// natural-key and reference lookups avoid a full collection scan.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/alvinp540/edutrack/internal/keys"
	"github.com/alvinp540/edutrack/store"
	"github.com/alvinp540/edutrack/store/internal/bsondoc"
)

const backendName = "badger"

// maxConflictRetries bounds how often a read-modify-write transaction is
// retried after badger.ErrConflict.
const maxConflictRetries = 3

// Options configures Open.
type Options struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory; nothing is written to disk.
	InMemory bool

	// Logger receives badger's internal log output. Nil discards it.
	Logger badger.Logger

	Store store.Config
}

// Backend stores documents in a BadgerDB instance.
type Backend struct {
	db     *badger.DB
	config store.Config
	now    func() time.Time
}

// Open opens (or creates) the database described by opts.
func Open(opts Options) (*Backend, error) {
	bopts := badger.DefaultOptions(opts.Path).WithLogger(opts.Logger)
	if opts.InMemory {
		bopts = bopts.WithDir("").WithValueDir("").WithInMemory(true)
	} else if opts.Path == "" {
		return nil, errors.New("badger: path is required unless in-memory")
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, store.Unavailable(backendName, "Open", "", err)
	}
	return &Backend{
		db:     db,
		config: opts.Store.WithDefaults(),
		now:    time.Now,
	}, nil
}

// Name implements store.Backend.
func (b *Backend) Name() string { return backendName }

// ParseID accepts UUIDs and returns their canonical lowercase form.
func (b *Backend) ParseID(s string) (string, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func (b *Backend) prefix(c store.Collection) (string, error) {
	if !store.Known(c) {
		return "", fmt.Errorf("%w: %s", store.ErrUnknownCollection, c)
	}
	return b.config.TablePrefix, nil
}

// Insert implements store.Backend. created_at is truncated to milliseconds,
// the precision of a BSON datetime.
func (b *Backend) Insert(ctx context.Context, c store.Collection, doc store.Document) (string, error) {
	prefix, err := b.prefix(c)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	stored := store.Settable(doc)
	stored[store.FieldID] = id
	stored[store.FieldCreatedAt] = b.now().UTC().Truncate(time.Millisecond)

	err = b.update(ctx, func(txn *badger.Txn) error {
		return b.put(txn, prefix, c, stored)
	})
	if err != nil {
		return "", b.wrap("Insert", c, err)
	}
	return id, nil
}

// FindOne implements store.Backend.
func (b *Backend) FindOne(ctx context.Context, c store.Collection, f store.Filter) (store.Document, error) {
	docs, err := b.view(ctx, c, f, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return docs[0], nil
}

// FindMany implements store.Backend.
func (b *Backend) FindMany(ctx context.Context, c store.Collection, f store.Filter, order ...store.Ordering) ([]store.Document, error) {
	docs, err := b.view(ctx, c, f, 0)
	if err != nil {
		return nil, err
	}
	store.SortDocuments(docs, order...)
	return docs, nil
}

// UpdateOne implements store.Backend. A nil value in set removes the field.
func (b *Backend) UpdateOne(ctx context.Context, c store.Collection, f store.Filter, set store.Document) (int64, error) {
	prefix, err := b.prefix(c)
	if err != nil {
		return 0, err
	}
	set = store.Settable(set)

	var matched int64
	err = b.update(ctx, func(txn *badger.Txn) error {
		matched = 0
		docs, err := b.find(txn, prefix, c, f, 1)
		if err != nil || len(docs) == 0 {
			return err
		}
		matched = 1

		current := docs[0]
		if err := b.deleteIndexes(txn, prefix, c, current); err != nil {
			return err
		}
		for k, v := range set {
			if v == nil {
				delete(current, k)
				continue
			}
			current[k] = v
		}
		return b.put(txn, prefix, c, current)
	})
	if err != nil {
		return 0, b.wrap("UpdateOne", c, err)
	}
	return matched, nil
}

// DeleteMany implements store.Backend.
func (b *Backend) DeleteMany(ctx context.Context, c store.Collection, f store.Filter) (int64, error) {
	prefix, err := b.prefix(c)
	if err != nil {
		return 0, err
	}

	var deleted int64
	err = b.update(ctx, func(txn *badger.Txn) error {
		deleted = 0
		docs, err := b.find(txn, prefix, c, f, 0)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if err := b.deleteIndexes(txn, prefix, c, doc); err != nil {
				return err
			}
			if err := txn.Delete(keys.Document(prefix, string(c), doc.ID())); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, b.wrap("DeleteMany", c, err)
	}
	return deleted, nil
}

// Count implements store.Backend.
func (b *Backend) Count(ctx context.Context, c store.Collection, f store.Filter) (int64, error) {
	docs, err := b.view(ctx, c, f, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

// Ping reports ErrUnavailable once the database has been closed.
func (b *Backend) Ping(context.Context) error {
	if b.db.IsClosed() {
		return store.Unavailable(backendName, "Ping", "", badger.ErrDBClosed)
	}
	return nil
}

// Close implements store.Backend.
func (b *Backend) Close(context.Context) error {
	return store.Unavailable(backendName, "Close", "", b.db.Close())
}

func (b *Backend) view(ctx context.Context, c store.Collection, f store.Filter, limit int) ([]store.Document, error) {
	prefix, err := b.prefix(c)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var docs []store.Document
	err = b.db.View(func(txn *badger.Txn) error {
		docs, err = b.find(txn, prefix, c, f, limit)
		return err
	})
	if err != nil {
		return nil, b.wrap("Find", c, err)
	}
	return docs, nil
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (b *Backend) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err = b.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// find returns up to limit documents matching f (limit 0 means all). It reads
// by key for an id filter, walks index entries for an indexed string field,
// and scans the collection otherwise.
func (b *Backend) find(txn *badger.Txn, prefix string, c store.Collection, f store.Filter, limit int) ([]store.Document, error) {
	if id, ok := f[store.FieldID].(string); ok {
		doc, err := b.get(txn, prefix, c, id)
		if err != nil || doc == nil || !store.Matches(doc, f) {
			return nil, err
		}
		return []store.Document{doc}, nil
	}

	for _, field := range b.config.Indexes[c] {
		value, ok := f[field].(string)
		if !ok {
			continue
		}
		return b.findIndexed(txn, prefix, c, field, value, f, limit)
	}

	var docs []store.Document
	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   100,
		Prefix:         keys.DocumentPrefix(prefix, string(c)),
	})
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		data, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		doc, err := bsondoc.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
		if !store.Matches(doc, f) {
			continue
		}
		docs = append(docs, doc)
		if limit > 0 && len(docs) == limit {
			break
		}
	}
	return docs, nil
}

func (b *Backend) findIndexed(txn *badger.Txn, prefix string, c store.Collection, field, value string, f store.Filter, limit int) ([]store.Document, error) {
	var ids []string
	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: false,
		Prefix:         keys.IndexPrefix(prefix, string(c), field, value),
	})
	for it.Rewind(); it.Valid(); it.Next() {
		ids = append(ids, keys.ID(it.Item().Key()))
	}
	it.Close()

	var docs []store.Document
	for _, id := range ids {
		doc, err := b.get(txn, prefix, c, id)
		if err != nil {
			return nil, err
		}
		if doc == nil || !store.Matches(doc, f) {
			continue
		}
		docs = append(docs, doc)
		if limit > 0 && len(docs) == limit {
			break
		}
	}
	return docs, nil
}

// get returns nil, nil when the document does not exist.
func (b *Backend) get(txn *badger.Txn, prefix string, c store.Collection, id string) (store.Document, error) {
	item, err := txn.Get(keys.Document(prefix, string(c), id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	doc, err := bsondoc.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", c, id, err)
	}
	return doc, nil
}

// put writes doc and its index entries.
func (b *Backend) put(txn *badger.Txn, prefix string, c store.Collection, doc store.Document) error {
	data, err := bsondoc.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", c, err)
	}
	id := doc.ID()
	if err := txn.Set(keys.Document(prefix, string(c), id), data); err != nil {
		return err
	}
	for _, field := range b.config.Indexes[c] {
		if value, ok := doc[field].(string); ok {
			if err := txn.Set(keys.Index(prefix, string(c), field, value, id), nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Backend) deleteIndexes(txn *badger.Txn, prefix string, c store.Collection, doc store.Document) error {
	for _, field := range b.config.Indexes[c] {
		if value, ok := doc[field].(string); ok {
			if err := txn.Delete(keys.Index(prefix, string(c), field, value, doc.ID())); err != nil {
				return err
			}
		}
	}
	return nil
}

// wrap leaves encoding and context errors as they are and marks everything
// else as a store failure.
func (b *Backend) wrap(op string, c store.Collection, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return store.Unavailable(backendName, op, c, err)
}
