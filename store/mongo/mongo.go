// Package mongo implements store.Backend on MongoDB.
//
// Primary ids are ObjectIDs exposed as 24 character hex strings under the
// field "id". Reference fields (names ending in "_id") holding a hex string
// are stored as ObjectIDs so that documents written by other MongoDB clients
// stay compatible.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/alvinp540/edutrack/store"
	"github.com/alvinp540/edutrack/store/internal/bsondoc"
)

const backendName = "mongodb"

// DefaultConnectTimeout bounds server selection during Open.
const DefaultConnectTimeout = 10 * time.Second

// Options configures Open.
type Options struct {
	// URI is the connection string, for example "mongodb://localhost:27017".
	URI string

	// Database holds the edutrack collections.
	Database string

	// ConnectTimeout bounds server selection. Zero uses DefaultConnectTimeout.
	ConnectTimeout time.Duration

	Store store.Config
}

// Backend stores documents in MongoDB collections.
type Backend struct {
	client *mongo.Client
	db     *mongo.Database
	config store.Config
	now    func() time.Time
}

// Open connects to the server and verifies it is reachable.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	if opts.URI == "" {
		return nil, errors.New("mongodb: connection URI is required")
	}
	timeout := opts.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(opts.URI).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, store.Unavailable(backendName, "Connect", "", err)
	}

	b := New(client, opts.Database, opts.Store)
	if err := b.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return b, nil
}

// New creates a Backend over an already connected client.
func New(client *mongo.Client, database string, config store.Config) *Backend {
	return &Backend{
		client: client,
		db:     client.Database(database),
		config: config.WithDefaults(),
		now:    time.Now,
	}
}

// Name implements store.Backend.
func (b *Backend) Name() string { return backendName }

// ParseID accepts 24 character hex ObjectIDs.
func (b *Backend) ParseID(s string) (string, bool) {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return "", false
	}
	return oid.Hex(), true
}

func (b *Backend) collection(c store.Collection) (*mongo.Collection, error) {
	if !store.Known(c) {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownCollection, c)
	}
	return b.db.Collection(b.config.TableName(c)), nil
}

// EnsureIndexes creates a non-unique ascending index for every field in
// store.Config.Indexes. Existing indexes are left alone.
func (b *Backend) EnsureIndexes(ctx context.Context) error {
	for _, c := range store.Collections {
		coll, err := b.collection(c)
		if err != nil {
			return err
		}
		var models []mongo.IndexModel
		for _, field := range b.config.Indexes[c] {
			models = append(models, mongo.IndexModel{
				Keys:    bson.D{{Key: field, Value: 1}},
				Options: options.Index().SetName(store.IndexName(field)),
			})
		}
		if len(models) == 0 {
			continue
		}
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return store.Unavailable(backendName, "CreateIndexes", c, err)
		}
	}
	return nil
}

// Insert implements store.Backend.
func (b *Backend) Insert(ctx context.Context, c store.Collection, doc store.Document) (string, error) {
	coll, err := b.collection(c)
	if err != nil {
		return "", err
	}

	oid := primitive.NewObjectID()
	fields := toBSON(store.Settable(doc))
	fields["_id"] = oid
	fields[store.FieldCreatedAt] = b.now().UTC().Truncate(time.Millisecond)

	if _, err := coll.InsertOne(ctx, fields); err != nil {
		return "", store.Unavailable(backendName, "InsertOne", c, err)
	}
	return oid.Hex(), nil
}

// FindOne implements store.Backend.
func (b *Backend) FindOne(ctx context.Context, c store.Collection, f store.Filter) (store.Document, error) {
	coll, err := b.collection(c)
	if err != nil {
		return nil, err
	}
	filter, ok := toFilter(f)
	if !ok {
		return nil, store.ErrNotFound
	}

	var m bson.M
	err = coll.FindOne(ctx, filter).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.Unavailable(backendName, "FindOne", c, err)
	}
	return bsondoc.Normalize(m), nil
}

// FindMany implements store.Backend. Sorting is done by the server.
func (b *Backend) FindMany(ctx context.Context, c store.Collection, f store.Filter, order ...store.Ordering) ([]store.Document, error) {
	coll, err := b.collection(c)
	if err != nil {
		return nil, err
	}
	filter, ok := toFilter(f)
	if !ok {
		return nil, nil
	}

	opts := options.Find()
	if len(order) > 0 {
		sort := bson.D{}
		for _, o := range order {
			dir := -1
			if o.Ascending {
				dir = 1
			}
			sort = append(sort, bson.E{Key: fieldName(o.Field), Value: dir})
		}
		opts.SetSort(sort)
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, store.Unavailable(backendName, "Find", c, err)
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, store.Unavailable(backendName, "Find", c, err)
	}

	docs := make([]store.Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, bsondoc.Normalize(m))
	}
	return docs, nil
}

// UpdateOne implements store.Backend. Non-nil values are $set, nil values
// $unset. The matched count is returned because MongoDB reports a modified
// count of zero when the new values equal the stored ones.
func (b *Backend) UpdateOne(ctx context.Context, c store.Collection, f store.Filter, set store.Document) (int64, error) {
	coll, err := b.collection(c)
	if err != nil {
		return 0, err
	}
	filter, ok := toFilter(f)
	if !ok {
		return 0, nil
	}

	setFields, unsetFields := bson.M{}, bson.M{}
	for k, v := range toBSON(store.Settable(set)) {
		if v == nil {
			unsetFields[k] = ""
			continue
		}
		setFields[k] = v
	}
	update := bson.M{}
	if len(setFields) > 0 {
		update["$set"] = setFields
	}
	if len(unsetFields) > 0 {
		update["$unset"] = unsetFields
	}
	if len(update) == 0 {
		n, err := b.Count(ctx, c, f)
		return min(n, 1), err
	}

	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, store.Unavailable(backendName, "UpdateOne", c, err)
	}
	return res.MatchedCount, nil
}

// DeleteMany implements store.Backend.
func (b *Backend) DeleteMany(ctx context.Context, c store.Collection, f store.Filter) (int64, error) {
	coll, err := b.collection(c)
	if err != nil {
		return 0, err
	}
	filter, ok := toFilter(f)
	if !ok {
		return 0, nil
	}

	res, err := coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, store.Unavailable(backendName, "DeleteMany", c, err)
	}
	return res.DeletedCount, nil
}

// Count implements store.Backend.
func (b *Backend) Count(ctx context.Context, c store.Collection, f store.Filter) (int64, error) {
	coll, err := b.collection(c)
	if err != nil {
		return 0, err
	}
	filter, ok := toFilter(f)
	if !ok {
		return 0, nil
	}

	n, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, store.Unavailable(backendName, "CountDocuments", c, err)
	}
	return n, nil
}

// CountBy implements store.Grouper with a $match + $group pipeline.
func (b *Backend) CountBy(ctx context.Context, c store.Collection, f store.Filter, field string) (map[string]int64, error) {
	coll, err := b.collection(c)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	filter, ok := toFilter(f)
	if !ok {
		return counts, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + fieldName(field)},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, store.Unavailable(backendName, "Aggregate", c, err)
	}

	var groups []struct {
		Key   any   `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, store.Unavailable(backendName, "Aggregate", c, err)
	}
	for _, g := range groups {
		key, _ := bsondoc.Value(g.Key).(string)
		counts[key] += g.Count
	}
	return counts, nil
}

// Ping implements store.Backend.
func (b *Backend) Ping(ctx context.Context) error {
	return store.Unavailable(backendName, "Ping", "", b.client.Ping(ctx, readpref.Primary()))
}

// Drop deletes the database and every collection in it.
func (b *Backend) Drop(ctx context.Context) error {
	return store.Unavailable(backendName, "Drop", "", b.db.Drop(ctx))
}

// Close disconnects the client.
func (b *Backend) Close(ctx context.Context) error {
	return store.Unavailable(backendName, "Disconnect", "", b.client.Disconnect(ctx))
}

func fieldName(field string) string {
	if field == store.FieldID {
		return "_id"
	}
	return field
}

func isReference(field string) bool {
	return strings.HasSuffix(field, "_id")
}

// toBSON renames the id field and converts hex references to ObjectIDs.
func toBSON(doc store.Document) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		if s, ok := v.(string); ok && isReference(k) {
			if oid, err := primitive.ObjectIDFromHex(s); err == nil {
				v = oid
			}
		}
		out[fieldName(k)] = v
	}
	return out
}

// toFilter converts f to a MongoDB filter. It returns false when f can match
// nothing, which is the case for an id that is not a valid ObjectID.
func toFilter(f store.Filter) (bson.M, bool) {
	out := make(bson.M, len(f))
	for k, v := range f {
		if k == store.FieldID {
			s, _ := v.(string)
			oid, err := primitive.ObjectIDFromHex(s)
			if err != nil {
				return nil, false
			}
			out["_id"] = oid
			continue
		}
		if s, ok := v.(string); ok && isReference(k) {
			if oid, err := primitive.ObjectIDFromHex(s); err == nil {
				v = oid
			}
		}
		out[k] = v
	}
	return out, true
}
