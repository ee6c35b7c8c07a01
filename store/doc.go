// Package store provides the document store layer of EduTrack.
//
// Every higher layer talks to a [Backend], a small generic interface over
// per-collection documents. Three implementations live in subpackages:
//
//   - store/mongo: MongoDB, ids are ObjectID hex strings
//   - store/dynamo: Amazon DynamoDB, one table per collection, ids are UUIDs
//   - store/badger: embedded BadgerDB for single-user and test use, ids are UUIDs
//
// # Documents and Filters
//
// A [Document] maps field names to values. Backends assign the managed
// fields "id" and "created_at" on insert and never change them afterwards.
// A [Filter] is a conjunction of equality conditions:
//
//	b.FindMany(ctx, store.Students, store.Filter{"class_id": classID})
//
// # Partial Updates
//
// Update payloads wrap each field in [Optional]. Only set fields reach the
// backend, so omitted fields keep their stored value:
//
//	set := store.Document{}
//	patch.Phone.ApplyTo(set, "phone")
//	b.UpdateOne(ctx, store.Teachers, store.ByID(id), set)
//
// # Configuration
//
// Use [DefaultConfig] for the edutrack layout. [Config.Indexes] lists the
// fields backed by secondary indexes (DynamoDB GSIs, Badger index keys).
//
// # Errors
//
//   - [ErrNotFound] - FindOne matched nothing
//   - [ErrUnavailable] - transport or driver failure (see [OpError])
//   - [ErrUnknownCollection] - collection outside the configured layout
package store
