// Package bsondoc converts between store.Document and BSON, the encoding
// shared by the MongoDB and Badger backends.
package bsondoc

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/alvinp540/edutrack/store"
)

// Marshal encodes doc as a BSON document.
func Marshal(doc store.Document) ([]byte, error) {
	return bson.Marshal(map[string]any(doc))
}

// Unmarshal decodes a BSON document and normalizes its values.
func Unmarshal(data []byte) (store.Document, error) {
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return Normalize(m), nil
}

// Normalize converts decoded BSON values to the types store.Document
// promises: DateTime becomes time.Time (UTC), int32 becomes int64 and
// ObjectID becomes its hex string. The MongoDB key "_id" is renamed to
// store.FieldID.
func Normalize(m map[string]any) store.Document {
	doc := make(store.Document, len(m))
	for k, v := range m {
		if k == "_id" {
			k = store.FieldID
		}
		doc[k] = Value(v)
	}
	return doc
}

// Value normalizes a single decoded BSON value.
func Value(v any) any {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case time.Time:
		return val.UTC()
	case int32:
		return int64(val)
	case int:
		return int64(val)
	case primitive.ObjectID:
		return val.Hex()
	case primitive.Null, primitive.Undefined:
		return nil
	}
	return v
}
