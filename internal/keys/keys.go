// Package keys defines the Badger key layout for edutrack documents.
//
// Keys are "/"-separated byte strings:
//
//	<prefix><collection>/d/<id>                    document
//	<prefix><collection>/i/<field>/<hash>/<id>     secondary index entry
//
// Index values are hashed so that arbitrary field values (which may contain
// the separator) produce fixed-width key segments.
package keys

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	docTag   = "d"
	indexTag = "i"
)

// Document returns the key of document id in collection.
func Document(prefix, collection, id string) []byte {
	return []byte(fmt.Sprintf("%s%s/%s/%s", prefix, collection, docTag, id))
}

// DocumentPrefix returns the prefix shared by every document key of collection.
func DocumentPrefix(prefix, collection string) []byte {
	return []byte(fmt.Sprintf("%s%s/%s/", prefix, collection, docTag))
}

// Index returns the index entry key for document id whose field equals value.
func Index(prefix, collection, field, value, id string) []byte {
	return append(IndexPrefix(prefix, collection, field, value), id...)
}

// IndexPrefix returns the prefix shared by every index entry of field = value.
func IndexPrefix(prefix, collection, field, value string) []byte {
	return []byte(fmt.Sprintf("%s%s/%s/%s/%s/", prefix, collection, indexTag, field, ValueHash(field, value)))
}

// ValueHash computes the index key segment for field = value.
// The field is part of the hashed data so equal values of different fields
// never share a segment.
func ValueHash(field, value string) string {
	h := sha256.Sum256([]byte(field + "#" + value))
	return hex.EncodeToString(h[:16]) // 128-bit hash as hex
}

// ID returns the document id at the end of a document or index key.
func ID(key []byte) string {
	i := bytes.LastIndexByte(key, '/')
	if i < 0 {
		return ""
	}
	return string(key[i+1:])
}
