package store

import (
	"sort"
	"strings"
	"time"
)

// Matches reports whether doc satisfies every equality condition of f.
// Numbers compare by value regardless of their Go type.
func Matches(doc Document, f Filter) bool {
	for field, want := range f {
		if !equalValues(doc[field], want) {
			return false
		}
	}
	return true
}

func equalValues(got, want any) bool {
	if got == nil || want == nil {
		return got == nil && want == nil
	}
	if gf, ok := (Document{"v": got}).Float("v"); ok {
		wf, ok := Document{"v": want}.Float("v")
		return ok && gf == wf
	}
	if gt, ok := got.(time.Time); ok {
		wt, ok := want.(time.Time)
		return ok && gt.Equal(wt)
	}
	return got == want
}

// SortDocuments sorts docs in place by the given orderings, first ordering
// taking precedence. The sort is stable.
func SortDocuments(docs []Document, order ...Ordering) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range order {
			c := compareValues(docs[i][o.Field], docs[j][o.Field])
			if c == 0 {
				continue
			}
			if o.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

// compareValues orders nil first, then numbers, times and strings.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if af, ok := (Document{"v": a}).Float("v"); ok {
		if bf, ok := (Document{"v": b}).Float("v"); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	return strings.Compare(as, bs)
}

// Settable returns a copy of set without the managed fields.
func Settable(set Document) Document {
	out := make(Document, len(set))
	for k, v := range set {
		if k == FieldID || k == FieldCreatedAt {
			continue
		}
		out[k] = v
	}
	return out
}
