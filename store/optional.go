package store

import "encoding/json"

// Optional marks whether an update field was supplied. The zero value is unset.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) { return o.value, o.set }

// IsSet reports whether a value was supplied.
func (o Optional[T]) IsSet() bool { return o.set }

// ApplyTo writes the value into doc under field when set. Unset values leave
// doc untouched, which is what gives updates their partial semantics.
func (o Optional[T]) ApplyTo(doc Document, field string) {
	if o.set {
		doc[field] = o.value
	}
}

// UnmarshalJSON marks the Optional as set whenever its key is present, so a
// JSON patch body keeps partial update semantics. null decodes to the zero value.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	var v T
	if string(data) != "null" {
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
	}
	o.value, o.set = v, true
	return nil
}

// MarshalJSON encodes the value, or null when unset.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
