// Package variant models build variants: flat, ordered records of build-axis
// choices such as {environment: production, minify: true}.
//
// The empty Variant is the implicit default used when no plugin declares
// variants. Variants are values; every method that changes one returns a
// copy, so two build passes never share axis storage.
package variant

import (
	"fmt"
	"reflect"
	"strings"
)

// Axis is a single build-axis choice.
type Axis struct {
	Key   string
	Value any
}

// Variant is an ordered record of axes. Keys are unique; order is the order
// axes were first added.
type Variant struct {
	axes []Axis
}

// New builds a variant from alternating key/value arguments. Non-string keys
// are skipped; a trailing key without a value is ignored.
func New(pairs ...any) Variant {
	var v Variant
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		v = v.With(key, pairs[i+1])
	}
	return v
}

// FromAxes builds a variant from axes. Later duplicates overwrite earlier
// values but keep the first position.
func FromAxes(axes ...Axis) Variant {
	var v Variant
	for _, a := range axes {
		v = v.With(a.Key, a.Value)
	}
	return v
}

// With returns a copy of v with key set to value.
func (v Variant) With(key string, value any) Variant {
	out := make([]Axis, len(v.axes), len(v.axes)+1)
	copy(out, v.axes)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return Variant{axes: out}
		}
	}
	return Variant{axes: append(out, Axis{Key: key, Value: value})}
}

// Get returns the value of key.
func (v Variant) Get(key string) (any, bool) {
	for _, a := range v.axes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

// Axes returns a copy of the axes in order.
func (v Variant) Axes() []Axis {
	out := make([]Axis, len(v.axes))
	copy(out, v.axes)
	return out
}

// Len returns the number of axes.
func (v Variant) Len() int { return len(v.axes) }

// IsEmpty reports whether v is the default variant.
func (v Variant) IsEmpty() bool { return len(v.axes) == 0 }

// Equal reports whether v and o have the same axes in the same order.
func (v Variant) Equal(o Variant) bool {
	if len(v.axes) != len(o.axes) {
		return false
	}
	for i := range v.axes {
		if v.axes[i].Key != o.axes[i].Key || !reflect.DeepEqual(v.axes[i].Value, o.axes[i].Value) {
			return false
		}
	}
	return true
}

// String renders the variant as a comma-joined list of its axes. An axis
// whose value is boolean true renders as its bare key, any other axis as
// "key: value". The empty variant renders as "".
func (v Variant) String() string {
	parts := make([]string, 0, len(v.axes))
	for _, a := range v.axes {
		switch val := a.Value.(type) {
		case bool:
			if val {
				parts = append(parts, a.Key)
				continue
			}
		case nil:
			parts = append(parts, a.Key+": null")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", a.Key, a.Value))
	}
	return strings.Join(parts, ", ")
}
