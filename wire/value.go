package wire

import (
	"sort"
)

// Element reference keys. Servers speaking the JSON Wire Protocol use
// ElementKey, W3C WebDriver servers use W3CElementKey.
const (
	ElementKey    = "ELEMENT"
	W3CElementKey = "element-6066-11e4-a52e-4f735466cecf"
)

// A decoded wire value is always one of:
//
//	nil, bool, float64, string, []any, *Object
//
// Encoding additionally accepts the Go integer and float kinds,
// map[string]any (written with sorted keys) and []string.

// Object is a JSON object that remembers the order of its keys.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set sets key to v. A new key is appended, an existing key keeps its position.
func (o *Object) Set(key string, v any) *Object {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
	return o
}

// Get returns the value of key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// String returns the value of key if it is a string.
func (o *Object) String(key string) (string, bool) {
	v, _ := o.Get(key)
	s, ok := v.(string)
	return s, ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Range calls fn for every member in order until fn returns false.
func (o *Object) Range(fn func(key string, v any) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.values[k]) {
			return
		}
	}
}

// ToMap returns a shallow, unordered copy of the object.
func (o *Object) ToMap() map[string]any {
	m := make(map[string]any, o.Len())
	o.Range(func(k string, v any) bool {
		m[k] = v
		return true
	})
	return m
}

// ObjectFromMap builds an object from m with its keys sorted.
func ObjectFromMap(m map[string]any) *Object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	o := NewObject()
	for _, k := range keys {
		o.Set(k, m[k])
	}
	return o
}

// ElementRef returns the wire representation of a reference to the element
// with the given opaque id.
func ElementRef(id string) *Object {
	return NewObject().Set(ElementKey, id)
}

// ElementID reports whether v is an element reference and returns its id.
//
// An object is a reference if it is non-empty, has no keys other than
// ElementKey and W3CElementKey, and their values are strings. Application data
// of exactly that shape is indistinguishable from a reference and is treated
// as one.
func ElementID(v any) (string, bool) {
	var (
		id    string
		found bool
	)
	switch o := v.(type) {
	case *Object:
		if o.Len() == 0 {
			return "", false
		}
		ok := true
		o.Range(func(k string, v any) bool {
			id, found, ok = referenceMember(k, v, id, found)
			return ok
		})
		if !ok {
			return "", false
		}
	case map[string]any:
		if len(o) == 0 {
			return "", false
		}
		for k, v := range o {
			var ok bool
			if id, found, ok = referenceMember(k, v, id, found); !ok {
				return "", false
			}
		}
	default:
		return "", false
	}
	return id, found
}

func referenceMember(k string, v any, id string, found bool) (string, bool, bool) {
	if k != ElementKey && k != W3CElementKey {
		return "", false, false
	}
	s, isString := v.(string)
	if !isString {
		return "", false, false
	}
	if found && s != id {
		return "", false, false
	}
	return s, true, true
}
