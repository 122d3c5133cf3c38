package domain

import (
	"sort"

	"github.com/iancoleman/orderedmap"
)

// Object is a read-only view over a decoded JSON/YAML mapping.
type Object interface {
	Keys() []string
	Get(key string) (any, bool)
}

type mapObject map[string]any

func (m mapObject) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m mapObject) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// AsObject reports whether node is a mapping and returns a view over it.
// Ordered maps keep their declared key order; plain maps iterate sorted.
func AsObject(node any) (Object, bool) {
	switch v := node.(type) {
	case *orderedmap.OrderedMap:
		if v == nil {
			return nil, false
		}
		return v, true
	case orderedmap.OrderedMap:
		return &v, true
	case map[string]any:
		return mapObject(v), true
	default:
		return nil, false
	}
}

// Field returns the value stored under key when node is a mapping.
func Field(node any, key string) (any, bool) {
	obj, ok := AsObject(node)
	if !ok {
		return nil, false
	}
	return obj.Get(key)
}
