package synth

import (
	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

const (
	// MaxDepth is the deepest nesting level the generator descends to.
	MaxDepth = 5

	// Placeholder is the editable empty-object stub used when nothing better is known.
	Placeholder = "{\n  \n}"

	// maxRefHops bounds chains of $ref that point at other $refs without nesting.
	maxRefHops = 32
)

// GenerateExample turns a schema into a pretty-printed JSON example.
// doc may be nil, in which case $refs are left unresolved.
func GenerateExample(schema *domain.Schema, depth int, doc *domain.OpenAPIDocument) string {
	v, ok := exampleValue(schema, depth, doc, 0)
	if !ok {
		return Placeholder
	}

	out, ok := prettyJSON(v)
	if !ok {
		return Placeholder
	}

	return out
}

// exampleValue reports false when the schema only warrants the placeholder.
func exampleValue(schema *domain.Schema, depth int, doc *domain.OpenAPIDocument, hops int) (any, bool) {
	if depth > MaxDepth {
		return newObject(), true
	}

	if schema == nil {
		return nil, false
	}

	// Following a ref does not count as a nesting level.
	if schema.Ref != "" && doc != nil && hops < maxRefHops {
		if resolved, ok := resolveSchema(schema.Ref, doc); ok {
			return exampleValue(resolved, depth, doc, hops+1)
		}
	}

	if schema.HasExample {
		if _, ok := prettyJSON(schema.Example); !ok {
			return nil, false
		}
		return schema.Example, true
	}

	switch schema.Type {
	case domain.TypeObject:
		if schema.Properties != nil {
			return objectExample(schema, depth, doc), true
		}
	case domain.TypeArray:
		if schema.Items != nil {
			return []any{nested(schema.Items, depth+1, doc)}, true
		}
	}

	return nil, false
}

func objectExample(schema *domain.Schema, depth int, doc *domain.OpenAPIDocument) any {
	obj := newObject()

	for _, prop := range schema.Properties {
		obj.Set(prop.Name, propertyValue(prop.Schema, depth, doc))
	}

	return obj
}

// propertyValue derives one property of an object example. A property $ref is
// resolved one level; when it cannot be resolved the property is null.
func propertyValue(prop *domain.Schema, depth int, doc *domain.OpenAPIDocument) any {
	if prop == nil {
		return nil
	}

	resolved := prop
	if prop.Ref != "" {
		r, ok := resolveSchema(prop.Ref, doc)
		if !ok {
			return nil
		}
		resolved = r
	}

	if resolved.HasExample {
		return resolved.Example
	}

	switch resolved.Type {
	case domain.TypeString:
		if len(resolved.Enum) > 0 {
			return resolved.Enum[0]
		}
		if resolved.HasDefault {
			return resolved.Default
		}
		return "string"
	case domain.TypeNumber, domain.TypeInteger:
		if resolved.HasDefault {
			return resolved.Default
		}
		return 0
	case domain.TypeBoolean:
		if resolved.HasDefault {
			return resolved.Default
		}
		return true
	case domain.TypeArray:
		if resolved.Items == nil {
			return []any{}
		}
		return []any{nested(resolved.Items, depth+1, doc)}
	case domain.TypeObject:
		return nested(resolved, depth+1, doc)
	default:
		return nil
	}
}

// nested generates a child example, degrading the placeholder to an empty object.
func nested(schema *domain.Schema, depth int, doc *domain.OpenAPIDocument) any {
	v, ok := exampleValue(schema, depth, doc, 0)
	if !ok {
		return newObject()
	}
	return v
}
