// Package synth derives runnable HTTP requests from OpenAPI operations.
//
// Every function here is pure and total: malformed input degrades to a
// placeholder value instead of an error, so callers can run them on every
// keystroke of a live editor.
package synth

import (
	"strconv"
	"strings"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

// ResolveRef resolves a local "#/..." pointer against the document's raw tree.
// It returns nil for external refs and for pointers that walk off the tree.
func ResolveRef(ref string, doc *domain.OpenAPIDocument) any {
	if doc == nil {
		return nil
	}
	return ResolvePointer(ref, doc.Root)
}

// ResolvePointer walks root along a local JSON pointer.
func ResolvePointer(ref string, root any) any {
	if !strings.HasPrefix(ref, "#/") {
		return nil
	}

	node := root
	for _, part := range strings.Split(ref[2:], "/") {
		part = unescapePointer(part)

		if obj, ok := domain.AsObject(node); ok {
			next, ok := obj.Get(part)
			if !ok {
				return nil
			}
			node = next
			continue
		}

		if list, ok := node.([]any); ok {
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(list) {
				return nil
			}
			node = list[i]
			continue
		}

		return nil
	}

	return node
}

func unescapePointer(s string) string {
	if !strings.Contains(s, "~") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}

// resolveSchema resolves ref and decodes the target as a schema.
func resolveSchema(ref string, doc *domain.OpenAPIDocument) (*domain.Schema, bool) {
	node := ResolveRef(ref, doc)
	if _, ok := domain.AsObject(node); !ok {
		return nil, false
	}
	return domain.DecodeSchema(node), true
}
