// Package specparser turns YAML or JSON specification text into the domain model.
package specparser

import (
	"context"
	"errors"
	"fmt"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/iancoleman/orderedmap"
	"gopkg.in/yaml.v3"
)

// maxNesting bounds alias chains and pathological nesting.
const maxNesting = 256

// Alias expansion may grow a document to expansionRatio times its parsed
// node count, and always to at least minNodeBudget nodes.
const (
	expansionRatio = 10
	minNodeBudget  = 10000
)

var (
	errTooDeep      = errors.New("document nesting exceeds limit")
	errTooManyNodes = errors.New("document aliases expand beyond limit")
)

// Parse parses specification text (YAML or JSON) into a document.
func Parse(content []byte) (*domain.OpenAPIDocument, error) {
	tree, err := ParseTree(content)
	if err != nil {
		return nil, err
	}

	return domain.DecodeDocument(tree), nil
}

// ParseTree parses text into a raw tree of ordered maps, slices and scalars.
// Mapping keys keep their declared order.
func ParseTree(content []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSpec, err)
	}

	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidSpec)
	}

	c := &converter{budget: max(countNodes(&root)*expansionRatio, minNodeBudget)}
	tree, err := c.convert(&root, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSpec, err)
	}

	if _, ok := domain.AsObject(tree); !ok {
		return nil, fmt.Errorf("%w: document root must be a mapping", domain.ErrInvalidSpec)
	}

	return tree, nil
}

// converter walks a yaml.Node tree. Every produced node, including each
// copy made by following an alias, is charged against budget.
type converter struct {
	budget int
}

func (c *converter) convert(node *yaml.Node, depth int) (any, error) {
	if depth > maxNesting {
		return nil, errTooDeep
	}
	if c.budget--; c.budget < 0 {
		return nil, errTooManyNodes
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return c.convert(node.Content[0], depth+1)

	case yaml.AliasNode:
		return c.convert(node.Alias, depth+1)

	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := c.convert(child, depth+1)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil

	case yaml.MappingNode:
		return c.convertMapping(node, depth)

	case yaml.ScalarNode:
		return convertScalar(node)
	}

	return nil, nil
}

func (c *converter) convertMapping(node *yaml.Node, depth int) (any, error) {
	obj := orderedmap.New()
	obj.SetEscapeHTML(false)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		v, err := c.convert(value, depth+1)
		if err != nil {
			return nil, err
		}

		if isMergeKey(key) {
			sources, ok := v.([]any)
			if !ok {
				sources = []any{v}
			}
			for _, src := range sources {
				mergeInto(obj, src)
			}
			continue
		}

		obj.Set(key.Value, v)
	}

	return obj, nil
}

func isMergeKey(key *yaml.Node) bool {
	return key.Kind == yaml.ScalarNode && key.Value == "<<" && (key.Tag == "" || key.Tag == "!!merge")
}

// mergeInto copies the keys of src that obj does not already have.
func mergeInto(obj *orderedmap.OrderedMap, src any) {
	merged, ok := domain.AsObject(src)
	if !ok {
		return
	}

	for _, k := range merged.Keys() {
		if _, exists := obj.Get(k); !exists {
			mv, _ := merged.Get(k)
			obj.Set(k, mv)
		}
	}
}

// countNodes counts the nodes of the parsed tree without following aliases.
func countNodes(node *yaml.Node) int {
	n := 1
	for _, child := range node.Content {
		n += countNodes(child)
	}
	return n
}

func convertScalar(node *yaml.Node) (any, error) {
	switch node.Tag {
	case "!!str", "!!timestamp", "!!binary":
		return node.Value, nil
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}

	return v, nil
}

// Validate runs OpenAPI 3 validation over the text. Callers treat the
// result as a warning: many real specs carry minor violations.
func Validate(ctx context.Context, content []byte) error {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(content)
	if err != nil {
		return fmt.Errorf("failed to load specification: %w", err)
	}

	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("specification is not valid: %w", err)
	}

	return nil
}
