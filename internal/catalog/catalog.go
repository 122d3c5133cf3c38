// Package catalog indexes the operations of a document for listing and lookup.
package catalog

import (
	"fmt"
	"strings"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

// Entry is the summary of one operation.
type Entry struct {
	Method      string   `json:"method"`
	Path        string   `json:"path"`
	OperationID string   `json:"operationId,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	op   *domain.Operation
	item *domain.PathItem
}

// Catalog holds the operations of a single document in declared order.
type Catalog struct {
	doc     *domain.OpenAPIDocument
	entries []Entry
}

// New indexes doc. A nil document yields an empty catalog.
func New(doc *domain.OpenAPIDocument) *Catalog {
	c := &Catalog{doc: doc}
	if doc == nil {
		return c
	}

	for _, item := range doc.Paths {
		for _, op := range item.Operations {
			c.entries = append(c.entries, Entry{
				Method:      op.Method,
				Path:        item.Path,
				OperationID: op.OperationID,
				Summary:     op.Summary,
				Tags:        op.Tags,
				op:          op,
				item:        item,
			})
		}
	}

	return c
}

// Document returns the indexed document.
func (c *Catalog) Document() *domain.OpenAPIDocument {
	return c.doc
}

// Count returns the total number of operations.
func (c *Catalog) Count() int {
	return len(c.entries)
}

// All returns every operation.
func (c *Catalog) All() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Filter returns operations matching optional tag and method filters.
func (c *Catalog) Filter(tag, method string) []Entry {
	var results []Entry

	for _, e := range c.entries {
		if method != "" && !strings.EqualFold(e.Method, method) {
			continue
		}
		if tag != "" && !hasTag(e.Tags, tag) {
			continue
		}
		results = append(results, e)
	}

	return results
}

// Search returns operations whose path, summary, description, operation id
// or tags contain query, case-insensitively.
func (c *Catalog) Search(query string) []Entry {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return c.All()
	}

	var results []Entry
	for _, e := range c.entries {
		if matches(query, e) {
			results = append(results, e)
		}
	}

	return results
}

// Find returns the operation at path and method and the path item that holds it.
func (c *Catalog) Find(path, method string) (*domain.Operation, *domain.PathItem, error) {
	for _, e := range c.entries {
		if e.Path == path && strings.EqualFold(e.Method, method) {
			return e.op, e.item, nil
		}
	}

	return nil, nil, fmt.Errorf("%w: %s %s", domain.ErrOperationNotFound, strings.ToUpper(method), path)
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func matches(query string, e Entry) bool {
	fields := []string{e.Path, e.Summary, e.OperationID}
	if e.op != nil {
		fields = append(fields, e.op.Description)
	}
	fields = append(fields, e.Tags...)

	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}
