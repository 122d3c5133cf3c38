// Package converters renders request collections to document and script formats.
package converters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

// Formats lists the names accepted by New.
var Formats = []string{"pdf", "docx", "word", "confluence", "adf", "curl"}

// New returns the converter for format.
func New(format string) (domain.Converter, error) {
	switch strings.ToLower(format) {
	case "pdf":
		return NewPDFConverter(), nil
	case "docx", "word":
		return NewDocxConverter(), nil
	case "confluence", "adf":
		return NewADFConverter(), nil
	case "curl":
		return NewCurlConverter(), nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: pdf, docx, confluence, curl)", domain.ErrUnsupportedFormat, format)
	}
}

// formatMethod returns a styled method string.
func formatMethod(method string) string {
	return strings.ToUpper(method)
}

// headerLines returns the serialized headers as sorted "Name: value" lines.
func headerLines(req domain.RequestDescriptor) []string {
	names := make([]string, 0, len(req.Headers))
	for k := range req.Headers {
		names = append(names, k)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, k := range names {
		lines = append(lines, fmt.Sprintf("%s: %s", k, req.Headers[k]))
	}
	return lines
}

// authLine describes how the request authenticates, without secrets.
func authLine(auth domain.Auth) string {
	switch auth.Type {
	case domain.AuthAPIKey:
		name := auth.APIKeyName
		if name == "" {
			name = "X-API-Key"
		}
		in := auth.APIKeyIn
		if in == "" {
			in = "header"
		}
		return fmt.Sprintf("api-key (%s in %s)", name, in)
	case domain.AuthBearer, domain.AuthBasic:
		return string(auth.Type)
	default:
		return string(domain.AuthNone)
	}
}

func bodyOf(req domain.RequestDescriptor) string {
	if req.Body == nil {
		return ""
	}
	return *req.Body
}

func entryTitle(e domain.CollectionEntry) string {
	return fmt.Sprintf("%s %s", formatMethod(e.Method), e.Path)
}

// groupByTag groups entries under their tags, "Default" when untagged.
// Tags are returned sorted; entries keep collection order.
func groupByTag(col *domain.Collection) ([]string, map[string][]domain.CollectionEntry) {
	groups := make(map[string][]domain.CollectionEntry)

	for _, e := range col.Entries {
		tags := e.Tags
		if len(tags) == 0 {
			tags = []string{"Default"}
		}
		for _, tag := range tags {
			groups[tag] = append(groups[tag], e)
		}
	}

	tags := make([]string, 0, len(groups))
	for tag := range groups {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return tags, groups
}
