package synth

import (
	"strings"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

// Content types, in the order a request body media type is preferred.
const (
	ContentJSON = "application/json"
	ContentForm = "application/x-www-form-urlencoded"
	ContentText = "text/plain"
)

const (
	formFallback = "key=value&key2=value2"
	textFallback = "Plain text content"
)

// Config carries the defaults the builder does not derive from the document.
type Config struct {
	// FallbackURL is used when the document declares no servers.
	FallbackURL string
	// DefaultHeaders precede the header parameters of every request.
	DefaultHeaders []domain.HeaderRow
}

// BuildRequestDefaults seeds an editable request for op. server may be nil,
// in which case the first document server (or cfg.FallbackURL) is used.
func BuildRequestDefaults(
	op *domain.Operation,
	item *domain.PathItem,
	server *domain.Server,
	doc *domain.OpenAPIDocument,
	cfg Config,
) domain.RequestModel {
	model := domain.RequestModel{
		URL:  baseURL(server, doc, cfg) + pathOf(item),
		Auth: DetectAuth(doc),
		Body: Placeholder,
	}

	if op != nil {
		model.Method = strings.ToUpper(op.Method)
	}

	headers := make([]domain.HeaderRow, len(cfg.DefaultHeaders))
	copy(headers, cfg.DefaultHeaders)

	for _, p := range MergeParameters(item, op, doc) {
		switch p.In {
		case domain.InHeader:
			headers = append(headers, domain.HeaderRow{
				Enabled: true,
				Key:     p.Name,
				Value:   defaultValue(p.Schema),
			})
		case domain.InQuery, domain.InPath, domain.InCookie:
			model.Params = append(model.Params, domain.ParamRow{
				Enabled:     p.In == domain.InPath || p.Required,
				Key:         p.Name,
				Value:       defaultValue(p.Schema),
				Description: p.Description,
				ParamIn:     p.In,
			})
		}
	}

	if op != nil {
		if body, contentType, ok := bodyDefaults(op.RequestBody, doc); ok {
			model.Body = body
			if contentType != ContentJSON {
				setContentType(headers, contentType)
			}
		}
	}

	model.Params = append(model.Params, domain.ParamRow{Enabled: true})
	model.Headers = append(headers, domain.HeaderRow{Enabled: true})

	return model
}

func baseURL(server *domain.Server, doc *domain.OpenAPIDocument, cfg Config) string {
	if server != nil {
		return server.URL
	}
	if doc != nil && len(doc.Servers) > 0 {
		return doc.Servers[0].URL
	}
	return cfg.FallbackURL
}

func pathOf(item *domain.PathItem) string {
	if item == nil {
		return ""
	}
	return item.Path
}

// MergeParameters merges path-item parameters with operation parameters.
// An operation parameter replaces the path-item parameter with the same
// name and location, keeping its position. Parameter $refs are resolved first.
func MergeParameters(item *domain.PathItem, op *domain.Operation, doc *domain.OpenAPIDocument) []domain.Parameter {
	var keys []string
	byKey := make(map[string]domain.Parameter)

	add := func(params []domain.Parameter) {
		for _, raw := range params {
			p, ok := resolveParameter(raw, doc)
			if !ok {
				continue
			}
			if _, seen := byKey[p.Key()]; !seen {
				keys = append(keys, p.Key())
			}
			byKey[p.Key()] = p
		}
	}

	if item != nil {
		add(item.Parameters)
	}
	if op != nil {
		add(op.Parameters)
	}

	merged := make([]domain.Parameter, 0, len(keys))
	for _, k := range keys {
		merged = append(merged, byKey[k])
	}

	return merged
}

func resolveParameter(p domain.Parameter, doc *domain.OpenAPIDocument) (domain.Parameter, bool) {
	if p.Ref == "" {
		return p, true
	}

	node := ResolveRef(p.Ref, doc)
	if _, ok := domain.AsObject(node); !ok {
		return domain.Parameter{}, false
	}

	return domain.DecodeParameter(node), true
}

func defaultValue(schema *domain.Schema) string {
	if schema == nil || !schema.HasDefault {
		return ""
	}
	return stringify(schema.Default)
}

// bodyDefaults returns the body text and the media type it was derived from.
func bodyDefaults(rb *domain.RequestBody, doc *domain.OpenAPIDocument) (string, string, bool) {
	rb = resolveRequestBody(rb, doc)
	if rb == nil || len(rb.Content) == 0 {
		return "", "", false
	}

	media := selectMedia(rb)

	switch media.ContentType {
	case ContentJSON:
		if media.Schema != nil {
			return GenerateExample(media.Schema, 0, doc), media.ContentType, true
		}
		if media.HasExample {
			if out, ok := prettyJSON(media.Example); ok {
				return out, media.ContentType, true
			}
		}
		return Placeholder, media.ContentType, true

	case ContentForm:
		return formBody(media.Schema, doc), media.ContentType, true

	case ContentText:
		if media.HasExample {
			if out, ok := stringifyExample(media.Example); ok {
				return out, media.ContentType, true
			}
		}
		return textFallback, media.ContentType, true

	default:
		if media.HasExample {
			if out, ok := stringifyExample(media.Example); ok {
				return out, media.ContentType, true
			}
		}
		return Placeholder, media.ContentType, true
	}
}

func resolveRequestBody(rb *domain.RequestBody, doc *domain.OpenAPIDocument) *domain.RequestBody {
	if rb == nil || rb.Ref == "" {
		return rb
	}

	node := ResolveRef(rb.Ref, doc)
	if _, ok := domain.AsObject(node); !ok {
		return nil
	}

	return domain.DecodeRequestBody(node)
}

func selectMedia(rb *domain.RequestBody) domain.MediaType {
	for _, ct := range []string{ContentJSON, ContentForm, ContentText} {
		if m, ok := rb.Media(ct); ok {
			return m
		}
	}
	return rb.Content[0]
}

func formBody(schema *domain.Schema, doc *domain.OpenAPIDocument) string {
	if schema != nil && schema.Ref != "" {
		if resolved, ok := resolveSchema(schema.Ref, doc); ok {
			schema = resolved
		}
	}

	if schema == nil || schema.Properties == nil {
		return formFallback
	}

	pairs := make([]string, 0, len(schema.Properties))
	for _, p := range schema.Properties {
		pairs = append(pairs, p.Name+"=value")
	}

	return strings.Join(pairs, "&")
}

func setContentType(headers []domain.HeaderRow, contentType string) {
	for i := range headers {
		if strings.EqualFold(headers[i].Key, "Content-Type") {
			headers[i].Value = contentType
		}
	}
}
