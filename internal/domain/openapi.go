// Package domain provides core business models and interfaces for the request synthesizer.
package domain

import "strings"

// OpenAPIDocument represents a parsed OpenAPI specification.
// It is immutable once decoded; synthesis only reads it.
type OpenAPIDocument struct {
	OpenAPI         string
	Info            Info
	Servers         []Server
	Paths           []*PathItem // declared order
	Components      any         // raw components node
	SecuritySchemes map[string]SecurityScheme
	Security        []SecurityRequirement

	// Root is the raw document tree that $ref pointers are resolved against.
	Root any
}

// Info holds document metadata.
type Info struct {
	Title       string
	Version     string
	Description string
}

// Server represents an API server.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// SecurityScheme represents a security scheme.
type SecurityScheme struct {
	Type        string // apiKey, http, oauth2, openIdConnect, mutualTLS
	Name        string
	Description string
	In          string
	Scheme      string
}

// SecurityRequirement is one entry of a security list: scheme name to scopes,
// kept in declared order.
type SecurityRequirement struct {
	Schemes []string
	Scopes  map[string][]string
}

// PathItem represents an API endpoint path.
type PathItem struct {
	Path       string
	Parameters []Parameter
	Operations []*Operation
}

// Operation looks up the operation for a method, case-insensitively.
func (p *PathItem) Operation(method string) *Operation {
	if p == nil {
		return nil
	}

	for _, op := range p.Operations {
		if strings.EqualFold(op.Method, method) {
			return op
		}
	}

	return nil
}

// Methods understood on a path item, in the order they are decoded.
var Methods = []string{"get", "put", "post", "delete", "options", "head", "patch"}

// Operation represents an HTTP operation on a path.
type Operation struct {
	Method      string // upper case
	OperationID string
	Summary     string
	Description string
	Tags        []string
	Parameters  []Parameter
	RequestBody *RequestBody
	Responses   []Response
}

// ParamIn is the location of a parameter.
type ParamIn string

// Parameter locations.
const (
	InQuery  ParamIn = "query"
	InPath   ParamIn = "path"
	InHeader ParamIn = "header"
	InCookie ParamIn = "cookie"
)

// Parameter represents a request parameter.
type Parameter struct {
	Ref         string
	Name        string
	In          ParamIn
	Description string
	Required    bool
	Schema      *Schema
}

// Key is the identity used when merging parameters.
func (p Parameter) Key() string {
	return p.Name + ":" + string(p.In)
}

// RequestBody represents a request body.
type RequestBody struct {
	Ref         string
	Description string
	Required    bool
	Content     []MediaType // declared order
}

// Media returns the media type entry for contentType.
func (rb *RequestBody) Media(contentType string) (MediaType, bool) {
	if rb == nil {
		return MediaType{}, false
	}

	for _, m := range rb.Content {
		if m.ContentType == contentType {
			return m, true
		}
	}

	return MediaType{}, false
}

// MediaType represents the content type and schema.
type MediaType struct {
	ContentType string
	Schema      *Schema
	Example     any
	HasExample  bool
}

// Response represents an API response.
type Response struct {
	StatusCode  string
	Description string
}

// SchemaType is the JSON Schema type keyword.
type SchemaType string

// Schema types. TypeNone means the keyword is absent or unrecognised.
const (
	TypeNone    SchemaType = ""
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
)

// Schema is the subset of JSON Schema used for example generation.
type Schema struct {
	Ref         string
	Type        SchemaType
	Format      string
	Description string
	Properties  []Property // declared order, nil when the keyword is absent
	Items       *Schema
	Example     any
	HasExample  bool
	Enum        []any
	Default     any
	HasDefault  bool
}

// Property is a named schema inside an object schema.
type Property struct {
	Name   string
	Schema *Schema
}
