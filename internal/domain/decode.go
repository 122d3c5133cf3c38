package domain

import (
	"fmt"
	"strings"
)

// DecodeDocument builds the typed model from a raw document tree.
// Decoding never fails: unexpected shapes become zero values.
func DecodeDocument(root any) *OpenAPIDocument {
	doc := &OpenAPIDocument{
		OpenAPI:         stringField(root, "openapi"),
		SecuritySchemes: make(map[string]SecurityScheme),
		Root:            root,
	}

	if info, ok := Field(root, "info"); ok {
		doc.Info = Info{
			Title:       stringField(info, "title"),
			Version:     stringField(info, "version"),
			Description: stringField(info, "description"),
		}
	}

	for _, s := range listField(root, "servers") {
		doc.Servers = append(doc.Servers, Server{
			URL:         stringField(s, "url"),
			Description: stringField(s, "description"),
		})
	}

	if paths, ok := Field(root, "paths"); ok {
		if obj, ok := AsObject(paths); ok {
			for _, path := range obj.Keys() {
				item, _ := obj.Get(path)
				doc.Paths = append(doc.Paths, decodePathItem(path, item))
			}
		}
	}

	if components, ok := Field(root, "components"); ok {
		doc.Components = components

		if schemes, ok := Field(components, "securitySchemes"); ok {
			if obj, ok := AsObject(schemes); ok {
				for _, name := range obj.Keys() {
					node, _ := obj.Get(name)
					doc.SecuritySchemes[name] = SecurityScheme{
						Type:        stringField(node, "type"),
						Name:        stringField(node, "name"),
						Description: stringField(node, "description"),
						In:          stringField(node, "in"),
						Scheme:      stringField(node, "scheme"),
					}
				}
			}
		}
	}

	for _, req := range listField(root, "security") {
		doc.Security = append(doc.Security, decodeSecurityRequirement(req))
	}

	return doc
}

func decodePathItem(path string, node any) *PathItem {
	item := &PathItem{Path: path}

	for _, p := range listField(node, "parameters") {
		item.Parameters = append(item.Parameters, DecodeParameter(p))
	}

	obj, ok := AsObject(node)
	if !ok {
		return item
	}

	for _, key := range obj.Keys() {
		method := strings.ToLower(key)
		if !isMethod(method) {
			continue
		}

		opNode, _ := obj.Get(key)
		item.Operations = append(item.Operations, decodeOperation(method, opNode))
	}

	return item
}

func isMethod(m string) bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

func decodeOperation(method string, node any) *Operation {
	op := &Operation{
		Method:      strings.ToUpper(method),
		OperationID: stringField(node, "operationId"),
		Summary:     stringField(node, "summary"),
		Description: stringField(node, "description"),
	}

	for _, t := range listField(node, "tags") {
		if s, ok := t.(string); ok {
			op.Tags = append(op.Tags, s)
		}
	}

	for _, p := range listField(node, "parameters") {
		op.Parameters = append(op.Parameters, DecodeParameter(p))
	}

	if rb, ok := Field(node, "requestBody"); ok {
		op.RequestBody = DecodeRequestBody(rb)
	}

	if responses, ok := Field(node, "responses"); ok {
		if obj, ok := AsObject(responses); ok {
			for _, code := range obj.Keys() {
				resp, _ := obj.Get(code)
				op.Responses = append(op.Responses, Response{
					StatusCode:  code,
					Description: stringField(resp, "description"),
				})
			}
		}
	}

	return op
}

// DecodeParameter decodes a parameter object or a parameter $ref.
func DecodeParameter(node any) Parameter {
	p := Parameter{
		Ref:         stringField(node, "$ref"),
		Name:        stringField(node, "name"),
		In:          ParamIn(stringField(node, "in")),
		Description: stringField(node, "description"),
		Required:    boolField(node, "required"),
	}

	if s, ok := Field(node, "schema"); ok {
		p.Schema = DecodeSchema(s)
	}

	return p
}

// DecodeRequestBody decodes a request body object or a request body $ref.
func DecodeRequestBody(node any) *RequestBody {
	rb := &RequestBody{
		Ref:         stringField(node, "$ref"),
		Description: stringField(node, "description"),
		Required:    boolField(node, "required"),
	}

	content, ok := Field(node, "content")
	if !ok {
		return rb
	}

	obj, ok := AsObject(content)
	if !ok {
		return rb
	}

	for _, ct := range obj.Keys() {
		media, _ := obj.Get(ct)
		mt := MediaType{ContentType: ct}

		if s, ok := Field(media, "schema"); ok {
			mt.Schema = DecodeSchema(s)
		}

		if ex, ok := Field(media, "example"); ok {
			mt.Example, mt.HasExample = ex, true
		} else if ex, ok := firstNamedExample(media); ok {
			mt.Example, mt.HasExample = ex, true
		}

		rb.Content = append(rb.Content, mt)
	}

	return rb
}

// firstNamedExample returns the value of the first entry under "examples".
func firstNamedExample(media any) (any, bool) {
	examples, ok := Field(media, "examples")
	if !ok {
		return nil, false
	}

	obj, ok := AsObject(examples)
	if !ok || len(obj.Keys()) == 0 {
		return nil, false
	}

	first, _ := obj.Get(obj.Keys()[0])
	return Field(first, "value")
}

// DecodeSchema decodes a schema node. A nil or non-mapping node yields an empty schema.
func DecodeSchema(node any) *Schema {
	s := &Schema{
		Ref:         stringField(node, "$ref"),
		Type:        decodeType(node),
		Format:      stringField(node, "format"),
		Description: stringField(node, "description"),
	}

	if props, ok := Field(node, "properties"); ok {
		if obj, ok := AsObject(props); ok {
			s.Properties = make([]Property, 0, len(obj.Keys()))
			for _, name := range obj.Keys() {
				prop, _ := obj.Get(name)
				s.Properties = append(s.Properties, Property{Name: name, Schema: DecodeSchema(prop)})
			}
		}
	}

	if items, ok := Field(node, "items"); ok {
		s.Items = DecodeSchema(items)
	}

	if ex, ok := Field(node, "example"); ok {
		s.Example, s.HasExample = ex, true
	}

	if def, ok := Field(node, "default"); ok {
		s.Default, s.HasDefault = def, true
	}

	if enum, ok := Field(node, "enum"); ok {
		if list, ok := enum.([]any); ok {
			s.Enum = list
		}
	}

	return s
}

// decodeType reads "type", accepting the 3.1 list form by taking the first non-null entry.
func decodeType(node any) SchemaType {
	raw, ok := Field(node, "type")
	if !ok {
		return TypeNone
	}

	switch v := raw.(type) {
	case string:
		return schemaType(v)
	case []any:
		for _, t := range v {
			if s, ok := t.(string); ok && s != "null" {
				return schemaType(s)
			}
		}
	}

	return TypeNone
}

func schemaType(s string) SchemaType {
	switch t := SchemaType(s); t {
	case TypeObject, TypeArray, TypeString, TypeNumber, TypeInteger, TypeBoolean:
		return t
	default:
		return TypeNone
	}
}

func decodeSecurityRequirement(node any) SecurityRequirement {
	req := SecurityRequirement{Scopes: make(map[string][]string)}

	obj, ok := AsObject(node)
	if !ok {
		return req
	}

	for _, name := range obj.Keys() {
		req.Schemes = append(req.Schemes, name)

		scopes, _ := obj.Get(name)
		list, _ := scopes.([]any)
		for _, s := range list {
			req.Scopes[name] = append(req.Scopes[name], fmt.Sprint(s))
		}
	}

	return req
}

func stringField(node any, key string) string {
	v, ok := Field(node, key)
	if !ok || v == nil {
		return ""
	}

	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}

func boolField(node any, key string) bool {
	v, _ := Field(node, key)
	b, _ := v.(bool)
	return b
}

func listField(node any, key string) []any {
	v, _ := Field(node, key)
	list, _ := v.([]any)
	return list
}
