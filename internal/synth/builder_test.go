package synth

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

var testConfig = Config{
	FallbackURL: "https://fallback.test",
	DefaultHeaders: []domain.HeaderRow{
		{Enabled: true, Key: "Content-Type", Value: "application/json"},
		{Enabled: true, Key: "Accept", Value: "application/json"},
	},
}

const builderDoc = `
openapi: 3.0.3
info: {title: Users, version: "2"}
servers:
  - url: https://api.test
  - url: https://staging.api.test
security:
  - bearerAuth: []
paths:
  /users/{id}:
    parameters:
      - name: id
        in: path
        schema: {type: string, default: "1"}
      - name: X-Trace
        in: header
      - $ref: '#/components/parameters/Limit'
    get:
      parameters:
        - name: id
          in: path
          required: true
        - name: verbose
          in: query
          schema: {type: boolean, default: false}
        - name: session
          in: cookie
          required: true
        - name: ghost
          in: body
        - $ref: '#/components/parameters/Missing'
    put:
      requestBody:
        $ref: '#/components/requestBodies/UserBody'
  /forms:
    post:
      requestBody:
        content:
          text/plain:
            example: hello
          application/x-www-form-urlencoded:
            schema:
              $ref: '#/components/schemas/Login'
components:
  securitySchemes:
    bearerAuth: {type: http, scheme: bearer}
  parameters:
    Limit:
      name: limit
      in: query
      required: true
      schema: {type: integer, default: 20}
  requestBodies:
    UserBody:
      content:
        application/json:
          schema:
            $ref: '#/components/schemas/User'
  schemas:
    User:
      type: object
      properties:
        id: {type: integer}
        name: {type: string, default: Bob}
    Login:
      type: object
      properties:
        user: {type: string}
        pass: {type: string}
`

func TestBuildRequestDefaults_Full(t *testing.T) {
	doc := mustParse(t, builderDoc)
	item := doc.Paths[0]

	got := BuildRequestDefaults(item.Operation("get"), item, nil, doc, testConfig)

	want := domain.RequestModel{
		Method: "GET",
		URL:    "https://api.test/users/{id}",
		Params: []domain.ParamRow{
			{Enabled: true, Key: "id", ParamIn: domain.InPath},
			{Enabled: true, Key: "limit", Value: "20", ParamIn: domain.InQuery},
			{Enabled: false, Key: "verbose", Value: "false", ParamIn: domain.InQuery},
			{Enabled: true, Key: "session", ParamIn: domain.InCookie},
			{Enabled: true},
		},
		Headers: []domain.HeaderRow{
			{Enabled: true, Key: "Content-Type", Value: "application/json"},
			{Enabled: true, Key: "Accept", Value: "application/json"},
			{Enabled: true, Key: "X-Trace"},
			{Enabled: true},
		},
		Auth: domain.Auth{Type: domain.AuthBearer},
		Body: Placeholder,
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildRequestDefaults() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeParameters_OperationOverrides(t *testing.T) {
	item := &domain.PathItem{
		Path: "/users/{id}",
		Parameters: []domain.Parameter{
			{Name: "id", In: domain.InPath, Schema: &domain.Schema{Default: "1", HasDefault: true}},
		},
	}
	op := &domain.Operation{
		Method: "GET",
		Parameters: []domain.Parameter{
			{Name: "id", In: domain.InPath, Required: true},
		},
	}

	merged := MergeParameters(item, op, nil)

	require.Len(t, merged, 1)
	assert.True(t, merged[0].Required)
	assert.Nil(t, merged[0].Schema)

	model := BuildRequestDefaults(op, item, nil, nil, testConfig)
	require.Len(t, model.Params, 2)
	assert.Equal(t, "", model.Params[0].Value)
}

func TestMergeParameters_SameNameDifferentLocation(t *testing.T) {
	item := &domain.PathItem{Parameters: []domain.Parameter{{Name: "id", In: domain.InPath}}}
	op := &domain.Operation{Parameters: []domain.Parameter{{Name: "id", In: domain.InQuery}}}

	merged := MergeParameters(item, op, nil)

	require.Len(t, merged, 2)
	assert.Equal(t, "id:path", merged[0].Key())
	assert.Equal(t, "id:query", merged[1].Key())
}

func TestBuildRequestDefaults_PathAlwaysEnabled(t *testing.T) {
	item := &domain.PathItem{Path: "/items/{id}"}
	op := &domain.Operation{
		Method: "delete",
		Parameters: []domain.Parameter{
			{Name: "id", In: domain.InPath, Required: false},
			{Name: "q", In: domain.InQuery, Required: false},
		},
	}

	model := BuildRequestDefaults(op, item, nil, nil, testConfig)

	assert.Equal(t, "DELETE", model.Method)
	assert.True(t, model.Params[0].Enabled)
	assert.False(t, model.Params[1].Enabled)
}

func TestBuildRequestDefaults_BaseURL(t *testing.T) {
	doc := mustParse(t, builderDoc)
	item := doc.Paths[0]
	op := item.Operation("get")

	staging := doc.Servers[1]
	assert.Equal(t, "https://staging.api.test/users/{id}", BuildRequestDefaults(op, item, &staging, doc, testConfig).URL)

	doc.Servers = nil
	assert.Equal(t, "https://fallback.test/users/{id}", BuildRequestDefaults(op, item, nil, doc, testConfig).URL)
}

func TestBuildRequestDefaults_RequestBodyRef(t *testing.T) {
	doc := mustParse(t, builderDoc)
	item := doc.Paths[0]

	model := BuildRequestDefaults(item.Operation("put"), item, nil, doc, testConfig)

	assert.Equal(t, "{\n  \"id\": 0,\n  \"name\": \"Bob\"\n}", model.Body)
	assert.Equal(t, "application/json", model.Headers[0].Value)
}

func TestBuildRequestDefaults_FormPreferredOverText(t *testing.T) {
	doc := mustParse(t, builderDoc)
	item := doc.Paths[1]

	model := BuildRequestDefaults(item.Operation("post"), item, nil, doc, testConfig)

	assert.Equal(t, "user=value&pass=value", model.Body)
	assert.Equal(t, domain.HeaderRow{Enabled: true, Key: "Content-Type", Value: ContentForm}, model.Headers[0])
}

func TestBodyDefaults(t *testing.T) {
	userSchema := &domain.Schema{Type: domain.TypeObject, Properties: []domain.Property{
		{Name: "id", Schema: &domain.Schema{Type: domain.TypeInteger}},
	}}

	tests := []struct {
		name            string
		body            *domain.RequestBody
		wantBody        string
		wantContentType string
		wantOK          bool
	}{
		{
			name: "no request body",
		},
		{
			name: "no content",
			body: &domain.RequestBody{},
		},
		{
			name: "json schema",
			body: &domain.RequestBody{Content: []domain.MediaType{
				{ContentType: "text/plain"},
				{ContentType: ContentJSON, Schema: userSchema},
			}},
			wantBody:        "{\n  \"id\": 0\n}",
			wantContentType: ContentJSON,
			wantOK:          true,
		},
		{
			name: "json example only",
			body: &domain.RequestBody{Content: []domain.MediaType{
				{ContentType: ContentJSON, Example: map[string]any{"a": 1}, HasExample: true},
			}},
			wantBody:        "{\n  \"a\": 1\n}",
			wantContentType: ContentJSON,
			wantOK:          true,
		},
		{
			name:            "json without schema or example",
			body:            &domain.RequestBody{Content: []domain.MediaType{{ContentType: ContentJSON}}},
			wantBody:        Placeholder,
			wantContentType: ContentJSON,
			wantOK:          true,
		},
		{
			name:            "form without schema",
			body:            &domain.RequestBody{Content: []domain.MediaType{{ContentType: ContentForm}}},
			wantBody:        "key=value&key2=value2",
			wantContentType: ContentForm,
			wantOK:          true,
		},
		{
			name:            "text example",
			body:            &domain.RequestBody{Content: []domain.MediaType{{ContentType: ContentText, Example: "hi", HasExample: true}}},
			wantBody:        "hi",
			wantContentType: ContentText,
			wantOK:          true,
		},
		{
			name:            "text fallback",
			body:            &domain.RequestBody{Content: []domain.MediaType{{ContentType: ContentText}}},
			wantBody:        "Plain text content",
			wantContentType: ContentText,
			wantOK:          true,
		},
		{
			name: "other type example is stringified",
			body: &domain.RequestBody{Content: []domain.MediaType{
				{ContentType: "application/xml", Example: "<a/>", HasExample: true},
				{ContentType: "application/yaml", Example: "b: 1", HasExample: true},
			}},
			wantBody:        "<a/>",
			wantContentType: "application/xml",
			wantOK:          true,
		},
		{
			name:            "other type without example",
			body:            &domain.RequestBody{Content: []domain.MediaType{{ContentType: "application/octet-stream"}}},
			wantBody:        Placeholder,
			wantContentType: "application/octet-stream",
			wantOK:          true,
		},
		{
			name: "unresolvable ref",
			body: &domain.RequestBody{Ref: "#/components/requestBodies/Nope"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType, ok := bodyDefaults(tt.body, nil)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBody, body)
			assert.Equal(t, tt.wantContentType, contentType)
		})
	}
}

func TestBuildRequestDefaults_NilInputs(t *testing.T) {
	model := BuildRequestDefaults(nil, nil, nil, nil, Config{})

	assert.Equal(t, "", model.URL)
	assert.Equal(t, domain.AuthNone, model.Auth.Type)
	assert.Equal(t, Placeholder, model.Body)
	assert.Equal(t, []domain.ParamRow{{Enabled: true}}, model.Params)
	assert.Equal(t, []domain.HeaderRow{{Enabled: true}}, model.Headers)
}

func TestBuildRequestDefaults_DoesNotMutateConfig(t *testing.T) {
	cfg := Config{DefaultHeaders: []domain.HeaderRow{{Enabled: true, Key: "Content-Type", Value: ContentJSON}}}
	op := &domain.Operation{
		Method:      "POST",
		RequestBody: &domain.RequestBody{Content: []domain.MediaType{{ContentType: ContentText}}},
	}

	model := BuildRequestDefaults(op, &domain.PathItem{Path: "/t"}, nil, nil, cfg)

	assert.Equal(t, ContentText, model.Headers[0].Value)
	assert.Equal(t, ContentJSON, cfg.DefaultHeaders[0].Value)
}
