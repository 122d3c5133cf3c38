package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

const petstore = `openapi: 3.0.3
info:
  title: Petstore
  version: "1.0"
servers:
  - url: https://pets.test/v1
  - url: https://staging.pets.test/v1
paths:
  /pets:
    get:
      tags: [pets]
      summary: List pets
      parameters:
        - name: limit
          in: query
          schema: {type: integer, default: 20}
      responses:
        "200": {description: ok}
    post:
      tags: [pets]
      summary: Create a pet
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                name: {type: string, example: Rex}
      responses:
        "201": {description: created}
  /pets/{petId}:
    get:
      tags: [pets]
      summary: Show pet
      parameters:
        - name: petId
          in: path
          required: true
          schema: {type: string}
      responses:
        "200": {description: ok}
  /health:
    get:
      summary: Health check
      responses:
        "200": {description: ok}
`

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

func writeSpec(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "petstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(petstore), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	app := New(nopLogger{})
	app.SetOutput(&out)
	app.SetArgs(args)
	err := app.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	spec := writeSpec(t)

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "all",
			args:     []string{"list", "-i", spec},
			contains: []string{"GET   /pets", "POST  /pets", "/pets/{petId}", "/health"},
		},
		{
			name:     "by tag and method",
			args:     []string{"list", "-i", spec, "--tag", "pets", "--method", "post"},
			contains: []string{"Create a pet"},
			excludes: []string{"List pets", "Health check"},
		},
		{
			name:     "search",
			args:     []string{"list", "-i", spec, "--search", "HEALTH"},
			contains: []string{"/health"},
			excludes: []string{"/pets"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestList_Requests(t *testing.T) {
	out, err := run(t, "list", "-i", writeSpec(t), "--requests")
	require.NoError(t, err)

	var col domain.Collection
	require.NoError(t, json.Unmarshal([]byte(out), &col))
	assert.Equal(t, "Petstore", col.Title)
	require.Len(t, col.Entries, 4)
	assert.Equal(t, "https://pets.test/v1/pets?limit=20", col.Entries[0].Request.URL)
}

func TestRequest(t *testing.T) {
	spec := writeSpec(t)

	out, err := run(t, "request", "-i", spec, "--path", "/pets/{petId}")
	require.NoError(t, err)
	var model domain.RequestModel
	require.NoError(t, json.Unmarshal([]byte(out), &model))
	assert.Equal(t, "GET", model.Method)
	assert.Equal(t, "https://pets.test/v1/pets/{petId}", model.URL)

	out, err = run(t, "request", "-i", spec, "--path", "/pets/{petId}", "--server", "1",
		"--set", "petId=42", "--set", "fields=name", "--header", "X-Trace=abc", "--serialized")
	require.NoError(t, err)
	var desc domain.RequestDescriptor
	require.NoError(t, json.Unmarshal([]byte(out), &desc))
	assert.Equal(t, "https://staging.pets.test/v1/pets/42?fields=name", desc.URL)
	assert.Equal(t, "abc", desc.Headers["X-Trace"])

	out, err = run(t, "request", "-i", spec, "--path", "/pets", "--method", "POST", "--body", `{"name":"Tom"}`, "--serialized")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &desc))
	require.NotNil(t, desc.Body)
	assert.Equal(t, `{"name":"Tom"}`, *desc.Body)
}

func TestRequest_MasksCredentials(t *testing.T) {
	spec := writeSpec(t)

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, auth domain.Auth)
	}{
		{
			name: "model token",
			args: []string{"--token", "abcdefghi"},
			check: func(t *testing.T, auth domain.Auth) {
				assert.Equal(t, domain.AuthBearer, auth.Type)
				assert.Equal(t, "abc***ghi", auth.Token)
			},
		},
		{
			name: "serialized api key",
			args: []string{"--api-key", "k3y-secret", "--serialized"},
			check: func(t *testing.T, auth domain.Auth) {
				assert.Equal(t, domain.AuthAPIKey, auth.Type)
				assert.Equal(t, "k3y****ret", auth.APIKey)
			},
		},
		{
			name: "serialized basic",
			args: []string{"--user", "bob:hunter22", "--serialized"},
			check: func(t *testing.T, auth domain.Auth) {
				assert.Equal(t, "bob", auth.Username)
				assert.Equal(t, "hu****22", auth.Password)
			},
		},
		{
			name: "shown on request",
			args: []string{"--token", "abcdefghi", "--serialized", "--show-secrets"},
			check: func(t *testing.T, auth domain.Auth) {
				assert.Equal(t, "abcdefghi", auth.Token)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"request", "-i", spec, "--path", "/pets"}, tt.args...)
			out, err := run(t, args...)
			require.NoError(t, err)

			var got struct {
				Auth domain.Auth `json:"auth"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			tt.check(t, got.Auth)
		})
	}
}

func TestRequest_Errors(t *testing.T) {
	spec := writeSpec(t)

	_, err := run(t, "request", "-i", spec, "--path", "/nope")
	assert.ErrorIs(t, err, domain.ErrOperationNotFound)

	_, err = run(t, "request", "-i", spec, "--path", "/pets", "--server", "5")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = run(t, "request", "-i", spec, "--path", "/pets", "--set", "novalue")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = run(t, "request", "-i", spec, "--path", "/pets", "--token", "a", "--api-key", "b")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = run(t, "request", "-i", spec, "--path", "/pets", "--user", "nocolon")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = run(t, "request", "-i", filepath.Join(t.TempDir(), "missing.yaml"), "--path", "/pets")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	spec := writeSpec(t)
	output := filepath.Join(t.TempDir(), "pets.sh")

	_, err := run(t, "export", "-i", spec, "-o", output, "-f", "curl")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "curl -X GET")
	assert.Contains(t, string(data), "https://pets.test/v1/pets?limit=20")

	_, err = run(t, "export", "-i", spec, "-o", output, "-f", "html")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestFetch_BlockedURL(t *testing.T) {
	_, err := run(t, "fetch", "http://127.0.0.1:1/spec.yaml")
	assert.ErrorIs(t, err, domain.ErrBlockedURL)

	_, err = run(t, "fetch", "https://a.test/x", "https://b.test/y", "--id", "only-one")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestFetch_Refresh(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, petstore)
	}))
	defer srv.Close()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := fmt.Sprintf("executor:\n  allow_private_networks: true\nfetcher:\n  cache_dir: %s\n", filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	url := srv.URL + "/petstore.yaml"

	out, err := run(t, "--config", cfgPath, "fetch", url)
	require.NoError(t, err)
	assert.Contains(t, out, "title: Petstore")

	_, err = run(t, "--config", cfgPath, "fetch", url)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second fetch is served from cache")

	_, err = run(t, "--config", cfgPath, "fetch", "--refresh", url)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load(), "refresh bypasses the cache")
}

func TestApplyEdits(t *testing.T) {
	model := domain.RequestModel{
		Params:  []domain.ParamRow{{Enabled: false, Key: "limit", Value: "20", ParamIn: domain.InQuery}, {Enabled: true}},
		Headers: []domain.HeaderRow{{Enabled: true, Key: "Accept", Value: "application/json"}, {Enabled: true}},
	}

	require.NoError(t, applyEdits(&model, []string{"limit=5", "q=a=b"}, []string{"accept=text/plain"}))

	assert.Equal(t, []domain.ParamRow{
		{Enabled: true, Key: "limit", Value: "5", ParamIn: domain.InQuery},
		{Enabled: true, Key: "q", Value: "a=b", ParamIn: domain.InQuery},
		{Enabled: true},
	}, model.Params)
	assert.Equal(t, []domain.HeaderRow{
		{Enabled: true, Key: "Accept", Value: "text/plain"},
		{Enabled: true},
	}, model.Headers)
}
