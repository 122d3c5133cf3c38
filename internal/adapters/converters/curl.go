package converters

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

const curlFormat = "curl"

// CurlConverter renders request collections as a shell script of curl commands.
// Credentials are written as environment variable references, never as values.
type CurlConverter struct{}

// NewCurlConverter creates a new curl converter.
func NewCurlConverter() *CurlConverter {
	return &CurlConverter{}
}

// Format returns the output format name.
func (c *CurlConverter) Format() string {
	return curlFormat
}

// Convert writes one curl command per collection entry.
func (c *CurlConverter) Convert(col *domain.Collection, output io.Writer) error {
	w := bufio.NewWriter(output)

	fmt.Fprintln(w, "#!/bin/sh")
	fmt.Fprintf(w, "# %s", oneLine(col.Title))
	if col.Version != "" {
		fmt.Fprintf(w, " %s", oneLine(col.Version))
	}
	fmt.Fprintln(w)

	for _, e := range col.Entries {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "# %s\n", oneLine(entryTitle(e)))
		if e.Summary != "" {
			fmt.Fprintf(w, "# %s\n", oneLine(e.Summary))
		}
		fmt.Fprintln(w, c.command(e.Request))
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write curl script: %w", err)
	}
	return nil
}

// command renders one request. Every value taken from the document is
// single-quoted; only the credential variable references are expanded.
func (c *CurlConverter) command(req domain.RequestDescriptor) string {
	target := shellQuote(req.URL)
	args := []string{"curl", "-X", shellWord(req.Method)}

	names := make([]string, 0, len(req.Headers))
	for k := range req.Headers {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		args = append(args, "-H", shellQuote(k+": "+req.Headers[k]))
	}

	switch req.Auth.Type {
	case domain.AuthBearer:
		args = append(args, "-H", `"Authorization: Bearer ${TOKEN}"`)
	case domain.AuthBasic:
		args = append(args, "-u", `"${USERNAME}:${PASSWORD}"`)
	case domain.AuthAPIKey:
		name := req.Auth.APIKeyName
		if name == "" {
			name = "X-API-Key"
		}
		switch req.Auth.APIKeyIn {
		case "query":
			sep := "?"
			if strings.Contains(req.URL, "?") {
				sep = "&"
			}
			target = shellQuote(req.URL+sep+url.QueryEscape(name)+"=") + apiKeyRef
		case "cookie":
			args = append(args, "-b", shellQuote(name+"=")+apiKeyRef)
		default:
			args = append(args, "-H", shellQuote(name+": ")+apiKeyRef)
		}
	}

	if req.Body != nil {
		args = append(args, "--data-raw", shellQuote(*req.Body))
	}

	return strings.Join(append(args, target), " ")
}

const apiKeyRef = `"${API_KEY}"`

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// shellWord leaves plain alphanumeric words bare and quotes anything else.
func shellWord(s string) string {
	if s == "" {
		return shellQuote(s)
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return shellQuote(s)
		}
	}
	return s
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
