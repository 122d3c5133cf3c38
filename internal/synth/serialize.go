package synth

import (
	"strings"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

// Serialize turns an edited request model into a dispatchable descriptor.
// Unfilled {param} tokens stay in the URL; the executor reports them.
func Serialize(m domain.RequestModel) domain.RequestDescriptor {
	headers := make(map[string]string)
	for _, h := range m.Headers {
		if h.Enabled && h.Key != "" && h.Value != "" {
			headers[h.Key] = h.Value
		}
	}

	url := m.URL
	for _, p := range m.Params {
		if p.ParamIn == domain.InPath && p.Key != "" && p.Value != "" {
			url = strings.ReplaceAll(url, "{"+p.Key+"}", EscapeComponent(p.Value))
		}
	}

	var query, cookies []string
	for _, p := range m.Params {
		if !p.Enabled || p.Key == "" || p.Value == "" {
			continue
		}

		switch p.ParamIn {
		case domain.InPath, domain.InHeader:
			// not part of the query string
		case domain.InCookie:
			cookies = append(cookies, p.Key+"="+EscapeComponent(p.Value))
		default:
			query = append(query, EscapeComponent(p.Key)+"="+EscapeComponent(p.Value))
		}
	}

	if len(query) > 0 {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + strings.Join(query, "&")
	}

	if len(cookies) > 0 && !hasHeader(headers, "Cookie") {
		headers["Cookie"] = strings.Join(cookies, "; ")
	}

	desc := domain.RequestDescriptor{
		Method:  m.Method,
		URL:     url,
		Headers: headers,
		Auth:    m.Auth,
	}

	if MethodHasBody(m.Method) {
		body := m.Body
		desc.Body = &body
	}

	return desc
}

// MethodHasBody reports whether a request body is sent for method.
func MethodHasBody(method string) bool {
	switch strings.ToUpper(method) {
	case "POST", "PUT", "PATCH":
		return true
	default:
		return false
	}
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
