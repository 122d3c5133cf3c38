package domain

// AuthType selects how credentials are attached to a request.
type AuthType string

// Auth types.
const (
	AuthNone   AuthType = "none"
	AuthAPIKey AuthType = "api-key"
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
)

// Auth holds the credentials of a request. Only the fields relevant to Type are used.
type Auth struct {
	Type     AuthType `json:"type"`
	APIKey   string   `json:"apiKey,omitempty"`
	Token    string   `json:"token,omitempty"`
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"`

	// APIKeyName and APIKeyIn come from the apiKey security scheme.
	APIKeyName string `json:"apiKeyName,omitempty"`
	APIKeyIn   string `json:"apiKeyIn,omitempty"`
}

// Masked returns a copy with secrets partially starred out, for logs and exports.
func (a Auth) Masked() Auth {
	a.APIKey = maskSecret(a.APIKey)
	a.Token = maskSecret(a.Token)
	a.Password = maskSecret(a.Password)
	return a
}

func maskSecret(s string) string {
	p := []rune(s)
	n := len(p)
	if n == 0 {
		return s
	}
	if n < 3 {
		return string(p[0]) + "*"
	}
	start := n / 3
	for i := start; i < n-start; i++ {
		p[i] = '*'
	}
	return string(p)
}

// ParamRow is an editable parameter row.
type ParamRow struct {
	Enabled     bool    `json:"enabled"`
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	Description string  `json:"description,omitempty"`
	ParamIn     ParamIn `json:"paramIn,omitempty"`
}

// Blank reports whether the row is the empty editable slot.
func (r ParamRow) Blank() bool {
	return r.Key == "" && r.Value == ""
}

// HeaderRow is an editable header row.
type HeaderRow struct {
	Enabled bool   `json:"enabled"`
	Key     string `json:"key"`
	Value   string `json:"value"`
}

// Blank reports whether the row is the empty editable slot.
func (r HeaderRow) Blank() bool {
	return r.Key == "" && r.Value == ""
}

// RequestModel is the editable request state seeded by the builder.
type RequestModel struct {
	Method  string      `json:"method"`
	URL     string      `json:"url"`
	Params  []ParamRow  `json:"params"`
	Headers []HeaderRow `json:"headers"`
	Auth    Auth        `json:"auth"`
	Body    string      `json:"body"`
}

// Normalize drops blank rows and appends exactly one trailing blank row
// to params and headers.
func (m *RequestModel) Normalize() {
	params := m.Params[:0:0]
	for _, p := range m.Params {
		if !p.Blank() {
			params = append(params, p)
		}
	}
	m.Params = append(params, ParamRow{Enabled: true})

	headers := m.Headers[:0:0]
	for _, h := range m.Headers {
		if !h.Blank() {
			headers = append(headers, h)
		}
	}
	m.Headers = append(headers, HeaderRow{Enabled: true})
}

// RequestDescriptor is the dispatchable request handed to an Executor.
type RequestDescriptor struct {
	Method  string            `json:"method" binding:"required"`
	URL     string            `json:"url" binding:"required"`
	Headers map[string]string `json:"headers"`
	Body    *string           `json:"body,omitempty"`
	Auth    Auth              `json:"auth"`
}

// ResponseModel is the normalized response returned by an Executor.
type ResponseModel struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Time       int64             `json:"time"` // milliseconds
	Size       float64           `json:"size"` // kilobytes
	Headers    map[string]string `json:"headers"`
	Body       any               `json:"body"`
}

// Collection is the serialized default request of every operation in a document.
type Collection struct {
	Title       string
	Version     string
	Description string
	Servers     []Server
	Entries     []CollectionEntry
}

// CollectionEntry is one operation and its default request.
type CollectionEntry struct {
	Path        string
	Method      string
	OperationID string
	Summary     string
	Tags        []string
	Model       RequestModel
	Request     RequestDescriptor
}
