package synth

import (
	"strings"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

// DetectAuth maps the first scheme of the first global security requirement
// to an auth type. Alternatives and operation-level security are not inspected.
func DetectAuth(doc *domain.OpenAPIDocument) domain.Auth {
	none := domain.Auth{Type: domain.AuthNone}

	if doc == nil || len(doc.SecuritySchemes) == 0 || len(doc.Security) == 0 {
		return none
	}

	first := doc.Security[0]
	if len(first.Schemes) == 0 {
		return none
	}

	scheme, ok := doc.SecuritySchemes[first.Schemes[0]]
	if !ok {
		return none
	}

	switch scheme.Type {
	case "http":
		switch strings.ToLower(scheme.Scheme) {
		case "bearer":
			return domain.Auth{Type: domain.AuthBearer}
		case "basic":
			return domain.Auth{Type: domain.AuthBasic}
		}
	case "apiKey":
		return domain.Auth{
			Type:       domain.AuthAPIKey,
			APIKeyName: scheme.Name,
			APIKeyIn:   scheme.In,
		}
	}

	return none
}
