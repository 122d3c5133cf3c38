package synth

import "github.com/GabrielNunesIT/openapi-tryit/internal/domain"

// BuildCollection builds and serializes the default request of every
// operation, in declared document order.
func BuildCollection(doc *domain.OpenAPIDocument, cfg Config) *domain.Collection {
	col := &domain.Collection{}
	if doc == nil {
		return col
	}

	col.Title = doc.Info.Title
	col.Version = doc.Info.Version
	col.Description = doc.Info.Description
	col.Servers = doc.Servers

	for _, item := range doc.Paths {
		for _, op := range item.Operations {
			model := BuildRequestDefaults(op, item, nil, doc, cfg)
			col.Entries = append(col.Entries, domain.CollectionEntry{
				Path:        item.Path,
				Method:      op.Method,
				OperationID: op.OperationID,
				Summary:     op.Summary,
				Tags:        op.Tags,
				Model:       model,
				Request:     Serialize(model),
			})
		}
	}

	return col
}
