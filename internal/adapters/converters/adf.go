package converters

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

const adfFormat = "confluence"

// ADFConverter renders request collections as Atlassian Document Format (ADF) for Confluence.
type ADFConverter struct{}

// NewADFConverter creates a new ADF converter.
func NewADFConverter() *ADFConverter {
	return &ADFConverter{}
}

// Format returns the output format name.
func (c *ADFConverter) Format() string {
	return adfFormat
}

// ADF node types.
type adfDocument struct {
	Version int       `json:"version"`
	Type    string    `json:"type"`
	Content []adfNode `json:"content"`
}

type adfNode struct {
	Type    string    `json:"type"`
	Attrs   *adfAttrs `json:"attrs,omitempty"`
	Content []adfNode `json:"content,omitempty"`
	Text    string    `json:"text,omitempty"`
	Marks   []adfMark `json:"marks,omitempty"`
}

type adfAttrs struct {
	Level    int    `json:"level,omitempty"`
	Language string `json:"language,omitempty"`
}

type adfMark struct {
	Type string `json:"type"`
}

// Convert writes the collection as ADF JSON.
func (c *ADFConverter) Convert(col *domain.Collection, output io.Writer) error {
	adf := &adfDocument{
		Version: 1,
		Type:    "doc",
		Content: []adfNode{},
	}

	adf.Content = append(adf.Content, c.heading(col.Title, 1))
	if col.Version != "" {
		adf.Content = append(adf.Content, c.paragraph(fmt.Sprintf("Version: %s", col.Version)))
	}

	if col.Description != "" {
		adf.Content = append(adf.Content, c.heading("Description", 2))
		adf.Content = append(adf.Content, c.paragraph(col.Description))
	}

	if len(col.Servers) > 0 {
		adf.Content = append(adf.Content, c.heading("Servers", 2))
		adf.Content = append(adf.Content, c.serverList(col.Servers))
	}

	if len(col.Entries) > 0 {
		adf.Content = append(adf.Content, c.heading("Requests", 2))

		for _, e := range col.Entries {
			adf.Content = append(adf.Content, c.entryNodes(e)...)
		}
	}

	encoder := json.NewEncoder(output)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(adf); err != nil {
		return fmt.Errorf("failed to encode ADF: %w", err)
	}

	return nil
}

func (c *ADFConverter) heading(text string, level int) adfNode {
	return adfNode{
		Type:  "heading",
		Attrs: &adfAttrs{Level: level},
		Content: []adfNode{
			{Type: "text", Text: text},
		},
	}
}

func (c *ADFConverter) paragraph(text string) adfNode {
	return adfNode{
		Type: "paragraph",
		Content: []adfNode{
			{Type: "text", Text: text},
		},
	}
}

func (c *ADFConverter) boldText(text string) adfNode {
	return adfNode{Type: "text", Text: text, Marks: []adfMark{{Type: "strong"}}}
}

func (c *ADFConverter) codeText(text string) adfNode {
	return adfNode{Type: "text", Text: text, Marks: []adfMark{{Type: "code"}}}
}

func (c *ADFConverter) codeBlock(text, language string) adfNode {
	return adfNode{
		Type:    "codeBlock",
		Attrs:   &adfAttrs{Language: language},
		Content: []adfNode{{Type: "text", Text: text}},
	}
}

func (c *ADFConverter) bulletList(items []adfNode) adfNode {
	list := make([]adfNode, 0, len(items))
	for _, item := range items {
		list = append(list, adfNode{Type: "listItem", Content: []adfNode{item}})
	}
	return adfNode{Type: "bulletList", Content: list}
}

func (c *ADFConverter) serverList(servers []domain.Server) adfNode {
	items := make([]adfNode, 0, len(servers))

	for _, server := range servers {
		text := server.URL
		if server.Description != "" {
			text = fmt.Sprintf("%s - %s", server.URL, server.Description)
		}
		items = append(items, c.paragraph(text))
	}

	return c.bulletList(items)
}

func (c *ADFConverter) entryNodes(e domain.CollectionEntry) []adfNode {
	nodes := []adfNode{c.heading(entryTitle(e), 3)}

	if e.Summary != "" {
		nodes = append(nodes, adfNode{
			Type:    "paragraph",
			Content: []adfNode{c.boldText(e.Summary)},
		})
	}

	nodes = append(nodes, adfNode{
		Type: "paragraph",
		Content: []adfNode{
			{Type: "text", Text: "URL: "},
			c.codeText(e.Request.URL),
		},
	})
	nodes = append(nodes, c.paragraph("Auth: "+authLine(e.Request.Auth)))

	if headers := headerLines(e.Request); len(headers) > 0 {
		nodes = append(nodes, c.heading("Headers", 4))
		items := make([]adfNode, 0, len(headers))
		for _, h := range headers {
			items = append(items, adfNode{Type: "paragraph", Content: []adfNode{c.codeText(h)}})
		}
		nodes = append(nodes, c.bulletList(items))
	}

	if e.Request.Body != nil {
		nodes = append(nodes, c.heading("Body", 4))
		nodes = append(nodes, c.codeBlock(bodyOf(e.Request), bodyLanguage(e.Request)))
	}

	nodes = append(nodes, adfNode{Type: "rule"})

	return nodes
}

// bodyLanguage picks the code block highlighting for a request body.
func bodyLanguage(req domain.RequestDescriptor) string {
	for k, v := range req.Headers {
		if k == "Content-Type" || k == "content-type" {
			if v == "application/json" {
				return "json"
			}
			return "text"
		}
	}
	return "json"
}
