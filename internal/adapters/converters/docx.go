package converters

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

const docxFormat = "docx"

// DocxConverter renders request collections as Word (DOCX) documents.
type DocxConverter struct{}

// NewDocxConverter creates a new DOCX converter.
func NewDocxConverter() *DocxConverter {
	return &DocxConverter{}
}

// Format returns the output format name.
func (c *DocxConverter) Format() string {
	return docxFormat
}

// Convert writes the collection as a DOCX document.
func (c *DocxConverter) Convert(col *domain.Collection, output io.Writer) error {
	document, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	c.addTitle(document, col)
	c.addServers(document, col.Servers)

	if len(col.Entries) > 0 {
		_, _ = document.AddHeading("Requests", 1)
		for _, e := range col.Entries {
			c.addEntry(document, e)
		}
	}

	if err := document.Write(output); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	return nil
}

func (c *DocxConverter) addTitle(document *docx.RootDoc, col *domain.Collection) {
	_, _ = document.AddHeading(col.Title, 0) // Level 0 = Title style
	if col.Version != "" {
		document.AddParagraph(fmt.Sprintf("Version: %s", col.Version))
	}
	if col.Description != "" {
		document.AddParagraph(col.Description)
	}
	document.AddEmptyParagraph()
}

func (c *DocxConverter) addServers(document *docx.RootDoc, servers []domain.Server) {
	if len(servers) == 0 {
		return
	}

	_, _ = document.AddHeading("Servers", 1)

	for _, server := range servers {
		text := server.URL
		if server.Description != "" {
			text = fmt.Sprintf("%s - %s", server.URL, server.Description)
		}

		document.AddParagraph(fmt.Sprintf("• %s", text))
	}

	document.AddEmptyParagraph()
}

func (c *DocxConverter) addEntry(document *docx.RootDoc, e domain.CollectionEntry) {
	_, _ = document.AddHeading(entryTitle(e), 2)

	if e.Summary != "" {
		document.AddParagraph(e.Summary)
	}

	document.AddParagraph("URL: " + e.Request.URL)
	document.AddParagraph("Auth: " + authLine(e.Request.Auth))

	if headers := headerLines(e.Request); len(headers) > 0 {
		_, _ = document.AddHeading("Headers", 3)
		for _, h := range headers {
			document.AddParagraph("• " + h)
		}
	}

	if e.Request.Body != nil {
		_, _ = document.AddHeading("Body", 3)
		for _, line := range strings.Split(bodyOf(e.Request), "\n") {
			document.AddParagraph(line)
		}
	}

	document.AddEmptyParagraph()
}
