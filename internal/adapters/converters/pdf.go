package converters

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

const (
	pdfFormat      = "pdf"
	pdfPageWidth   = 190.0
	pdfMarginLeft  = 10.0
	pdfMarginTop   = 10.0
	pdfMarginRight = 10.0
	pdfLineHeight  = 5.0
)

var methodColors = map[string][3]int{
	"GET":     {97, 175, 254},
	"POST":    {73, 204, 144},
	"PUT":     {252, 161, 48},
	"DELETE":  {249, 62, 62},
	"PATCH":   {80, 227, 194},
	"HEAD":    {144, 97, 249},
	"OPTIONS": {128, 128, 128},
}

// PDFConverter renders request collections as PDF documents.
type PDFConverter struct {
	pdf      *gofpdf.Fpdf
	tocItems []tocItem
}

type tocItem struct {
	title  string
	level  int
	linkID int
}

// NewPDFConverter creates a new PDF converter.
func NewPDFConverter() *PDFConverter {
	return &PDFConverter{}
}

// Format returns the output format name.
func (c *PDFConverter) Format() string {
	return pdfFormat
}

// Convert writes the collection as a PDF document.
func (c *PDFConverter) Convert(col *domain.Collection, output io.Writer) error {
	c.pdf = gofpdf.New("P", "mm", "A4", "")
	c.pdf.SetMargins(pdfMarginLeft, pdfMarginTop, pdfMarginRight)
	c.pdf.SetDrawColor(180, 180, 180)
	c.tocItems = nil

	tags, groups := groupByTag(col)
	c.collectTOC(col, tags, groups)

	c.addTitlePage(col)
	c.addTableOfContents()
	c.addContent(col, tags, groups)

	if err := c.pdf.Error(); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return c.pdf.Output(output)
}

func (c *PDFConverter) addTOC(title string, level int) {
	c.tocItems = append(c.tocItems, tocItem{title: title, level: level, linkID: c.pdf.AddLink()})
}

// collectTOC registers links in the same order addContent consumes them.
func (c *PDFConverter) collectTOC(col *domain.Collection, tags []string, groups map[string][]domain.CollectionEntry) {
	if len(col.Servers) > 0 {
		c.addTOC("Servers", 1)
	}

	c.addTOC("Requests", 1)
	for _, tag := range tags {
		c.addTOC(tag, 2)
		for _, e := range groups[tag] {
			c.addTOC(entryTitle(e), 3)
		}
	}
}

func (c *PDFConverter) addTitlePage(col *domain.Collection) {
	c.pdf.AddPage()

	c.pdf.SetFont("Arial", "B", 28)
	c.pdf.Ln(40)
	c.pdf.CellFormat(pdfPageWidth, 15, col.Title, "", 1, "C", false, 0, "")
	c.pdf.Ln(5)

	if col.Version != "" {
		c.pdf.SetFont("Arial", "", 14)
		c.pdf.SetTextColor(100, 100, 100)
		c.pdf.CellFormat(pdfPageWidth, 8, fmt.Sprintf("Version %s", col.Version), "", 1, "C", false, 0, "")
		c.pdf.SetTextColor(0, 0, 0)
	}
	c.pdf.Ln(20)

	if col.Description != "" {
		c.pdf.SetFont("Arial", "", 11)
		c.pdf.MultiCell(pdfPageWidth, 6, stripHTML(col.Description), "", "C", false)
	}

	c.pdf.Ln(30)
	c.pdf.SetFont("Arial", "", 10)
	c.pdf.SetTextColor(128, 128, 128)
	c.pdf.CellFormat(pdfPageWidth, 6, fmt.Sprintf("Request Collection (%d requests)", len(col.Entries)), "", 1, "C", false, 0, "")
	c.pdf.SetTextColor(0, 0, 0)
}

func (c *PDFConverter) addTableOfContents() {
	c.pdf.AddPage()

	c.pdf.SetFont("Arial", "B", 20)
	c.pdf.CellFormat(pdfPageWidth, 10, "Table of Contents", "", 1, "", false, 0, "")
	c.pdf.Ln(8)

	for _, item := range c.tocItems {
		indent := float64(item.level-1) * 8

		switch item.level {
		case 1:
			c.pdf.SetFont("Arial", "B", 12)
		case 2:
			c.pdf.SetFont("Arial", "B", 10)
		default:
			c.pdf.SetFont("Arial", "", 9)
		}

		c.pdf.SetX(pdfMarginLeft + indent)
		c.pdf.CellFormat(pdfPageWidth-indent, pdfLineHeight, truncate(item.title, 60), "", 1, "", false, item.linkID, "")
	}
}

func (c *PDFConverter) addContent(col *domain.Collection, tags []string, groups map[string][]domain.CollectionEntry) {
	tocIndex := 0
	c.pdf.AddPage()

	if len(col.Servers) > 0 {
		c.setLinkDest(tocIndex)
		tocIndex++

		c.addSectionHeader("Servers")
		for _, server := range col.Servers {
			c.pdf.SetFont("Arial", "B", 10)
			c.pdf.SetTextColor(0, 102, 204)
			c.pdf.CellFormat(pdfPageWidth, 6, server.URL, "", 1, "", false, 0, "")
			c.pdf.SetTextColor(0, 0, 0)

			if server.Description != "" {
				c.pdf.SetFont("Arial", "", 9)
				c.pdf.SetTextColor(100, 100, 100)
				c.pdf.MultiCell(pdfPageWidth, 4, server.Description, "", "", false)
				c.pdf.SetTextColor(0, 0, 0)
			}
			c.pdf.Ln(2)
		}
		c.pdf.Ln(4)
	}

	c.checkPageBreak(30)
	c.setLinkDest(tocIndex)
	tocIndex++
	c.addSectionHeader("Requests")

	for _, tag := range tags {
		c.pdf.AddPage()
		c.setLinkDest(tocIndex)
		tocIndex++

		c.pdf.SetFont("Arial", "B", 14)
		c.pdf.SetFillColor(240, 240, 240)
		c.pdf.CellFormat(pdfPageWidth, 8, tag, "", 1, "", true, 0, "")
		c.pdf.Ln(4)

		for _, e := range groups[tag] {
			c.checkPageBreak(50)
			c.setLinkDest(tocIndex)
			tocIndex++

			c.addEntry(e)
		}
	}
}

func (c *PDFConverter) setLinkDest(tocIndex int) {
	if tocIndex < len(c.tocItems) {
		c.pdf.SetLink(c.tocItems[tocIndex].linkID, -1, -1)
	}
}

func (c *PDFConverter) addSectionHeader(title string) {
	c.pdf.SetFont("Arial", "B", 18)
	c.pdf.CellFormat(pdfPageWidth, 10, title, "", 1, "", false, 0, "")
	c.pdf.Ln(4)
}

func (c *PDFConverter) addSubHeader(title string) {
	c.pdf.SetFont("Arial", "B", 10)
	c.pdf.SetTextColor(60, 60, 60)
	c.pdf.CellFormat(pdfPageWidth, 6, title, "", 1, "", false, 0, "")
	c.pdf.SetTextColor(0, 0, 0)
}

func (c *PDFConverter) addEntry(e domain.CollectionEntry) {
	method := formatMethod(e.Method)
	color, ok := methodColors[method]
	if !ok {
		color = [3]int{128, 128, 128}
	}

	c.pdf.SetFont("Arial", "B", 11)
	c.pdf.SetFillColor(color[0], color[1], color[2])
	c.pdf.SetTextColor(255, 255, 255)
	methodWidth := float64(len(method)*3) + 8
	c.pdf.CellFormat(methodWidth, 7, method, "", 0, "C", true, 0, "")

	c.pdf.SetTextColor(0, 0, 0)
	c.pdf.CellFormat(pdfPageWidth-methodWidth, 7, " "+e.Path, "", 1, "", false, 0, "")
	c.pdf.Ln(2)

	if e.OperationID != "" {
		c.pdf.SetFont("Arial", "", 8)
		c.pdf.SetTextColor(128, 128, 128)
		c.pdf.CellFormat(pdfPageWidth, 4, fmt.Sprintf("Operation ID: %s", e.OperationID), "", 1, "", false, 0, "")
		c.pdf.SetTextColor(0, 0, 0)
	}

	if e.Summary != "" {
		c.pdf.SetFont("Arial", "B", 10)
		c.pdf.MultiCell(pdfPageWidth, 5, stripHTML(e.Summary), "", "", false)
	}
	c.pdf.Ln(2)

	c.addSubHeader("Request")
	c.pdf.SetFont("Arial", "B", 8)
	c.pdf.SetFillColor(245, 245, 245)
	colWidths := []float64{40, 150}
	c.pdf.CellFormat(colWidths[0], 6, "Field", "1", 0, "", true, 0, "")
	c.pdf.CellFormat(colWidths[1], 6, "Value", "1", 1, "", true, 0, "")

	c.pdf.SetFont("Arial", "", 8)
	c.addTableRow(colWidths, []string{"URL", e.Request.URL})
	c.addTableRow(colWidths, []string{"Auth", authLine(e.Request.Auth)})
	for _, h := range headerLines(e.Request) {
		name, value, _ := strings.Cut(h, ": ")
		c.addTableRow(colWidths, []string{name, value})
	}
	c.pdf.Ln(3)

	if e.Request.Body != nil {
		c.addSubHeader("Body")
		c.addCodeBlock(bodyOf(e.Request))
	}

	c.pdf.Ln(2)
	c.pdf.SetDrawColor(220, 220, 220)
	c.pdf.Line(pdfMarginLeft, c.pdf.GetY(), pdfMarginLeft+pdfPageWidth, c.pdf.GetY())
	c.pdf.SetDrawColor(180, 180, 180)
	c.pdf.Ln(6)
}

func (c *PDFConverter) addTableRow(colWidths []float64, contents []string) {
	maxLines := 1
	for i, content := range contents {
		lines := c.pdf.SplitLines([]byte(content), colWidths[i])
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}

	rowHeight := float64(maxLines) * pdfLineHeight
	c.checkPageBreak(rowHeight)

	startX := c.pdf.GetX()
	startY := c.pdf.GetY()

	for i, content := range contents {
		width := colWidths[i]

		c.pdf.SetXY(startX, startY)
		c.pdf.MultiCell(width, pdfLineHeight, content, "0", "L", false)
		c.pdf.Rect(startX, startY, width, rowHeight, "D")

		startX += width
	}

	c.pdf.SetXY(pdfMarginLeft, startY+rowHeight)
}

func (c *PDFConverter) addCodeBlock(content string) {
	c.pdf.SetFont("Courier", "", 8)
	c.pdf.SetFillColor(250, 250, 250)

	height := float64(strings.Count(content, "\n")+1) * 4.0
	c.checkPageBreak(height + 2)

	c.pdf.MultiCell(pdfPageWidth, 4, content, "1", "", true)
	c.pdf.Ln(4)
}

func (c *PDFConverter) checkPageBreak(height float64) {
	_, pageHeight := c.pdf.GetPageSize()
	_, _, _, bottomMargin := c.pdf.GetMargins()

	if c.pdf.GetY()+height > pageHeight-bottomMargin-10 {
		c.pdf.AddPage()
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// stripHTML removes tags and the common entities from description text.
func stripHTML(s string) string {
	result := s
	for {
		start := strings.Index(result, "<")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], ">")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+1:]
	}

	result = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#39;", "'",
		"\n\n", "\n",
	).Replace(result)
	return strings.TrimSpace(result)
}
