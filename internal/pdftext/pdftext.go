package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/COROTANjayson/readify/internal/ai"
)

// Document is the text layer of a PDF.
type Document struct {
	PageCount int
	Pages     []ai.Page
}

// HasText reports whether any page carries extractable text.
func (d *Document) HasText() bool {
	for _, p := range d.Pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}

// Extract reads the plain text of every page. Pages that fail to decode are
// kept with empty text so page numbers stay aligned.
func Extract(data []byte) (doc *Document, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	total := r.NumPage()
	doc = &Document{PageCount: total, Pages: make([]ai.Page, 0, total)}
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			doc.Pages = append(doc.Pages, ai.Page{Number: i})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		doc.Pages = append(doc.Pages, ai.Page{Number: i, Text: text})
	}
	return doc, nil
}
