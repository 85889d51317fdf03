package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"github.com/ledongthuc/pdf"
)

// identifierPattern matches "UAN" and any label words after it ("UAN/MEMBER
// ID", "UAN No.") followed by the member code.
var identifierPattern = regexp.MustCompile(`(?i)\bUAN[\s/:.#]*(?:(?:MEMBER|ID|NO)[\s/:.#]+)*([A-Za-z0-9-]+)`)

// labelWords can follow "UAN" but are never a member code.
var labelWords = map[string]bool{"MEMBER": true, "ID": true, "NO": true}

// PageText exposes the text of each page of an opened document.
type PageText interface {
	NumPages() int
	// Text returns the text of the zero-based page i.
	Text(i int) (string, error)
}

// DocumentOpener parses a raw document.
type DocumentOpener func(data []byte) (PageText, error)

// IdentifierExtractor builds the identifier to page map of a payslip bundle.
type IdentifierExtractor struct {
	open DocumentOpener
}

func NewIdentifierExtractor() *IdentifierExtractor {
	return &IdentifierExtractor{open: OpenPDFText}
}

// NewIdentifierExtractorWith uses a custom document opener.
func NewIdentifierExtractorWith(open DocumentOpener) *IdentifierExtractor {
	return &IdentifierExtractor{open: open}
}

// Extract scans every page and records the page of each identifier found.
// A page that fails to yield text counts as blank. When an identifier occurs
// on several pages the last one wins.
func (e *IdentifierExtractor) Extract(ctx context.Context, data []byte) (model.IdentifierPageMap, error) {
	pages, _, err := e.Scan(ctx, data)
	return pages, err
}

// Scan is Extract that also reports how many pages the text layer has.
func (e *IdentifierExtractor) Scan(ctx context.Context, data []byte) (model.IdentifierPageMap, int, error) {
	pages := model.IdentifierPageMap{}

	doc, err := e.open(data)
	if err != nil {
		return pages, 0, fmt.Errorf("%w: %v", ErrDocumentUnreadable, err)
	}

	n := doc.NumPages()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return pages, n, err
		}

		text, err := doc.Text(i)
		if err != nil {
			slog.Debug("page text unavailable", "page", i, "error", err)
			continue
		}

		id, ok := MatchIdentifier(text)
		if !ok {
			continue
		}
		if prev, dup := pages[id]; dup {
			slog.Warn("identifier appears on several pages, keeping the last",
				"identifier", id, "previous_page", prev, "page", i)
		}
		pages[id] = i
	}
	return pages, n, nil
}

// MatchIdentifier returns the normalized identifier printed in text.
func MatchIdentifier(text string) (string, bool) {
	for _, m := range identifierPattern.FindAllStringSubmatch(text, -1) {
		id := NormalizeIdentifier(m[1])
		if id != "" && !labelWords[id] {
			return id, true
		}
	}
	return "", false
}

type pdfText struct {
	r *pdf.Reader
}

// OpenPDFText opens a PDF for text extraction.
func OpenPDFText(data []byte) (doc PageText, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &pdfText{r: r}, nil
}

func (p *pdfText) NumPages() int {
	return p.r.NumPage()
}

func (p *pdfText) Text(i int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: %v", i, r)
		}
	}()

	page := p.r.Page(i + 1)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
