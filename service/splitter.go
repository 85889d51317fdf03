package service

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// PageSplitter cuts single pages out of a source document. The source is
// read from the start on every call.
type PageSplitter struct {
	src   *bytes.Reader
	pages int
	conf  *model.Configuration
}

func NewPageSplitter(data []byte) (*PageSplitter, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	src := bytes.NewReader(data)
	n, err := api.PageCount(src, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentUnreadable, err)
	}
	return &PageSplitter{src: src, pages: n, conf: conf}, nil
}

func (s *PageSplitter) PageCount() int {
	return s.pages
}

// Page returns a standalone document holding only the zero-based page i.
// Indices come from the identifier map, so an out-of-range index is a bug
// and panics.
func (s *PageSplitter) Page(i int) ([]byte, error) {
	if i < 0 || i >= s.pages {
		panic(fmt.Sprintf("page index %d out of range [0,%d)", i, s.pages))
	}

	if _, err := s.src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := api.Trim(s.src, &out, []string{strconv.Itoa(i + 1)}, s.conf); err != nil {
		return nil, fmt.Errorf("extract page %d: %w", i, err)
	}
	return out.Bytes(), nil
}
