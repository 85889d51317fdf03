package service

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"github.com/google/go-cmp/cmp"
)

type stubDocument struct {
	pages []string
	fail  map[int]bool
}

func (d stubDocument) NumPages() int { return len(d.pages) }

func (d stubDocument) Text(i int) (string, error) {
	if d.fail[i] {
		return "", errors.New("broken content stream")
	}
	return d.pages[i], nil
}

func stubOpener(doc stubDocument) DocumentOpener {
	return func([]byte) (PageText, error) { return doc, nil }
}

func TestMatchIdentifier(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"UAN: 100123456789", "100123456789", true},
		{"UAN/MEMBER ID : ab-12", "AB-12", true},
		{"uan member id 555", "555", true},
		{"UAN / Member ID:\n 777", "777", true},
		{"Name: Alice  UAN   42 Basic", "42", true},
		{"UAN MEMBER: 100200", "100200", true},
		{"UAN No.: 5566", "5566", true},
		{"UAN: NO-123", "NO-123", true},
		{"UAN ID", "", false},
		{"UAN Member ID # 8080", "8080", true},
		{"Employee code 1234", "", false},
		{"GUAN 999", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := MatchIdentifier(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("MatchIdentifier(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExtractLastOccurrenceWins(t *testing.T) {
	ex := NewIdentifierExtractorWith(stubOpener(stubDocument{
		pages: []string{
			"UAN: 1001",
			"nothing here",
			"UAN: 1002",
			"UAN: 1001",
		},
	}))

	got, err := ex.Extract(context.Background(), nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	want := model.IdentifierPageMap{"1001": 3, "1002": 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("page map mismatch (-want +got):\n%s", diff)
	}
}

func TestScanReportsPageCount(t *testing.T) {
	ex := NewIdentifierExtractorWith(stubOpener(stubDocument{
		pages: []string{"UAN: 1", "", "cover letter"},
	}))

	got, n, err := ex.Scan(context.Background(), nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 pages, got %d", n)
	}
	if diff := cmp.Diff(model.IdentifierPageMap{"1": 0}, got); diff != "" {
		t.Errorf("page map mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSkipsUnreadablePages(t *testing.T) {
	ex := NewIdentifierExtractorWith(stubOpener(stubDocument{
		pages: []string{"UAN: 1", "UAN: 2", "UAN: 3"},
		fail:  map[int]bool{1: true},
	}))

	got, err := ex.Extract(context.Background(), nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if diff := cmp.Diff(model.IdentifierPageMap{"1": 0, "3": 2}, got); diff != "" {
		t.Errorf("page map mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractUnreadableDocument(t *testing.T) {
	ex := NewIdentifierExtractor()

	got, err := ex.Extract(context.Background(), []byte("not a pdf"))
	if !errors.Is(err, ErrDocumentUnreadable) {
		t.Fatalf("Expected ErrDocumentUnreadable, got %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty map, got %v", got)
	}
}

func TestExtractPDF(t *testing.T) {
	data, err := os.ReadFile("testdata/payslips.pdf")
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}

	got, err := NewIdentifierExtractor().Extract(context.Background(), data)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	want := model.IdentifierPageMap{"1001": 3, "1002": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("page map mismatch (-want +got):\n%s", diff)
	}
}

func TestPageSplitter(t *testing.T) {
	data, err := os.ReadFile("testdata/payslips.pdf")
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}

	s, err := NewPageSplitter(data)
	if err != nil {
		t.Fatalf("NewPageSplitter failed: %v", err)
	}
	if s.PageCount() != 4 {
		t.Fatalf("Expected 4 pages, got %d", s.PageCount())
	}

	// Repeated reads must not depend on the position left by the last one.
	for _, page := range []int{1, 1, 3} {
		out, err := s.Page(page)
		if err != nil {
			t.Fatalf("Page(%d) failed: %v", page, err)
		}
		single, err := NewPageSplitter(out)
		if err != nil {
			t.Fatalf("Extracted page is not a valid document: %v", err)
		}
		if single.PageCount() != 1 {
			t.Errorf("Expected 1 page, got %d", single.PageCount())
		}
	}

	out, _ := s.Page(1)
	ids, err := NewIdentifierExtractor().Extract(context.Background(), out)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if diff := cmp.Diff(model.IdentifierPageMap{"1002": 0}, ids); diff != "" {
		t.Errorf("extracted page content mismatch (-want +got):\n%s", diff)
	}
}

func TestPageSplitterOutOfRangePanics(t *testing.T) {
	data, err := os.ReadFile("testdata/payslips.pdf")
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	s, err := NewPageSplitter(data)
	if err != nil {
		t.Fatalf("NewPageSplitter failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected panic for out-of-range page")
		}
	}()
	s.Page(4)
}

func TestPageSplitterRejectsGarbage(t *testing.T) {
	if _, err := NewPageSplitter([]byte("garbage")); !errors.Is(err, ErrDocumentUnreadable) {
		t.Errorf("Expected ErrDocumentUnreadable, got %v", err)
	}
}
