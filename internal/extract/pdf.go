// Package extract pulls plain text out of uploaded documents.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxPDFPages caps extraction so large books stay within a single upload.
const MaxPDFPages = 50

var ErrInvalidPDF = errors.New("invalid pdf document")

type pageSource interface {
	NumPage() int
	PageText(n int) (string, error)
}

type pdfSource struct {
	r *pdf.Reader
}

func (s pdfSource) NumPage() int {
	return s.r.NumPage()
}

func (s pdfSource) PageText(n int) (string, error) {
	p := s.r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

// PDF extracts the text of the first MaxPDFPages pages, each introduced by a
// "--- Page N ---" marker.
func PDF(r io.ReaderAt, size int64) (text string, err error) {
	defer func() {
		// the parser panics on some malformed inputs
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrInvalidPDF, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	return formatPages(pdfSource{r: reader})
}

// PDFBytes is PDF over an in-memory document.
func PDFBytes(data []byte) (string, error) {
	return PDF(bytes.NewReader(data), int64(len(data)))
}

func formatPages(src pageSource) (string, error) {
	pages := min(src.NumPage(), MaxPDFPages)

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		text, err := src.PageText(i)
		if err != nil {
			return "", fmt.Errorf("read page %d: %w", i, err)
		}
		fmt.Fprintf(&b, "--- Page %d ---\n%s\n", i, text)
	}
	return b.String(), nil
}
