package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/domain/repositories"
)

// PDFSource extracts page text from PDFs with a text layer. Each text row
// becomes one line with its words joined by spaces.
type PDFSource struct{}

// Verify interface compliance
var _ repositories.DocumentSource = PDFSource{}

func (PDFSource) Open(ctx context.Context, path string) (*entities.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, entities.ErrDocumentUnreadable, err)
	}
	defer f.Close()
	return ReadPDF(filepath.Base(path), f)
}

// ReadPDF decodes a whole PDF. Pages that fail to decode carry their error.
func ReadPDF(name string, r io.Reader) (*entities.Document, error) {
	buf := new(bytes.Buffer)
	size, err := buf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, entities.ErrDocumentUnreadable, err)
	}

	reader, err := openPDF(bytes.NewReader(buf.Bytes()), size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, entities.ErrDocumentUnreadable, err)
	}

	doc := &entities.Document{Name: name}
	for i := 1; i <= reader.NumPage(); i++ {
		text, err := pageText(reader, i)
		doc.Pages = append(doc.Pages, entities.Page{Number: i, Text: text, Err: err})
	}
	return doc, nil
}

// openPDF guards against the decoder panicking on malformed input
func openPDF(r io.ReaderAt, size int64) (reader *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reader, err = nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return pdf.NewReader(r, size)
}

func pageText(reader *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("page %d: %v", n, rec)
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: missing page object", n)
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", fmt.Errorf("page %d: %w", n, err)
	}

	var sb strings.Builder
	for _, row := range rows {
		words := make([]string, 0, len(row.Content))
		for _, word := range row.Content {
			if s := strings.TrimSpace(word.S); s != "" {
				words = append(words, s)
			}
		}
		sb.WriteString(strings.Join(words, " "))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
