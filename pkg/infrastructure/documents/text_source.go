package documents

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/domain/repositories"
)

// TextSource reads plain-text exports; form feeds separate pages
type TextSource struct{}

// Verify interface compliance
var _ repositories.DocumentSource = TextSource{}

func (TextSource) Open(ctx context.Context, path string) (*entities.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, entities.ErrDocumentUnreadable, err)
	}
	defer f.Close()
	return ReadText(filepath.Base(path), f)
}

// ReadText splits text into pages. Text that is not valid UTF-8 is rejected.
func ReadText(name string, r io.Reader) (*entities.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, entities.ErrDocumentUnreadable, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: %w: not valid UTF-8 text", name, entities.ErrDocumentUnreadable)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	doc := &entities.Document{Name: name}
	for i, page := range strings.Split(text, "\f") {
		doc.Pages = append(doc.Pages, entities.Page{Number: i + 1, Text: page})
	}
	return doc, nil
}
