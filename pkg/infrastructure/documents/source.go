package documents

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/domain/repositories"
)

// ForPath picks a document source by file extension
func ForPath(path string) (repositories.DocumentSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDFSource{}, nil
	case ".txt", ".text":
		return TextSource{}, nil
	default:
		return nil, fmt.Errorf("unsupported document type %q", filepath.Ext(path))
	}
}

// Router opens each path with the source ForPath selects
type Router struct{}

// Verify interface compliance
var _ repositories.DocumentSource = Router{}

func (Router) Open(ctx context.Context, path string) (*entities.Document, error) {
	src, err := ForPath(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, entities.ErrDocumentUnreadable, err)
	}
	return src.Open(ctx, path)
}
