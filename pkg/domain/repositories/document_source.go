package repositories

import (
	"context"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

// DocumentSource opens a purchase-order document and returns its page texts.
// An error means the document as a whole could not be opened or decoded.
type DocumentSource interface {
	Open(ctx context.Context, path string) (*entities.Document, error)
}
