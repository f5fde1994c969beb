package store

import (
	"context"
	"errors"

	"github.com/dunamismax/imagevault/internal/domain"
)

var (
	// ErrConflict reports that an insert lost a race against another record
	// with the same content hash. The ingestion pipeline resolves it by
	// re-reading the dedup index; it never reaches API callers.
	ErrConflict = errors.New("content hash already stored")

	// ErrUnavailable reports that the backing store could not be reached.
	ErrUnavailable = errors.New("image store unavailable")
)

// ImageStore is the persistence contract the pipeline depends on. Put
// assigns the ImageID and must enforce atomic uniqueness on ContentHash so
// that concurrent inserts of identical content resolve to exactly one row.
type ImageStore interface {
	Put(ctx context.Context, img domain.StoredImage) (domain.StoredImage, error)
	FindByHash(ctx context.Context, contentHash string) (domain.StoredImage, bool, error)
	FindByID(ctx context.Context, id string) (domain.StoredImage, bool, error)
}
