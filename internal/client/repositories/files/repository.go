// Package files persists file metadata rows in the remote Postgres database.
// Rows are always scoped to an owner; blob content lives in the object store
// and is referenced by URL and storage path.
package files

import (
	"context"

	"github.com/chafidzadlan/anotherfile/internal/client/models"
)

type Repository interface {
	// Insert stores a new metadata row.
	Insert(ctx context.Context, file *models.FileRecord) error
	// DeleteByID removes the row for id. Returns common.ErrNotFound when no
	// row matches.
	DeleteByID(ctx context.Context, id string) error
	// ListByOwner returns every row owned by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.FileRecord, error)
}
