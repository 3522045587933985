package browser

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/chafidzadlan/anotherfile/internal/client/models"
	"github.com/google/uuid"
)

// Upload reads the local file at path and stores it in the drive: blob put
// first, then the metadata row, gated on the blob succeeding. The new record
// lands in the cached list without a full refresh.
func (b *Browser) Upload(ctx context.Context, path, folder string) (*models.FileRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read local file: %w", err)
	}

	name := filepath.Base(path)
	if int64(len(data)) > b.maxUploadSize {
		b.notifier.Error("Error", fmt.Sprintf("File exceeds the %s upload limit", models.FormatSize(b.maxUploadSize)))
		return nil, fmt.Errorf("file %q exceeds upload limit of %d bytes", name, b.maxUploadSize)
	}

	ext := filepath.Ext(name)
	key := "user-files/" + b.ownerID + "/"
	if folder != "" {
		key += folder + "/"
	}
	key += uuid.New().String() + ext

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := b.blobs.Put(ctx, key, data, contentType); err != nil {
		b.notifier.Error("Error", "Failed to upload file")
		return nil, fmt.Errorf("failed to upload blob: %w", err)
	}

	rec := &models.FileRecord{
		ID:        uuid.New().String(),
		OwnerID:   b.ownerID,
		Name:      name,
		Size:      int64(len(data)),
		Type:      models.DetectFileType(name),
		URL:       b.blobs.PublicURL(key),
		Path:      key,
		Folder:    folder,
		CreatedAt: b.now(),
	}
	if err := b.repo.Insert(ctx, rec); err != nil {
		// Blob is already up; keep it and report. The next refresh will not
		// show the file, which matches the metadata store being the source
		// of truth.
		b.log.Error(ctx, "metadata insert failed after blob upload", "path", key, "error", err)
		b.notifier.Error("Error", "Failed to upload file")
		return nil, fmt.Errorf("failed to insert metadata: %w", err)
	}

	b.mu.Lock()
	b.list = append([]*models.FileRecord{rec}, b.list...)
	b.mu.Unlock()

	b.notifier.Success("File uploaded successfully", name)
	return rec, nil
}
