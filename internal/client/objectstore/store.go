// Package objectstore moves blob content in and out of the S3-compatible
// bucket backing the drive. Metadata lives elsewhere; this layer deals only
// in raw object bytes keyed by storage path.
package objectstore

import "context"

type Store interface {
	// Put uploads data under path with the given content type.
	Put(ctx context.Context, path string, data []byte, contentType string) error
	// Delete removes the object at path. Deleting a missing object is not an
	// error; S3 treats it as a no-op.
	Delete(ctx context.Context, path string) error
	// PublicURL returns the public address serving the object at path.
	PublicURL(path string) string
}
