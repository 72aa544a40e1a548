package storage

import "context"

// PhotoStorage keeps announce attachments in an object store and returns a
// public URL for each uploaded file.
type PhotoStorage interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
	Delete(ctx context.Context, objectURL string) error
}
