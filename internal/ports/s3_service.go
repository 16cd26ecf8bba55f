package ports

import "context"

type ArchiveService interface {
	ObjectKey(id, ext string) string
	// Archive copies the recording at filePath to the bucket before it is deleted.
	Archive(ctx context.Context, id, filePath string) (string, error)
}
