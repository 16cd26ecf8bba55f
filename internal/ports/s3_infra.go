package ports

import "context"

// Low-level S3 client
type S3Client interface {
	PutFile(ctx context.Context, key, filePath, contentType string) (publicURL string, err error)
}
