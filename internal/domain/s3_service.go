package domain

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"github.com/Felipe2109/voice_relay/internal/ports"
)

// mime's builtin table has no audio entries
var audioContentTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
}

type archiveService struct {
	client ports.S3Client
	now    func() time.Time
}

func NewArchiveService(client ports.S3Client) ports.ArchiveService {
	return &archiveService{client: client, now: time.Now}
}

// ObjectKey is the bucket path: voice/<date>/<id><ext>
func (s *archiveService) ObjectKey(id, ext string) string {
	date := s.now().Format("2006-01-02")
	return fmt.Sprintf("voice/%s/%s%s", date, id, ext)
}

func (s *archiveService) Archive(ctx context.Context, id, filePath string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("archive id required")
	}

	ext := filepath.Ext(filePath)
	contentType, ok := audioContentTypes[ext]
	if !ok {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return s.client.PutFile(ctx, s.ObjectKey(id, ext), filePath, contentType)
}
