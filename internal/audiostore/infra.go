package audiostore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultExt = ".wav"

type FileStore struct {
	dir             string
	log             *logger.ZapLogger
	cleanupFailures prometheus.Counter
}

// NewFileStore creates dir when missing and keeps its absolute path so that
// every File handed out carries an absolute Path.
func NewFileStore(dir string, log *logger.ZapLogger, cleanupFailures prometheus.Counter) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &FileStore{dir: abs, log: log, cleanupFailures: cleanupFailures}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Save(data []byte, ext string) (*File, error) {
	path := s.newPath(ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write audio file: %w", err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "debug",
		Message: fmt.Sprintf("[audiostore] saved %s (%s)", filepath.Base(path), humanize.Bytes(uint64(len(data)))),
	})

	return &File{Path: path, CreatedAt: time.Now(), Size: int64(len(data))}, nil
}

func (s *FileStore) SaveFrom(r io.Reader, ext string) (*File, error) {
	path := s.newPath(ext)
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create audio file: %w", err)
	}

	n, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write audio file: %w", err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "debug",
		Message: fmt.Sprintf("[audiostore] saved %s (%s)", filepath.Base(path), humanize.Bytes(uint64(n))),
	})

	return &File{Path: path, CreatedAt: time.Now(), Size: n}, nil
}

func (s *FileStore) Delete(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return
	}
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return
	}

	if s.cleanupFailures != nil {
		s.cleanupFailures.Inc()
	}
	s.log.Log(logger.LogEntry{
		Level:   "warn",
		Message: "[audiostore] failed to remove " + path,
		Error:   err,
	})
}

func (s *FileStore) newPath(ext string) string {
	return filepath.Join(s.dir, "audio_"+uuid.NewString()+normalizeExt(ext))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return DefaultExt
		}
	}
	if len(ext) < 2 || len(ext) > 6 {
		return DefaultExt
	}
	return ext
}
