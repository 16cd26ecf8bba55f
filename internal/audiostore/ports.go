package audiostore

import (
	"io"
	"time"
)

// File is a scratch recording owned by a single request.
type File struct {
	Path      string
	CreatedAt time.Time
	Size      int64
}

type Store interface {
	// Save writes data to a new uniquely named file before returning.
	Save(data []byte, ext string) (*File, error)
	// SaveFrom streams r into a new uniquely named file.
	SaveFrom(r io.Reader, ext string) (*File, error)
	// Delete removes path. Missing files and removal errors are not reported.
	Delete(path string)
}
