package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var ErrNotConfigured = errors.New("speech synthesis not configured")

// Audio is an upstream audio stream; the caller must close Body.
type Audio struct {
	Body        io.ReadCloser
	ContentType string
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
}

// UpstreamError is a non-success answer from the synthesis provider.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("tts upstream status %d: %s", e.Status, e.Body)
}
