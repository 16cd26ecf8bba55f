package ingest

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Felipe2109/voice_relay/internal/audiostore"
)

const audioField = "audio"

// multipartOverhead is the room left for boundaries, part headers and plain
// form fields on top of the audio cap.
const multipartOverhead = 1 << 20

var extByMediaType = map[string]string{
	"audio/wav":       ".wav",
	"audio/wave":      ".wav",
	"audio/x-wav":     ".wav",
	"audio/vnd.wave":  ".wav",
	"audio/mpeg":      ".mp3",
	"audio/mp3":       ".mp3",
	"audio/ogg":       ".ogg",
	"audio/webm":      ".webm",
	"audio/mp4":       ".m4a",
	"audio/m4a":       ".m4a",
	"audio/x-m4a":     ".m4a",
	"audio/flac":      ".flac",
	"audio/x-flac":    ".flac",
	"application/ogg": ".ogg",
}

// Decoder turns an inbound POST /voice into a Request. It picks the body
// reader from the Content-Type: multipart/form-data uploads are streamed to
// the audio store, everything audio-ish is read whole. maxBytes caps the
// audio itself in both encodings.
type Decoder struct {
	store    audiostore.Store
	maxBytes int64
}

func NewDecoder(store audiostore.Store, maxBytes int64) *Decoder {
	return &Decoder{store: store, maxBytes: maxBytes}
}

func (d *Decoder) MaxBytes() int64 { return d.maxBytes }

// Decode reads the audio out of r. A request without a Content-Type header is
// read as a raw application/octet-stream body.
func (d *Decoder) Decode(w http.ResponseWriter, r *http.Request) (Request, error) {
	mediaType, params, err := parseContentType(r.Header.Get("Content-Type"))
	if err != nil {
		return Request{}, err
	}

	limit := d.maxBytes
	if mediaType == "multipart/form-data" {
		limit += multipartOverhead
	}
	if r.ContentLength > limit {
		return Request{}, ErrTooLarge
	}

	switch {
	case mediaType == "multipart/form-data":
		return d.decodeMultipart(w, r, params["boundary"])
	case isRawAudio(mediaType):
		return d.decodeRaw(w, r, mediaType)
	default:
		return Request{}, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mediaType)
	}
}

func (d *Decoder) decodeRaw(w http.ResponseWriter, r *http.Request, mediaType string) (Request, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, d.maxBytes))
	if err != nil {
		return Request{}, classifyReadError(err)
	}
	if len(data) == 0 {
		return Request{Kind: KindNone}, nil
	}
	return Request{Kind: KindRawBytes, Bytes: data, Ext: extForMediaType(mediaType)}, nil
}

func (d *Decoder) decodeMultipart(w http.ResponseWriter, r *http.Request, boundary string) (req Request, err error) {
	if boundary == "" {
		return Request{}, fmt.Errorf("%w: missing multipart boundary", ErrMalformed)
	}

	var saved *audiostore.File
	defer func() {
		if err != nil && saved != nil {
			d.store.Delete(saved.Path)
		}
	}()

	mr := multipart.NewReader(http.MaxBytesReader(w, r.Body, d.maxBytes+multipartOverhead), boundary)
	var ext string
	for {
		part, perr := mr.NextPart()
		if perr == io.EOF {
			break
		}
		if perr != nil {
			return Request{}, classifyReadError(perr)
		}

		// plain form values are ignored
		if part.FileName() == "" {
			_ = part.Close()
			continue
		}
		if part.FormName() != audioField || saved != nil {
			name := part.FormName()
			_ = part.Close()
			return Request{}, fmt.Errorf("%w: %q", ErrUnexpectedField, name)
		}

		ext = extForUpload(part.FileName(), part.Header.Get("Content-Type"))
		// one byte past the cap is enough to tell an oversized file
		f, serr := d.store.SaveFrom(io.LimitReader(part, d.maxBytes+1), ext)
		_ = part.Close()
		if serr != nil {
			if errors.Is(classifyReadError(serr), ErrTooLarge) {
				return Request{}, ErrTooLarge
			}
			return Request{}, serr
		}
		saved = f
		if saved.Size > d.maxBytes {
			return Request{}, ErrTooLarge
		}
	}

	if saved == nil {
		return Request{Kind: KindNone}, nil
	}
	return Request{Kind: KindMultipartFile, Path: saved.Path, Ext: ext}, nil
}

func parseContentType(header string) (string, map[string]string, error) {
	if strings.TrimSpace(header) == "" {
		return "application/octet-stream", nil, nil
	}
	mediaType, params, err := mime.ParseMediaType(header)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, header)
	}
	return strings.ToLower(mediaType), params, nil
}

func isRawAudio(mediaType string) bool {
	return strings.HasPrefix(mediaType, "audio/") || mediaType == "application/octet-stream"
}

func classifyReadError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
		return ErrTooLarge
	}
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}

func extForMediaType(mediaType string) string {
	if ext, ok := extByMediaType[mediaType]; ok {
		return ext
	}
	return audiostore.DefaultExt
}

func extForUpload(filename, contentType string) string {
	if ext := filepath.Ext(filename); ext != "" {
		return strings.ToLower(ext)
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return extForMediaType(strings.ToLower(mt))
	}
	return audiostore.DefaultExt
}
