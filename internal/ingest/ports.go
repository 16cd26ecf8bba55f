package ingest

import "errors"

// Kind tags which variant of Request is populated.
type Kind int

const (
	KindNone Kind = iota
	KindMultipartFile
	KindRawBytes
)

func (k Kind) String() string {
	switch k {
	case KindMultipartFile:
		return "multipart"
	case KindRawBytes:
		return "raw"
	default:
		return "none"
	}
}

// Request is the audio carried by one POST /voice call.
//
// KindMultipartFile: Path names a file already written to the audio store;
// the caller owns it from here on and must delete it.
// KindRawBytes: Bytes holds the request body verbatim.
// KindNone: neither was present.
type Request struct {
	Kind  Kind
	Path  string
	Bytes []byte
	// Ext is the format hint (".wav", ".mp3", ...) passed on to transcription.
	Ext string
}

var (
	ErrUnsupportedMediaType = errors.New("unsupported content type")
	ErrTooLarge             = errors.New("audio payload too large")
	ErrUnexpectedField      = errors.New("unexpected file field")
	ErrMalformed            = errors.New("malformed request body")
)
