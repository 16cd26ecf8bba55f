package voice

import (
	"context"
	"errors"
)

const (
	ClarificationText = "Desculpe, não consegui entender. Pode repetir?"
	FallbackReply     = "Certo!"
)

var (
	ErrNoAudioProvided     = errors.New("no audio provided")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrDialogueFailed      = errors.New("dialogue failed")
)

// Dialogue answers one transcribed utterance.
type Dialogue interface {
	Reply(ctx context.Context, userText string) (string, error)
}

// outcome labels, also stored with each exchange
const (
	OutcomeReply               = "reply"
	OutcomeClarification       = "clarification"
	OutcomeNoAudio             = "no_audio"
	OutcomeRejected            = "rejected"
	OutcomeTranscriptionFailed = "transcription_failed"
	OutcomeDialogueFailed      = "dialogue_failed"
	OutcomeInternalError       = "internal_error"
)
