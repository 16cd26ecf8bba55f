package ai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Transcriber turns a recording on disk into text. The file extension is the
// format hint.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (string, error)
}

type ChatClient interface {
	GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32) (string, error)
}
