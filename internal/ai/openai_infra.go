package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Felipe2109/voice_relay/internal/config"
)

// OpenAIClient serves both Whisper transcription and chat completion.
type OpenAIClient struct {
	client    *openai.Client
	chatModel string
	sttModel  string
	language  string
}

func NewOpenAIClient(cfg config.OpenAI) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}
	sttModel := cfg.STTModel
	if sttModel == "" {
		sttModel = openai.Whisper1
	}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(oc),
		chatModel: chatModel,
		sttModel:  sttModel,
		language:  cfg.STTLanguage,
	}
}

func (c *OpenAIClient) Transcribe(ctx context.Context, filePath string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.sttModel,
		FilePath: filePath,
		Language: c.language,
	})
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	return resp.Text, nil
}

func (c *OpenAIClient) GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
