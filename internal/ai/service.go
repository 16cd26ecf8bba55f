package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	SystemPrompt = "Você é um assistente de voz útil e educado. Responda sempre em português do Brasil."
	Temperature  = float32(0.7)
)

// DialogueService asks the chat model for a single-turn reply.
type DialogueService struct {
	chat ChatClient
}

func NewDialogueService(chat ChatClient) *DialogueService {
	return &DialogueService{chat: chat}
}

// Reply returns the trimmed model answer; it may be empty.
func (s *DialogueService) Reply(ctx context.Context, userText string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userText},
	}

	reply, err := s.chat.GetCompletion(ctx, messages, Temperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// DescribeError gives the admin a short hint about what went wrong upstream.
func DescribeError(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch code := apiErr.HTTPStatusCode; {
		case code == 401:
			return "Chave da OpenAI inválida."
		case code == 404:
			return "Modelo não encontrado."
		case code == 429:
			return "Limite da OpenAI excedido."
		case code == 400:
			return "Requisição inválida para a OpenAI: " + apiErr.Message
		case code >= 500:
			return "Erro interno da OpenAI."
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("Falha HTTP %d na OpenAI.", reqErr.HTTPStatusCode)
	}
	return "Erro desconhecido da OpenAI: " + err.Error()
}
