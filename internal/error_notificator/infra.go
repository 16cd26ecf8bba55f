package error_notificator

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Infra struct {
	bot         *tgbotapi.BotAPI
	adminChatID int64
}

func NewInfra(token string, adminChatID int64) (*Infra, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &Infra{bot: bot, adminChatID: adminChatID}, nil
}

// NewInfraWithEndpoint points the bot at a custom Bot API endpoint
// ("https://host/bot%s/%s").
func NewInfraWithEndpoint(token, endpoint string, adminChatID int64, client tgbotapi.HTTPClient) (*Infra, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &Infra{bot: bot, adminChatID: adminChatID}, nil
}

func (i *Infra) Notify(ctx context.Context, err error, details string) error {
	text := fmt.Sprintf(
		"❗ Erro no servidor do assistente\n\nErro: %v\n\nDetalhes: %s",
		err,
		details,
	)

	if _, sendErr := i.bot.Send(tgbotapi.NewMessage(i.adminChatID, text)); sendErr != nil {
		return fmt.Errorf("telegram send: %w", sendErr)
	}
	return nil
}

// Nop is used when no admin channel is configured.
type Nop struct{}

func (Nop) Notify(context.Context, error, string) error { return nil }
