package notify

import (
	"context"

	tgram "samplewatch/internal/transport/telegram"
	logx "samplewatch/pkg/logx"
)

// TelegramChannel delivers the notification to one chat: the compact
// text first, then the chart as a photo when present. A failed photo is
// a logged degradation, not a channel failure; the text already carried
// the content.
type TelegramChannel struct {
	sender *tgram.Sender
	chatID int64
	log    logx.Logger
}

func NewTelegramChannel(sender *tgram.Sender, chatID int64, log logx.Logger) *TelegramChannel {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &TelegramChannel{sender: sender, chatID: chatID, log: log}
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Send(ctx context.Context, msg *Message) error {
	if err := c.sender.SendHTML(ctx, c.chatID, msg.Text); err != nil {
		return err
	}
	if len(msg.ChartPNG) > 0 {
		if err := c.sender.SendPhoto(ctx, c.chatID, msg.ChartPNG, msg.Subject); err != nil {
			c.log.Warn("chart photo not delivered", logx.Err(err))
		}
	}
	return nil
}
