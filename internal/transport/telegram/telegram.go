// Package telegram is the outbound-only Telegram transport. It sends
// notification messages and mirrored log lines; there is no inbound
// command surface here.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	logx "samplewatch/pkg/logx"
)

type Config struct {
	Token   string
	Timeout time.Duration // per-call HTTP timeout; <=0 means 10s
	Offline bool          // skip the getMe probe (tests)
}

// Sender wraps a telebot client for one-way delivery.
type Sender struct {
	bot *tele.Bot
	log logx.Logger
}

func New(cfg Config, log logx.Logger) (*Sender, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		Offline: cfg.Offline,
		Client:  &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Sender{bot: b, log: log}, nil
}

// SendHTML sends text in HTML parse mode, splitting long messages into
// chunks Telegram accepts.
func (s *Sender) SendHTML(ctx context.Context, chatID int64, text string) error {
	return s.send(ctx, chatID, text, tele.ModeHTML)
}

// SendChatText sends plain text. This satisfies logx.ChatSender, so the
// log service can mirror WARN+ lines into the team chat.
func (s *Sender) SendChatText(ctx context.Context, chatID int64, text string) error {
	return s.send(ctx, chatID, text, "")
}

// SendPhoto sends one PNG with an optional caption.
func (s *Sender) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	p := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(png)),
		Caption: caption,
	}
	_, err := s.bot.Send(&tele.Chat{ID: chatID}, p)
	return err
}

func (s *Sender) send(ctx context.Context, chatID int64, text string, parseMode tele.ParseMode) error {
	chunks := splitText(text, textLimit, string(parseMode))
	if len(chunks) == 0 {
		chunks = []string{""}
	}
	chat := &tele.Chat{ID: chatID}
	for _, chunk := range chunks {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		opt := &tele.SendOptions{
			ParseMode:             parseMode,
			DisableWebPagePreview: true,
		}
		if _, err := s.bot.Send(chat, chunk, opt); err != nil {
			return err
		}
	}
	return nil
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

const textLimit = 4000

// splitText splits long messages into chunks that are safe to send to
// Telegram. It prefers newline boundaries and (best-effort) avoids
// splitting inside HTML tags when parse mode is HTML.
func splitText(s string, limit int, parseMode string) []string {
	if limit <= 0 {
		limit = textLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}

		// Prefer splitting on a newline near the end of the window.
		if end < len(rs) {
			cut := -1
			for i := end - 1; i > start; i-- {
				if rs[i] == '\n' {
					// Avoid extremely small chunks.
					if i-start >= limit/3 {
						cut = i + 1
						break
					}
				}
			}
			if cut != -1 {
				end = cut
			}
		}

		// Best-effort: don't split inside a tag for HTML parse mode.
		if strings.EqualFold(parseMode, "HTML") && end < len(rs) {
			lastOpen := -1
			lastClose := -1
			for i := start; i < end; i++ {
				if rs[i] == '<' {
					lastOpen = i
				} else if rs[i] == '>' {
					lastClose = i
				}
			}
			if lastOpen > lastClose && lastOpen > start+1 {
				end = lastOpen
				if end <= start {
					end = start + limit
					if end > len(rs) {
						end = len(rs)
					}
				}
			}
		}

		chunk := strings.TrimRight(string(rs[start:end]), "\n")
		out = append(out, chunk)

		start = end
		// Skip leading newlines to avoid empty chunks.
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}
