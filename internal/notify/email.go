package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mail "github.com/wneessen/go-mail"
)

// EmailOptions configures the SMTP channel. Password material comes in
// resolved; the caller reads it from the environment.
type EmailOptions struct {
	Host     string
	Port     int // <=0 means 587
	From     string
	To       []string
	Username string
	Password string
	Timeout  time.Duration // <=0 means 30s
}

// EmailChannel delivers the notification as an HTML email with the
// chart attached inline when present.
type EmailChannel struct {
	opt EmailOptions
}

func NewEmailChannel(opt EmailOptions) (*EmailChannel, error) {
	if strings.TrimSpace(opt.Host) == "" {
		return nil, errors.New("email: host is required")
	}
	if strings.TrimSpace(opt.From) == "" {
		return nil, errors.New("email: from address is required")
	}
	if len(opt.To) == 0 {
		return nil, errors.New("email: at least one recipient is required")
	}
	if opt.Port <= 0 {
		opt.Port = 587
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 30 * time.Second
	}
	return &EmailChannel{opt: opt}, nil
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(ctx context.Context, msg *Message) error {
	m := mail.NewMsg()
	if err := m.From(c.opt.From); err != nil {
		return fmt.Errorf("email from %q: %w", c.opt.From, err)
	}
	if err := m.To(c.opt.To...); err != nil {
		return fmt.Errorf("email recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	if len(msg.ChartPNG) > 0 {
		if err := m.AttachReader("due_by_area.png", bytes.NewReader(msg.ChartPNG)); err != nil {
			return fmt.Errorf("email attach chart: %w", err)
		}
	}

	opts := []mail.Option{
		mail.WithPort(c.opt.Port),
		mail.WithTimeout(c.opt.Timeout),
	}
	if c.opt.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(c.opt.Username),
			mail.WithPassword(c.opt.Password),
		)
	}
	client, err := mail.NewClient(c.opt.Host, opts...)
	if err != nil {
		return fmt.Errorf("email client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	return nil
}
