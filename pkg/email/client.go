// Package email delivers patient reminders and greetings over SMTP.
package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/rodrigoprogmaster-prog/clinica/config"
)

var (
	ErrDisabled       = errors.New("email is disabled")
	ErrMissingHost    = errors.New("email: smtp host is required when enabled")
	ErrInvalidMessage = errors.New("invalid email message")
	ErrSend           = errors.New("email send failed")
)

const defaultTimeout = 30 * time.Second

// Sender delivers one message. *Client implements it.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

type Client struct {
	smtp       config.SMTPConfig
	enabled    bool
	from       string
	clinicName string
}

// New builds a client. When from carries no display name the clinic name
// is used.
func New(cfg config.EmailConfig, clinicName string) (*Client, error) {
	if cfg.Enabled && strings.TrimSpace(cfg.SMTP.Host) == "" {
		return nil, ErrMissingHost
	}
	return &Client{
		smtp:       cfg.SMTP,
		enabled:    cfg.Enabled,
		from:       strings.TrimSpace(cfg.From),
		clinicName: clinicName,
	}, nil
}

// Enabled reports whether Send will attempt delivery. Safe on nil.
func (c *Client) Enabled() bool { return c != nil && c.enabled }

// Send delivers m, giving up at the earlier of ctx's deadline and the
// configured SMTP timeout.
func (c *Client) Send(ctx context.Context, m Message) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	msg, err := c.build(m)
	if err != nil {
		return err
	}

	timeout := defaultTimeout
	if c.smtp.TimeoutSeconds > 0 {
		timeout = time.Duration(c.smtp.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.dialer().DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSend, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrSend, ctx.Err())
	}
}

func (c *Client) dialer() *gomail.Dialer {
	d := gomail.NewDialer(c.smtp.Host, c.smtp.Port, c.smtp.Username, c.smtp.Password)
	d.SSL = c.smtp.UseTLS
	if c.smtp.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: c.smtp.Host, MinVersion: tls.VersionTLS12}
	}
	return d
}
