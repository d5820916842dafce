package email

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

type Message struct {
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

func (c *Client) build(m Message) (*gomail.Message, error) {
	if c.from == "" {
		return nil, fmt.Errorf("%w: from is required", ErrInvalidMessage)
	}

	to := make([]string, 0, len(m.To))
	for _, addr := range m.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return nil, fmt.Errorf("%w: no recipient", ErrInvalidMessage)
	}

	subject := strings.TrimSpace(m.Subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}

	msg := gomail.NewMessage()
	from := c.from
	if !strings.Contains(from, "<") && c.clinicName != "" {
		from = msg.FormatAddress(from, c.clinicName)
	}
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)

	text, html := strings.TrimSpace(m.TextBody) != "", strings.TrimSpace(m.HTMLBody) != ""
	switch {
	case text && html:
		msg.SetBody("text/plain", m.TextBody)
		msg.AddAlternative("text/html", m.HTMLBody)
	case html:
		msg.SetBody("text/html", m.HTMLBody)
	case text:
		msg.SetBody("text/plain", m.TextBody)
	default:
		return nil, fmt.Errorf("%w: body is empty", ErrInvalidMessage)
	}
	return msg, nil
}
