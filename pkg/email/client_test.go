package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rodrigoprogmaster-prog/clinica/config"
)

func newTestClient(t *testing.T, from string) *Client {
	t.Helper()
	c, err := New(config.EmailConfig{Enabled: true, From: from, SMTP: config.SMTPConfig{Host: "smtp.example.com", Port: 587}}, "Clínica Bem Estar")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		msg     Message
		wantErr bool
	}{
		{
			name: "text only",
			from: "clinica@example.com",
			msg:  Message{To: []string{"ana@example.com"}, Subject: "Oi", TextBody: "corpo"},
		},
		{
			name:    "missing from",
			msg:     Message{To: []string{"ana@example.com"}, Subject: "Oi", TextBody: "corpo"},
			wantErr: true,
		},
		{
			name:    "blank recipients",
			from:    "clinica@example.com",
			msg:     Message{To: []string{"  "}, Subject: "Oi", TextBody: "corpo"},
			wantErr: true,
		},
		{
			name:    "missing body",
			from:    "clinica@example.com",
			msg:     Message{To: []string{"ana@example.com"}, Subject: "Oi"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestClient(t, tt.from).build(tt.msg)
			if (err != nil) != tt.wantErr {
				t.Errorf("build() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMessage) {
				t.Errorf("build() error = %v, want ErrInvalidMessage", err)
			}
		})
	}
}

func TestBuildSignsFromWithClinicName(t *testing.T) {
	msg, err := newTestClient(t, "no-reply@example.com").build(Message{
		To: []string{"ana@example.com"}, Subject: "Oi", TextBody: "corpo",
	})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<no-reply@example.com>") {
		t.Errorf("From header not formatted with display name:\n%s", buf.String())
	}
}

func TestSendDisabled(t *testing.T) {
	c, err := New(config.EmailConfig{}, "Clínica")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Enabled() {
		t.Error("Enabled() = true for zero config")
	}
	if err := c.Send(context.Background(), Message{}); !errors.Is(err, ErrDisabled) {
		t.Errorf("Send() error = %v, want ErrDisabled", err)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Error("nil client reports enabled")
	}
}

func TestNewRequiresHostWhenEnabled(t *testing.T) {
	if _, err := New(config.EmailConfig{Enabled: true}, ""); !errors.Is(err, ErrMissingHost) {
		t.Errorf("New() error = %v, want ErrMissingHost", err)
	}
}

func TestBuildReminderEmail(t *testing.T) {
	m := BuildReminderEmail(ReminderData{
		To: "ana@example.com", PatientName: "Ana <b>", DateBR: "12/03/2025", Time: "14:00", ClinicName: "Clínica Bem Estar",
	})
	if m.Subject != "Lembrete de consulta" {
		t.Errorf("Subject = %q", m.Subject)
	}
	if !strings.Contains(m.TextBody, "12/03/2025 às 14:00") {
		t.Errorf("TextBody = %q", m.TextBody)
	}
	if strings.Contains(m.HTMLBody, "<b>") {
		t.Error("HTMLBody must escape patient name")
	}
	if _, err := newTestClient(t, "x@example.com").build(m); err != nil {
		t.Errorf("build() error = %v", err)
	}
}

func TestBuildBirthdayEmail(t *testing.T) {
	m := BuildBirthdayEmail(BirthdayData{To: "ana@example.com", PatientName: "Ana"})
	if !strings.Contains(m.TextBody, "Feliz aniversário") || !strings.HasSuffix(m.TextBody, "Consultório") {
		t.Errorf("TextBody = %q", m.TextBody)
	}
}
