package links

import (
	"net/url"
	"strings"
	"testing"
)

func TestNationalDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(11) 98765-4321", "11987654321"},
		{"+55 11 98765-4321", "11987654321"},
		{"5511987654321", "11987654321"},
		{"21 3333-4444", "2133334444"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NationalDigits(tt.in); got != tt.want {
				t.Errorf("NationalDigits(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWhatsApp(t *testing.T) {
	got := WhatsApp("(11) 98765-4321", "Olá Ana, tudo bem?")
	prefix := "https://wa.me/5511987654321?text="
	if !strings.HasPrefix(got, prefix) {
		t.Fatalf("WhatsApp() = %q, want prefix %q", got, prefix)
	}
	text, err := url.QueryUnescape(strings.TrimPrefix(got, prefix))
	if err != nil {
		t.Fatalf("unescape: %v", err)
	}
	if text != "Olá Ana, tudo bem?" {
		t.Errorf("text = %q", text)
	}
}

func TestGmail(t *testing.T) {
	got := Gmail("ana@example.com", "Assunto", "Corpo da mensagem")
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	if u.Host != "mail.google.com" || u.Path != "/mail/" {
		t.Errorf("Gmail() host/path = %s%s", u.Host, u.Path)
	}
	q := u.Query()
	want := map[string]string{"view": "cm", "fs": "1", "to": "ana@example.com", "su": "Assunto", "body": "Corpo da mensagem"}
	for k, v := range want {
		if q.Get(k) != v {
			t.Errorf("query %s = %q, want %q", k, q.Get(k), v)
		}
	}
}

func TestReminderMessage(t *testing.T) {
	got := ReminderMessage("Ana", "2025-03-10", "14:30")
	want := "Olá Ana, lembramos sua consulta em 10/03/2025 às 14:30."
	if got != want {
		t.Errorf("ReminderMessage() = %q, want %q", got, want)
	}
}

func TestBrazilianDate(t *testing.T) {
	if got := BrazilianDate("2025-12-01"); got != "01/12/2025" {
		t.Errorf("BrazilianDate() = %q", got)
	}
	if got := BrazilianDate("bad"); got != "bad" {
		t.Errorf("BrazilianDate(bad) = %q", got)
	}
}
