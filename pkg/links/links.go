// Package links builds the WhatsApp and Gmail deep links and the pt-BR
// message texts the practitioner sends from the browser.
package links

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

const (
	region      = "BR"
	countryCode = "55"
	whatsAppURL = "https://wa.me/"
	gmailURL    = "https://mail.google.com/mail/"
)

// NationalDigits returns the national significant number of a Brazilian
// phone, without country code or punctuation. Numbers libphonenumber cannot
// parse fall back to their bare digits.
func NationalDigits(phone string) string {
	if num, err := phonenumbers.Parse(phone, region); err == nil {
		if nsn := phonenumbers.GetNationalSignificantNumber(num); nsn != "" {
			return nsn
		}
	}

	digits := onlyDigits(phone)
	if len(digits) > 11 && strings.HasPrefix(digits, countryCode) {
		digits = digits[len(countryCode):]
	}
	return digits
}

// WhatsApp returns https://wa.me/55<digits>?text=<message>.
func WhatsApp(phone, message string) string {
	return whatsAppURL + countryCode + NationalDigits(phone) + "?text=" + url.QueryEscape(message)
}

// Gmail returns a Gmail compose URL.
func Gmail(to, subject, body string) string {
	q := url.Values{}
	q.Set("view", "cm")
	q.Set("fs", "1")
	q.Set("to", to)
	q.Set("su", subject)
	q.Set("body", body)
	return gmailURL + "?" + q.Encode()
}

// ReminderMessage is the appointment reminder text.
func ReminderMessage(patientName, date, hhmm string) string {
	return fmt.Sprintf("Olá %s, lembramos sua consulta em %s às %s.", firstNonEmpty(patientName, "paciente"), BrazilianDate(date), hhmm)
}

const ReminderSubject = "Lembrete de consulta"

func BirthdayMessage(patientName string) string {
	return fmt.Sprintf("Olá %s, feliz aniversário! Desejamos um novo ano cheio de saúde e alegria.", firstNonEmpty(patientName, "paciente"))
}

const BirthdaySubject = "Feliz aniversário!"

// BrazilianDate converts YYYY-MM-DD to DD/MM/YYYY. Other input is returned
// unchanged.
func BrazilianDate(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func firstNonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
