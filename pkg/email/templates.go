package email

import (
	"fmt"
	"html"
)

// ReminderData fills the appointment reminder email.
type ReminderData struct {
	To          string
	PatientName string
	// DateBR is DD/MM/YYYY.
	DateBR     string
	Time       string
	ClinicName string
}

func BuildReminderEmail(data ReminderData) Message {
	name := orDefault(data.PatientName, "paciente")
	clinic := orDefault(data.ClinicName, "Consultório")

	text := fmt.Sprintf(`Olá %s,

Lembramos sua consulta em %s às %s.

Caso não possa comparecer, por favor avise com antecedência.

Atenciosamente,
%s`, name, data.DateBR, data.Time, clinic)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <p>Olá %s,</p>
    <p>Lembramos sua consulta em <strong>%s</strong> às <strong>%s</strong>.</p>
    <p>Caso não possa comparecer, por favor avise com antecedência.</p>
    <p>Atenciosamente,<br>%s</p>
</body>
</html>`, html.EscapeString(name), html.EscapeString(data.DateBR), html.EscapeString(data.Time), html.EscapeString(clinic))

	return Message{
		To:       []string{data.To},
		Subject:  "Lembrete de consulta",
		TextBody: text,
		HTMLBody: htmlBody,
	}
}

type BirthdayData struct {
	To          string
	PatientName string
	ClinicName  string
}

func BuildBirthdayEmail(data BirthdayData) Message {
	name := orDefault(data.PatientName, "paciente")
	clinic := orDefault(data.ClinicName, "Consultório")

	text := fmt.Sprintf(`Olá %s,

Feliz aniversário! Desejamos um novo ano cheio de saúde e alegria.

Com carinho,
%s`, name, clinic)

	return Message{
		To:       []string{data.To},
		Subject:  "Feliz aniversário!",
		TextBody: text,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
