package store

import (
	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
)

var PatientsTable = Table[domain.Patient]{
	Name:    "patients",
	Columns: []string{"id", "name", "cpf", "phone", "email", "birth_date", "address", "anamnesis", "is_active", "created_at"},
	OrderBy: "name ASC",
	Values: func(p domain.Patient) []any {
		anamnesis := p.Anamnesis
		if anamnesis == nil {
			anamnesis = map[string]any{}
		}
		return []any{p.ID, p.Name, p.CPF, p.Phone, p.Email, p.BirthDate, p.Address, anamnesis, p.IsActive, p.CreatedAt}
	},
}

var AppointmentsTable = Table[domain.Appointment]{
	Name:    "appointments",
	Columns: []string{"id", "patient_id", "patient_name", "date", "time", "status", "consultation_type_id", "price", "reminder_sent", "notes", "created_at"},
	OrderBy: "date ASC, time ASC",
	Values: func(a domain.Appointment) []any {
		return []any{a.ID, a.PatientID, a.PatientName, a.Date, a.Time, string(a.Status), a.ConsultationTypeID, a.Price, a.ReminderSent, a.Notes, a.CreatedAt}
	},
}

var ConsultationTypesTable = Table[domain.ConsultationType]{
	Name:    "consultation_types",
	Columns: []string{"id", "name", "price", "duration_minutes"},
	OrderBy: "name ASC",
	Values: func(c domain.ConsultationType) []any {
		return []any{c.ID, c.Name, c.Price, c.DurationMinutes}
	},
}

var TransactionsTable = Table[domain.Transaction]{
	Name:    "transactions",
	Columns: []string{"id", "type", "description", "amount", "date", "category", "appointment_id", "patient_id", "created_at"},
	OrderBy: "date DESC",
	Values: func(t domain.Transaction) []any {
		return []any{t.ID, string(t.Type), t.Description, t.Amount, t.Date, t.Category, t.AppointmentID, t.PatientID, t.CreatedAt}
	},
}

var SessionNotesTable = Table[domain.SessionNote]{
	Name:    "session_notes",
	Columns: []string{"id", "patient_id", "appointment_id", "date", "content", "created_at"},
	OrderBy: "date DESC",
	Values: func(n domain.SessionNote) []any {
		return []any{n.ID, n.PatientID, n.AppointmentID, n.Date, n.Content, n.CreatedAt}
	},
}

var InternalObservationsTable = Table[domain.InternalObservation]{
	Name:    "internal_observations",
	Columns: []string{"id", "patient_id", "date", "content", "created_at"},
	OrderBy: "date DESC",
	Values: func(o domain.InternalObservation) []any {
		return []any{o.ID, o.PatientID, o.Date, o.Content, o.CreatedAt}
	},
}

var BlockedDaysTable = Table[domain.BlockedDay]{
	Name:    "blocked_days",
	Columns: []string{"id", "date", "reason"},
	OrderBy: "date ASC",
	Values: func(b domain.BlockedDay) []any {
		return []any{b.ID, b.Date, b.Reason}
	},
}

var NotificationLogsTable = Table[domain.NotificationLog]{
	Name:    "notification_logs",
	Columns: []string{"id", "appointment_id", "patient_id", "patient_name", "channel", "kind", "source", "message", "sent_at"},
	OrderBy: "sent_at DESC",
	Values: func(n domain.NotificationLog) []any {
		return []any{n.ID, n.AppointmentID, n.PatientID, n.PatientName, string(n.Channel), string(n.Kind), string(n.Source), n.Message, n.SentAt}
	},
}

var AuditLogsTable = Table[domain.AuditLogEntry]{
	Name:    "audit_logs",
	Columns: []string{"id", "action", "entity", "entity_id", "details", "user_name", "timestamp"},
	OrderBy: "timestamp DESC",
	Values: func(e domain.AuditLogEntry) []any {
		return []any{e.ID, e.Action, e.Entity, e.EntityID, e.Details, e.User, e.Timestamp}
	},
}
