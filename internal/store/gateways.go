package store

import (
	"log/slog"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
)

// Gateways bundles one gateway per table.
type Gateways struct {
	Patients             *Gateway[domain.Patient]
	Appointments         *Gateway[domain.Appointment]
	ConsultationTypes    *Gateway[domain.ConsultationType]
	Transactions         *Gateway[domain.Transaction]
	SessionNotes         *Gateway[domain.SessionNote]
	InternalObservations *Gateway[domain.InternalObservation]
	BlockedDays          *Gateway[domain.BlockedDay]
	NotificationLogs     *Gateway[domain.NotificationLog]
	AuditLogs            *Gateway[domain.AuditLogEntry]
	Settings             *SettingsGateway
}

func NewGateways(q Querier, log *slog.Logger) *Gateways {
	log = log.With("component", "gateway")
	return &Gateways{
		Patients:             NewGateway(q, PatientsTable, log),
		Appointments:         NewGateway(q, AppointmentsTable, log),
		ConsultationTypes:    NewGateway(q, ConsultationTypesTable, log),
		Transactions:         NewGateway(q, TransactionsTable, log),
		SessionNotes:         NewGateway(q, SessionNotesTable, log),
		InternalObservations: NewGateway(q, InternalObservationsTable, log),
		BlockedDays:          NewGateway(q, BlockedDaysTable, log),
		NotificationLogs:     NewGateway(q, NotificationLogsTable, log),
		AuditLogs:            NewGateway(q, AuditLogsTable, log),
		Settings:             NewSettingsGateway(q, log),
	}
}
