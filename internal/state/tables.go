package state

import (
	"context"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/store"
)

// Table is the persistence contract the store needs from a gateway.
type Table[T domain.Entity] interface {
	Name() string
	List(ctx context.Context) ([]T, error)
	Save(ctx context.Context, item T) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type SettingsTable interface {
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) (bool, error)
}

type Tables struct {
	Patients             Table[domain.Patient]
	Appointments         Table[domain.Appointment]
	SessionNotes         Table[domain.SessionNote]
	InternalObservations Table[domain.InternalObservation]
	Transactions         Table[domain.Transaction]
	ConsultationTypes    Table[domain.ConsultationType]
	BlockedDays          Table[domain.BlockedDay]
	NotificationLogs     Table[domain.NotificationLog]
	AuditLogs            Table[domain.AuditLogEntry]
	Settings             SettingsTable
}

// FromGateways adapts the Postgres gateways. A non-nil sealer encrypts
// session note and observation content at rest.
func FromGateways(g *store.Gateways, sealer Sealer) Tables {
	t := Tables{
		Patients:             g.Patients,
		Appointments:         g.Appointments,
		SessionNotes:         g.SessionNotes,
		InternalObservations: g.InternalObservations,
		Transactions:         g.Transactions,
		ConsultationTypes:    g.ConsultationTypes,
		BlockedDays:          g.BlockedDays,
		NotificationLogs:     g.NotificationLogs,
		AuditLogs:            g.AuditLogs,
		Settings:             g.Settings,
	}
	if sealer != nil {
		t.SessionNotes = SealedTable(t.SessionNotes, sealer, noteContent)
		t.InternalObservations = SealedTable(t.InternalObservations, sealer, observationContent)
	}
	return t
}
