// Package state holds the in-memory application store: every collection the
// API serves, mutated only through command functions that persist through the
// gateways and roll back on failure.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
)

// ErrNotPersisted is returned when the gateway rejected a write and the
// in-memory change was reverted.
var ErrNotPersisted = errors.New("change not persisted")

// Collections is the full application state.
type Collections struct {
	Patients             []domain.Patient
	Appointments         []domain.Appointment
	SessionNotes         []domain.SessionNote
	InternalObservations []domain.InternalObservation
	Transactions         []domain.Transaction
	ConsultationTypes    []domain.ConsultationType
	BlockedDays          []domain.BlockedDay
	NotificationLogs     []domain.NotificationLog
	AuditLogs            []domain.AuditLogEntry
	Settings             domain.Settings
}

func (c Collections) clone() Collections {
	return Collections{
		Patients:             cloneSlice(c.Patients),
		Appointments:         cloneOf(c.Appointments),
		SessionNotes:         cloneOf(c.SessionNotes),
		InternalObservations: cloneOf(c.InternalObservations),
		Transactions:         cloneOf(c.Transactions),
		ConsultationTypes:    cloneOf(c.ConsultationTypes),
		BlockedDays:          cloneOf(c.BlockedDays),
		NotificationLogs:     cloneOf(c.NotificationLogs),
		AuditLogs:            cloneOf(c.AuditLogs),
		Settings:             c.Settings,
	}
}

func cloneOf[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneSlice(in []domain.Patient) []domain.Patient {
	out := make([]domain.Patient, len(in))
	for i, p := range in {
		if p.Anamnesis != nil {
			m := make(map[string]any, len(p.Anamnesis))
			for k, v := range p.Anamnesis {
				m[k] = v
			}
			p.Anamnesis = m
		}
		out[i] = p
	}
	return out
}

// Result reports the outcome of a command.
type Result struct {
	// Synced is true when the gateway confirmed the write.
	Synced bool
	// RolledBack is true when the in-memory change was reverted.
	RolledBack bool
	Err        error
}

// SyncStatus is the sync indicator. Degraded stays set once a write is rolled
// back or left unsynced, and only a successful Load clears it.
type SyncStatus struct {
	Degraded     bool      `json:"degraded"`
	LastError    string    `json:"lastError,omitempty"`
	LastErrorAt  time.Time `json:"lastErrorAt,omitzero"`
	LastSyncedAt time.Time `json:"lastSyncedAt,omitzero"`
}

type Store struct {
	// mu guards data and status; cmd serialises commands end to end.
	mu     sync.RWMutex
	cmd    sync.Mutex
	data   Collections
	status SyncStatus

	tables Tables
	log    *slog.Logger
	now    func() time.Time

	commands metric.Int64Counter
	tracer   trace.Tracer
}

const instrumentationName = "github.com/rodrigoprogmaster-prog/clinica/internal/state"

func New(tables Tables, log *slog.Logger) *Store {
	commands, _ := otel.Meter(instrumentationName).Int64Counter(
		"clinica_store_commands_total",
		metric.WithDescription("Store commands by table and outcome"),
	)
	return &Store{
		tables:   tables,
		log:      log.With("component", "state"),
		now:      time.Now,
		commands: commands,
		tracer:   otel.Tracer(instrumentationName),
		data:     Collections{}.clone(),
	}
}

// write runs one gateway call inside a client span for table.
func (s *Store) write(ctx context.Context, table, op string, call func(context.Context) (bool, error)) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "state."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.collection.name", table)),
	)
	defer span.End()

	saved, err := call(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write rejected")
	}
	span.SetAttributes(attribute.Bool("state.saved", saved))
	return saved, err
}

// Load replaces the state with a parallel read of every table. Tables that
// fail to load come back empty; the first error is returned and recorded.
// A full successful load clears the degraded flag.
func (s *Store) Load(ctx context.Context) error {
	s.cmd.Lock()
	defer s.cmd.Unlock()

	var (
		next Collections
		g    errgroup.Group
	)
	g.Go(func() (err error) { next.Patients, err = s.tables.Patients.List(ctx); return })
	g.Go(func() (err error) { next.Appointments, err = s.tables.Appointments.List(ctx); return })
	g.Go(func() (err error) { next.SessionNotes, err = s.tables.SessionNotes.List(ctx); return })
	g.Go(func() (err error) {
		next.InternalObservations, err = s.tables.InternalObservations.List(ctx)
		return
	})
	g.Go(func() (err error) { next.Transactions, err = s.tables.Transactions.List(ctx); return })
	g.Go(func() (err error) { next.ConsultationTypes, err = s.tables.ConsultationTypes.List(ctx); return })
	g.Go(func() (err error) { next.BlockedDays, err = s.tables.BlockedDays.List(ctx); return })
	g.Go(func() (err error) { next.NotificationLogs, err = s.tables.NotificationLogs.List(ctx); return })
	g.Go(func() (err error) { next.AuditLogs, err = s.tables.AuditLogs.List(ctx); return })
	g.Go(func() error {
		all, err := s.tables.Settings.All(ctx)
		next.Settings = domain.Settings{
			Password:       all[domain.SettingPassword],
			ProfileImage:   all[domain.SettingProfileImage],
			SignatureImage: all[domain.SettingSignatureImage],
		}
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = next.clone()
	if err != nil {
		s.markDegraded(fmt.Errorf("load: %w", err))
		return fmt.Errorf("load: %w", err)
	}
	s.status.Degraded = false
	s.status.LastSyncedAt = s.now()
	return nil
}

// Replace swaps the whole state without touching the database.
func (s *Store) Replace(c Collections) {
	s.cmd.Lock()
	defer s.cmd.Unlock()

	s.mu.Lock()
	s.data = c.clone()
	s.mu.Unlock()
}

// Snapshot returns a copy of every collection.
func (s *Store) Snapshot() Collections {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

func (s *Store) Status() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Store) Patient(id string) (domain.Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.data.Patients, id)
}

func (s *Store) Appointment(id string) (domain.Appointment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.data.Appointments, id)
}

func (s *Store) ConsultationType(id string) (domain.ConsultationType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.data.ConsultationTypes, id)
}

func (s *Store) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Settings
}

func find[T domain.Entity](items []T, id string) (T, bool) {
	for _, it := range items {
		if it.Key() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// markDegraded must be called with mu held.
func (s *Store) markDegraded(err error) {
	s.status.Degraded = true
	s.status.LastError = err.Error()
	s.status.LastErrorAt = s.now()
}

// finish records the outcome of a command. It must be called with mu held.
func (s *Store) finish(ctx context.Context, table, op string, saved bool, err error) Result {
	outcome := "synced"
	var res Result

	switch {
	case err != nil:
		outcome = "rolled_back"
		s.markDegraded(err)
		s.log.WarnContext(ctx, "change rolled back",
			slog.String("table", table),
			slog.String("op", op),
			slog.Any("error", err),
		)
		res = Result{RolledBack: true, Err: fmt.Errorf("%w: %s %s: %w", ErrNotPersisted, op, table, err)}
	case !saved:
		outcome = "unsynced"
		s.markDegraded(fmt.Errorf("%s unavailable", table))
		res = Result{}
	default:
		s.status.LastSyncedAt = s.now()
		res = Result{Synced: true}
	}

	if s.commands != nil {
		s.commands.Add(ctx, 1, metric.WithAttributes(
			attribute.String("table", table),
			attribute.String("op", op),
			attribute.String("outcome", outcome),
		))
	}
	return res
}
