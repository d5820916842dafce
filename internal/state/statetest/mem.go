// Package statetest provides in-memory tables for tests of code built on
// state.Store.
package statetest

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
)

// ErrInjected is returned by tables whose Fail switch is on.
var ErrInjected = errors.New("injected failure")

// MemTable is a map-backed state.Table that counts calls.
type MemTable[T domain.Entity] struct {
	mu    sync.Mutex
	name  string
	rows  map[string]T
	order []string

	// Fail makes every call return ErrInjected.
	Fail bool
	// Missing makes every call behave like a missing table.
	Missing bool
	// Latency delays every Save, widening race windows in concurrent tests.
	Latency time.Duration

	saves   int
	deletes int
	lists   int
}

func NewMemTable[T domain.Entity](name string, rows ...T) *MemTable[T] {
	t := &MemTable[T]{name: name, rows: make(map[string]T)}
	for _, r := range rows {
		t.put(r)
	}
	return t
}

func (t *MemTable[T]) put(r T) {
	if _, ok := t.rows[r.Key()]; !ok {
		t.order = append(t.order, r.Key())
	}
	t.rows[r.Key()] = r
}

func (t *MemTable[T]) Name() string { return t.name }

func (t *MemTable[T]) List(context.Context) ([]T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lists++
	if t.Fail {
		return []T{}, ErrInjected
	}
	out := make([]T, 0, len(t.rows))
	if t.Missing {
		return out, nil
	}
	for _, id := range t.order {
		if r, ok := t.rows[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *MemTable[T]) Save(_ context.Context, item T) (bool, error) {
	if t.Latency > 0 {
		time.Sleep(t.Latency)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.saves++
	if t.Fail {
		return false, ErrInjected
	}
	if t.Missing {
		return false, nil
	}
	t.put(item)
	return true, nil
}

func (t *MemTable[T]) Delete(_ context.Context, id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deletes++
	if t.Fail {
		return false, ErrInjected
	}
	if t.Missing {
		return false, nil
	}
	if _, ok := t.rows[id]; ok {
		delete(t.rows, id)
		t.order = slices.DeleteFunc(t.order, func(k string) bool { return k == id })
	}
	return true, nil
}

// Get returns the persisted row with id.
func (t *MemTable[T]) Get(id string) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rows[id]
	return r, ok
}

func (t *MemTable[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

func (t *MemTable[T]) SaveCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saves
}

func (t *MemTable[T]) DeleteCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deletes
}

func (t *MemTable[T]) ListCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lists
}

// MemSettings is a map-backed state.SettingsTable.
type MemSettings struct {
	mu     sync.Mutex
	values map[string]string
	Fail   bool
	sets   int
}

func NewMemSettings(kv map[string]string) *MemSettings {
	values := make(map[string]string, len(kv))
	for k, v := range kv {
		values[k] = v
	}
	return &MemSettings{values: values}
}

func (m *MemSettings) All(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return map[string]string{}, ErrInjected
	}
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *MemSettings) Set(_ context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.Fail {
		return false, ErrInjected
	}
	m.values[key] = value
	return true, nil
}

func (m *MemSettings) Value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

func (m *MemSettings) SetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// Mem is a full set of in-memory tables.
type Mem struct {
	Patients             *MemTable[domain.Patient]
	Appointments         *MemTable[domain.Appointment]
	SessionNotes         *MemTable[domain.SessionNote]
	InternalObservations *MemTable[domain.InternalObservation]
	Transactions         *MemTable[domain.Transaction]
	ConsultationTypes    *MemTable[domain.ConsultationType]
	BlockedDays          *MemTable[domain.BlockedDay]
	NotificationLogs     *MemTable[domain.NotificationLog]
	AuditLogs            *MemTable[domain.AuditLogEntry]
	Settings             *MemSettings
}

func NewMem() *Mem {
	return &Mem{
		Patients:             NewMemTable[domain.Patient]("patients"),
		Appointments:         NewMemTable[domain.Appointment]("appointments"),
		SessionNotes:         NewMemTable[domain.SessionNote]("session_notes"),
		InternalObservations: NewMemTable[domain.InternalObservation]("internal_observations"),
		Transactions:         NewMemTable[domain.Transaction]("transactions"),
		ConsultationTypes:    NewMemTable[domain.ConsultationType]("consultation_types"),
		BlockedDays:          NewMemTable[domain.BlockedDay]("blocked_days"),
		NotificationLogs:     NewMemTable[domain.NotificationLog]("notification_logs"),
		AuditLogs:            NewMemTable[domain.AuditLogEntry]("audit_logs"),
		Settings:             NewMemSettings(nil),
	}
}

func (m *Mem) Tables() state.Tables {
	return state.Tables{
		Patients:             m.Patients,
		Appointments:         m.Appointments,
		SessionNotes:         m.SessionNotes,
		InternalObservations: m.InternalObservations,
		Transactions:         m.Transactions,
		ConsultationTypes:    m.ConsultationTypes,
		BlockedDays:          m.BlockedDays,
		NotificationLogs:     m.NotificationLogs,
		AuditLogs:            m.AuditLogs,
		Settings:             m.Settings,
	}
}

// Keys returns the sorted ids persisted in t.
func Keys[T domain.Entity](t *MemTable[T]) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.rows))
	for k := range t.rows {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
