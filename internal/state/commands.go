package state

import (
	"context"
	"fmt"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
)

// upsert applies item to the selected collection, persists it and reverts
// the collection when the gateway fails.
func upsert[T domain.Entity](ctx context.Context, s *Store, table Table[T], sel func(*Collections) *[]T, item T) Result {
	s.cmd.Lock()
	defer s.cmd.Unlock()
	return upsertLocked(ctx, s, table, sel, item)
}

// modify runs fn on a copy of the item with id and saves the result, all
// under the command lock.
func modify[T domain.Entity](ctx context.Context, s *Store, table Table[T], sel func(*Collections) *[]T, id string, fn func(*T) error) (T, Result) {
	s.cmd.Lock()
	defer s.cmd.Unlock()

	s.mu.RLock()
	item, ok := find(*sel(&s.data), id)
	s.mu.RUnlock()
	if !ok {
		var zero T
		return zero, Result{Err: fmt.Errorf("%s %s: %w", table.Name(), id, domain.ErrNotFound)}
	}

	if err := fn(&item); err != nil {
		return item, Result{Err: err}
	}
	return item, upsertLocked(ctx, s, table, sel, item)
}

func upsertLocked[T domain.Entity](ctx context.Context, s *Store, table Table[T], sel func(*Collections) *[]T, item T) Result {
	s.mu.Lock()
	items := sel(&s.data)
	idx := indexOf(*items, item.Key())
	var prev T
	if idx >= 0 {
		prev = (*items)[idx]
		(*items)[idx] = item
	} else {
		*items = append(*items, item)
	}
	s.mu.Unlock()

	saved, err := s.write(ctx, table.Name(), "save", func(ctx context.Context) (bool, error) {
		return table.Save(ctx, item)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		items = sel(&s.data)
		if idx >= 0 {
			(*items)[idx] = prev
		} else {
			*items = (*items)[:len(*items)-1]
		}
	}
	return s.finish(ctx, table.Name(), "save", saved, err)
}

// remove deletes the item with id from the selected collection and the table.
// Removing an unknown id still issues the delete.
func remove[T domain.Entity](ctx context.Context, s *Store, table Table[T], sel func(*Collections) *[]T, id string) Result {
	s.cmd.Lock()
	defer s.cmd.Unlock()

	s.mu.Lock()
	items := sel(&s.data)
	idx := indexOf(*items, id)
	var prev T
	if idx >= 0 {
		prev = (*items)[idx]
		*items = append((*items)[:idx], (*items)[idx+1:]...)
	}
	s.mu.Unlock()

	saved, err := s.write(ctx, table.Name(), "delete", func(ctx context.Context) (bool, error) {
		return table.Delete(ctx, id)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil && idx >= 0 {
		items = sel(&s.data)
		*items = append((*items)[:idx], append([]T{prev}, (*items)[idx:]...)...)
	}
	return s.finish(ctx, table.Name(), "delete", saved, err)
}

func indexOf[T domain.Entity](items []T, id string) int {
	for i, it := range items {
		if it.Key() == id {
			return i
		}
	}
	return -1
}

func patients(c *Collections) *[]domain.Patient { return &c.Patients }
func appointments(c *Collections) *[]domain.Appointment { return &c.Appointments }
func sessionNotes(c *Collections) *[]domain.SessionNote { return &c.SessionNotes }
func observations(c *Collections) *[]domain.InternalObservation { return &c.InternalObservations }
func transactions(c *Collections) *[]domain.Transaction { return &c.Transactions }
func consultationTypes(c *Collections) *[]domain.ConsultationType { return &c.ConsultationTypes }
func blockedDays(c *Collections) *[]domain.BlockedDay { return &c.BlockedDays }
func notificationLogs(c *Collections) *[]domain.NotificationLog { return &c.NotificationLogs }
func auditLogs(c *Collections) *[]domain.AuditLogEntry { return &c.AuditLogs }

func (s *Store) SavePatient(ctx context.Context, p domain.Patient) Result {
	return upsert(ctx, s, s.tables.Patients, patients, p)
}

// UpdatePatient applies fn to the stored patient and saves it.
func (s *Store) UpdatePatient(ctx context.Context, id string, fn func(*domain.Patient) error) (domain.Patient, Result) {
	return modify(ctx, s, s.tables.Patients, patients, id, fn)
}

func (s *Store) DeletePatient(ctx context.Context, id string) Result {
	return remove(ctx, s, s.tables.Patients, patients, id)
}

func (s *Store) SaveAppointment(ctx context.Context, a domain.Appointment) Result {
	return upsert(ctx, s, s.tables.Appointments, appointments, a)
}

// UpdateAppointment applies fn to the stored appointment and saves it.
func (s *Store) UpdateAppointment(ctx context.Context, id string, fn func(*domain.Appointment) error) (domain.Appointment, Result) {
	return modify(ctx, s, s.tables.Appointments, appointments, id, fn)
}

// CompleteAppointment books the transaction returned by book and then marks
// the appointment completed, holding the command lock across both writes so
// concurrent calls see each other's status. book sees the stored appointment
// and may refuse it. The two writes stay independent: when the status save
// fails the booked transaction is kept and returned alongside the error.
func (s *Store) CompleteAppointment(
	ctx context.Context,
	id string,
	book func(domain.Appointment) (domain.Transaction, error),
) (domain.Appointment, domain.Transaction, Result) {
	s.cmd.Lock()
	defer s.cmd.Unlock()

	s.mu.RLock()
	appt, ok := find(s.data.Appointments, id)
	s.mu.RUnlock()
	if !ok {
		return domain.Appointment{}, domain.Transaction{}, Result{
			Err: fmt.Errorf("%s %s: %w", s.tables.Appointments.Name(), id, domain.ErrNotFound),
		}
	}

	tx, err := book(appt)
	if err != nil {
		return domain.Appointment{}, domain.Transaction{}, Result{Err: err}
	}
	if res := upsertLocked(ctx, s, s.tables.Transactions, transactions, tx); res.Err != nil {
		return domain.Appointment{}, domain.Transaction{}, res
	}

	appt.Status = domain.StatusCompleted
	return appt, tx, upsertLocked(ctx, s, s.tables.Appointments, appointments, appt)
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) Result {
	return remove(ctx, s, s.tables.Appointments, appointments, id)
}

func (s *Store) SaveSessionNote(ctx context.Context, n domain.SessionNote) Result {
	return upsert(ctx, s, s.tables.SessionNotes, sessionNotes, n)
}

func (s *Store) DeleteSessionNote(ctx context.Context, id string) Result {
	return remove(ctx, s, s.tables.SessionNotes, sessionNotes, id)
}

func (s *Store) SaveObservation(ctx context.Context, o domain.InternalObservation) Result {
	return upsert(ctx, s, s.tables.InternalObservations, observations, o)
}

func (s *Store) DeleteObservation(ctx context.Context, id string) Result {
	return remove(ctx, s, s.tables.InternalObservations, observations, id)
}

func (s *Store) SaveTransaction(ctx context.Context, t domain.Transaction) Result {
	return upsert(ctx, s, s.tables.Transactions, transactions, t)
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) Result {
	return remove(ctx, s, s.tables.Transactions, transactions, id)
}

func (s *Store) SaveConsultationType(ctx context.Context, c domain.ConsultationType) Result {
	return upsert(ctx, s, s.tables.ConsultationTypes, consultationTypes, c)
}

func (s *Store) DeleteConsultationType(ctx context.Context, id string) Result {
	return remove(ctx, s, s.tables.ConsultationTypes, consultationTypes, id)
}

func (s *Store) SaveBlockedDay(ctx context.Context, b domain.BlockedDay) Result {
	return upsert(ctx, s, s.tables.BlockedDays, blockedDays, b)
}

func (s *Store) DeleteBlockedDay(ctx context.Context, id string) Result {
	return remove(ctx, s, s.tables.BlockedDays, blockedDays, id)
}

func (s *Store) AppendNotification(ctx context.Context, n domain.NotificationLog) Result {
	return upsert(ctx, s, s.tables.NotificationLogs, notificationLogs, n)
}

func (s *Store) AppendAudit(ctx context.Context, e domain.AuditLogEntry) Result {
	return upsert(ctx, s, s.tables.AuditLogs, auditLogs, e)
}

// SetSetting writes one app_settings key. Unknown keys are persisted but not
// reflected in Settings.
func (s *Store) SetSetting(ctx context.Context, key, value string) Result {
	s.cmd.Lock()
	defer s.cmd.Unlock()

	s.mu.Lock()
	prev := s.data.Settings
	applySetting(&s.data.Settings, key, value)
	s.mu.Unlock()

	saved, err := s.write(ctx, "app_settings", "set", func(ctx context.Context) (bool, error) {
		return s.tables.Settings.Set(ctx, key, value)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.data.Settings = prev
	}
	return s.finish(ctx, "app_settings", "set", saved, err)
}

func applySetting(st *domain.Settings, key, value string) {
	switch key {
	case domain.SettingPassword:
		st.Password = value
	case domain.SettingProfileImage:
		st.ProfileImage = value
	case domain.SettingSignatureImage:
		st.SignatureImage = value
	}
}
