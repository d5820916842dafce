package state_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state/statetest"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newStore(t *testing.T) (*state.Store, *statetest.Mem) {
	t.Helper()
	mem := statetest.NewMem()
	return state.New(mem.Tables(), discard()), mem
}

func TestStore_SaveSynced(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()

	res := s.SavePatient(ctx, domain.Patient{ID: "p1", Name: "Ana", IsActive: true})
	require.NoError(t, res.Err)
	assert.True(t, res.Synced)
	assert.False(t, res.RolledBack)

	p, ok := s.Patient("p1")
	require.True(t, ok)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, 1, mem.Patients.Len())
	assert.False(t, s.Status().Degraded)
	assert.False(t, s.Status().LastSyncedAt.IsZero())
}

func TestStore_SaveRollsBackNewItem(t *testing.T) {
	s, mem := newStore(t)
	mem.Appointments.Fail = true

	res := s.SaveAppointment(context.Background(), domain.Appointment{ID: "a1", Date: "2025-05-05"})
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, state.ErrNotPersisted))
	assert.True(t, errors.Is(res.Err, statetest.ErrInjected))
	assert.True(t, res.RolledBack)
	assert.False(t, res.Synced)

	_, ok := s.Appointment("a1")
	assert.False(t, ok, "failed insert must be reverted")

	st := s.Status()
	assert.True(t, st.Degraded)
	assert.NotEmpty(t, st.LastError)
}

func TestStore_SaveRollsBackExistingItem(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveConsultationType(ctx, domain.ConsultationType{ID: "c1", Name: "Sessão", Price: 100}).Err)
	mem.ConsultationTypes.Fail = true

	res := s.SaveConsultationType(ctx, domain.ConsultationType{ID: "c1", Name: "Sessão", Price: 999})
	require.True(t, res.RolledBack)

	ct, ok := s.ConsultationType("c1")
	require.True(t, ok)
	assert.Equal(t, 100.0, ct.Price)
}

func TestStore_DeleteRollsBackAtSamePosition(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()
	for _, id := range []string{"b1", "b2", "b3"} {
		require.NoError(t, s.SaveBlockedDay(ctx, domain.BlockedDay{ID: id, Date: "2025-01-0" + id[1:]}).Err)
	}

	mem.BlockedDays.Fail = true
	res := s.DeleteBlockedDay(ctx, "b2")
	require.True(t, res.RolledBack)

	got := s.Snapshot().BlockedDays
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b1", "b2", "b3"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestStore_MissingTableKeepsChangeUnsynced(t *testing.T) {
	s, mem := newStore(t)
	mem.NotificationLogs.Missing = true

	res := s.AppendNotification(context.Background(), domain.NotificationLog{ID: "n1"})
	require.NoError(t, res.Err)
	assert.False(t, res.Synced)
	assert.False(t, res.RolledBack)
	assert.Len(t, s.Snapshot().NotificationLogs, 1)
	assert.True(t, s.Status().Degraded)
}

func TestStore_UpdateAppointment(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveAppointment(ctx, domain.Appointment{ID: "a1", Status: domain.StatusScheduled}).Err)

	got, res := s.UpdateAppointment(ctx, "a1", func(a *domain.Appointment) error {
		a.ReminderSent = true
		return nil
	})
	require.NoError(t, res.Err)
	assert.True(t, got.ReminderSent)

	stored, _ := s.Appointment("a1")
	assert.True(t, stored.ReminderSent)

	_, res = s.UpdateAppointment(ctx, "missing", func(*domain.Appointment) error { return nil })
	assert.ErrorIs(t, res.Err, domain.ErrNotFound)

	boom := errors.New("boom")
	_, res = s.UpdateAppointment(ctx, "a1", func(*domain.Appointment) error { return boom })
	assert.ErrorIs(t, res.Err, boom)
}

func TestStore_CompleteAppointmentKeepsIncomeWhenStatusFails(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveAppointment(ctx, domain.Appointment{ID: "a1", Status: domain.StatusScheduled, Price: 90}).Err)
	mem.Appointments.Fail = true

	_, tx, res := s.CompleteAppointment(ctx, "a1", func(a domain.Appointment) (domain.Transaction, error) {
		return domain.Transaction{ID: "t1", Type: domain.TransactionIncome, Amount: a.Price, AppointmentID: a.ID}, nil
	})
	require.ErrorIs(t, res.Err, state.ErrNotPersisted)
	assert.Equal(t, "t1", tx.ID)
	assert.Equal(t, 1, mem.Transactions.Len())

	a, _ := s.Appointment("a1")
	assert.Equal(t, domain.StatusScheduled, a.Status)
}

func TestStore_CompleteAppointmentRefused(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveAppointment(ctx, domain.Appointment{ID: "a1", Status: domain.StatusCanceled}).Err)

	refused := errors.New("refused")
	_, _, res := s.CompleteAppointment(ctx, "a1", func(domain.Appointment) (domain.Transaction, error) {
		return domain.Transaction{}, refused
	})
	assert.ErrorIs(t, res.Err, refused)
	assert.Zero(t, mem.Transactions.SaveCalls())

	_, _, res = s.CompleteAppointment(ctx, "nope", nil)
	assert.ErrorIs(t, res.Err, domain.ErrNotFound)
}

func TestStore_SetSettingRollback(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetSetting(ctx, domain.SettingProfileImage, "img1").Err)
	assert.Equal(t, "img1", s.Settings().ProfileImage)

	mem.Settings.Fail = true
	res := s.SetSetting(ctx, domain.SettingProfileImage, "img2")
	require.True(t, res.RolledBack)
	assert.Equal(t, "img1", s.Settings().ProfileImage)
}

func TestStore_Load(t *testing.T) {
	mem := statetest.NewMem()
	mem.Patients = statetest.NewMemTable("patients", domain.Patient{ID: "p1"}, domain.Patient{ID: "p2"})
	mem.Appointments = statetest.NewMemTable("appointments", domain.Appointment{ID: "a1"})
	mem.Settings = statetest.NewMemSettings(map[string]string{domain.SettingSignatureImage: "sig"})

	s := state.New(mem.Tables(), discard())
	require.NoError(t, s.Load(context.Background()))

	snap := s.Snapshot()
	assert.Len(t, snap.Patients, 2)
	assert.Len(t, snap.Appointments, 1)
	assert.NotNil(t, snap.Transactions)
	assert.Equal(t, "sig", snap.Settings.SignatureImage)
	assert.Equal(t, 1, mem.Patients.ListCalls())
	assert.Equal(t, 1, mem.AuditLogs.ListCalls())
}

func TestStore_LoadPartialFailure(t *testing.T) {
	mem := statetest.NewMem()
	mem.Patients = statetest.NewMemTable("patients", domain.Patient{ID: "p1"})
	mem.Transactions.Fail = true

	s := state.New(mem.Tables(), discard())
	err := s.Load(context.Background())
	require.ErrorIs(t, err, statetest.ErrInjected)

	assert.Len(t, s.Snapshot().Patients, 1)
	assert.Empty(t, s.Snapshot().Transactions)
	assert.True(t, s.Status().Degraded)
}

func TestStore_DegradedUntilLoad(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()

	mem.Appointments.Fail = true
	require.Error(t, s.SaveAppointment(ctx, domain.Appointment{ID: "a1"}).Err)
	mem.Appointments.Fail = false

	require.NoError(t, s.SavePatient(ctx, domain.Patient{ID: "p1"}).Err)
	assert.True(t, s.Status().Degraded, "an unrelated success keeps the indicator set")
	assert.NotEmpty(t, s.Status().LastError)

	require.NoError(t, s.Load(ctx))
	assert.False(t, s.Status().Degraded)
	assert.Len(t, s.Snapshot().Patients, 1)
}

func TestStore_ReplaceDoesNotPersist(t *testing.T) {
	s, mem := newStore(t)
	s.Replace(state.Collections{Patients: []domain.Patient{{ID: "p9"}}})

	_, ok := s.Patient("p9")
	assert.True(t, ok)
	assert.Equal(t, 0, mem.Patients.SaveCalls())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePatient(ctx, domain.Patient{ID: "p1", Name: "Ana", Anamnesis: map[string]any{"k": "v"}}).Err)

	snap := s.Snapshot()
	snap.Patients[0].Name = "changed"
	snap.Patients[0].Anamnesis["k"] = "changed"

	p, _ := s.Patient("p1")
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, "v", p.Anamnesis["k"])
}
