package appointment

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigoprogmaster-prog/clinica/config"
	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/scheduling"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state/statetest"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/redis"
)

type fixture struct {
	svc    Service
	store  *state.Store
	mem    *statetest.Mem
	staged *redis.MemoryKV
}

// now is Monday 2025-03-10 10:00 UTC.
func newFixture(t *testing.T, policy Policy) fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := statetest.NewMem()
	st := state.New(mem.Tables(), log)
	clock := domain.FixedClock(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), time.UTC)
	auditSvc := audit.New(st, clock, log)
	days := scheduling.New(st, auditSvc, clock,
		config.WorkdayConfig{Start: "08:00", End: "18:00", SlotMinutes: 30, FullFactor: 1.5}, log)
	staged := redis.NewMemoryKV()

	ctx := context.Background()
	require.NoError(t, st.SavePatient(ctx, domain.Patient{ID: "p1", Name: "Ana Souza", IsActive: true}).Err)
	require.NoError(t, st.SaveConsultationType(ctx, domain.ConsultationType{ID: "ct1", Name: "Sessão", Price: 150}).Err)

	return fixture{
		svc:    New(st, days, auditSvc, staged, clock, policy, log),
		store:  st,
		mem:    mem,
		staged: staged,
	}
}

func (f fixture) create(t *testing.T) domain.Appointment {
	t.Helper()
	a, err := f.svc.Create(context.Background(), CreateRequest{
		PatientID: "p1", Date: "2025-03-12", Time: "14:00", ConsultationTypeID: "ct1",
	})
	require.NoError(t, err)
	return a
}

func countAudit(st *state.Store, action string) int {
	n := 0
	for _, e := range st.Snapshot().AuditLogs {
		if e.Action == action {
			n++
		}
	}
	return n
}

func TestCreate_SnapshotsPriceAndName(t *testing.T) {
	f := newFixture(t, Policy{})
	a := f.create(t)

	assert.Equal(t, domain.StatusScheduled, a.Status)
	assert.False(t, a.ReminderSent)
	assert.Equal(t, "Ana Souza", a.PatientName)
	assert.Equal(t, 150.0, a.Price)
	assert.Regexp(t, `^\d{13}-[a-z0-9]{9}$`, a.ID)
	assert.Equal(t, 1, countAudit(f.store, audit.ActionCreate))

	// Editing the consultation type later does not change the booked price.
	require.NoError(t, f.store.SaveConsultationType(context.Background(),
		domain.ConsultationType{ID: "ct1", Name: "Sessão", Price: 300}).Err)
	got, err := f.svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, got.Price)
}

func TestCreate_LenientDefaults(t *testing.T) {
	f := newFixture(t, Policy{})
	a, err := f.svc.Create(context.Background(), CreateRequest{})
	require.NoError(t, err)

	assert.Equal(t, UnknownPatientName, a.PatientName)
	assert.Equal(t, 0.0, a.Price)
	assert.Equal(t, "2025-03-10", a.Date)
	assert.Equal(t, "00:00", a.Time)
}

func TestCreate_ExplicitPrice(t *testing.T) {
	f := newFixture(t, Policy{})
	price := 90.0
	a, err := f.svc.Create(context.Background(), CreateRequest{
		PatientID: "p1", Date: "2025-03-12", Time: "09:00", ConsultationTypeID: "ct1", Price: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, 90.0, a.Price)
}

func TestCreate_StrictPolicy(t *testing.T) {
	f := newFixture(t, Policy{RequireFields: true})
	_, err := f.svc.Create(context.Background(), CreateRequest{Date: "2025-03-12"})
	require.ErrorIs(t, err, domain.ErrValidation)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 3)
}

func TestCreate_RejectsUnselectableDays(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()

	tests := []struct {
		name string
		date string
	}{
		{"past", "2025-03-07"},
		{"holiday", "2025-04-21"},
		{"blocked", "2025-03-14"},
	}
	require.NoError(t, f.store.SaveBlockedDay(ctx, domain.BlockedDay{ID: "b1", Date: "2025-03-14", Reason: "Férias"}).Err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, CreateRequest{PatientID: "p1", Date: tt.date, Time: "10:00"})
			assert.ErrorIs(t, err, ErrDayNotSelectable)
		})
	}
}

func TestCreate_InvalidTime(t *testing.T) {
	f := newFixture(t, Policy{})
	_, err := f.svc.Create(context.Background(), CreateRequest{Date: "2025-03-12", Time: "25:00"})
	assert.ErrorIs(t, err, ErrInvalidDateTime)
}

func TestCreate_PadsSingleDigitHour(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()

	early, err := f.svc.Create(ctx, CreateRequest{PatientID: "p1", Date: "2025-03-12", Time: "8:00"})
	require.NoError(t, err)
	assert.Equal(t, "08:00", early.Time)
	_, err = f.svc.Create(ctx, CreateRequest{PatientID: "p1", Date: "2025-03-12", Time: "10:00"})
	require.NoError(t, err)

	list := f.svc.List(ctx, ListRequest{From: "2025-03-12", To: "2025-03-12"})
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID)

	staged, err := f.svc.StageReschedule(ctx, early.ID, "2025-03-13", "9:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30", staged.Time)
}

func TestComplete_CreatesOneIncomeAndOneAudit(t *testing.T) {
	f := newFixture(t, Policy{})
	a := f.create(t)

	done, tx, err := f.svc.Complete(context.Background(), a.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, done.Status)
	assert.Equal(t, domain.TransactionIncome, tx.Type)
	assert.Equal(t, a.Price, tx.Amount)
	assert.Equal(t, a.Date, tx.Date)
	assert.Equal(t, "Consulta - Ana Souza", tx.Description)
	assert.Equal(t, a.ID, tx.AppointmentID)

	assert.Len(t, f.store.Snapshot().Transactions, 1)
	assert.Equal(t, 1, f.mem.Transactions.SaveCalls())
	assert.Equal(t, 1, countAudit(f.store, audit.ActionComplete))

	_, _, err = f.svc.Complete(context.Background(), a.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Len(t, f.store.Snapshot().Transactions, 1, "no second income")
}

func TestComplete_ConcurrentCallsBookOneIncome(t *testing.T) {
	f := newFixture(t, Policy{})
	a := f.create(t)
	f.mem.Transactions.Latency = 20 * time.Millisecond

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, errs[i] = f.svc.Complete(context.Background(), a.ID)
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrAlreadyCompleted)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Len(t, f.store.Snapshot().Transactions, 1)
	assert.Equal(t, 1, f.mem.Transactions.Len())
	assert.Equal(t, 1, countAudit(f.store, audit.ActionComplete))
}

func TestComplete_UnknownAppointment(t *testing.T) {
	f := newFixture(t, Policy{})
	_, _, err := f.svc.Complete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, f.mem.Transactions.SaveCalls())
}

func TestCancel_IsTerminal(t *testing.T) {
	f := newFixture(t, Policy{})
	a := f.create(t)
	ctx := context.Background()

	got, err := f.svc.Cancel(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, got.Status)
	assert.Empty(t, f.store.Snapshot().Transactions)

	_, _, err = f.svc.Complete(ctx, a.ID)
	assert.ErrorIs(t, err, ErrAlreadyCanceled)
	_, err = f.svc.Cancel(ctx, a.ID)
	assert.ErrorIs(t, err, ErrAlreadyCanceled)
	_, err = f.svc.StageReschedule(ctx, a.ID, "2025-03-20", "10:00")
	assert.ErrorIs(t, err, ErrAlreadyCanceled)
}

func TestReschedule_TwoStep(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()
	a := f.create(t)

	_, res := f.store.UpdateAppointment(ctx, a.ID, func(x *domain.Appointment) error {
		x.ReminderSent = true
		return nil
	})
	require.NoError(t, res.Err)

	staged, err := f.svc.StageReschedule(ctx, a.ID, "2025-03-20", "16:30")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-20", staged.Date)

	unchanged, _ := f.svc.Get(ctx, a.ID)
	assert.Equal(t, "2025-03-12", unchanged.Date, "staging does not modify the appointment")

	got, err := f.svc.ConfirmReschedule(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-20", got.Date)
	assert.Equal(t, "16:30", got.Time)
	assert.False(t, got.ReminderSent)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.PatientID, got.PatientID)
	assert.Equal(t, a.ConsultationTypeID, got.ConsultationTypeID)
	assert.Equal(t, a.Price, got.Price)
	assert.Equal(t, domain.StatusScheduled, got.Status)
	assert.Equal(t, 1, countAudit(f.store, audit.ActionReschedule))

	_, err = f.svc.ConfirmReschedule(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNoStagedReschedule, "staged change is consumed")
}

func TestReschedule_RejectsUnselectableDays(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()
	a := f.create(t)
	require.NoError(t, f.store.SaveBlockedDay(ctx, domain.BlockedDay{ID: "b1", Date: "2025-03-14", Reason: "Férias"}).Err)

	for _, date := range []string{"2025-03-07", "2025-04-21", "2025-03-14"} {
		_, err := f.svc.StageReschedule(ctx, a.ID, date, "10:00")
		assert.ErrorIs(t, err, ErrDayNotSelectable, date)
	}

	_, err := f.svc.StageReschedule(ctx, a.ID, "2025-03-20", "10:00")
	require.NoError(t, err)
	require.NoError(t, f.store.SaveBlockedDay(ctx, domain.BlockedDay{ID: "b2", Date: "2025-03-20"}).Err)

	_, err = f.svc.ConfirmReschedule(ctx, a.ID)
	assert.ErrorIs(t, err, ErrDayNotSelectable)
	unchanged, _ := f.svc.Get(ctx, a.ID)
	assert.Equal(t, "2025-03-12", unchanged.Date)
}

func TestReschedule_CancelDiscards(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()
	a := f.create(t)

	_, err := f.svc.StageReschedule(ctx, a.ID, "2025-03-20", "16:30")
	require.NoError(t, err)
	require.NoError(t, f.svc.CancelReschedule(ctx, a.ID))

	_, err = f.svc.ConfirmReschedule(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNoStagedReschedule)

	got, _ := f.svc.Get(ctx, a.ID)
	assert.Equal(t, a, got)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()
	a := f.create(t)

	notes := "Trazer exames"
	got, err := f.svc.Update(ctx, a.ID, UpdateRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, got.Notes)
	assert.Equal(t, a.Price, got.Price)

	_, err = f.svc.Update(ctx, "missing", UpdateRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()
	a := f.create(t)

	require.NoError(t, f.svc.Delete(ctx, a.ID))
	_, err := f.svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, f.mem.Appointments.Len())
	assert.Equal(t, 1, countAudit(f.store, audit.ActionDelete))
}

func TestList_FiltersAndOrders(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()
	for _, in := range []CreateRequest{
		{PatientID: "p1", Date: "2025-03-13", Time: "09:00"},
		{PatientID: "p1", Date: "2025-03-12", Time: "15:00"},
		{PatientID: "p2", Date: "2025-03-12", Time: "08:00"},
	} {
		_, err := f.svc.Create(ctx, in)
		require.NoError(t, err)
	}

	all := f.svc.List(ctx, ListRequest{})
	require.Len(t, all, 3)
	assert.Equal(t, "08:00", all[0].Time)
	assert.Equal(t, "2025-03-13", all[2].Date)

	assert.Len(t, f.svc.List(ctx, ListRequest{PatientID: "p1"}), 2)
	assert.Len(t, f.svc.List(ctx, ListRequest{From: "2025-03-13", To: "2025-03-13"}), 1)
	assert.Len(t, f.svc.List(ctx, ListRequest{Status: "completed"}), 0)
}

func TestCreate_RollbackSurfacesError(t *testing.T) {
	f := newFixture(t, Policy{})
	f.mem.Appointments.Fail = true

	_, err := f.svc.Create(context.Background(), CreateRequest{PatientID: "p1", Date: "2025-03-12", Time: "10:00"})
	assert.ErrorIs(t, err, state.ErrNotPersisted)
	assert.Empty(t, f.svc.List(context.Background(), ListRequest{}))
	assert.True(t, f.store.Status().Degraded)
}
