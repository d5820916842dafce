package checks_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/checks"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state/statetest"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/redis"
)

// today is 2025-03-10.
func newCoordinator(t *testing.T) (checks.Coordinator, *state.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := state.New(statetest.NewMem().Tables(), log)
	clock := domain.FixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), time.UTC)
	return checks.New(st, nil, redis.NewMemoryKV(), time.Hour, clock, log), st
}

func configure(t *testing.T, st *state.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.SetSetting(ctx, domain.SettingPassword, "x").Err)
	require.NoError(t, st.SetSetting(ctx, domain.SettingProfileImage, "data:image/png;base64,AA").Err)
}

func TestCoordinator_FullQueueInOrder(t *testing.T) {
	c, st := newCoordinator(t)
	ctx := context.Background()

	require.NoError(t, st.SavePatient(ctx, domain.Patient{ID: "p1", Name: "Ana", BirthDate: "1990-03-10", IsActive: true}).Err)
	require.NoError(t, st.SaveAppointment(ctx, domain.Appointment{ID: "a1", PatientID: "p1", Date: "2025-03-11", Time: "10:00", Status: domain.StatusScheduled}).Err)
	require.NoError(t, st.SaveAppointment(ctx, domain.Appointment{ID: "a2", PatientID: "p1", Date: "2025-03-10", Time: "14:00", Status: domain.StatusScheduled}).Err)

	p, err := c.Start(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, checks.Welcome, p.Name)
	assert.True(t, p.NeedsPassword)
	assert.True(t, p.NeedsProfileImage)

	var seen []checks.Name
	for p != nil {
		seen = append(seen, p.Name)
		p, err = c.Dismiss(ctx, "s1", p.Name)
		require.NoError(t, err)
	}
	assert.Equal(t, []checks.Name{checks.Welcome, checks.Birthday, checks.Reminder, checks.TodayAppointments}, seen)

	cur, err := c.Current(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestCoordinator_SkipsEmptyChecks(t *testing.T) {
	c, st := newCoordinator(t)
	ctx := context.Background()
	configure(t, st)

	require.NoError(t, st.SaveAppointment(ctx, domain.Appointment{ID: "a1", Date: "2025-03-10", Time: "09:00", Status: domain.StatusScheduled}).Err)

	p, err := c.Start(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, checks.TodayAppointments, p.Name)
	assert.Len(t, p.Appointments, 1)
}

func TestCoordinator_NothingToShow(t *testing.T) {
	c, st := newCoordinator(t)
	configure(t, st)

	p, err := c.Start(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCoordinator_OnlyOnePromptOpen(t *testing.T) {
	c, st := newCoordinator(t)
	ctx := context.Background()
	require.NoError(t, st.SavePatient(ctx, domain.Patient{ID: "p1", BirthDate: "1980-03-10", IsActive: true}).Err)

	p, err := c.Start(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, checks.Welcome, p.Name)

	_, err = c.Dismiss(ctx, "s1", checks.Birthday)
	assert.ErrorIs(t, err, checks.ErrNotCurrent)

	_, err = c.Dismiss(ctx, "s1", checks.Name("nope"))
	assert.ErrorIs(t, err, checks.ErrUnknownCheck)

	cur, err := c.Current(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, checks.Welcome, cur.Name)
}

func TestCoordinator_CurrentMovesPastResolvedCheck(t *testing.T) {
	c, st := newCoordinator(t)
	ctx := context.Background()
	configure(t, st)

	require.NoError(t, st.SaveAppointment(ctx, domain.Appointment{ID: "a1", Date: "2025-03-11", Time: "10:00", Status: domain.StatusScheduled}).Err)
	require.NoError(t, st.SaveAppointment(ctx, domain.Appointment{ID: "a2", Date: "2025-03-10", Time: "15:00", Status: domain.StatusScheduled}).Err)

	p, err := c.Start(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, checks.Reminder, p.Name)

	_, res := st.UpdateAppointment(ctx, "a1", func(a *domain.Appointment) error {
		a.ReminderSent = true
		return nil
	})
	require.NoError(t, res.Err)

	cur, err := c.Current(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, checks.TodayAppointments, cur.Name)

	_, err = c.Dismiss(ctx, "s1", checks.Reminder)
	assert.ErrorIs(t, err, checks.ErrNotCurrent)

	_, res = st.UpdateAppointment(ctx, "a2", func(a *domain.Appointment) error {
		a.Status = domain.StatusCanceled
		return nil
	})
	require.NoError(t, res.Err)
	cur, err = c.Current(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestCoordinator_StartRestartsFromHead(t *testing.T) {
	c, _ := newCoordinator(t)
	ctx := context.Background()

	p, err := c.Start(ctx, "s1")
	require.NoError(t, err)
	_, err = c.Dismiss(ctx, "s1", p.Name)
	require.NoError(t, err)

	p, err = c.Start(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, checks.Welcome, p.Name)
}

func TestCoordinator_InactiveAndRemindedExcluded(t *testing.T) {
	c, st := newCoordinator(t)
	ctx := context.Background()
	configure(t, st)

	require.NoError(t, st.SavePatient(ctx, domain.Patient{ID: "p1", BirthDate: "1980-03-10", IsActive: false}).Err)
	require.NoError(t, st.SaveAppointment(ctx, domain.Appointment{ID: "a1", Date: "2025-03-11", Time: "09:00", Status: domain.StatusScheduled, ReminderSent: true}).Err)
	require.NoError(t, st.SaveAppointment(ctx, domain.Appointment{ID: "a2", Date: "2025-03-11", Time: "10:00", Status: domain.StatusCanceled}).Err)

	p, err := c.Start(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCoordinator_CustomQueue(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := state.New(statetest.NewMem().Tables(), log)
	clock := domain.FixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), time.UTC)

	always := func(checks.View) bool { return true }
	blank := func(checks.View) checks.Prompt { return checks.Prompt{} }
	c := checks.New(st, []checks.Check{
		{Name: "first", Predicate: always, Present: blank},
		{Name: "second", Predicate: always, Present: blank},
	}, redis.NewMemoryKV(), time.Hour, clock, log)

	ctx := context.Background()
	p, err := c.Start(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, checks.Name("first"), p.Name)
	assert.Equal(t, 0, p.Position)

	p, err = c.Dismiss(ctx, "s", "first")
	require.NoError(t, err)
	assert.Equal(t, checks.Name("second"), p.Name)
	assert.Equal(t, 1, p.Position)
}
