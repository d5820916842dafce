package scheduling

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigoprogmaster-prog/clinica/config"
	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state/statetest"
)

var workday = config.WorkdayConfig{Start: "08:00", End: "18:00", SlotMinutes: 30, FullFactor: 1.5}

type fixture struct {
	svc   Service
	store *state.Store
	mem   *statetest.Mem
}

// today is 2025-03-10, a Monday.
func newFixture(t *testing.T) fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := statetest.NewMem()
	st := state.New(mem.Tables(), log)
	clock := domain.FixedClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), time.UTC)
	return fixture{
		svc:   New(st, audit.New(st, clock, log), clock, workday, log),
		store: st,
		mem:   mem,
	}
}

func (f fixture) book(t *testing.T, date string, n int, status domain.AppointmentStatus) {
	t.Helper()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%s-%d", date, status, i)
		require.NoError(t, f.store.SaveAppointment(context.Background(), domain.Appointment{ID: id, Date: date, Status: status}).Err)
	}
}

func TestSlots(t *testing.T) {
	f := newFixture(t)
	slots := f.svc.Slots()
	require.Len(t, slots, 20)
	assert.Equal(t, "08:00", slots[0])
	assert.Equal(t, "17:30", slots[19])
	assert.Equal(t, 30.0, f.svc.FullThreshold())
}

func TestDay_IsPastIsLexicographic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past, err := f.svc.Day(ctx, "2025-03-09")
	require.NoError(t, err)
	assert.True(t, past.IsPast)
	assert.False(t, past.Selectable)

	today, _ := f.svc.Day(ctx, "2025-03-10")
	assert.False(t, today.IsPast)
	assert.True(t, today.Selectable)
}

func TestDay_FullThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, "2025-03-12", 29, domain.StatusScheduled)
	f.book(t, "2025-03-12", 5, domain.StatusCanceled)
	d, _ := f.svc.Day(ctx, "2025-03-12")
	assert.Equal(t, 29, d.Appointments)
	assert.False(t, d.IsFull, "canceled appointments do not count")

	f.book(t, "2025-03-13", 20, domain.StatusScheduled)
	f.book(t, "2025-03-13", 10, domain.StatusCompleted)
	d, _ = f.svc.Day(ctx, "2025-03-13")
	assert.True(t, d.IsFull)
	assert.True(t, d.Selectable, "full days remain bookable")
}

func TestDay_Holiday(t *testing.T) {
	f := newFixture(t)
	d, err := f.svc.Day(context.Background(), "2025-04-21")
	require.NoError(t, err)
	assert.True(t, d.IsHoliday)
	assert.Equal(t, "Tiradentes", d.Holiday)
	assert.False(t, d.Selectable)
}

func TestDay_InvalidDate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Day(context.Background(), "10/03/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestBlockUnblock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, "2025-03-14", 2, domain.StatusScheduled)

	_, err := f.svc.Block(ctx, "2025-03-14", "Congresso")
	require.NoError(t, err)
	_, err = f.svc.Block(ctx, "2025-03-14", "duplicado")
	require.NoError(t, err, "duplicate blocks are not rejected")

	d, _ := f.svc.Day(ctx, "2025-03-14")
	assert.True(t, d.IsBlocked)
	assert.Equal(t, "Congresso", d.BlockReason)
	assert.False(t, d.Selectable)
	assert.Equal(t, 2, d.Appointments, "blocking never touches appointments")
	assert.Len(t, f.store.Snapshot().Appointments, 2)

	n, err := f.svc.Unblock(ctx, "2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, f.svc.ListBlocked(ctx))
	assert.Equal(t, 0, f.mem.BlockedDays.Len())

	d, _ = f.svc.Day(ctx, "2025-03-14")
	assert.True(t, d.Selectable)

	assert.Len(t, f.store.Snapshot().AuditLogs, 3)
}

func TestMonth(t *testing.T) {
	f := newFixture(t)
	view, err := f.svc.Month(context.Background(), 2025, 3)
	require.NoError(t, err)
	assert.Len(t, view.Days, 31)
	assert.Equal(t, 6, view.LeadingBlanks, "2025-03-01 is a Saturday")
	assert.True(t, view.Days[8].IsPast)
	assert.True(t, view.Days[3].IsHoliday, "Carnival Tuesday 2025-03-04")

	_, err = f.svc.Month(context.Background(), 2025, 13)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}
