package patient

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state/statetest"
)

func newTestService(t *testing.T, requireFields bool) (Service, *state.Store, *statetest.Mem) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := statetest.NewMem()
	st := state.New(mem.Tables(), log)
	clock := domain.FixedClock(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), time.UTC)
	return New(st, audit.New(st, clock, log), clock, requireFields, log), st, mem
}

func TestCreate(t *testing.T) {
	svc, st, mem := newTestService(t, false)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateRequest{Name: "  Ana Souza ", Phone: "11 98765-4321", BirthDate: "1990-03-10"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", p.Name)
	assert.True(t, p.IsActive)
	assert.NotNil(t, p.Anamnesis)
	assert.Equal(t, 1, mem.Patients.Len())
	assert.Len(t, st.Snapshot().AuditLogs, 1)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	_, err := svc.Create(context.Background(), CreateRequest{Name: " ", BirthDate: "10/03/1990"})
	require.ErrorIs(t, err, domain.ErrValidation)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)

	strict, _, _ := newTestService(t, true)
	_, err = strict.Create(context.Background(), CreateRequest{Name: "Ana"})
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
}

func TestCreate_RollbackOnGatewayError(t *testing.T) {
	svc, st, mem := newTestService(t, false)
	mem.Patients.Fail = true

	_, err := svc.Create(context.Background(), CreateRequest{Name: "Ana"})
	require.ErrorIs(t, err, state.ErrNotPersisted)
	assert.Empty(t, st.Snapshot().Patients)
	assert.True(t, st.Status().Degraded)
}

func TestUpdateDeactivateReactivate(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	ctx := context.Background()
	p, err := svc.Create(ctx, CreateRequest{Name: "Ana"})
	require.NoError(t, err)

	phone := "21 99999-0000"
	p, err = svc.Update(ctx, p.ID, UpdateRequest{Phone: &phone, Anamnesis: map[string]any{"queixa": "ansiedade"}})
	require.NoError(t, err)
	assert.Equal(t, phone, p.Phone)
	assert.Equal(t, "ansiedade", p.Anamnesis["queixa"])

	empty := ""
	_, err = svc.Update(ctx, p.ID, UpdateRequest{Name: &empty})
	assert.ErrorIs(t, err, ErrNameRequired)

	p, err = svc.Deactivate(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, p.IsActive)

	active := true
	assert.Empty(t, svc.List(ctx, ListRequest{Active: &active}))

	p, err = svc.Reactivate(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, p.IsActive)

	_, err = svc.Deactivate(ctx, "missing")
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestListSortsAndSearches(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	ctx := context.Background()
	for _, n := range []string{"carla", "Bruno", "Ana"} {
		_, err := svc.Create(ctx, CreateRequest{Name: n, Email: n + "@example.com"})
		require.NoError(t, err)
	}

	list := svc.List(ctx, ListRequest{})
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Ana", "Bruno", "carla"}, []string{list[0].Name, list[1].Name, list[2].Name})

	found := svc.List(ctx, ListRequest{Query: "BRU"})
	require.Len(t, found, 1)
	assert.Equal(t, "Bruno", found[0].Name)
}

func TestDelete(t *testing.T) {
	svc, st, mem := newTestService(t, false)
	ctx := context.Background()
	p, err := svc.Create(ctx, CreateRequest{Name: "Ana"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.Equal(t, 0, mem.Patients.Len())
	_, ok := st.Patient(p.ID)
	assert.False(t, ok)

	assert.ErrorIs(t, svc.Delete(ctx, p.ID), ErrPatientNotFound)
}

func TestBirthdaysToday(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateRequest{Name: "Ana", BirthDate: "1990-03-10"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{Name: "Bruno", BirthDate: "1990-03-11"})
	require.NoError(t, err)
	inactive, err := svc.Create(ctx, CreateRequest{Name: "Carla", BirthDate: "1985-03-10"})
	require.NoError(t, err)
	_, err = svc.Deactivate(ctx, inactive.ID)
	require.NoError(t, err)

	got := svc.BirthdaysToday(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "Ana", got[0].Name)
}
