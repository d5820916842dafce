package finance

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

func newTestService(t *testing.T) (Service, *statetest.Mem) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := statetest.NewMem()
	st := state.New(mem.Tables(), log)
	clock := domain.FixedClock(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), time.UTC)
	return New(st, audit.New(st, clock, log), clock, log), mem
}

func TestCreateAndList(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, TransactionRequest{Type: domain.TransactionExpense, Description: "Aluguel", Amount: 1200, Date: "2025-03-01", Category: "Aluguel"})
	require.NoError(t, err)
	inc, err := svc.Create(ctx, TransactionRequest{Type: domain.TransactionIncome, Description: "Avaliação", Amount: 300})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", inc.Date)
	assert.Equal(t, 2, mem.Transactions.Len())

	all := svc.List(ctx, ListRequest{})
	require.Len(t, all, 2)
	assert.Equal(t, inc.ID, all[0].ID)

	assert.Len(t, svc.List(ctx, ListRequest{From: "2025-03-01", To: "2025-03-01"}), 1)
	assert.Len(t, svc.List(ctx, ListRequest{Type: "income"}), 1)
	assert.Len(t, svc.List(ctx, ListRequest{Category: "Aluguel"}), 1)
}

func TestValidation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), TransactionRequest{Type: "gift", Amount: 0, Date: "ontem"})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 4)
}

func TestUpdateDelete(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	tx, err := svc.Create(ctx, TransactionRequest{Type: domain.TransactionExpense, Description: "Luz", Amount: 90, Date: "2025-03-05"})
	require.NoError(t, err)

	tx, err = svc.Update(ctx, tx.ID, TransactionRequest{Type: domain.TransactionExpense, Description: "Energia", Amount: 95})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-05", tx.Date)
	assert.Equal(t, 95.0, tx.Amount)

	require.NoError(t, svc.Delete(ctx, tx.ID))
	assert.Equal(t, 0, mem.Transactions.Len())
	assert.ErrorIs(t, svc.Delete(ctx, tx.ID), ErrTransactionNotFound)
}
