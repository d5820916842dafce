package finance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/util/codes"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ListRequest struct {
	From     string
	To       string
	Type     string
	Category string
}

type TransactionRequest struct {
	Type        domain.TransactionType
	Description string
	Amount      float64
	// Date defaults to today.
	Date      string
	Category  string
	PatientID string
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// List returns transactions newest first.
	List(ctx context.Context, req ListRequest) []domain.Transaction
	Get(ctx context.Context, id string) (domain.Transaction, error)
	Create(ctx context.Context, req TransactionRequest) (domain.Transaction, error)
	Update(ctx context.Context, id string, req TransactionRequest) (domain.Transaction, error)
	Delete(ctx context.Context, id string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type financeService struct {
	store *state.Store
	audit audit.Service
	clock domain.Clock
	log   *slog.Logger
}

func New(store *state.Store, auditSvc audit.Service, clock domain.Clock, log *slog.Logger) Service {
	return &financeService{store: store, audit: auditSvc, clock: clock, log: log.With("service", "finance")}
}

func (s *financeService) List(_ context.Context, req ListRequest) []domain.Transaction {
	out := Filter(s.store.Snapshot().Transactions, req)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Filter keeps transactions matching req. Dates compare as YYYY-MM-DD
// strings, both bounds inclusive.
func Filter(all []domain.Transaction, req ListRequest) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(all))
	for _, t := range all {
		if req.From != "" && t.Date < req.From {
			continue
		}
		if req.To != "" && t.Date > req.To {
			continue
		}
		if req.Type != "" && string(t.Type) != req.Type {
			continue
		}
		if req.Category != "" && t.Category != req.Category {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *financeService) Get(_ context.Context, id string) (domain.Transaction, error) {
	for _, t := range s.store.Snapshot().Transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Transaction{}, ErrTransactionNotFound
}

func (s *financeService) Create(ctx context.Context, req TransactionRequest) (domain.Transaction, error) {
	if req.Date == "" {
		req.Date = s.clock.Today()
	}
	if err := validate(req); err != nil {
		return domain.Transaction{}, err
	}

	now := s.clock.Now()
	t := domain.Transaction{
		ID:          codes.NewIDAt(now),
		Type:        req.Type,
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Date:        req.Date,
		Category:    strings.TrimSpace(req.Category),
		PatientID:   req.PatientID,
		CreatedAt:   now,
	}
	if res := s.store.SaveTransaction(ctx, t); res.Err != nil {
		return domain.Transaction{}, fmt.Errorf("create transaction: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionCreate, domain.EntityTransaction, t.ID,
		fmt.Sprintf("%s: %s (R$ %.2f)", t.Type, t.Description, t.Amount))
	return t, nil
}

func (s *financeService) Update(ctx context.Context, id string, req TransactionRequest) (domain.Transaction, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	if req.Date == "" {
		req.Date = t.Date
	}
	if err := validate(req); err != nil {
		return domain.Transaction{}, err
	}

	t.Type = req.Type
	t.Description = strings.TrimSpace(req.Description)
	t.Amount = req.Amount
	t.Date = req.Date
	t.Category = strings.TrimSpace(req.Category)
	if req.PatientID != "" {
		t.PatientID = req.PatientID
	}

	if res := s.store.SaveTransaction(ctx, t); res.Err != nil {
		return domain.Transaction{}, fmt.Errorf("update transaction: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionUpdate, domain.EntityTransaction, id, "Transação atualizada: "+t.Description)
	return t, nil
}

func (s *financeService) Delete(ctx context.Context, id string) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if res := s.store.DeleteTransaction(ctx, id); res.Err != nil {
		return fmt.Errorf("delete transaction: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionDelete, domain.EntityTransaction, id, "Transação excluída: "+t.Description)
	return nil
}

func validate(req TransactionRequest) error {
	v := &domain.ValidationError{}
	if req.Type != domain.TransactionIncome && req.Type != domain.TransactionExpense {
		v.Add("type", "must be income or expense")
	}
	if strings.TrimSpace(req.Description) == "" {
		v.Add("description", "is required")
	}
	if req.Amount <= 0 {
		v.Add("amount", "must be positive")
	}
	if _, err := time.Parse(time.DateOnly, req.Date); err != nil {
		v.Add("date", "must be YYYY-MM-DD")
	}
	return v.Err()
}
