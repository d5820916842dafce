// Package dashboard computes read-only aggregates over the in-memory
// collections. Date bounds are inclusive YYYY-MM-DD string comparisons.
package dashboard

import (
	"context"
	"sort"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/finance"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type Range struct {
	From string
	To   string
}

type AppointmentCounts struct {
	Total     int `json:"total"`
	Scheduled int `json:"scheduled"`
	Completed int `json:"completed"`
	Canceled  int `json:"canceled"`
}

type Summary struct {
	From             string               `json:"from,omitempty"`
	To               string               `json:"to,omitempty"`
	Appointments     AppointmentCounts    `json:"appointments"`
	Income           float64              `json:"income"`
	Expenses         float64              `json:"expenses"`
	Balance          float64              `json:"balance"`
	CompletedRevenue float64              `json:"completedRevenue"`
	ActivePatients   int                  `json:"activePatients"`
	TotalPatients    int                  `json:"totalPatients"`
	Today            []domain.Appointment `json:"today"`
	Tomorrow         []domain.Appointment `json:"tomorrow"`
	BirthdaysToday   []domain.Patient     `json:"birthdaysToday"`
}

type CategoryTotal struct {
	Category string                 `json:"category"`
	Type     domain.TransactionType `json:"type"`
	Total    float64                `json:"total"`
}

type MonthTotal struct {
	Month    string  `json:"month"` // YYYY-MM
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Balance  float64 `json:"balance"`
}

type Financial struct {
	From         string               `json:"from,omitempty"`
	To           string               `json:"to,omitempty"`
	Income       float64              `json:"income"`
	Expenses     float64              `json:"expenses"`
	Balance      float64              `json:"balance"`
	ByCategory   []CategoryTotal      `json:"byCategory"`
	ByMonth      []MonthTotal         `json:"byMonth"`
	Transactions []domain.Transaction `json:"transactions"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Summary(ctx context.Context, r Range) Summary
	Financial(ctx context.Context, r Range) Financial
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type dashboardService struct {
	store *state.Store
	clock domain.Clock
}

func New(store *state.Store, clock domain.Clock) Service {
	return &dashboardService{store: store, clock: clock}
}

func (s *dashboardService) Summary(_ context.Context, r Range) Summary {
	data := s.store.Snapshot()
	today, tomorrow := s.clock.Today(), s.clock.Tomorrow()

	out := Summary{
		From:           r.From,
		To:             r.To,
		Today:          []domain.Appointment{},
		Tomorrow:       []domain.Appointment{},
		BirthdaysToday: []domain.Patient{},
	}

	for _, a := range data.Appointments {
		switch {
		case a.Status == domain.StatusScheduled && a.Date == today:
			out.Today = append(out.Today, a)
		case a.Status == domain.StatusScheduled && a.Date == tomorrow:
			out.Tomorrow = append(out.Tomorrow, a)
		}
		if !r.contains(a.Date) {
			continue
		}
		out.Appointments.Total++
		switch a.Status {
		case domain.StatusScheduled:
			out.Appointments.Scheduled++
		case domain.StatusCompleted:
			out.Appointments.Completed++
			out.CompletedRevenue += a.Price
		case domain.StatusCanceled:
			out.Appointments.Canceled++
		}
	}
	byTime(out.Today)
	byTime(out.Tomorrow)

	out.Income, out.Expenses = totals(finance.Filter(data.Transactions, finance.ListRequest{From: r.From, To: r.To}))
	out.Balance = out.Income - out.Expenses

	out.TotalPatients = len(data.Patients)
	for _, p := range data.Patients {
		if !p.IsActive {
			continue
		}
		out.ActivePatients++
		if p.BirthdayOn(today) {
			out.BirthdaysToday = append(out.BirthdaysToday, p)
		}
	}
	return out
}

func (s *dashboardService) Financial(_ context.Context, r Range) Financial {
	txs := finance.Filter(s.store.Snapshot().Transactions, finance.ListRequest{From: r.From, To: r.To})
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date > txs[j].Date })

	out := Financial{From: r.From, To: r.To, Transactions: txs}
	out.Income, out.Expenses = totals(txs)
	out.Balance = out.Income - out.Expenses

	type catKey struct {
		category string
		typ      domain.TransactionType
	}
	cats := map[catKey]float64{}
	months := map[string]*MonthTotal{}

	for _, t := range txs {
		cat := t.Category
		if cat == "" {
			cat = "Outros"
		}
		cats[catKey{cat, t.Type}] += t.Amount

		month := t.Date
		if len(month) >= 7 {
			month = month[:7]
		}
		m, ok := months[month]
		if !ok {
			m = &MonthTotal{Month: month}
			months[month] = m
		}
		if t.Type == domain.TransactionIncome {
			m.Income += t.Amount
		} else {
			m.Expenses += t.Amount
		}
		m.Balance = m.Income - m.Expenses
	}

	out.ByCategory = make([]CategoryTotal, 0, len(cats))
	for k, v := range cats {
		out.ByCategory = append(out.ByCategory, CategoryTotal{Category: k.category, Type: k.typ, Total: v})
	}
	sort.Slice(out.ByCategory, func(i, j int) bool {
		if out.ByCategory[i].Total != out.ByCategory[j].Total {
			return out.ByCategory[i].Total > out.ByCategory[j].Total
		}
		return out.ByCategory[i].Category < out.ByCategory[j].Category
	})

	out.ByMonth = make([]MonthTotal, 0, len(months))
	for _, m := range months {
		out.ByMonth = append(out.ByMonth, *m)
	}
	sort.Slice(out.ByMonth, func(i, j int) bool { return out.ByMonth[i].Month < out.ByMonth[j].Month })
	return out
}

func (r Range) contains(date string) bool {
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}

func totals(txs []domain.Transaction) (income, expenses float64) {
	for _, t := range txs {
		switch t.Type {
		case domain.TransactionIncome:
			income += t.Amount
		case domain.TransactionExpense:
			expenses += t.Amount
		}
	}
	return income, expenses
}

func byTime(a []domain.Appointment) {
	sort.SliceStable(a, func(i, j int) bool { return a[i].Time < a[j].Time })
}
