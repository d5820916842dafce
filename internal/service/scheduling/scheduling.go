package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/rodrigoprogmaster-prog/clinica/config"
	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/holidays"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/util/codes"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// DayStatus is the availability of one calendar date.
type DayStatus struct {
	Date         string `json:"date"`
	IsPast       bool   `json:"isPast"`
	IsBlocked    bool   `json:"isBlocked"`
	BlockReason  string `json:"blockReason,omitempty"`
	IsFull       bool   `json:"isFull"`
	IsHoliday    bool   `json:"isHoliday"`
	Holiday      string `json:"holiday,omitempty"`
	Appointments int    `json:"appointments"`
	// Selectable days accept new bookings. Full days stay selectable.
	Selectable bool `json:"selectable"`
}

type MonthView struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	// LeadingBlanks is the weekday of the 1st (Sunday = 0), i.e. the
	// number of empty cells before it in a Sunday-first grid.
	LeadingBlanks int         `json:"leadingBlanks"`
	Days          []DayStatus `json:"days"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Day(ctx context.Context, date string) (DayStatus, error)
	Month(ctx context.Context, year, month int) (MonthView, error)
	// Slots lists the bookable HH:MM start times of a workday.
	Slots() []string
	// FullThreshold is the appointment count at which a day counts as full.
	FullThreshold() float64

	Block(ctx context.Context, date, reason string) (domain.BlockedDay, error)
	// Unblock removes every block on date and reports how many were removed.
	Unblock(ctx context.Context, date string) (int, error)
	ListBlocked(ctx context.Context) []domain.BlockedDay

	Holidays(year int) []holidays.Holiday
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type schedulingService struct {
	store *state.Store
	audit audit.Service
	clock domain.Clock
	slots []string
	full  float64
	log   *slog.Logger
}

func New(store *state.Store, auditSvc audit.Service, clock domain.Clock, workday config.WorkdayConfig, log *slog.Logger) Service {
	slots := buildSlots(workday.Start, workday.End, workday.SlotMinutes)
	factor := workday.FullFactor
	if factor <= 0 {
		factor = 1.5
	}
	return &schedulingService{
		store: store,
		audit: auditSvc,
		clock: clock,
		slots: slots,
		full:  factor * float64(len(slots)),
		log:   log.With("service", "scheduling"),
	}
}

// buildSlots returns start times from start (inclusive) to end (exclusive).
func buildSlots(start, end string, step int) []string {
	from, err1 := time.Parse(domainTime, start)
	to, err2 := time.Parse(domainTime, end)
	if err1 != nil || err2 != nil || step <= 0 {
		return []string{}
	}

	out := []string{}
	for t := from; t.Before(to); t = t.Add(time.Duration(step) * time.Minute) {
		out = append(out, t.Format(domainTime))
	}
	return out
}

const domainTime = "15:04"

func (s *schedulingService) Slots() []string {
	out := make([]string, len(s.slots))
	copy(out, s.slots)
	return out
}

func (s *schedulingService) FullThreshold() float64 { return s.full }

func (s *schedulingService) Day(_ context.Context, date string) (DayStatus, error) {
	if !validDate(date) {
		return DayStatus{}, ErrInvalidDate
	}
	snap := s.store.Snapshot()
	return s.status(date, s.clock.Today(), blockIndex(snap.BlockedDays), countByDate(snap.Appointments)), nil
}

func (s *schedulingService) Month(_ context.Context, year, month int) (MonthView, error) {
	if month < 1 || month > 12 {
		return MonthView{}, ErrInvalidMonth
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	snap := s.store.Snapshot()
	blocked := blockIndex(snap.BlockedDays)
	counts := countByDate(snap.Appointments)
	today := s.clock.Today()

	view := MonthView{Year: year, Month: month, LeadingBlanks: int(first.Weekday())}
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		view.Days = append(view.Days, s.status(d.Format(time.DateOnly), today, blocked, counts))
	}
	return view, nil
}

func (s *schedulingService) status(date, today string, blocked map[string]string, counts map[string]int) DayStatus {
	st := DayStatus{
		Date:         date,
		IsPast:       date < today,
		Appointments: counts[date],
	}
	st.BlockReason, st.IsBlocked = blocked[date]
	st.IsFull = float64(st.Appointments) >= s.full
	if h, ok := holidays.Lookup(date); ok {
		st.IsHoliday = true
		st.Holiday = h.Name
	}
	st.Selectable = !st.IsHoliday && !st.IsPast && !st.IsBlocked
	return st
}

func (s *schedulingService) Block(ctx context.Context, date, reason string) (domain.BlockedDay, error) {
	if !validDate(date) {
		return domain.BlockedDay{}, ErrInvalidDate
	}

	b := domain.BlockedDay{ID: codes.NewIDAt(s.clock.Now()), Date: date, Reason: reason}
	if res := s.store.SaveBlockedDay(ctx, b); res.Err != nil {
		return domain.BlockedDay{}, fmt.Errorf("block day: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionCreate, domain.EntityBlockedDay, b.ID, "Dia bloqueado: "+date)
	return b, nil
}

func (s *schedulingService) Unblock(ctx context.Context, date string) (int, error) {
	if !validDate(date) {
		return 0, ErrInvalidDate
	}

	removed := 0
	for _, b := range s.store.Snapshot().BlockedDays {
		if b.Date != date {
			continue
		}
		if res := s.store.DeleteBlockedDay(ctx, b.ID); res.Err != nil {
			return removed, fmt.Errorf("unblock day: %w", res.Err)
		}
		removed++
	}

	if removed > 0 {
		_ = s.audit.Record(ctx, audit.ActionDelete, domain.EntityBlockedDay, date, "Dia desbloqueado: "+date)
	}
	return removed, nil
}

func (s *schedulingService) ListBlocked(context.Context) []domain.BlockedDay {
	out := s.store.Snapshot().BlockedDays
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (s *schedulingService) Holidays(year int) []holidays.Holiday {
	return holidays.ForYear(year)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func validDate(date string) bool {
	_, err := time.Parse(time.DateOnly, date)
	return err == nil
}

func blockIndex(days []domain.BlockedDay) map[string]string {
	out := make(map[string]string, len(days))
	for _, b := range days {
		if _, ok := out[b.Date]; !ok {
			out[b.Date] = b.Reason
		}
	}
	return out
}

// countByDate counts non-canceled appointments per date.
func countByDate(appts []domain.Appointment) map[string]int {
	out := make(map[string]int)
	for _, a := range appts {
		if a.Status != domain.StatusCanceled {
			out[a.Date]++
		}
	}
	return out
}
