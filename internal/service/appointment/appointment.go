package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/scheduling"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/redis"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/util/codes"
)

// UnknownPatientName is used when an appointment has no patient.
const UnknownPatientName = "Paciente Não Identificado"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ListRequest struct {
	From      string // inclusive YYYY-MM-DD
	To        string // inclusive YYYY-MM-DD
	Status    string
	PatientID string
}

type CreateRequest struct {
	PatientID          string
	Date               string
	Time               string
	ConsultationTypeID string
	// Price overrides the consultation type's price when set.
	Price *float64
	Notes string
}

type UpdateRequest struct {
	ConsultationTypeID *string
	Price              *float64
	Notes              *string
}

// Reschedule is a staged date/time change awaiting confirmation.
type Reschedule struct {
	AppointmentID string    `json:"appointmentId"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

type Policy struct {
	// RequireFields rejects creates missing patient, date, time or
	// consultation type instead of filling defaults.
	RequireFields bool
	RescheduleTTL time.Duration
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	List(ctx context.Context, req ListRequest) []domain.Appointment
	Get(ctx context.Context, id string) (domain.Appointment, error)
	Create(ctx context.Context, req CreateRequest) (domain.Appointment, error)
	Update(ctx context.Context, id string, req UpdateRequest) (domain.Appointment, error)

	StageReschedule(ctx context.Context, id, date, hhmm string) (Reschedule, error)
	PendingReschedule(ctx context.Context, id string) (Reschedule, error)
	ConfirmReschedule(ctx context.Context, id string) (domain.Appointment, error)
	CancelReschedule(ctx context.Context, id string) error

	// Complete marks the appointment completed and books its price as income.
	Complete(ctx context.Context, id string) (domain.Appointment, domain.Transaction, error)
	Cancel(ctx context.Context, id string) (domain.Appointment, error)
	Delete(ctx context.Context, id string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type appointmentService struct {
	store  *state.Store
	days   scheduling.Service
	audit  audit.Service
	staged redis.KV
	clock  domain.Clock
	policy Policy
	log    *slog.Logger
}

func New(
	store *state.Store,
	days scheduling.Service,
	auditSvc audit.Service,
	staged redis.KV,
	clock domain.Clock,
	policy Policy,
	log *slog.Logger,
) Service {
	if policy.RescheduleTTL <= 0 {
		policy.RescheduleTTL = 15 * time.Minute
	}
	return &appointmentService{
		store:  store,
		days:   days,
		audit:  auditSvc,
		staged: staged,
		clock:  clock,
		policy: policy,
		log:    log.With("service", "appointment"),
	}
}

func (s *appointmentService) List(_ context.Context, req ListRequest) []domain.Appointment {
	all := s.store.Snapshot().Appointments

	out := make([]domain.Appointment, 0, len(all))
	for _, a := range all {
		if req.From != "" && a.Date < req.From {
			continue
		}
		if req.To != "" && a.Date > req.To {
			continue
		}
		if req.Status != "" && string(a.Status) != req.Status {
			continue
		}
		if req.PatientID != "" && a.PatientID != req.PatientID {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out
}

func (s *appointmentService) Get(_ context.Context, id string) (domain.Appointment, error) {
	a, ok := s.store.Appointment(id)
	if !ok {
		return domain.Appointment{}, ErrNotFound
	}
	return a, nil
}

// ---------------------------------------------------------------------------
// Create / Update
// ---------------------------------------------------------------------------

func (s *appointmentService) Create(ctx context.Context, req CreateRequest) (domain.Appointment, error) {
	req.PatientID = strings.TrimSpace(req.PatientID)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.ConsultationTypeID = strings.TrimSpace(req.ConsultationTypeID)

	if s.policy.RequireFields {
		if err := requireFields(req); err != nil {
			return domain.Appointment{}, err
		}
	}

	now := s.clock.Now()
	if req.Date == "" {
		req.Date = s.clock.Today()
	}
	if req.Time == "" {
		req.Time = "00:00"
	}
	var ok bool
	if req.Date, req.Time, ok = normalizeDateTime(req.Date, req.Time); !ok {
		return domain.Appointment{}, ErrInvalidDateTime
	}
	if err := s.checkSelectable(ctx, req.Date); err != nil {
		return domain.Appointment{}, err
	}

	appt := domain.Appointment{
		ID:                 codes.NewIDAt(now),
		PatientID:          req.PatientID,
		PatientName:        UnknownPatientName,
		Date:               req.Date,
		Time:               req.Time,
		Status:             domain.StatusScheduled,
		ConsultationTypeID: req.ConsultationTypeID,
		Notes:              req.Notes,
		CreatedAt:          now,
	}

	if p, ok := s.store.Patient(req.PatientID); ok && req.PatientID != "" {
		appt.PatientName = p.Name
	} else if s.policy.RequireFields {
		return domain.Appointment{}, fmt.Errorf("patient %s: %w", req.PatientID, domain.ErrNotFound)
	}

	ct, ctFound := s.store.ConsultationType(req.ConsultationTypeID)
	switch {
	case req.Price != nil:
		appt.Price = *req.Price
	case ctFound && req.ConsultationTypeID != "":
		appt.Price = ct.Price
	case s.policy.RequireFields:
		return domain.Appointment{}, ErrUnknownConsultation
	}

	if res := s.store.SaveAppointment(ctx, appt); res.Err != nil {
		return domain.Appointment{}, fmt.Errorf("create appointment: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionCreate, domain.EntityAppointment, appt.ID,
		fmt.Sprintf("Agendamento para %s em %s às %s", appt.PatientName, appt.Date, appt.Time))
	return appt, nil
}

func requireFields(req CreateRequest) error {
	v := &domain.ValidationError{}
	if req.PatientID == "" {
		v.Add("patientId", "is required")
	}
	if req.Date == "" {
		v.Add("date", "is required")
	}
	if req.Time == "" {
		v.Add("time", "is required")
	}
	if req.ConsultationTypeID == "" {
		v.Add("consultationTypeId", "is required")
	}
	return v.Err()
}

func (s *appointmentService) Update(ctx context.Context, id string, req UpdateRequest) (domain.Appointment, error) {
	appt, res := s.store.UpdateAppointment(ctx, id, func(a *domain.Appointment) error {
		if err := checkScheduled(a.Status); err != nil {
			return err
		}
		if req.ConsultationTypeID != nil {
			a.ConsultationTypeID = *req.ConsultationTypeID
		}
		if req.Price != nil {
			a.Price = *req.Price
		}
		if req.Notes != nil {
			a.Notes = *req.Notes
		}
		return nil
	})
	if res.Err != nil {
		return domain.Appointment{}, s.wrap("update appointment", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionUpdate, domain.EntityAppointment, id, "Agendamento atualizado")
	return appt, nil
}

// ---------------------------------------------------------------------------
// Reschedule
// ---------------------------------------------------------------------------

func (s *appointmentService) StageReschedule(ctx context.Context, id, date, hhmm string) (Reschedule, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return Reschedule{}, err
	}
	if err := checkScheduled(appt.Status); err != nil {
		return Reschedule{}, err
	}
	date, hhmm, ok := normalizeDateTime(strings.TrimSpace(date), strings.TrimSpace(hhmm))
	if !ok {
		return Reschedule{}, ErrInvalidDateTime
	}
	if err := s.checkSelectable(ctx, date); err != nil {
		return Reschedule{}, err
	}

	r := Reschedule{
		AppointmentID: id,
		Date:          date,
		Time:          hhmm,
		ExpiresAt:     s.clock.Now().Add(s.policy.RescheduleTTL),
	}
	if err := s.staged.Put(ctx, id, r, s.policy.RescheduleTTL); err != nil {
		return Reschedule{}, fmt.Errorf("stage reschedule: %w", err)
	}
	return r, nil
}

func (s *appointmentService) PendingReschedule(ctx context.Context, id string) (Reschedule, error) {
	var r Reschedule
	ok, err := s.staged.Get(ctx, id, &r)
	if err != nil {
		return Reschedule{}, fmt.Errorf("load reschedule: %w", err)
	}
	if !ok {
		return Reschedule{}, ErrNoStagedReschedule
	}
	return r, nil
}

func (s *appointmentService) ConfirmReschedule(ctx context.Context, id string) (domain.Appointment, error) {
	r, err := s.PendingReschedule(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	// The day may have been blocked since the change was staged.
	if err := s.checkSelectable(ctx, r.Date); err != nil {
		return domain.Appointment{}, err
	}

	var from string
	appt, res := s.store.UpdateAppointment(ctx, id, func(a *domain.Appointment) error {
		if err := checkScheduled(a.Status); err != nil {
			return err
		}
		from = a.Date + " " + a.Time
		a.Date = r.Date
		a.Time = r.Time
		a.ReminderSent = false
		return nil
	})
	if res.Err != nil {
		return domain.Appointment{}, s.wrap("confirm reschedule", res.Err)
	}

	if err := s.staged.Delete(ctx, id); err != nil {
		s.log.WarnContext(ctx, "failed to clear staged reschedule", slog.String("id", id), slog.Any("error", err))
	}

	_ = s.audit.Record(ctx, audit.ActionReschedule, domain.EntityAppointment, id,
		fmt.Sprintf("Reagendado de %s para %s %s", from, appt.Date, appt.Time))
	return appt, nil
}

func (s *appointmentService) CancelReschedule(ctx context.Context, id string) error {
	if err := s.staged.Delete(ctx, id); err != nil {
		return fmt.Errorf("cancel reschedule: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Status transitions
// ---------------------------------------------------------------------------

func (s *appointmentService) Complete(ctx context.Context, id string) (domain.Appointment, domain.Transaction, error) {
	appt, tx, res := s.store.CompleteAppointment(ctx, id, func(a domain.Appointment) (domain.Transaction, error) {
		if err := checkScheduled(a.Status); err != nil {
			return domain.Transaction{}, err
		}
		now := s.clock.Now()
		return domain.Transaction{
			ID:            codes.NewIDAt(now),
			Type:          domain.TransactionIncome,
			Description:   "Consulta - " + a.PatientName,
			Amount:        a.Price,
			Date:          a.Date,
			Category:      "Consulta",
			AppointmentID: a.ID,
			PatientID:     a.PatientID,
			CreatedAt:     now,
		}, nil
	})
	if res.Err != nil {
		if tx.ID != "" {
			s.log.ErrorContext(ctx, "transaction booked but status not updated",
				slog.String("appointment_id", id),
				slog.String("transaction_id", tx.ID),
				slog.Any("error", res.Err),
			)
		}
		return domain.Appointment{}, tx, s.wrap("complete appointment", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionComplete, domain.EntityAppointment, id,
		fmt.Sprintf("Consulta concluída: %s (R$ %.2f)", appt.PatientName, appt.Price))
	return appt, tx, nil
}

func (s *appointmentService) Cancel(ctx context.Context, id string) (domain.Appointment, error) {
	appt, res := s.store.UpdateAppointment(ctx, id, func(a *domain.Appointment) error {
		if err := checkScheduled(a.Status); err != nil {
			return err
		}
		a.Status = domain.StatusCanceled
		return nil
	})
	if res.Err != nil {
		return domain.Appointment{}, s.wrap("cancel appointment", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionCancel, domain.EntityAppointment, id, "Agendamento cancelado: "+appt.PatientName)
	return appt, nil
}

func (s *appointmentService) Delete(ctx context.Context, id string) error {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if res := s.store.DeleteAppointment(ctx, id); res.Err != nil {
		return fmt.Errorf("delete appointment: %w", res.Err)
	}

	_ = s.staged.Delete(ctx, id)
	_ = s.audit.Record(ctx, audit.ActionDelete, domain.EntityAppointment, id,
		fmt.Sprintf("Agendamento excluído: %s em %s", appt.PatientName, appt.Date))
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func checkScheduled(status domain.AppointmentStatus) error {
	switch status {
	case domain.StatusCompleted:
		return ErrAlreadyCompleted
	case domain.StatusCanceled:
		return ErrAlreadyCanceled
	}
	return nil
}

func (s *appointmentService) wrap(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *appointmentService) checkSelectable(ctx context.Context, date string) error {
	day, err := s.days.Day(ctx, date)
	if err != nil {
		return err
	}
	if !day.Selectable {
		return ErrDayNotSelectable
	}
	return nil
}

// normalizeDateTime parses date and hhmm and returns them zero-padded, so
// "8:00" is stored as "08:00" and string ordering matches time ordering.
func normalizeDateTime(date, hhmm string) (string, string, bool) {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return "", "", false
	}
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", "", false
	}
	return d.Format(time.DateOnly), t.Format("15:04"), true
}
