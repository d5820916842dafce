package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/email"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/links"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/util/codes"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Dispatch is the outcome of one reminder or greeting.
type Dispatch struct {
	Appointment *domain.Appointment    `json:"appointment,omitempty"`
	Log         domain.NotificationLog `json:"log"`
	// Link opens WhatsApp or Gmail with the message prefilled.
	Link string `json:"link"`
	// Emailed is true when the message was delivered over SMTP.
	Emailed bool `json:"emailed"`
}

type LogsRequest struct {
	AppointmentID string
	PatientID     string
	Kind          string
	Limit         int
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// MarkSent is the single dispatch path for appointment reminders. It
	// always sets reminderSent and always appends a notification log, even
	// when the reminder was already sent.
	MarkSent(ctx context.Context, appointmentID string, channel domain.Channel, source domain.ReminderSource) (Dispatch, error)
	// Pending lists scheduled, unreminded appointments on date (tomorrow
	// when empty).
	Pending(ctx context.Context, date string) []domain.Appointment
	// SendPending dispatches every pending reminder for tomorrow.
	SendPending(ctx context.Context, channel domain.Channel, source domain.ReminderSource) ([]Dispatch, error)
	BirthdayGreeting(ctx context.Context, patientID string, channel domain.Channel) (Dispatch, error)
	Logs(ctx context.Context, req LogsRequest) []domain.NotificationLog
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type reminderService struct {
	store      *state.Store
	mailer     email.Sender
	mailOn     bool
	clinicName string
	clock      domain.Clock
	log        *slog.Logger

	sent metric.Int64Counter
}

// New builds the service. A nil mailer leaves email reminders to the Gmail
// compose link.
func New(store *state.Store, mailer *email.Client, clinicName string, clock domain.Clock, log *slog.Logger) Service {
	var sender email.Sender
	if mailer.Enabled() {
		sender = mailer
	}
	return newService(store, sender, clinicName, clock, log)
}

func newService(store *state.Store, sender email.Sender, clinicName string, clock domain.Clock, log *slog.Logger) *reminderService {
	sent, _ := otel.Meter("github.com/rodrigoprogmaster-prog/clinica/internal/service/reminder").Int64Counter(
		"clinica_notifications_total",
		metric.WithDescription("Reminders and greetings dispatched"),
	)
	return &reminderService{
		store:      store,
		mailer:     sender,
		mailOn:     sender != nil,
		clinicName: clinicName,
		clock:      clock,
		log:        log.With("service", "reminder"),
		sent:       sent,
	}
}

func (s *reminderService) MarkSent(ctx context.Context, appointmentID string, channel domain.Channel, source domain.ReminderSource) (Dispatch, error) {
	if channel != domain.ChannelWhatsApp && channel != domain.ChannelEmail {
		return Dispatch{}, ErrUnsupportedChannel
	}

	appt, ok := s.store.Appointment(appointmentID)
	if !ok {
		return Dispatch{}, ErrAppointmentNotFound
	}
	patient, _ := s.store.Patient(appt.PatientID)
	if source == domain.SourceWorker && !s.canEmail(channel, patient) {
		return Dispatch{}, ErrNoEmail
	}

	message := links.ReminderMessage(appt.PatientName, appt.Date, appt.Time)
	out := Dispatch{}

	switch channel {
	case domain.ChannelWhatsApp:
		out.Link = links.WhatsApp(patient.Phone, message)
	case domain.ChannelEmail:
		out.Link = links.Gmail(patient.Email, links.ReminderSubject, message)
		if s.mailOn && patient.Email != "" {
			m := email.BuildReminderEmail(email.ReminderData{
				To:          patient.Email,
				PatientName: appt.PatientName,
				DateBR:      links.BrazilianDate(appt.Date),
				Time:        appt.Time,
				ClinicName:  s.clinicName,
			})
			if err := s.mailer.Send(ctx, m); err != nil {
				return Dispatch{}, fmt.Errorf("send reminder email: %w", err)
			}
			out.Emailed = true
		}
	}

	updated, res := s.store.UpdateAppointment(ctx, appointmentID, func(a *domain.Appointment) error {
		a.ReminderSent = true
		return nil
	})
	if res.Err != nil {
		if errors.Is(res.Err, domain.ErrNotFound) {
			return Dispatch{}, ErrAppointmentNotFound
		}
		return Dispatch{}, fmt.Errorf("mark reminder sent: %w", res.Err)
	}
	out.Appointment = &updated

	entry := s.newLog(appt.ID, appt.PatientID, appt.PatientName, channel, domain.KindReminder, source, message)
	if res := s.store.AppendNotification(ctx, entry); res.Err != nil {
		return out, fmt.Errorf("log reminder: %w", res.Err)
	}
	out.Log = entry

	s.count(ctx, channel, domain.KindReminder, source)
	s.log.InfoContext(ctx, "reminder dispatched",
		slog.String("appointment_id", appt.ID),
		slog.String("channel", string(channel)),
		slog.String("source", string(source)),
		slog.Bool("emailed", out.Emailed),
	)
	return out, nil
}

// canEmail reports whether a reminder on channel reaches p over SMTP.
func (s *reminderService) canEmail(channel domain.Channel, p domain.Patient) bool {
	return channel == domain.ChannelEmail && s.mailOn && strings.TrimSpace(p.Email) != ""
}

func (s *reminderService) Pending(_ context.Context, date string) []domain.Appointment {
	if date == "" {
		date = s.clock.Tomorrow()
	}

	out := []domain.Appointment{}
	for _, a := range s.store.Snapshot().Appointments {
		if a.Date == date && a.Status == domain.StatusScheduled && !a.ReminderSent {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

func (s *reminderService) SendPending(ctx context.Context, channel domain.Channel, source domain.ReminderSource) ([]Dispatch, error) {
	var (
		out  []Dispatch
		errs []error
	)
	for _, a := range s.Pending(ctx, "") {
		if source == domain.SourceWorker {
			// Nobody confirms worker sends, so undeliverable reminders stay
			// pending for the daily check.
			if p, _ := s.store.Patient(a.PatientID); !s.canEmail(channel, p) {
				continue
			}
		}
		d, err := s.MarkSent(ctx, a.ID, channel, source)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.ID, err))
			continue
		}
		out = append(out, d)
	}
	return out, errors.Join(errs...)
}

func (s *reminderService) BirthdayGreeting(ctx context.Context, patientID string, channel domain.Channel) (Dispatch, error) {
	if channel != domain.ChannelWhatsApp && channel != domain.ChannelEmail {
		return Dispatch{}, ErrUnsupportedChannel
	}
	p, ok := s.store.Patient(patientID)
	if !ok {
		return Dispatch{}, ErrPatientNotFound
	}

	message := links.BirthdayMessage(p.Name)
	out := Dispatch{}

	switch channel {
	case domain.ChannelWhatsApp:
		out.Link = links.WhatsApp(p.Phone, message)
	case domain.ChannelEmail:
		if strings.TrimSpace(p.Email) == "" {
			return Dispatch{}, ErrNoEmail
		}
		out.Link = links.Gmail(p.Email, links.BirthdaySubject, message)
		if s.mailOn {
			m := email.BuildBirthdayEmail(email.BirthdayData{To: p.Email, PatientName: p.Name, ClinicName: s.clinicName})
			if err := s.mailer.Send(ctx, m); err != nil {
				return Dispatch{}, fmt.Errorf("send birthday email: %w", err)
			}
			out.Emailed = true
		}
	}

	entry := s.newLog("", p.ID, p.Name, channel, domain.KindBirthday, domain.SourceManual, message)
	if res := s.store.AppendNotification(ctx, entry); res.Err != nil {
		return out, fmt.Errorf("log birthday greeting: %w", res.Err)
	}
	out.Log = entry

	s.count(ctx, channel, domain.KindBirthday, domain.SourceManual)
	return out, nil
}

func (s *reminderService) Logs(_ context.Context, req LogsRequest) []domain.NotificationLog {
	all := s.store.Snapshot().NotificationLogs

	out := make([]domain.NotificationLog, 0, len(all))
	for _, l := range all {
		if req.AppointmentID != "" && l.AppointmentID != req.AppointmentID {
			continue
		}
		if req.PatientID != "" && l.PatientID != req.PatientID {
			continue
		}
		if req.Kind != "" && string(l.Kind) != req.Kind {
			continue
		}
		out = append(out, l)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out
}

func (s *reminderService) newLog(apptID, patientID, patientName string, channel domain.Channel, kind domain.NotificationKind, source domain.ReminderSource, message string) domain.NotificationLog {
	now := s.clock.Now()
	return domain.NotificationLog{
		ID:            codes.NewIDAt(now),
		AppointmentID: apptID,
		PatientID:     patientID,
		PatientName:   patientName,
		Channel:       channel,
		Kind:          kind,
		Source:        source,
		Message:       message,
		SentAt:        now,
	}
}

func (s *reminderService) count(ctx context.Context, channel domain.Channel, kind domain.NotificationKind, source domain.ReminderSource) {
	if s.sent == nil {
		return
	}
	s.sent.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", string(channel)),
		attribute.String("kind", string(kind)),
		attribute.String("source", string(source)),
	))
}
