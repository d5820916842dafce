// Package record manages a patient's clinical record: session notes and
// private internal observations.
package record

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
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/util/codes"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrNoteNotFound        = errors.New("session note not found")
	ErrObservationNotFound = errors.New("observation not found")
	ErrEmptyContent        = errors.New("content is required")
	ErrInvalidDate         = errors.New("date must be YYYY-MM-DD")
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type NoteRequest struct {
	AppointmentID string
	// Date defaults to today.
	Date    string
	Content string
}

type ObservationRequest struct {
	Date    string
	Content string
}

// Record is everything written about one patient.
type Record struct {
	Patient      domain.Patient               `json:"patient"`
	Notes        []domain.SessionNote         `json:"notes"`
	Observations []domain.InternalObservation `json:"observations"`
	Appointments []domain.Appointment         `json:"appointments"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Get(ctx context.Context, patientID string) (Record, error)

	ListNotes(ctx context.Context, patientID string) ([]domain.SessionNote, error)
	AddNote(ctx context.Context, patientID string, req NoteRequest) (domain.SessionNote, error)
	UpdateNote(ctx context.Context, patientID, noteID string, req NoteRequest) (domain.SessionNote, error)
	DeleteNote(ctx context.Context, patientID, noteID string) error

	ListObservations(ctx context.Context, patientID string) ([]domain.InternalObservation, error)
	AddObservation(ctx context.Context, patientID string, req ObservationRequest) (domain.InternalObservation, error)
	DeleteObservation(ctx context.Context, patientID, observationID string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type recordService struct {
	store *state.Store
	audit audit.Service
	clock domain.Clock
	log   *slog.Logger
}

func New(store *state.Store, auditSvc audit.Service, clock domain.Clock, log *slog.Logger) Service {
	return &recordService{store: store, audit: auditSvc, clock: clock, log: log.With("service", "record")}
}

func (s *recordService) Get(ctx context.Context, patientID string) (Record, error) {
	p, ok := s.store.Patient(patientID)
	if !ok {
		return Record{}, ErrPatientNotFound
	}
	data := s.store.Snapshot()

	rec := Record{
		Patient:      p,
		Notes:        notesOf(data.SessionNotes, patientID),
		Observations: observationsOf(data.InternalObservations, patientID),
		Appointments: []domain.Appointment{},
	}
	for _, a := range data.Appointments {
		if a.PatientID == patientID {
			rec.Appointments = append(rec.Appointments, a)
		}
	}
	sort.SliceStable(rec.Appointments, func(i, j int) bool {
		if rec.Appointments[i].Date != rec.Appointments[j].Date {
			return rec.Appointments[i].Date > rec.Appointments[j].Date
		}
		return rec.Appointments[i].Time > rec.Appointments[j].Time
	})
	return rec, nil
}

// ---------------------------------------------------------------------------
// Session notes
// ---------------------------------------------------------------------------

func (s *recordService) ListNotes(_ context.Context, patientID string) ([]domain.SessionNote, error) {
	if _, ok := s.store.Patient(patientID); !ok {
		return nil, ErrPatientNotFound
	}
	return notesOf(s.store.Snapshot().SessionNotes, patientID), nil
}

func (s *recordService) AddNote(ctx context.Context, patientID string, req NoteRequest) (domain.SessionNote, error) {
	if _, ok := s.store.Patient(patientID); !ok {
		return domain.SessionNote{}, ErrPatientNotFound
	}
	date, err := s.normalize(req.Date, req.Content)
	if err != nil {
		return domain.SessionNote{}, err
	}

	now := s.clock.Now()
	n := domain.SessionNote{
		ID:            codes.NewIDAt(now),
		PatientID:     patientID,
		AppointmentID: req.AppointmentID,
		Date:          date,
		Content:       req.Content,
		CreatedAt:     now,
	}
	if res := s.store.SaveSessionNote(ctx, n); res.Err != nil {
		return domain.SessionNote{}, fmt.Errorf("add session note: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionCreate, domain.EntitySessionNote, n.ID, "Evolução registrada em "+n.Date)
	return n, nil
}

func (s *recordService) UpdateNote(ctx context.Context, patientID, noteID string, req NoteRequest) (domain.SessionNote, error) {
	n, ok := findNote(s.store.Snapshot().SessionNotes, patientID, noteID)
	if !ok {
		return domain.SessionNote{}, ErrNoteNotFound
	}
	date, err := s.normalize(req.Date, req.Content)
	if err != nil {
		return domain.SessionNote{}, err
	}
	if req.Date != "" {
		n.Date = date
	}
	if req.AppointmentID != "" {
		n.AppointmentID = req.AppointmentID
	}
	n.Content = req.Content

	if res := s.store.SaveSessionNote(ctx, n); res.Err != nil {
		return domain.SessionNote{}, fmt.Errorf("update session note: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionUpdate, domain.EntitySessionNote, n.ID, "Evolução atualizada")
	return n, nil
}

func (s *recordService) DeleteNote(ctx context.Context, patientID, noteID string) error {
	if _, ok := findNote(s.store.Snapshot().SessionNotes, patientID, noteID); !ok {
		return ErrNoteNotFound
	}
	if res := s.store.DeleteSessionNote(ctx, noteID); res.Err != nil {
		return fmt.Errorf("delete session note: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionDelete, domain.EntitySessionNote, noteID, "Evolução excluída")
	return nil
}

// ---------------------------------------------------------------------------
// Internal observations
// ---------------------------------------------------------------------------

func (s *recordService) ListObservations(_ context.Context, patientID string) ([]domain.InternalObservation, error) {
	if _, ok := s.store.Patient(patientID); !ok {
		return nil, ErrPatientNotFound
	}
	return observationsOf(s.store.Snapshot().InternalObservations, patientID), nil
}

func (s *recordService) AddObservation(ctx context.Context, patientID string, req ObservationRequest) (domain.InternalObservation, error) {
	if _, ok := s.store.Patient(patientID); !ok {
		return domain.InternalObservation{}, ErrPatientNotFound
	}
	date, err := s.normalize(req.Date, req.Content)
	if err != nil {
		return domain.InternalObservation{}, err
	}

	now := s.clock.Now()
	o := domain.InternalObservation{
		ID:        codes.NewIDAt(now),
		PatientID: patientID,
		Date:      date,
		Content:   req.Content,
		CreatedAt: now,
	}
	if res := s.store.SaveObservation(ctx, o); res.Err != nil {
		return domain.InternalObservation{}, fmt.Errorf("add observation: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionCreate, domain.EntityObservation, o.ID, "Observação interna registrada")
	return o, nil
}

func (s *recordService) DeleteObservation(ctx context.Context, patientID, observationID string) error {
	found := false
	for _, o := range s.store.Snapshot().InternalObservations {
		if o.ID == observationID && o.PatientID == patientID {
			found = true
			break
		}
	}
	if !found {
		return ErrObservationNotFound
	}
	if res := s.store.DeleteObservation(ctx, observationID); res.Err != nil {
		return fmt.Errorf("delete observation: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionDelete, domain.EntityObservation, observationID, "Observação interna excluída")
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *recordService) normalize(date, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}
	if date == "" {
		return s.clock.Today(), nil
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return "", ErrInvalidDate
	}
	return date, nil
}

func findNote(all []domain.SessionNote, patientID, id string) (domain.SessionNote, bool) {
	for _, n := range all {
		if n.ID == id && n.PatientID == patientID {
			return n, true
		}
	}
	return domain.SessionNote{}, false
}

// notesOf returns a patient's notes, newest first.
func notesOf(all []domain.SessionNote, patientID string) []domain.SessionNote {
	out := []domain.SessionNote{}
	for _, n := range all {
		if n.PatientID == patientID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func observationsOf(all []domain.InternalObservation, patientID string) []domain.InternalObservation {
	out := []domain.InternalObservation{}
	for _, o := range all {
		if o.PatientID == patientID {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}
