package patient

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

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ListRequest struct {
	// Active filters by isActive when set.
	Active *bool
	// Query matches name, CPF, phone or email, case-insensitively.
	Query string
}

type CreateRequest struct {
	Name      string
	CPF       string
	Phone     string
	Email     string
	BirthDate string
	Address   string
	Anamnesis map[string]any
}

type UpdateRequest struct {
	Name      *string
	CPF       *string
	Phone     *string
	Email     *string
	BirthDate *string
	Address   *string
	// Anamnesis replaces the whole object when non-nil.
	Anamnesis map[string]any
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, req CreateRequest) (domain.Patient, error)
	Get(ctx context.Context, id string) (domain.Patient, error)
	List(ctx context.Context, req ListRequest) []domain.Patient
	Update(ctx context.Context, id string, req UpdateRequest) (domain.Patient, error)

	Deactivate(ctx context.Context, id string) (domain.Patient, error)
	Reactivate(ctx context.Context, id string) (domain.Patient, error)
	Delete(ctx context.Context, id string) error

	// BirthdaysToday lists active patients born on today's month and day.
	BirthdaysToday(ctx context.Context) []domain.Patient
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type patientService struct {
	store         *state.Store
	audit         audit.Service
	clock         domain.Clock
	requireFields bool
	log           *slog.Logger
}

// New builds the service. requireFields additionally demands phone and
// birth date on create.
func New(store *state.Store, auditSvc audit.Service, clock domain.Clock, requireFields bool, log *slog.Logger) Service {
	return &patientService{
		store:         store,
		audit:         auditSvc,
		clock:         clock,
		requireFields: requireFields,
		log:           log.With("service", "patient"),
	}
}

// ---------------------------------------------------------------------------
// Patient CRUD
// ---------------------------------------------------------------------------

func (s *patientService) Create(ctx context.Context, req CreateRequest) (domain.Patient, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.BirthDate = strings.TrimSpace(req.BirthDate)

	v := &domain.ValidationError{}
	if req.Name == "" {
		v.Add("name", "is required")
	}
	if req.BirthDate != "" && !validDate(req.BirthDate) {
		v.Add("birthDate", "must be YYYY-MM-DD")
	}
	if s.requireFields {
		if strings.TrimSpace(req.Phone) == "" {
			v.Add("phone", "is required")
		}
		if req.BirthDate == "" {
			v.Add("birthDate", "is required")
		}
	}
	if err := v.Err(); err != nil {
		return domain.Patient{}, err
	}

	now := s.clock.Now()
	p := domain.Patient{
		ID:        codes.NewIDAt(now),
		Name:      req.Name,
		CPF:       strings.TrimSpace(req.CPF),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		BirthDate: req.BirthDate,
		Address:   strings.TrimSpace(req.Address),
		Anamnesis: req.Anamnesis,
		IsActive:  true,
		CreatedAt: now,
	}
	if p.Anamnesis == nil {
		p.Anamnesis = map[string]any{}
	}

	if res := s.store.SavePatient(ctx, p); res.Err != nil {
		return domain.Patient{}, fmt.Errorf("create patient: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionCreate, domain.EntityPatient, p.ID, "Paciente cadastrado: "+p.Name)
	return p, nil
}

func (s *patientService) Get(_ context.Context, id string) (domain.Patient, error) {
	p, ok := s.store.Patient(id)
	if !ok {
		return domain.Patient{}, ErrPatientNotFound
	}
	return p, nil
}

func (s *patientService) List(_ context.Context, req ListRequest) []domain.Patient {
	all := s.store.Snapshot().Patients
	q := strings.ToLower(strings.TrimSpace(req.Query))

	out := make([]domain.Patient, 0, len(all))
	for _, p := range all {
		if req.Active != nil && p.IsActive != *req.Active {
			continue
		}
		if q != "" && !matches(p, q) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func matches(p domain.Patient, q string) bool {
	for _, f := range []string{p.Name, p.CPF, p.Phone, p.Email} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func (s *patientService) Update(ctx context.Context, id string, req UpdateRequest) (domain.Patient, error) {
	p, res := s.store.UpdatePatient(ctx, id, func(p *domain.Patient) error {
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return ErrNameRequired
			}
			p.Name = name
		}
		if req.BirthDate != nil {
			if *req.BirthDate != "" && !validDate(*req.BirthDate) {
				return ErrInvalidBirth
			}
			p.BirthDate = *req.BirthDate
		}
		if req.CPF != nil {
			p.CPF = strings.TrimSpace(*req.CPF)
		}
		if req.Phone != nil {
			p.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Email != nil {
			p.Email = strings.TrimSpace(*req.Email)
		}
		if req.Address != nil {
			p.Address = strings.TrimSpace(*req.Address)
		}
		if req.Anamnesis != nil {
			p.Anamnesis = req.Anamnesis
		}
		return nil
	})
	if res.Err != nil {
		return domain.Patient{}, wrap("update patient", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionUpdate, domain.EntityPatient, id, "Paciente atualizado: "+p.Name)
	return p, nil
}

func (s *patientService) Deactivate(ctx context.Context, id string) (domain.Patient, error) {
	return s.setActive(ctx, id, false, "Paciente desativado: ")
}

func (s *patientService) Reactivate(ctx context.Context, id string) (domain.Patient, error) {
	return s.setActive(ctx, id, true, "Paciente reativado: ")
}

func (s *patientService) setActive(ctx context.Context, id string, active bool, details string) (domain.Patient, error) {
	p, res := s.store.UpdatePatient(ctx, id, func(p *domain.Patient) error {
		p.IsActive = active
		return nil
	})
	if res.Err != nil {
		return domain.Patient{}, wrap("set patient active", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionUpdate, domain.EntityPatient, id, details+p.Name)
	return p, nil
}

func (s *patientService) Delete(ctx context.Context, id string) error {
	p, ok := s.store.Patient(id)
	if !ok {
		return ErrPatientNotFound
	}
	if res := s.store.DeletePatient(ctx, id); res.Err != nil {
		return wrap("delete patient", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionDelete, domain.EntityPatient, id, "Paciente excluído: "+p.Name)
	return nil
}

func (s *patientService) BirthdaysToday(_ context.Context) []domain.Patient {
	today := s.clock.Today()
	var out []domain.Patient
	for _, p := range s.store.Snapshot().Patients {
		if p.IsActive && p.BirthdayOn(today) {
			out = append(out, p)
		}
	}
	return out
}

func wrap(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return ErrPatientNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func validDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}
