package consultation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/util/codes"
)

var ErrNotFound = errors.New("consultation type not found")

type Request struct {
	Name            string
	Price           float64
	DurationMinutes int
}

type Service interface {
	List(ctx context.Context) []domain.ConsultationType
	Get(ctx context.Context, id string) (domain.ConsultationType, error)
	Create(ctx context.Context, req Request) (domain.ConsultationType, error)
	// Update never touches the price already snapshotted on appointments.
	Update(ctx context.Context, id string, req Request) (domain.ConsultationType, error)
	Delete(ctx context.Context, id string) error
}

type consultationService struct {
	store *state.Store
	audit audit.Service
	clock domain.Clock
	log   *slog.Logger
}

func New(store *state.Store, auditSvc audit.Service, clock domain.Clock, log *slog.Logger) Service {
	return &consultationService{store: store, audit: auditSvc, clock: clock, log: log.With("service", "consultation")}
}

func (s *consultationService) List(_ context.Context) []domain.ConsultationType {
	out := s.store.Snapshot().ConsultationTypes
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *consultationService) Get(_ context.Context, id string) (domain.ConsultationType, error) {
	c, ok := s.store.ConsultationType(id)
	if !ok {
		return domain.ConsultationType{}, ErrNotFound
	}
	return c, nil
}

func (s *consultationService) Create(ctx context.Context, req Request) (domain.ConsultationType, error) {
	if err := validate(req); err != nil {
		return domain.ConsultationType{}, err
	}

	c := domain.ConsultationType{
		ID:              codes.NewIDAt(s.clock.Now()),
		Name:            strings.TrimSpace(req.Name),
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
	}
	if res := s.store.SaveConsultationType(ctx, c); res.Err != nil {
		return domain.ConsultationType{}, fmt.Errorf("create consultation type: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionCreate, domain.EntityConsultationType, c.ID,
		fmt.Sprintf("Tipo de consulta criado: %s (R$ %.2f)", c.Name, c.Price))
	return c, nil
}

func (s *consultationService) Update(ctx context.Context, id string, req Request) (domain.ConsultationType, error) {
	if _, ok := s.store.ConsultationType(id); !ok {
		return domain.ConsultationType{}, ErrNotFound
	}
	if err := validate(req); err != nil {
		return domain.ConsultationType{}, err
	}

	c := domain.ConsultationType{
		ID:              id,
		Name:            strings.TrimSpace(req.Name),
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
	}
	if res := s.store.SaveConsultationType(ctx, c); res.Err != nil {
		return domain.ConsultationType{}, fmt.Errorf("update consultation type: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionUpdate, domain.EntityConsultationType, id, "Tipo de consulta atualizado: "+c.Name)
	return c, nil
}

func (s *consultationService) Delete(ctx context.Context, id string) error {
	c, ok := s.store.ConsultationType(id)
	if !ok {
		return ErrNotFound
	}
	if res := s.store.DeleteConsultationType(ctx, id); res.Err != nil {
		return fmt.Errorf("delete consultation type: %w", res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionDelete, domain.EntityConsultationType, id, "Tipo de consulta excluído: "+c.Name)
	return nil
}

func validate(req Request) error {
	v := &domain.ValidationError{}
	if strings.TrimSpace(req.Name) == "" {
		v.Add("name", "is required")
	}
	if req.Price < 0 {
		v.Add("price", "must not be negative")
	}
	if req.DurationMinutes < 0 {
		v.Add("durationMinutes", "must not be negative")
	}
	return v.Err()
}
