package audit

import (
	"context"
	"log/slog"
	"sort"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/constants"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/util/codes"
)

// Actions recorded by the services.
const (
	ActionCreate     = "CREATE"
	ActionUpdate     = "UPDATE"
	ActionDelete     = "DELETE"
	ActionComplete   = "COMPLETE"
	ActionCancel     = "CANCEL"
	ActionReschedule = "RESCHEDULE"
	ActionRestore    = "RESTORE"
	ActionLogin      = "LOGIN"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ListRequest struct {
	Entity   string
	EntityID string
	Limit    int
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Record appends one entry attributed to the practitioner.
	Record(ctx context.Context, action, entity, entityID, details string) error
	// List returns entries newest first.
	List(ctx context.Context, req ListRequest) []domain.AuditLogEntry
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type auditService struct {
	store *state.Store
	clock domain.Clock
	log   *slog.Logger
}

func New(store *state.Store, clock domain.Clock, log *slog.Logger) Service {
	return &auditService{store: store, clock: clock, log: log.With("service", "audit")}
}

func (s *auditService) Record(ctx context.Context, action, entity, entityID, details string) error {
	now := s.clock.Now()
	res := s.store.AppendAudit(ctx, domain.AuditLogEntry{
		ID:        codes.NewIDAt(now),
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		User:      constants.PractitionerUser,
		Timestamp: now,
	})
	if res.Err != nil {
		s.log.WarnContext(ctx, "audit entry not persisted",
			slog.String("action", action),
			slog.String("entity", entity),
			slog.String("entity_id", entityID),
			slog.Any("error", res.Err),
		)
	}
	return res.Err
}

func (s *auditService) List(_ context.Context, req ListRequest) []domain.AuditLogEntry {
	all := s.store.Snapshot().AuditLogs

	out := make([]domain.AuditLogEntry, 0, len(all))
	for _, e := range all {
		if req.Entity != "" && e.Entity != req.Entity {
			continue
		}
		if req.EntityID != "" && e.EntityID != req.EntityID {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })

	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out
}
