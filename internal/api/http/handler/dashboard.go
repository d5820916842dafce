package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/dashboard"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
)

// ReportHandler serves the read-only views: dashboards, the audit trail
// and the store's sync status.
type ReportHandler struct {
	dashboard dashboard.Service
	audit     audit.Service
	store     *state.Store
}

func NewReportHandler(dash dashboard.Service, auditSvc audit.Service, store *state.Store) *ReportHandler {
	return &ReportHandler{dashboard: dash, audit: auditSvc, store: store}
}

func rangeFromQuery(c fiber.Ctx) dashboard.Range {
	var q struct {
		From string `query:"from"`
		To   string `query:"to"`
	}
	_ = c.Bind().Query(&q)
	return dashboard.Range{From: q.From, To: q.To}
}

// GET /dashboard/summary
func (h *ReportHandler) Summary(c fiber.Ctx) error {
	return ok(c, h.dashboard.Summary(c.Context(), rangeFromQuery(c)))
}

// GET /dashboard/financial
func (h *ReportHandler) Financial(c fiber.Ctx) error {
	return ok(c, h.dashboard.Financial(c.Context(), rangeFromQuery(c)))
}

// GET /audit
func (h *ReportHandler) Audit(c fiber.Ctx) error {
	var q struct {
		Entity   string `query:"entity"`
		EntityID string `query:"entityId"`
		Limit    int    `query:"limit"`
	}
	_ = c.Bind().Query(&q)

	return ok(c, h.audit.List(c.Context(), audit.ListRequest{
		Entity:   q.Entity,
		EntityID: q.EntityID,
		Limit:    q.Limit,
	}))
}

// GET /sync
func (h *ReportHandler) Sync(c fiber.Ctx) error {
	return ok(c, h.store.Status())
}

// POST /sync reloads every table from the database. In-memory changes the
// database never accepted are dropped.
func (h *ReportHandler) Resync(c fiber.Ctx) error {
	if err := h.store.Load(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
			"data":  h.store.Status(),
		})
	}
	return ok(c, h.store.Status())
}
