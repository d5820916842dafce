package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/service/consultation"
)

type ConsultationHandler struct {
	svc consultation.Service
}

func NewConsultationHandler(svc consultation.Service) *ConsultationHandler {
	return &ConsultationHandler{svc: svc}
}

func mapConsultationError(c fiber.Ctx, err error) error {
	if errors.Is(err, consultation.ErrNotFound) {
		return notFound(c, err.Error())
	}
	return mapCommonError(c, err)
}

type consultationBody struct {
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"durationMinutes"`
}

// GET /consultation-types
func (h *ConsultationHandler) List(c fiber.Ctx) error {
	return ok(c, h.svc.List(c.Context()))
}

// GET /consultation-types/:id
func (h *ConsultationHandler) GetByID(c fiber.Ctx) error {
	ct, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapConsultationError(c, err)
	}
	return ok(c, ct)
}

// POST /consultation-types
func (h *ConsultationHandler) Create(c fiber.Ctx) error {
	var body consultationBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	ct, err := h.svc.Create(c.Context(), consultation.Request(body))
	if err != nil {
		return mapConsultationError(c, err)
	}
	return created(c, ct)
}

// PUT /consultation-types/:id
func (h *ConsultationHandler) Update(c fiber.Ctx) error {
	var body consultationBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	ct, err := h.svc.Update(c.Context(), c.Params("id"), consultation.Request(body))
	if err != nil {
		return mapConsultationError(c, err)
	}
	return ok(c, ct)
}

// DELETE /consultation-types/:id
func (h *ConsultationHandler) Delete(c fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), c.Params("id")); err != nil {
		return mapConsultationError(c, err)
	}
	return noContent(c)
}
