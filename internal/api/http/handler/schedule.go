package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/service/scheduling"
)

type ScheduleHandler struct {
	svc scheduling.Service
}

func NewScheduleHandler(svc scheduling.Service) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

func mapScheduleError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, scheduling.ErrInvalidDate),
		errors.Is(err, scheduling.ErrInvalidMonth):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

// GET /schedule/days/:date
func (h *ScheduleHandler) Day(c fiber.Ctx) error {
	day, err := h.svc.Day(c.Context(), c.Params("date"))
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, day)
}

// GET /schedule/months/:year/:month
func (h *ScheduleHandler) Month(c fiber.Ctx) error {
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil {
		return badRequest(c, "invalid year")
	}
	month, err := strconv.Atoi(c.Params("month"))
	if err != nil {
		return badRequest(c, "invalid month")
	}

	view, err := h.svc.Month(c.Context(), year, month)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, view)
}

// GET /schedule/slots
func (h *ScheduleHandler) Slots(c fiber.Ctx) error {
	return ok(c, fiber.Map{
		"slots":         h.svc.Slots(),
		"fullThreshold": h.svc.FullThreshold(),
	})
}

// GET /schedule/holidays/:year
func (h *ScheduleHandler) Holidays(c fiber.Ctx) error {
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil || year < 1 {
		return badRequest(c, "invalid year")
	}
	return ok(c, h.svc.Holidays(year))
}

// ---------------------------------------------------------------------------
// Blocked days
// ---------------------------------------------------------------------------

// GET /schedule/blocked
func (h *ScheduleHandler) ListBlocked(c fiber.Ctx) error {
	return ok(c, h.svc.ListBlocked(c.Context()))
}

// POST /schedule/blocked
func (h *ScheduleHandler) Block(c fiber.Ctx) error {
	var body struct {
		Date   string `json:"date"`
		Reason string `json:"reason"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	b, err := h.svc.Block(c.Context(), body.Date, body.Reason)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return created(c, b)
}

// DELETE /schedule/blocked/:date
func (h *ScheduleHandler) Unblock(c fiber.Ctx) error {
	n, err := h.svc.Unblock(c.Context(), c.Params("date"))
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, fiber.Map{"removed": n})
}
