package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/checks"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/reminder"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/reqctx"
)

type ChecksHandler struct {
	coord     checks.Coordinator
	reminders reminder.Service
}

func NewChecksHandler(coord checks.Coordinator, reminders reminder.Service) *ChecksHandler {
	return &ChecksHandler{coord: coord, reminders: reminders}
}

func mapChecksError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, checks.ErrNotCurrent):
		return conflict(c, err.Error())
	case errors.Is(err, checks.ErrUnknownCheck):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

// GET /api/v1/checks/current
func (h *ChecksHandler) Current(c fiber.Ctx) error {
	sid, found := reqctx.SessionIDFromContext(c.Context())
	if !found {
		return unauthorized(c)
	}
	prompt, err := h.coord.Current(c.Context(), sid)
	if err != nil {
		return mapChecksError(c, err)
	}
	return ok(c, prompt)
}

// POST /api/v1/checks/restart
func (h *ChecksHandler) Restart(c fiber.Ctx) error {
	sid, found := reqctx.SessionIDFromContext(c.Context())
	if !found {
		return unauthorized(c)
	}
	prompt, err := h.coord.Start(c.Context(), sid)
	if err != nil {
		return mapChecksError(c, err)
	}
	return ok(c, prompt)
}

// POST /api/v1/checks/:name/dismiss
func (h *ChecksHandler) Dismiss(c fiber.Ctx) error {
	sid, found := reqctx.SessionIDFromContext(c.Context())
	if !found {
		return unauthorized(c)
	}
	prompt, err := h.coord.Dismiss(c.Context(), sid, checks.Name(c.Params("name")))
	if err != nil {
		return mapChecksError(c, err)
	}
	return ok(c, prompt)
}

// POST /api/v1/checks/reminder/send
func (h *ChecksHandler) SendReminders(c fiber.Ctx) error {
	var body struct {
		Channel string `json:"channel"`
	}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	channel, valid := parseChannel(body.Channel)
	if !valid {
		return badRequest(c, reminder.ErrUnsupportedChannel.Error())
	}

	sent, err := h.reminders.SendPending(c.Context(), channel, domain.SourceDailyCheck)
	if err != nil {
		return mapReminderError(c, err)
	}
	return ok(c, sent)
}
