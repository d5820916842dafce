package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/service/reminder"
)

type NotificationHandler struct {
	svc reminder.Service
}

func NewNotificationHandler(svc reminder.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// GET /notifications
func (h *NotificationHandler) List(c fiber.Ctx) error {
	var q struct {
		AppointmentID string `query:"appointmentId"`
		PatientID     string `query:"patientId"`
		Kind          string `query:"kind"`
		Limit         int    `query:"limit"`
	}
	_ = c.Bind().Query(&q)

	return ok(c, h.svc.Logs(c.Context(), reminder.LogsRequest{
		AppointmentID: q.AppointmentID,
		PatientID:     q.PatientID,
		Kind:          q.Kind,
		Limit:         q.Limit,
	}))
}

// GET /notifications/pending?date=YYYY-MM-DD
func (h *NotificationHandler) Pending(c fiber.Ctx) error {
	return ok(c, h.svc.Pending(c.Context(), c.Query("date")))
}

// POST /patients/:id/birthday-greeting
func (h *NotificationHandler) BirthdayGreeting(c fiber.Ctx) error {
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

	d, err := h.svc.BirthdayGreeting(c.Context(), c.Params("id"), channel)
	if err != nil {
		return mapReminderError(c, err)
	}
	return ok(c, d)
}
