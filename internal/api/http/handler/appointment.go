package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/appointment"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/reminder"
)

type AppointmentHandler struct {
	svc       appointment.Service
	reminders reminder.Service
}

func NewAppointmentHandler(svc appointment.Service, reminders reminder.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, reminders: reminders}
}

func mapAppointmentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrNoStagedReschedule):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrAlreadyCompleted):
		return conflict(c, err.Error())
	case errors.Is(err, appointment.ErrAlreadyCanceled):
		return conflict(c, err.Error())
	case errors.Is(err, appointment.ErrDayNotSelectable):
		return conflict(c, err.Error())
	case errors.Is(err, appointment.ErrInvalidDateTime),
		errors.Is(err, appointment.ErrUnknownConsultation):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

func mapReminderError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, reminder.ErrAppointmentNotFound),
		errors.Is(err, reminder.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, reminder.ErrUnsupportedChannel),
		errors.Is(err, reminder.ErrNoEmail):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

func parseChannel(s string) (domain.Channel, bool) {
	switch domain.Channel(s) {
	case "", domain.ChannelWhatsApp:
		return domain.ChannelWhatsApp, true
	case domain.ChannelEmail:
		return domain.ChannelEmail, true
	default:
		return "", false
	}
}

// GET /appointments
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	var q struct {
		From      string `query:"from"`
		To        string `query:"to"`
		Status    string `query:"status"`
		PatientID string `query:"patientId"`
	}
	_ = c.Bind().Query(&q)

	return ok(c, h.svc.List(c.Context(), appointment.ListRequest{
		From:      q.From,
		To:        q.To,
		Status:    q.Status,
		PatientID: q.PatientID,
	}))
}

// GET /appointments/:id
func (h *AppointmentHandler) GetByID(c fiber.Ctx) error {
	appt, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, appt)
}

// POST /appointments?remind=whatsapp|email
func (h *AppointmentHandler) Create(c fiber.Ctx) error {
	var body struct {
		PatientID          string   `json:"patientId"`
		Date               string   `json:"date"`
		Time               string   `json:"time"`
		ConsultationTypeID string   `json:"consultationTypeId"`
		Price              *float64 `json:"price"`
		Notes              string   `json:"notes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	remind := c.Query("remind")
	channel, valid := parseChannel(remind)
	if !valid {
		return badRequest(c, reminder.ErrUnsupportedChannel.Error())
	}

	appt, err := h.svc.Create(c.Context(), appointment.CreateRequest{
		PatientID:          body.PatientID,
		Date:               body.Date,
		Time:               body.Time,
		ConsultationTypeID: body.ConsultationTypeID,
		Price:              body.Price,
		Notes:              body.Notes,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	if remind == "" {
		return created(c, appt)
	}

	// The booking stands even when the reminder cannot be dispatched.
	out := fiber.Map{"appointment": appt}
	d, err := h.reminders.MarkSent(c.Context(), appt.ID, channel, domain.SourcePostBooking)
	if err != nil {
		out["reminderError"] = err.Error()
	} else {
		out["appointment"] = d.Appointment
		out["reminder"] = d
	}
	return created(c, out)
}

// PATCH /appointments/:id
func (h *AppointmentHandler) Update(c fiber.Ctx) error {
	var body struct {
		ConsultationTypeID *string  `json:"consultationTypeId"`
		Price              *float64 `json:"price"`
		Notes              *string  `json:"notes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	appt, err := h.svc.Update(c.Context(), c.Params("id"), appointment.UpdateRequest{
		ConsultationTypeID: body.ConsultationTypeID,
		Price:              body.Price,
		Notes:              body.Notes,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, appt)
}

// POST /appointments/:id/reschedule
func (h *AppointmentHandler) StageReschedule(c fiber.Ctx) error {
	var body struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	r, err := h.svc.StageReschedule(c.Context(), c.Params("id"), body.Date, body.Time)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return created(c, r)
}

// GET /appointments/:id/reschedule
func (h *AppointmentHandler) PendingReschedule(c fiber.Ctx) error {
	r, err := h.svc.PendingReschedule(c.Context(), c.Params("id"))
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, r)
}

// POST /appointments/:id/reschedule/confirm
func (h *AppointmentHandler) ConfirmReschedule(c fiber.Ctx) error {
	appt, err := h.svc.ConfirmReschedule(c.Context(), c.Params("id"))
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, appt)
}

// DELETE /appointments/:id/reschedule
func (h *AppointmentHandler) CancelReschedule(c fiber.Ctx) error {
	if err := h.svc.CancelReschedule(c.Context(), c.Params("id")); err != nil {
		return mapAppointmentError(c, err)
	}
	return noContent(c)
}

// PATCH /appointments/:id/complete
func (h *AppointmentHandler) Complete(c fiber.Ctx) error {
	appt, tx, err := h.svc.Complete(c.Context(), c.Params("id"))
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, fiber.Map{
		"appointment": appt,
		"transaction": tx,
	})
}

// PATCH /appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c fiber.Ctx) error {
	appt, err := h.svc.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, appt)
}

// DELETE /appointments/:id
func (h *AppointmentHandler) Delete(c fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), c.Params("id")); err != nil {
		return mapAppointmentError(c, err)
	}
	return noContent(c)
}

// POST /appointments/:id/reminder
func (h *AppointmentHandler) SendReminder(c fiber.Ctx) error {
	var body struct {
		Channel string `json:"channel"`
		Source  string `json:"source"`
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

	source := domain.SourceManual
	switch domain.ReminderSource(body.Source) {
	case "", domain.SourceManual:
	case domain.SourcePostBooking:
		source = domain.SourcePostBooking
	default:
		return badRequest(c, "source must be manual or post_booking")
	}

	d, err := h.reminders.MarkSent(c.Context(), c.Params("id"), channel, source)
	if err != nil {
		return mapReminderError(c, err)
	}
	return ok(c, d)
}
