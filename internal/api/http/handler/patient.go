package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/service/patient"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/record"
)

type PatientHandler struct {
	svc    patient.Service
	record record.Service
}

func NewPatientHandler(svc patient.Service, rec record.Service) *PatientHandler {
	return &PatientHandler{svc: svc, record: rec}
}

func mapPatientError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, patient.ErrNameRequired),
		errors.Is(err, patient.ErrInvalidBirth):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

type patientBody struct {
	Name      *string        `json:"name"`
	CPF       *string        `json:"cpf"`
	Phone     *string        `json:"phone"`
	Email     *string        `json:"email"`
	BirthDate *string        `json:"birthDate"`
	Address   *string        `json:"address"`
	Anamnesis map[string]any `json:"anamnesis"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GET /patients
func (h *PatientHandler) List(c fiber.Ctx) error {
	var q struct {
		Active string `query:"active"`
		Query  string `query:"q"`
	}
	_ = c.Bind().Query(&q)

	req := patient.ListRequest{Query: q.Query}
	if q.Active != "" {
		active, err := strconv.ParseBool(q.Active)
		if err != nil {
			return badRequest(c, "active must be true or false")
		}
		req.Active = &active
	}

	return ok(c, h.svc.List(c.Context(), req))
}

// GET /patients/birthdays
func (h *PatientHandler) BirthdaysToday(c fiber.Ctx) error {
	return ok(c, h.svc.BirthdaysToday(c.Context()))
}

// GET /patients/:id
func (h *PatientHandler) GetByID(c fiber.Ctx) error {
	p, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, p)
}

// POST /patients
func (h *PatientHandler) Create(c fiber.Ctx) error {
	var body patientBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.Create(c.Context(), patient.CreateRequest{
		Name:      deref(body.Name),
		CPF:       deref(body.CPF),
		Phone:     deref(body.Phone),
		Email:     deref(body.Email),
		BirthDate: deref(body.BirthDate),
		Address:   deref(body.Address),
		Anamnesis: body.Anamnesis,
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	return created(c, p)
}

// PATCH /patients/:id
func (h *PatientHandler) Update(c fiber.Ctx) error {
	var body patientBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.Update(c.Context(), c.Params("id"), patient.UpdateRequest{
		Name:      body.Name,
		CPF:       body.CPF,
		Phone:     body.Phone,
		Email:     body.Email,
		BirthDate: body.BirthDate,
		Address:   body.Address,
		Anamnesis: body.Anamnesis,
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, p)
}

// PATCH /patients/:id/deactivate
func (h *PatientHandler) Deactivate(c fiber.Ctx) error {
	p, err := h.svc.Deactivate(c.Context(), c.Params("id"))
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, p)
}

// PATCH /patients/:id/reactivate
func (h *PatientHandler) Reactivate(c fiber.Ctx) error {
	p, err := h.svc.Reactivate(c.Context(), c.Params("id"))
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, p)
}

// DELETE /patients/:id
func (h *PatientHandler) Delete(c fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), c.Params("id")); err != nil {
		return mapPatientError(c, err)
	}
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Clinical record
// ---------------------------------------------------------------------------

func mapRecordError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, record.ErrPatientNotFound),
		errors.Is(err, record.ErrNoteNotFound),
		errors.Is(err, record.ErrObservationNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, record.ErrEmptyContent),
		errors.Is(err, record.ErrInvalidDate):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

// GET /patients/:id/record
func (h *PatientHandler) Record(c fiber.Ctx) error {
	rec, err := h.record.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapRecordError(c, err)
	}
	return ok(c, rec)
}

// GET /patients/:id/notes
func (h *PatientHandler) ListNotes(c fiber.Ctx) error {
	notes, err := h.record.ListNotes(c.Context(), c.Params("id"))
	if err != nil {
		return mapRecordError(c, err)
	}
	return ok(c, notes)
}

type noteBody struct {
	AppointmentID string `json:"appointmentId"`
	Date          string `json:"date"`
	Content       string `json:"content"`
}

// POST /patients/:id/notes
func (h *PatientHandler) AddNote(c fiber.Ctx) error {
	var body noteBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	note, err := h.record.AddNote(c.Context(), c.Params("id"), record.NoteRequest{
		AppointmentID: body.AppointmentID,
		Date:          body.Date,
		Content:       body.Content,
	})
	if err != nil {
		return mapRecordError(c, err)
	}
	return created(c, note)
}

// PUT /patients/:id/notes/:noteId
func (h *PatientHandler) UpdateNote(c fiber.Ctx) error {
	var body noteBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	note, err := h.record.UpdateNote(c.Context(), c.Params("id"), c.Params("noteId"), record.NoteRequest{
		AppointmentID: body.AppointmentID,
		Date:          body.Date,
		Content:       body.Content,
	})
	if err != nil {
		return mapRecordError(c, err)
	}
	return ok(c, note)
}

// DELETE /patients/:id/notes/:noteId
func (h *PatientHandler) DeleteNote(c fiber.Ctx) error {
	if err := h.record.DeleteNote(c.Context(), c.Params("id"), c.Params("noteId")); err != nil {
		return mapRecordError(c, err)
	}
	return noContent(c)
}

// GET /patients/:id/observations
func (h *PatientHandler) ListObservations(c fiber.Ctx) error {
	obs, err := h.record.ListObservations(c.Context(), c.Params("id"))
	if err != nil {
		return mapRecordError(c, err)
	}
	return ok(c, obs)
}

// POST /patients/:id/observations
func (h *PatientHandler) AddObservation(c fiber.Ctx) error {
	var body struct {
		Date    string `json:"date"`
		Content string `json:"content"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	obs, err := h.record.AddObservation(c.Context(), c.Params("id"), record.ObservationRequest{
		Date:    body.Date,
		Content: body.Content,
	})
	if err != nil {
		return mapRecordError(c, err)
	}
	return created(c, obs)
}

// DELETE /patients/:id/observations/:observationId
func (h *PatientHandler) DeleteObservation(c fiber.Ctx) error {
	if err := h.record.DeleteObservation(c.Context(), c.Params("id"), c.Params("observationId")); err != nil {
		return mapRecordError(c, err)
	}
	return noContent(c)
}
