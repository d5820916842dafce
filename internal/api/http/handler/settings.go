package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/service/settings"
)

type SettingsHandler struct {
	svc settings.Service
}

func NewSettingsHandler(svc settings.Service) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func mapSettingsError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, settings.ErrInvalidImage):
		return badRequest(c, err.Error())
	case errors.Is(err, settings.ErrImageTooLarge):
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": err.Error()})
	default:
		return mapCommonError(c, err)
	}
}

type imageBody struct {
	Image string `json:"image"`
}

// GET /settings
func (h *SettingsHandler) Get(c fiber.Ctx) error {
	return ok(c, h.svc.Get(c.Context()))
}

// PUT /settings/profile-image
func (h *SettingsHandler) SetProfileImage(c fiber.Ctx) error {
	var body imageBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	v, err := h.svc.SetProfileImage(c.Context(), body.Image)
	if err != nil {
		return mapSettingsError(c, err)
	}
	return ok(c, v)
}

// PUT /settings/signature-image
func (h *SettingsHandler) SetSignatureImage(c fiber.Ctx) error {
	var body imageBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	v, err := h.svc.SetSignatureImage(c.Context(), body.Image)
	if err != nil {
		return mapSettingsError(c, err)
	}
	return ok(c, v)
}
