package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/service/auth"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/checks"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/reqctx"
)

type AuthHandler struct {
	svc    auth.Service
	checks checks.Coordinator
}

func NewAuthHandler(svc auth.Service, coord checks.Coordinator) *AuthHandler {
	return &AuthHandler{svc: svc, checks: coord}
}

func mapAuthError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrSessionNotFound):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, auth.ErrWrongPassword):
		return badRequest(c, err.Error())
	case errors.Is(err, auth.ErrPasswordTooShort):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body struct {
		Password string `json:"password"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Password == "" {
		return badRequest(c, "password is required")
	}

	tokens, err := h.svc.Login(c.Context(), body.Password)
	if err != nil {
		return mapAuthError(c, err)
	}

	// The first post-login prompt rides along with the tokens.
	prompt, err := h.checks.Start(c.Context(), tokens.SessionID)
	if err != nil {
		return mapCommonError(c, err)
	}

	return ok(c, fiber.Map{
		"tokens": tokens,
		"check":  prompt,
	})
}

// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.RefreshToken == "" {
		return badRequest(c, "refreshToken is required")
	}

	tokens, err := h.svc.RefreshTokens(c.Context(), body.RefreshToken)
	if err != nil {
		return mapAuthError(c, err)
	}
	return ok(c, tokens)
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	sid, found := reqctx.SessionIDFromContext(c.Context())
	if !found {
		return unauthorized(c)
	}
	if err := h.svc.Logout(c.Context(), sid); err != nil {
		return mapAuthError(c, err)
	}
	return noContent(c)
}

// GET /api/v1/auth/session
func (h *AuthHandler) Session(c fiber.Ctx) error {
	sid, found := reqctx.SessionIDFromContext(c.Context())
	if !found {
		return unauthorized(c)
	}
	sess, err := h.svc.Session(c.Context(), sid)
	if err != nil {
		return mapAuthError(c, err)
	}
	return ok(c, sess)
}

// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c fiber.Ctx) error {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.svc.ChangePassword(c.Context(), body.CurrentPassword, body.NewPassword); err != nil {
		return mapAuthError(c, err)
	}
	return ok(c, fiber.Map{"message": "password updated"})
}
