package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
}

func notFound(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func conflict(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msg})
}

func invalid(c fiber.Ctx, v *domain.ValidationError) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error":  "validation failed",
		"fields": v.Errors,
	})
}

// notPersisted reports a write the database rejected. The in-memory state
// was reverted, so the client should retry.
func notPersisted(c fiber.Ctx, err error) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
}

func internalError(c fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// mapCommonError handles the errors every service can return. Handlers
// call it after matching their own sentinels.
func mapCommonError(c fiber.Ctx, err error) error {
	var v *domain.ValidationError
	switch {
	case errors.As(err, &v):
		return invalid(c, v)
	case errors.Is(err, state.ErrNotPersisted):
		return notPersisted(c, err)
	case errors.Is(err, domain.ErrNotFound):
		return notFound(c, err.Error())
	default:
		slog.ErrorContext(c.Context(), "unhandled request error", "path", c.Path(), "err", err)
		return internalError(c)
	}
}
