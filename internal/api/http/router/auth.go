package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/api/http/handler"
)

func (r *Router) registerAuthRoutes(api fiber.Router, h *handler.AuthHandler, authRequired, loginLimiter fiber.Handler) {
	group := api.Group("/auth")
	group.Post("/login", loginLimiter, h.Login)
	group.Post("/refresh", h.Refresh)
	group.Post("/logout", authRequired, h.Logout)
	group.Get("/session", authRequired, h.Session)
	group.Put("/password", authRequired, loginLimiter, h.ChangePassword)
}
