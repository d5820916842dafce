package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/api/http/handler"
)

func (r *Router) registerCheckRoutes(api fiber.Router, ch *handler.ChecksHandler, authRequired fiber.Handler) {
	checks := api.Group("/checks", authRequired)

	checks.Get("/current", ch.Current)
	checks.Post("/restart", ch.Restart)
	checks.Post("/reminder/send", ch.SendReminders)
	checks.Post("/:name/dismiss", ch.Dismiss)
}
