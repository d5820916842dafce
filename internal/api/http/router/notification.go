package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/api/http/handler"
)

func (r *Router) registerNotificationRoutes(api fiber.Router, nh *handler.NotificationHandler, authRequired fiber.Handler) {
	notifs := api.Group("/notifications", authRequired)
	notifs.Get("/", nh.List)
	notifs.Get("/pending", nh.Pending)
}
