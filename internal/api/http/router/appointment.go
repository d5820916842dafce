package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/api/http/handler"
)

func (r *Router) registerAppointmentRoutes(api fiber.Router, ah *handler.AppointmentHandler, authRequired fiber.Handler) {
	appts := api.Group("/appointments", authRequired)

	appts.Get("/", ah.List)
	appts.Post("/", ah.Create)

	a := appts.Group("/:id")
	a.Get("/", ah.GetByID)
	a.Patch("/", ah.Update)
	a.Delete("/", ah.Delete)
	a.Patch("/complete", ah.Complete)
	a.Patch("/cancel", ah.Cancel)
	a.Post("/reminder", ah.SendReminder)

	a.Post("/reschedule", ah.StageReschedule)
	a.Get("/reschedule", ah.PendingReschedule)
	a.Post("/reschedule/confirm", ah.ConfirmReschedule)
	a.Delete("/reschedule", ah.CancelReschedule)
}
