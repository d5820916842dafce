package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/api/http/handler"
)

func (r *Router) registerPatientRoutes(
	api fiber.Router,
	ph *handler.PatientHandler,
	nh *handler.NotificationHandler,
	authRequired fiber.Handler,
) {
	patients := api.Group("/patients", authRequired)

	patients.Get("/", ph.List)
	patients.Post("/", ph.Create)
	patients.Get("/birthdays", ph.BirthdaysToday)

	p := patients.Group("/:id")
	p.Get("/", ph.GetByID)
	p.Patch("/", ph.Update)
	p.Delete("/", ph.Delete)
	p.Patch("/deactivate", ph.Deactivate)
	p.Patch("/reactivate", ph.Reactivate)
	p.Post("/birthday-greeting", nh.BirthdayGreeting)

	// Clinical record
	p.Get("/record", ph.Record)
	p.Get("/notes", ph.ListNotes)
	p.Post("/notes", ph.AddNote)
	p.Put("/notes/:noteId", ph.UpdateNote)
	p.Delete("/notes/:noteId", ph.DeleteNote)
	p.Get("/observations", ph.ListObservations)
	p.Post("/observations", ph.AddObservation)
	p.Delete("/observations/:observationId", ph.DeleteObservation)
}
