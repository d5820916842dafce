package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/api/http/handler"
)

func (r *Router) registerScheduleRoutes(api fiber.Router, sh *handler.ScheduleHandler, authRequired fiber.Handler) {
	schedule := api.Group("/schedule", authRequired)

	schedule.Get("/slots", sh.Slots)
	schedule.Get("/days/:date", sh.Day)
	schedule.Get("/months/:year/:month", sh.Month)
	schedule.Get("/holidays/:year", sh.Holidays)

	schedule.Get("/blocked", sh.ListBlocked)
	schedule.Post("/blocked", sh.Block)
	schedule.Delete("/blocked/:date", sh.Unblock)
}
