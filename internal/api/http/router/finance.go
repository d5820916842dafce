package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/api/http/handler"
)

func (r *Router) registerFinanceRoutes(
	api fiber.Router,
	ch *handler.ConsultationHandler,
	fh *handler.FinanceHandler,
	authRequired fiber.Handler,
) {
	types := api.Group("/consultation-types", authRequired)
	types.Get("/", ch.List)
	types.Post("/", ch.Create)
	types.Get("/:id", ch.GetByID)
	types.Put("/:id", ch.Update)
	types.Delete("/:id", ch.Delete)

	txs := api.Group("/transactions", authRequired)
	txs.Get("/", fh.List)
	txs.Post("/", fh.Create)
	txs.Get("/:id", fh.GetByID)
	txs.Put("/:id", fh.Update)
	txs.Delete("/:id", fh.Delete)
}
