package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/api/http/handler"
)

func (r *Router) registerAdminRoutes(
	api fiber.Router,
	sh *handler.SettingsHandler,
	rh *handler.ReportHandler,
	bh *handler.BackupHandler,
	authRequired fiber.Handler,
) {
	settings := api.Group("/settings", authRequired)
	settings.Get("/", sh.Get)
	settings.Put("/profile-image", sh.SetProfileImage)
	settings.Put("/signature-image", sh.SetSignatureImage)

	dash := api.Group("/dashboard", authRequired)
	dash.Get("/summary", rh.Summary)
	dash.Get("/financial", rh.Financial)

	api.Get("/audit", authRequired, rh.Audit)
	api.Get("/sync", authRequired, rh.Sync)
	api.Post("/sync", authRequired, rh.Resync)

	backups := api.Group("/backup", authRequired)
	backups.Get("/export", bh.Export)
	backups.Post("/restore", bh.Restore)
	backups.Get("/archives", bh.Archives)
	backups.Post("/archives", bh.Archive)
	backups.Post("/archives/restore", bh.RestoreArchive)
}
