package handler

import (
	"bytes"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/service/backup"
)

type BackupHandler struct {
	svc backup.Service
}

func NewBackupHandler(svc backup.Service) *BackupHandler {
	return &BackupHandler{svc: svc}
}

func mapBackupError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, backup.ErrUnsupportedVersion),
		errors.Is(err, backup.ErrInvalidDocument):
		return badRequest(c, err.Error())
	case errors.Is(err, backup.ErrArchiveDisabled):
		return notFound(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

// GET /backup/export
func (h *BackupHandler) Export(c fiber.Ctx) error {
	doc := h.svc.Export(c.Context())
	c.Attachment("clinica-backup-" + doc.Timestamp.Format("2006-01-02") + ".json")
	return c.JSON(doc)
}

// POST /backup/restore
func (h *BackupHandler) Restore(c fiber.Ctx) error {
	doc, err := backup.Decode(bytes.NewReader(c.Body()))
	if err != nil {
		return mapBackupError(c, err)
	}

	report, err := h.svc.Restore(c.Context(), doc)
	if err != nil {
		return mapBackupError(c, err)
	}
	return ok(c, report)
}

// POST /backup/archives
func (h *BackupHandler) Archive(c fiber.Ctx) error {
	a, err := h.svc.Archive(c.Context())
	if err != nil {
		return mapBackupError(c, err)
	}
	return created(c, a)
}

// GET /backup/archives
func (h *BackupHandler) Archives(c fiber.Ctx) error {
	list, err := h.svc.Archives(c.Context())
	if err != nil {
		return mapBackupError(c, err)
	}
	return ok(c, list)
}

// POST /backup/archives/restore
func (h *BackupHandler) RestoreArchive(c fiber.Ctx) error {
	var body struct {
		Key string `json:"key"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Key == "" {
		return badRequest(c, "key is required")
	}

	report, err := h.svc.RestoreArchive(c.Context(), body.Key)
	if err != nil {
		return mapBackupError(c, err)
	}
	return ok(c, report)
}
