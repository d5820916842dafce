package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/finance"
)

type FinanceHandler struct {
	svc finance.Service
}

func NewFinanceHandler(svc finance.Service) *FinanceHandler {
	return &FinanceHandler{svc: svc}
}

func mapFinanceError(c fiber.Ctx, err error) error {
	if errors.Is(err, finance.ErrTransactionNotFound) {
		return notFound(c, err.Error())
	}
	return mapCommonError(c, err)
}

type transactionBody struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	PatientID   string  `json:"patientId"`
}

func (b transactionBody) request() finance.TransactionRequest {
	return finance.TransactionRequest{
		Type:        domain.TransactionType(b.Type),
		Description: b.Description,
		Amount:      b.Amount,
		Date:        b.Date,
		Category:    b.Category,
		PatientID:   b.PatientID,
	}
}

// GET /transactions
func (h *FinanceHandler) List(c fiber.Ctx) error {
	var q struct {
		From     string `query:"from"`
		To       string `query:"to"`
		Type     string `query:"type"`
		Category string `query:"category"`
	}
	_ = c.Bind().Query(&q)

	return ok(c, h.svc.List(c.Context(), finance.ListRequest{
		From:     q.From,
		To:       q.To,
		Type:     q.Type,
		Category: q.Category,
	}))
}

// GET /transactions/:id
func (h *FinanceHandler) GetByID(c fiber.Ctx) error {
	tx, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapFinanceError(c, err)
	}
	return ok(c, tx)
}

// POST /transactions
func (h *FinanceHandler) Create(c fiber.Ctx) error {
	var body transactionBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	tx, err := h.svc.Create(c.Context(), body.request())
	if err != nil {
		return mapFinanceError(c, err)
	}
	return created(c, tx)
}

// PUT /transactions/:id
func (h *FinanceHandler) Update(c fiber.Ctx) error {
	var body transactionBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	tx, err := h.svc.Update(c.Context(), c.Params("id"), body.request())
	if err != nil {
		return mapFinanceError(c, err)
	}
	return ok(c, tx)
}

// DELETE /transactions/:id
func (h *FinanceHandler) Delete(c fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), c.Params("id")); err != nil {
		return mapFinanceError(c, err)
	}
	return noContent(c)
}
