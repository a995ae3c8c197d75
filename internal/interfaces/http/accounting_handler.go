package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/accounting"
	"github.com/jhoicas/pos-api/internal/application/dto"
)

// AccountingHandler consultas del diario contable (protegido).
type AccountingHandler struct {
	svc *accounting.Service
}

// NewAccountingHandler construye el handler.
func NewAccountingHandler(svc *accounting.Service) *AccountingHandler {
	return &AccountingHandler{svc: svc}
}

// List GET /api/accounting/entries?from=&to=
func (h *AccountingHandler) List(c *fiber.Ctx) error {
	from, to, err := timeRange(c)
	if err != nil {
		return badRequest(c, "from/to must be RFC3339 or YYYY-MM-DD")
	}
	entries, err := h.svc.ListEntries(c.UserContext(), GetTenant(c), from, to)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.AccountingEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.ToAccountingEntryResponse(e))
	}
	return c.JSON(out)
}

// Summary GET /api/accounting/summary?from=&to=
func (h *AccountingHandler) Summary(c *fiber.Ctx) error {
	from, to, err := timeRange(c)
	if err != nil {
		return badRequest(c, "from/to must be RFC3339 or YYYY-MM-DD")
	}
	sum, err := h.svc.Summarize(c.UserContext(), GetTenant(c), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AccountingSummaryResponse{From: from, To: to, Totals: sum.Totals, Net: sum.Net})
}
