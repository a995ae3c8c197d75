package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/dto"
)

// InvoiceHandler facturas, pagos y notas crédito (protegido).
type InvoiceHandler struct {
	svc *billing.InvoiceService
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(svc *billing.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

// Create emite la factura de un pedido; si ya existe la devuelve.
// POST /api/invoices
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	inv, err := h.svc.CreateInvoice(c.UserContext(), GetTenant(c), in.OrderID, in.DueDate)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToInvoiceResponse(inv))
}

// Get GET /api/invoices/:id
func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	inv, err := h.svc.GetInvoice(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToInvoiceResponse(inv))
}

// List GET /api/invoices?limit=&offset=
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	p := page(c)
	list, err := h.svc.ListInvoices(c.UserContext(), GetTenant(c), p.Limit, p.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, dto.ToInvoiceResponse(inv))
	}
	return c.JSON(fiber.Map{"items": out, "page": p.Response(len(out))})
}

// AddPayment POST /api/invoices/:id/payments
func (h *InvoiceHandler) AddPayment(c *fiber.Ctx) error {
	var in dto.AddPaymentRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	inv, p, err := h.svc.AddPayment(c.UserContext(), GetTenant(c), c.Params("id"), billing.PaymentInput{
		Amount: in.Amount, Method: in.Method, Reference: in.Reference,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.PaymentResultResponse{Invoice: dto.ToInvoiceResponse(inv), Payment: dto.ToPaymentResponse(p)})
}

// Payments GET /api/invoices/:id/payments
func (h *InvoiceHandler) Payments(c *fiber.Ctx) error {
	list, err := h.svc.ListPayments(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.InvoicePaymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.ToPaymentResponse(p))
	}
	return c.JSON(out)
}

// PDF GET /api/invoices/:id/pdf
func (h *InvoiceHandler) PDF(c *fiber.Ctx) error {
	data, name, err := h.svc.RenderInvoicePDF(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return attachment(c, "application/pdf", name, data)
}

// CreditNote emite (o devuelve) la nota crédito de una devolución.
// POST /api/returns/:id/credit-note
func (h *InvoiceHandler) CreditNote(c *fiber.Ctx) error {
	inv, err := h.svc.CreateCreditNoteInvoice(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToInvoiceResponse(inv))
}
