package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/application/returns"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// ReturnHandler devoluciones (protegido). Toda precondición violada responde 400.
type ReturnHandler struct {
	svc *returns.Service
}

// NewReturnHandler construye el handler.
func NewReturnHandler(svc *returns.Service) *ReturnHandler {
	return &ReturnHandler{svc: svc}
}

func toReturnInput(in dto.CreateReturnRequest) returns.CreateInput {
	items := make([]returns.ItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, returns.ItemInput{ProductID: it.ProductID, ReturnQuantity: it.ReturnQuantity, ReturnAmount: it.ReturnAmount})
	}
	return returns.CreateInput{
		InvoiceID:         in.InvoiceID,
		OrderID:           in.OrderID,
		Reason:            in.Reason,
		RefundMethod:      in.RefundMethod,
		TotalReturnAmount: in.TotalReturnAmount,
		Items:             items,
	}
}

// CreateWhole POST /api/returns/whole
func (h *ReturnHandler) CreateWhole(c *fiber.Ctx) error {
	return h.create(c, entity.ReturnWhole)
}

// CreatePartial POST /api/returns/partial
func (h *ReturnHandler) CreatePartial(c *fiber.Ctx) error {
	return h.create(c, entity.ReturnPartial)
}

func (h *ReturnHandler) create(c *fiber.Ctx, kind string) error {
	var in dto.CreateReturnRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	create := h.svc.CreatePartialReturn
	if kind == entity.ReturnWhole {
		create = h.svc.CreateWholeReturn
	}
	ret, err := create(c.UserContext(), GetTenant(c), toReturnInput(in))
	if err != nil {
		return writeReturnError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToReturnResponse(ret))
}

// Get GET /api/returns/:id
func (h *ReturnHandler) Get(c *fiber.Ctx) error {
	ret, err := h.svc.GetReturn(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToReturnResponse(ret))
}

// List GET /api/returns?limit=&offset=
func (h *ReturnHandler) List(c *fiber.Ctx) error {
	p := page(c)
	list, err := h.svc.ListReturns(c.UserContext(), GetTenant(c), p.Limit, p.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ReturnResponse, 0, len(list))
	for _, r := range list {
		out = append(out, dto.ToReturnResponse(r))
	}
	return c.JSON(fiber.Map{"items": out, "page": p.Response(len(out))})
}

// UpdateStatus PATCH /api/returns/:id/status
func (h *ReturnHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateReturnStatusRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	ret, err := h.svc.UpdateReturnStatus(c.UserContext(), GetTenant(c), c.Params("id"), in.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToReturnResponse(ret))
}
