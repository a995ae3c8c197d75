package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/application/order"
)

// OrderHandler pedidos (protegido).
type OrderHandler struct {
	svc *order.Service
}

// NewOrderHandler construye el handler.
func NewOrderHandler(svc *order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Create crea un pedido, descuenta inventario y emite su factura.
// POST /api/orders
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	lines := make([]order.LineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, order.LineInput{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	res, err := h.svc.CreateOrder(c.UserContext(), GetTenant(c), order.CreateInput{
		Customer:      billing.CustomerInfo{Name: in.Customer.Name, Phone: in.Customer.Phone, Email: in.Customer.Email},
		PaymentMethod: in.PaymentMethod,
		Lines:         lines,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToOrderResponse(res.Order, res.Invoice))
}

// Get GET /api/orders/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	o, err := h.svc.GetOrder(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToOrderResponse(o, nil))
}

// List GET /api/orders?limit=&offset=
func (h *OrderHandler) List(c *fiber.Ctx) error {
	p := page(c)
	orders, err := h.svc.ListOrders(c.UserContext(), GetTenant(c), p.Limit, p.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, dto.ToOrderResponse(o, nil))
	}
	return c.JSON(fiber.Map{"items": out, "page": p.Response(len(out))})
}

// History GET /api/orders/:id/history
func (h *OrderHandler) History(c *fiber.Ctx) error {
	rows, err := h.svc.History(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.OrderHistoryResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.ToOrderHistoryResponse(r))
	}
	return c.JSON(out)
}

// UpdateStatus PATCH /api/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateOrderStatusRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	o, err := h.svc.UpdateOrderStatus(c.UserContext(), GetTenant(c), c.Params("id"), order.StatusChange{
		Status: in.Status, OrderStatus: in.OrderStatus, Note: in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToOrderResponse(o, nil))
}

// BulkUpdateStatus PATCH /api/orders/status (solo admin)
func (h *OrderHandler) BulkUpdateStatus(c *fiber.Ctx) error {
	var in dto.BulkUpdateOrderStatusRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	n, err := h.svc.BulkUpdateOrderStatus(c.UserContext(), GetTenant(c), in.OrderIDs, order.StatusChange{
		Status: in.Status, OrderStatus: in.OrderStatus, Note: in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.BulkUpdateResponse{Updated: n})
}

// Delete DELETE /api/orders/:id (solo admin)
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.DeleteOrder(c.UserContext(), GetTenant(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
