package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/catalog"
	"github.com/jhoicas/pos-api/internal/application/dto"
)

// ProductHandler catálogo de la sucursal (protegido).
type ProductHandler struct {
	svc *catalog.Service
}

// NewProductHandler construye el handler.
func NewProductHandler(svc *catalog.Service) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// Create POST /api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.svc.Register(c.UserContext(), GetTenant(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get GET /api/products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	out, err := h.svc.Get(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List GET /api/products?limit=&offset=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	out, err := h.svc.List(c.UserContext(), GetTenant(c), page(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AdjustStock repone unidades.
// POST /api/products/:id/stock
func (h *ProductHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.svc.AdjustStock(c.UserContext(), GetTenant(c), c.Params("id"), in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Movements GET /api/products/:id/movements?limit=
func (h *ProductHandler) Movements(c *fiber.Ctx) error {
	out, err := h.svc.Movements(c.UserContext(), GetTenant(c), c.Params("id"), c.QueryInt("limit", 50))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
