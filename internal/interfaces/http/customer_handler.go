package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/dto"
)

// CustomerHandler directorio de clientes (protegido).
type CustomerHandler struct {
	svc *billing.CustomerService
}

// NewCustomerHandler construye el handler.
func NewCustomerHandler(svc *billing.CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

// Create POST /api/customers
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCustomerRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	cu, err := h.svc.Create(c.UserContext(), GetTenant(c), billing.CustomerInfo{Name: in.Name, Phone: in.Phone, Email: in.Email})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToCustomerResponse(cu))
}

// Get GET /api/customers/:id
func (h *CustomerHandler) Get(c *fiber.Ctx) error {
	cu, err := h.svc.Get(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToCustomerResponse(cu))
}

// List GET /api/customers?limit=&offset=
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	p := page(c)
	list, err := h.svc.List(c.UserContext(), GetTenant(c), p.Limit, p.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.CustomerResponse, 0, len(list))
	for _, cu := range list {
		out = append(out, dto.ToCustomerResponse(cu))
	}
	return c.JSON(out)
}
