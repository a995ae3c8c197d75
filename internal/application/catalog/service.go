package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/application/inventory"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// Service catálogo de productos de la sucursal. El stock solo cambia vía el libro de inventario.
type Service struct {
	repos     repository.Repositories
	inventory *inventory.Service
	now       func() time.Time
}

// NewService construye el servicio.
func NewService(repos repository.Repositories, inventorySvc *inventory.Service) *Service {
	return &Service{repos: repos, inventory: inventorySvc, now: time.Now}
}

// Register crea un producto en la sucursal del tenant. Sin stock queda no disponible.
func (s *Service) Register(ctx context.Context, t domain.Tenant, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := t.RequireBranch(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.SKU) == "" {
		return nil, domain.Invalid("sku and name are required")
	}
	if in.Price.IsNegative() {
		return nil, domain.Invalid("price cannot be negative")
	}
	if in.UnitStock < 0 || in.StockThreshold < 0 {
		return nil, domain.Invalid("stock values cannot be negative")
	}
	now := s.now()
	p := &entity.Product{
		ID:             uuid.New().String(),
		CompanyID:      t.CompanyID,
		BranchID:       t.BranchID,
		SKU:            strings.TrimSpace(in.SKU),
		Name:           strings.TrimSpace(in.Name),
		Price:          in.Price,
		UnitStock:      in.UnitStock,
		StockThreshold: in.StockThreshold,
		Status:         entity.ProductAvailable,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.UnitStock == 0 {
		p.Status = entity.ProductUnavailable
	}
	if err := s.repos.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	out := dto.ToProductResponse(p)
	return &out, nil
}

func (s *Service) owned(ctx context.Context, t domain.Tenant, id string) (*entity.Product, error) {
	p, err := s.repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || !t.Owns(p.CompanyID, p.BranchID) {
		return nil, domain.NotFound("Product not found")
	}
	return p, nil
}

// Get obtiene un producto de la sucursal.
func (s *Service) Get(ctx context.Context, t domain.Tenant, id string) (*dto.ProductResponse, error) {
	p, err := s.owned(ctx, t, id)
	if err != nil {
		return nil, err
	}
	out := dto.ToProductResponse(p)
	return &out, nil
}

// List lista productos de la sucursal con paginación. Sin sucursal devuelve una lista vacía.
func (s *Service) List(ctx context.Context, t domain.Tenant, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.Normalize()
	resp := &dto.ProductListResponse{
		Items: []dto.ProductResponse{},
		Page:  page.Response(0),
	}
	if !t.HasBranch() {
		return resp, nil
	}
	list, err := s.repos.Products.ListByBranch(ctx, t.CompanyID, t.BranchID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		resp.Items = append(resp.Items, dto.ToProductResponse(p))
	}
	resp.Page.Count = len(resp.Items)
	return resp, nil
}

// AdjustStock repone stock manualmente y devuelve el producto actualizado.
func (s *Service) AdjustStock(ctx context.Context, t domain.Tenant, id string, qty int) (*dto.ProductResponse, error) {
	if err := t.RequireBranch(); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, t, id); err != nil {
		return nil, err
	}
	ref := inventory.Reference{TransactionID: "adjustment-" + uuid.New().String(), UserID: t.UserID}
	if _, err := s.inventory.RestoreInventory(ctx, id, qty, ref); err != nil {
		return nil, err
	}
	return s.Get(ctx, t, id)
}

// Movements lista los últimos movimientos de stock del producto, del más reciente al más antiguo.
func (s *Service) Movements(ctx context.Context, t domain.Tenant, id string, limit int) ([]dto.InventoryMovementResponse, error) {
	if _, err := s.owned(ctx, t, id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	list, err := s.repos.Movements.ListByProduct(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InventoryMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.ToMovementResponse(m))
	}
	return out, nil
}
