package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
	"github.com/jhoicas/pos-api/pkg/phone"
)

// CustomerInfo datos de contacto con los que se busca o crea un cliente.
type CustomerInfo struct {
	Name  string
	Phone string
	Email string
}

// CustomerService directorio de clientes.
type CustomerService struct {
	tx     repository.TxRunner
	repos  repository.Repositories
	region string
	now    func() time.Time
}

// NewCustomerService construye el servicio. region es la región por defecto para normalizar teléfonos.
func NewCustomerService(tx repository.TxRunner, repos repository.Repositories, region string) *CustomerService {
	return &CustomerService{tx: tx, repos: repos, region: region, now: time.Now}
}

func (s *CustomerService) normalize(in CustomerInfo) CustomerInfo {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if strings.TrimSpace(in.Phone) != "" {
		in.Phone = phone.Normalize(in.Phone, s.region)
	} else {
		in.Phone = ""
	}
	return in
}

// ResolveInTx busca el cliente por teléfono, luego por correo; si no existe lo crea con el nombre dado.
// Sin coincidencia y sin nombre falla con InvalidOperation.
func (s *CustomerService) ResolveInTx(ctx context.Context, r repository.Repositories, companyID string, in CustomerInfo) (*entity.Customer, error) {
	in = s.normalize(in)
	if in.Phone != "" {
		c, err := r.Customers.FindByPhone(ctx, companyID, in.Phone)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
	}
	if in.Email != "" {
		c, err := r.Customers.FindByEmail(ctx, companyID, in.Email)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
	}
	if in.Name == "" {
		return nil, domain.InvalidOperation("Customer name is required for new customers")
	}
	return s.insert(ctx, r, companyID, in)
}

func (s *CustomerService) insert(ctx context.Context, r repository.Repositories, companyID string, in CustomerInfo) (*entity.Customer, error) {
	now := s.now()
	c := &entity.Customer{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.Customers.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("crear cliente: %w", err)
	}
	return c, nil
}

// Create registra un cliente explícitamente. Falla con ErrDuplicate si el teléfono o correo ya existen.
func (s *CustomerService) Create(ctx context.Context, t domain.Tenant, in CustomerInfo) (*entity.Customer, error) {
	in = s.normalize(in)
	if in.Name == "" {
		return nil, domain.Invalid("customer name is required")
	}
	if in.Phone != "" && !phone.Valid(in.Phone, s.region) {
		return nil, domain.Invalid("invalid phone number")
	}
	var out *entity.Customer
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		if in.Phone != "" {
			if c, err := r.Customers.FindByPhone(ctx, t.CompanyID, in.Phone); err != nil {
				return err
			} else if c != nil {
				return domain.ErrDuplicate
			}
		}
		if in.Email != "" {
			if c, err := r.Customers.FindByEmail(ctx, t.CompanyID, in.Email); err != nil {
				return err
			} else if c != nil {
				return domain.ErrDuplicate
			}
		}
		var err error
		out, err = s.insert(ctx, r, t.CompanyID, in)
		return err
	})
	return out, err
}

// Get obtiene un cliente de la empresa del tenant.
func (s *CustomerService) Get(ctx context.Context, t domain.Tenant, id string) (*entity.Customer, error) {
	c, err := s.repos.Customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || (t.CompanyID != "" && c.CompanyID != t.CompanyID) {
		return nil, domain.NotFound("Customer not found")
	}
	return c, nil
}

// List lista clientes de la empresa.
func (s *CustomerService) List(ctx context.Context, t domain.Tenant, limit, offset int) ([]*entity.Customer, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repos.Customers.ListByCompany(ctx, t.CompanyID, limit, offset)
}
