package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

const customerColumns = `id, company_id, name, email, phone, created_at, updated_at`

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var c entity.Customer
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persiste un nuevo cliente.
func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	_, err := r.q.Exec(ctx, `INSERT INTO customers (`+customerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.CompanyID, c.Name, c.Email, c.Phone, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepo) one(ctx context.Context, what, query string, args ...any) (*entity.Customer, error) {
	c, err := scanCustomer(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return c, nil
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.one(ctx, "get customer", `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

// FindByPhone devuelve el cliente más antiguo de la empresa con ese teléfono.
func (r *CustomerRepo) FindByPhone(ctx context.Context, companyID, phone string) (*entity.Customer, error) {
	return r.one(ctx, "find customer by phone", `
		SELECT `+customerColumns+` FROM customers
		WHERE company_id = $1 AND phone = $2
		ORDER BY created_at LIMIT 1`, companyID, phone)
}

// FindByEmail como FindByPhone, sin distinguir mayúsculas.
func (r *CustomerRepo) FindByEmail(ctx context.Context, companyID, email string) (*entity.Customer, error) {
	return r.one(ctx, "find customer by email", `
		SELECT `+customerColumns+` FROM customers
		WHERE company_id = $1 AND email <> '' AND lower(email) = lower($2)
		ORDER BY created_at LIMIT 1`, companyID, email)
}

// ListByCompany lista clientes de la empresa con paginación.
func (r *CustomerRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Customer, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE company_id = $1 ORDER BY name LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
