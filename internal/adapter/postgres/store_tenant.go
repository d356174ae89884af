package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/CaterTrack/internal/domain/customer"
	"github.com/Strob0t/CaterTrack/internal/port/database"
)

// tenantStore is bound to one caterer; every statement filters on tenantID.
type tenantStore struct {
	pool     *pgxpool.Pool
	tenantID string
	now      func() time.Time
}

var _ database.TenantStore = (*tenantStore)(nil)

func (t *tenantStore) TenantID() string { return t.tenantID }

// --- Customers ---

const customerColumns = `id, tenant_id, name, phone, email, created_at, updated_at`

func scanCustomer(row scannable) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (t *tenantStore) ListCustomers(ctx context.Context, q customer.ListQuery) ([]customer.Customer, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	// Both identifiers come from the whitelist enforced by Normalize.
	order := fmt.Sprintf("%s %s, id ASC", q.SortBy, q.SortDir)
	rows, err := t.pool.Query(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE tenant_id = $1 ORDER BY `+order+` OFFSET $2 LIMIT $3`,
		t.tenantID, q.Skip, q.Limit)
	if err != nil {
		return nil, dbErr(err, "list customers")
	}
	defer rows.Close()

	var out []customer.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, dbErr(err, "scan customer")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "list customers")
	}
	return orEmpty(out), nil
}

func (t *tenantStore) GetCustomer(ctx context.Context, id string) (*customer.Customer, error) {
	c, err := scanCustomer(t.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1 AND tenant_id = $2`, id, t.tenantID))
	if err != nil {
		return nil, dbErr(err, "get customer %s", id)
	}
	return &c, nil
}

func (t *tenantStore) GetCustomerByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	c, err := scanCustomer(t.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE phone = $1 AND tenant_id = $2`, phone, t.tenantID))
	if err != nil {
		return nil, dbErr(err, "get customer by phone")
	}
	return &c, nil
}

func (t *tenantStore) GetCustomersByIDs(ctx context.Context, ids []string) (map[string]customer.Customer, error) {
	out := make(map[string]customer.Customer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := t.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE tenant_id = $1 AND id = ANY($2)`, t.tenantID, ids)
	if err != nil {
		return nil, dbErr(err, "get customers")
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, dbErr(err, "scan customer")
		}
		out[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "get customers")
	}
	return out, nil
}

func (t *tenantStore) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	now := t.now()
	c.TenantID = t.tenantID
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := t.pool.Exec(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.TenantID, c.Name, c.Phone, c.Email, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return dbErr(err, "create customer")
	}
	return nil
}

func (t *tenantStore) UpdateCustomer(ctx context.Context, c *customer.Customer) error {
	c.UpdatedAt = t.now()
	tag, err := t.pool.Exec(ctx, `
		UPDATE customers SET name = $3, phone = $4, email = $5, updated_at = $6
		WHERE id = $1 AND tenant_id = $2`,
		c.ID, t.tenantID, c.Name, c.Phone, c.Email, c.UpdatedAt,
	)
	return execExpectOne(tag, err, "update customer %s", c.ID)
}

// DeleteCustomer fails with domain.ErrConflict while any order references the customer.
func (t *tenantStore) DeleteCustomer(ctx context.Context, id string) error {
	tag, err := t.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1 AND tenant_id = $2`, id, t.tenantID)
	return execExpectOne(tag, err, "delete customer %s", id)
}
