package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/CaterTrack/internal/domain/money"
	"github.com/Strob0t/CaterTrack/internal/domain/order"
	"github.com/Strob0t/CaterTrack/internal/port/database"
)

const orderColumns = `id, tenant_id, customer_id, grand_total_cents, paid_till_now_cents, due_cents,
	paid_status, event_count, payment_count, created_at, updated_at`

func scanOrder(row scannable) (order.Order, error) {
	var (
		o                 order.Order
		grand, paid, due int64
	)
	err := row.Scan(&o.ID, &o.TenantID, &o.CustomerID, &grand, &paid, &due,
		&o.PaidStatus, &o.EventCount, &o.PaymentCount, &o.CreatedAt, &o.UpdatedAt)
	o.GrandTotal = money.FromCents(grand)
	o.PaidTillNow = money.FromCents(paid)
	o.Due = money.FromCents(due)
	return o, err
}

func (t *tenantStore) ListOrders(ctx context.Context) ([]order.Order, error) {
	rows, err := t.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE tenant_id = $1 ORDER BY created_at DESC, id`, t.tenantID)
	if err != nil {
		return nil, dbErr(err, "list orders")
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, dbErr(err, "scan order")
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "list orders")
	}
	return orEmpty(out), nil
}

func (t *tenantStore) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(t.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND tenant_id = $2`, id, t.tenantID))
	if err != nil {
		return nil, dbErr(err, "get order %s", id)
	}
	return &o, nil
}

// CreateOrder inserts the order row with zeroed totals, runs apply while the
// new row is still private to the transaction, and persists the folded totals.
func (t *tenantStore) CreateOrder(ctx context.Context, o *order.Order, apply database.OrderMutation) error {
	now := t.now()
	o.TenantID = t.tenantID
	o.CreatedAt, o.UpdatedAt = now, now
	o.Totals = order.NewTotals()

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return dbErr(err, "begin create order tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The customer must belong to the same caterer; no row means it does not.
	tag, err := tx.Exec(ctx, `
		INSERT INTO orders (id, tenant_id, customer_id, paid_status, created_at, updated_at)
		SELECT $1, $2, c.id, $4, $5, $5 FROM customers c WHERE c.id = $3 AND c.tenant_id = $2`,
		o.ID, o.TenantID, o.CustomerID, o.PaidStatus, now,
	)
	if err := execExpectOne(tag, err, "customer %s", o.CustomerID); err != nil {
		return err
	}

	if err := t.applyAndStore(ctx, tx, o, apply); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return dbErr(err, "commit create order %s", o.ID)
	}
	return nil
}

// MutateOrder locks the order row with SELECT ... FOR UPDATE, so concurrent
// mutations of the same order serialize here even across processes.
func (t *tenantStore) MutateOrder(ctx context.Context, orderID string, apply database.OrderMutation) (*order.Order, error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return nil, dbErr(err, "begin mutate order tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
		orderID, t.tenantID))
	if err != nil {
		return nil, dbErr(err, "lock order %s", orderID)
	}

	if err := t.applyAndStore(ctx, tx, &o, apply); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, dbErr(err, "commit order %s", orderID)
	}
	return &o, nil
}

func (t *tenantStore) applyAndStore(ctx context.Context, tx pgx.Tx, o *order.Order, apply database.OrderMutation) error {
	totals, err := apply(ctx, o)
	if err != nil {
		return err
	}
	o.Totals = totals
	o.UpdatedAt = t.now()

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET grand_total_cents = $3, paid_till_now_cents = $4, due_cents = $5,
			paid_status = $6, event_count = $7, payment_count = $8, updated_at = $9
		WHERE id = $1 AND tenant_id = $2`,
		o.ID, t.tenantID, o.GrandTotal.Cents(), o.PaidTillNow.Cents(), o.Due.Cents(),
		o.PaidStatus, o.EventCount, o.PaymentCount, o.UpdatedAt,
	)
	return execExpectOne(tag, err, "store totals for order %s", o.ID)
}
