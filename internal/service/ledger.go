package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	ctotel "github.com/Strob0t/CaterTrack/internal/adapter/otel"
	"github.com/Strob0t/CaterTrack/internal/config"
	"github.com/Strob0t/CaterTrack/internal/domain"
	"github.com/Strob0t/CaterTrack/internal/domain/order"
	"github.com/Strob0t/CaterTrack/internal/port/database"
	"github.com/Strob0t/CaterTrack/internal/port/docstore"
	"github.com/Strob0t/CaterTrack/internal/port/messagequeue"
)

// Mutation causes, reported on orders.updated and as metric attributes.
const (
	CauseOrderCreated = "order.created"
	CauseEventAdded   = "event.added"
	CauseEventUpdated = "event.updated"
	CauseEventDeleted = "event.deleted"
	CausePaymentAdded = "payment.added"
	CauseRecompute    = "recompute"
	CauseReconcile    = "reconcile"
)

const defaultReconcileParallel = 4

// DocWrite performs the document side of an order mutation. It runs while
// the order is locked; o holds the totals as they were before the write.
type DocWrite func(ctx context.Context, docs docstore.TenantDocs, o *order.Order) error

// Ledger owns every write that changes an order's aggregate. Events and
// payments live in the document store, the aggregate lives on the order row,
// and CommitOrderMutation is the only path that touches both.
type Ledger struct {
	store   database.Store
	docs    docstore.Store
	locks   *keyLock
	cfg     config.Ledger
	queue   messagequeue.Queue
	metrics *ctotel.Metrics
	now     func() time.Time
	newID   func() string
}

// NewLedger creates a ledger over the relational and document stores.
func NewLedger(store database.Store, docs docstore.Store, cfg config.Ledger) *Ledger {
	return &Ledger{
		store: store,
		docs:  docs,
		locks: newKeyLock(),
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
		newID: newID,
	}
}

// SetQueue enables orders.updated publication after each commit.
func (l *Ledger) SetQueue(q messagequeue.Queue) { l.queue = q }

// SetMetrics attaches the otel instruments.
func (l *Ledger) SetMetrics(m *ctotel.Metrics) { l.metrics = m }

// CommitOrderMutation runs write and recomputes the order's aggregate as one
// unit:
//
//  1. the in-process lock for tenant+order is taken;
//  2. the store opens a transaction and locks the order row (FOR UPDATE);
//  3. write applies the document change;
//  4. all events and payments of the order are folded into fresh totals;
//  5. the totals are written to the order row and the transaction commits.
//
// A failure in 1-4 rolls the transaction back. Documents are written before
// the commit, so a failed commit after a successful write leaves the stored
// aggregate behind the documents until Recompute, Reconcile or the next
// mutation of the same order folds them again.
//
// A nil write is a pure recompute.
func (l *Ledger) CommitOrderMutation(ctx context.Context, tenantID, orderID, cause string, write DocWrite) (*order.Order, error) {
	unlock, err := l.locks.Lock(ctx, tenantID+"/"+orderID)
	if err != nil {
		return nil, fmt.Errorf("lock order %s: %w", orderID, err)
	}
	defer unlock()

	if l.cfg.MutationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.MutationTimeout)
		defer cancel()
	}

	ctx, span := ctotel.StartOrderMutationSpan(ctx, tenantID, orderID, cause)
	defer span.End()
	started := time.Now()

	docs := l.docs.Tenant(tenantID)
	o, err := l.store.Tenant(tenantID).MutateOrder(ctx, orderID, func(ctx context.Context, o *order.Order) (order.Totals, error) {
		if write != nil {
			if err := write(ctx, docs, o); err != nil {
				return order.Totals{}, err
			}
		}
		return l.fold(ctx, docs, orderID)
	})
	l.metrics.RecordMutation(ctx, cause, started, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storageErr(err)
	}

	l.publish(ctx, o, cause)
	return o, nil
}

// fold reads every event and payment of the order concurrently and folds them.
func (l *Ledger) fold(ctx context.Context, docs docstore.TenantDocs, orderID string) (order.Totals, error) {
	var (
		events   []order.Event
		payments []order.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = docs.ListEvents(gctx, orderID)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = docs.ListPayments(gctx, orderID)
		return err
	})
	if err := g.Wait(); err != nil {
		return order.Totals{}, fmt.Errorf("fold order %s: %w", orderID, err)
	}
	t, err := order.Fold(events, payments)
	if err != nil {
		return order.Totals{}, validationErr(err)
	}
	return t, nil
}

// CreateOrder inserts the order row, its initial events and the first
// aggregate in one commit. The customer must belong to tenantID.
func (l *Ledger) CreateOrder(ctx context.Context, tenantID string, req *order.CreateRequest) (*order.Detail, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}

	now := l.now()
	o := &order.Order{ID: l.newID(), CustomerID: req.CustomerID}
	events := make([]order.Event, 0, len(req.Events))
	for _, in := range req.Events {
		events = append(events, order.NewEvent(l.newID(), tenantID, o.ID, in, now))
	}

	ctx, span := ctotel.StartOrderMutationSpan(ctx, tenantID, o.ID, CauseOrderCreated)
	defer span.End()
	started := time.Now()

	docs := l.docs.Tenant(tenantID)
	err := l.store.Tenant(tenantID).CreateOrder(ctx, o, func(ctx context.Context, o *order.Order) (order.Totals, error) {
		if len(events) > 0 {
			if err := docs.InsertEvents(ctx, events); err != nil {
				return order.Totals{}, err
			}
		}
		return l.fold(ctx, docs, o.ID)
	})
	l.metrics.RecordMutation(ctx, CauseOrderCreated, started, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storageErr(err)
	}

	l.publish(ctx, o, CauseOrderCreated)
	d := order.NewDetail(*o, nil, events)
	return &d, nil
}

// AddEvents appends events to an order.
func (l *Ledger) AddEvents(ctx context.Context, tenantID, orderID string, inputs []order.EventInput) ([]order.Event, *order.Order, error) {
	if len(inputs) == 0 {
		return nil, nil, validationErr(errors.New("at least one event is required"))
	}
	if err := order.ValidateEvents(inputs); err != nil {
		return nil, nil, validationErr(err)
	}

	var events []order.Event
	o, err := l.CommitOrderMutation(ctx, tenantID, orderID, CauseEventAdded,
		func(ctx context.Context, docs docstore.TenantDocs, o *order.Order) error {
			now := l.now()
			events = make([]order.Event, 0, len(inputs))
			for _, in := range inputs {
				events = append(events, order.NewEvent(l.newID(), tenantID, o.ID, in, now))
			}
			return docs.InsertEvents(ctx, events)
		})
	if err != nil {
		return nil, nil, err
	}
	return events, o, nil
}

// UpdateEvent applies a partial update to one event of the order.
func (l *Ledger) UpdateEvent(ctx context.Context, tenantID, orderID, eventID string, upd *order.EventUpdate) (*order.Event, *order.Order, error) {
	if err := upd.Validate(); err != nil {
		return nil, nil, validationErr(err)
	}

	var updated *order.Event
	o, err := l.CommitOrderMutation(ctx, tenantID, orderID, CauseEventUpdated,
		func(ctx context.Context, docs docstore.TenantDocs, _ *order.Order) error {
			e, err := docs.GetEvent(ctx, orderID, eventID)
			if err != nil {
				return err
			}
			upd.Apply(e, l.now())
			if err := docs.ReplaceEvent(ctx, e); err != nil {
				return err
			}
			updated = e
			return nil
		})
	if err != nil {
		return nil, nil, err
	}
	return updated, o, nil
}

// DeleteEvent removes one event of the order.
func (l *Ledger) DeleteEvent(ctx context.Context, tenantID, orderID, eventID string) (*order.Order, error) {
	return l.CommitOrderMutation(ctx, tenantID, orderID, CauseEventDeleted,
		func(ctx context.Context, docs docstore.TenantDocs, _ *order.Order) error {
			return docs.DeleteEvent(ctx, orderID, eventID)
		})
}

// AddPayment appends a payment. Payments are never updated or deleted.
func (l *Ledger) AddPayment(ctx context.Context, tenantID, orderID string, in *order.PaymentInput) (*order.Payment, *order.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, validationErr(err)
	}

	var p order.Payment
	o, err := l.CommitOrderMutation(ctx, tenantID, orderID, CausePaymentAdded,
		func(ctx context.Context, docs docstore.TenantDocs, o *order.Order) error {
			p = order.NewPayment(l.newID(), tenantID, o.ID, *in, l.now())
			return docs.InsertPayment(ctx, &p)
		})
	if err != nil {
		return nil, nil, err
	}
	l.metrics.RecordPayment(ctx, p.Amount.Cents(), p.Type)
	return &p, o, nil
}

// ListPayments returns the payments of an order, oldest first.
func (l *Ledger) ListPayments(ctx context.Context, tenantID, orderID string) ([]order.Payment, error) {
	if _, err := l.store.Tenant(tenantID).GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return l.docs.Tenant(tenantID).ListPayments(ctx, orderID)
}

// Recompute folds the order's documents again and stores the result.
// Without intervening writes it returns the same totals every time.
func (l *Ledger) Recompute(ctx context.Context, tenantID, orderID string) (*order.Order, error) {
	return l.CommitOrderMutation(ctx, tenantID, orderID, CauseRecompute, nil)
}

// ReconcileReport summarizes a tenant-wide recompute.
type ReconcileReport struct {
	Orders  int `json:"orders"`
	Drifted int `json:"drifted"`
	Failed  int `json:"failed"`
}

// Reconcile recomputes every order of the tenant and reports how many stored
// aggregates differed from their documents. Individual failures do not stop
// the pass; they are joined into the returned error.
func (l *Ledger) Reconcile(ctx context.Context, tenantID string) (ReconcileReport, error) {
	ctx, span := ctotel.StartReconcileSpan(ctx, tenantID)
	defer span.End()

	orders, err := l.store.Tenant(tenantID).ListOrders(ctx)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("list orders: %w", err)
	}

	parallel := l.cfg.ReconcileParallel
	if parallel < 1 {
		parallel = defaultReconcileParallel
	}

	type result struct {
		drifted bool
		err     error
	}
	results := make([]result, len(orders))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := range orders {
		before := orders[i]
		g.Go(func() error {
			after, err := l.CommitOrderMutation(gctx, tenantID, before.ID, CauseReconcile, nil)
			if err != nil {
				results[i] = result{err: fmt.Errorf("order %s: %w", before.ID, err)}
				return nil
			}
			if after.Totals != before.Totals {
				results[i] = result{drifted: true}
				l.metrics.RecordDrift(gctx)
				slog.Warn("order aggregate drift corrected",
					"tenant_id", tenantID, "order_id", before.ID,
					"stored_due", before.Due.String(), "folded_due", after.Due.String())
			}
			return nil
		})
	}
	_ = g.Wait()

	report := ReconcileReport{Orders: len(orders)}
	var errs []error
	for _, r := range results {
		if r.err != nil {
			report.Failed++
			errs = append(errs, r.err)
		}
		if r.drifted {
			report.Drifted++
		}
	}
	if len(errs) > 0 {
		span.SetStatus(codes.Error, "reconcile incomplete")
	}
	return report, errors.Join(errs...)
}

// publish announces a committed mutation. Failures are logged, never returned.
func (l *Ledger) publish(ctx context.Context, o *order.Order, cause string) {
	if l.queue == nil || !l.cfg.PublishOrderEvents {
		return
	}
	data, err := json.Marshal(messagequeue.OrderUpdatedPayload{
		TenantID:     o.TenantID,
		OrderID:      o.ID,
		Cause:        cause,
		GrandTotal:   o.GrandTotal.String(),
		PaidTillNow:  o.PaidTillNow.String(),
		Due:          o.Due.String(),
		PaidStatus:   string(o.PaidStatus),
		EventCount:   o.EventCount,
		PaymentCount: o.PaymentCount,
		At:           o.UpdatedAt,
	})
	if err != nil {
		slog.Error("marshal order update", "order_id", o.ID, "error", err)
		return
	}
	if err := l.queue.Publish(ctx, messagequeue.SubjectOrderUpdated, data); err != nil {
		slog.Warn("publish order update failed", "order_id", o.ID, "cause", cause, "error", err)
	}
}

// storageErr keeps domain sentinels and classifies everything else as a storage failure.
func storageErr(err error) error {
	for _, sentinel := range []error{domain.ErrValidation, domain.ErrNotFound, domain.ErrConflict, domain.ErrStorage, domain.ErrForbidden} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrStorage, err)
}
