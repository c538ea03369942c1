package usecase

import (
	"context"
	"log"
	"time"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/domain/model"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/events"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/metrics"
	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"
)

const (
	DefaultOrderExpiry    = 10 * time.Minute
	DefaultReaperInterval = time.Minute
	DefaultReaperBatch    = 100
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type ReaperConfig struct {
	Expiry   time.Duration
	Interval time.Duration
	Batch    int
}

// Reaper expires PENDING orders older than the expiry and gives their stock back.
type Reaper struct {
	tx     repo.TransactionManager
	notify *notifier
	cfg    ReaperConfig
	clock  Clock
}

func NewReaper(tx repo.TransactionManager, pub events.Publisher, m *metrics.Metrics, cfg ReaperConfig, clock Clock) *Reaper {
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultOrderExpiry
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultReaperInterval
	}
	if cfg.Batch <= 0 {
		cfg.Batch = DefaultReaperBatch
	}
	if clock == nil {
		clock = realClock{}
	}
	return &Reaper{tx: tx, notify: newNotifier(pub, m), cfg: cfg, clock: clock}
}

// Run sweeps every interval until ctx is done.
func (rp *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(rp.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := rp.ExpireStaleOrders(ctx)
			if err != nil {
				log.Printf("reaper: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("reaper: expired %d orders", n)
			}
		}
	}
}

// ExpireStaleOrders returns how many orders it expired. A failing order is
// logged and skipped; it does not stop the sweep.
func (rp *Reaper) ExpireStaleOrders(ctx context.Context) (int, error) {
	cutoff := rp.clock.Now().Add(-rp.cfg.Expiry)

	var stale []model.Order
	err := rp.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		stale, err = r.Orders().ListStalePending(ctx, cutoff, rp.cfg.Batch)
		if err != nil {
			return dbError()
		}
		return nil
	})
	if err != nil {
		return 0, txError(err)
	}

	expired := 0
	for _, o := range stale {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		ok, err := rp.expire(ctx, o.ID)
		if err != nil {
			log.Printf("reaper: order %d: %v", o.ID, err)
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

func (rp *Reaper) expire(ctx context.Context, orderID int64) (bool, error) {
	var t statusTransition
	var released int64
	err := rp.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return storeError(err, "order")
		}
		// paid or cancelled since it was listed
		if o.Status != model.OrderStatusPending {
			return nil
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return dbError()
		}
		for _, it := range items {
			if err := r.Inventory().Release(ctx, it.ProductID, it.Quantity); err != nil {
				return storeError(err, "product")
			}
			released += it.Quantity
		}

		t, err = applyOrderStatus(ctx, r, o, model.OrderStatusExpired)
		return err
	})
	if err != nil {
		return false, txError(err)
	}
	if !t.orderChanged() {
		return false, nil
	}

	rp.notify.transition(ctx, t)
	rp.notify.metrics.OrderExpired(ctx)
	rp.notify.publish(ctx, events.TopicOrderExpired, events.EventOrderExpired, orderID, events.OrderExpiredPayload{
		OrderID:       orderID,
		ReleasedUnits: released,
	})
	return true, nil
}
