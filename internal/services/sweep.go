package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/core"
)

// ErrSweepRunning is returned when a sweep is requested while a previous
// run has not finished.
var ErrSweepRunning = errors.New("recurring sweep already running")

// SweepStore is the slice of the repository the sweep needs.
type SweepStore interface {
	ListDueRecurring(ctx context.Context, asOf core.Date) ([]core.Invoice, error)
	AdvanceDueDate(ctx context.Context, id string, from, to core.Date) (bool, error)
}

// SweepStats summarizes one sweep run.
type SweepStats struct {
	Checked  int
	Advanced int
	Skipped  int
}

// SweepProcessor advances due recurring invoices to their next cycle and
// notifies the owners. One invoice failing never blocks the rest of the
// run, and overlapping runs are rejected outright.
type SweepProcessor struct {
	store  SweepStore
	notify NotificationSink
	log    *slog.Logger
	mu     sync.Mutex
}

func NewSweepProcessor(store SweepStore, notify NotificationSink, log *slog.Logger) *SweepProcessor {
	return &SweepProcessor{store: store, notify: notify, log: log}
}

// Run sweeps every recurring invoice whose due date is on or before the
// day of now, advancing each strictly past that day.
func (p *SweepProcessor) Run(ctx context.Context, now time.Time) (SweepStats, error) {
	if !p.mu.TryLock() {
		return SweepStats{}, ErrSweepRunning
	}
	defer p.mu.Unlock()

	today := core.DateOf(now)

	due, err := p.store.ListDueRecurring(ctx, today)
	if err != nil {
		return SweepStats{}, err
	}

	stats := SweepStats{Checked: len(due)}
	p.log.InfoContext(ctx, "recurring sweep started",
		"as_of", today.String(),
		"due", len(due))

	for _, inv := range due {
		if err := p.advance(ctx, inv, today); err != nil {
			stats.Skipped++
			p.log.ErrorContext(ctx, "failed to advance recurring invoice",
				"invoice_id", inv.ID,
				"owner_id", inv.OwnerID,
				"vendor", inv.Vendor,
				"error", err)
			continue
		}
		stats.Advanced++
	}

	p.log.InfoContext(ctx, "recurring sweep finished",
		"checked", stats.Checked,
		"advanced", stats.Advanced,
		"skipped", stats.Skipped)
	return stats, nil
}

func (p *SweepProcessor) advance(ctx context.Context, inv core.Invoice, today core.Date) error {
	// Rows with a malformed stored interval come back with a nil
	// recurrence. They are skipped, not repaired.
	if inv.Recurrence == nil {
		return core.ErrInvalidInterval
	}

	next, err := core.NextDueDate(inv.DueDate, *inv.Recurrence, today)
	if err != nil {
		return err
	}

	advanced, err := p.store.AdvanceDueDate(ctx, inv.ID, inv.DueDate, next)
	if err != nil {
		return err
	}
	if !advanced {
		// Another run moved it first. Not an error, and no second
		// notification.
		p.log.WarnContext(ctx, "due date already advanced elsewhere, skipping",
			"invoice_id", inv.ID,
			"expected_due", inv.DueDate.String())
		return nil
	}

	p.log.InfoContext(ctx, "advanced recurring invoice",
		"invoice_id", inv.ID,
		"owner_id", inv.OwnerID,
		"vendor", inv.Vendor,
		"old_due", inv.DueDate.String(),
		"new_due", next.String())

	if err := p.notify.Notify(ctx, inv.OwnerID,
		"Recurring Bill Updated",
		"Your bill for "+inv.Vendor+" has a new due date: "+next.Display()+".",
		map[string]string{"invoiceId": inv.ID},
	); err != nil {
		// Delivery is best effort. The due date moved, that is what
		// counts.
		p.log.ErrorContext(ctx, "failed to send recurring notification",
			"invoice_id", inv.ID,
			"owner_id", inv.OwnerID,
			"error", err)
	}
	return nil
}
