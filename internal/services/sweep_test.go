package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/core"
)

type fakeSweepStore struct {
	mu       sync.Mutex
	invoices map[string]core.Invoice
	listErr  error
}

func newFakeSweepStore(invoices ...core.Invoice) *fakeSweepStore {
	s := &fakeSweepStore{invoices: make(map[string]core.Invoice)}
	for _, inv := range invoices {
		s.invoices[inv.ID] = inv
	}
	return s
}

func (s *fakeSweepStore) ListDueRecurring(_ context.Context, asOf core.Date) ([]core.Invoice, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Invoice
	for _, inv := range s.invoices {
		if inv.IsRecurring && !inv.DueDate.After(asOf.Time) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *fakeSweepStore) AdvanceDueDate(_ context.Context, id string, from, to core.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok || inv.DueDate.String() != from.String() {
		return false, nil
	}
	inv.DueDate = to
	s.invoices[id] = inv
	return true, nil
}

type recordingSink struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *recordingSink) Notify(_ context.Context, ownerID, title, body string, _ map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, ownerID+": "+title+" / "+body)
	return r.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func recurringInvoice(id, owner string, due core.Date, iv *core.RecurrenceInterval) core.Invoice {
	return core.Invoice{
		ID:          id,
		OwnerID:     owner,
		Vendor:      "Netflix",
		Amount:      core.Money{Cents: 49900},
		DueDate:     due,
		Category:    "Entertainment",
		IsRecurring: true,
		Recurrence:  iv,
	}
}

func TestSweepProcessor_AdvancesDueInvoices(t *testing.T) {
	monthly := &core.RecurrenceInterval{Count: 1, Unit: core.UnitMonth}
	store := newFakeSweepStore(
		recurringInvoice("inv-1", "user-a", core.NewDate(2026, 8, 15), monthly),
		recurringInvoice("inv-2", "user-b", core.NewDate(2026, 9, 20), monthly), // not yet due
	)
	sink := &recordingSink{}
	p := NewSweepProcessor(store, sink, testLogger())

	now := time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)
	stats, err := p.Run(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, SweepStats{Checked: 1, Advanced: 1}, stats)

	// Advanced strictly past today.
	require.Equal(t, "2026-09-15", store.invoices["inv-1"].DueDate.String())
	require.Equal(t, "2026-09-20", store.invoices["inv-2"].DueDate.String())

	require.Len(t, sink.calls, 1)
	require.Contains(t, sink.calls[0], "Recurring Bill Updated")
	require.Contains(t, sink.calls[0], "Sep 15, 2026")
}

func TestSweepProcessor_CatchesUpLongGap(t *testing.T) {
	weekly := &core.RecurrenceInterval{Count: 1, Unit: core.UnitWeek}
	store := newFakeSweepStore(
		recurringInvoice("inv-1", "user-a", core.NewDate(2026, 1, 1), weekly),
	)
	p := NewSweepProcessor(store, &recordingSink{}, testLogger())

	now := time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)
	stats, err := p.Run(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Advanced)

	got := store.invoices["inv-1"].DueDate
	require.True(t, got.After(now), "due date %s must be strictly after %s", got, now)
	require.False(t, got.After(now.AddDate(0, 0, 7)), "due date %s overshot the next cycle", got)
}

func TestSweepProcessor_IsolatesPerItemFailures(t *testing.T) {
	monthly := &core.RecurrenceInterval{Count: 1, Unit: core.UnitMonth}
	store := newFakeSweepStore(
		recurringInvoice("inv-bad", "user-a", core.NewDate(2026, 8, 1), nil), // malformed stored interval
		recurringInvoice("inv-ok", "user-a", core.NewDate(2026, 8, 1), monthly),
	)
	p := NewSweepProcessor(store, &recordingSink{}, testLogger())

	stats, err := p.Run(context.Background(), time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, SweepStats{Checked: 2, Advanced: 1, Skipped: 1}, stats)
	require.Equal(t, "2026-09-01", store.invoices["inv-ok"].DueDate.String())
	require.Equal(t, "2026-08-01", store.invoices["inv-bad"].DueDate.String())
}

func TestSweepProcessor_NotifyFailureDoesNotFailRun(t *testing.T) {
	monthly := &core.RecurrenceInterval{Count: 1, Unit: core.UnitMonth}
	store := newFakeSweepStore(
		recurringInvoice("inv-1", "user-a", core.NewDate(2026, 8, 1), monthly),
	)
	sink := &recordingSink{err: errors.New("expo unreachable")}
	p := NewSweepProcessor(store, sink, testLogger())

	stats, err := p.Run(context.Background(), time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, stats.Advanced)
}

func TestSweepProcessor_LostConditionalUpdateSendsNoNotification(t *testing.T) {
	monthly := &core.RecurrenceInterval{Count: 1, Unit: core.UnitMonth}
	inv := recurringInvoice("inv-1", "user-a", core.NewDate(2026, 8, 1), monthly)
	store := newFakeSweepStore(inv)

	// Simulate a concurrent advance between list and update.
	store.invoices["inv-1"] = recurringInvoice("inv-1", "user-a", core.NewDate(2026, 10, 1), monthly)

	sink := &recordingSink{}
	p := NewSweepProcessor(store, sink, testLogger())
	err := p.advance(context.Background(), inv, core.NewDate(2026, 8, 31))
	require.NoError(t, err)
	require.Empty(t, sink.calls)
	require.Equal(t, "2026-10-01", store.invoices["inv-1"].DueDate.String())
}

func TestSweepProcessor_RejectsOverlappingRuns(t *testing.T) {
	p := NewSweepProcessor(newFakeSweepStore(), &recordingSink{}, testLogger())

	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.Run(context.Background(), time.Now())
	require.ErrorIs(t, err, ErrSweepRunning)
}
