package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/core"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/storage"
)

// fakeStore is an in-memory InvoiceStore for service tests.
type fakeStore struct {
	invoices map[string]core.Invoice
	users    map[string]core.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		invoices: make(map[string]core.Invoice),
		users:    make(map[string]core.User),
	}
}

func (f *fakeStore) CreateInvoice(_ context.Context, inv core.Invoice) error {
	f.invoices[inv.ID] = inv
	return nil
}

func (f *fakeStore) GetInvoice(_ context.Context, ownerID, id string) (core.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok || inv.OwnerID != ownerID {
		return core.Invoice{}, core.ErrNotFound
	}
	return inv, nil
}

func (f *fakeStore) ListInvoices(_ context.Context, ownerID string, _ storage.ListQuery) ([]core.Invoice, error) {
	var out []core.Invoice
	for _, inv := range f.invoices {
		if inv.OwnerID == ownerID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateInvoice(_ context.Context, ownerID string, inv core.Invoice) error {
	stored, ok := f.invoices[inv.ID]
	if !ok || stored.OwnerID != ownerID {
		return core.ErrNotFound
	}
	f.invoices[inv.ID] = inv
	return nil
}

func (f *fakeStore) DeleteInvoice(_ context.Context, ownerID, id string) error {
	inv, ok := f.invoices[id]
	if !ok || inv.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(f.invoices, id)
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, uid string) (core.User, error) {
	u, ok := f.users[uid]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func TestInvoiceService_CreateFillsDefaults(t *testing.T) {
	store := newFakeStore()
	svc := NewInvoiceService(store)

	created, err := svc.Create(context.Background(), "user-a", core.Invoice{
		Vendor: "Netflix",
		Amount: core.Money{Cents: 49900},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "user-a", created.OwnerID)
	require.Equal(t, core.DefaultCategory, created.Category)
	require.False(t, created.CreatedAt.IsZero())

	stored, err := store.GetInvoice(context.Background(), "user-a", created.ID)
	require.NoError(t, err)
	require.Equal(t, created, stored)
}

func TestInvoiceService_CreateRejectsInvalid(t *testing.T) {
	svc := NewInvoiceService(newFakeStore())

	_, err := svc.Create(context.Background(), "user-a", core.Invoice{
		Vendor: "  ",
		Amount: core.Money{Cents: 100},
	})
	require.ErrorIs(t, err, core.ErrEmptyVendor)

	_, err = svc.Create(context.Background(), "user-a", core.Invoice{
		Vendor: "Netflix",
		Amount: core.Money{Cents: -1},
	})
	require.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestInvoiceService_UpdatePatchesOnlyGivenFields(t *testing.T) {
	store := newFakeStore()
	svc := NewInvoiceService(store)

	created, err := svc.Create(context.Background(), "user-a", core.Invoice{
		Vendor:   "Airtel",
		Amount:   core.Money{Cents: 49900},
		Category: "Utilities",
		DueDate:  core.NewDate(2026, 9, 10),
	})
	require.NoError(t, err)

	newAmount := int64(59900)
	updated, err := svc.Update(context.Background(), "user-a", created.ID, UpdatePatch{
		AmountCents: &newAmount,
	})
	require.NoError(t, err)
	require.Equal(t, int64(59900), updated.Amount.Cents)
	require.Equal(t, "Airtel", updated.Vendor)
	require.Equal(t, "Utilities", updated.Category)
	require.Equal(t, "2026-09-10", updated.DueDate.String())
}

func TestInvoiceService_UpdateCannotStripDueDateFromRecurring(t *testing.T) {
	store := newFakeStore()
	svc := NewInvoiceService(store)

	created, err := svc.Create(context.Background(), "user-a", core.Invoice{
		Vendor:      "Netflix",
		Amount:      core.Money{Cents: 49900},
		DueDate:     core.NewDate(2026, 9, 10),
		IsRecurring: true,
		Recurrence:  &core.RecurrenceInterval{Count: 1, Unit: core.UnitMonth},
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "user-a", created.ID, UpdatePatch{ClearDueDate: true})
	require.ErrorIs(t, err, core.ErrRecurrenceNoDueDate)

	// Stored invoice is untouched.
	stored, err := svc.Get(context.Background(), "user-a", created.ID)
	require.NoError(t, err)
	require.False(t, stored.DueDate.IsEmpty())
}

func TestInvoiceService_OwnerScoping(t *testing.T) {
	store := newFakeStore()
	svc := NewInvoiceService(store)

	created, err := svc.Create(context.Background(), "user-a", core.Invoice{
		Vendor: "Netflix",
		Amount: core.Money{Cents: 49900},
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "user-b", created.ID)
	require.ErrorIs(t, err, core.ErrNotFound)

	err = svc.Delete(context.Background(), "user-b", created.ID)
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Update(context.Background(), "user-b", created.ID, UpdatePatch{})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestInvoiceService_SetRecurring(t *testing.T) {
	store := newFakeStore()
	svc := NewInvoiceService(store)

	withDue, err := svc.Create(context.Background(), "user-a", core.Invoice{
		Vendor:  "Netflix",
		Amount:  core.Money{Cents: 49900},
		DueDate: core.NewDate(2026, 9, 10),
	})
	require.NoError(t, err)

	updated, err := svc.SetRecurring(context.Background(), "user-a", withDue.ID, core.RecurrenceInterval{Count: 1, Unit: core.UnitMonth})
	require.NoError(t, err)
	require.True(t, updated.IsRecurring)
	require.NotNil(t, updated.Recurrence)

	cleared, err := svc.ClearRecurring(context.Background(), "user-a", withDue.ID)
	require.NoError(t, err)
	require.False(t, cleared.IsRecurring)
	require.Nil(t, cleared.Recurrence)
}

func TestInvoiceService_SetRecurringRequiresDueDate(t *testing.T) {
	store := newFakeStore()
	svc := NewInvoiceService(store)

	noDue, err := svc.Create(context.Background(), "user-a", core.Invoice{
		Vendor: "Netflix",
		Amount: core.Money{Cents: 49900},
	})
	require.NoError(t, err)

	_, err = svc.SetRecurring(context.Background(), "user-a", noDue.ID, core.RecurrenceInterval{Count: 1, Unit: core.UnitMonth})
	require.True(t, errors.Is(err, core.ErrRecurrenceNoDueDate))
}
