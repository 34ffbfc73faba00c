// Package services provides business logic and orchestration between
// storage, the AI clients and notification delivery.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/core"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/storage"
)

// InvoiceStore is the slice of the repository the invoice service needs.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, inv core.Invoice) error
	GetInvoice(ctx context.Context, ownerID, id string) (core.Invoice, error)
	ListInvoices(ctx context.Context, ownerID string, q storage.ListQuery) ([]core.Invoice, error)
	UpdateInvoice(ctx context.Context, ownerID string, inv core.Invoice) error
	DeleteInvoice(ctx context.Context, ownerID, id string) error
}

// InvoiceService owns the invoice lifecycle. Every operation is scoped
// to the calling owner; a foreign invoice ID behaves exactly like a
// missing one.
type InvoiceService struct {
	store InvoiceStore
	now   func() time.Time
}

func NewInvoiceService(store InvoiceStore) *InvoiceService {
	return &InvoiceService{
		store: store,
		now:   time.Now,
	}
}

// Create validates and persists a new invoice for ownerID. ID, owner,
// creation time and the default category are filled in here.
func (s *InvoiceService) Create(ctx context.Context, ownerID string, inv core.Invoice) (core.Invoice, error) {
	inv.ID = uuid.NewString()
	inv.OwnerID = ownerID
	inv.CreatedAt = s.now().UTC()
	if inv.Category == "" {
		inv.Category = core.DefaultCategory
	}

	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}

	if err := s.store.CreateInvoice(ctx, inv); err != nil {
		return core.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

// Get returns one invoice owned by ownerID.
func (s *InvoiceService) Get(ctx context.Context, ownerID, id string) (core.Invoice, error) {
	return s.store.GetInvoice(ctx, ownerID, id)
}

// List returns the owner's invoices filtered and sorted per q.
func (s *InvoiceService) List(ctx context.Context, ownerID string, q storage.ListQuery) ([]core.Invoice, error) {
	return s.store.ListInvoices(ctx, ownerID, q)
}

// UpdatePatch carries the fields a PUT may change. Nil pointers leave
// the stored value untouched.
type UpdatePatch struct {
	Vendor       *string
	AmountCents  *int64
	DueDate      *core.Date
	ClearDueDate bool
	Category     *string
}

// Update applies a partial update to an owned invoice. The merged
// result is re-validated, so a patch can never leave a recurring
// invoice without a due date.
func (s *InvoiceService) Update(ctx context.Context, ownerID, id string, patch UpdatePatch) (core.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, ownerID, id)
	if err != nil {
		return core.Invoice{}, err
	}

	if patch.Vendor != nil {
		inv.Vendor = *patch.Vendor
	}
	if patch.AmountCents != nil {
		inv.Amount = core.Money{Cents: *patch.AmountCents}
	}
	if patch.DueDate != nil {
		inv.DueDate = *patch.DueDate
	} else if patch.ClearDueDate {
		inv.DueDate = core.Date{}
	}
	if patch.Category != nil {
		inv.Category = *patch.Category
	}

	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}

	if err := s.store.UpdateInvoice(ctx, ownerID, inv); err != nil {
		return core.Invoice{}, fmt.Errorf("update invoice: %w", err)
	}
	return inv, nil
}

// Delete removes an owned invoice.
func (s *InvoiceService) Delete(ctx context.Context, ownerID, id string) error {
	return s.store.DeleteInvoice(ctx, ownerID, id)
}

// SetRecurring turns recurrence on with the given interval. The invoice
// must already carry a due date.
func (s *InvoiceService) SetRecurring(ctx context.Context, ownerID, id string, interval core.RecurrenceInterval) (core.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, ownerID, id)
	if err != nil {
		return core.Invoice{}, err
	}

	if inv.DueDate.IsEmpty() {
		return core.Invoice{}, core.ErrRecurrenceNoDueDate
	}

	inv.IsRecurring = true
	inv.Recurrence = &interval

	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}

	if err := s.store.UpdateInvoice(ctx, ownerID, inv); err != nil {
		return core.Invoice{}, fmt.Errorf("set recurring: %w", err)
	}
	return inv, nil
}

// ClearRecurring turns recurrence off and drops the stored interval.
func (s *InvoiceService) ClearRecurring(ctx context.Context, ownerID, id string) (core.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, ownerID, id)
	if err != nil {
		return core.Invoice{}, err
	}

	inv.IsRecurring = false
	inv.Recurrence = nil

	if err := s.store.UpdateInvoice(ctx, ownerID, inv); err != nil {
		return core.Invoice{}, fmt.Errorf("clear recurring: %w", err)
	}
	return inv, nil
}
