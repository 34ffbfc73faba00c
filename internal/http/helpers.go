package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"status":  "error",
		"message": message,
	})
}

// writeDomainError maps domain errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message so internals never leak.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "Invoice not found or user not authorized.")
	case errors.Is(err, core.ErrRecurrenceNoDueDate):
		writeError(w, http.StatusBadRequest, "Cannot set recurrence on an invoice with no due date.")
	case errors.Is(err, core.ErrEmptyVendor),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidInterval),
		errors.Is(err, core.ErrRecurrenceMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// invoiceJSON is the wire shape of an invoice. Amounts travel as
// currency units, not cents.
type invoiceJSON struct {
	ID                 string    `json:"id"`
	Vendor             string    `json:"vendor"`
	Amount             float64   `json:"amount"`
	DueDate            *string   `json:"dueDate"`
	Category           string    `json:"category"`
	IsRecurring        bool      `json:"isRecurring"`
	RecurrenceInterval *string   `json:"recurrenceInterval"`
	CreatedAt          time.Time `json:"createdAt"`
}

func toInvoiceJSON(inv core.Invoice) invoiceJSON {
	out := invoiceJSON{
		ID:          inv.ID,
		Vendor:      inv.Vendor,
		Amount:      inv.Amount.Units(),
		Category:    inv.Category,
		IsRecurring: inv.IsRecurring,
		CreatedAt:   inv.CreatedAt,
	}
	if !inv.DueDate.IsEmpty() {
		due := inv.DueDate.String()
		out.DueDate = &due
	}
	if inv.Recurrence != nil {
		iv := inv.Recurrence.String()
		out.RecurrenceInterval = &iv
	}
	return out
}

func toInvoiceListJSON(invoices []core.Invoice) []invoiceJSON {
	out := make([]invoiceJSON, len(invoices))
	for i, inv := range invoices {
		out[i] = toInvoiceJSON(inv)
	}
	return out
}

// parseDueDate accepts both a plain calendar day and a full timestamp,
// which clients send interchangeably. Timestamps are truncated to their
// UTC day.
func parseDueDate(s string) (core.Date, error) {
	if d, err := core.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return core.Date{}, err
	}
	return core.DateOf(t), nil
}
