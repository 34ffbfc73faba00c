package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/auth"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/core"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/services"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/storage"
)

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	q := storage.ListQuery{
		Search: r.URL.Query().Get("search"),
		SortBy: r.URL.Query().Get("sortBy"),
		Order:  r.URL.Query().Get("order"),
	}

	invoices, err := s.deps.Invoices.List(r.Context(), caller.UserID, q)
	if err != nil {
		s.log.ErrorContext(r.Context(), "list invoices failed", "owner_id", caller.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch invoices.")
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceListJSON(invoices))
}

type invoiceRequest struct {
	Vendor             *string  `json:"vendor"`
	Amount             *float64 `json:"amount"`
	DueDate            *string  `json:"dueDate"`
	Category           *string  `json:"category"`
	IsRecurring        *bool    `json:"isRecurring"`
	RecurrenceInterval *string  `json:"recurrenceInterval"`
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	inv := core.Invoice{}
	if req.Vendor != nil {
		inv.Vendor = *req.Vendor
	}
	if req.Amount != nil {
		inv.Amount = core.Money{Cents: core.CentsFromFloat(*req.Amount)}
	}
	if req.Category != nil {
		inv.Category = *req.Category
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid due date.")
			return
		}
		inv.DueDate = due
	}
	if req.IsRecurring != nil && *req.IsRecurring {
		if req.RecurrenceInterval == nil {
			writeError(w, http.StatusBadRequest, "Recurrence interval required for recurring invoices.")
			return
		}
		iv, err := core.ParseRecurrenceInterval(*req.RecurrenceInterval)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid recurrence interval.")
			return
		}
		inv.IsRecurring = true
		inv.Recurrence = &iv
	}

	created, err := s.deps.Invoices.Create(r.Context(), caller.UserID, inv)
	if err != nil {
		writeDomainError(w, err, "Failed to save invoice.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "success",
		"data":   toInvoiceJSON(created),
	})
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	patch := services.UpdatePatch{
		Vendor:   req.Vendor,
		Category: req.Category,
	}
	if req.Amount != nil {
		cents := core.CentsFromFloat(*req.Amount)
		patch.AmountCents = &cents
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			patch.ClearDueDate = true
		} else {
			due, err := parseDueDate(*req.DueDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid due date.")
				return
			}
			patch.DueDate = &due
		}
	}

	updated, err := s.deps.Invoices.Update(r.Context(), caller.UserID, r.PathValue("id"), patch)
	if err != nil {
		writeDomainError(w, err, "Failed to update invoice.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   toInvoiceJSON(updated),
	})
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	if err := s.deps.Invoices.Delete(r.Context(), caller.UserID, r.PathValue("id")); err != nil {
		writeDomainError(w, err, "Failed to delete invoice.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Invoice deleted successfully.",
	})
}

// handleSetRecurring toggles recurrence. A non-empty interval turns it
// on; an empty or missing interval turns it off.
func (s *Server) handleSetRecurring(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	var req struct {
		Interval string `json:"interval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	id := r.PathValue("id")
	var (
		updated core.Invoice
		err     error
	)
	if req.Interval != "" {
		var iv core.RecurrenceInterval
		iv, err = core.ParseRecurrenceInterval(req.Interval)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid recurrence interval.")
			return
		}
		updated, err = s.deps.Invoices.SetRecurring(r.Context(), caller.UserID, id, iv)
	} else {
		updated, err = s.deps.Invoices.ClearRecurring(r.Context(), caller.UserID, id)
	}
	if err != nil {
		writeDomainError(w, err, "Failed to update invoice.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   toInvoiceJSON(updated),
	})
}

// handleUpload runs a document through extraction. A complete result is
// persisted immediately; a partial one is returned for manual entry.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	if s.deps.Extractor == nil {
		writeError(w, http.StatusServiceUnavailable, "Document extraction is not configured.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.deps.UploadMaxBytes)
	file, header, err := r.FormFile("invoice")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No file uploaded."})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file.")
		return
	}

	result, err := s.deps.Extractor.Extract(r.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		s.log.ErrorContext(r.Context(), "extraction failed",
			"owner_id", caller.UserID,
			"filename", header.Filename,
			"error", err)
		writeError(w, http.StatusBadGateway, "An unexpected error occurred.")
		return
	}

	if !result.Complete() {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "manual_required",
			"partialData": result,
		})
		return
	}

	inv := core.Invoice{
		Vendor:   result.Vendor,
		Amount:   core.Money{Cents: core.CentsFromFloat(*result.Amount)},
		Category: result.Category,
	}
	if result.DueDate != nil && *result.DueDate != "" {
		if due, err := parseDueDate(*result.DueDate); err == nil {
			inv.DueDate = due
		}
		// An unparseable extracted date is dropped, not fatal.
	}

	created, err := s.deps.Invoices.Create(r.Context(), caller.UserID, inv)
	if err != nil {
		writeDomainError(w, err, "Failed to save invoice.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "success",
		"data":   toInvoiceJSON(created),
	})
}
