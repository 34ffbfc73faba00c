// Package ai integrates the Gemini document-understanding and text
// generation endpoints behind narrow capability interfaces, so handlers
// and services can be tested against stubs.
package ai

import (
	"context"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/core"
)

// ExtractionResult holds the structured fields Gemini extracted from an
// uploaded document. Vendor and Amount are required for auto-creation;
// when either is missing the caller must fall back to manual entry.
type ExtractionResult struct {
	Vendor   string   `json:"vendor,omitempty"`
	Amount   *float64 `json:"amount,omitempty"`
	DueDate  *string  `json:"dueDate,omitempty"`
	Category string   `json:"category,omitempty"`
}

// Complete reports whether the extraction carries everything needed to
// persist an invoice without user follow-up.
func (r ExtractionResult) Complete() bool {
	return r.Vendor != "" && r.Amount != nil
}

// SummaryRequest is the context handed to the coach summary generation.
type SummaryRequest struct {
	Invoices    []core.Invoice
	UserName    string
	BudgetCents int64
}

// Extractor derives structured invoice fields from a document.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (ExtractionResult, error)
}

// Summarizer produces the free-text spending summary. The result is
// opaque: it is stored and replayed verbatim, never parsed.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

// DealFinder searches for better offers for a service the user pays for.
type DealFinder interface {
	FindDeals(ctx context.Context, vendor string, amountCents int64, category string) (string, error)
}
