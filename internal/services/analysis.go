package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/ai"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/cache"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/core"
)

// FallbackSummary is served when the model is unreachable. It is never
// cached, so the next request tries the model again.
const FallbackSummary = "I'm having a little trouble analyzing the data right now. Please try again in a moment."

// analysisWindow is how far back the spending summary looks.
const analysisWindow = 30 * 24 * time.Hour

// AnalysisStore is the slice of the repository the analysis needs.
type AnalysisStore interface {
	SumSince(ctx context.Context, ownerID string, since time.Time) (int, int64, error)
	ListCreatedSince(ctx context.Context, ownerID string, since time.Time) ([]core.Invoice, error)
}

// AnalysisResult is a spending summary plus where it came from.
type AnalysisResult struct {
	Summary string
	Cached  bool
}

// AnalysisService generates AI spending summaries. Results are cached
// per user and keyed on an invoice count plus total fingerprint, so a
// summary is regenerated only when the underlying data changed.
type AnalysisService struct {
	store AnalysisStore
	users UserStore
	cache *cache.AnalysisCache
	model ai.Summarizer
	log   *slog.Logger
	group singleflight.Group
	now   func() time.Time
}

func NewAnalysisService(store AnalysisStore, users UserStore, c *cache.AnalysisCache, model ai.Summarizer, log *slog.Logger) *AnalysisService {
	return &AnalysisService{
		store: store,
		users: users,
		cache: c,
		model: model,
		log:   log,
		now:   time.Now,
	}
}

// Summarize returns the spending summary for ownerID, from cache when
// the data fingerprint is unchanged. Concurrent requests for the same
// user share one model call.
func (s *AnalysisService) Summarize(ctx context.Context, ownerID, userName string) (AnalysisResult, error) {
	since := s.now().UTC().Add(-analysisWindow)

	count, total, err := s.store.SumSince(ctx, ownerID, since)
	if err != nil {
		return AnalysisResult{}, err
	}

	if entry, ok := s.cache.Lookup(ownerID, count, total); ok {
		s.log.DebugContext(ctx, "analysis cache hit",
			"owner_id", ownerID,
			"invoice_count", count)
		return AnalysisResult{Summary: entry.Summary, Cached: true}, nil
	}

	v, err, _ := s.group.Do(ownerID, func() (any, error) {
		// A concurrent caller may have filled the cache while this
		// request waited on the group.
		if entry, ok := s.cache.Lookup(ownerID, count, total); ok {
			return AnalysisResult{Summary: entry.Summary, Cached: true}, nil
		}
		return s.generate(ctx, ownerID, userName, since, count, total)
	})
	if err != nil {
		return AnalysisResult{}, err
	}
	return v.(AnalysisResult), nil
}

func (s *AnalysisService) generate(ctx context.Context, ownerID, userName string, since time.Time, count int, total int64) (AnalysisResult, error) {
	invoices, err := s.store.ListCreatedSince(ctx, ownerID, since)
	if err != nil {
		return AnalysisResult{}, err
	}

	var budget int64
	user, err := s.users.GetUser(ctx, ownerID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return AnalysisResult{}, err
	}
	if err == nil {
		budget = user.MonthlyBudget.Cents
	}

	summary, err := s.model.Summarize(ctx, ai.SummaryRequest{
		Invoices:    invoices,
		UserName:    userName,
		BudgetCents: budget,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "analysis generation failed, serving fallback",
			"owner_id", ownerID,
			"error", err)
		return AnalysisResult{Summary: FallbackSummary}, nil
	}

	s.cache.Store(ownerID, summary, count, total)
	s.log.InfoContext(ctx, "analysis generated",
		"owner_id", ownerID,
		"invoice_count", count,
		"total_cents", total)
	return AnalysisResult{Summary: summary}, nil
}
