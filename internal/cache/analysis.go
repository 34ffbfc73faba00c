package cache

import "time"

// AnalysisEntry is one user's memoized spending summary together with the
// fingerprint of the invoice set it was computed from.
type AnalysisEntry struct {
	Summary      string
	InvoiceCount int
	TotalCents   int64
	ComputedAt   time.Time
}

// AnalysisCache memoizes the expensive coach summary per user. An entry is
// only served when the caller's current (count, total) fingerprint matches
// the one recorded at compute time; any store mutation that changes either
// value forces a regeneration. The fingerprint is a heuristic, not a
// content hash: a delete plus an insert of the same amount goes unnoticed,
// which only risks a slightly stale summary.
type AnalysisCache struct {
	entries *LRUCache[AnalysisEntry]
}

// NewAnalysisCache creates a bounded analysis cache. maxUsers and ttl keep
// the per-user entries from accumulating for the process lifetime.
func NewAnalysisCache(maxUsers int, ttl time.Duration) *AnalysisCache {
	return &AnalysisCache{
		entries: NewLRUCache[AnalysisEntry](maxUsers, ttl),
	}
}

// Lookup returns the memoized summary when the fingerprint still matches.
func (c *AnalysisCache) Lookup(userID string, invoiceCount int, totalCents int64) (AnalysisEntry, bool) {
	entry, ok := c.entries.Get(userID)
	if !ok {
		return AnalysisEntry{}, false
	}
	if entry.InvoiceCount != invoiceCount || entry.TotalCents != totalCents {
		return AnalysisEntry{}, false
	}
	return entry, true
}

// Store records a freshly computed summary, overwriting the user's
// previous entry.
func (c *AnalysisCache) Store(userID, summary string, invoiceCount int, totalCents int64) {
	c.entries.Set(userID, AnalysisEntry{
		Summary:      summary,
		InvoiceCount: invoiceCount,
		TotalCents:   totalCents,
		ComputedAt:   time.Now(),
	})
}

// CleanExpired removes expired entries; the cache Manager calls this.
func (c *AnalysisCache) CleanExpired() int {
	return c.entries.CleanExpired()
}

// Size returns the number of cached users.
func (c *AnalysisCache) Size() int {
	return c.entries.Size()
}
