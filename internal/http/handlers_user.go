package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/auth"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/core"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/storage"
)

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	result, err := s.deps.Analysis.Summarize(r.Context(), caller.UserID, caller.Name)
	if err != nil {
		s.log.ErrorContext(r.Context(), "analysis failed", "owner_id", caller.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate analysis.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cached":   result.Cached,
		"analysis": result.Summary,
	})
}

// handleGetBudget returns the monthly budget next to the current
// month's total, both in currency units.
func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	var budget core.Money
	user, err := s.deps.Users.GetUser(r.Context(), caller.UserID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch budget data."})
		return
	}
	if err == nil {
		budget = user.MonthlyBudget
	}

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)

	totalCents, err := s.deps.Stats.SumBetween(r.Context(), caller.UserID, start, end)
	if err != nil {
		s.log.ErrorContext(r.Context(), "monthly total failed", "owner_id", caller.UserID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch budget data."})
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{
		"monthlyBudget": budget.Units(),
		"totalExpenses": core.Money{Cents: totalCents}.Units(),
	})
}

func (s *Server) handlePutBudget(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	var req struct {
		MonthlyBudget float64 `json:"monthlyBudget"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MonthlyBudget < 0 {
		writeError(w, http.StatusBadRequest, "Invalid budget.")
		return
	}

	if err := s.deps.Users.UpsertMonthlyBudget(r.Context(), caller.UserID, core.CentsFromFloat(req.MonthlyBudget)); err != nil {
		s.log.ErrorContext(r.Context(), "budget update failed", "owner_id", caller.UserID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update budget."})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Budget updated",
	})
}

func (s *Server) handleSaveToken(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	var req struct {
		FCMToken string `json:"fcmToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FCMToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "FCM token required"})
		return
	}

	if err := s.deps.Users.UpsertPushToken(r.Context(), caller.UserID, req.FCMToken); err != nil {
		s.log.ErrorContext(r.Context(), "save token failed", "owner_id", caller.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save token.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Token saved",
	})
}

func (s *Server) handleFindDeals(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	if s.deps.Deals == nil {
		writeError(w, http.StatusServiceUnavailable, "Deal finding is not configured.")
		return
	}

	var req struct {
		Vendor   string  `json:"vendor"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Vendor == "" || req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Vendor and amount are required."})
		return
	}
	if req.Category == "" {
		req.Category = core.DefaultCategory
	}

	deal, err := s.deps.Deals.FindDeals(r.Context(), req.Vendor, core.CentsFromFloat(req.Amount), req.Category)
	if err != nil {
		s.log.ErrorContext(r.Context(), "find deals failed",
			"owner_id", caller.UserID,
			"vendor", req.Vendor,
			"error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Failed to find deals."})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"deal": deal})
}

// chartWindow is a resolved chart-data request: the time span, the
// grouping bucket and the x-axis labels.
type chartWindow struct {
	start  time.Time
	end    time.Time
	bucket storage.Bucket
	labels []string
	slots  int
}

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
var weekdayLabels = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// resolveChartWindow maps a range name and an offset (how many periods
// back from now) onto a concrete UTC window. Unknown ranges fall back
// to week, like the original API.
func resolveChartWindow(now time.Time, rangeName string, offset int) chartWindow {
	now = now.UTC()

	switch rangeName {
	case "month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -offset, 0)
		next := first.AddDate(0, 1, 0)
		days := next.Add(-time.Hour).Day()

		labels := make([]string, days)
		for i := range labels {
			day := i + 1
			if day%5 == 0 || day == days {
				labels[i] = strconv.Itoa(day)
			}
		}
		return chartWindow{
			start:  first,
			end:    next.Add(-time.Second),
			bucket: storage.BucketDayOfMonth,
			labels: labels,
			slots:  days,
		}

	case "year":
		year := now.Year() - offset
		return chartWindow{
			start:  time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
			end:    time.Date(year, 12, 31, 23, 59, 59, 0, time.UTC),
			bucket: storage.BucketMonth,
			labels: monthLabels,
			slots:  12,
		}

	default: // week
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		start := day.AddDate(0, 0, -int(day.Weekday())-7*offset)
		return chartWindow{
			start:  start,
			end:    start.AddDate(0, 0, 7).Add(-time.Second),
			bucket: storage.BucketWeekday,
			labels: weekdayLabels,
			slots:  7,
		}
	}
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	rangeName := r.URL.Query().Get("range")
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	win := resolveChartWindow(time.Now(), rangeName, offset)

	totals, err := s.deps.Stats.BucketTotals(r.Context(), caller.UserID, win.start, win.end, win.bucket)
	if err != nil {
		s.log.ErrorContext(r.Context(), "chart data failed", "owner_id", caller.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch chart data.")
		return
	}

	data := make([]float64, win.slots)
	var totalCents int64
	for bucket, cents := range totals {
		idx := bucket - 1
		if idx >= 0 && idx < len(data) {
			data[idx] = core.Money{Cents: cents}.Units()
			totalCents += cents
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"chartData": map[string]any{
			"labels":   win.labels,
			"datasets": []map[string]any{{"data": data}},
		},
		"total":     core.Money{Cents: totalCents}.Units(),
		"dateRange": core.DateOf(win.start).Display() + " - " + core.DateOf(win.end).Display(),
	})
}
