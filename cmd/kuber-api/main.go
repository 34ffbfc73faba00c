package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/ai"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/auth"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/cache"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/config"
	apiserver "github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/http"
	applog "github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/log"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/services"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentApp})
	applog.SetDefault(logger)

	logger.Info("Starting kuber-api")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Gemini is optional; without an API key the upload, analysis and
	// deal endpoints degrade instead of the whole server refusing to
	// start.
	var (
		extractor  ai.Extractor
		summarizer ai.Summarizer
		deals      ai.DealFinder
	)
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout)
		if err != nil {
			logger.Error("Failed to initialize Gemini client", "error", err)
			os.Exit(1)
		}
		extractor, summarizer, deals = gemini, gemini, gemini
		logger.Info("Gemini client initialized", "model", cfg.GeminiModel)
	} else {
		logger.Warn("GEMINI_API_KEY not set - document extraction and deal finding disabled")
	}

	analysisCache := cache.NewAnalysisCache(cfg.AnalysisCacheSize, cfg.AnalysisCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(analysisCache)
	cacheManager.StartCleanup(time.Hour)
	defer cacheManager.Stop()

	analysisLog := logger.WithComponent(applog.ComponentAnalysis)
	analysis := services.NewAnalysisService(repo, repo, analysisCache, summarizerOrUnavailable(summarizer), analysisLog.Logger)

	srv := apiserver.NewServer(":"+cfg.Port, apiserver.Deps{
		Invoices:       services.NewInvoiceService(repo),
		Analysis:       analysis,
		Users:          repo,
		Stats:          repo,
		Verifier:       auth.NewJWTVerifier([]byte(cfg.JWTSecret)),
		Extractor:      extractor,
		Deals:          deals,
		Logger:         logger.WithComponent(applog.ComponentHTTP).Logger,
		UploadMaxBytes: cfg.UploadMaxBytes,
	})

	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting API server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// summarizerOrUnavailable keeps the analysis endpoint alive without a
// configured model by always reporting the upstream as unavailable; the
// service then serves its fallback text.
func summarizerOrUnavailable(s ai.Summarizer) ai.Summarizer {
	if s != nil {
		return s
	}
	return unavailableSummarizer{}
}

type unavailableSummarizer struct{}

func (unavailableSummarizer) Summarize(context.Context, ai.SummaryRequest) (string, error) {
	return "", ai.ErrEmptyResponse
}
