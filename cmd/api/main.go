package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fdg312/dietplan/internal/blob"
	"github.com/fdg312/dietplan/internal/catalog"
	"github.com/fdg312/dietplan/internal/config"
	"github.com/fdg312/dietplan/internal/httpserver"
	"github.com/fdg312/dietplan/internal/logger"
	"github.com/fdg312/dietplan/internal/metrics"
	"github.com/fdg312/dietplan/internal/planner"
)

func main() {
	cfg := config.Load()

	printStartupBanner(cfg)
	validateProductionConfig(cfg)

	lg, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	pl, err := planner.FromConfig(ctx, cfg, catalog.NewRegistry(lg), lg, m)
	if err != nil {
		lg.Fatal("planner setup failed", "error", err)
	}
	store, mode, err := blob.NewBlobStore(ctx, cfg.Blob, lg)
	if err != nil {
		lg.Fatal("blob store setup failed", "error", err)
	}
	lg.Info("blob store ready", "mode", mode)

	srv, err := httpserver.New(cfg, httpserver.Deps{
		Planner: pl,
		Store:   store,
		Log:     lg,
		Metrics: m,
	})
	if err != nil {
		lg.Fatal("server setup failed", "error", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			lg.Fatal("server stopped", "error", err)
		}
	case <-ctx.Done():
		lg.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			lg.Error("shutdown failed", "error", err)
		}
	}
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// Secrets only show as "set" / "not set".
func printStartupBanner(cfg *config.Config) {
	log.Println("========== Diet Plan API ==========")
	log.Printf("  env              = %s", cfg.Env)
	log.Printf("  port             = %d", cfg.Port)
	log.Printf("  log_level        = %s", cfg.LogLevel)

	log.Println("---- catalog ----")
	log.Printf("  catalog_path     = %s", nonEmptyOrDash(cfg.CatalogPath))
	log.Printf("  slot_cap         = %d", cfg.CatalogSlotCap)

	log.Println("---- blob ----")
	log.Printf("  blob_mode        = %s", cfg.Blob.Mode)
	log.Printf("  output_dir       = %s", cfg.Blob.OutputDir)
	if cfg.Blob.Mode != config.BlobModeLocal {
		log.Printf("  s3: %s", cfg.Blob.S3.DiagnosticsSummary())
	}

	log.Println("---- ai ----")
	log.Printf("  ai_mode          = %s", cfg.AIMode)
	log.Printf("  model            = %s", cfg.ModelName())
	switch cfg.AIMode {
	case config.AIModeOpenAI:
		log.Printf("  openai_base_url  = %s", cfg.OpenAIBaseURL)
		log.Printf("  openai_api_key   = %s", setOrNot(cfg.OpenAIAPIKey))
	case config.AIModeGemini:
		log.Printf("  gemini_api_key   = %s", setOrNot(cfg.GeminiAPIKey))
	}
	log.Printf("  calls_per_minute = %d (interval %s)", cfg.Gate.MaxCallsPerMinute, cfg.Gate.Interval())

	a := cfg.Acquisition
	log.Println("---- acquisition ----")
	log.Printf("  max_attempts     = %d (transient %d)", a.MaxAttempts, a.MaxTransientAttempts)
	log.Printf("  backoff          = %s..%s jitter=%.2f", a.BaseBackoff, a.MaxBackoff, a.JitterFraction)
	log.Printf("  tolerance        = %.0f kcal, %d/7 days", a.CalorieToleranceKcal, a.MinDaysWithin)
	log.Printf("  plan_timeout     = %s", cfg.PlanTimeout())

	log.Println("===================================")
}

// validateProductionConfig performs fatal checks that only matter outside local runs.
func validateProductionConfig(cfg *config.Config) {
	isProd := cfg.Env == "production" || cfg.Env == "staging"

	if cfg.Blob.Mode == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			log.Fatalf("FATAL blob: BLOB_MODE=s3 but S3 config is incomplete, missing: %s", strings.Join(missing, ", "))
		}
	}

	if isProd && cfg.AIMode == config.AIModeMock {
		log.Fatalf("FATAL ai: AI_MODE=mock is not allowed in %s", cfg.Env)
	}

	if isProd && len(cfg.CORSAllowedOrigins) == 0 {
		log.Printf("WARNING: no CORS_ALLOWED_ORIGINS in %s, browser clients on other origins are blocked", cfg.Env)
	}
}

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
