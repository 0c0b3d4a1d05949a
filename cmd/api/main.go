// Command api runs the public HTTP server for the form runtime.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/xordon/webform-go/internal/api"
	"github.com/xordon/webform-go/internal/config"
	"github.com/xordon/webform-go/internal/domain"
	"github.com/xordon/webform-go/internal/i18n"
	"github.com/xordon/webform-go/internal/observability"
	"github.com/xordon/webform-go/internal/storage"
	"github.com/xordon/webform-go/internal/storage/memory"
	"github.com/xordon/webform-go/internal/storage/postgres"
	"github.com/xordon/webform-go/internal/webhook"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(cfg.LogLevel)

	if cfg.OTelEnabled {
		shutdown, err := observability.InitTracer(context.Background(), "webform-api")
		if err != nil {
			logger.Error("otel init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	msgs, err := i18n.New(cfg.Language)
	if err != nil {
		logger.Error("i18n init failed", "error", err)
		os.Exit(1)
	}

	var store storage.Store
	switch cfg.Mode {
	case config.ModeProduction:
		pg, err := postgres.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("postgres init failed", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
	default:
		mem, err := memory.LoadDir(cfg.FixturesDir)
		if err != nil {
			logger.Error("fixture load failed", "dir", cfg.FixturesDir, "error", err)
			os.Exit(1)
		}
		store = mem
	}

	var metrics *observability.Metrics
	if cfg.OTelEnabled {
		if metrics, err = observability.NewMetrics(); err != nil {
			logger.Error("metrics init failed", "error", err)
			os.Exit(1)
		}
	}

	dispatcher := webhook.New(nil, logger, webhook.WithFailureHook(
		func(ctx context.Context, hook domain.Webhook) {
			metrics.RecordWebhookFailure(ctx, hook.ID)
		},
	))

	var verifier api.TokenVerifier
	if cfg.OIDCEnabled() {
		verifier, err = api.NewOIDCVerifier(context.Background(), cfg.OIDCIssuer, cfg.OIDCAudience)
		if err != nil {
			logger.Error("oidc init failed", "issuer", cfg.OIDCIssuer, "error", err)
			os.Exit(1)
		}
	}

	srv := api.New(store, msgs, api.Options{
		CORSOrigins:     cfg.CORSOrigins,
		SubmitRate:      cfg.SubmitRatePerSecond,
		SubmitBurst:     cfg.SubmitBurst,
		DuplicateWindow: cfg.DuplicateWindow,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Verifier:        verifier,
	})

	var handler http.Handler = srv
	if cfg.OTelEnabled {
		handler = otelhttp.NewHandler(handler, "webform-api")
	}

	addr := ":" + cfg.APIPort
	logger.Info("starting API server", "addr", addr, "mode", cfg.Mode, "oidc_enabled", cfg.OIDCEnabled())
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
