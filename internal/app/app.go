// Package app wires together every registry subsystem: config, storage,
// identity, and the domain packages behind the HTTP API. Grounded on the
// teacher's internal/app wiring of stores/services/handlers behind a single
// Run entrypoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/contractforge/registry/internal/audit"
	"github.com/contractforge/registry/internal/config"
	"github.com/contractforge/registry/internal/httpserver"
	"github.com/contractforge/registry/internal/identity"
	"github.com/contractforge/registry/internal/platform"
	"github.com/contractforge/registry/internal/telemetry"
	"github.com/contractforge/registry/pkg/apikey"
	"github.com/contractforge/registry/pkg/auditchecklist"
	"github.com/contractforge/registry/pkg/cache"
	"github.com/contractforge/registry/pkg/capacity"
	"github.com/contractforge/registry/pkg/contract"
	"github.com/contractforge/registry/pkg/featureflag"
	"github.com/contractforge/registry/pkg/multisig"
	"github.com/contractforge/registry/pkg/notify"
	"github.com/contractforge/registry/pkg/ratelimit"
	"github.com/contractforge/registry/pkg/regression"
	"github.com/contractforge/registry/pkg/signing"
	"github.com/contractforge/registry/pkg/soroban"
	"github.com/contractforge/registry/pkg/transparency"
)

// Run is the main application entry point. It reads config, connects to
// infrastructure, and starts the appropriate mode (api or worker).
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting registry", "mode", cfg.Mode, "listen", cfg.ListenAddr())

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = platform.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error("closing redis", "error", err)
			}
		}()
	} else {
		logger.Info("redis disabled (REDIS_URL not set); running with in-process cache and rate limiter")
	}

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	metricsReg := telemetry.NewRegistry(telemetry.All()...)

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, db, rdb, metricsReg)
	case "worker":
		return runWorker(ctx, cfg, logger, db)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry) error {
	// Audit log writer (async, buffered).
	auditWriter := audit.NewWriter(db, logger)
	auditWriter.Start(ctx)
	defer auditWriter.Close()

	// OIDC authenticator (optional — nil if not configured).
	var oidcAuth *identity.OIDCAuthenticator
	if cfg.OIDCIssuerURL != "" && cfg.OIDCClientID != "" {
		var err error
		oidcAuth, err = identity.NewOIDCAuthenticator(ctx, cfg.OIDCIssuerURL, cfg.OIDCClientID)
		if err != nil {
			return fmt.Errorf("initializing OIDC authenticator: %w", err)
		}
		logger.Info("OIDC authentication enabled", "issuer", cfg.OIDCIssuerURL)
	} else {
		logger.Info("OIDC authentication disabled (OIDC_ISSUER_URL not set)")
	}

	apikeyStore := apikey.NewStore(db)
	apikeyAuth := &identity.APIKeyAuthenticator{Store: apikeyStore}

	if cfg.DevActorAddress != "" {
		logger.Warn("DEV_ACTOR_ADDRESS is set — requests with no bearer token or API key will be attributed to this address", "address", cfg.DevActorAddress)
	}

	authMiddleware := identity.Middleware(oidcAuth, apikeyAuth, cfg.DevActorAddress, logger)

	srv := httpserver.NewServer(httpserver.Config{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}, logger, db, rdb, metricsReg, authMiddleware)

	limiter := ratelimit.New(time.Duration(cfg.RateLimitWindowSeconds)*time.Second, ratelimit.Limits{
		ratelimit.BucketRead:          cfg.RateLimitReadPerMinute,
		ratelimit.BucketWrite:         cfg.RateLimitWritePerMinute,
		ratelimit.BucketAuthenticated: cfg.RateLimitAuthPerMinute,
		ratelimit.BucketHealth:        cfg.RateLimitHealthPerMinute,
	})
	healthPaths := map[string]bool{"/healthz": true, "/readyz": true, "/status": true, cfg.MetricsPath: true}
	srv.Router.Use(ratelimit.Middleware(limiter, cfg.RateLimitEndpointOverrides, healthPaths))

	notifier := notify.New(cfg.SlackBotToken, cfg.SlackAlertChannel, logger)
	if notifier.IsEnabled() {
		logger.Info("slack notifications enabled", "channel", cfg.SlackAlertChannel)
	} else {
		logger.Info("slack notifications disabled (SLACK_BOT_TOKEN not set)")
	}

	contentCache := cache.New(cfg.CacheEnabled, cache.Policy(cfg.CachePolicy), cfg.CacheMaxCapacity, time.Duration(cfg.CacheTTLSeconds)*time.Second)

	digestAlgo := signing.DigestSHA256
	if cfg.HashAlgo == string(signing.DigestSHA3) {
		digestAlgo = signing.DigestSHA3
	}

	// --- Stores ---
	contractStore := contract.NewStore(db)
	abiStore := soroban.NewStore(db)
	signingStore := signing.NewStore(db)
	transparencyLog := transparency.NewLog(db)
	multisigStore := multisig.NewStore(db)
	regressionStore := regression.NewStore(db)
	capacityStore := capacity.NewStore(db)
	checklistStore := auditchecklist.NewStore(db)
	featureFlagStore := featureflag.NewStore(db)

	// --- Services ---
	signingService := signing.NewService(signingStore, transparencyLog, logger, digestAlgo)
	multisigService := multisig.NewService(multisigStore, logger)
	regressionService := regression.NewService(regressionStore, regression.Thresholds{
		MinorPct:    cfg.RegressionMinorThreshold,
		MajorPct:    cfg.RegressionMajorThreshold,
		CriticalPct: cfg.RegressionCriticalThreshold,
	}, logger)
	capacityService := capacity.NewService(capacityStore, capacity.Rates{
		Conservative: cfg.CapacityConservativeR,
		Base:         cfg.CapacityBaseR,
		Aggressive:   cfg.CapacityAggressiveR,
		Custom:       cfg.CapacityCustomGrowth,
	}, capacity.Limits{
		capacity.ResourceStorageEntries:  float64(cfg.LimitStorageEntries),
		capacity.ResourceCPUInstructions: float64(cfg.LimitCPUInstrPerTx),
		capacity.ResourceTransactions:    float64(cfg.LimitTxPerLedger),
		capacity.ResourceUniqueUsers:     float64(cfg.LimitUniqueUsers),
		capacity.ResourceWasmBytes:       float64(cfg.LimitWasmBytes),
	}, capacity.CostTable{
		capacity.ResourceStorageEntries:  cfg.CostStorageEntry,
		capacity.ResourceCPUInstructions: cfg.CostCPUInstruction,
		capacity.ResourceTransactions:    cfg.CostTransaction,
		capacity.ResourceUniqueUsers:     cfg.CostUniqueUser,
		capacity.ResourceWasmBytes:       cfg.CostWasmByte,
		capacity.ResourceFeePerOp:        cfg.CostFeePerOp,
	}, cfg.CapacityXLMUSDPrice, cfg.CapacityHorizonMonths, logger)
	checklistService := auditchecklist.NewService(checklistStore, logger)
	featureFlagService := featureflag.NewService(featureFlagStore, logger)

	// --- Handlers ---
	contractHandler := contract.NewHandler(contractStore, abiStore, logger, auditWriter, contentCache)
	srv.APIRouter.Mount("/contracts", contractHandler.Routes())

	signingHandler := signing.NewHandler(signingService, logger, auditWriter)
	srv.APIRouter.Mount("/signing", signingHandler.Routes())

	transparencyHandler := transparency.NewHandler(transparencyLog, logger)
	srv.APIRouter.Mount("/transparency", transparencyHandler.Routes())

	multisigHandler := multisig.NewHandler(multisigService, logger, auditWriter, notifier)
	srv.APIRouter.Mount("/multisig", multisigHandler.Routes())

	regressionHandler := regression.NewHandler(regressionService, logger, auditWriter)
	srv.APIRouter.Mount("/regression", regressionHandler.Routes())

	capacityHandler := capacity.NewHandler(capacityService, capacityStore, logger, auditWriter, notifier)
	srv.APIRouter.Mount("/capacity", capacityHandler.Routes())

	checklistHandler := auditchecklist.NewHandler(checklistService, logger, auditWriter, notifier)
	srv.APIRouter.Mount("/audit-checklist", checklistHandler.Routes())

	apikeyHandler := apikey.NewHandler(logger, auditWriter, db)
	srv.APIRouter.Mount("/api-keys", apikeyHandler.Routes())

	featureFlagHandler := featureflag.NewHandler(featureFlagService, logger, auditWriter)
	srv.APIRouter.Mount("/feature-flags", featureFlagHandler.Routes())

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// runWorker periodically sweeps every contract's latest resource snapshots
// through the capacity planner, so Critical/Breached alerts reach Slack
// even when nobody is polling GET /capacity/{contractID}/plan.
func runWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool) error {
	logger.Info("worker started")

	notifier := notify.New(cfg.SlackBotToken, cfg.SlackAlertChannel, logger)

	contractStore := contract.NewStore(db)
	capacityStore := capacity.NewStore(db)
	capacityService := capacity.NewService(capacityStore, capacity.Rates{
		Conservative: cfg.CapacityConservativeR,
		Base:         cfg.CapacityBaseR,
		Aggressive:   cfg.CapacityAggressiveR,
		Custom:       cfg.CapacityCustomGrowth,
	}, capacity.Limits{
		capacity.ResourceStorageEntries:  float64(cfg.LimitStorageEntries),
		capacity.ResourceCPUInstructions: float64(cfg.LimitCPUInstrPerTx),
		capacity.ResourceTransactions:    float64(cfg.LimitTxPerLedger),
		capacity.ResourceUniqueUsers:     float64(cfg.LimitUniqueUsers),
		capacity.ResourceWasmBytes:       float64(cfg.LimitWasmBytes),
	}, capacity.CostTable{
		capacity.ResourceStorageEntries:  cfg.CostStorageEntry,
		capacity.ResourceCPUInstructions: cfg.CostCPUInstruction,
		capacity.ResourceTransactions:    cfg.CostTransaction,
		capacity.ResourceUniqueUsers:     cfg.CostUniqueUser,
		capacity.ResourceWasmBytes:       cfg.CostWasmByte,
		capacity.ResourceFeePerOp:        cfg.CostFeePerOp,
	}, cfg.CapacityXLMUSDPrice, cfg.CapacityHorizonMonths, logger)

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	sweep := func() {
		contracts, err := contractStore.List(ctx, 1000, 0)
		if err != nil {
			logger.Error("worker: listing contracts for capacity sweep", "error", err)
			return
		}
		for _, c := range contracts {
			report, err := capacityService.Plan(ctx, c.ID.String())
			if err != nil {
				logger.Error("worker: planning capacity", "error", err, "contract_id", c.ID)
				continue
			}
			for _, alert := range report.Alerts {
				if alert.Severity == capacity.SeverityCritical || alert.Severity == capacity.SeverityBreached {
					if err := notifier.CapacityAlert(ctx, c.ID.String(), alert); err != nil {
						logger.Warn("worker: notifying capacity alert", "error", err, "contract_id", c.ID)
					}
				}
			}
		}
	}

	sweep()
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker stopped")
			return nil
		case <-ticker.C:
			sweep()
		}
	}
}
