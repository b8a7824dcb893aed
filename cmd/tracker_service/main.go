package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/upntrack/upn-server/internal/platform/config"
	"github.com/upntrack/upn-server/internal/platform/database"
	"github.com/upntrack/upn-server/internal/platform/logger"
	"github.com/upntrack/upn-server/internal/platform/messagebroker"
	"github.com/upntrack/upn-server/internal/tracker_service/app"
	"github.com/upntrack/upn-server/internal/tracker_service/domain"
	"github.com/upntrack/upn-server/internal/tracker_service/repository/memory"
	"github.com/upntrack/upn-server/internal/tracker_service/repository/postgres"
	httptransport "github.com/upntrack/upn-server/internal/tracker_service/transport/http"
)

const (
	serviceName     = "tracker_service"
	shutdownTimeout = 15 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger = appLogger.With("service", serviceName)
	appLogger.Info("Starting service...",
		"http_port", cfg.HTTPPort,
		"store_driver", cfg.StoreDriver,
		"nats_configured", cfg.NATSUrl != "",
	)

	// Repositories: Postgres by default, in-memory for local runs.
	var (
		operatorRepo domain.OperatorRepository
		phoneRepo    domain.PhoneRepository
		serviceRepo  domain.ServiceRepository
		usageRepo    domain.UsageRepository
	)
	switch cfg.StoreDriver {
	case "memory":
		store := memory.NewStore()
		operatorRepo = store.Operators()
		phoneRepo = store.Phones()
		serviceRepo = store.Services()
		usageRepo = store.Usage()
		appLogger.Info("Using in-memory store; data will not survive a restart")
	case "postgres":
		dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
		if err != nil {
			appLogger.Error("Failed to initialize database connection pool", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()
		appLogger.Info("Database connection pool initialized")
		operatorRepo = postgres.NewPgOperatorRepository(dbPool, appLogger)
		phoneRepo = postgres.NewPgPhoneRepository(dbPool, appLogger)
		serviceRepo = postgres.NewPgServiceRepository(dbPool, appLogger)
		usageRepo = postgres.NewPgUsageRepository(dbPool, appLogger)
	default:
		appLogger.Error("Unknown store driver", "store_driver", cfg.StoreDriver)
		os.Exit(1)
	}

	opts := []app.Option{
		app.WithSearchLimit(cfg.SearchResultLimit),
		app.WithMergeWorkers(cfg.MergeWorkers),
	}

	// NATS is optional; without it lifecycle events are dropped.
	if cfg.NATSUrl != "" {
		natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, appLogger)
		if err != nil {
			appLogger.Error("Failed to connect to NATS", "url", cfg.NATSUrl, "error", err)
		} else {
			defer natsClient.Close()
			appLogger.Info("NATS client connected", "url", cfg.NATSUrl)
			opts = append(opts, app.WithEventPublisher(natsClient))
		}
	}

	application := app.NewApplication(operatorRepo, phoneRepo, serviceRepo, usageRepo, appLogger, opts...)

	validate := validator.New()
	handler := httptransport.NewHandler(application, appLogger, validate)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(httptransport.PrometheusMetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", handler.RegisterRoutes)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		stopSignal := make(chan os.Signal, 1)
		signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-stopSignal:
			appLogger.Info("Received termination signal", "signal", sig.String())
			mainCancel()
			return nil
		case <-groupCtx.Done():
			return nil
		}
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Initiating graceful shutdown of HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("HTTP server shutdown failed", "error", err)
			return err
		}
		appLogger.Info("HTTP server has been shut down gracefully.")
		return nil
	})

	appLogger.Info("Service is ready and running.")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Service group encountered an error", "error", err)
	}
	appLogger.Info("Service shutdown complete.")
}
