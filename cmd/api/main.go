package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evmotors/warranty-backend/api/routes"
	"github.com/evmotors/warranty-backend/internal/components"
	"github.com/evmotors/warranty-backend/internal/policies"
	"github.com/evmotors/warranty-backend/internal/records"
	"github.com/evmotors/warranty-backend/internal/transfers"
	"github.com/evmotors/warranty-backend/internal/warranty"
	"github.com/evmotors/warranty-backend/pkg/config"
	"github.com/evmotors/warranty-backend/pkg/db"
	"github.com/evmotors/warranty-backend/pkg/logger"
	"github.com/evmotors/warranty-backend/pkg/metrics"
	"github.com/evmotors/warranty-backend/pkg/migrate"
	"github.com/evmotors/warranty-backend/pkg/redis"
	"github.com/joho/godotenv"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	reg := metrics.NewRegistry(nil)

	vehicleRepo := warranty.NewRepository(dbClient.DB())
	policyRepo := policies.NewRepository(dbClient.DB())

	warrantyService, err := warranty.NewService(warranty.ServiceParams{
		Repo:       vehicleRepo,
		PolicyRepo: policyRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create warranty service", err)
		os.Exit(1)
	}

	recordsService, err := records.NewService(records.ServiceParams{
		Tx:       dbClient,
		Repo:     records.NewRepository(dbClient.DB()),
		Warranty: warrantyService,
		Metrics:  reg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create records service", err)
		os.Exit(1)
	}

	componentsService, err := components.NewService(components.ServiceParams{
		Repo:        components.NewRepository(dbClient.DB()),
		VehicleRepo: vehicleRepo,
		PolicyRepo:  policyRepo,
		Warranty:    warrantyService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create components service", err)
		os.Exit(1)
	}

	transfersService, err := transfers.NewService(transfers.ServiceParams{
		Tx:      dbClient,
		Repo:    transfers.NewRepository(dbClient.DB()),
		Metrics: reg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create transfers service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, reg, routes.Services{
			Warranty:   warrantyService,
			Records:    recordsService,
			Components: componentsService,
			Transfers:  transfersService,
		}),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
