package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evmotors/warranty-backend/api/controllers"
	"github.com/evmotors/warranty-backend/api/middleware"
	"github.com/evmotors/warranty-backend/internal/components"
	"github.com/evmotors/warranty-backend/internal/rbac"
	"github.com/evmotors/warranty-backend/internal/records"
	"github.com/evmotors/warranty-backend/internal/transfers"
	"github.com/evmotors/warranty-backend/internal/warranty"
	"github.com/evmotors/warranty-backend/pkg/config"
	"github.com/evmotors/warranty-backend/pkg/db"
	"github.com/evmotors/warranty-backend/pkg/logger"
	"github.com/evmotors/warranty-backend/pkg/metrics"
	"github.com/evmotors/warranty-backend/pkg/redis"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Warranty   warranty.Service
	Records    records.Service
	Components components.Service
	Transfers  transfers.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	reg *metrics.Registry,
	svcs Services,
) http.Handler {
	// A typed nil client must not reach the idempotency middleware as a
	// non-nil interface.
	var idemStore redis.IdempotencyStore
	var cachePinger redis.Pinger
	if redisClient != nil {
		idemStore = redisClient
		cachePinger = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(reg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cachePinger))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/vehicles/{vin}/warranty", func(r chi.Router) {
			r.Use(middleware.RequireCapability(rbac.CapWarrantyRead, logg))
			r.Get("/", controllers.WarrantyStatus(svcs.Warranty, logg))
			r.Post("/preview", controllers.WarrantyPreview(svcs.Warranty, logg))
		})

		r.Route("/processing-records", func(r chi.Router) {
			r.With(middleware.RequireCapability(rbac.CapRecordIntake, logg)).Post("/", controllers.RecordIntake(svcs.Records, logg))
			r.With(middleware.RequireCapability(rbac.CapRecordRead, logg)).Get("/", controllers.RecordList(svcs.Records, logg))
			r.With(middleware.RequireCapability(rbac.CapRecordRead, logg)).Get("/{recordId}", controllers.RecordDetail(svcs.Records, logg))
			r.With(middleware.RequireCapability(rbac.CapRecordDiagnose, logg)).Post("/{recordId}/start-diagnosis", controllers.RecordStartDiagnosis(svcs.Records, logg))
			r.With(middleware.RequireCapability(rbac.CapRecordComplete, logg)).Post("/{recordId}/complete", controllers.RecordComplete(svcs.Records, logg))
			r.With(middleware.RequireCapability(rbac.CapRecordCancel, logg)).Post("/{recordId}/cancel", controllers.RecordCancel(svcs.Records, logg))
			r.With(middleware.RequireCapability(rbac.CapComponentSearch, logg)).Get("/{recordId}/compatible-components", controllers.ComponentSearch(svcs.Components, logg))
		})

		r.With(middleware.RequireCapability(rbac.CapCaseLineSubmit, logg)).Post("/guarantee-cases/{caseId}/case-lines", controllers.CaseLinesSubmit(svcs.Records, logg))
		r.With(middleware.RequireCapability(rbac.CapCaseLineDecide, logg)).Patch("/case-lines/approve", controllers.CaseLinesDecide(svcs.Records, logg))

		r.Route("/stock-transfer-requests", func(r chi.Router) {
			r.With(middleware.RequireCapability(rbac.CapTransferCreate, logg)).Post("/", controllers.TransferCreate(svcs.Transfers, logg))
			r.With(middleware.RequireCapability(rbac.CapTransferRead, logg)).Get("/", controllers.TransferList(svcs.Transfers, logg))
			r.With(middleware.RequireCapability(rbac.CapTransferRead, logg)).Get("/{transferId}", controllers.TransferDetail(svcs.Transfers, logg))
			r.With(middleware.RequireCapability(rbac.CapTransferApprove, logg)).Patch("/{transferId}/approve", controllers.TransferApprove(svcs.Transfers, logg))
			r.With(middleware.RequireCapability(rbac.CapTransferShip, logg)).Patch("/{transferId}/ship", controllers.TransferShip(svcs.Transfers, logg))
			r.With(middleware.RequireCapability(rbac.CapTransferReceive, logg)).Patch("/{transferId}/receive", controllers.TransferReceive(svcs.Transfers, logg))
			r.With(middleware.RequireCapability(rbac.CapTransferReject, logg)).Patch("/{transferId}/reject", controllers.TransferReject(svcs.Transfers, logg))
			r.With(middleware.RequireCapability(rbac.CapTransferCancel, logg)).Patch("/{transferId}/cancel", controllers.TransferCancel(svcs.Transfers, logg))
		})
	})

	return r
}
