package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/evmotors/warranty-backend/api/responses"
	"github.com/evmotors/warranty-backend/api/validators"
	"github.com/evmotors/warranty-backend/internal/warranty"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/evmotors/warranty-backend/pkg/logger"
)

const purchaseDateLayout = "2006-01-02"

type warrantyPreviewPayload struct {
	OdometerKm   int    `json:"odometerKm" validate:"min=0"`
	PurchaseDate string `json:"purchaseDate" validate:"required"`
}

// WarrantyStatus evaluates current coverage for a VIN at a reported odometer.
func WarrantyStatus(svc warranty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warranty service unavailable"))
			return
		}

		vin := strings.TrimSpace(chi.URLParam(r, "vin"))
		if vin == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "vin is required"))
			return
		}

		odometerKm, err := validators.ParseQueryInt(r, "odometer", -1, 0, 10_000_000)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if odometerKm < 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "odometer query parameter is required"))
			return
		}

		report, err := svc.Evaluate(ctx, vin, odometerKm)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// WarrantyPreview evaluates coverage as if the vehicle had been sold on the
// given date. Works for unsold showroom vehicles.
func WarrantyPreview(svc warranty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warranty service unavailable"))
			return
		}

		vin := strings.TrimSpace(chi.URLParam(r, "vin"))
		if vin == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "vin is required"))
			return
		}

		var payload warrantyPreviewPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		purchaseDate, err := time.Parse(purchaseDateLayout, payload.PurchaseDate)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "purchaseDate must be YYYY-MM-DD"))
			return
		}

		report, err := svc.Preview(ctx, vin, payload.OdometerKm, purchaseDate)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
