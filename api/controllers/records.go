package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/evmotors/warranty-backend/api/middleware"
	"github.com/evmotors/warranty-backend/api/responses"
	"github.com/evmotors/warranty-backend/api/validators"
	"github.com/evmotors/warranty-backend/internal/records"
	"github.com/evmotors/warranty-backend/pkg/enums"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/evmotors/warranty-backend/pkg/logger"
	"github.com/evmotors/warranty-backend/pkg/pagination"
	"github.com/evmotors/warranty-backend/pkg/types"
)

type intakePayload struct {
	VIN            string                 `json:"vin" validate:"required,len=17"`
	WarehouseID    string                 `json:"warehouseId" validate:"required,uuid"`
	OdometerKm     int                    `json:"odometerKm" validate:"min=0"`
	Visitor        intakeVisitorPayload   `json:"visitor" validate:"required"`
	GuaranteeCases []guaranteeCasePayload `json:"guaranteeCases" validate:"dive"`
}

type intakeVisitorPayload struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone"`
	Note  string `json:"note"`
}

type guaranteeCasePayload struct {
	Title     string `json:"title" validate:"required"`
	Complaint string `json:"complaint" validate:"required"`
}

type cancelPayload struct {
	Reason string `json:"reason" validate:"required"`
}

// RecordIntake checks a vehicle in and opens its guarantee cases.
func RecordIntake(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "records service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload intakePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		warehouseID, err := uuid.Parse(payload.WarehouseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid warehouse id"))
			return
		}

		input := records.IntakeInput{
			VIN:         strings.ToUpper(strings.TrimSpace(payload.VIN)),
			WarehouseID: warehouseID,
			OdometerKm:  payload.OdometerKm,
			Visitor: types.VisitorInfo{
				Name:  payload.Visitor.Name,
				Phone: payload.Visitor.Phone,
				Note:  payload.Visitor.Note,
			},
		}
		for _, gc := range payload.GuaranteeCases {
			input.GuaranteeCases = append(input.GuaranteeCases, records.GuaranteeCaseInput{
				Title:     gc.Title,
				Complaint: gc.Complaint,
			})
		}

		record, err := svc.Intake(ctx, actor, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// RecordDetail returns one record with its cases and lines.
func RecordDetail(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "records service unavailable"))
			return
		}

		recordID, err := validators.ParseUUIDParam(r, "recordId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		record, err := svc.Get(ctx, recordID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// RecordList returns a cursor page, optionally filtered by status.
func RecordList(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "records service unavailable"))
			return
		}

		var status *enums.RecordStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseRecordStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.List(ctx, status, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// RecordStartDiagnosis assigns the calling technician and moves the record to
// in_diagnosis.
func RecordStartDiagnosis(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "records service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		recordID, err := validators.ParseUUIDParam(r, "recordId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		record, err := svc.StartDiagnosis(ctx, actor, recordID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// RecordComplete closes a fully decided record.
func RecordComplete(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "records service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		recordID, err := validators.ParseUUIDParam(r, "recordId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		record, err := svc.Complete(ctx, actor, recordID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// RecordCancel aborts a record and releases its active reservations.
func RecordCancel(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "records service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		recordID, err := validators.ParseUUIDParam(r, "recordId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload cancelPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		record, err := svc.Cancel(ctx, actor, recordID, payload.Reason)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}
