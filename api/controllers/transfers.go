package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evmotors/warranty-backend/api/middleware"
	"github.com/evmotors/warranty-backend/api/responses"
	"github.com/evmotors/warranty-backend/api/validators"
	"github.com/evmotors/warranty-backend/internal/transfers"
	"github.com/evmotors/warranty-backend/pkg/auth"
	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/evmotors/warranty-backend/pkg/enums"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/evmotors/warranty-backend/pkg/logger"
	"github.com/evmotors/warranty-backend/pkg/pagination"
)

type createTransferPayload struct {
	RequestingWarehouseID string                `json:"requestingWarehouseId" validate:"required,uuid"`
	FulfillingWarehouseID string                `json:"fulfillingWarehouseId" validate:"required,uuid"`
	Reason                string                `json:"reason"`
	Items                 []transferItemPayload `json:"items" validate:"required,min=1,dive"`
}

type transferItemPayload struct {
	ComponentTypeID   string `json:"componentTypeId" validate:"required,uuid"`
	QuantityRequested int    `json:"quantityRequested" validate:"min=1"`
}

type approveTransferPayload struct {
	Decisions []transferDecisionPayload `json:"decisions" validate:"required,min=1,dive"`
}

type transferDecisionPayload struct {
	ItemID           string `json:"itemId" validate:"required,uuid"`
	QuantityApproved int    `json:"quantityApproved" validate:"min=0"`
}

type shipTransferPayload struct {
	EstimatedDeliveryDate *string `json:"estimatedDeliveryDate"`
}

type transferReasonPayload struct {
	Reason string `json:"reason" validate:"required"`
}

// TransferCreate opens a replenishment request between two warehouses.
func TransferCreate(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfers service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createTransferPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		requesting, err := uuid.Parse(payload.RequestingWarehouseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid requesting warehouse id"))
			return
		}
		fulfilling, err := uuid.Parse(payload.FulfillingWarehouseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fulfilling warehouse id"))
			return
		}

		input := transfers.CreateInput{
			RequestingWarehouseID: requesting,
			FulfillingWarehouseID: fulfilling,
			Reason:                payload.Reason,
		}
		for _, item := range payload.Items {
			typeID, parseErr := uuid.Parse(item.ComponentTypeID)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid component type id"))
				return
			}
			input.Items = append(input.Items, transfers.ItemInput{
				ComponentTypeID:   typeID,
				QuantityRequested: item.QuantityRequested,
			})
		}

		request, err := svc.Create(ctx, actor, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// TransferDetail returns one transfer request with its items.
func TransferDetail(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfers service unavailable"))
			return
		}

		requestID, err := validators.ParseUUIDParam(r, "transferId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := svc.Get(ctx, requestID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// TransferList returns a cursor page, optionally filtered by status.
func TransferList(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfers service unavailable"))
			return
		}

		var status *enums.TransferStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseTransferStatus(raw)
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

// TransferApprove earmarks stock at the fulfilling warehouse per item.
func TransferApprove(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfers service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		requestID, err := validators.ParseUUIDParam(r, "transferId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload approveTransferPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := transfers.ApproveInput{}
		for _, decision := range payload.Decisions {
			itemID, parseErr := uuid.Parse(decision.ItemID)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid item id"))
				return
			}
			input.Decisions = append(input.Decisions, transfers.ItemDecision{
				ItemID:           itemID,
				QuantityApproved: decision.QuantityApproved,
			})
		}

		request, err := svc.Approve(ctx, actor, requestID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// TransferShip marks the earmarked components in transit.
func TransferShip(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfers service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		requestID, err := validators.ParseUUIDParam(r, "transferId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload shipTransferPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := transfers.ShipInput{}
		if payload.EstimatedDeliveryDate != nil {
			eta, parseErr := time.Parse(purchaseDateLayout, *payload.EstimatedDeliveryDate)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "estimatedDeliveryDate must be YYYY-MM-DD"))
				return
			}
			input.EstimatedDeliveryDate = &eta
		}

		request, err := svc.Ship(ctx, actor, requestID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// TransferReceive re-homes the shipped components at the requesting warehouse.
func TransferReceive(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfers service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		requestID, err := validators.ParseUUIDParam(r, "transferId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := svc.Receive(ctx, actor, requestID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// TransferReject declines a pending request on the fulfilling side.
func TransferReject(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return transferTerminate(svc, logg, transfers.Service.Reject)
}

// TransferCancel aborts a request from the requesting side and releases any
// earmarked stock.
func TransferCancel(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return transferTerminate(svc, logg, transfers.Service.Cancel)
}

type transferTerminator func(transfers.Service, context.Context, auth.ActorRef, uuid.UUID, string) (*models.StockTransferRequest, error)

func transferTerminate(svc transfers.Service, logg *logger.Logger, terminate transferTerminator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfers service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		requestID, err := validators.ParseUUIDParam(r, "transferId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload transferReasonPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := terminate(svc, ctx, actor, requestID, payload.Reason)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}
