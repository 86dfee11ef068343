package transfers

import (
	"context"
	"strings"
	"time"

	"github.com/evmotors/warranty-backend/internal/ledger"
	"github.com/evmotors/warranty-backend/pkg/auth"
	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/evmotors/warranty-backend/pkg/enums"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/evmotors/warranty-backend/pkg/metrics"
	"github.com/evmotors/warranty-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service orchestrates inter-warehouse stock transfers on top of the ledger.
type Service interface {
	Create(ctx context.Context, actor auth.ActorRef, input CreateInput) (*models.StockTransferRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*models.StockTransferRequest, error)
	List(ctx context.Context, status *enums.TransferStatus, params pagination.Params) (RequestsPageDTO, error)
	Approve(ctx context.Context, actor auth.ActorRef, requestID uuid.UUID, input ApproveInput) (*models.StockTransferRequest, error)
	Ship(ctx context.Context, actor auth.ActorRef, requestID uuid.UUID, input ShipInput) (*models.StockTransferRequest, error)
	Receive(ctx context.Context, actor auth.ActorRef, requestID uuid.UUID) (*models.StockTransferRequest, error)
	Reject(ctx context.Context, actor auth.ActorRef, requestID uuid.UUID, reason string) (*models.StockTransferRequest, error)
	Cancel(ctx context.Context, actor auth.ActorRef, requestID uuid.UUID, reason string) (*models.StockTransferRequest, error)
}

// ServiceParams groups dependencies for the transfers service.
type ServiceParams struct {
	Tx      txRunner
	Repo    *Repository
	Metrics *metrics.Registry

	// Clock defaults to time.Now.
	Clock func() time.Time
}

type service struct {
	tx      txRunner
	repo    *Repository
	metrics *metrics.Registry
	clock   func() time.Time
}

// NewService builds the transfers service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfers repo is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		tx:      params.Tx,
		repo:    params.Repo,
		metrics: params.Metrics,
		clock:   clock,
	}, nil
}

// Create opens a pending transfer request.
func (s *service) Create(ctx context.Context, actor auth.ActorRef, input CreateInput) (*models.StockTransferRequest, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	for _, warehouseID := range []uuid.UUID{input.RequestingWarehouseID, input.FulfillingWarehouseID} {
		exists, err := s.repo.WarehouseExists(ctx, warehouseID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found").
				WithDetails(map[string]any{"warehouseId": warehouseID})
		}
	}

	request := models.StockTransferRequest{
		ID:                    uuid.New(),
		RequestingWarehouseID: input.RequestingWarehouseID,
		FulfillingWarehouseID: input.FulfillingWarehouseID,
		Status:                enums.TransferStatusPendingApproval,
		RequestedBy:           actor.UserID,
	}
	if reason := strings.TrimSpace(input.Reason); reason != "" {
		request.Reason = &reason
	}
	for _, item := range input.Items {
		request.Items = append(request.Items, models.StockTransferItem{
			ID:                uuid.New(),
			RequestID:         request.ID,
			ComponentTypeID:   item.ComponentTypeID,
			QuantityRequested: item.QuantityRequested,
		})
	}

	if err := s.repo.CreateRequest(ctx, &request); err != nil {
		return nil, err
	}
	return s.repo.FindRequestByID(ctx, request.ID)
}

// Get loads one request.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.StockTransferRequest, error) {
	return s.repo.FindRequestByID(ctx, id)
}

// List pages through requests newest first.
func (s *service) List(ctx context.Context, status *enums.TransferStatus, params pagination.Params) (RequestsPageDTO, error) {
	if status != nil && !status.IsValid() {
		return RequestsPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	return s.repo.ListRequests(ctx, status, params)
}

// Approve earmarks stock at the fulfilling warehouse for every approved item.
// The whole approval is one transaction: a single item short on stock fails
// the request so the fulfilling side can re-approve at lower quantities.
func (s *service) Approve(ctx context.Context, actor auth.ActorRef, requestID uuid.UUID, input ApproveInput) (*models.StockTransferRequest, error) {
	request, err := s.repo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransitionTo(enums.TransferStatusApproved) {
		return nil, invalidTransition(request.Status, enums.TransferStatusApproved)
	}

	itemsByID := make(map[uuid.UUID]struct{}, len(request.Items))
	for _, item := range request.Items {
		itemsByID[item.ID] = struct{}{}
	}

	approvedByItem := make(map[uuid.UUID]int, len(input.Decisions))
	for _, decision := range input.Decisions {
		// A mistyped item id must fail loudly, not read as a full approval.
		if _, ok := itemsByID[decision.ItemID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision references an item not on this request").
				WithDetails(map[string]any{"itemId": decision.ItemID})
		}
		approvedByItem[decision.ItemID] = decision.QuantityApproved
	}

	totalApproved := 0
	for _, item := range request.Items {
		approved, ok := approvedByItem[item.ID]
		if !ok {
			continue
		}
		if approved < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "approved quantity must not be negative").
				WithDetails(map[string]any{"itemId": item.ID})
		}
		if approved > item.QuantityRequested {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "approved quantity exceeds requested").
				WithDetails(map[string]any{"itemId": item.ID, "requested": item.QuantityRequested})
		}
		totalApproved += approved
	}
	if totalApproved == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "approval must grant at least one unit")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		for _, item := range request.Items {
			approved := approvedByItem[item.ID]
			if approved == 0 {
				continue
			}

			itemID := item.ID
			reservation, err := ledger.Reserve(ctx, tx, ledger.ReserveRequest{
				WarehouseID:     request.FulfillingWarehouseID,
				ComponentTypeID: item.ComponentTypeID,
				Quantity:        approved,
				Purpose:         enums.ReservationPurposeTransfer,
				TransferItemID:  &itemID,
			})
			if err != nil {
				if pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
					s.metrics.ObserveReservation(enums.ReservationPurposeTransfer.String(), "insufficient")
				}
				return err
			}
			s.metrics.ObserveReservation(enums.ReservationPurposeTransfer.String(), "granted")

			if err := repo.UpdateItem(ctx, item.ID, approved, &reservation.ID); err != nil {
				return err
			}
		}

		moved, err := repo.TransitionRequest(ctx, request.ID, request.Status, enums.TransferStatusApproved, nil)
		if err != nil {
			return err
		}
		if !moved {
			return invalidTransition(request.Status, enums.TransferStatusApproved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindRequestByID(ctx, request.ID)
}

// Ship hands the earmarked units to the carrier: they leave source stock and
// go in transit, still owned by the source until receipt.
func (s *service) Ship(ctx context.Context, actor auth.ActorRef, requestID uuid.UUID, input ShipInput) (*models.StockTransferRequest, error) {
	request, err := s.repo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransitionTo(enums.TransferStatusShipped) {
		return nil, invalidTransition(request.Status, enums.TransferStatusShipped)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		for _, item := range request.Items {
			if item.ReservationID == nil {
				continue
			}
			if err := ledger.MarkInTransit(ctx, tx, *item.ReservationID); err != nil {
				return err
			}
		}

		updates := map[string]any{"shipped_at": s.clock()}
		if input.EstimatedDeliveryDate != nil {
			updates["estimated_delivery_date"] = *input.EstimatedDeliveryDate
		}
		moved, err := repo.TransitionRequest(ctx, request.ID, request.Status, enums.TransferStatusShipped, updates)
		if err != nil {
			return err
		}
		if !moved {
			return invalidTransition(request.Status, enums.TransferStatusShipped)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindRequestByID(ctx, request.ID)
}

// Receive completes the transfer: in-transit units re-home to the requesting
// warehouse and its stock rises by exactly the approved quantities.
func (s *service) Receive(ctx context.Context, actor auth.ActorRef, requestID uuid.UUID) (*models.StockTransferRequest, error) {
	request, err := s.repo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransitionTo(enums.TransferStatusReceived) {
		return nil, invalidTransition(request.Status, enums.TransferStatusReceived)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		for _, item := range request.Items {
			if item.ReservationID == nil {
				continue
			}
			if err := ledger.CompleteTransfer(ctx, tx, *item.ReservationID, request.RequestingWarehouseID); err != nil {
				return err
			}
		}

		moved, err := repo.TransitionRequest(ctx, request.ID, request.Status, enums.TransferStatusReceived,
			map[string]any{"received_at": s.clock()})
		if err != nil {
			return err
		}
		if !moved {
			return invalidTransition(request.Status, enums.TransferStatusReceived)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindRequestByID(ctx, request.ID)
}

// Reject declines a pending request; a non-empty reason is mandatory.
func (s *service) Reject(ctx context.Context, actor auth.ActorRef, requestID uuid.UUID, reason string) (*models.StockTransferRequest, error) {
	return s.terminate(ctx, requestID, enums.TransferStatusRejected, reason)
}

// Cancel withdraws a pending or approved request, releasing any earmarks.
func (s *service) Cancel(ctx context.Context, actor auth.ActorRef, requestID uuid.UUID, reason string) (*models.StockTransferRequest, error) {
	return s.terminate(ctx, requestID, enums.TransferStatusCancelled, reason)
}

func (s *service) terminate(ctx context.Context, requestID uuid.UUID, target enums.TransferStatus, reason string) (*models.StockTransferRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	request, err := s.repo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransitionTo(target) {
		return nil, invalidTransition(request.Status, target)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		for _, item := range request.Items {
			if item.ReservationID == nil {
				continue
			}
			if err := ledger.Release(ctx, tx, *item.ReservationID); err != nil {
				return err
			}
		}

		moved, err := repo.TransitionRequest(ctx, request.ID, request.Status, target,
			map[string]any{"reason": reason})
		if err != nil {
			return err
		}
		if !moved {
			return invalidTransition(request.Status, target)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindRequestByID(ctx, request.ID)
}

func invalidTransition(from, to enums.TransferStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "invalid transfer transition").
		WithDetails(map[string]any{"from": from, "to": to})
}

func validateCreate(input CreateInput) error {
	details := map[string]string{}
	if input.RequestingWarehouseID == uuid.Nil {
		details["requestingWarehouseId"] = "required"
	}
	if input.FulfillingWarehouseID == uuid.Nil {
		details["fulfillingWarehouseId"] = "required"
	}
	if input.RequestingWarehouseID != uuid.Nil && input.RequestingWarehouseID == input.FulfillingWarehouseID {
		details["fulfillingWarehouseId"] = "must differ from requesting warehouse"
	}
	if len(input.Items) == 0 {
		details["items"] = "at least one item is required"
	}
	for _, item := range input.Items {
		if item.ComponentTypeID == uuid.Nil {
			details["items"] = "component type is required"
		}
		if item.QuantityRequested <= 0 {
			details["items"] = "quantity must be positive"
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid transfer request").WithDetails(details)
	}
	return nil
}
