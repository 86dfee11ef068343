// Package ledger owns serialized components and per-warehouse stock counts.
// Every mutation here runs inside a caller-provided transaction so workflow
// services can compose reservation, consumption and record updates atomically.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/evmotors/warranty-backend/pkg/enums"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReserveRequest asks for a hold on unreserved stock. Exactly one of
// CaseLineID and TransferItemID backs the reservation, matching Purpose.
type ReserveRequest struct {
	WarehouseID     uuid.UUID
	ComponentTypeID uuid.UUID
	Quantity        int
	Purpose         enums.ReservationPurpose
	CaseLineID      *uuid.UUID
	TransferItemID  *uuid.UUID
}

func (req ReserveRequest) validate() error {
	if req.WarehouseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse id is required")
	}
	if req.ComponentTypeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "component type id is required")
	}
	if req.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !req.Purpose.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid reservation purpose")
	}
	return nil
}

// Reserve places an atomic hold on unreserved stock and flags that many
// in-warehouse components as reserved, oldest serial first for traceability.
// The guard is a single conditional update: two concurrent callers can never
// push quantity_reserved past quantity_in_stock.
func Reserve(ctx context.Context, tx *gorm.DB, req ReserveRequest) (*models.StockReservation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	guard := tx.WithContext(ctx).
		Model(&models.StockLevel{}).
		Where("warehouse_id = ? AND component_type_id = ?", req.WarehouseID, req.ComponentTypeID).
		Where("quantity_in_stock - quantity_reserved >= ?", req.Quantity).
		Update("quantity_reserved", gorm.Expr("quantity_reserved + ?", req.Quantity))
	if guard.Error != nil {
		return nil, guard.Error
	}
	if guard.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient unreserved stock").
			WithDetails(map[string]any{
				"warehouseId":     req.WarehouseID,
				"componentTypeId": req.ComponentTypeID,
				"quantity":        req.Quantity,
			})
	}

	reservation := models.StockReservation{
		ID:              uuid.New(),
		WarehouseID:     req.WarehouseID,
		ComponentTypeID: req.ComponentTypeID,
		Quantity:        req.Quantity,
		Purpose:         req.Purpose,
		Status:          enums.ReservationStatusActive,
		CaseLineID:      req.CaseLineID,
		TransferItemID:  req.TransferItemID,
	}
	if err := tx.WithContext(ctx).Create(&reservation).Error; err != nil {
		return nil, err
	}

	picked := tx.WithContext(ctx).
		Model(&models.Component{}).
		Where("id IN (?)", tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.Component{}).
			Select("id").
			Where("warehouse_id = ? AND component_type_id = ? AND status = ?",
				req.WarehouseID, req.ComponentTypeID, enums.ComponentStatusInWarehouse).
			Order("serial_number ASC").
			Limit(req.Quantity)).
		Updates(map[string]any{
			"status":         enums.ComponentStatusReserved,
			"reservation_id": reservation.ID,
		})
	if picked.Error != nil {
		return nil, picked.Error
	}
	if picked.RowsAffected != int64(req.Quantity) {
		// Aggregate count and live component rows disagree.
		return nil, pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("stock drift: flagged %d of %d components", picked.RowsAffected, req.Quantity))
	}

	return &reservation, nil
}

// ConsumeAndInstall converts an active reservation into installed components
// on the given vehicle, removing the units from warehouse stock.
func ConsumeAndInstall(ctx context.Context, tx *gorm.DB, token uuid.UUID, vin string, installedAt time.Time) error {
	reservation, err := loadReservation(ctx, tx, token)
	if err != nil {
		return err
	}
	if vin == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "vin is required")
	}

	if err := transitionReservation(ctx, tx, reservation, enums.ReservationStatusConsumed); err != nil {
		return err
	}

	moved := tx.WithContext(ctx).
		Model(&models.Component{}).
		Where("reservation_id = ? AND status = ?", reservation.ID, enums.ComponentStatusReserved).
		Updates(map[string]any{
			"status":       enums.ComponentStatusInstalled,
			"vehicle_vin":  vin,
			"warehouse_id": nil,
			"installed_at": installedAt,
		})
	if moved.Error != nil {
		return moved.Error
	}
	if moved.RowsAffected != int64(reservation.Quantity) {
		return pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("stock drift: installed %d of %d components", moved.RowsAffected, reservation.Quantity))
	}

	return adjustStock(ctx, tx, reservation.WarehouseID, reservation.ComponentTypeID,
		-reservation.Quantity, -reservation.Quantity)
}

// Release drops an active reservation without consuming stock; the held
// components return to the unreserved pool.
func Release(ctx context.Context, tx *gorm.DB, token uuid.UUID) error {
	reservation, err := loadReservation(ctx, tx, token)
	if err != nil {
		return err
	}

	if err := transitionReservation(ctx, tx, reservation, enums.ReservationStatusReleased); err != nil {
		return err
	}

	returned := tx.WithContext(ctx).
		Model(&models.Component{}).
		Where("reservation_id = ? AND status = ?", reservation.ID, enums.ComponentStatusReserved).
		Updates(map[string]any{
			"status":         enums.ComponentStatusInWarehouse,
			"reservation_id": nil,
		})
	if returned.Error != nil {
		return returned.Error
	}
	if returned.RowsAffected != int64(reservation.Quantity) {
		return pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("stock drift: returned %d of %d components", returned.RowsAffected, reservation.Quantity))
	}

	return adjustStock(ctx, tx, reservation.WarehouseID, reservation.ComponentTypeID, 0, -reservation.Quantity)
}

// MarkInTransit moves an earmarked reservation's components out of source
// stock at ship time. The reservation stays active until the destination
// receives the shipment; the components keep their source warehouse pointer
// while on the road.
func MarkInTransit(ctx context.Context, tx *gorm.DB, token uuid.UUID) error {
	reservation, err := loadReservation(ctx, tx, token)
	if err != nil {
		return err
	}
	if reservation.Status != enums.ReservationStatusActive {
		return tokenExpired(reservation)
	}

	shipped := tx.WithContext(ctx).
		Model(&models.Component{}).
		Where("reservation_id = ? AND status = ?", reservation.ID, enums.ComponentStatusReserved).
		Update("status", enums.ComponentStatusInTransit)
	if shipped.Error != nil {
		return shipped.Error
	}
	if shipped.RowsAffected != int64(reservation.Quantity) {
		return pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("stock drift: shipped %d of %d components", shipped.RowsAffected, reservation.Quantity))
	}

	// Source counts drop at ship time; receive must not decrement again.
	return adjustStock(ctx, tx, reservation.WarehouseID, reservation.ComponentTypeID,
		-reservation.Quantity, -reservation.Quantity)
}

// CompleteTransfer re-homes in-transit components to the destination
// warehouse and consumes the reservation. Destination stock is created on
// first delivery of a type.
func CompleteTransfer(ctx context.Context, tx *gorm.DB, token uuid.UUID, destinationWarehouseID uuid.UUID) error {
	if destinationWarehouseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "destination warehouse id is required")
	}

	reservation, err := loadReservation(ctx, tx, token)
	if err != nil {
		return err
	}

	if err := transitionReservation(ctx, tx, reservation, enums.ReservationStatusConsumed); err != nil {
		return err
	}

	received := tx.WithContext(ctx).
		Model(&models.Component{}).
		Where("reservation_id = ? AND status = ?", reservation.ID, enums.ComponentStatusInTransit).
		Updates(map[string]any{
			"status":         enums.ComponentStatusInWarehouse,
			"warehouse_id":   destinationWarehouseID,
			"reservation_id": nil,
		})
	if received.Error != nil {
		return received.Error
	}
	if received.RowsAffected != int64(reservation.Quantity) {
		return pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("stock drift: received %d of %d components", received.RowsAffected, reservation.Quantity))
	}

	return addStock(ctx, tx, destinationWarehouseID, reservation.ComponentTypeID, reservation.Quantity)
}

func loadReservation(ctx context.Context, tx *gorm.DB, token uuid.UUID) (*models.StockReservation, error) {
	if token == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation token is required")
	}

	var reservation models.StockReservation
	err := tx.WithContext(ctx).First(&reservation, "id = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "reservation not found")
		}
		return nil, err
	}
	return &reservation, nil
}

// transitionReservation flips active -> target with a guarded update so a
// token can only be spent once even under concurrent retries.
func transitionReservation(ctx context.Context, tx *gorm.DB, reservation *models.StockReservation, target enums.ReservationStatus) error {
	if reservation.Status != enums.ReservationStatusActive {
		return tokenExpired(reservation)
	}

	result := tx.WithContext(ctx).
		Model(&models.StockReservation{}).
		Where("id = ? AND status = ?", reservation.ID, enums.ReservationStatusActive).
		Update("status", target)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tokenExpired(reservation)
	}
	reservation.Status = target
	return nil
}

func tokenExpired(reservation *models.StockReservation) error {
	return pkgerrors.New(pkgerrors.CodeTokenExpired, "reservation token no longer active").
		WithDetails(map[string]any{
			"reservationId": reservation.ID,
			"status":        reservation.Status,
		})
}

// adjustStock applies signed deltas with non-negative guards.
func adjustStock(ctx context.Context, tx *gorm.DB, warehouseID, componentTypeID uuid.UUID, stockDelta, reservedDelta int) error {
	result := tx.WithContext(ctx).
		Model(&models.StockLevel{}).
		Where("warehouse_id = ? AND component_type_id = ?", warehouseID, componentTypeID).
		Where("quantity_in_stock + ? >= 0 AND quantity_reserved + ? >= 0", stockDelta, reservedDelta).
		Updates(map[string]any{
			"quantity_in_stock": gorm.Expr("quantity_in_stock + ?", stockDelta),
			"quantity_reserved": gorm.Expr("quantity_reserved + ?", reservedDelta),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInternal, "stock level update rejected").
			WithDetails(map[string]any{
				"warehouseId":     warehouseID,
				"componentTypeId": componentTypeID,
			})
	}
	return nil
}

// addStock increments destination stock, creating the row on first delivery.
func addStock(ctx context.Context, tx *gorm.DB, warehouseID, componentTypeID uuid.UUID, quantity int) error {
	result := tx.WithContext(ctx).
		Model(&models.StockLevel{}).
		Where("warehouse_id = ? AND component_type_id = ?", warehouseID, componentTypeID).
		Update("quantity_in_stock", gorm.Expr("quantity_in_stock + ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	return tx.WithContext(ctx).Create(&models.StockLevel{
		WarehouseID:      warehouseID,
		ComponentTypeID:  componentTypeID,
		QuantityInStock:  quantity,
		QuantityReserved: 0,
	}).Error
}
