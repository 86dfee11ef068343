package models

import (
	"time"

	"github.com/evmotors/warranty-backend/pkg/enums"
	"github.com/google/uuid"
)

// StockTransferRequest asks a fulfilling warehouse to replenish a requesting
// warehouse. Reason is mandatory on rejection and cancellation.
type StockTransferRequest struct {
	ID                    uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	RequestingWarehouseID uuid.UUID            `gorm:"column:requesting_warehouse_id;type:uuid;not null;index"`
	FulfillingWarehouseID uuid.UUID            `gorm:"column:fulfilling_warehouse_id;type:uuid;not null;index"`
	Status                enums.TransferStatus `gorm:"column:status;not null;default:'pending_approval'"`
	Reason                *string              `gorm:"column:reason"`
	EstimatedDeliveryDate *time.Time           `gorm:"column:estimated_delivery_date"`
	ShippedAt             *time.Time           `gorm:"column:shipped_at"`
	ReceivedAt            *time.Time           `gorm:"column:received_at"`
	RequestedBy           uuid.UUID            `gorm:"column:requested_by;type:uuid;not null"`
	Items                 []StockTransferItem  `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// StockTransferItem is one (component type, quantity) entry on a request.
type StockTransferItem struct {
	ID                uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	RequestID         uuid.UUID     `gorm:"column:request_id;type:uuid;not null;index"`
	ComponentTypeID   uuid.UUID     `gorm:"column:component_type_id;type:uuid;not null"`
	QuantityRequested int           `gorm:"column:quantity_requested;not null"`
	QuantityApproved  int           `gorm:"column:quantity_approved;not null;default:0"`
	ReservationID     *uuid.UUID    `gorm:"column:reservation_id;type:uuid"`
	ComponentType     ComponentType `gorm:"foreignKey:ComponentTypeID"`
	CreatedAt         time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
