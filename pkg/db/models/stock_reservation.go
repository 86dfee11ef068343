package models

import (
	"time"

	"github.com/evmotors/warranty-backend/pkg/enums"
	"github.com/google/uuid"
)

// StockReservation is the token handed out by the component ledger. The row id
// doubles as the reservation token; repair holds and transfer earmarks share
// the table and differ only in purpose and back-reference.
type StockReservation struct {
	ID              uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	WarehouseID     uuid.UUID                `gorm:"column:warehouse_id;type:uuid;not null;index"`
	ComponentTypeID uuid.UUID                `gorm:"column:component_type_id;type:uuid;not null"`
	Quantity        int                      `gorm:"column:quantity;not null"`
	Purpose         enums.ReservationPurpose `gorm:"column:purpose;not null"`
	Status          enums.ReservationStatus  `gorm:"column:status;not null;default:'active'"`
	CaseLineID      *uuid.UUID               `gorm:"column:case_line_id;type:uuid;index"`
	TransferItemID  *uuid.UUID               `gorm:"column:transfer_item_id;type:uuid;index"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
