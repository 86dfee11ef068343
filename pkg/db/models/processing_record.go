package models

import (
	"time"

	"github.com/evmotors/warranty-backend/pkg/enums"
	"github.com/evmotors/warranty-backend/pkg/types"
	"github.com/google/uuid"
)

// ProcessingRecord is one repair engagement for a vehicle. A partial unique
// index (migration 00003) enforces at most one non-terminal record per VIN.
type ProcessingRecord struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	VIN          string             `gorm:"column:vin;size:17;not null;index"`
	WarehouseID  uuid.UUID          `gorm:"column:warehouse_id;type:uuid;not null"`
	OdometerKm   int                `gorm:"column:odometer_km;not null"`
	Visitor      types.VisitorInfo  `gorm:"column:visitor;type:jsonb"`
	Status       enums.RecordStatus `gorm:"column:status;not null;default:'checked_in'"`
	TechnicianID *uuid.UUID         `gorm:"column:technician_id;type:uuid"`
	CancelReason *string            `gorm:"column:cancel_reason"`
	CheckedInAt  time.Time          `gorm:"column:checked_in_at;not null"`
	Cases        []GuaranteeCase    `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
