package models

import (
	"time"

	"github.com/evmotors/warranty-backend/pkg/enums"
	"github.com/google/uuid"
)

// Component is a physical serialized unit. Exactly one of WarehouseID and
// VehicleVIN is set, consistent with the status: warehouse-held units
// (in_warehouse, reserved, in_transit) point at a warehouse, installed units
// point at a vehicle.
type Component struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	SerialNumber    string                `gorm:"column:serial_number;not null;uniqueIndex"`
	ComponentTypeID uuid.UUID             `gorm:"column:component_type_id;type:uuid;not null;index"`
	Status          enums.ComponentStatus `gorm:"column:status;not null;default:'in_warehouse'"`
	WarehouseID     *uuid.UUID            `gorm:"column:warehouse_id;type:uuid;index"`
	VehicleVIN      *string               `gorm:"column:vehicle_vin;size:17;index"`
	ReservationID   *uuid.UUID            `gorm:"column:reservation_id;type:uuid;index"`
	InstalledAt     *time.Time            `gorm:"column:installed_at"`
	ComponentType   ComponentType         `gorm:"foreignKey:ComponentTypeID"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
