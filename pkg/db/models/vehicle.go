package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle is keyed by its VIN. Unsold vehicles carry no purchase date, owner
// or plate; a purchase date implies an owner.
type Vehicle struct {
	VIN             string       `gorm:"column:vin;primaryKey;size:17"`
	ModelID         uuid.UUID    `gorm:"column:model_id;type:uuid;not null"`
	ManufactureDate time.Time    `gorm:"column:manufacture_date;not null"`
	PurchaseDate    *time.Time   `gorm:"column:purchase_date"`
	OwnerName       *string      `gorm:"column:owner_name"`
	OwnerPhone      *string      `gorm:"column:owner_phone"`
	LicensePlate    *string      `gorm:"column:license_plate"`
	Model           VehicleModel `gorm:"foreignKey:ModelID"`
	CreatedAt       time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// IsSold reports whether the vehicle has a warranty basis.
func (v Vehicle) IsSold() bool {
	return v.PurchaseDate != nil
}
