package models

import (
	"time"

	"github.com/google/uuid"
)

// VehicleModel carries the general warranty policy terms for a model line.
type VehicleModel struct {
	ID                     uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name                   string    `gorm:"column:name;not null;uniqueIndex"`
	LaunchYear             int       `gorm:"column:launch_year;not null"`
	WarrantyDurationMonths int       `gorm:"column:warranty_duration_months;not null"`
	WarrantyMileageLimitKm int       `gorm:"column:warranty_mileage_limit_km;not null"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
