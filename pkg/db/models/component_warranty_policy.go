package models

import (
	"time"

	"github.com/google/uuid"
)

// ComponentWarrantyPolicy holds the per (model, component type) coverage terms.
type ComponentWarrantyPolicy struct {
	ID                 uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	ModelID            uuid.UUID     `gorm:"column:model_id;type:uuid;not null;uniqueIndex:idx_policy_model_component,priority:1"`
	ComponentTypeID    uuid.UUID     `gorm:"column:component_type_id;type:uuid;not null;uniqueIndex:idx_policy_model_component,priority:2"`
	DurationMonths     int           `gorm:"column:duration_months;not null"`
	MileageLimitKm     int           `gorm:"column:mileage_limit_km;not null"`
	QuantityPerVehicle int           `gorm:"column:quantity_per_vehicle;not null;default:1"`
	ComponentType      ComponentType `gorm:"foreignKey:ComponentTypeID"`
	CreatedAt          time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
