package models

import (
	"time"

	"github.com/google/uuid"
)

// ComponentType is a replaceable part category catalog entry.
type ComponentType struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Category  string    `gorm:"column:category;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
