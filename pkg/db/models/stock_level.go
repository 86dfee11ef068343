package models

import (
	"time"

	"github.com/google/uuid"
)

// StockLevel is the aggregate count per (warehouse, component type).
// QuantityInStock must equal the live count of in_warehouse components for
// the pair; QuantityReserved never exceeds QuantityInStock.
type StockLevel struct {
	WarehouseID      uuid.UUID `gorm:"column:warehouse_id;type:uuid;primaryKey"`
	ComponentTypeID  uuid.UUID `gorm:"column:component_type_id;type:uuid;primaryKey"`
	QuantityInStock  int       `gorm:"column:quantity_in_stock;not null;default:0"`
	QuantityReserved int       `gorm:"column:quantity_reserved;not null;default:0"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
