package ledger

import (
	"context"

	"github.com/evmotors/warranty-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Drift is one (warehouse, component type) pair whose aggregate counters
// disagree with the live component rows.
type Drift struct {
	WarehouseID      uuid.UUID `json:"warehouseId"`
	ComponentTypeID  uuid.UUID `json:"componentTypeId"`
	RecordedInStock  int       `json:"recordedInStock"`
	ActualInStock    int       `json:"actualInStock"`
	RecordedReserved int       `json:"recordedReserved"`
	ActualReserved   int       `json:"actualReserved"`
}

// CheckConsistency verifies the ledger invariant at any time, not just at
// transaction boundaries. quantity_in_stock counts units physically on the
// shelf (in_warehouse plus reserved; holds do not remove units), while
// quantity_reserved counts the reserved subset. In-transit units were already
// removed from source counts at ship time.
func CheckConsistency(ctx context.Context, db *gorm.DB) ([]Drift, error) {
	var drifts []Drift
	err := db.WithContext(ctx).Raw(`
SELECT
    sl.warehouse_id,
    sl.component_type_id,
    sl.quantity_in_stock AS recorded_in_stock,
    COALESCE(SUM(CASE WHEN c.status IN (?, ?) THEN 1 ELSE 0 END), 0) AS actual_in_stock,
    sl.quantity_reserved AS recorded_reserved,
    COALESCE(SUM(CASE WHEN c.status = ? THEN 1 ELSE 0 END), 0) AS actual_reserved
FROM stock_levels sl
LEFT JOIN components c
    ON c.warehouse_id = sl.warehouse_id
    AND c.component_type_id = sl.component_type_id
GROUP BY sl.warehouse_id, sl.component_type_id, sl.quantity_in_stock, sl.quantity_reserved
HAVING
    sl.quantity_in_stock <> COALESCE(SUM(CASE WHEN c.status IN (?, ?) THEN 1 ELSE 0 END), 0)
    OR sl.quantity_reserved <> COALESCE(SUM(CASE WHEN c.status = ? THEN 1 ELSE 0 END), 0)`,
		enums.ComponentStatusInWarehouse, enums.ComponentStatusReserved, enums.ComponentStatusReserved,
		enums.ComponentStatusInWarehouse, enums.ComponentStatusReserved, enums.ComponentStatusReserved).
		Scan(&drifts).
		Error
	if err != nil {
		return nil, err
	}
	return drifts, nil
}
