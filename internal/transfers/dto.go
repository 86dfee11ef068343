package transfers

import (
	"time"

	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/google/uuid"
)

// CreateInput opens a replenishment request against a fulfilling warehouse.
type CreateInput struct {
	RequestingWarehouseID uuid.UUID
	FulfillingWarehouseID uuid.UUID
	Reason                string
	Items                 []ItemInput
}

// ItemInput is one requested (component type, quantity) pair.
type ItemInput struct {
	ComponentTypeID   uuid.UUID
	QuantityRequested int
}

// ApproveInput carries the fulfilling side's per-item approved quantities.
// Items omitted from Decisions are approved at zero and ship nothing.
type ApproveInput struct {
	Decisions []ItemDecision
}

// ItemDecision approves one item at a possibly reduced quantity.
type ItemDecision struct {
	ItemID           uuid.UUID
	QuantityApproved int
}

// ShipInput records the handover to the carrier.
type ShipInput struct {
	EstimatedDeliveryDate *time.Time
}

// RequestsPageDTO is one cursor page of transfer requests.
type RequestsPageDTO struct {
	Requests   []models.StockTransferRequest `json:"requests"`
	NextCursor string                        `json:"nextCursor,omitempty"`
}
