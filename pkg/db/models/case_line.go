package models

import (
	"time"

	"github.com/evmotors/warranty-backend/pkg/enums"
	"github.com/google/uuid"
)

// CaseLine is one diagnosis/correction entry, the unit of manager approval.
// Quantity is positive exactly when a component type is attached.
type CaseLine struct {
	ID              uuid.UUID                    `gorm:"column:id;type:uuid;primaryKey"`
	CaseID          uuid.UUID                    `gorm:"column:case_id;type:uuid;not null;index"`
	Diagnosis       string                       `gorm:"column:diagnosis;not null"`
	Correction      string                       `gorm:"column:correction;not null"`
	ComponentTypeID *uuid.UUID                   `gorm:"column:component_type_id;type:uuid"`
	Quantity        int                          `gorm:"column:quantity;not null;default:0"`
	WarrantyStatus  enums.WarrantyStatus         `gorm:"column:warranty_status;not null"`
	ApprovalStatus  enums.CaseLineApprovalStatus `gorm:"column:approval_status;not null;default:'pending_manager_approval'"`
	ReservationID   *uuid.UUID                   `gorm:"column:reservation_id;type:uuid"`
	DecidedBy       *uuid.UUID                   `gorm:"column:decided_by;type:uuid"`
	DecidedAt       *time.Time                   `gorm:"column:decided_at"`
	CreatedAt       time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                    `gorm:"column:updated_at;autoUpdateTime"`
}

// IsEligible reports whether the line was stamped as covered at submission.
func (c CaseLine) IsEligible() bool {
	return c.WarrantyStatus == enums.WarrantyStatusActive
}
