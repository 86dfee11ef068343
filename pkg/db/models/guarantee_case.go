package models

import (
	"time"

	"github.com/evmotors/warranty-backend/pkg/enums"
	"github.com/google/uuid"
)

// GuaranteeCase is a named complaint inside a processing record.
type GuaranteeCase struct {
	ID        uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	RecordID  uuid.UUID                 `gorm:"column:record_id;type:uuid;not null;index"`
	Title     string                    `gorm:"column:title;not null"`
	Complaint string                    `gorm:"column:complaint;not null"`
	Status    enums.GuaranteeCaseStatus `gorm:"column:status;not null;default:'open'"`
	Lines     []CaseLine                `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
