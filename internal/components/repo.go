package components

import (
	"context"
	"errors"
	"strings"

	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/evmotors/warranty-backend/pkg/enums"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads candidate components for repair work.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a components repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindRecordByID loads the bare processing record.
func (r *Repository) FindRecordByID(ctx context.Context, id uuid.UUID) (*models.ProcessingRecord, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}

	var record models.ProcessingRecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "processing record not found")
		}
		return nil, err
	}
	return &record, nil
}

// SearchAvailable lists unreserved components at a warehouse restricted to
// the given component types, optionally narrowed by category and name.
func (r *Repository) SearchAvailable(ctx context.Context, warehouseID uuid.UUID, typeIDs []uuid.UUID, category, searchName string) ([]models.Component, error) {
	if len(typeIDs) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).
		Preload("ComponentType").
		Joins("JOIN component_types ct ON ct.id = components.component_type_id").
		Where("components.warehouse_id = ? AND components.status = ?", warehouseID, enums.ComponentStatusInWarehouse).
		Where("components.component_type_id IN ?", typeIDs)

	if category = strings.TrimSpace(category); category != "" {
		query = query.Where("LOWER(ct.category) = LOWER(?)", category)
	}
	if searchName = strings.TrimSpace(searchName); searchName != "" {
		query = query.Where("LOWER(ct.name) LIKE LOWER(?)", "%"+searchName+"%")
	}

	var results []models.Component
	err := query.Order("ct.name ASC, components.serial_number ASC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
