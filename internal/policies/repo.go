package policies

import (
	"context"
	"errors"

	"github.com/evmotors/warranty-backend/pkg/db/models"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the read-only policy lookup used by the calculator and the
// service workflows. Policy terms are reference data; nothing here mutates.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a policy repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindModelByID loads a vehicle model with its general warranty terms.
func (r *Repository) FindModelByID(ctx context.Context, id uuid.UUID) (*models.VehicleModel, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model id is required")
	}

	var model models.VehicleModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "vehicle model not found")
		}
		return nil, err
	}
	return &model, nil
}

// ListComponentPolicies returns every per-component policy configured for a
// model, component type preloaded, in a stable order.
func (r *Repository) ListComponentPolicies(ctx context.Context, modelID uuid.UUID) ([]models.ComponentWarrantyPolicy, error) {
	if modelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model id is required")
	}

	var policies []models.ComponentWarrantyPolicy
	err := r.db.WithContext(ctx).
		Preload("ComponentType").
		Where("model_id = ?", modelID).
		Order("created_at ASC").
		Find(&policies).
		Error
	if err != nil {
		return nil, err
	}
	return policies, nil
}

// FindPolicy resolves the coverage terms for one (model, component type) pair.
func (r *Repository) FindPolicy(ctx context.Context, modelID, componentTypeID uuid.UUID) (*models.ComponentWarrantyPolicy, error) {
	if modelID == uuid.Nil || componentTypeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model id and component type id are required")
	}

	var policy models.ComponentWarrantyPolicy
	err := r.db.WithContext(ctx).
		Preload("ComponentType").
		Where("model_id = ? AND component_type_id = ?", modelID, componentTypeID).
		First(&policy).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "component warranty policy not found")
		}
		return nil, err
	}
	return &policy, nil
}
