package warranty

import (
	"context"
	"errors"
	"strings"

	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/evmotors/warranty-backend/pkg/enums"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository loads the vehicle-side inputs of an eligibility evaluation.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a warranty repository bound to the provided gorm DB.
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

// FindVehicleByVIN loads a vehicle with its model terms preloaded.
func (r *Repository) FindVehicleByVIN(ctx context.Context, vin string) (*models.Vehicle, error) {
	vin = strings.TrimSpace(vin)
	if vin == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vin is required")
	}

	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).
		Preload("Model").
		First(&vehicle, "vin = ?", vin).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "vehicle not found")
		}
		return nil, err
	}
	return &vehicle, nil
}

// ListInstalledComponents returns the components currently installed on a
// vehicle, newest install first so the first hit per type wins.
func (r *Repository) ListInstalledComponents(ctx context.Context, vin string) ([]models.Component, error) {
	var components []models.Component
	err := r.db.WithContext(ctx).
		Where("vehicle_vin = ? AND status = ?", vin, enums.ComponentStatusInstalled).
		Order("installed_at DESC").
		Find(&components).
		Error
	if err != nil {
		return nil, err
	}
	return components, nil
}
