package warranty

import (
	"context"
	"time"

	"github.com/evmotors/warranty-backend/internal/policies"
	"github.com/evmotors/warranty-backend/pkg/db/models"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/google/uuid"
)

// Service exposes eligibility evaluation over stored vehicles.
type Service interface {
	Evaluate(ctx context.Context, vin string, odometerKm int) (Report, error)
	Preview(ctx context.Context, vin string, odometerKm int, purchaseDate time.Time) (Report, error)
}

// ServiceParams groups dependencies for the warranty service.
type ServiceParams struct {
	Repo       *Repository
	PolicyRepo *policies.Repository

	// Clock defaults to time.Now.
	Clock func() time.Time
}

type service struct {
	repo       *Repository
	policyRepo *policies.Repository
	clock      func() time.Time
}

// NewService builds a warranty service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warranty repo is required")
	}
	if params.PolicyRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "policy repo is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:       params.Repo,
		policyRepo: params.PolicyRepo,
		clock:      clock,
	}, nil
}

// Evaluate computes the live warranty report for a vehicle at the given
// odometer reading.
func (s *service) Evaluate(ctx context.Context, vin string, odometerKm int) (Report, error) {
	return s.evaluate(ctx, vin, odometerKm, nil)
}

// Preview recomputes the report with a hypothetical purchase date. Nothing is
// persisted.
func (s *service) Preview(ctx context.Context, vin string, odometerKm int, purchaseDate time.Time) (Report, error) {
	if purchaseDate.IsZero() {
		return Report{}, pkgerrors.New(pkgerrors.CodeValidation, "purchase date is required")
	}
	return s.evaluate(ctx, vin, odometerKm, &purchaseDate)
}

func (s *service) evaluate(ctx context.Context, vin string, odometerKm int, purchaseOverride *time.Time) (Report, error) {
	vehicle, err := s.repo.FindVehicleByVIN(ctx, vin)
	if err != nil {
		return Report{}, err
	}

	componentPolicies, err := s.policyRepo.ListComponentPolicies(ctx, vehicle.ModelID)
	if err != nil {
		return Report{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load component policies")
	}

	installed, err := s.repo.ListInstalledComponents(ctx, vehicle.VIN)
	if err != nil {
		return Report{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load installed components")
	}

	return Evaluate(EvaluateInput{
		Vehicle:              *vehicle,
		Policies:             componentPolicies,
		InstalledAt:          installTimesByType(installed),
		OdometerKm:           odometerKm,
		EvaluationDate:       s.clock(),
		PurchaseDateOverride: purchaseOverride,
	})
}

// installTimesByType keeps the most recent discrete install event per
// component type; components without a timestamp fall through to the
// purchase-date anchor.
func installTimesByType(components []models.Component) map[uuid.UUID]time.Time {
	installed := make(map[uuid.UUID]time.Time, len(components))
	for _, component := range components {
		if component.InstalledAt == nil {
			continue
		}
		if _, seen := installed[component.ComponentTypeID]; seen {
			continue
		}
		installed[component.ComponentTypeID] = *component.InstalledAt
	}
	return installed
}
