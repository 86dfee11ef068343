package components

import (
	"context"

	"github.com/evmotors/warranty-backend/internal/policies"
	"github.com/evmotors/warranty-backend/internal/warranty"
	"github.com/evmotors/warranty-backend/pkg/enums"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/google/uuid"
)

// CandidateDTO is one replacement unit offered for a repair, with its
// coverage precomputed so the caller never re-derives policy terms.
type CandidateDTO struct {
	ComponentID       uuid.UUID `json:"componentId"`
	SerialNumber      string    `json:"serialNumber"`
	ComponentTypeID   uuid.UUID `json:"componentTypeId"`
	ComponentTypeName string    `json:"componentTypeName"`
	Category          string    `json:"category"`
	IsUnderWarranty   bool      `json:"isUnderWarranty"`
}

// Service searches compatible replacement components for a processing record.
type Service interface {
	Search(ctx context.Context, recordID uuid.UUID, category, searchName string) ([]CandidateDTO, error)
}

// ServiceParams groups dependencies for the components service.
type ServiceParams struct {
	Repo        *Repository
	VehicleRepo *warranty.Repository
	PolicyRepo  *policies.Repository
	Warranty    warranty.Service
}

type service struct {
	repo        *Repository
	vehicleRepo *warranty.Repository
	policyRepo  *policies.Repository
	warranty    warranty.Service
}

// NewService builds the components service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "components repo is required")
	}
	if params.VehicleRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle repo is required")
	}
	if params.PolicyRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "policy repo is required")
	}
	if params.Warranty == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warranty service is required")
	}
	return &service{
		repo:        params.Repo,
		vehicleRepo: params.VehicleRepo,
		policyRepo:  params.PolicyRepo,
		warranty:    params.Warranty,
	}, nil
}

// Search returns in-warehouse components at the record's service location
// whose type is configured for the vehicle's model. Coverage is evaluated at
// the record's intake odometer; an unsold vehicle simply has no coverage.
func (s *service) Search(ctx context.Context, recordID uuid.UUID, category, searchName string) ([]CandidateDTO, error) {
	record, err := s.repo.FindRecordByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.vehicleRepo.FindVehicleByVIN(ctx, record.VIN)
	if err != nil {
		return nil, err
	}

	componentPolicies, err := s.policyRepo.ListComponentPolicies(ctx, vehicle.ModelID)
	if err != nil {
		return nil, err
	}
	typeIDs := make([]uuid.UUID, 0, len(componentPolicies))
	for _, policy := range componentPolicies {
		typeIDs = append(typeIDs, policy.ComponentTypeID)
	}

	coveredTypes := map[uuid.UUID]bool{}
	report, err := s.warranty.Evaluate(ctx, record.VIN, record.OdometerKm)
	switch {
	case err == nil:
		for _, component := range report.Components {
			coveredTypes[component.ComponentTypeID] = component.Overall == enums.WarrantyStatusActive
		}
	case pkgerrors.HasCode(err, pkgerrors.CodeVehicleNotSold):
		// No warranty basis; candidates are still listed, just uncovered.
	default:
		return nil, err
	}

	available, err := s.repo.SearchAvailable(ctx, record.WarehouseID, typeIDs, category, searchName)
	if err != nil {
		return nil, err
	}

	candidates := make([]CandidateDTO, 0, len(available))
	for _, component := range available {
		candidates = append(candidates, CandidateDTO{
			ComponentID:       component.ID,
			SerialNumber:      component.SerialNumber,
			ComponentTypeID:   component.ComponentTypeID,
			ComponentTypeName: component.ComponentType.Name,
			Category:          component.ComponentType.Category,
			IsUnderWarranty:   coveredTypes[component.ComponentTypeID],
		})
	}
	return candidates, nil
}
