package warranty

import (
	"time"

	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/evmotors/warranty-backend/pkg/enums"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/google/uuid"
)

// Inactive-status reasons, selected by priority: both > duration > mileage.
const (
	ReasonExpiredBoth     = "Expired by duration and mileage"
	ReasonExpiredDuration = "Expired by duration"
	ReasonExpiredMileage  = "Expired by mileage"
)

// PolicyTerms is the duration/mileage pair a verdict was computed against.
type PolicyTerms struct {
	DurationMonths int `json:"durationMonths"`
	MileageLimitKm int `json:"mileageLimitKm"`
}

// Verdict is the outcome of one coverage check. Overall is active only when
// both sub-checks hold; Reason is empty while coverage is active.
type Verdict struct {
	Overall       enums.WarrantyStatus `json:"overall"`
	Duration      enums.WarrantyStatus `json:"duration"`
	Mileage       enums.WarrantyStatus `json:"mileage"`
	MonthsElapsed int                  `json:"monthsElapsed"`
	Reason        string               `json:"reason,omitempty"`
	Terms         PolicyTerms          `json:"terms"`
}

// ComponentVerdict is a per-component-type verdict anchored at install time.
type ComponentVerdict struct {
	ComponentTypeID   uuid.UUID `json:"componentTypeId"`
	ComponentTypeName string    `json:"componentTypeName"`
	InstalledAt       time.Time `json:"installedAt"`
	Verdict
}

// Report is the full eligibility picture for one vehicle at one point in time.
type Report struct {
	VIN         string             `json:"vin"`
	EvaluatedAt time.Time          `json:"evaluatedAt"`
	OdometerKm  int                `json:"odometerKm"`
	General     Verdict            `json:"general"`
	Components  []ComponentVerdict `json:"components"`
}

// EvaluateInput bundles everything the calculator needs. The calculator never
// touches storage: callers load the vehicle (model preloaded), the model's
// component policies, and any discrete install timestamps keyed by component
// type.
type EvaluateInput struct {
	Vehicle        models.Vehicle
	Policies       []models.ComponentWarrantyPolicy
	InstalledAt    map[uuid.UUID]time.Time
	OdometerKm     int
	EvaluationDate time.Time

	// PurchaseDateOverride supports hypothetical previews without mutating
	// the vehicle.
	PurchaseDateOverride *time.Time
}

// Evaluate computes the general and per-component warranty verdicts. It is a
// pure function: deterministic for a given input, no side effects.
func Evaluate(input EvaluateInput) (Report, error) {
	if input.OdometerKm < 0 {
		return Report{}, pkgerrors.New(pkgerrors.CodeValidation, "odometer must not be negative")
	}
	if input.EvaluationDate.IsZero() {
		return Report{}, pkgerrors.New(pkgerrors.CodeValidation, "evaluation date is required")
	}

	purchaseDate := input.Vehicle.PurchaseDate
	if input.PurchaseDateOverride != nil {
		purchaseDate = input.PurchaseDateOverride
	}
	if purchaseDate == nil {
		return Report{}, pkgerrors.New(pkgerrors.CodeVehicleNotSold, "vehicle has no purchase date")
	}

	report := Report{
		VIN:         input.Vehicle.VIN,
		EvaluatedAt: input.EvaluationDate,
		OdometerKm:  input.OdometerKm,
		General: verdictFor(
			*purchaseDate,
			input.EvaluationDate,
			input.OdometerKm,
			PolicyTerms{
				DurationMonths: input.Vehicle.Model.WarrantyDurationMonths,
				MileageLimitKm: input.Vehicle.Model.WarrantyMileageLimitKm,
			},
		),
	}

	for _, policy := range input.Policies {
		anchor := *purchaseDate
		if installedAt, ok := input.InstalledAt[policy.ComponentTypeID]; ok {
			anchor = installedAt
		}

		report.Components = append(report.Components, ComponentVerdict{
			ComponentTypeID:   policy.ComponentTypeID,
			ComponentTypeName: policy.ComponentType.Name,
			InstalledAt:       anchor,
			Verdict: verdictFor(anchor, input.EvaluationDate, input.OdometerKm, PolicyTerms{
				DurationMonths: policy.DurationMonths,
				MileageLimitKm: policy.MileageLimitKm,
			}),
		})
	}

	return report, nil
}

func verdictFor(anchor, evaluationDate time.Time, odometerKm int, terms PolicyTerms) Verdict {
	monthsElapsed := monthsBetween(anchor, evaluationDate)

	verdict := Verdict{
		Duration:      statusOf(monthsElapsed <= terms.DurationMonths),
		Mileage:       statusOf(odometerKm <= terms.MileageLimitKm),
		MonthsElapsed: monthsElapsed,
		Terms:         terms,
	}

	verdict.Overall = enums.WarrantyStatusActive
	if verdict.Duration != enums.WarrantyStatusActive || verdict.Mileage != enums.WarrantyStatusActive {
		verdict.Overall = enums.WarrantyStatusExpired
		verdict.Reason = inactiveReason(verdict.Duration, verdict.Mileage)
	}
	return verdict
}

func statusOf(active bool) enums.WarrantyStatus {
	if active {
		return enums.WarrantyStatusActive
	}
	return enums.WarrantyStatusExpired
}

func inactiveReason(duration, mileage enums.WarrantyStatus) string {
	durationExpired := duration == enums.WarrantyStatusExpired
	mileageExpired := mileage == enums.WarrantyStatusExpired

	switch {
	case durationExpired && mileageExpired:
		return ReasonExpiredBoth
	case durationExpired:
		return ReasonExpiredDuration
	default:
		return ReasonExpiredMileage
	}
}

// monthsBetween counts whole calendar months elapsed from anchor to target.
// A target day-of-month earlier than the anchor day means the running month
// has not completed yet.
func monthsBetween(anchor, target time.Time) int {
	months := (target.Year()-anchor.Year())*12 + int(target.Month()) - int(anchor.Month())
	if target.Day() < anchor.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
