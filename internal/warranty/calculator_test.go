package warranty

import (
	"testing"
	"time"

	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/evmotors/warranty-backend/pkg/enums"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func soldVehicle(purchase time.Time, durationMonths, mileageLimitKm int) models.Vehicle {
	owner := "Dana Reyes"
	return models.Vehicle{
		VIN:             "5YJ3E1EA7KF000001",
		ModelID:         uuid.New(),
		ManufactureDate: purchase.AddDate(0, -2, 0),
		PurchaseDate:    &purchase,
		OwnerName:       &owner,
		Model: models.VehicleModel{
			Name:                   "Ion 3",
			WarrantyDurationMonths: durationMonths,
			WarrantyMileageLimitKm: mileageLimitKm,
		},
	}
}

func TestEvaluateUnsoldVehicle(t *testing.T) {
	t.Parallel()

	vehicle := soldVehicle(date(2023, time.June, 1), 60, 120000)
	vehicle.PurchaseDate = nil
	vehicle.OwnerName = nil

	_, err := Evaluate(EvaluateInput{
		Vehicle:        vehicle,
		OdometerKm:     10,
		EvaluationDate: date(2024, time.January, 1),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeVehicleNotSold))
}

func TestEvaluateDualConditionAnd(t *testing.T) {
	t.Parallel()

	// 59 months into a 60-month policy, but past the mileage cap.
	report, err := Evaluate(EvaluateInput{
		Vehicle:        soldVehicle(date(2020, time.January, 15), 60, 120000),
		OdometerKm:     130000,
		EvaluationDate: date(2024, time.December, 20),
	})
	require.NoError(t, err)

	assert.Equal(t, 59, report.General.MonthsElapsed)
	assert.Equal(t, enums.WarrantyStatusActive, report.General.Duration)
	assert.Equal(t, enums.WarrantyStatusExpired, report.General.Mileage)
	assert.Equal(t, enums.WarrantyStatusExpired, report.General.Overall)
	assert.Equal(t, ReasonExpiredMileage, report.General.Reason)
}

func TestEvaluateActiveWithinBothLimits(t *testing.T) {
	t.Parallel()

	report, err := Evaluate(EvaluateInput{
		Vehicle:        soldVehicle(date(2020, time.January, 15), 60, 120000),
		OdometerKm:     80000,
		EvaluationDate: date(2024, time.December, 20),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.WarrantyStatusActive, report.General.Overall)
	assert.Empty(t, report.General.Reason)
}

func TestEvaluateBoundaryMonthStillActive(t *testing.T) {
	t.Parallel()

	// Exactly 60 whole months elapsed is still within a 60-month policy.
	report, err := Evaluate(EvaluateInput{
		Vehicle:        soldVehicle(date(2020, time.January, 15), 60, 120000),
		OdometerKm:     1000,
		EvaluationDate: date(2025, time.January, 15),
	})
	require.NoError(t, err)

	assert.Equal(t, 60, report.General.MonthsElapsed)
	assert.Equal(t, enums.WarrantyStatusActive, report.General.Overall)
}

func TestEvaluateComponentExpiredByDuration(t *testing.T) {
	t.Parallel()

	purchase := date(2023, time.June, 1)
	typeID := uuid.New()
	policies := []models.ComponentWarrantyPolicy{{
		ComponentTypeID: typeID,
		ComponentType:   models.ComponentType{Name: "Drive Battery"},
		DurationMonths:  96,
		MileageLimitKm:  160000,
	}}

	report, err := Evaluate(EvaluateInput{
		Vehicle:        soldVehicle(purchase, 120, 200000),
		Policies:       policies,
		InstalledAt:    map[uuid.UUID]time.Time{typeID: purchase},
		OdometerKm:     150000,
		EvaluationDate: date(2031, time.July, 1),
	})
	require.NoError(t, err)
	require.Len(t, report.Components, 1)

	component := report.Components[0]
	assert.Equal(t, "Drive Battery", component.ComponentTypeName)
	assert.Equal(t, 97, component.MonthsElapsed)
	assert.Equal(t, enums.WarrantyStatusExpired, component.Duration)
	assert.Equal(t, enums.WarrantyStatusActive, component.Mileage)
	assert.Equal(t, enums.WarrantyStatusExpired, component.Overall)
	assert.Equal(t, ReasonExpiredDuration, component.Reason)
}

func TestEvaluateReasonPriorityBothExpired(t *testing.T) {
	t.Parallel()

	report, err := Evaluate(EvaluateInput{
		Vehicle:        soldVehicle(date(2015, time.March, 1), 60, 120000),
		OdometerKm:     180000,
		EvaluationDate: date(2024, time.March, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.WarrantyStatusExpired, report.General.Overall)
	assert.Equal(t, ReasonExpiredBoth, report.General.Reason)
}

func TestEvaluateComponentFallsBackToPurchaseDate(t *testing.T) {
	t.Parallel()

	purchase := date(2022, time.May, 10)
	typeID := uuid.New()
	policies := []models.ComponentWarrantyPolicy{{
		ComponentTypeID: typeID,
		ComponentType:   models.ComponentType{Name: "Onboard Charger"},
		DurationMonths:  24,
		MileageLimitKm:  80000,
	}}

	// No discrete install event recorded for the type.
	report, err := Evaluate(EvaluateInput{
		Vehicle:        soldVehicle(purchase, 60, 120000),
		Policies:       policies,
		OdometerKm:     10000,
		EvaluationDate: date(2023, time.May, 10),
	})
	require.NoError(t, err)
	require.Len(t, report.Components, 1)

	assert.Equal(t, purchase, report.Components[0].InstalledAt)
	assert.Equal(t, 12, report.Components[0].MonthsElapsed)
	assert.Equal(t, enums.WarrantyStatusActive, report.Components[0].Overall)
}

func TestEvaluatePurchaseDateOverride(t *testing.T) {
	t.Parallel()

	vehicle := soldVehicle(date(2018, time.January, 1), 60, 120000)
	hypothetical := date(2024, time.January, 1)

	report, err := Evaluate(EvaluateInput{
		Vehicle:              vehicle,
		OdometerKm:           50000,
		EvaluationDate:       date(2025, time.June, 1),
		PurchaseDateOverride: &hypothetical,
	})
	require.NoError(t, err)

	assert.Equal(t, 17, report.General.MonthsElapsed)
	assert.Equal(t, enums.WarrantyStatusActive, report.General.Overall)
}

func TestMonthsBetween(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		anchor time.Time
		target time.Time
		want   int
	}{
		{"same day", date(2023, time.June, 1), date(2023, time.June, 1), 0},
		{"day before anniversary", date(2023, time.June, 15), date(2023, time.July, 14), 0},
		{"on anniversary", date(2023, time.June, 15), date(2023, time.July, 15), 1},
		{"year boundary", date(2023, time.November, 30), date(2024, time.February, 1), 2},
		{"target before anchor", date(2024, time.January, 1), date(2023, time.June, 1), 0},
		{"many years", date(2023, time.June, 1), date(2031, time.July, 1), 97},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, monthsBetween(tc.anchor, tc.target))
		})
	}
}
