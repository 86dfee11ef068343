package components

import (
	"context"
	"testing"
	"time"

	"github.com/evmotors/warranty-backend/internal/policies"
	"github.com/evmotors/warranty-backend/internal/warranty"
	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/evmotors/warranty-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	svc       Service
	recordID  uuid.UUID
	batteryID uuid.UUID
	fanID     uuid.UUID
	vin       string
}

func newFixture(t *testing.T, sold bool) *fixture {
	t.Helper()

	dsn := "file:components_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.VehicleModel{},
		&models.Vehicle{},
		&models.ComponentType{},
		&models.ComponentWarrantyPolicy{},
		&models.Warehouse{},
		&models.Component{},
		&models.ProcessingRecord{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	now := time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC)

	modelID := uuid.New()
	if err := db.Create(&models.VehicleModel{
		ID:                     modelID,
		Name:                   "Ion 3 " + uuid.NewString()[:8],
		LaunchYear:             2023,
		WarrantyDurationMonths: 60,
		WarrantyMileageLimitKm: 120000,
	}).Error; err != nil {
		t.Fatalf("seed model: %v", err)
	}

	vin := "5YJ3" + uuid.NewString()[:13]
	vehicle := models.Vehicle{
		VIN:             vin,
		ModelID:         modelID,
		ManufactureDate: time.Date(2023, time.October, 1, 0, 0, 0, 0, time.UTC),
	}
	if sold {
		purchase := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
		owner := "Dana Reyes"
		vehicle.PurchaseDate = &purchase
		vehicle.OwnerName = &owner
	}
	if err := db.Create(&vehicle).Error; err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}

	batteryID := uuid.New()
	fanID := uuid.New()
	uncoveredID := uuid.New()
	for _, componentType := range []models.ComponentType{
		{ID: batteryID, Name: "Drive Battery", Category: "powertrain"},
		{ID: fanID, Name: "Cabin Fan", Category: "hvac"},
		{ID: uncoveredID, Name: "Floor Mat", Category: "interior"},
	} {
		if err := db.Create(&componentType).Error; err != nil {
			t.Fatalf("seed component type: %v", err)
		}
	}
	// The floor mat has no policy for the model and must never be offered.
	for _, policy := range []models.ComponentWarrantyPolicy{
		{ID: uuid.New(), ModelID: modelID, ComponentTypeID: batteryID, DurationMonths: 96, MileageLimitKm: 160000, QuantityPerVehicle: 1},
		{ID: uuid.New(), ModelID: modelID, ComponentTypeID: fanID, DurationMonths: 12, MileageLimitKm: 20000, QuantityPerVehicle: 1},
	} {
		if err := db.Create(&policy).Error; err != nil {
			t.Fatalf("seed policy: %v", err)
		}
	}

	warehouseID := uuid.New()
	if err := db.Create(&models.Warehouse{ID: warehouseID, Name: "WH-" + uuid.NewString()[:8]}).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	for _, component := range []models.Component{
		{ID: uuid.New(), SerialNumber: "SN-BAT-001", ComponentTypeID: batteryID, Status: enums.ComponentStatusInWarehouse, WarehouseID: &warehouseID},
		{ID: uuid.New(), SerialNumber: "SN-FAN-001", ComponentTypeID: fanID, Status: enums.ComponentStatusInWarehouse, WarehouseID: &warehouseID},
		{ID: uuid.New(), SerialNumber: "SN-MAT-001", ComponentTypeID: uncoveredID, Status: enums.ComponentStatusInWarehouse, WarehouseID: &warehouseID},
	} {
		if err := db.Create(&component).Error; err != nil {
			t.Fatalf("seed component: %v", err)
		}
	}

	recordID := uuid.New()
	if err := db.Create(&models.ProcessingRecord{
		ID:          recordID,
		VIN:         vin,
		WarehouseID: warehouseID,
		OdometerKm:  30000,
		Status:      enums.RecordStatusInDiagnosis,
		CheckedInAt: now,
	}).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}

	vehicleRepo := warranty.NewRepository(db)
	policyRepo := policies.NewRepository(db)
	warrantySvc, err := warranty.NewService(warranty.ServiceParams{
		Repo:       vehicleRepo,
		PolicyRepo: policyRepo,
		Clock:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("warranty service: %v", err)
	}

	svc, err := NewService(ServiceParams{
		Repo:        NewRepository(db),
		VehicleRepo: vehicleRepo,
		PolicyRepo:  policyRepo,
		Warranty:    warrantySvc,
	})
	if err != nil {
		t.Fatalf("components service: %v", err)
	}

	return &fixture{db: db, svc: svc, recordID: recordID, batteryID: batteryID, fanID: fanID, vin: vin}
}

func TestSearchReturnsCompatibleCandidates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	candidates, err := f.svc.Search(context.Background(), f.recordID, "", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	// Only types with a policy for the model are compatible.
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", candidates)
	}

	byType := map[uuid.UUID]CandidateDTO{}
	for _, candidate := range candidates {
		byType[candidate.ComponentTypeID] = candidate
	}

	// Odometer 30000 exceeds the fan's 20000 km cap; the battery is covered.
	if !byType[f.batteryID].IsUnderWarranty {
		t.Fatalf("battery should be under warranty: %+v", byType[f.batteryID])
	}
	if byType[f.fanID].IsUnderWarranty {
		t.Fatalf("fan should be out of warranty: %+v", byType[f.fanID])
	}
}

func TestSearchFilters(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ctx := context.Background()

	candidates, err := f.svc.Search(ctx, f.recordID, "powertrain", "")
	if err != nil {
		t.Fatalf("search by category: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ComponentTypeID != f.batteryID {
		t.Fatalf("unexpected category result: %+v", candidates)
	}

	candidates, err = f.svc.Search(ctx, f.recordID, "", "fan")
	if err != nil {
		t.Fatalf("search by name: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ComponentTypeID != f.fanID {
		t.Fatalf("unexpected name result: %+v", candidates)
	}
}

func TestSearchUnsoldVehicleHasNoCoverage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	candidates, err := f.svc.Search(context.Background(), f.recordID, "", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", candidates)
	}
	for _, candidate := range candidates {
		if candidate.IsUnderWarranty {
			t.Fatalf("unsold vehicle cannot have coverage: %+v", candidate)
		}
	}
}
