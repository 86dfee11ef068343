package records

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/evmotors/warranty-backend/internal/policies"
	"github.com/evmotors/warranty-backend/internal/warranty"
	"github.com/evmotors/warranty-backend/pkg/auth"
	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/evmotors/warranty-backend/pkg/enums"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/evmotors/warranty-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	db          *gorm.DB
	svc         Service
	repo        *Repository
	warehouseID uuid.UUID
	typeID      uuid.UUID
	vin         string
	manager     auth.ActorRef
	technician  auth.ActorRef
	now         time.Time
}

func newFixture(t *testing.T, stockCount int) *fixture {
	t.Helper()

	dsn := "file:records_" + uuid.NewString() + "?mode=memory&cache=shared"
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
		&models.StockLevel{},
		&models.StockReservation{},
		&models.ProcessingRecord{},
		&models.GuaranteeCase{},
		&models.CaseLine{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	err = db.Exec(`CREATE UNIQUE INDEX idx_processing_records_active_vin
		ON processing_records (vin)
		WHERE status NOT IN ('completed', 'cancelled')`).Error
	if err != nil {
		t.Fatalf("create partial index: %v", err)
	}

	now := time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

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
	purchase := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	owner := "Dana Reyes"
	if err := db.Create(&models.Vehicle{
		VIN:             vin,
		ModelID:         modelID,
		ManufactureDate: purchase.AddDate(0, -3, 0),
		PurchaseDate:    &purchase,
		OwnerName:       &owner,
	}).Error; err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}

	typeID := uuid.New()
	if err := db.Create(&models.ComponentType{ID: typeID, Name: "Drive Battery", Category: "powertrain"}).Error; err != nil {
		t.Fatalf("seed component type: %v", err)
	}
	if err := db.Create(&models.ComponentWarrantyPolicy{
		ID:                 uuid.New(),
		ModelID:            modelID,
		ComponentTypeID:    typeID,
		DurationMonths:     48,
		MileageLimitKm:     100000,
		QuantityPerVehicle: 1,
	}).Error; err != nil {
		t.Fatalf("seed policy: %v", err)
	}

	warehouseID := uuid.New()
	if err := db.Create(&models.Warehouse{ID: warehouseID, Name: "WH-" + uuid.NewString()[:8]}).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	for i := 0; i < stockCount; i++ {
		if err := db.Create(&models.Component{
			ID:              uuid.New(),
			SerialNumber:    fmt.Sprintf("SN-%s-%03d", warehouseID.String()[:8], i),
			ComponentTypeID: typeID,
			Status:          enums.ComponentStatusInWarehouse,
			WarehouseID:     &warehouseID,
		}).Error; err != nil {
			t.Fatalf("seed component: %v", err)
		}
	}
	if err := db.Create(&models.StockLevel{
		WarehouseID:     warehouseID,
		ComponentTypeID: typeID,
		QuantityInStock: stockCount,
	}).Error; err != nil {
		t.Fatalf("seed stock level: %v", err)
	}

	warrantySvc, err := warranty.NewService(warranty.ServiceParams{
		Repo:       warranty.NewRepository(db),
		PolicyRepo: policies.NewRepository(db),
		Clock:      clock,
	})
	if err != nil {
		t.Fatalf("warranty service: %v", err)
	}

	repo := NewRepository(db)
	svc, err := NewService(ServiceParams{
		Tx:       gormTxRunner{db: db},
		Repo:     repo,
		Warranty: warrantySvc,
		Clock:    clock,
	})
	if err != nil {
		t.Fatalf("records service: %v", err)
	}

	return &fixture{
		db:          db,
		svc:         svc,
		repo:        repo,
		warehouseID: warehouseID,
		typeID:      typeID,
		vin:         vin,
		manager:     auth.ActorRef{UserID: uuid.New(), Role: enums.ActorRoleServiceManager},
		technician:  auth.ActorRef{UserID: uuid.New(), Role: enums.ActorRoleTechnician},
		now:         now,
	}
}

func (f *fixture) intakeInput() IntakeInput {
	return IntakeInput{
		VIN:         f.vin,
		WarehouseID: f.warehouseID,
		OdometerKm:  30000,
		Visitor:     types.VisitorInfo{Name: "Sam Ortiz", Phone: "555-0130"},
		GuaranteeCases: []GuaranteeCaseInput{
			{Title: "Battery drains overnight", Complaint: "Loses 40% charge while parked"},
		},
	}
}

// openRecord drives a fresh record through intake and diagnosis.
func (f *fixture) openRecord(t *testing.T) *models.ProcessingRecord {
	t.Helper()
	ctx := context.Background()

	record, err := f.svc.Intake(ctx, f.technician, f.intakeInput())
	if err != nil {
		t.Fatalf("intake: %v", err)
	}
	record, err = f.svc.StartDiagnosis(ctx, f.technician, record.ID)
	if err != nil {
		t.Fatalf("start diagnosis: %v", err)
	}
	return record
}

func (f *fixture) submitComponentLine(t *testing.T, record *models.ProcessingRecord) models.CaseLine {
	t.Helper()
	lines, err := f.svc.SubmitCaseLines(context.Background(), f.technician, record.Cases[0].ID, []CaseLineInput{{
		Diagnosis:       "Cell imbalance beyond threshold",
		Correction:      "Replace drive battery",
		ComponentTypeID: &f.typeID,
		Quantity:        1,
	}})
	if err != nil {
		t.Fatalf("submit case lines: %v", err)
	}
	return lines[0]
}

func TestIntakeActiveRecordConflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	ctx := context.Background()

	first, err := f.svc.Intake(ctx, f.technician, f.intakeInput())
	if err != nil {
		t.Fatalf("first intake: %v", err)
	}

	_, err = f.svc.Intake(ctx, f.technician, f.intakeInput())
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// A terminal record frees the VIN again.
	if _, err := f.svc.Cancel(ctx, f.manager, first.ID, "customer left"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.Intake(ctx, f.technician, f.intakeInput()); err != nil {
		t.Fatalf("intake after cancel: %v", err)
	}
}

func TestIntakeValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	input := f.intakeInput()
	input.Visitor.Name = ""
	input.GuaranteeCases = nil

	_, err := f.svc.Intake(context.Background(), f.technician, input)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStartDiagnosisRequiresCheckedIn(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	record := f.openRecord(t)

	_, err := f.svc.StartDiagnosis(context.Background(), f.technician, record.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSubmitCaseLinesStampsWarranty(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	record := f.openRecord(t)
	ctx := context.Background()

	unknownType := uuid.New()
	if err := f.db.Create(&models.ComponentType{ID: unknownType, Name: "Cabin Fan", Category: "hvac"}).Error; err != nil {
		t.Fatalf("seed uncovered type: %v", err)
	}

	lines, err := f.svc.SubmitCaseLines(ctx, f.technician, record.Cases[0].ID, []CaseLineInput{
		{Diagnosis: "General inspection", Correction: "Firmware update"},
		{Diagnosis: "Battery degradation", Correction: "Replace battery", ComponentTypeID: &f.typeID, Quantity: 1},
		{Diagnosis: "Fan noise", Correction: "Replace fan", ComponentTypeID: &unknownType, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if lines[0].WarrantyStatus != enums.WarrantyStatusActive {
		t.Fatalf("general line should be covered: %+v", lines[0])
	}
	if lines[1].WarrantyStatus != enums.WarrantyStatusActive {
		t.Fatalf("covered component line should be active: %+v", lines[1])
	}
	if lines[2].WarrantyStatus != enums.WarrantyStatusExpired {
		t.Fatalf("uncovered component type should be expired: %+v", lines[2])
	}
	for _, line := range lines {
		if line.ApprovalStatus != enums.CaseLineApprovalStatusPending {
			t.Fatalf("new line should be pending: %+v", line)
		}
	}
}

func TestSubmitCaseLinesValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	record := f.openRecord(t)
	ctx := context.Background()

	// Component set with zero quantity is rejected before any state change.
	_, err := f.svc.SubmitCaseLines(ctx, f.technician, record.Cases[0].ID, []CaseLineInput{{
		Diagnosis:       "Battery degradation",
		Correction:      "Replace battery",
		ComponentTypeID: &f.typeID,
		Quantity:        0,
	}})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Quantity without a component type is likewise invalid.
	_, err = f.svc.SubmitCaseLines(ctx, f.technician, record.Cases[0].ID, []CaseLineInput{{
		Diagnosis:  "Battery degradation",
		Correction: "Replace battery",
		Quantity:   2,
	}})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecideApproveInstallsComponent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 2)
	record := f.openRecord(t)
	line := f.submitComponentLine(t, record)
	ctx := context.Background()

	outcomes, err := f.svc.Decide(ctx, f.manager, DecideInput{ApprovedIDs: []uuid.UUID{line.ID}})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Result != OutcomeApproved {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}

	var installed int64
	err = f.db.Model(&models.Component{}).
		Where("vehicle_vin = ? AND status = ?", f.vin, enums.ComponentStatusInstalled).
		Count(&installed).Error
	if err != nil {
		t.Fatalf("count installed: %v", err)
	}
	if installed != 1 {
		t.Fatalf("expected 1 installed component, got %d", installed)
	}

	var level models.StockLevel
	if err := f.db.First(&level, "warehouse_id = ? AND component_type_id = ?", f.warehouseID, f.typeID).Error; err != nil {
		t.Fatalf("load level: %v", err)
	}
	if level.QuantityInStock != 1 || level.QuantityReserved != 0 {
		t.Fatalf("unexpected stock level: %+v", level)
	}

	// Replaying the decision reports the conflict and must not consume again.
	outcomes, err = f.svc.Decide(ctx, f.manager, DecideInput{ApprovedIDs: []uuid.UUID{line.ID}})
	if err != nil {
		t.Fatalf("replay decide: %v", err)
	}
	if outcomes[0].Result != OutcomeFailed || outcomes[0].ErrorCode != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on replay: %+v", outcomes[0])
	}
	if err := f.db.First(&level, "warehouse_id = ? AND component_type_id = ?", f.warehouseID, f.typeID).Error; err != nil {
		t.Fatalf("reload level: %v", err)
	}
	if level.QuantityInStock != 1 {
		t.Fatalf("stock consumed twice: %+v", level)
	}
}

func TestDecideInsufficientStockParksRecord(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	record := f.openRecord(t)
	line := f.submitComponentLine(t, record)
	ctx := context.Background()

	outcomes, err := f.svc.Decide(ctx, f.manager, DecideInput{ApprovedIDs: []uuid.UUID{line.ID}})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if outcomes[0].Result != OutcomeFailed || outcomes[0].ErrorCode != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock outcome: %+v", outcomes[0])
	}

	reloaded, err := f.svc.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if reloaded.Status != enums.RecordStatusWaitingForParts {
		t.Fatalf("expected waiting_for_parts, got %s", reloaded.Status)
	}

	// The line stays pending, and retrying while already waiting is a no-op.
	outcomes, err = f.svc.Decide(ctx, f.manager, DecideInput{ApprovedIDs: []uuid.UUID{line.ID}})
	if err != nil {
		t.Fatalf("retry decide: %v", err)
	}
	if outcomes[0].ErrorCode != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock again: %+v", outcomes[0])
	}
	reloaded, err = f.svc.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if reloaded.Status != enums.RecordStatusWaitingForParts {
		t.Fatalf("expected waiting_for_parts after retry, got %s", reloaded.Status)
	}

	// Replenishment lets the same approval succeed and resume the repair.
	warehouseID := f.warehouseID
	if err := f.db.Create(&models.Component{
		ID:              uuid.New(),
		SerialNumber:    "SN-RESTOCK-001",
		ComponentTypeID: f.typeID,
		Status:          enums.ComponentStatusInWarehouse,
		WarehouseID:     &warehouseID,
	}).Error; err != nil {
		t.Fatalf("restock component: %v", err)
	}
	err = f.db.Model(&models.StockLevel{}).
		Where("warehouse_id = ? AND component_type_id = ?", f.warehouseID, f.typeID).
		Update("quantity_in_stock", 1).Error
	if err != nil {
		t.Fatalf("restock level: %v", err)
	}

	outcomes, err = f.svc.Decide(ctx, f.manager, DecideInput{ApprovedIDs: []uuid.UUID{line.ID}})
	if err != nil {
		t.Fatalf("decide after restock: %v", err)
	}
	if outcomes[0].Result != OutcomeApproved {
		t.Fatalf("expected approval after restock: %+v", outcomes[0])
	}
	reloaded, err = f.svc.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if reloaded.Status != enums.RecordStatusInRepair {
		t.Fatalf("expected in_repair after restock, got %s", reloaded.Status)
	}
}

func TestRejectingBlockedLineResumesParkedRecord(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	record := f.openRecord(t)
	line := f.submitComponentLine(t, record)
	ctx := context.Background()

	// Empty stock parks the record on the failed approval.
	outcomes, err := f.svc.Decide(ctx, f.manager, DecideInput{ApprovedIDs: []uuid.UUID{line.ID}})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if outcomes[0].ErrorCode != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock outcome: %+v", outcomes[0])
	}
	reloaded, err := f.svc.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if reloaded.Status != enums.RecordStatusWaitingForParts {
		t.Fatalf("expected waiting_for_parts, got %s", reloaded.Status)
	}

	// The manager fails the claim instead of waiting for replenishment: with
	// no pending lines left the record must leave the parked state.
	outcomes, err = f.svc.Decide(ctx, f.manager, DecideInput{RejectedIDs: []uuid.UUID{line.ID}})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if outcomes[0].Result != OutcomeRejected {
		t.Fatalf("expected rejection: %+v", outcomes[0])
	}
	reloaded, err = f.svc.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if reloaded.Status != enums.RecordStatusInRepair {
		t.Fatalf("expected in_repair after rejection, got %s", reloaded.Status)
	}

	completed, err := f.svc.Complete(ctx, f.manager, record.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != enums.RecordStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
}

func TestDecideBatchIsIndependentAcrossLines(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	record := f.openRecord(t)
	ctx := context.Background()

	lines, err := f.svc.SubmitCaseLines(ctx, f.technician, record.Cases[0].ID, []CaseLineInput{
		{Diagnosis: "Battery degradation", Correction: "Replace battery", ComponentTypeID: &f.typeID, Quantity: 1},
		{Diagnosis: "Battery degradation again", Correction: "Replace battery", ComponentTypeID: &f.typeID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	outcomes, err := f.svc.Decide(ctx, f.manager, DecideInput{ApprovedIDs: []uuid.UUID{lines[0].ID, lines[1].ID}})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}

	// Only one unit in stock: the first line wins, the second fails alone.
	if outcomes[0].Result != OutcomeApproved {
		t.Fatalf("expected first line approved: %+v", outcomes[0])
	}
	if outcomes[1].Result != OutcomeFailed || outcomes[1].ErrorCode != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected second line to fail on stock: %+v", outcomes[1])
	}
}

func TestCompleteRequiresDecidedLines(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	record := f.openRecord(t)
	line := f.submitComponentLine(t, record)
	ctx := context.Background()

	_, err := f.svc.Complete(ctx, f.manager, record.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}

	if _, err := f.svc.Decide(ctx, f.manager, DecideInput{RejectedIDs: []uuid.UUID{line.ID}}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	completed, err := f.svc.Complete(ctx, f.manager, record.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != enums.RecordStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	for _, guaranteeCase := range completed.Cases {
		if guaranteeCase.Status != enums.GuaranteeCaseStatusClosed {
			t.Fatalf("expected closed case, got %s", guaranteeCase.Status)
		}
	}
}

func TestCancelIsBlockedByInstalledComponents(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	record := f.openRecord(t)
	line := f.submitComponentLine(t, record)
	ctx := context.Background()

	if _, err := f.svc.Decide(ctx, f.manager, DecideInput{ApprovedIDs: []uuid.UUID{line.ID}}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err := f.svc.Cancel(ctx, f.manager, record.ID, "customer changed their mind")
	if !pkgerrors.HasCode(err, pkgerrors.CodeIrreversibleState) {
		t.Fatalf("expected irreversible state, got %v", err)
	}
}

func TestCancelRequiresReason(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	record := f.openRecord(t)

	_, err := f.svc.Cancel(context.Background(), f.manager, record.ID, "  ")
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
