package records

import (
	"context"
	"strings"
	"time"

	"github.com/evmotors/warranty-backend/internal/ledger"
	"github.com/evmotors/warranty-backend/internal/warranty"
	"github.com/evmotors/warranty-backend/pkg/auth"
	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/evmotors/warranty-backend/pkg/enums"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/evmotors/warranty-backend/pkg/metrics"
	"github.com/evmotors/warranty-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service orchestrates the processing-record lifecycle: intake, diagnosis,
// case-line approval, completion and cancellation.
type Service interface {
	Intake(ctx context.Context, actor auth.ActorRef, input IntakeInput) (*models.ProcessingRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ProcessingRecord, error)
	List(ctx context.Context, status *enums.RecordStatus, params pagination.Params) (RecordsPageDTO, error)
	StartDiagnosis(ctx context.Context, actor auth.ActorRef, recordID uuid.UUID) (*models.ProcessingRecord, error)
	SubmitCaseLines(ctx context.Context, actor auth.ActorRef, caseID uuid.UUID, lines []CaseLineInput) ([]models.CaseLine, error)
	Decide(ctx context.Context, actor auth.ActorRef, input DecideInput) ([]DecisionOutcome, error)
	Complete(ctx context.Context, actor auth.ActorRef, recordID uuid.UUID) (*models.ProcessingRecord, error)
	Cancel(ctx context.Context, actor auth.ActorRef, recordID uuid.UUID, reason string) (*models.ProcessingRecord, error)
}

// ServiceParams groups dependencies for the records service.
type ServiceParams struct {
	Tx       txRunner
	Repo     *Repository
	Warranty warranty.Service
	Metrics  *metrics.Registry

	// Clock defaults to time.Now.
	Clock func() time.Time
}

type service struct {
	tx       txRunner
	repo     *Repository
	warranty warranty.Service
	metrics  *metrics.Registry
	clock    func() time.Time
}

// NewService builds the records service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "records repo is required")
	}
	if params.Warranty == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warranty service is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		tx:       params.Tx,
		repo:     params.Repo,
		warranty: params.Warranty,
		metrics:  params.Metrics,
		clock:    clock,
	}, nil
}

// Intake opens a processing record with its initial guarantee cases. The
// database enforces at most one open record per VIN; a losing racer gets the
// conflict, never a second open record.
func (s *service) Intake(ctx context.Context, actor auth.ActorRef, input IntakeInput) (*models.ProcessingRecord, error) {
	if err := validateIntake(input); err != nil {
		return nil, err
	}

	record := models.ProcessingRecord{
		ID:          uuid.New(),
		VIN:         strings.TrimSpace(input.VIN),
		WarehouseID: input.WarehouseID,
		OdometerKm:  input.OdometerKm,
		Visitor:     input.Visitor,
		Status:      enums.RecordStatusCheckedIn,
		CheckedInAt: s.clock(),
	}
	for _, caseInput := range input.GuaranteeCases {
		record.Cases = append(record.Cases, models.GuaranteeCase{
			ID:        uuid.New(),
			RecordID:  record.ID,
			Title:     strings.TrimSpace(caseInput.Title),
			Complaint: strings.TrimSpace(caseInput.Complaint),
			Status:    enums.GuaranteeCaseStatusOpen,
		})
	}

	if err := s.repo.CreateRecord(ctx, &record); err != nil {
		if pkgerrors.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "vehicle already has an open processing record").
				WithDetails(map[string]any{"vin": record.VIN})
		}
		return nil, err
	}

	s.metrics.ObserveTransition("none", enums.RecordStatusCheckedIn.String())
	return &record, nil
}

// Get loads one record with nested cases and lines.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ProcessingRecord, error) {
	return s.repo.FindRecordByID(ctx, id)
}

// List pages through records newest first.
func (s *service) List(ctx context.Context, status *enums.RecordStatus, params pagination.Params) (RecordsPageDTO, error) {
	if status != nil && !status.IsValid() {
		return RecordsPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	return s.repo.ListRecords(ctx, status, params)
}

// StartDiagnosis moves a checked-in record into diagnosis and assigns the
// acting technician.
func (s *service) StartDiagnosis(ctx context.Context, actor auth.ActorRef, recordID uuid.UUID) (*models.ProcessingRecord, error) {
	record, err := s.repo.FindRecordByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !record.Status.CanTransitionTo(enums.RecordStatusInDiagnosis) {
		return nil, invalidTransition(record.Status, enums.RecordStatusInDiagnosis)
	}
	if len(record.Cases) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "record has no guarantee cases to diagnose")
	}

	moved, err := s.repo.TransitionRecord(ctx, record.ID, record.Status, enums.RecordStatusInDiagnosis,
		map[string]any{"technician_id": actor.UserID})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, invalidTransition(record.Status, enums.RecordStatusInDiagnosis)
	}

	s.metrics.ObserveTransition(record.Status.String(), enums.RecordStatusInDiagnosis.String())
	return s.repo.FindRecordByID(ctx, record.ID)
}

// SubmitCaseLines validates and stores a technician's diagnosis entries, each
// stamped with its warranty status computed at the record's intake odometer.
func (s *service) SubmitCaseLines(ctx context.Context, actor auth.ActorRef, caseID uuid.UUID, lines []CaseLineInput) ([]models.CaseLine, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one case line is required")
	}
	if err := validateCaseLines(lines); err != nil {
		return nil, err
	}

	guaranteeCase, err := s.repo.FindCaseByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.FindRecordByID(ctx, guaranteeCase.RecordID)
	if err != nil {
		return nil, err
	}
	if record.Status != enums.RecordStatusInDiagnosis && record.Status != enums.RecordStatusWaitingForParts {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "case lines can only be submitted during diagnosis").
			WithDetails(map[string]any{"status": record.Status})
	}

	report, err := s.warranty.Evaluate(ctx, record.VIN, record.OdometerKm)
	if err != nil {
		return nil, err
	}

	created := make([]models.CaseLine, 0, len(lines))
	for _, input := range lines {
		created = append(created, models.CaseLine{
			ID:              uuid.New(),
			CaseID:          guaranteeCase.ID,
			Diagnosis:       strings.TrimSpace(input.Diagnosis),
			Correction:      strings.TrimSpace(input.Correction),
			ComponentTypeID: input.ComponentTypeID,
			Quantity:        input.Quantity,
			WarrantyStatus:  stampFor(report, input.ComponentTypeID),
			ApprovalStatus:  enums.CaseLineApprovalStatusPending,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateCaseLines(ctx, created); err != nil {
			return err
		}
		if guaranteeCase.Status == enums.GuaranteeCaseStatusOpen {
			return repo.UpdateCaseStatus(ctx, guaranteeCase.ID, enums.GuaranteeCaseStatusDiagnosed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

type recordProgress struct {
	hadReservationFailure bool
	hadComponentApproval  bool
}

// Decide applies one approval batch. Lines are decided independently: one
// line's reservation failure never rolls back another line's success. Replays
// against already-terminal lines report a state conflict instead of silently
// succeeding, so retried requests cannot double-consume stock.
func (s *service) Decide(ctx context.Context, actor auth.ActorRef, input DecideInput) ([]DecisionOutcome, error) {
	if len(input.ApprovedIDs) == 0 && len(input.RejectedIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no case line ids provided")
	}

	progress := map[uuid.UUID]*recordProgress{}
	outcomes := make([]DecisionOutcome, 0, len(input.ApprovedIDs)+len(input.RejectedIDs))
	for _, lineID := range input.RejectedIDs {
		outcomes = append(outcomes, s.decideOne(ctx, actor, lineID, false, progress))
	}
	for _, lineID := range input.ApprovedIDs {
		outcomes = append(outcomes, s.decideOne(ctx, actor, lineID, true, progress))
	}

	// A waiting record resumes repair once the batch clears its blockage:
	// either a component line got its reservation, or the blocked lines were
	// rejected and nothing is left pending. Without the rejection branch a
	// parked record whose failing line is turned down could never complete.
	for recordID, state := range progress {
		if state.hadReservationFailure {
			continue
		}
		promote := state.hadComponentApproval
		if !promote {
			pending, err := s.repo.CountPendingCaseLines(ctx, recordID)
			if err != nil {
				return outcomes, err
			}
			promote = pending == 0
		}
		if !promote {
			continue
		}
		moved, err := s.repo.TransitionRecord(ctx, recordID, enums.RecordStatusWaitingForParts, enums.RecordStatusInRepair, nil)
		if err != nil {
			return outcomes, err
		}
		if moved {
			s.metrics.ObserveTransition(enums.RecordStatusWaitingForParts.String(), enums.RecordStatusInRepair.String())
		}
	}

	return outcomes, nil
}

// decideOne processes a single line inside its own transaction so decisions
// stay independent across the batch.
func (s *service) decideOne(ctx context.Context, actor auth.ActorRef, lineID uuid.UUID, approve bool, progress map[uuid.UUID]*recordProgress) DecisionOutcome {
	outcome := DecisionOutcome{CaseLineID: lineID, Result: OutcomeFailed}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		line, err := repo.FindCaseLineByID(ctx, lineID)
		if err != nil {
			return err
		}
		if line.ApprovalStatus != enums.CaseLineApprovalStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "case line already decided").
				WithDetails(map[string]any{"approvalStatus": line.ApprovalStatus})
		}

		record, err := repo.FindRecordForLine(ctx, lineID)
		if err != nil {
			return err
		}
		tracked := progress[record.ID]
		if tracked == nil {
			tracked = &recordProgress{}
			progress[record.ID] = tracked
		}

		if !approve {
			decided, err := repo.DecideCaseLine(ctx, lineID, enums.CaseLineApprovalStatusRejected, actor.UserID, s.clock(), nil)
			if err != nil {
				return err
			}
			if !decided {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "case line already decided")
			}
			outcome.Result = OutcomeRejected
			return nil
		}

		var reservationID *uuid.UUID
		if line.ComponentTypeID != nil {
			reservation, err := ledger.Reserve(ctx, tx, ledger.ReserveRequest{
				WarehouseID:     record.WarehouseID,
				ComponentTypeID: *line.ComponentTypeID,
				Quantity:        line.Quantity,
				Purpose:         enums.ReservationPurposeRepair,
				CaseLineID:      &line.ID,
			})
			if err != nil {
				if pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
					tracked.hadReservationFailure = true
					s.metrics.ObserveReservation(enums.ReservationPurposeRepair.String(), "insufficient")
				}
				return err
			}
			s.metrics.ObserveReservation(enums.ReservationPurposeRepair.String(), "granted")

			// Repair reservations convert straight to installation; the
			// token never outlives this transaction.
			if err := ledger.ConsumeAndInstall(ctx, tx, reservation.ID, record.VIN, s.clock()); err != nil {
				return err
			}
			reservationID = &reservation.ID

			if err := repo.UpdateCaseStatus(ctx, line.CaseID, enums.GuaranteeCaseStatusInRepair); err != nil {
				return err
			}
			tracked.hadComponentApproval = true
		}

		decided, err := repo.DecideCaseLine(ctx, lineID, enums.CaseLineApprovalStatusApproved, actor.UserID, s.clock(), reservationID)
		if err != nil {
			return err
		}
		if !decided {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "case line already decided")
		}
		outcome.Result = OutcomeApproved
		return nil
	})
	if err != nil {
		outcome.Result = OutcomeFailed
		if typed := pkgerrors.As(err); typed != nil {
			outcome.ErrorCode = string(typed.Code())
			outcome.Message = typed.Message()
		} else {
			outcome.ErrorCode = string(pkgerrors.CodeInternal)
			outcome.Message = err.Error()
		}

		// Insufficient stock parks the whole record until replenishment;
		// repeated failures while already waiting are no-ops.
		if pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
			if record, ferr := s.repo.FindRecordForLine(ctx, lineID); ferr == nil {
				moved, terr := s.repo.TransitionRecord(ctx, record.ID, enums.RecordStatusInDiagnosis, enums.RecordStatusWaitingForParts, nil)
				if terr == nil && moved {
					s.metrics.ObserveTransition(enums.RecordStatusInDiagnosis.String(), enums.RecordStatusWaitingForParts.String())
				}
			}
		}
	}
	return outcome
}

// Complete closes a record once every line is decided and every approved
// component line is installed.
func (s *service) Complete(ctx context.Context, actor auth.ActorRef, recordID uuid.UUID) (*models.ProcessingRecord, error) {
	record, err := s.repo.FindRecordByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !record.Status.CanTransitionTo(enums.RecordStatusCompleted) {
		return nil, invalidTransition(record.Status, enums.RecordStatusCompleted)
	}

	for _, guaranteeCase := range record.Cases {
		for _, line := range guaranteeCase.Lines {
			if !line.ApprovalStatus.IsTerminal() {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "record has undecided case lines").
					WithDetails(map[string]any{"caseLineId": line.ID})
			}
			if line.ApprovalStatus == enums.CaseLineApprovalStatusApproved &&
				line.ComponentTypeID != nil && line.ReservationID == nil {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "approved line has no installed component").
					WithDetails(map[string]any{"caseLineId": line.ID})
			}
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		moved, err := repo.TransitionRecord(ctx, record.ID, record.Status, enums.RecordStatusCompleted, nil)
		if err != nil {
			return err
		}
		if !moved {
			return invalidTransition(record.Status, enums.RecordStatusCompleted)
		}
		for _, guaranteeCase := range record.Cases {
			if err := repo.UpdateCaseStatus(ctx, guaranteeCase.ID, enums.GuaranteeCaseStatusClosed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(record.Status.String(), enums.RecordStatusCompleted.String())
	return s.repo.FindRecordByID(ctx, record.ID)
}

// Cancel aborts a record and releases any live repair holds. Records with
// approved component lines cannot be cancelled: installed components are not
// reversed by cancellation.
func (s *service) Cancel(ctx context.Context, actor auth.ActorRef, recordID uuid.UUID, reason string) (*models.ProcessingRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancel reason is required")
	}

	record, err := s.repo.FindRecordByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status.IsTerminal() {
		return nil, invalidTransition(record.Status, enums.RecordStatusCancelled)
	}

	for _, guaranteeCase := range record.Cases {
		for _, line := range guaranteeCase.Lines {
			if line.ApprovalStatus == enums.CaseLineApprovalStatusApproved && line.ComponentTypeID != nil {
				return nil, pkgerrors.New(pkgerrors.CodeIrreversibleState, "record has installed components").
					WithDetails(map[string]any{"caseLineId": line.ID})
			}
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		reservations, err := repo.ListActiveReservationsForRecord(ctx, record.ID)
		if err != nil {
			return err
		}
		for _, reservation := range reservations {
			if err := ledger.Release(ctx, tx, reservation.ID); err != nil {
				return err
			}
		}

		moved, err := repo.TransitionRecord(ctx, record.ID, record.Status, enums.RecordStatusCancelled,
			map[string]any{"cancel_reason": reason})
		if err != nil {
			return err
		}
		if !moved {
			return invalidTransition(record.Status, enums.RecordStatusCancelled)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(record.Status.String(), enums.RecordStatusCancelled.String())
	return s.repo.FindRecordByID(ctx, record.ID)
}

func invalidTransition(from, to enums.RecordStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "invalid record transition").
		WithDetails(map[string]any{"from": from, "to": to})
}

// stampFor picks the verdict that covers a line: the per-type verdict when
// the line names a component, the general verdict otherwise. A component type
// without a configured policy is not covered.
func stampFor(report warranty.Report, componentTypeID *uuid.UUID) enums.WarrantyStatus {
	if componentTypeID == nil {
		return report.General.Overall
	}
	for _, component := range report.Components {
		if component.ComponentTypeID == *componentTypeID {
			return component.Overall
		}
	}
	return enums.WarrantyStatusExpired
}

func validateIntake(input IntakeInput) error {
	details := map[string]string{}
	if strings.TrimSpace(input.VIN) == "" {
		details["vin"] = "required"
	}
	if input.WarehouseID == uuid.Nil {
		details["warehouseId"] = "required"
	}
	if input.OdometerKm < 0 {
		details["odometerKm"] = "must not be negative"
	}
	if err := input.Visitor.Validate(); err != nil {
		details["visitor"] = err.Error()
	}
	if len(input.GuaranteeCases) == 0 {
		details["guaranteeCases"] = "at least one case is required"
	}
	for _, caseInput := range input.GuaranteeCases {
		if strings.TrimSpace(caseInput.Title) == "" || strings.TrimSpace(caseInput.Complaint) == "" {
			details["guaranteeCases"] = "title and complaint are required"
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid intake request").WithDetails(details)
	}
	return nil
}

func validateCaseLines(lines []CaseLineInput) error {
	for i, line := range lines {
		details := map[string]any{"index": i}
		switch {
		case strings.TrimSpace(line.Diagnosis) == "":
			details["diagnosis"] = "required"
		case strings.TrimSpace(line.Correction) == "":
			details["correction"] = "required"
		case line.Quantity < 0:
			details["quantity"] = "must not be negative"
		case line.ComponentTypeID == nil && line.Quantity > 0:
			details["quantity"] = "requires a component type"
		case line.ComponentTypeID != nil && line.Quantity == 0:
			details["quantity"] = "must be positive when a component type is set"
		default:
			continue
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid case line").WithDetails(details)
	}
	return nil
}
