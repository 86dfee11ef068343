package records

import (
	"context"
	"errors"
	"time"

	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/evmotors/warranty-backend/pkg/enums"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/evmotors/warranty-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists processing records, guarantee cases and case lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a records repository bound to the provided gorm DB.
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

// CreateRecord inserts a record with its nested guarantee cases. The partial
// unique index on (vin) over non-terminal statuses rejects a second open
// record for the same vehicle.
func (r *Repository) CreateRecord(ctx context.Context, record *models.ProcessingRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindRecordByID loads a record with its cases and lines.
func (r *Repository) FindRecordByID(ctx context.Context, id uuid.UUID) (*models.ProcessingRecord, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}

	var record models.ProcessingRecord
	err := r.db.WithContext(ctx).
		Preload("Cases", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Cases.Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&record, "id = ?", id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "processing record not found")
		}
		return nil, err
	}
	return &record, nil
}

// ListRecords returns a cursor page of records, newest first, optionally
// filtered by status.
func (r *Repository) ListRecords(ctx context.Context, status *enums.RecordStatus, params pagination.Params) (RecordsPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return RecordsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).Model(&models.ProcessingRecord{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.ProcessingRecord
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).
		Error
	if err != nil {
		return RecordsPageDTO{}, err
	}

	page := RecordsPageDTO{Records: rows}
	if len(rows) > normalizedLimit {
		page.Records = rows[:normalizedLimit]
		last := page.Records[len(page.Records)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// TransitionRecord flips a record from -> to with a guarded update so racing
// callers cannot both take the same edge.
func (r *Repository) TransitionRecord(ctx context.Context, id uuid.UUID, from, to enums.RecordStatus, updates map[string]any) (bool, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to

	result := r.db.WithContext(ctx).
		Model(&models.ProcessingRecord{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FindCaseByID loads a guarantee case with its lines.
func (r *Repository) FindCaseByID(ctx context.Context, id uuid.UUID) (*models.GuaranteeCase, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "case id is required")
	}

	var guaranteeCase models.GuaranteeCase
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&guaranteeCase, "id = ?", id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "guarantee case not found")
		}
		return nil, err
	}
	return &guaranteeCase, nil
}

// CreateCaseLines inserts the submitted lines in one statement.
func (r *Repository) CreateCaseLines(ctx context.Context, lines []models.CaseLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

// UpdateCaseStatus moves a guarantee case along its coarse lifecycle.
func (r *Repository) UpdateCaseStatus(ctx context.Context, id uuid.UUID, status enums.GuaranteeCaseStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.GuaranteeCase{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

// FindCaseLineByID loads one line.
func (r *Repository) FindCaseLineByID(ctx context.Context, id uuid.UUID) (*models.CaseLine, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "case line id is required")
	}

	var line models.CaseLine
	err := r.db.WithContext(ctx).First(&line, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "case line not found")
		}
		return nil, err
	}
	return &line, nil
}

// DecideCaseLine stamps a pending line with its decision. The status guard
// makes a replayed decision a no-op at the storage layer.
func (r *Repository) DecideCaseLine(ctx context.Context, id uuid.UUID, status enums.CaseLineApprovalStatus, decidedBy uuid.UUID, decidedAt time.Time, reservationID *uuid.UUID) (bool, error) {
	updates := map[string]any{
		"approval_status": status,
		"decided_by":      decidedBy,
		"decided_at":      decidedAt,
	}
	if reservationID != nil {
		updates["reservation_id"] = *reservationID
	}

	result := r.db.WithContext(ctx).
		Model(&models.CaseLine{}).
		Where("id = ? AND approval_status = ?", id, enums.CaseLineApprovalStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FindRecordForLine resolves the processing record a line belongs to.
func (r *Repository) FindRecordForLine(ctx context.Context, lineID uuid.UUID) (*models.ProcessingRecord, error) {
	var record models.ProcessingRecord
	err := r.db.WithContext(ctx).
		Joins("JOIN guarantee_cases gc ON gc.record_id = processing_records.id").
		Joins("JOIN case_lines cl ON cl.case_id = gc.id").
		Where("cl.id = ?", lineID).
		First(&record).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "processing record not found for line")
		}
		return nil, err
	}
	return &record, nil
}

// CountPendingCaseLines counts undecided lines across every case of a record.
func (r *Repository) CountPendingCaseLines(ctx context.Context, recordID uuid.UUID) (int64, error) {
	var pending int64
	err := r.db.WithContext(ctx).
		Model(&models.CaseLine{}).
		Joins("JOIN guarantee_cases gc ON gc.id = case_lines.case_id").
		Where("gc.record_id = ? AND case_lines.approval_status = ?", recordID, enums.CaseLineApprovalStatusPending).
		Count(&pending).
		Error
	return pending, err
}

// ListActiveReservationsForRecord returns live repair holds attached to any
// line of the record.
func (r *Repository) ListActiveReservationsForRecord(ctx context.Context, recordID uuid.UUID) ([]models.StockReservation, error) {
	var reservations []models.StockReservation
	err := r.db.WithContext(ctx).
		Joins("JOIN case_lines cl ON cl.id = stock_reservations.case_line_id").
		Joins("JOIN guarantee_cases gc ON gc.id = cl.case_id").
		Where("gc.record_id = ? AND stock_reservations.status = ?", recordID, enums.ReservationStatusActive).
		Find(&reservations).
		Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}
