package transfers

import (
	"context"
	"errors"

	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/evmotors/warranty-backend/pkg/enums"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/evmotors/warranty-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists stock transfer requests and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a transfers repository bound to the provided gorm DB.
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

// CreateRequest inserts a request with its nested items.
func (r *Repository) CreateRequest(ctx context.Context, request *models.StockTransferRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// FindRequestByID loads a request with items and their component types.
func (r *Repository) FindRequestByID(ctx context.Context, id uuid.UUID) (*models.StockTransferRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer request id is required")
	}

	var request models.StockTransferRequest
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.ComponentType").
		First(&request, "id = ?", id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "transfer request not found")
		}
		return nil, err
	}
	return &request, nil
}

// ListRequests returns a cursor page of requests, newest first, optionally
// filtered by status.
func (r *Repository) ListRequests(ctx context.Context, status *enums.TransferStatus, params pagination.Params) (RequestsPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return RequestsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).Model(&models.StockTransferRequest{}).Preload("Items")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.StockTransferRequest
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).
		Error
	if err != nil {
		return RequestsPageDTO{}, err
	}

	page := RequestsPageDTO{Requests: rows}
	if len(rows) > normalizedLimit {
		page.Requests = rows[:normalizedLimit]
		last := page.Requests[len(page.Requests)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// TransitionRequest flips a request from -> to with a guarded update.
func (r *Repository) TransitionRequest(ctx context.Context, id uuid.UUID, from, to enums.TransferStatus, updates map[string]any) (bool, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to

	result := r.db.WithContext(ctx).
		Model(&models.StockTransferRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateItem stamps an item's approved quantity and reservation.
func (r *Repository) UpdateItem(ctx context.Context, itemID uuid.UUID, quantityApproved int, reservationID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.StockTransferItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"quantity_approved": quantityApproved,
			"reservation_id":    reservationID,
		}).
		Error
}

// WarehouseExists reports whether a warehouse row exists.
func (r *Repository) WarehouseExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Warehouse{}).
		Where("id = ?", id).
		Count(&count).
		Error
	return count > 0, err
}
