package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockcore/backend/internal/domain/shared"
	"github.com/stockcore/backend/internal/domain/voucher"
)

// GormDeliveryNoteRepository implements DeliveryNoteRepository using GORM
type GormDeliveryNoteRepository struct {
	db *gorm.DB
}

// NewGormDeliveryNoteRepository creates a new GormDeliveryNoteRepository
func NewGormDeliveryNoteRepository(db *gorm.DB) *GormDeliveryNoteRepository {
	return &GormDeliveryNoteRepository{db: db}
}

// FindByID finds a delivery note with its rows
func (r *GormDeliveryNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*voucher.DeliveryNote, error) {
	var note voucher.DeliveryNote
	if err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		First(&note, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &note, nil
}

// FindByVoucherNo finds a delivery note by its voucher number
func (r *GormDeliveryNoteRepository) FindByVoucherNo(ctx context.Context, voucherNo string) (*voucher.DeliveryNote, error) {
	var note voucher.DeliveryNote
	if err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Where("voucher_no = ?", voucherNo).
		First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &note, nil
}

// Save creates or updates a delivery note with its rows. Automatic batch
// allocation may replace rows before submission, so stale rows of the
// aggregate are removed first.
func (r *GormDeliveryNoteRepository) Save(ctx context.Context, note *voucher.DeliveryNote) error {
	keep := make([]uuid.UUID, 0, len(note.Rows))
	for _, row := range note.Rows {
		keep = append(keep, row.ID)
	}
	tx := r.db.WithContext(ctx)
	if len(keep) > 0 {
		if err := tx.Delete(&voucher.DeliveryNoteRow{},
			"delivery_id = ? AND id NOT IN ?", note.ID, keep).Error; err != nil {
			return err
		}
	}
	return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(note).Error
}

// SubmittedForOrder returns all submitted delivery notes with at least one
// row linked to the order
func (r *GormDeliveryNoteRepository) SubmittedForOrder(ctx context.Context, orderID uuid.UUID) ([]*voucher.DeliveryNote, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&voucher.DeliveryNoteRow{}).
		Distinct("delivery_id").
		Where("sales_order_id = ?", orderID).
		Pluck("delivery_id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*voucher.DeliveryNote{}, nil
	}

	var notes []*voucher.DeliveryNote
	err = r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Where("id IN ? AND doc_status = ?", ids, voucher.DocStatusSubmitted).
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// Ensure GormDeliveryNoteRepository implements DeliveryNoteRepository
var _ voucher.DeliveryNoteRepository = (*GormDeliveryNoteRepository)(nil)
