package repository

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type RefundFilter struct {
	UserID string
	Status model.RefundStatus
	Page
}

type RefundRepository interface {
	Create(ctx context.Context, refund *model.Refund) error
	NumberExists(ctx context.Context, number string) (bool, error)
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*model.Refund, error)
	HasOpen(ctx context.Context, paymentID string) (bool, error)
	List(ctx context.Context, filter RefundFilter) ([]*model.Refund, int64, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id string, from, to model.RefundStatus, notes, adminID string) error
	CountByStatus(ctx context.Context, status model.RefundStatus) (int64, error)
}

type refundRepoImpl struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) RefundRepository {
	return &refundRepoImpl{
		db: db,
	}
}

func (r *refundRepoImpl) Create(ctx context.Context, refund *model.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *refundRepoImpl) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Refund{}).
		Where("refund_number = ?", number).
		Count(&count).Error

	return count > 0, err
}

func (r *refundRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, id string) (*model.Refund, error) {
	var refund model.Refund
	err := conn(r.db, tx).WithContext(ctx).
		Where("id = ?", id).
		First(&refund).
		Error

	if err != nil {
		return nil, notFound(err, "refund")
	}

	return &refund, nil
}

// HasOpen reports whether a refund for the payment is pending or approved.
func (r *refundRepoImpl) HasOpen(ctx context.Context, paymentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Refund{}).
		Where("payment_id = ? AND status IN ?", paymentID, []model.RefundStatus{model.RefundPending, model.RefundApproved}).
		Count(&count).Error

	return count > 0, err
}

func (r *refundRepoImpl) List(ctx context.Context, filter RefundFilter) ([]*model.Refund, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Refund{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := filter.normalize()
	var refunds []*model.Refund
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&refunds).Error
	if err != nil {
		return nil, 0, err
	}

	return refunds, total, nil
}

func (r *refundRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, from, to model.RefundStatus, notes, adminID string) error {
	updates := map[string]interface{}{
		"status":       to,
		"processed_by": adminID,
		"updated_at":   time.Now(),
	}
	if notes != "" {
		updates["admin_notes"] = notes
	}
	if to == model.RefundProcessed {
		updates["processed_at"] = time.Now()
	}

	result := conn(r.db, tx).WithContext(ctx).
		Model(&model.Refund{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.Newf(apperr.KindInvalidTransition, "refund is no longer %s", from)
	}

	return nil
}

func (r *refundRepoImpl) CountByStatus(ctx context.Context, status model.RefundStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Refund{}).
		Where("status = ?", status).
		Count(&count).Error

	return count, err
}
