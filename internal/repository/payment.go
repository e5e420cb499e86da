package repository

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/model"
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentFilter struct {
	UserID        string
	ApplicationID string
	Status        model.PaymentStatus
	PaymentType   model.PaymentType
	Page
}

// Settlement is the gateway outcome applied to a pending payment.
type Settlement struct {
	Status           model.PaymentStatus
	GatewayPaymentID string
	Method           model.PaymentMethod
	Response         datatypes.JSONMap
	FailureReason    string
	PaidAt           *time.Time
}

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
	TransactionIDExists(ctx context.Context, transactionID string) (bool, error)
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*model.Payment, error)
	FindByGatewayOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]*model.Payment, int64, error)
	HasCompleted(ctx context.Context, tx *gorm.DB, applicationID string, paymentType model.PaymentType, excludeID string) (bool, error)
	MarkSettled(ctx context.Context, tx *gorm.DB, id string, s Settlement) (bool, error)
	MarkRefunded(ctx context.Context, tx *gorm.DB, id string) error
	SumCompleted(ctx context.Context) (decimal.Decimal, error)
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

func (r *paymentRepoImpl) Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	return conn(r.db, tx).WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) TransactionIDExists(ctx context.Context, transactionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error

	return count > 0, err
}

func (r *paymentRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, id string) (*model.Payment, error) {
	var payment model.Payment
	err := conn(r.db, tx).WithContext(ctx).
		Where("id = ?", id).
		First(&payment).Error

	if err != nil {
		return nil, notFound(err, "payment")
	}

	return &payment, nil
}

func (r *paymentRepoImpl) FindByGatewayOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("gateway_order_id = ?", orderID).
		First(&payment).Error

	if err != nil {
		return nil, notFound(err, "payment")
	}

	return &payment, nil
}

func (r *paymentRepoImpl) List(ctx context.Context, filter PaymentFilter) ([]*model.Payment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Payment{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.ApplicationID != "" {
		q = q.Where("application_id = ?", filter.ApplicationID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.PaymentType != "" {
		q = q.Where("payment_type = ?", filter.PaymentType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := filter.normalize()
	var payments []*model.Payment
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *paymentRepoImpl) HasCompleted(ctx context.Context, tx *gorm.DB, applicationID string, paymentType model.PaymentType, excludeID string) (bool, error) {
	q := conn(r.db, tx).WithContext(ctx).Model(&model.Payment{}).
		Where("application_id = ?", applicationID).
		Where("payment_type = ?", paymentType).
		Where("status = ?", model.PaymentCompleted)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	err := q.Count(&count).Error

	return count > 0, err
}

// MarkSettled moves a pending or processing payment to its outcome.
// It returns false when the payment was already settled.
func (r *paymentRepoImpl) MarkSettled(ctx context.Context, tx *gorm.DB, id string, s Settlement) (bool, error) {
	updates := map[string]interface{}{
		"status":         s.Status,
		"failure_reason": s.FailureReason,
		"paid_at":        s.PaidAt,
		"updated_at":     time.Now(),
	}
	if s.GatewayPaymentID != "" {
		updates["gateway_payment_id"] = s.GatewayPaymentID
	}
	if s.Method != "" {
		updates["payment_method"] = s.Method
	}
	if s.Response != nil {
		updates["gateway_response"] = s.Response
	}

	result := conn(r.db, tx).WithContext(ctx).Model(&model.Payment{}).
		Where(`
			id = ?
			AND status IN ?
		`,
			id,
			[]model.PaymentStatus{model.PaymentPending, model.PaymentProcessing},
		).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *paymentRepoImpl) MarkRefunded(ctx context.Context, tx *gorm.DB, id string) error {
	result := conn(r.db, tx).WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, model.PaymentCompleted).
		Updates(map[string]interface{}{
			"status":     model.PaymentRefunded,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.KindInvalidTransition, "only a completed payment can be refunded")
	}

	return nil
}

func (r *paymentRepoImpl) SumCompleted(ctx context.Context) (decimal.Decimal, error) {
	var row struct {
		Total decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("status = ?", model.PaymentCompleted).
		Select("SUM(amount) AS total").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !row.Total.Valid {
		return decimal.Zero, nil
	}

	return row.Total.Decimal, nil
}
