package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page describes a 1-based page request
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to sane bounds
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// PaymentFilter narrows admin payment listings
type PaymentFilter struct {
	Status models.PaymentStatus
	Method models.PaymentMethod
	UserID string
	Page   Page
}

// PaymentRepository is the narrow storage interface used by the lifecycle engine and jobs
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]models.Payment, int64, error)
	ListByUser(ctx context.Context, userID string, page Page) ([]models.Payment, int64, error)
	// UpdatePending applies updates only while the payment is pending and
	// reports whether a row changed.
	UpdatePending(ctx context.Context, id string, updates map[string]interface{}) (bool, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	FindExpiringBefore(ctx context.Context, before time.Time) ([]models.Payment, error)
	FindUpcoming(ctx context.Context, userID string, before time.Time) ([]models.Payment, error)
	FindScreenshotsExpiredBefore(ctx context.Context, before time.Time) ([]models.Payment, error)
	ClearScreenshot(ctx context.Context, id string) error
}

type gormPaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &gormPaymentRepository{db: db}
}

func (r *gormPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return apperr.Infra("failed to create payment", err)
	}
	return nil
}

func (r *gormPaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Preload("User").First(&payment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("payment not found")
		}
		return nil, apperr.Infra("failed to fetch payment", err)
	}
	return &payment, nil
}

func (r *gormPaymentRepository) List(ctx context.Context, filter PaymentFilter) ([]models.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}

	return paginate(query, filter.Page)
}

func (r *gormPaymentRepository) ListByUser(ctx context.Context, userID string, page Page) ([]models.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{}).Where("user_id = ?", userID)
	return paginate(query, page)
}

func paginate(query *gorm.DB, page Page) ([]models.Payment, int64, error) {
	page = page.Normalize()

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Infra("failed to count payments", err)
	}

	var payments []models.Payment
	err := query.Preload("User").
		Order("created_at desc").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&payments).Error
	if err != nil {
		return nil, 0, apperr.Infra("failed to fetch payments", err)
	}
	return payments, total, nil
}

func (r *gormPaymentRepository) UpdatePending(ctx context.Context, id string, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, apperr.Infra("failed to update payment", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormPaymentRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return apperr.Infra("failed to update payment", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NewNotFound("payment not found")
	}
	return nil
}

func (r *gormPaymentRepository) FindExpiringBefore(ctx context.Context, before time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).Preload("User").
		Where("status = ? AND end_date <= ?", models.PaymentStatusApproved, before).
		// skip periods the user already renewed with a later approved payment
		Where("NOT EXISTS (SELECT 1 FROM payments later WHERE later.user_id = payments.user_id"+
			" AND later.status = ? AND later.end_date > payments.end_date AND later.deleted_at IS NULL)",
			models.PaymentStatusApproved).
		Order("end_date asc").
		Find(&payments).Error
	if err != nil {
		return nil, apperr.Infra("failed to fetch expiring payments", err)
	}
	return payments, nil
}

func (r *gormPaymentRepository) FindUpcoming(ctx context.Context, userID string, before time.Time) ([]models.Payment, error) {
	query := r.db.WithContext(ctx).Preload("User").
		Where("status = ? AND end_date <= ?", models.PaymentStatusApproved, before)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var payments []models.Payment
	if err := query.Order("end_date asc").Find(&payments).Error; err != nil {
		return nil, apperr.Infra("failed to fetch upcoming payments", err)
	}
	return payments, nil
}

func (r *gormPaymentRepository) FindScreenshotsExpiredBefore(ctx context.Context, before time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND screenshot_url IS NOT NULL AND screenshot_url <> '' AND end_date < ?",
			models.PaymentStatusApproved, before).
		Find(&payments).Error
	if err != nil {
		return nil, apperr.Infra("failed to fetch cleanup candidates", err)
	}
	return payments, nil
}

func (r *gormPaymentRepository) ClearScreenshot(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Update("screenshot_url", nil).Error
	if err != nil {
		return apperr.Infra("failed to clear screenshot", err)
	}
	return nil
}
