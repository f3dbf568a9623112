package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/models"
)

// NotificationFilter narrows a recipient's notification listing
type NotificationFilter struct {
	UserID string
	Status models.NotificationStatus
	Type   models.NotificationType
	Page   Page
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	CreateBatch(ctx context.Context, ns []models.Notification) error
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	List(ctx context.Context, filter NotificationFilter) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	Delete(ctx context.Context, id string) error
}

type gormNotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &gormNotificationRepository{db: db}
}

func (r *gormNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return apperr.Infra("failed to create notification", err)
	}
	return nil
}

func (r *gormNotificationRepository) CreateBatch(ctx context.Context, ns []models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(ns, 100).Error; err != nil {
		return apperr.Infra("failed to create notifications", err)
	}
	return nil
}

func (r *gormNotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("notification not found")
		}
		return nil, apperr.Infra("failed to fetch notification", err)
	}
	return &n, nil
}

func (r *gormNotificationRepository) List(ctx context.Context, filter NotificationFilter) ([]models.Notification, int64, error) {
	page := filter.Page.Normalize()
	query := r.db.WithContext(ctx).Model(&models.Notification{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Infra("failed to count notifications", err)
	}

	var ns []models.Notification
	if err := query.Order("created_at desc").Limit(page.Size).Offset(page.Offset()).Find(&ns).Error; err != nil {
		return nil, 0, apperr.Infra("failed to fetch notifications", err)
	}
	return ns, total, nil
}

func (r *gormNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND status = ?", userID, models.NotificationStatusUnread).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Infra("failed to count unread notifications", err)
	}
	return count, nil
}

func (r *gormNotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  models.NotificationStatusRead,
			"read_at": at,
		}).Error
	if err != nil {
		return apperr.Infra("failed to mark notification read", err)
	}
	return nil
}

func (r *gormNotificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND status = ?", userID, models.NotificationStatusUnread).
		Updates(map[string]interface{}{
			"status":  models.NotificationStatusRead,
			"read_at": at,
		})
	if res.Error != nil {
		return 0, apperr.Infra("failed to mark notifications read", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormNotificationRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Notification{}, "id = ?", id).Error; err != nil {
		return apperr.Infra("failed to delete notification", err)
	}
	return nil
}
