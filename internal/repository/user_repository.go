package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/models"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	ListAdmins(ctx context.Context) ([]models.User, error)
	List(ctx context.Context, role models.UserRole, page Page) ([]models.User, int64, error)
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) error
}

type gormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("user not found")
		}
		return nil, apperr.Infra("failed to fetch user", err)
	}
	return &user, nil
}

func (r *gormUserRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, apperr.Infra("failed to fetch users", err)
	}
	return users, nil
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("user not found")
		}
		return nil, apperr.Infra("failed to fetch user", err)
	}
	return &user, nil
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return apperr.Infra("failed to create user", err)
	}
	return nil
}

func (r *gormUserRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var admins []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND status = ?", models.UserRoleAdmin, models.UserStatusActive).
		Find(&admins).Error
	if err != nil {
		return nil, apperr.Infra("failed to fetch admins", err)
	}
	return admins, nil
}

func (r *gormUserRepository) List(ctx context.Context, role models.UserRole, page Page) ([]models.User, int64, error) {
	page = page.Normalize()
	query := r.db.WithContext(ctx).Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Infra("failed to count users", err)
	}

	var users []models.User
	if err := query.Order("created_at desc").Limit(page.Size).Offset(page.Offset()).Find(&users).Error; err != nil {
		return nil, 0, apperr.Infra("failed to fetch users", err)
	}
	return users, total, nil
}

func (r *gormUserRepository) UpdateStatus(ctx context.Context, id string, status models.UserStatus) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return apperr.Infra("failed to update user status", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NewNotFound("user not found")
	}
	return nil
}
