package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/models"
)

type PlanInput struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	DurationMonths int     `json:"duration_months"`
	Amount         float64 `json:"amount"`
	IsActive       *bool   `json:"is_active"`
}

// PlanService manages the plan catalog and the admin key/value settings
type PlanService struct {
	db *gorm.DB
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{db: db}
}

func (in PlanInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.NewValidation("name", "is required")
	}
	if err := validateDuration(in.DurationMonths); err != nil {
		return err
	}
	return validateAmount(in.Amount)
}

// ListActive returns the public catalog in display order
func (s *PlanService) ListActive(ctx context.Context) ([]models.PaymentPlan, error) {
	var plans []models.PaymentPlan
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("sort_order asc, created_at asc").Find(&plans).Error; err != nil {
		return nil, apperr.Infra("failed to fetch plans", err)
	}
	return plans, nil
}

func (s *PlanService) ListAll(ctx context.Context) ([]models.PaymentPlan, error) {
	var plans []models.PaymentPlan
	if err := s.db.WithContext(ctx).Order("sort_order asc, created_at asc").Find(&plans).Error; err != nil {
		return nil, apperr.Infra("failed to fetch plans", err)
	}
	return plans, nil
}

func (s *PlanService) Create(ctx context.Context, in PlanInput) (*models.PaymentPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var maxOrder int
	s.db.WithContext(ctx).Model(&models.PaymentPlan{}).Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder)

	plan := &models.PaymentPlan{
		Name:           strings.TrimSpace(in.Name),
		Description:    strings.TrimSpace(in.Description),
		DurationMonths: in.DurationMonths,
		Amount:         in.Amount,
		IsActive:       in.IsActive == nil || *in.IsActive,
		SortOrder:      maxOrder + 1,
	}
	// Select("*") so an explicit is_active=false is not replaced by the column default
	if err := s.db.WithContext(ctx).Select("*").Create(plan).Error; err != nil {
		return nil, apperr.Infra("failed to create plan", err)
	}
	return plan, nil
}

func (s *PlanService) Update(ctx context.Context, id string, in PlanInput) (*models.PaymentPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	plan, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":            strings.TrimSpace(in.Name),
		"description":     strings.TrimSpace(in.Description),
		"duration_months": in.DurationMonths,
		"amount":          in.Amount,
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if err := s.db.WithContext(ctx).Model(plan).Updates(updates).Error; err != nil {
		return nil, apperr.Infra("failed to update plan", err)
	}
	return s.find(ctx, id)
}

func (s *PlanService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.PaymentPlan{}, "id = ?", id)
	if res.Error != nil {
		return apperr.Infra("failed to delete plan", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NewNotFound("plan not found")
	}
	return nil
}

// Reorder sets sort_order to each plan's position in ids, all in one transaction
func (s *PlanService) Reorder(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return apperr.NewValidation("ids", "must not be empty")
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			return apperr.NewValidation("ids", "must not contain duplicates")
		}
		seen[id] = true
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			res := tx.Model(&models.PaymentPlan{}).Where("id = ?", id).Update("sort_order", i+1)
			if res.Error != nil {
				return apperr.Infra("failed to reorder plans", res.Error)
			}
			if res.RowsAffected == 0 {
				return apperr.NewNotFound("plan not found: " + id)
			}
		}
		return nil
	})
}

func (s *PlanService) find(ctx context.Context, id string) (*models.PaymentPlan, error) {
	var plan models.PaymentPlan
	if err := s.db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("plan not found")
		}
		return nil, apperr.Infra("failed to fetch plan", err)
	}
	return &plan, nil
}

// Settings returns every admin setting as a map
func (s *PlanService) Settings(ctx context.Context) (map[string]string, error) {
	var rows []models.AdminSetting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, apperr.Infra("failed to fetch settings", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// PaymentInfo returns the subset of settings customers need to pay
func (s *PlanService) PaymentInfo(ctx context.Context) (map[string]string, error) {
	var rows []models.AdminSetting
	if err := s.db.WithContext(ctx).Where("key IN ?", models.PublicSettingKeys).Find(&rows).Error; err != nil {
		return nil, apperr.Infra("failed to fetch payment info", err)
	}
	out := make(map[string]string, len(models.PublicSettingKeys))
	for _, k := range models.PublicSettingKeys {
		out[k] = ""
	}
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// UpsertSettings writes the given keys, inserting or overwriting
func (s *PlanService) UpsertSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return apperr.NewValidation("settings", "must not be empty")
	}
	rows := make([]models.AdminSetting, 0, len(values))
	for k, v := range values {
		k = strings.TrimSpace(k)
		if k == "" {
			return apperr.NewValidation("settings", "keys must not be empty")
		}
		rows = append(rows, models.AdminSetting{Key: k, Value: strings.TrimSpace(v)})
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return apperr.Infra("failed to save settings", err)
	}
	return nil
}
