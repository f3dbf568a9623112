package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/models"
	"wifisub_app/internal/repository"
)

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ContactUpdate struct {
	Status     *models.ContactQueryStatus `json:"status"`
	AdminNotes *string                    `json:"admin_notes"`
}

type ContactService struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
}

func NewContactService(db *gorm.DB, notifier Notifier) *ContactService {
	return &ContactService{db: db, notifier: notifier, now: time.Now}
}

// Submit stores a landing page inquiry and tells the admins about it
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*models.ContactQuery, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.NewValidation("name", "is required")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, apperr.NewValidation("email", "must be a valid email address")
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, apperr.NewValidation("message", "is required")
	}

	q := &models.ContactQuery{
		Name:    name,
		Email:   addr.Address,
		Phone:   strings.TrimSpace(in.Phone),
		Subject: strings.TrimSpace(in.Subject),
		Message: message,
		Status:  models.ContactQueryStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(q).Error; err != nil {
		return nil, apperr.Infra("failed to store contact query", err)
	}

	if _, err := s.notifier.NotifyAdmins(ctx, "New Contact Query",
		fmt.Sprintf("%s <%s>: %s", q.Name, q.Email, q.Subject),
		map[string]interface{}{"contact_query_id": q.ID}); err != nil {
		log.Printf("[contact] failed to notify admins about query %s: %v", q.ID, err)
	}
	return q, nil
}

func (s *ContactService) List(ctx context.Context, status models.ContactQueryStatus, page repository.Page) ([]models.ContactQuery, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, apperr.NewValidation("status", "must be pending, in_progress or resolved")
	}
	query := s.db.WithContext(ctx).Model(&models.ContactQuery{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	page = page.Normalize()
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Infra("failed to count contact queries", err)
	}
	var queries []models.ContactQuery
	if err := query.Order("created_at desc").Limit(page.Size).Offset(page.Offset()).Find(&queries).Error; err != nil {
		return nil, 0, apperr.Infra("failed to fetch contact queries", err)
	}
	return queries, total, nil
}

func (s *ContactService) Update(ctx context.Context, id string, in ContactUpdate) (*models.ContactQuery, error) {
	var q models.ContactQuery
	if err := s.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("contact query not found")
		}
		return nil, apperr.Infra("failed to fetch contact query", err)
	}

	updates := map[string]interface{}{}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.NewValidation("status", "must be pending, in_progress or resolved")
		}
		updates["status"] = *in.Status
		switch {
		case *in.Status == models.ContactQueryStatusResolved && q.ResolvedAt == nil:
			updates["resolved_at"] = s.now()
		case *in.Status != models.ContactQueryStatusResolved:
			updates["resolved_at"] = nil
		}
	}
	if in.AdminNotes != nil {
		updates["admin_notes"] = trimmedOrNil(in.AdminNotes)
	}
	if len(updates) == 0 {
		return &q, nil
	}

	if err := s.db.WithContext(ctx).Model(&q).Updates(updates).Error; err != nil {
		return nil, apperr.Infra("failed to update contact query", err)
	}
	if err := s.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, apperr.Infra("failed to fetch contact query", err)
	}
	return &q, nil
}
