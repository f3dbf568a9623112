package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/models"
	"wifisub_app/internal/repository"
)

// DashboardStats are the counters on the admin home page
type DashboardStats struct {
	PendingPayments   int64   `json:"pending_payments"`
	OpenTickets       int64   `json:"open_tickets"`
	PendingContacts   int64   `json:"pending_contacts"`
	ActiveSubscribers int64   `json:"active_subscribers"`
	TotalUsers        int64   `json:"total_users"`
	ApprovedRevenue   float64 `json:"approved_revenue"`
}

// AdminService covers user administration and the dashboard
type AdminService struct {
	db       *gorm.DB
	users    repository.UserRepository
	notifier Notifier
	now      func() time.Time
}

func NewAdminService(db *gorm.DB, users repository.UserRepository, notifier Notifier) *AdminService {
	return &AdminService{db: db, users: users, notifier: notifier, now: time.Now}
}

func (s *AdminService) ListUsers(ctx context.Context, role models.UserRole, page repository.Page) ([]models.User, int64, error) {
	if role != "" && role != models.UserRoleAdmin && role != models.UserRoleUser {
		return nil, 0, apperr.NewValidation("role", "must be admin or user")
	}
	return s.users.List(ctx, role, page)
}

// SetUserStatus suspends or reactivates an account and tells the user
func (s *AdminService) SetUserStatus(ctx context.Context, actor Actor, userID string, status models.UserStatus) (*models.User, error) {
	if status != models.UserStatusActive && status != models.UserStatusSuspended {
		return nil, apperr.NewValidation("status", "must be active or suspended")
	}
	if userID == actor.ID && status == models.UserStatusSuspended {
		return nil, apperr.NewInvalidState("admins cannot suspend themselves")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status == status {
		return user, nil
	}
	if err := s.users.UpdateStatus(ctx, userID, status); err != nil {
		return nil, err
	}
	user.Status = status

	message := "Your account has been reactivated."
	if status == models.UserStatusSuspended {
		message = "Your account has been suspended. Please contact support."
	}
	if _, err := s.notifier.Notify(ctx, NotifyInput{
		UserID:   userID,
		Title:    fmt.Sprintf("Account %s", status),
		Message:  message,
		Type:     models.NotificationTypeAccountStatus,
		Metadata: map[string]interface{}{"status": string(status)},
	}); err != nil {
		log.Printf("[admin] failed to notify user %s about status change: %v", userID, err)
	}
	return user, nil
}

// Dashboard counts the admin work queues. Active subscribers are users with
// an approved payment whose period has not ended.
func (s *AdminService) Dashboard(ctx context.Context) (DashboardStats, error) {
	db := s.db.WithContext(ctx)
	var stats DashboardStats

	counts := []struct {
		dest  *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&stats.PendingPayments, &models.Payment{}, "status = ?", []interface{}{models.PaymentStatusPending}},
		{&stats.OpenTickets, &models.Ticket{}, "status IN ?", []interface{}{[]models.TicketStatus{models.TicketStatusOpen, models.TicketStatusInProgress}}},
		{&stats.PendingContacts, &models.ContactQuery{}, "status = ?", []interface{}{models.ContactQueryStatusPending}},
		{&stats.TotalUsers, &models.User{}, "role = ?", []interface{}{models.UserRoleUser}},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where(c.where, c.args...).Count(c.dest).Error; err != nil {
			return stats, apperr.Infra("failed to load dashboard", err)
		}
	}

	if err := db.Model(&models.Payment{}).
		Where("status = ? AND end_date > ?", models.PaymentStatusApproved, s.now()).
		Distinct("user_id").Count(&stats.ActiveSubscribers).Error; err != nil {
		return stats, apperr.Infra("failed to load dashboard", err)
	}

	if err := db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusApproved).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.ApprovedRevenue).Error; err != nil {
		return stats, apperr.Infra("failed to load dashboard", err)
	}
	return stats, nil
}
