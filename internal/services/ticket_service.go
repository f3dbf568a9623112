package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/models"
	"wifisub_app/internal/repository"
)

type CreateTicketInput struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Priority    models.TicketPriority `json:"priority"`
}

// TicketUpdate is an admin change to a ticket
type TicketUpdate struct {
	Status        *models.TicketStatus   `json:"status"`
	Priority      *models.TicketPriority `json:"priority"`
	AdminResponse *string                `json:"admin_response"`
}

type TicketFilter struct {
	Status   models.TicketStatus
	Priority models.TicketPriority
	UserID   string
	Page     repository.Page
}

type TicketService struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
}

func NewTicketService(db *gorm.DB, notifier Notifier) *TicketService {
	return &TicketService{db: db, notifier: notifier, now: time.Now}
}

func (s *TicketService) Create(ctx context.Context, actor Actor, in CreateTicketInput) (*models.Ticket, error) {
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return nil, apperr.NewValidation("subject", "is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperr.NewValidation("description", "is required")
	}
	if in.Priority == "" {
		in.Priority = models.TicketPriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, apperr.NewValidation("priority", "must be low, medium, high or urgent")
	}

	ticket := &models.Ticket{
		UserID:      actor.ID,
		Subject:     subject,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Priority:    in.Priority,
		Status:      models.TicketStatusOpen,
	}
	if err := s.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return nil, apperr.Infra("failed to create ticket", err)
	}

	if _, err := s.notifier.NotifyAdmins(ctx, "New Support Ticket",
		fmt.Sprintf("%s (%s priority)", ticket.Subject, ticket.Priority),
		map[string]interface{}{"ticket_id": ticket.ID}); err != nil {
		log.Printf("[tickets] failed to notify admins about ticket %s: %v", ticket.ID, err)
	}
	return ticket, nil
}

// List returns tickets; non-admins only ever see their own
func (s *TicketService) List(ctx context.Context, actor Actor, filter TicketFilter) ([]models.Ticket, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperr.NewValidation("status", "unknown ticket status")
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, 0, apperr.NewValidation("priority", "unknown ticket priority")
	}
	if !actor.IsAdmin() {
		filter.UserID = actor.ID
	}

	query := s.db.WithContext(ctx).Model(&models.Ticket{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}

	page := filter.Page.Normalize()
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Infra("failed to count tickets", err)
	}
	var tickets []models.Ticket
	if err := query.Preload("User").Order("created_at desc").Limit(page.Size).Offset(page.Offset()).Find(&tickets).Error; err != nil {
		return nil, 0, apperr.Infra("failed to fetch tickets", err)
	}
	return tickets, total, nil
}

func (s *TicketService) Get(ctx context.Context, actor Actor, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).Preload("User").First(&ticket, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("ticket not found")
		}
		return nil, apperr.Infra("failed to fetch ticket", err)
	}
	if !actor.CanAccess(ticket.UserID) {
		return nil, apperr.NewForbidden("cannot view another user's ticket")
	}
	return &ticket, nil
}

// Update applies an admin change. Status moves along
// open -> in_progress -> resolved -> closed; closed is terminal.
func (s *TicketService) Update(ctx context.Context, actor Actor, id string, in TicketUpdate) (*models.Ticket, error) {
	ticket, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Status != nil {
		next := *in.Status
		if !next.Valid() {
			return nil, apperr.NewValidation("status", "unknown ticket status")
		}
		if !ticket.Status.CanTransition(next) {
			return nil, apperr.NewInvalidState(fmt.Sprintf("ticket cannot move from %s to %s", ticket.Status, next))
		}
		updates["status"] = next
		if next == models.TicketStatusResolved && ticket.ResolvedAt == nil {
			updates["resolved_at"] = s.now()
		}
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, apperr.NewValidation("priority", "must be low, medium, high or urgent")
		}
		updates["priority"] = *in.Priority
	}
	response := trimmedOrNil(in.AdminResponse)
	if response != nil {
		updates["admin_response"] = *response
	}
	if len(updates) == 0 {
		return ticket, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, apperr.Infra("failed to update ticket", err)
	}

	if response != nil {
		if _, err := s.notifier.Notify(ctx, NotifyInput{
			UserID:   ticket.UserID,
			Title:    "Support Ticket Updated",
			Message:  fmt.Sprintf("An admin responded to \"%s\": %s", ticket.Subject, *response),
			Type:     models.NotificationTypeSystem,
			Metadata: map[string]interface{}{"ticket_id": ticket.ID},
		}); err != nil {
			log.Printf("[tickets] failed to notify user %s: %v", ticket.UserID, err)
		}
	}

	return s.Get(ctx, actor, id)
}
