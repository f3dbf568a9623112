package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ticketTransitions lists the statuses reachable from each status
var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed},
	TicketStatusInProgress: {TicketStatusResolved, TicketStatusClosed},
	TicketStatusResolved:   {TicketStatusClosed},
}

// CanTransition reports whether a ticket may move from s to next
func (s TicketStatus) CanTransition(next TicketStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is a support request raised by a subscriber
type Ticket struct {
	ID        string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID        string         `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Subject       string         `gorm:"type:varchar(255)" json:"subject"`
	Description   string         `gorm:"type:text" json:"description"`
	Category      string         `gorm:"type:varchar(50)" json:"category"`
	Priority      TicketPriority `gorm:"type:varchar(20);default:'medium'" json:"priority"`
	Status        TicketStatus   `gorm:"type:varchar(20);default:'open';index" json:"status"`
	AdminResponse *string        `gorm:"type:text" json:"admin_response"`
	ResolvedAt    *time.Time     `json:"resolved_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
