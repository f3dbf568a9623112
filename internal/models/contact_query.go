package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContactQueryStatus string

const (
	ContactQueryStatusPending    ContactQueryStatus = "pending"
	ContactQueryStatusInProgress ContactQueryStatus = "in_progress"
	ContactQueryStatusResolved   ContactQueryStatus = "resolved"
)

func (s ContactQueryStatus) Valid() bool {
	switch s {
	case ContactQueryStatusPending, ContactQueryStatusInProgress, ContactQueryStatusResolved:
		return true
	}
	return false
}

// ContactQuery is an inquiry sent from the public landing page
type ContactQuery struct {
	ID        string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name       string             `gorm:"type:varchar(255)" json:"name"`
	Email      string             `gorm:"type:varchar(255)" json:"email"`
	Phone      string             `gorm:"type:varchar(50)" json:"phone"`
	Subject    string             `gorm:"type:varchar(255)" json:"subject"`
	Message    string             `gorm:"type:text" json:"message"`
	Status     ContactQueryStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	AdminNotes *string            `gorm:"type:text" json:"admin_notes"`
	ResolvedAt *time.Time         `json:"resolved_at"`
}

func (q *ContactQuery) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return nil
}
