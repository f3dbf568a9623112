package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypePaymentReminder NotificationType = "payment_reminder"
	NotificationTypePaymentApproved NotificationType = "payment_approved"
	NotificationTypePaymentRejected NotificationType = "payment_rejected"
	NotificationTypeAccountStatus   NotificationType = "account_status"
	NotificationTypeSystem          NotificationType = "system"
)

// Valid reports whether t is a known notification type
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypePaymentReminder, NotificationTypePaymentApproved,
		NotificationTypePaymentRejected, NotificationTypeAccountStatus, NotificationTypeSystem:
		return true
	}
	return false
}

type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)

// Notification is an in-app message; it is the source of truth for unread counts
type Notification struct {
	ID        string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID   string             `gorm:"type:varchar(36);index:idx_notifications_user_status,priority:1;not null" json:"user_id"`
	Title    string             `gorm:"type:varchar(255)" json:"title"`
	Message  string             `gorm:"type:text" json:"message"`
	Type     NotificationType   `gorm:"type:varchar(30)" json:"type"`
	Status   NotificationStatus `gorm:"type:varchar(20);default:'unread';index:idx_notifications_user_status,priority:2" json:"status"`
	Metadata datatypes.JSONMap  `json:"metadata,omitempty"`
	ReadAt   *time.Time         `json:"read_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}
