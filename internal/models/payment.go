package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentMethod is how the customer transferred the money
type PaymentMethod string

const (
	PaymentMethodQRCode PaymentMethod = "qr_code"
	PaymentMethodUPI    PaymentMethod = "upi"
)

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodQRCode || m == PaymentMethodUPI
}

// PaymentStatus is the lifecycle state of a payment.
// pending -> approved | rejected; approved and rejected are terminal.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusRejected
}

const (
	MinDurationMonths = 1
	MaxDurationMonths = 12
)

// Payment is a manual payment proof submitted for a service period
type Payment struct {
	ID        string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID         string        `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Amount         float64       `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method         PaymentMethod `gorm:"type:varchar(20);not null" json:"method"`
	Status         PaymentStatus `gorm:"type:varchar(20);default:'pending';index:idx_payments_status_end,priority:1" json:"status"`
	DurationMonths int           `gorm:"not null" json:"duration_months"`
	StartDate      time.Time     `json:"start_date"`
	EndDate        time.Time     `gorm:"index:idx_payments_status_end,priority:2" json:"end_date"`

	ScreenshotURL   *string `gorm:"type:text" json:"screenshot_url"`
	Notes           *string `gorm:"type:text" json:"notes"`
	RejectionReason *string `gorm:"type:text" json:"rejection_reason"`

	ApprovedAt     *time.Time `json:"approved_at"`
	ApprovedBy     *string    `gorm:"type:varchar(36)" json:"approved_by"`
	ReminderSentAt *time.Time `json:"reminder_sent_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// HasScreenshot reports whether a proof image is still referenced
func (p Payment) HasScreenshot() bool {
	return p.ScreenshotURL != nil && *p.ScreenshotURL != ""
}
