package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentPlan is a catalog entry shown on the landing page
type PaymentPlan struct {
	ID        string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name           string  `gorm:"type:varchar(255)" json:"name"`
	Description    string  `gorm:"type:text" json:"description"`
	DurationMonths int     `json:"duration_months"`
	Amount         float64 `gorm:"type:decimal(12,2)" json:"amount"`
	IsActive       bool    `gorm:"default:true" json:"is_active"`
	SortOrder      int     `gorm:"default:0;index" json:"sort_order"`
}

func (p *PaymentPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// AdminSetting is a key/value configuration entry managed by admins
type AdminSetting struct {
	Key       string    `gorm:"type:varchar(100);primaryKey" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Setting keys exposed to customers on the payment page
const (
	SettingUPIID        = "upi_id"
	SettingQRCodeURL    = "qr_code_url"
	SettingPayeeName    = "payee_name"
	SettingSupportPhone = "support_phone"
)

// PublicSettingKeys are readable without authentication
var PublicSettingKeys = []string{SettingUPIID, SettingQRCodeURL, SettingPayeeName, SettingSupportPhone}

// All returns every persisted model, in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Payment{},
		&Notification{},
		&Ticket{},
		&ContactQuery{},
		&PaymentPlan{},
		&AdminSetting{},
		&ScheduledTask{},
		&ScheduledTaskHistory{},
	}
}
