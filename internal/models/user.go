package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole represents the role of a user
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// UserStatus represents whether an account may use the service
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// User represents a subscriber or administrator
type User struct {
	ID        string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name    string     `gorm:"type:varchar(255)" json:"name"`
	Phone   string     `gorm:"type:varchar(50)" json:"phone"`
	Email   string     `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Address string     `gorm:"type:text" json:"address"`
	Role    UserRole   `gorm:"type:varchar(20);default:'user';index" json:"role"`
	Status  UserStatus `gorm:"type:varchar(20);default:'active'" json:"status"`

	// Relationships
	Payments []Payment `gorm:"foreignKey:UserID" json:"payments,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
