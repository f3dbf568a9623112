// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wifisub_app/internal/models"
)

// NewDB opens a migrated SQLite database in a per-test temp directory
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with the given role
func CreateUser(t *testing.T, db *gorm.DB, name string, role models.UserRole) models.User {
	t.Helper()

	user := models.User{
		Name:   name,
		Email:  name + "@example.com",
		Role:   role,
		Status: models.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

// CreatePayment inserts a payment with the given status and end date
func CreatePayment(t *testing.T, db *gorm.DB, userID string, status models.PaymentStatus, endDate time.Time, screenshot *string) models.Payment {
	t.Helper()

	payment := models.Payment{
		UserID:         userID,
		Amount:         500,
		Method:         models.PaymentMethodUPI,
		Status:         status,
		DurationMonths: 1,
		StartDate:      endDate.AddDate(0, -1, 0),
		EndDate:        endDate,
		ScreenshotURL:  screenshot,
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("failed to create payment: %v", err)
	}
	return payment
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
