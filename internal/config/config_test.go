package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("REMINDER_WINDOW_DAYS", "")
	t.Setenv("SCREENSHOT_RETENTION_DAYS", "")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q; want 8080", cfg.Port)
	}
	if cfg.ReminderWindow != 3*24*time.Hour {
		t.Errorf("ReminderWindow = %v; want 72h", cfg.ReminderWindow)
	}
	if cfg.ScreenshotRetention != 15*24*time.Hour {
		t.Errorf("ScreenshotRetention = %v; want 360h", cfg.ScreenshotRetention)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d; want fallback 587", cfg.SMTPPort)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REMINDER_WINDOW_DAYS", "5")
	t.Setenv("AUTH_PROVIDER", "firebase")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q; want 9090", cfg.Port)
	}
	if cfg.ReminderWindow != 5*24*time.Hour {
		t.Errorf("ReminderWindow = %v; want 120h", cfg.ReminderWindow)
	}
	if cfg.AuthProvider != "firebase" {
		t.Errorf("AuthProvider = %q; want firebase", cfg.AuthProvider)
	}
}
