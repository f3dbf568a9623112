package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-level setting used by the binaries
type Config struct {
	Port        string
	DatabaseURL string
	FrontendURL string

	// Auth
	AuthProvider            string // "jwt" or "firebase"
	JWTSecret               string
	JWTExpiry               time.Duration
	FirebaseCredentialsPath string

	RedisURL         string
	PaymentRateLimit int
	ContactRateLimit int

	// SMTP
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	EmailFrom string

	// Cloudflare R2 (S3-compatible) screenshot storage
	R2AccountID     string
	R2AccessKeyID   string
	R2SecretKey     string
	R2Bucket        string
	R2PublicBaseURL string

	// Jobs
	ReminderWindow      time.Duration
	ScreenshotRetention time.Duration
	ReminderRRule       string
	CleanupRRule        string
	WorkerPollInterval  time.Duration
}

// Load reads .env (if present) and the process environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		AuthProvider:            getEnv("AUTH_PROVIDER", "jwt"),
		JWTSecret:               os.Getenv("JWT_SECRET"),
		JWTExpiry:               time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase-service-account.json"),

		RedisURL:         os.Getenv("REDIS_URL"),
		PaymentRateLimit: getEnvInt("PAYMENT_RATE_LIMIT", 5),
		ContactRateLimit: getEnvInt("CONTACT_RATE_LIMIT", 3),

		SMTPHost:  getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:  getEnvInt("SMTP_PORT", 587),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		EmailFrom: os.Getenv("EMAIL_FROM"),

		R2AccountID:     os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:   os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretKey:     os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2Bucket:        os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL: os.Getenv("R2_PUBLIC_BASE_URL"),

		ReminderWindow:      time.Duration(getEnvInt("REMINDER_WINDOW_DAYS", 3)) * 24 * time.Hour,
		ScreenshotRetention: time.Duration(getEnvInt("SCREENSHOT_RETENTION_DAYS", 15)) * 24 * time.Hour,
		ReminderRRule:       getEnv("REMINDER_RRULE", "FREQ=DAILY;BYHOUR=9;BYMINUTE=0;BYSECOND=0"),
		CleanupRRule:        getEnv("CLEANUP_RRULE", "FREQ=DAILY;BYHOUR=2;BYMINUTE=0;BYSECOND=0"),
		WorkerPollInterval:  time.Duration(getEnvInt("WORKER_POLL_MINUTES", 5)) * time.Minute,
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
		log.Printf("Invalid integer for %s=%q, using default %d", key, s, def)
	}
	return def
}
