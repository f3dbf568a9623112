package services

import (
	"context"
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"wifisub_app/internal/config"
)

// EmailSender delivers a rendered HTML email
type EmailSender interface {
	SendEmail(ctx context.Context, to []string, subject, htmlBody string) error
}

type EmailService struct {
	host     string
	port     int
	user     string
	password string
	from     string
}

func NewEmailService(cfg *config.Config) *EmailService {
	from := cfg.EmailFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &EmailService{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPass,
		from:     from,
	}
}

func (s *EmailService) SendEmail(ctx context.Context, to []string, subject, htmlBody string) error {
	if s.host == "" || s.user == "" || s.password == "" {
		return fmt.Errorf("SMTP credentials not fully configured")
	}
	if len(to) == 0 || to[0] == "" {
		return fmt.Errorf("no recipient address")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.host, s.port, s.user, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("Email sent to %v: %s", to, subject)
	return nil
}
