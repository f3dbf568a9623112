package tasks

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"wifisub_app/internal/emails"
	"wifisub_app/internal/models"
	"wifisub_app/internal/repository"
	"wifisub_app/internal/services"
)

// PaymentReminderTaskDef reminds owners of approved payments that end within
// the reminder window. Each payment is handled on its own; one failure does
// not stop the rest.
type PaymentReminderTaskDef struct {
	payments      repository.PaymentRepository
	notifications repository.NotificationRepository
	email         services.EmailSender
	renewalURL    string
	window        time.Duration
	now           func() time.Time
}

func NewPaymentReminderTask(payments repository.PaymentRepository, notifications repository.NotificationRepository, email services.EmailSender, frontendURL string, window time.Duration) *PaymentReminderTaskDef {
	if window <= 0 {
		window = services.DefaultReminderWindow
	}
	return &PaymentReminderTaskDef{
		payments:      payments,
		notifications: notifications,
		email:         email,
		renewalURL:    strings.TrimRight(frontendURL, "/") + "/dashboard/payments/new",
		window:        window,
		now:           time.Now,
	}
}

// TaskID returns the unique identifier for this task
func (t *PaymentReminderTaskDef) TaskID() string {
	return "payment_reminder"
}

// HandleExecution sends the in-app and email reminders
func (t *PaymentReminderTaskDef) HandleExecution(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
	now := t.now()
	due, err := t.payments.FindExpiringBefore(ctx, now.Add(t.window))
	if err != nil {
		return nil, err
	}

	total := len(due)
	notified, emailed, failure := 0, 0, 0

	for _, p := range due {
		if ctx.Err() != nil {
			return summary(total, notified, emailed, failure), ctx.Err()
		}

		ok := true
		if err := t.createNotification(ctx, p, now); err != nil {
			log.Printf("[Task: %s] in-app reminder for payment %s failed: %v", t.TaskID(), p.ID, err)
			ok = false
		} else {
			notified++
		}

		if err := t.sendEmail(ctx, p, now); err != nil {
			log.Printf("[Task: %s] reminder email for payment %s failed: %v", t.TaskID(), p.ID, err)
			ok = false
		} else {
			emailed++
		}

		if !ok {
			failure++
			continue
		}
		if err := t.payments.Update(ctx, p.ID, map[string]interface{}{"reminder_sent_at": now}); err != nil {
			log.Printf("[Task: %s] failed to stamp reminder on payment %s: %v", t.TaskID(), p.ID, err)
		}
	}

	log.Printf("[Task: %s] total=%d notified=%d emailed=%d failure=%d", t.TaskID(), total, notified, emailed, failure)
	return summary(total, notified, emailed, failure), nil
}

func (t *PaymentReminderTaskDef) createNotification(ctx context.Context, p models.Payment, now time.Time) error {
	return t.notifications.Create(ctx, &models.Notification{
		UserID: p.UserID,
		Title:  "Payment Reminder",
		Message: fmt.Sprintf("Your WiFi plan ends on %s%s. Submit a new payment to keep your connection active.",
			p.EndDate.Format("02 Jan 2006"), daysLeftSuffix(daysLeft(p.EndDate, now))),
		Type:   models.NotificationTypePaymentReminder,
		Status: models.NotificationStatusUnread,
		Metadata: map[string]interface{}{
			"payment_id": p.ID,
			"end_date":   p.EndDate.Format(time.RFC3339),
		},
	})
}

func (t *PaymentReminderTaskDef) sendEmail(ctx context.Context, p models.Payment, now time.Time) error {
	if p.User.Email == "" {
		return fmt.Errorf("user %s has no email address", p.UserID)
	}
	body, err := emails.Render(ctx, emails.PaymentReminder(emails.ReminderData{
		Name:       p.User.Name,
		Amount:     p.Amount,
		EndDate:    p.EndDate.Format("02 Jan 2006"),
		DaysLeft:   daysLeft(p.EndDate, now),
		RenewalURL: t.renewalURL,
	}))
	if err != nil {
		return err
	}
	return t.email.SendEmail(ctx, []string{p.User.Email}, "Your WiFi plan is about to expire", body)
}

// daysLeft counts calendar days from now to end in now's location
func daysLeft(end, now time.Time) int {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := end.In(now.Location()).Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func daysLeftSuffix(days int) string {
	switch {
	case days < 0:
		return " (already ended)"
	case days == 0:
		return " (today)"
	case days == 1:
		return " (tomorrow)"
	default:
		return fmt.Sprintf(" (in %d days)", days)
	}
}

func summary(total, notified, emailed, failure int) map[string]interface{} {
	return map[string]interface{}{
		"total":    total,
		"notified": notified,
		"emailed":  emailed,
		"failure":  failure,
	}
}
