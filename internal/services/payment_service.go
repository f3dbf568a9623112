package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/models"
	"wifisub_app/internal/repository"
)

const (
	MinRejectionReasonLength = 10
	DefaultReminderWindow    = 3 * 24 * time.Hour
)

// CreatePaymentInput is a customer's payment submission
type CreatePaymentInput struct {
	Amount         float64              `json:"amount"`
	Method         models.PaymentMethod `json:"method"`
	DurationMonths int                  `json:"duration_months"`
	ScreenshotURL  *string              `json:"screenshot_url"`
	Notes          *string              `json:"notes"`
}

// PaymentPatch lists the fields an owner may change while a payment is pending
type PaymentPatch struct {
	Amount         *float64              `json:"amount"`
	Method         *models.PaymentMethod `json:"method"`
	DurationMonths *int                  `json:"duration_months"`
	ScreenshotURL  *string               `json:"screenshot_url"`
	Notes          *string               `json:"notes"`
}

// PaymentService applies the payment lifecycle:
// pending -> approved | rejected, both terminal.
type PaymentService struct {
	payments       repository.PaymentRepository
	notifier       Notifier
	reminderWindow time.Duration
	now            func() time.Time
}

func NewPaymentService(payments repository.PaymentRepository, notifier Notifier, reminderWindow time.Duration) *PaymentService {
	if reminderWindow <= 0 {
		reminderWindow = DefaultReminderWindow
	}
	return &PaymentService{
		payments:       payments,
		notifier:       notifier,
		reminderWindow: reminderWindow,
		now:            time.Now,
	}
}

// AddMonths advances t by n calendar months. When the target month is
// shorter than t's day of month, the day is clamped to the month's last day
// (Jan 31 + 1 month = Feb 28, or Feb 29 in leap years).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysInMonth(firstOfTarget); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func validateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return apperr.NewValidation("amount", "must be a number")
	}
	if amount < 0 {
		return apperr.NewValidation("amount", "must not be negative")
	}
	return nil
}

func validateMethod(m models.PaymentMethod) error {
	if !m.Valid() {
		return apperr.NewValidation("method", "must be qr_code or upi")
	}
	return nil
}

func validateDuration(months int) error {
	if months < models.MinDurationMonths || months > models.MaxDurationMonths {
		return apperr.NewValidation("duration_months", fmt.Sprintf("must be between %d and %d", models.MinDurationMonths, models.MaxDurationMonths))
	}
	return nil
}

func validateScreenshotURL(raw *string) error {
	if raw == nil || *raw == "" {
		return nil
	}
	u, err := url.ParseRequestURI(*raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.NewValidation("screenshot_url", "must be an http(s) URL")
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Create records a pending payment for the actor and informs all admins
func (s *PaymentService) Create(ctx context.Context, actor Actor, in CreatePaymentInput) (*models.Payment, error) {
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}
	if err := validateMethod(in.Method); err != nil {
		return nil, err
	}
	if err := validateDuration(in.DurationMonths); err != nil {
		return nil, err
	}
	if err := validateScreenshotURL(in.ScreenshotURL); err != nil {
		return nil, err
	}

	now := s.now()
	payment := &models.Payment{
		UserID:         actor.ID,
		Amount:         in.Amount,
		Method:         in.Method,
		Status:         models.PaymentStatusPending,
		DurationMonths: in.DurationMonths,
		StartDate:      now,
		EndDate:        AddMonths(now, in.DurationMonths),
		ScreenshotURL:  trimmedOrNil(in.ScreenshotURL),
		Notes:          trimmedOrNil(in.Notes),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("A %s payment of %.2f for %d month(s) is awaiting review.",
		methodLabel(payment.Method), payment.Amount, payment.DurationMonths)
	if _, err := s.notifier.NotifyAdmins(ctx, "New Payment Submission", message, map[string]interface{}{
		"payment_id": payment.ID,
		"user_id":    payment.UserID,
		"amount":     payment.Amount,
	}); err != nil {
		log.Printf("[payments] failed to notify admins about payment %s: %v", payment.ID, err)
	}

	return payment, nil
}

// Approve moves a pending payment to approved. Approving twice fails.
func (s *PaymentService) Approve(ctx context.Context, id, adminID string, notes *string) (*models.Payment, error) {
	payment, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updates := map[string]interface{}{
		"status":      models.PaymentStatusApproved,
		"approved_at": now,
		"approved_by": adminID,
	}
	if n := trimmedOrNil(notes); n != nil {
		updates["notes"] = *n
	}
	if err := s.applyTransition(ctx, id, updates); err != nil {
		return nil, err
	}

	payment, err = s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifyOwner(ctx, payment, NotifyInput{
		UserID: payment.UserID,
		Title:  "Payment Approved",
		Message: fmt.Sprintf("Your payment of %.2f for %d month(s) has been approved. Your service is active until %s.",
			payment.Amount, payment.DurationMonths, payment.EndDate.Format("02 Jan 2006")),
		Type:     models.NotificationTypePaymentApproved,
		Metadata: map[string]interface{}{"payment_id": payment.ID},
	})
	return payment, nil
}

// Reject moves a pending payment to rejected. The reason must be at least
// MinRejectionReasonLength characters.
func (s *PaymentService) Reject(ctx context.Context, id, adminID, reason string, notes *string) (*models.Payment, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < MinRejectionReasonLength {
		return nil, apperr.NewValidation("reason", fmt.Sprintf("must be at least %d characters", MinRejectionReasonLength))
	}

	if _, err := s.loadPending(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":           models.PaymentStatusRejected,
		"rejection_reason": reason,
	}
	if n := trimmedOrNil(notes); n != nil {
		updates["notes"] = *n
	}
	if err := s.applyTransition(ctx, id, updates); err != nil {
		return nil, err
	}

	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Printf("[payments] payment %s rejected by %s", id, adminID)

	s.notifyOwner(ctx, payment, NotifyInput{
		UserID:   payment.UserID,
		Title:    "Payment Rejected",
		Message:  fmt.Sprintf("Your payment of %.2f was rejected. Reason: %s", payment.Amount, reason),
		Type:     models.NotificationTypePaymentRejected,
		Metadata: map[string]interface{}{"payment_id": payment.ID, "reason": reason},
	})
	return payment, nil
}

// Update lets the submitter edit their own payment while it is pending
func (s *PaymentService) Update(ctx context.Context, actor Actor, id string, patch PaymentPatch) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.UserID != actor.ID {
		return nil, apperr.NewForbidden("only the submitter may modify this payment")
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, apperr.NewInvalidState("payment is not pending approval")
	}

	updates := map[string]interface{}{}
	if patch.Amount != nil {
		if err := validateAmount(*patch.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = *patch.Amount
	}
	if patch.Method != nil {
		if err := validateMethod(*patch.Method); err != nil {
			return nil, err
		}
		updates["method"] = *patch.Method
	}
	if patch.DurationMonths != nil {
		if err := validateDuration(*patch.DurationMonths); err != nil {
			return nil, err
		}
		updates["duration_months"] = *patch.DurationMonths
		updates["end_date"] = AddMonths(payment.StartDate, *patch.DurationMonths)
	}
	if patch.ScreenshotURL != nil {
		if err := validateScreenshotURL(patch.ScreenshotURL); err != nil {
			return nil, err
		}
		updates["screenshot_url"] = trimmedOrNil(patch.ScreenshotURL)
	}
	if patch.Notes != nil {
		updates["notes"] = trimmedOrNil(patch.Notes)
	}
	if len(updates) == 0 {
		return payment, nil
	}

	if err := s.applyTransition(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.payments.FindByID(ctx, id)
}

// Get returns a payment visible to the actor
func (s *PaymentService) Get(ctx context.Context, actor Actor, id string) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(payment.UserID) {
		return nil, apperr.NewForbidden("cannot view another user's payment")
	}
	return payment, nil
}

// List is the admin listing with status/method/user filters
func (s *PaymentService) List(ctx context.Context, filter repository.PaymentFilter) ([]models.Payment, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperr.NewValidation("status", "must be pending, approved or rejected")
	}
	if filter.Method != "" && !filter.Method.Valid() {
		return nil, 0, apperr.NewValidation("method", "must be qr_code or upi")
	}
	return s.payments.List(ctx, filter)
}

// All walks every page of the admin listing, e.g. for exports
func (s *PaymentService) All(ctx context.Context, filter repository.PaymentFilter) ([]models.Payment, error) {
	filter.Page = repository.Page{Number: 1, Size: repository.MaxPageSize}
	var out []models.Payment
	for {
		items, total, err := s.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if len(items) == 0 || int64(len(out)) >= total {
			return out, nil
		}
		filter.Page.Number++
	}
}

func (s *PaymentService) MyPayments(ctx context.Context, actor Actor, page repository.Page) ([]models.Payment, int64, error) {
	return s.payments.ListByUser(ctx, actor.ID, page)
}

// Upcoming returns approved payments ending within the reminder window.
// Admins see every user's, others only their own.
func (s *PaymentService) Upcoming(ctx context.Context, actor Actor) ([]models.Payment, error) {
	userID := actor.ID
	if actor.IsAdmin() {
		userID = ""
	}
	return s.payments.FindUpcoming(ctx, userID, s.now().Add(s.reminderWindow))
}

func (s *PaymentService) loadPending(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, apperr.NewInvalidState("payment is not pending approval")
	}
	return payment, nil
}

// applyTransition performs the conditional update; if another request changed
// the payment first, no row matches and the caller gets InvalidState.
func (s *PaymentService) applyTransition(ctx context.Context, id string, updates map[string]interface{}) error {
	changed, err := s.payments.UpdatePending(ctx, id, updates)
	if err != nil {
		return err
	}
	if !changed {
		return apperr.NewInvalidState("payment is not pending approval")
	}
	return nil
}

func (s *PaymentService) notifyOwner(ctx context.Context, payment *models.Payment, in NotifyInput) {
	out, err := s.notifier.Notify(ctx, in)
	if err != nil {
		log.Printf("[payments] failed to notify user %s about payment %s: %v", payment.UserID, payment.ID, err)
		return
	}
	if !out.EmailOK {
		log.Printf("[payments] in-app notification %s stored, email not delivered: %v", out.Notification.ID, out.EmailErr)
	}
}

func methodLabel(m models.PaymentMethod) string {
	switch m {
	case models.PaymentMethodUPI:
		return "UPI"
	case models.PaymentMethodQRCode:
		return "QR code"
	}
	return string(m)
}
