package services

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/emails"
	"wifisub_app/internal/models"
	"wifisub_app/internal/repository"
)

const defaultEmailParallelism = 8

// NotifyInput describes a single in-app notification
type NotifyInput struct {
	UserID   string
	Title    string
	Message  string
	Type     models.NotificationType
	Metadata map[string]interface{}
}

// BulkNotifyInput describes the same notification sent to many recipients
type BulkNotifyInput struct {
	UserIDs  []string
	Title    string
	Message  string
	Type     models.NotificationType
	Metadata map[string]interface{}
}

// Outcome reports what happened on each channel for one recipient.
// The in-app record is authoritative; email is best-effort.
type Outcome struct {
	Notification *models.Notification `json:"notification"`
	InAppOK      bool                 `json:"in_app_ok"`
	EmailOK      bool                 `json:"email_ok"`
	EmailErr     error                `json:"-"`
}

// BulkOutcome aggregates per-recipient outcomes of a bulk notification
type BulkOutcome struct {
	Results      []Outcome `json:"results"`
	Created      int       `json:"created"`
	EmailsSent   int       `json:"emails_sent"`
	EmailsFailed int       `json:"emails_failed"`
}

// Notifier is the dispatcher surface used by the lifecycle engine
type Notifier interface {
	Notify(ctx context.Context, in NotifyInput) (Outcome, error)
	NotifyBulk(ctx context.Context, in BulkNotifyInput) (BulkOutcome, error)
	NotifyAdmins(ctx context.Context, title, message string, metadata map[string]interface{}) (BulkOutcome, error)
}

type NotificationService struct {
	notifications    repository.NotificationRepository
	users            repository.UserRepository
	email            EmailSender
	frontendURL      string
	emailParallelism int
	now              func() time.Time
}

func NewNotificationService(notifications repository.NotificationRepository, users repository.UserRepository, email EmailSender, frontendURL string) *NotificationService {
	return &NotificationService{
		notifications:    notifications,
		users:            users,
		email:            email,
		frontendURL:      strings.TrimRight(frontendURL, "/"),
		emailParallelism: defaultEmailParallelism,
		now:              time.Now,
	}
}

func validateNotification(title string, typ models.NotificationType) error {
	if strings.TrimSpace(title) == "" {
		return apperr.NewValidation("title", "is required")
	}
	if !typ.Valid() {
		return apperr.NewValidation("type", "must be one of payment_reminder, payment_approved, payment_rejected, account_status, system")
	}
	return nil
}

// Notify persists an in-app notification and then attempts an email.
// Email failure is reported in the Outcome, never as the returned error.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (Outcome, error) {
	if err := validateNotification(in.Title, in.Type); err != nil {
		return Outcome{}, err
	}

	n := &models.Notification{
		UserID:   in.UserID,
		Title:    strings.TrimSpace(in.Title),
		Message:  in.Message,
		Type:     in.Type,
		Status:   models.NotificationStatusUnread,
		Metadata: toJSONMap(in.Metadata),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Notification: n, InAppOK: true}

	user, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		out.EmailErr = err
		log.Printf("[notify] skipped email for notification %s: %v", n.ID, err)
		return out, nil
	}

	out.EmailErr = s.sendNotificationEmail(ctx, user, n)
	out.EmailOK = out.EmailErr == nil
	return out, nil
}

// NotifyBulk inserts one notification per distinct recipient in a single batch,
// then attempts one email per recipient. Recipients are isolated from each
// other's email failures.
func (s *NotificationService) NotifyBulk(ctx context.Context, in BulkNotifyInput) (BulkOutcome, error) {
	if err := validateNotification(in.Title, in.Type); err != nil {
		return BulkOutcome{}, err
	}

	userIDs := dedupe(in.UserIDs)
	if len(userIDs) == 0 {
		return BulkOutcome{}, nil
	}

	batch := make([]models.Notification, len(userIDs))
	for i, uid := range userIDs {
		batch[i] = models.Notification{
			UserID:   uid,
			Title:    strings.TrimSpace(in.Title),
			Message:  in.Message,
			Type:     in.Type,
			Status:   models.NotificationStatusUnread,
			Metadata: toJSONMap(in.Metadata),
		}
	}
	if err := s.notifications.CreateBatch(ctx, batch); err != nil {
		return BulkOutcome{}, err
	}

	results := make([]Outcome, len(batch))
	for i := range batch {
		results[i] = Outcome{Notification: &batch[i], InAppOK: true}
	}

	recipients := map[string]models.User{}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		log.Printf("[notify] bulk recipient lookup failed, emails skipped: %v", err)
	}
	for _, u := range users {
		recipients[u.ID] = u
	}

	var g errgroup.Group
	g.SetLimit(s.emailParallelism)
	for i := range results {
		user, ok := recipients[batch[i].UserID]
		if !ok {
			results[i].EmailErr = apperr.NewNotFound("recipient not found")
			continue
		}
		i, user := i, user
		g.Go(func() error {
			results[i].EmailErr = s.sendNotificationEmail(ctx, &user, results[i].Notification)
			results[i].EmailOK = results[i].EmailErr == nil
			return nil
		})
	}
	_ = g.Wait()

	out := BulkOutcome{Results: results, Created: len(batch)}
	for _, r := range results {
		if r.EmailOK {
			out.EmailsSent++
		} else {
			out.EmailsFailed++
		}
	}
	return out, nil
}

// NotifyAdmins sends a system notification to every active admin
func (s *NotificationService) NotifyAdmins(ctx context.Context, title, message string, metadata map[string]interface{}) (BulkOutcome, error) {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return BulkOutcome{}, err
	}
	ids := make([]string, 0, len(admins))
	for _, a := range admins {
		ids = append(ids, a.ID)
	}
	return s.NotifyBulk(ctx, BulkNotifyInput{
		UserIDs:  ids,
		Title:    title,
		Message:  message,
		Type:     models.NotificationTypeSystem,
		Metadata: metadata,
	})
}

func (s *NotificationService) sendNotificationEmail(ctx context.Context, user *models.User, n *models.Notification) error {
	if user.Email == "" {
		return apperr.NewValidation("email", "recipient has no email address")
	}

	body, err := emails.Render(ctx, emails.Notification(emails.NotificationData{
		Name:       user.Name,
		Title:      n.Title,
		Message:    n.Message,
		ActionURL:  s.frontendURL + "/dashboard/notifications",
		ActionText: "View notifications",
	}))
	if err != nil {
		log.Printf("[notify] failed to render email for %s: %v", user.ID, err)
		return err
	}

	if err := s.email.SendEmail(ctx, []string{user.Email}, n.Title, body); err != nil {
		log.Printf("[notify] email to %s failed (in-app notification %s kept): %v", user.Email, n.ID, err)
		return apperr.Infra("email delivery failed", err)
	}
	return nil
}

// List returns the caller's notifications, or any user's when the caller is an admin
func (s *NotificationService) List(ctx context.Context, actor Actor, filter repository.NotificationFilter) ([]models.Notification, int64, error) {
	if !actor.IsAdmin() || filter.UserID == "" {
		filter.UserID = actor.ID
	}
	return s.notifications.List(ctx, filter)
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor Actor) (int64, error) {
	return s.notifications.CountUnread(ctx, actor.ID)
}

// MarkRead marks one notification read; only its recipient or an admin may do so
func (s *NotificationService) MarkRead(ctx context.Context, id string, actor Actor) (*models.Notification, error) {
	n, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(n.UserID) {
		return nil, apperr.NewForbidden("cannot modify another user's notification")
	}
	if n.Status == models.NotificationStatusRead {
		return n, nil
	}

	at := s.now()
	if err := s.notifications.MarkRead(ctx, id, at); err != nil {
		return nil, err
	}
	n.Status = models.NotificationStatusRead
	n.ReadAt = &at
	return n, nil
}

// MarkAllRead marks every unread notification of userID read and returns the count
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID, s.now())
}

func (s *NotificationService) Delete(ctx context.Context, id string, actor Actor) error {
	n, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanAccess(n.UserID) {
		return apperr.NewForbidden("cannot delete another user's notification")
	}
	return s.notifications.Delete(ctx, id)
}

func toJSONMap(m map[string]interface{}) datatypes.JSONMap {
	if m == nil {
		return nil
	}
	return datatypes.JSONMap(m)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
