package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/models"
	"wifisub_app/internal/repository"
	"wifisub_app/internal/testutil"
)

func newNotificationFixture(t *testing.T, email *fakeEmailSender) (*NotificationService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		email,
		"https://wifi.example.com/",
	)
	return svc, db
}

func TestNotifyKeepsInAppRecordWhenEmailFails(t *testing.T) {
	email := &fakeEmailSender{failFor: map[string]bool{"asha@example.com": true}}
	svc, db := newNotificationFixture(t, email)
	user := testutil.CreateUser(t, db, "asha", models.UserRoleUser)

	out, err := svc.Notify(context.Background(), NotifyInput{
		UserID:  user.ID,
		Title:   "Payment Approved",
		Message: "Your payment was approved.",
		Type:    models.NotificationTypePaymentApproved,
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if !out.InAppOK || out.EmailOK {
		t.Errorf("outcome = %+v; want in-app ok, email failed", out)
	}
	if !apperr.Is(out.EmailErr, apperr.Infrastructure) {
		t.Errorf("email error = %v; want infrastructure", out.EmailErr)
	}

	var count int64
	db.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("stored notifications = %d; want 1", count)
	}
}

func TestNotifyValidation(t *testing.T) {
	svc, _ := newNotificationFixture(t, &fakeEmailSender{})

	tests := []struct {
		name string
		in   NotifyInput
	}{
		{"empty title", NotifyInput{UserID: "u", Title: "  ", Type: models.NotificationTypeSystem}},
		{"unknown type", NotifyInput{UserID: "u", Title: "Hi", Type: "marketing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Notify(context.Background(), tt.in); !apperr.Is(err, apperr.Validation) {
				t.Errorf("error = %v; want validation", err)
			}
		})
	}
}

func TestNotifyBulkIsolatesEmailFailures(t *testing.T) {
	email := &fakeEmailSender{failFor: map[string]bool{"u2@example.com": true}}
	svc, db := newNotificationFixture(t, email)

	var ids []string
	for _, name := range []string{"u1", "u2", "u3", "u4"} {
		ids = append(ids, testutil.CreateUser(t, db, name, models.UserRoleUser).ID)
	}
	// duplicates collapse to one notification per recipient
	ids = append(ids, ids[0])

	out, err := svc.NotifyBulk(context.Background(), BulkNotifyInput{
		UserIDs: ids,
		Title:   "Maintenance",
		Message: "Service will be down tonight.",
		Type:    models.NotificationTypeSystem,
	})
	if err != nil {
		t.Fatalf("NotifyBulk() error = %v", err)
	}
	if out.Created != 4 {
		t.Errorf("created = %d; want 4", out.Created)
	}
	if out.EmailsSent != 3 || out.EmailsFailed != 1 {
		t.Errorf("emails sent/failed = %d/%d; want 3/1", out.EmailsSent, out.EmailsFailed)
	}
	if email.count() != 3 {
		t.Errorf("sender saw %d emails; want 3", email.count())
	}

	var count int64
	db.Model(&models.Notification{}).Count(&count)
	if count != 4 {
		t.Errorf("stored notifications = %d; want 4", count)
	}
}

func TestNotifyBulkUnknownRecipient(t *testing.T) {
	svc, db := newNotificationFixture(t, &fakeEmailSender{})
	user := testutil.CreateUser(t, db, "asha", models.UserRoleUser)

	out, err := svc.NotifyBulk(context.Background(), BulkNotifyInput{
		UserIDs: []string{user.ID, "ghost"},
		Title:   "Hello",
		Type:    models.NotificationTypeSystem,
	})
	if err != nil {
		t.Fatalf("NotifyBulk() error = %v", err)
	}
	if out.Created != 2 || out.EmailsSent != 1 || out.EmailsFailed != 1 {
		t.Errorf("outcome = %+v", out)
	}
}

func TestNotifyAdminsReachesOnlyAdmins(t *testing.T) {
	email := &fakeEmailSender{}
	svc, db := newNotificationFixture(t, email)
	testutil.CreateUser(t, db, "ravi", models.UserRoleAdmin)
	testutil.CreateUser(t, db, "meera", models.UserRoleAdmin)
	testutil.CreateUser(t, db, "asha", models.UserRoleUser)

	out, err := svc.NotifyAdmins(context.Background(), "New Payment Submission", "review please", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Created != 2 || out.EmailsSent != 2 {
		t.Errorf("outcome = %+v; want 2 created, 2 sent", out)
	}
}

func TestMarkReadOwnership(t *testing.T) {
	svc, db := newNotificationFixture(t, &fakeEmailSender{})
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "asha", models.UserRoleUser)
	other := testutil.CreateUser(t, db, "kiran", models.UserRoleUser)

	out, err := svc.Notify(ctx, NotifyInput{UserID: owner.ID, Title: "Hi", Type: models.NotificationTypeSystem})
	if err != nil {
		t.Fatal(err)
	}
	id := out.Notification.ID

	if _, err := svc.MarkRead(ctx, id, Actor{ID: other.ID, Role: other.Role}); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("MarkRead() by other = %v; want forbidden", err)
	}

	n, err := svc.MarkRead(ctx, id, Actor{ID: owner.ID, Role: owner.Role})
	if err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if n.Status != models.NotificationStatusRead || n.ReadAt == nil {
		t.Errorf("notification not marked read: %+v", n)
	}

	count, err := svc.UnreadCount(ctx, Actor{ID: owner.ID, Role: owner.Role})
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("unread = %d; want 0", count)
	}
}

func TestMarkAllRead(t *testing.T) {
	svc, db := newNotificationFixture(t, &fakeEmailSender{})
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "asha", models.UserRoleUser)

	for i := 0; i < 3; i++ {
		if _, err := svc.Notify(ctx, NotifyInput{UserID: user.ID, Title: "Hi", Type: models.NotificationTypeSystem}); err != nil {
			t.Fatal(err)
		}
	}

	marked, err := svc.MarkAllRead(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if marked != 3 {
		t.Errorf("marked = %d; want 3", marked)
	}

	again, err := svc.MarkAllRead(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again != 0 {
		t.Errorf("second MarkAllRead() = %d; want 0", again)
	}
}
