package services

import (
	"context"
	"testing"
	"time"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/models"
	"wifisub_app/internal/repository"
	"wifisub_app/internal/testutil"
)

func TestSetUserStatus(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc := NewAdminService(db, repository.NewUserRepository(db), notifier)

	admin := testutil.CreateUser(t, db, "ravi", models.UserRoleAdmin)
	user := testutil.CreateUser(t, db, "asha", models.UserRoleUser)
	actor := Actor{ID: admin.ID, Role: admin.Role}

	got, err := svc.SetUserStatus(ctx, actor, user.ID, models.UserStatusSuspended)
	if err != nil {
		t.Fatalf("SetUserStatus() error = %v", err)
	}
	if got.Status != models.UserStatusSuspended {
		t.Errorf("status = %s", got.Status)
	}
	if len(notifier.single) != 1 || notifier.single[0].Type != models.NotificationTypeAccountStatus {
		t.Errorf("notifications = %+v", notifier.single)
	}

	// no-op change does not notify again
	if _, err := svc.SetUserStatus(ctx, actor, user.ID, models.UserStatusSuspended); err != nil {
		t.Fatal(err)
	}
	if len(notifier.single) != 1 {
		t.Errorf("repeated status sent %d notifications", len(notifier.single))
	}

	if _, err := svc.SetUserStatus(ctx, actor, admin.ID, models.UserStatusSuspended); !apperr.Is(err, apperr.InvalidState) {
		t.Errorf("self suspend error = %v; want invalid state", err)
	}
	if _, err := svc.SetUserStatus(ctx, actor, user.ID, "banned"); !apperr.Is(err, apperr.Validation) {
		t.Errorf("bad status error = %v; want validation", err)
	}
}

func TestDashboard(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewAdminService(db, repository.NewUserRepository(db), &recordingNotifier{})

	a := testutil.CreateUser(t, db, "asha", models.UserRoleUser)
	b := testutil.CreateUser(t, db, "kiran", models.UserRoleUser)
	testutil.CreateUser(t, db, "ravi", models.UserRoleAdmin)

	now := time.Now()
	testutil.CreatePayment(t, db, a.ID, models.PaymentStatusApproved, now.AddDate(0, 0, 10), nil)
	testutil.CreatePayment(t, db, a.ID, models.PaymentStatusApproved, now.AddDate(0, -1, 0), nil)
	testutil.CreatePayment(t, db, b.ID, models.PaymentStatusPending, now.AddDate(0, 1, 0), nil)

	stats, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if stats.PendingPayments != 1 || stats.ActiveSubscribers != 1 || stats.TotalUsers != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ApprovedRevenue != 1000 {
		t.Errorf("revenue = %v; want 1000", stats.ApprovedRevenue)
	}
}
