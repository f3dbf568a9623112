package repository

import (
	"context"
	"testing"
	"time"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/models"
	"wifisub_app/internal/testutil"
)

func TestPaymentRepositoryUpdatePending(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice", models.UserRoleUser)
	payment := testutil.CreatePayment(t, db, user.ID, models.PaymentStatusPending, time.Now().AddDate(0, 1, 0), nil)

	changed, err := repo.UpdatePending(ctx, payment.ID, map[string]interface{}{"status": models.PaymentStatusApproved})
	if err != nil {
		t.Fatalf("UpdatePending() error = %v", err)
	}
	if !changed {
		t.Fatal("first UpdatePending should change the row")
	}

	changed, err = repo.UpdatePending(ctx, payment.ID, map[string]interface{}{"status": models.PaymentStatusRejected})
	if err != nil {
		t.Fatalf("UpdatePending() error = %v", err)
	}
	if changed {
		t.Error("UpdatePending must not touch a non-pending payment")
	}

	got, err := repo.FindByID(ctx, payment.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Status != models.PaymentStatusApproved {
		t.Errorf("status = %s; want approved", got.Status)
	}
}

func TestPaymentRepositoryFindByIDNotFound(t *testing.T) {
	repo := NewPaymentRepository(testutil.NewDB(t))

	_, err := repo.FindByID(context.Background(), "missing")
	if !apperr.Is(err, apperr.NotFound) {
		t.Errorf("FindByID() error = %v; want not found", err)
	}
}

func TestPaymentRepositoryCleanupCandidates(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	now := time.Now()
	cutoff := now.AddDate(0, 0, -15)
	user := testutil.CreateUser(t, db, "bob", models.UserRoleUser)
	shot := testutil.StringPtr("https://cdn.example.com/screenshots/a.png")

	eligible := testutil.CreatePayment(t, db, user.ID, models.PaymentStatusApproved, cutoff.AddDate(0, 0, -1), shot)
	testutil.CreatePayment(t, db, user.ID, models.PaymentStatusApproved, cutoff.AddDate(0, 0, 1), shot)  // inside grace window
	testutil.CreatePayment(t, db, user.ID, models.PaymentStatusRejected, cutoff.AddDate(0, 0, -10), shot) // not approved
	testutil.CreatePayment(t, db, user.ID, models.PaymentStatusApproved, cutoff.AddDate(0, 0, -10), nil)  // already purged

	got, err := repo.FindScreenshotsExpiredBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("FindScreenshotsExpiredBefore() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != eligible.ID {
		t.Fatalf("candidates = %+v; want only %s", got, eligible.ID)
	}

	if err := repo.ClearScreenshot(ctx, eligible.ID); err != nil {
		t.Fatalf("ClearScreenshot() error = %v", err)
	}
	got, _ = repo.FindScreenshotsExpiredBefore(ctx, cutoff)
	if len(got) != 0 {
		t.Errorf("candidates after clear = %d; want 0", len(got))
	}
}

func TestPaymentRepositoryExpiringSkipsRenewed(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()
	now := time.Now()

	renewing := testutil.CreateUser(t, db, "asha", models.UserRoleUser)
	lapsed := testutil.CreateUser(t, db, "kiran", models.UserRoleUser)

	testutil.CreatePayment(t, db, renewing.ID, models.PaymentStatusApproved, now.AddDate(0, 0, -20), nil)
	testutil.CreatePayment(t, db, renewing.ID, models.PaymentStatusApproved, now.AddDate(0, 0, 10), nil)
	stillDue := testutil.CreatePayment(t, db, lapsed.ID, models.PaymentStatusApproved, now.AddDate(0, 0, -5), nil)
	// a pending renewal does not count until it is approved
	testutil.CreatePayment(t, db, lapsed.ID, models.PaymentStatusPending, now.AddDate(0, 1, 0), nil)

	got, err := repo.FindExpiringBefore(ctx, now.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("FindExpiringBefore() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != stillDue.ID {
		t.Fatalf("expiring = %+v; want only %s", got, stillDue.ID)
	}
	if got[0].User.Email != lapsed.Email {
		t.Errorf("owner not preloaded: %+v", got[0].User)
	}
}

func TestUserRepositoryCreateAndFindByEmail(t *testing.T) {
	repo := NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()

	user := &models.User{ID: "firebase-uid-1", Name: "Asha", Email: "asha@example.com", Role: models.UserRoleUser, Status: models.UserStatusActive}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.FindByEmail(ctx, "asha@example.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if got.ID != "firebase-uid-1" {
		t.Errorf("id = %s; want the caller supplied id", got.ID)
	}

	if _, err := repo.FindByEmail(ctx, "nobody@example.com"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("FindByEmail() error = %v; want not found", err)
	}
	if err := repo.Create(ctx, &models.User{ID: "firebase-uid-1", Email: "other@example.com"}); !apperr.Is(err, apperr.Infrastructure) {
		t.Errorf("duplicate Create() error = %v; want infrastructure", err)
	}
}

func TestPaymentRepositoryListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.UserRoleUser)
	bob := testutil.CreateUser(t, db, "bob", models.UserRoleUser)
	end := time.Now().AddDate(0, 1, 0)
	testutil.CreatePayment(t, db, alice.ID, models.PaymentStatusPending, end, nil)
	testutil.CreatePayment(t, db, alice.ID, models.PaymentStatusApproved, end, nil)
	testutil.CreatePayment(t, db, bob.ID, models.PaymentStatusPending, end, nil)

	tests := []struct {
		name   string
		filter PaymentFilter
		want   int64
	}{
		{name: "all", filter: PaymentFilter{}, want: 3},
		{name: "pending", filter: PaymentFilter{Status: models.PaymentStatusPending}, want: 2},
		{name: "by user", filter: PaymentFilter{UserID: alice.ID}, want: 2},
		{name: "user and status", filter: PaymentFilter{UserID: bob.ID, Status: models.PaymentStatusApproved}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != tt.want {
				t.Errorf("total = %d; want %d", total, tt.want)
			}
		})
	}
}

func TestNotificationRepositoryMarkAllRead(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "carol", models.UserRoleUser)
	batch := []models.Notification{
		{UserID: user.ID, Title: "one", Type: models.NotificationTypeSystem, Status: models.NotificationStatusUnread},
		{UserID: user.ID, Title: "two", Type: models.NotificationTypeSystem, Status: models.NotificationStatusUnread},
		{UserID: user.ID, Title: "three", Type: models.NotificationTypeSystem, Status: models.NotificationStatusRead},
	}
	if err := repo.CreateBatch(ctx, batch); err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}

	count, err := repo.MarkAllRead(ctx, user.ID, time.Now())
	if err != nil {
		t.Fatalf("MarkAllRead() error = %v", err)
	}
	if count != 2 {
		t.Errorf("MarkAllRead() = %d; want 2", count)
	}

	unread, _ := repo.CountUnread(ctx, user.ID)
	if unread != 0 {
		t.Errorf("CountUnread() = %d; want 0", unread)
	}
}

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in   Page
		want Page
	}{
		{Page{}, Page{Number: 1, Size: DefaultPageSize}},
		{Page{Number: 3, Size: 500}, Page{Number: 3, Size: MaxPageSize}},
		{Page{Number: -1, Size: 10}, Page{Number: 1, Size: 10}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("Normalize(%+v) = %+v; want %+v", tt.in, got, tt.want)
		}
	}
}
