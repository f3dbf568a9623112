package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/models"
	"wifisub_app/internal/repository"
	"wifisub_app/internal/testutil"
)

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{
			name:   "mid month",
			start:  time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "jan 31 clamps to feb 28",
			start:  time.Date(2026, 1, 31, 9, 30, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2026, 2, 28, 9, 30, 0, 0, time.UTC),
		},
		{
			name:   "jan 31 clamps to feb 29 in leap year",
			start:  time.Date(2028, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "crosses year boundary",
			start:  time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC),
			months: 3,
			want:   time.Date(2027, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "twelve months",
			start:  time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
			months: 12,
			want:   time.Date(2027, 5, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(tt.start, tt.months)
			if !got.Equal(tt.want) {
				t.Errorf("AddMonths(%v, %d) = %v; want %v", tt.start, tt.months, got, tt.want)
			}
		})
	}
}

type paymentFixture struct {
	svc      *PaymentService
	notifier *recordingNotifier
	repo     repository.PaymentRepository
	customer models.User
	admin    models.User
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	db := testutil.NewDB(t)
	repo := repository.NewPaymentRepository(db)
	notifier := &recordingNotifier{}
	return &paymentFixture{
		svc:      NewPaymentService(repo, notifier, 0),
		notifier: notifier,
		repo:     repo,
		customer: testutil.CreateUser(t, db, "asha", models.UserRoleUser),
		admin:    testutil.CreateUser(t, db, "ravi", models.UserRoleAdmin),
	}
}

func (f *paymentFixture) customerActor() Actor {
	return Actor{ID: f.customer.ID, Role: f.customer.Role}
}

func (f *paymentFixture) submit(t *testing.T) *models.Payment {
	t.Helper()
	p, err := f.svc.Create(context.Background(), f.customerActor(), CreatePaymentInput{
		Amount:         500,
		Method:         models.PaymentMethodUPI,
		DurationMonths: 1,
		ScreenshotURL:  testutil.StringPtr("https://cdn.example.com/payment-screenshots/a.png"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return p
}

func TestCreatePaymentValidation(t *testing.T) {
	f := newPaymentFixture(t)

	tests := []struct {
		name  string
		in    CreatePaymentInput
		field string
	}{
		{"negative amount", CreatePaymentInput{Amount: -1, Method: models.PaymentMethodUPI, DurationMonths: 1}, "amount"},
		{"nan amount", CreatePaymentInput{Amount: math.NaN(), Method: models.PaymentMethodUPI, DurationMonths: 1}, "amount"},
		{"unknown method", CreatePaymentInput{Amount: 10, Method: "cash", DurationMonths: 1}, "method"},
		{"zero duration", CreatePaymentInput{Amount: 10, Method: models.PaymentMethodQRCode, DurationMonths: 0}, "duration_months"},
		{"duration too long", CreatePaymentInput{Amount: 10, Method: models.PaymentMethodQRCode, DurationMonths: 13}, "duration_months"},
		{"bad screenshot url", CreatePaymentInput{Amount: 10, Method: models.PaymentMethodQRCode, DurationMonths: 1, ScreenshotURL: testutil.StringPtr("not a url")}, "screenshot_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.customerActor(), tt.in)
			if !apperr.Is(err, apperr.Validation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var e *apperr.Error
			if !errors.As(err, &e) || e.Field != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestCreatePaymentSetsPeriodAndNotifiesAdmins(t *testing.T) {
	f := newPaymentFixture(t)
	now := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	p := f.submit(t)

	if p.Status != models.PaymentStatusPending {
		t.Errorf("status = %s; want pending", p.Status)
	}
	if !p.StartDate.Equal(now) {
		t.Errorf("start = %v; want %v", p.StartDate, now)
	}
	if want := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC); !p.EndDate.Equal(want) {
		t.Errorf("end = %v; want %v", p.EndDate, want)
	}
	if len(f.notifier.admin) != 1 || f.notifier.admin[0] != "New Payment Submission" {
		t.Errorf("admin notifications = %v", f.notifier.admin)
	}
}

func TestApproveOnlyOnce(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	p := f.submit(t)

	approved, err := f.svc.Approve(ctx, p.ID, f.admin.ID, nil)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if approved.Status != models.PaymentStatusApproved {
		t.Errorf("status = %s; want approved", approved.Status)
	}
	if approved.ApprovedAt == nil || approved.ApprovedBy == nil || *approved.ApprovedBy != f.admin.ID {
		t.Errorf("approval fields not set: at=%v by=%v", approved.ApprovedAt, approved.ApprovedBy)
	}

	if _, err := f.svc.Approve(ctx, p.ID, f.admin.ID, nil); !apperr.Is(err, apperr.InvalidState) {
		t.Errorf("second Approve() error = %v; want invalid state", err)
	}
	if _, err := f.svc.Reject(ctx, p.ID, f.admin.ID, "changed my mind entirely", nil); !apperr.Is(err, apperr.InvalidState) {
		t.Errorf("Reject() after approve error = %v; want invalid state", err)
	}

	if titles := f.notifier.titles(); len(titles) != 1 || titles[0] != "Payment Approved" {
		t.Errorf("user notifications = %v", titles)
	}
}

func TestApproveMissingPayment(t *testing.T) {
	f := newPaymentFixture(t)
	if _, err := f.svc.Approve(context.Background(), "missing", f.admin.ID, nil); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("error = %v; want not found", err)
	}
}

func TestRejectReason(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	p := f.submit(t)

	for _, reason := range []string{"", "blurry", "   short    "} {
		if _, err := f.svc.Reject(ctx, p.ID, f.admin.ID, reason, nil); !apperr.Is(err, apperr.Validation) {
			t.Errorf("Reject(%q) error = %v; want validation", reason, err)
		}
	}

	stored, err := f.repo.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.PaymentStatusPending {
		t.Fatalf("invalid reasons must not change status, got %s", stored.Status)
	}

	rejected, err := f.svc.Reject(ctx, p.ID, f.admin.ID, "  Screenshot is unreadable  ", nil)
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if rejected.Status != models.PaymentStatusRejected {
		t.Errorf("status = %s; want rejected", rejected.Status)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "Screenshot is unreadable" {
		t.Errorf("reason = %v", rejected.RejectionReason)
	}
	if rejected.ApprovedBy != nil {
		t.Errorf("approved_by must stay empty on rejection")
	}

	if len(f.notifier.single) != 1 || !strings.Contains(f.notifier.single[0].Message, "Screenshot is unreadable") {
		t.Errorf("rejection notification = %+v", f.notifier.single)
	}
}

type racingRepo struct {
	repository.PaymentRepository
}

func (racingRepo) UpdatePending(ctx context.Context, id string, updates map[string]interface{}) (bool, error) {
	return false, nil
}

func TestApproveLosesRace(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.submit(t)

	svc := NewPaymentService(racingRepo{f.repo}, f.notifier, 0)
	if _, err := svc.Approve(context.Background(), p.ID, f.admin.ID, nil); !apperr.Is(err, apperr.InvalidState) {
		t.Errorf("error = %v; want invalid state", err)
	}
	if len(f.notifier.single) != 0 {
		t.Error("no notification expected when the transition did not apply")
	}
}

func TestNotificationFailureDoesNotFailApprove(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.submit(t)
	f.notifier.NotifyErr = apperr.Infra("db down", nil)

	approved, err := f.svc.Approve(context.Background(), p.ID, f.admin.ID, nil)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if approved.Status != models.PaymentStatusApproved {
		t.Errorf("status = %s; want approved", approved.Status)
	}
}

func TestUpdatePayment(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	p := f.submit(t)

	t.Run("other user forbidden", func(t *testing.T) {
		_, err := f.svc.Update(ctx, Actor{ID: "someone-else", Role: models.UserRoleUser}, p.ID, PaymentPatch{Notes: testutil.StringPtr("x")})
		if !apperr.Is(err, apperr.Forbidden) {
			t.Errorf("error = %v; want forbidden", err)
		}
	})

	t.Run("duration recomputes end date", func(t *testing.T) {
		months := 3
		updated, err := f.svc.Update(ctx, f.customerActor(), p.ID, PaymentPatch{DurationMonths: &months})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		want := AddMonths(updated.StartDate, 3)
		if !updated.EndDate.Equal(want) {
			t.Errorf("end = %v; want %v", updated.EndDate, want)
		}
	})

	t.Run("invalid duration", func(t *testing.T) {
		months := 24
		_, err := f.svc.Update(ctx, f.customerActor(), p.ID, PaymentPatch{DurationMonths: &months})
		if !apperr.Is(err, apperr.Validation) {
			t.Errorf("error = %v; want validation", err)
		}
	})

	t.Run("approved payment is frozen", func(t *testing.T) {
		if _, err := f.svc.Approve(ctx, p.ID, f.admin.ID, nil); err != nil {
			t.Fatal(err)
		}
		_, err := f.svc.Update(ctx, f.customerActor(), p.ID, PaymentPatch{Notes: testutil.StringPtr("late edit")})
		if !apperr.Is(err, apperr.InvalidState) {
			t.Errorf("error = %v; want invalid state", err)
		}
	})
}

func TestGetPaymentVisibility(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	p := f.submit(t)

	if _, err := f.svc.Get(ctx, f.customerActor(), p.ID); err != nil {
		t.Errorf("owner Get() error = %v", err)
	}
	if _, err := f.svc.Get(ctx, Actor{ID: f.admin.ID, Role: models.UserRoleAdmin}, p.ID); err != nil {
		t.Errorf("admin Get() error = %v", err)
	}
	if _, err := f.svc.Get(ctx, Actor{ID: "stranger", Role: models.UserRoleUser}, p.ID); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("stranger Get() error = %v; want forbidden", err)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	f := newPaymentFixture(t)
	_, _, err := f.svc.List(context.Background(), repository.PaymentFilter{Status: "archived"})
	if !apperr.Is(err, apperr.Validation) {
		t.Errorf("error = %v; want validation", err)
	}
}

func TestSubmitApproveScenario(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	p := f.submit(t)
	approved, err := f.svc.Approve(ctx, p.ID, f.admin.ID, testutil.StringPtr("verified against bank statement"))
	if err != nil {
		t.Fatal(err)
	}

	mine, total, err := f.svc.MyPayments(ctx, f.customerActor(), repository.Page{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || mine[0].ID != approved.ID || mine[0].Status != models.PaymentStatusApproved {
		t.Errorf("MyPayments() = %+v (total %d)", mine, total)
	}
	if approved.Notes == nil || *approved.Notes != "verified against bank statement" {
		t.Errorf("notes = %v", approved.Notes)
	}
	if len(f.notifier.admin) != 1 || len(f.notifier.single) != 1 {
		t.Errorf("expected one admin and one user notification, got %d and %d", len(f.notifier.admin), len(f.notifier.single))
	}
}

func TestAllWalksEveryPage(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	want := repository.MaxPageSize + 5
	for i := 0; i < want; i++ {
		err := f.repo.Create(ctx, &models.Payment{
			UserID:         f.customer.ID,
			Amount:         100,
			Method:         models.PaymentMethodQRCode,
			Status:         models.PaymentStatusPending,
			DurationMonths: 1,
			StartDate:      time.Now(),
			EndDate:        time.Now().AddDate(0, 1, 0),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	all, err := f.svc.All(ctx, repository.PaymentFilter{Status: models.PaymentStatusPending})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != want {
		t.Errorf("All() returned %d payments; want %d", len(all), want)
	}
}
