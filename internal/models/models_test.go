package models

import (
	"testing"
	"time"
)

func TestScheduledTaskNextDue(t *testing.T) {
	daily := "FREQ=DAILY;BYHOUR=2;BYMINUTE=0;BYSECOND=0"
	due := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task ScheduledTask
		ref  time.Time
		want time.Time
	}{
		{
			name: "onetime keeps due",
			task: ScheduledTask{TaskType: ScheduledTaskTypeOneTime, Due: due},
			ref:  due.Add(time.Hour),
			want: due,
		},
		{
			name: "recurring advances to next day",
			task: ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &daily},
			ref:  due.Add(time.Minute),
			want: due.AddDate(0, 0, 1),
		},
		{
			name: "recurring skips missed days",
			task: ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &daily},
			ref:  due.AddDate(0, 0, 3).Add(time.Hour),
			want: due.AddDate(0, 0, 4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.NextDue(tt.ref); !got.Equal(tt.want) {
				t.Errorf("NextDue() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestFirstOccurrence(t *testing.T) {
	ref := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)

	got, err := FirstOccurrence("FREQ=DAILY;BYHOUR=9;BYMINUTE=0;BYSECOND=0", ref)
	if err != nil {
		t.Fatalf("FirstOccurrence() error = %v", err)
	}
	want := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("FirstOccurrence() = %v; want %v", got, want)
	}

	if _, err := FirstOccurrence("NOT A RULE", ref); err == nil {
		t.Error("expected error for invalid rule")
	}
}

func TestPaymentStatusTerminal(t *testing.T) {
	if PaymentStatusPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !PaymentStatusApproved.Terminal() || !PaymentStatusRejected.Terminal() {
		t.Error("approved and rejected must be terminal")
	}
	if PaymentStatus("refunded").Valid() {
		t.Error("unknown status must be invalid")
	}
}

func TestTicketStatusCanTransition(t *testing.T) {
	tests := []struct {
		from, to TicketStatus
		want     bool
	}{
		{TicketStatusOpen, TicketStatusInProgress, true},
		{TicketStatusOpen, TicketStatusResolved, true},
		{TicketStatusInProgress, TicketStatusResolved, true},
		{TicketStatusResolved, TicketStatusClosed, true},
		{TicketStatusResolved, TicketStatusOpen, false},
		{TicketStatusClosed, TicketStatusOpen, false},
		{TicketStatusClosed, TicketStatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition() = %v; want %v", got, tt.want)
			}
		})
	}
}
