package services

import (
	"context"
	"errors"
	"sync"

	"wifisub_app/internal/models"
)

type recordingNotifier struct {
	mu     sync.Mutex
	single []NotifyInput
	admin  []string

	NotifyErr error
}

func (n *recordingNotifier) Notify(ctx context.Context, in NotifyInput) (Outcome, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.single = append(n.single, in)
	if n.NotifyErr != nil {
		return Outcome{}, n.NotifyErr
	}
	return Outcome{Notification: &models.Notification{UserID: in.UserID, Title: in.Title}, InAppOK: true, EmailOK: true}, nil
}

func (n *recordingNotifier) NotifyBulk(ctx context.Context, in BulkNotifyInput) (BulkOutcome, error) {
	return BulkOutcome{Created: len(in.UserIDs)}, nil
}

func (n *recordingNotifier) NotifyAdmins(ctx context.Context, title, message string, metadata map[string]interface{}) (BulkOutcome, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.admin = append(n.admin, title)
	return BulkOutcome{Created: 1}, nil
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.single))
	for _, in := range n.single {
		out = append(out, in.Title)
	}
	return out
}

type fakeEmailSender struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]bool
}

var errSMTPDown = errors.New("smtp: connection refused")

func (f *fakeEmailSender) SendEmail(ctx context.Context, to []string, subject, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[to[0]] {
		return errSMTPDown
	}
	f.sent = append(f.sent, to[0])
	return nil
}

func (f *fakeEmailSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
