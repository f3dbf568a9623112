// Package emails renders transactional email bodies from the templ
// components in templates.templ.
package emails

//go:generate templ generate

import (
	"bytes"
	"context"
	"fmt"

	"github.com/a-h/templ"
)

// NotificationData is the content of a notification email
type NotificationData struct {
	Name       string
	Title      string
	Message    string
	ActionURL  string
	ActionText string
}

// ReminderData is the content of a payment due-date reminder
type ReminderData struct {
	Name       string
	Amount     float64
	EndDate    string
	DaysLeft   int
	RenewalURL string
}

// Render renders a component into a string
func Render(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func greetingName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}

func actionText(text string) string {
	if text == "" {
		return "Open dashboard"
	}
	return text
}

func amountText(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

func daysLeftText(days int) string {
	switch {
	case days < 0:
		return " (already ended)"
	case days == 0:
		return " (today)"
	case days == 1:
		return " (in 1 day)"
	default:
		return fmt.Sprintf(" (in %d days)", days)
	}
}
