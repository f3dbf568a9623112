package tasks

import (
	"gorm.io/gorm"

	"wifisub_app/internal/config"
	"wifisub_app/internal/repository"
	"wifisub_app/internal/services"
)

// Deps are the collaborators the task handlers need
type Deps struct {
	DB      *gorm.DB
	Config  *config.Config
	Email   services.EmailSender
	Cleaner ScreenshotCleaner
}

// DefineTasks registers all available tasks
func DefineTasks(r *Registry, deps Deps) {
	reminder := NewPaymentReminderTask(
		repository.NewPaymentRepository(deps.DB),
		repository.NewNotificationRepository(deps.DB),
		deps.Email,
		deps.Config.FrontendURL,
		deps.Config.ReminderWindow,
	)
	r.Register(reminder.TaskID(), reminder.HandleExecution)

	cleanup := NewScreenshotCleanupTask(deps.Cleaner)
	r.Register(cleanup.TaskID(), cleanup.HandleExecution)
}

// DailyJobs lists the recurring jobs with their configured rules
func DailyJobs(cfg *config.Config) []RecurringJob {
	return []RecurringJob{
		{Name: "payment_reminder", RRule: cfg.ReminderRRule},
		{Name: "screenshot_cleanup", RRule: cfg.CleanupRRule},
	}
}
