package tasks

import (
	"context"
	"errors"

	"wifisub_app/internal/models"
	"wifisub_app/internal/services"
)

// ScreenshotCleaner is the retention policy run by the cleanup task
type ScreenshotCleaner interface {
	CleanupScreenshots(ctx context.Context) (services.CleanupResult, error)
}

// ScreenshotCleanupTaskDef removes screenshots past their retention window
type ScreenshotCleanupTaskDef struct {
	cleaner ScreenshotCleaner
}

func NewScreenshotCleanupTask(cleaner ScreenshotCleaner) *ScreenshotCleanupTaskDef {
	return &ScreenshotCleanupTaskDef{cleaner: cleaner}
}

// TaskID returns the unique identifier for this task
func (t *ScreenshotCleanupTaskDef) TaskID() string {
	return "screenshot_cleanup"
}

func (t *ScreenshotCleanupTaskDef) HandleExecution(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
	if t.cleaner == nil {
		return nil, errors.New("screenshot storage is not configured")
	}
	result, err := t.cleaner.CleanupScreenshots(ctx)
	out := map[string]interface{}{"success": result.Success, "errors": result.Errors}
	return out, err
}
