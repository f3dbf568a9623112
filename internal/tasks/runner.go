package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"wifisub_app/internal/models"
)

// RecurringJob is a daily job kept alive as a recurring ScheduledTask row
type RecurringJob struct {
	Name  string
	RRule string
}

// Runner polls the scheduled_tasks table and executes due tasks
type Runner struct {
	db       *gorm.DB
	registry *Registry
	poll     time.Duration
	now      func() time.Time
}

func NewRunner(db *gorm.DB, registry *Registry, poll time.Duration) *Runner {
	if poll <= 0 {
		poll = 5 * time.Minute
	}
	return &Runner{db: db, registry: registry, poll: poll, now: time.Now}
}

// EnsureRecurring creates or re-activates one recurring row per job. An
// existing row keeps its due time unless its rule changed.
func (r *Runner) EnsureRecurring(ctx context.Context, jobs []RecurringJob) error {
	for _, job := range jobs {
		if _, ok := r.registry.Get(job.Name); !ok {
			return fmt.Errorf("no handler registered for %s", job.Name)
		}
		first, err := models.FirstOccurrence(job.RRule, r.now())
		if err != nil {
			return fmt.Errorf("invalid rule for %s: %w", job.Name, err)
		}

		var existing models.ScheduledTask
		err = r.db.WithContext(ctx).
			Where("task_name = ? AND task_type = ?", job.Name, models.ScheduledTaskTypeRecurring).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rule := job.RRule
			task, err := BuildScheduledTask(job.Name, nil, first, &rule, models.ScheduledTaskTypeRecurring, 1)
			if err != nil {
				return err
			}
			if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
				return fmt.Errorf("failed to create %s: %w", job.Name, err)
			}
			log.Printf("Scheduled recurring task %s, first run at %s", job.Name, first.Format(time.RFC3339))
		case err != nil:
			return fmt.Errorf("failed to look up %s: %w", job.Name, err)
		default:
			updates := map[string]interface{}{}
			if existing.RecurringInterval == nil || *existing.RecurringInterval != job.RRule {
				updates["recurring_interval"] = job.RRule
				updates["due"] = first
			}
			if existing.Status != models.ScheduledTaskStatusActive && existing.Status != models.ScheduledTaskStatusDisabled {
				updates["status"] = models.ScheduledTaskStatusActive
			}
			if len(updates) > 0 {
				if err := r.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
					return fmt.Errorf("failed to update %s: %w", job.Name, err)
				}
			}
		}
	}
	return nil
}

// Run processes due tasks immediately and then on every poll tick until ctx is done
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	r.ProcessDue(ctx)
	for {
		select {
		case <-ticker.C:
			r.ProcessDue(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// ProcessDue executes every active task with due <= now and returns how many ran
func (r *Runner) ProcessDue(ctx context.Context) int {
	var pending []models.ScheduledTask
	now := r.now()
	if err := r.db.WithContext(ctx).
		Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, now).
		Order("due asc").
		Find(&pending).Error; err != nil {
		log.Printf("Error fetching pending tasks: %v", err)
		return 0
	}
	if len(pending) == 0 {
		return 0
	}

	log.Printf("Found %d pending tasks.", len(pending))
	ran := 0
	for _, task := range pending {
		if ctx.Err() != nil {
			break
		}
		r.execute(ctx, task)
		ran++
	}
	return ran
}

// RunNow executes the named handler outside the schedule and records history
func (r *Runner) RunNow(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	handler, ok := r.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("no handler registered for %s", name)
	}
	task := models.ScheduledTask{TaskName: name, Arguments: args, TaskType: models.ScheduledTaskTypeOneTime, MaxAttempt: 1}
	result, _, err := r.attempt(ctx, handler, task, 1)
	return result, err
}

func (r *Runner) execute(ctx context.Context, task models.ScheduledTask) {
	log.Printf("[Task: %s] processing (ID: %d)", task.TaskName, task.ID)

	handler, found := r.registry.Get(task.TaskName)
	if !found {
		log.Printf("[Task: %s] handler not found, marking as failure", task.TaskName)
		now := r.now()
		r.db.WithContext(ctx).Model(&task).Updates(map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": &now,
		})
		r.db.WithContext(ctx).Create(&models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           now,
			Status:          "handler_not_found",
			AttemptNumber:   1,
			Arguments:       task.Arguments,
			Result:          map[string]interface{}{"error": "Handler not found"},
		})
		return
	}

	updates := map[string]interface{}{}

	switch task.TaskType {
	case models.ScheduledTaskTypeRecurring:
		// one attempt per occurrence; a failed run waits for the next one
		_, startedAt, _ := r.attempt(ctx, handler, task, 1)
		updates["last_run"] = &startedAt

		next := task.NextDue(r.now())
		if next.After(task.Due) {
			updates["due"] = next
		} else {
			updates["status"] = models.ScheduledTaskStatusDone
		}
	default:
		maxAttempt := task.MaxAttempt
		if maxAttempt < 1 {
			maxAttempt = 1
		}
		updates["status"] = models.ScheduledTaskStatusFailure
		for attempt := 1; attempt <= maxAttempt; attempt++ {
			_, startedAt, err := r.attempt(ctx, handler, task, attempt)
			updates["last_run"] = &startedAt
			if err == nil {
				updates["status"] = models.ScheduledTaskStatusDone
				break
			}
			if ctx.Err() != nil {
				break
			}
		}
	}

	if err := r.db.WithContext(ctx).Model(&task).Updates(updates).Error; err != nil {
		log.Printf("[Task: %s] failed to update task row: %v", task.TaskName, err)
	}
}

func (r *Runner) attempt(ctx context.Context, handler TaskHandler, task models.ScheduledTask, attempt int) (map[string]interface{}, time.Time, error) {
	startTime := r.now()
	result, err := handler(ctx, task)
	runtimeMs := int(time.Since(startTime).Milliseconds())

	status := "success"
	resultData := result
	if err != nil {
		status = "failure"
		resultData = map[string]interface{}{"error": err.Error()}
		for k, v := range result {
			resultData[k] = v
		}
		log.Printf("[Task: %s] attempt %d failed: %v", task.TaskName, attempt, err)
	} else {
		log.Printf("[Task: %s] completed: %v", task.TaskName, result)
	}

	history := models.ScheduledTaskHistory{
		ScheduledTaskID: task.ID,
		TaskName:        task.TaskName,
		RunAt:           startTime,
		Runtime:         runtimeMs,
		Status:          status,
		AttemptNumber:   attempt,
		Arguments:       task.Arguments,
		Result:          resultData,
	}
	if err := r.db.WithContext(ctx).Create(&history).Error; err != nil {
		log.Printf("[Task: %s] failed to write history: %v", task.TaskName, err)
	}
	return result, startTime, err
}
