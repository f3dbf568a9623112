package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"wifisub_app/internal/app"
	"wifisub_app/internal/config"
	"wifisub_app/internal/models"
	"wifisub_app/internal/services"
	"wifisub_app/internal/tasks"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jobctl",
		Short: "Operate the scheduled jobs of the WiFi subscription backend",
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd(openAccounts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [task]",
		Short: "Run a task now, outside the schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, config.Load())
			if err != nil {
				return err
			}
			runner := tasks.NewRunner(a.DB, a.Tasks(), a.Config.WorkerPollInterval)
			result, err := runner.RunNow(ctx, args[0], map[string]interface{}{"source": "jobctl"})
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func scheduleCmd() *cobra.Command {
	var (
		at         string
		argsJSON   string
		rrule      string
		maxAttempt int
	)
	cmd := &cobra.Command{
		Use:   "schedule [task]",
		Short: "Schedule a one-time or recurring task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := parseDue(at, time.Now())
			if err != nil {
				return err
			}
			var taskArgs map[string]interface{}
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &taskArgs); err != nil {
					return fmt.Errorf("invalid JSON arguments: %w", err)
				}
			}

			taskType := models.ScheduledTaskTypeOneTime
			var rule *string
			if rrule != "" {
				taskType = models.ScheduledTaskTypeRecurring
				rule = &rrule
			}
			task, err := tasks.BuildScheduledTask(args[0], taskArgs, due, rule, taskType, maxAttempt)
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), config.Load())
			if err != nil {
				return err
			}
			if _, ok := a.Tasks().Get(task.TaskName); !ok {
				return fmt.Errorf("unknown task %q", task.TaskName)
			}
			if err := a.DB.WithContext(cmd.Context()).Create(task).Error; err != nil {
				return fmt.Errorf("failed to create task: %w", err)
			}

			fmt.Printf("Created task ID %d\nTask: %s\nDue: %s\nType: %s\n", task.ID, task.TaskName, task.Due.Format(time.RFC3339), task.TaskType)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Due time, RFC3339 or '2006-01-02 15:04' local (default now)")
	cmd.Flags().StringVar(&argsJSON, "arguments", "", "JSON arguments passed to the task")
	cmd.Flags().StringVar(&rrule, "rrule", "", "Recurrence rule; makes the task recurring")
	cmd.Flags().IntVar(&maxAttempt, "max-attempt", tasks.DefaultMaxAttempt, "Attempts before a one-time task fails")
	return cmd
}

func tokenCmd() *cobra.Command {
	var role, name, email string
	cmd := &cobra.Command{
		Use:   "token [userID]",
		Short: "Issue a signed API token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			jwtSvc, err := services.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
			if err != nil {
				return err
			}
			token, err := jwtSvc.IssueFor(models.User{ID: args[0], Role: models.UserRole(role), Name: name, Email: email})
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(models.UserRoleUser), "Role claim (user or admin)")
	cmd.Flags().StringVar(&name, "name", "", "Name claim used when the user is registered on first request")
	cmd.Flags().StringVar(&email, "email", "", "Email claim; required for an id that has no account yet")
	return cmd
}

func openAccounts(ctx context.Context) (*services.AccountService, error) {
	a, err := app.New(ctx, config.Load())
	if err != nil {
		return nil, err
	}
	return services.NewAccountService(a.Users), nil
}

func userCmd(open func(ctx context.Context) (*services.AccountService, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var in services.NewAccount
	var role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register an account, e.g. the first admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := open(cmd.Context())
			if err != nil {
				return err
			}
			in.Role = models.UserRole(role)
			user, err := accounts.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(user)
		},
	}
	create.Flags().StringVar(&in.ID, "id", "", "Account id; use the Firebase UID when AUTH_PROVIDER=firebase (default generated)")
	create.Flags().StringVar(&in.Name, "name", "", "Display name")
	create.Flags().StringVar(&in.Email, "email", "", "Email address")
	create.Flags().StringVar(&in.Phone, "phone", "", "Phone number")
	create.Flags().StringVar(&role, "role", string(models.UserRoleUser), "Role (user or admin)")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL not set")
			}
			db, err := services.InitDB(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			return services.AutoMigrate(db)
		},
	}
}

// parseDue accepts RFC3339 or "2006-01-02 15:04" in local time; empty means now
func parseDue(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return now, nil
	}
	if due, err := time.Parse(time.RFC3339, raw); err == nil {
		return due, nil
	}
	due, err := time.ParseInLocation("2006-01-02 15:04", raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due time %q, use RFC3339 or '2006-01-02 15:04'", raw)
	}
	return due, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
