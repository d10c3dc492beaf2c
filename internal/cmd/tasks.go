package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"yourday/internal/client"
	"yourday/internal/model"
)

var (
	apiBaseURL string
	apiToken   string

	listFrom     string
	listTo       string
	listCategory string

	newTask model.TaskDraft
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Work with your schedule through the HTTP API",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks ordered by start time",
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

var tasksCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a task; fails when it overlaps an existing one",
	Args:  cobra.NoArgs,
	RunE:  runTasksCreate,
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete <taskId>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDelete,
}

func init() {
	tasksCmd.PersistentFlags().StringVar(&apiBaseURL, "api", "", "API base URL (defaults to API_BASE_URL)")
	tasksCmd.PersistentFlags().StringVar(&apiToken, "token", "", "bearer token (defaults to API_TOKEN)")

	tasksListCmd.Flags().StringVar(&listFrom, "from", "", "only tasks starting at or after this time")
	tasksListCmd.Flags().StringVar(&listTo, "to", "", "only tasks starting at or before this time")
	tasksListCmd.Flags().StringVar(&listCategory, "category", "", "only tasks of this category")

	tasksCreateCmd.Flags().StringVar(&newTask.Title, "title", "", "task title")
	tasksCreateCmd.Flags().StringVar(&newTask.StartTime, "start", "", "start time, ISO-8601")
	tasksCreateCmd.Flags().StringVar(&newTask.EndTime, "end", "", "end time, ISO-8601")
	tasksCreateCmd.Flags().StringVar(&newTask.Category, "category", "", "meeting, personal, other, weekend or cooking")
	tasksCreateCmd.Flags().StringVar(&newTask.Description, "description", "", "free text")
	tasksCreateCmd.Flags().StringVar(&newTask.Notes, "notes", "", "free text")
	tasksCreateCmd.Flags().StringVar(&newTask.Reminder, "reminder", "", "reminder time, ISO-8601")
	_ = tasksCreateCmd.MarkFlagRequired("title")
	_ = tasksCreateCmd.MarkFlagRequired("start")
	_ = tasksCreateCmd.MarkFlagRequired("end")

	tasksCmd.AddCommand(tasksListCmd, tasksCreateCmd, tasksDeleteCmd)
	rootCmd.AddCommand(tasksCmd)
}

func apiClient() (*client.Client, error) {
	base := apiBaseURL
	if base == "" {
		base = cfg.APIBaseURL
	}
	token := apiToken
	if token == "" {
		token = cfg.APIToken
	}
	if token == "" {
		return nil, errors.New("no token: pass --token or set API_TOKEN (see `yourday token`)")
	}
	return client.New(base, token, nil), nil
}

func runTasksList(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}

	var opts client.ListOptions
	if listFrom != "" {
		if opts.StartDate, err = model.ParseTimestamp("from", listFrom); err != nil {
			return err
		}
	}
	if listTo != "" {
		if opts.EndDate, err = model.ParseTimestamp("to", listTo); err != nil {
			return err
		}
	}
	if listCategory != "" {
		if opts.Category, err = model.ParseCategory(listCategory); err != nil {
			return err
		}
	}

	tasks, err := c.ListTasks(cmd.Context(), opts)
	if err != nil {
		return err
	}
	printTasks(cmd.OutOrStdout(), tasks)
	return nil
}

func runTasksCreate(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}

	task, err := c.CreateTask(cmd.Context(), newTask)
	if err != nil {
		var conflict *model.ConflictError
		if errors.As(err, &conflict) {
			return fmt.Errorf("overlaps %q (%s, %s to %s)", conflict.BlockingTitle, conflict.BlockingTaskID,
				conflict.BlockingStart.Local().Format(time.DateTime), conflict.BlockingEnd.Local().Format(time.DateTime))
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", task.ID)
	return nil
}

func runTasksDelete(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	if err := c.DeleteTask(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}

func printTasks(w io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks")
		return
	}
	for _, t := range tasks {
		fmt.Fprintf(w, "%s  %s - %s  %-8s  %s\n",
			t.ID,
			t.StartTime.Local().Format("2006-01-02 15:04"),
			t.EndTime.Local().Format("15:04"),
			t.Category,
			t.Title)
	}
}
