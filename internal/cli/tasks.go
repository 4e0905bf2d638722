package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/routined/internal/alarm"
	"github.com/sandeepkv93/routined/internal/commands"
	"github.com/sandeepkv93/routined/internal/model"
	"github.com/sandeepkv93/routined/internal/storage"
)

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title> @HH:MM [days:Mon,Wed] [cat:morning] [-- description]",
		Short: "Add a routine task with an alarm",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := commands.Parse("add " + rejoinArgs(cmd, args))
			if err != nil {
				return err
			}
			a := parsed.Add
			return withStore(func(ctx context.Context, repo storage.Repository) error {
				task, err := storage.AddTask(ctx, repo, model.Task{
					Title:        a.Title,
					Description:  a.Description,
					Category:     a.Category,
					AlarmEnabled: true,
					AlarmTime:    a.AlarmTime,
					RepeatDays:   a.RepeatDays,
				}, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s %q at %s\n", shortID(task.ID), task.Title, task.AlarmTime)
				return nil
			})
		},
	}
}

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> [title] [@HH:MM] [days:Mon,Wed] [cat:morning] [-- description]",
		Short: "Change a task; fields left out keep their value",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := commands.Parse("edit " + rejoinArgs(cmd, args))
			if err != nil {
				return err
			}
			e := parsed.Edit
			return withStore(func(ctx context.Context, repo storage.Repository) error {
				task, err := findTask(ctx, repo, e.Target)
				if err != nil {
					return err
				}
				edited, err := storage.EditTask(ctx, repo, task.ID, e.Apply)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s %q at %s\n", shortID(edited.ID), edited.Title, edited.AlarmTime)
				return nil
			})
		},
	}
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			category, _ := cmd.Flags().GetString("category")
			pending, _ := cmd.Flags().GetBool("pending")
			filter := storage.TaskListFilter{Category: category}
			if pending {
				done := false
				filter.Completed = &done
			}
			return withStore(func(ctx context.Context, repo storage.Repository) error {
				rows, err := repo.ListTasks(ctx, filter)
				if err != nil {
					return err
				}
				stats, err := repo.Stats(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTaskTable(rows, time.Now()))
				fmt.Fprintf(cmd.OutOrStdout(), "pending: %d  completed: %d  active alarms: %d\n", stats.Pending, stats.Completed, stats.ActiveAlarms)
				return nil
			})
		},
	}
	cmd.Flags().String("category", "", "only show one category")
	cmd.Flags().Bool("pending", false, "hide completed tasks")
	return cmd
}

func newCompleteCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a task completed (use --undo to reopen)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, repo storage.Repository) error {
				task, err := findTask(ctx, repo, args[0])
				if err != nil {
					return err
				}
				if err := repo.SetCompleted(ctx, task.ID, !undo, time.Now()); err != nil {
					return err
				}
				verb := "completed"
				if undo {
					verb = "reopened"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %q\n", verb, task.Title)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "reopen instead of complete")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, repo storage.Repository) error {
				task, err := findTask(ctx, repo, args[0])
				if err != nil {
					return err
				}
				if err := repo.DeleteTask(ctx, task.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %q\n", task.Title)
				return nil
			})
		},
	}
}

// rejoinArgs rebuilds the palette line. cobra strips "--", so it is put back
// in front of the description.
func rejoinArgs(cmd *cobra.Command, args []string) string {
	n := cmd.ArgsLenAtDash()
	if n < 0 || n > len(args) {
		return strings.Join(args, " ")
	}
	return strings.Join(args[:n], " ") + " -- " + strings.Join(args[n:], " ")
}

func withStore(fn func(ctx context.Context, repo storage.Repository) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()
	return fn(context.Background(), repo)
}

// findTask resolves a full id or a unique id prefix.
func findTask(ctx context.Context, repo storage.Repository, target string) (storage.Task, error) {
	if task, err := repo.GetTask(ctx, target); err == nil {
		return task, nil
	}
	rows, err := repo.ListTasks(ctx, storage.TaskListFilter{})
	if err != nil {
		return storage.Task{}, err
	}
	var found []storage.Task
	for _, row := range rows {
		if strings.HasPrefix(row.ID, target) {
			found = append(found, row)
		}
	}
	switch len(found) {
	case 0:
		return storage.Task{}, fmt.Errorf("%w: %s", storage.ErrNotFound, target)
	case 1:
		return found[0], nil
	default:
		return storage.Task{}, fmt.Errorf("%q matches %d tasks", target, len(found))
	}
}

func renderTaskTable(rows []storage.Task, now time.Time) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "DONE", "TITLE", "CATEGORY", "ALARM", "DAYS", "NEXT")
	for _, row := range rows {
		task := row.ToModel()
		done := ""
		if task.IsCompleted {
			done = "x"
		}
		alarmCol := task.AlarmTime
		if !task.AlarmEnabled {
			alarmCol += " (off)"
		}
		days := task.RepeatDays.String()
		if days == "" {
			days = "daily"
		}
		next := "-"
		if at, err := alarm.NextFire(task, now); err == nil {
			next = at.Format("Mon 15:04")
		}
		t.Row(shortID(task.ID), done, task.Title, string(task.Category), alarmCol, days, next)
	}
	return t.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
