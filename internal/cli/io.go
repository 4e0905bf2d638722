package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/routined/internal/model"
	"github.com/sandeepkv93/routined/internal/routinesfile"
	"github.com/sandeepkv93/routined/internal/storage"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Add every routine from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	tasks, err := routinesfile.Load(args[0])
	if err != nil {
		return err
	}
	return withStore(func(ctx context.Context, repo storage.Repository) error {
		now := time.Now()
		for i, t := range tasks {
			// keep file order stable under created_at ordering
			if _, err := storage.AddTask(ctx, repo, t, now.Add(time.Duration(i)*time.Millisecond)); err != nil {
				return fmt.Errorf("import %q: %w", t.Title, err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d routine(s)\n", len(tasks))
		return nil
	})
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file.yaml]",
		Short: "Write every task as a routines YAML file (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExport,
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, repo storage.Repository) error {
		rows, err := repo.ListTasks(ctx, storage.TaskListFilter{})
		if err != nil {
			return err
		}
		// oldest first, so an export imports back in the same order
		tasks := make([]model.Task, 0, len(rows))
		for i := len(rows) - 1; i >= 0; i-- {
			tasks = append(tasks, rows[i].ToModel())
		}
		if len(args) == 0 {
			return routinesfile.Encode(cmd.OutOrStdout(), tasks)
		}
		if err := routinesfile.Save(args[0], tasks); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exported %d task(s) to %s\n", len(tasks), args[0])
		return nil
	})
}
