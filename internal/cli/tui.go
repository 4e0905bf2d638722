package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/routined/internal/alarm"
	"github.com/sandeepkv93/routined/internal/update"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive task list (default)",
		RunE:  runTUI,
	}
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logFile, err := openLogFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := buildLogger(cfg.LogLevel, logFile, "tui")

	repo, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var program *tea.Program
	onCompleteError := func(taskID string, err error) {
		if program != nil {
			program.Send(update.AppErrorMsg{Err: fmt.Errorf("could not complete %s: %w", taskID, err)})
		}
	}

	// the model rings the bell itself, inside a rendered frame
	eng, err := buildEngine(ctx, cfg, repo, logger, nil, alarm.WithCompleteErrorHandler(onCompleteError))
	if err != nil {
		return err
	}
	defer eng.close()

	model := update.NewModel(update.Options{
		Context:    ctx,
		Repo:       repo,
		Poller:     eng.poller,
		TimeFormat: cfg.TimeFormat,
		Logger:     logger,
		Sound:      cfg.SoundEnabled,
	})
	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if err := eng.poller.Start(ctx); err != nil {
		return err
	}
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("routined tui: %w", err)
	}
	return nil
}
