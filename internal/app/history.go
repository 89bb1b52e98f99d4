package app

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/wizzomafizzo/rdaconv/internal/config"
	"github.com/wizzomafizzo/rdaconv/internal/journal"
)

// History prints the most recent journaled runs with their failures.
func (a *App) History(ctx context.Context, limit int) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	dbManager, err := a.openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = dbManager.Close() }()

	j := journal.New(dbManager.DB())
	runs, err := j.Runs(ctx, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		_, _ = fmt.Fprintln(a.out, "No conversion runs recorded")
		return nil
	}

	for _, run := range runs {
		status := color.GreenString("ok")
		switch {
		case run.Finished.IsZero():
			status = color.YellowString("unfinished")
		case run.Failed > 0:
			status = color.RedString("%d failed", run.Failed)
		}

		_, _ = fmt.Fprintf(a.out, "#%d %s %s -> %s (%s) %d/%d converted %s\n",
			run.ID, run.Started.Format(time.DateTime), run.Input, run.Output,
			run.Format, run.Converted, run.Total, status)

		if run.Failed == 0 {
			continue
		}
		failures, err := j.Failures(ctx, run.ID)
		if err != nil {
			return err
		}
		for _, failure := range failures {
			_, _ = fmt.Fprintf(a.out, "    record %d: %s: %s\n", failure.Index, failure.Class, failure.Message)
		}
	}
	return nil
}

func (a *App) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(a.fs, a.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", a.configPath, err)
	}
	return cfg, nil
}
