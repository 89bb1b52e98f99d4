// Package app wires configuration, logging, the run journal and metrics
// around the batch converter for the rdaconv commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/wizzomafizzo/rdaconv/internal/batch"
	"github.com/wizzomafizzo/rdaconv/internal/config"
	"github.com/wizzomafizzo/rdaconv/internal/constants"
	"github.com/wizzomafizzo/rdaconv/internal/database"
	"github.com/wizzomafizzo/rdaconv/internal/journal"
	"github.com/wizzomafizzo/rdaconv/internal/logging"
	"github.com/wizzomafizzo/rdaconv/internal/metrics"
	"github.com/wizzomafizzo/rdaconv/internal/prompt"
	"github.com/wizzomafizzo/rdaconv/internal/storage"
)

var (
	ErrOutputExists = errors.New("output file exists")
	ErrConfigExists = errors.New("config file already exists")
	ErrSamePath     = errors.New("input and output must be different files")
)

// Options contains configuration options for creating an App
type Options struct {
	FS  afero.Fs
	Out io.Writer
	// LogWriter replaces the rotated error log file when set.
	LogWriter io.Writer
	// Prompter answers overwrite confirmations. Nil uses the terminal.
	Prompter   prompt.Prompter
	ConfigPath string
}

type App struct {
	fs         afero.Fs
	out        io.Writer
	logWriter  io.Writer
	prompter   prompt.Prompter
	configPath string
}

func New(opts Options) *App {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = constants.ConfigFilename
	}
	return &App{
		fs:         opts.FS,
		out:        opts.Out,
		logWriter:  opts.LogWriter,
		prompter:   opts.Prompter,
		configPath: opts.ConfigPath,
	}
}

// ConvertRequest holds per-invocation overrides of the conversion config.
type ConvertRequest struct {
	Input   string
	Output  string
	Format  string
	Workers int
	Yes     bool
}

// Convert runs a batch conversion and prints a summary.
func (a *App) Convert(ctx context.Context, req ConvertRequest) (*batch.Result, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if req.Format != "" {
		cfg.Conversion.Format = req.Format
	}
	if req.Workers > 0 {
		cfg.Conversion.Workers = req.Workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	if filepath.Clean(req.Input) == filepath.Clean(req.Output) {
		return nil, ErrSamePath
	}
	if err := a.confirmOverwrite(req.Output, req.Yes); err != nil {
		return nil, err
	}

	ctx, err = a.newLogger(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := cfg.BatchOptions()
	if cfg.Conversion.Progress {
		opts.Progress = a.out
	}

	if cfg.Journal.Enabled {
		dbManager, err := a.openJournal(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer func() { _ = dbManager.Close() }()
		opts.Journal = journal.New(dbManager.DB())
	}

	if cfg.Metrics.Textfile != "" {
		opts.Metrics = metrics.New()
	}

	result, runErr := batch.New(a.fs, opts).Run(ctx, req.Input, req.Output)

	if opts.Metrics != nil {
		if err := opts.Metrics.WriteTextfile(a.fs, cfg.Metrics.Textfile); err != nil {
			logging.Get(ctx).Warn().Err(err).Msg("failed to export metrics")
		}
	}

	if runErr != nil {
		return result, fmt.Errorf("conversion failed: %w", runErr)
	}

	a.printSummary(result)
	return result, nil
}

func (a *App) confirmOverwrite(path string, yes bool) error {
	exists, err := afero.Exists(a.fs, path)
	if err != nil {
		return fmt.Errorf("failed to check output %s: %w", path, err)
	}
	if !exists || yes {
		return nil
	}

	prompter := a.prompter
	if prompter == nil {
		prompter = prompt.NewLinerPrompter()
		defer func() { _ = prompter.Close() }()
	}

	ok, err := prompt.ConfirmWithPrompter(prompter, fmt.Sprintf("Overwrite %s?", path))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrOutputExists, path)
	}
	return nil
}

func (a *App) newLogger(ctx context.Context, cfg *config.Config) (context.Context, error) {
	ctx, err := logging.New(ctx, a.fs, logging.Config{
		Writer:     a.logWriter,
		Path:       cfg.Logging.Path,
		RunID:      strconv.FormatInt(time.Now().UnixNano(), 36),
		MaxSizeMB:  cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAge,
		Level:      logging.ParseLevel(cfg.Logging.Level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return ctx, nil
}

func (a *App) openJournal(ctx context.Context, cfg *config.Config) (*database.Manager, error) {
	path := cfg.Journal.Path
	switch {
	case path == "":
		var err error
		path, err = storage.New(a.fs).GetJournalPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get journal path: %w", err)
		}
	case path != database.MemoryDSN:
		if err := a.fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	dbManager, err := database.NewManager(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return dbManager, nil
}

func (a *App) printSummary(result *batch.Result) {
	failed := fmt.Sprintf("%d failed", result.Failed)
	if result.Failed > 0 {
		failed = color.RedString("%s", failed)
	}
	_, _ = fmt.Fprintf(a.out, "%s %d of %d records converted, %s\n",
		color.GreenString("Done:"), result.Converted, result.Total, failed)
}

// Validate checks the config file and reports the result.
func (a *App) Validate() (string, error) {
	if _, err := config.Load(a.fs, a.configPath); err != nil {
		return "", fmt.Errorf("failed to load config from %s: %w", a.configPath, err)
	}
	return "Configuration is valid", nil
}

// Init writes the default configuration to the config path.
func (a *App) Init(force bool) error {
	exists, err := afero.Exists(a.fs, a.configPath)
	if err != nil {
		return fmt.Errorf("failed to check config %s: %w", a.configPath, err)
	}
	if exists && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, a.configPath)
	}

	data, err := config.DefaultConfigYAML()
	if err != nil {
		return err
	}
	if err := afero.WriteFile(a.fs, a.configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	_, _ = fmt.Fprintf(a.out, "Created %s\n", a.configPath)
	return nil
}
