package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/five82/splashwatch/internal/config"
	"github.com/five82/splashwatch/internal/journal"
	"github.com/five82/splashwatch/internal/logging"
	"github.com/five82/splashwatch/internal/prefs"
	"github.com/five82/splashwatch/internal/ui"
)

// ErrJournalDisabled is returned by History when journal_path is empty.
var ErrJournalDisabled = errors.New("history journal is disabled (journal_path is empty)")

// Options configure a splashwatch run.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/splashwatch/prefs.toml
	PollEvery  int    // seconds; zero uses the config value
	LogLevel   string // empty uses the config value
	Headless   bool
	Out        io.Writer // scan and history output; nil writes to stdout
}

func (o Options) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}
	if v := strings.TrimSpace(opts.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	return cfg, nil
}

// Run watches the deployment logs until ctx is cancelled or the user leaves
// the splash screen. Headless runs log each change to stderr instead of
// drawing the TUI.
func Run(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logOpts := logging.Options{Level: cfg.LogLevel}
	switch {
	case opts.Headless:
		logOpts.Output = os.Stderr
	case cfg.LogFile != "":
		logOpts.OutputFile = cfg.LogFile
	default:
		// The TUI owns the terminal.
		logOpts.Output = io.Discard
	}
	logger, closeLog, err := logging.New(logOpts)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()
	appLog := logging.For(logger, logging.CategoryApp)

	p, err := newPipeline(cfg, logger, openJournal(cfg, logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := p.close(); err != nil {
			appLog.Warn("shutdown", zap.Error(err))
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	wait := p.start(runCtx)
	appLog.Info("splashwatch started",
		zap.Int("sources", len(p.drivers)),
		zap.Duration("poll", cfg.PollInterval),
		zap.Bool("headless", opts.Headless))

	if opts.Headless {
		watchCompletion(runCtx, p.store, logger)
		cancel()
		wait()
		return nil
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	logPaths := make(map[string]string, len(p.drivers))
	for _, prov := range providers(cfg) {
		logPaths[prov.Name()] = prov.LogPath()
	}

	continued, uiErr := ui.Run(ui.Options{
		Context:   runCtx,
		Store:     p.store,
		PollTick:  ui.DefaultUIInterval,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		LogPaths:  logPaths,
		Logger:    logger,
	})
	cancel()
	wait()
	if uiErr != nil {
		return fmt.Errorf("run ui: %w", uiErr)
	}
	if continued {
		appLog.Info("splash dismissed after completion")
	}
	return nil
}

// Scan classifies what the deployment logs already contain and prints the
// resulting registry.
func Scan(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.New(logging.Options{Level: cfg.LogLevel, Output: os.Stderr})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()

	p, err := newPipeline(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer p.close()

	p.scan(ctx)
	out := opts.out()
	_, err = io.WriteString(out, renderSnapshot(p.store.Snapshot(), colorEnabled(out)))
	return err
}

// History prints the most recent journaled transitions, newest first.
func History(ctx context.Context, opts Options, limit int) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if cfg.JournalPath == "" {
		return ErrJournalDisabled
	}
	if _, err := os.Stat(cfg.JournalPath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no journal at %s yet; run splashwatch first", cfg.JournalPath)
	}

	db, err := journal.OpenSQLite(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.Recent(ctx, limit)
	if err != nil {
		return err
	}
	out := opts.out()
	_, err = io.WriteString(out, renderHistory(entries, colorEnabled(out)))
	return err
}
