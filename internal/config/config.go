package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/splashwatch/internal/insider"
)

// Config is the splashwatch runtime configuration.
type Config struct {
	JamfLog      string
	MunkiLog     string
	DisableJamf  bool
	DisableMunki bool
	PollInterval time.Duration
	JournalPath  string // SQLite history; empty disables it
	EventLog     string // JSON-lines stream; empty disables it
	LogLevel     string
	LogFile      string
}

const (
	defaultConfigPath   = "~/.config/splashwatch/config.toml"
	defaultJournalPath  = "~/.local/share/splashwatch/journal.db"
	defaultLogFile      = "~/.local/share/splashwatch/splashwatch.log"
	defaultPollInterval = time.Second
	defaultLogLevel     = "info"

	// Environment overrides for the log paths, mainly for test harnesses.
	EnvJamfLog  = "SPLASHWATCH_JAMF_LOG"
	EnvMunkiLog = "SPLASHWATCH_MUNKI_LOG"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		JamfLog:      insider.DefaultJamfLogPath,
		MunkiLog:     insider.DefaultMunkiLogPath,
		PollInterval: defaultPollInterval,
		JournalPath:  mustExpand(defaultJournalPath),
		LogLevel:     defaultLogLevel,
		LogFile:      mustExpand(defaultLogFile),
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		JamfLog      string  `toml:"jamf_log"`
		MunkiLog     string  `toml:"munki_log"`
		DisableJamf  bool    `toml:"disable_jamf"`
		DisableMunki bool    `toml:"disable_munki"`
		PollInterval string  `toml:"poll_interval"`
		JournalPath  *string `toml:"journal_path"`
		EventLog     string  `toml:"event_log"`
		LogLevel     string  `toml:"log_level"`
		LogFile      *string `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.JamfLog); v != "" {
		cfg.JamfLog = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.MunkiLog); v != "" {
		cfg.MunkiLog = mustExpand(v)
	}
	cfg.DisableJamf = raw.DisableJamf
	cfg.DisableMunki = raw.DisableMunki

	if v := strings.TrimSpace(raw.PollInterval); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: poll_interval: %w", err)
		}
		if interval <= 0 {
			return Config{}, fmt.Errorf("parse config: poll_interval must be positive, got %s", v)
		}
		cfg.PollInterval = interval
	}

	// An explicit empty journal_path or log_file turns the feature off.
	if raw.JournalPath != nil {
		cfg.JournalPath = expandOptional(*raw.JournalPath)
	}
	if raw.LogFile != nil {
		cfg.LogFile = expandOptional(*raw.LogFile)
	}
	cfg.EventLog = expandOptional(raw.EventLog)

	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvJamfLog)); v != "" {
		cfg.JamfLog = mustExpand(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvMunkiLog)); v != "" {
		cfg.MunkiLog = mustExpand(v)
	}
}

func expandOptional(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	return mustExpand(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
