package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the structure of cfg. Command names and cron specs are
// checked by the app, which owns the command catalog.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error
	if _, err := LoopPeriod(cfg); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Format)) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", cfg.Logging.Format))
	}
	if cfg.Loop.HistorySize < 0 {
		errs = append(errs, errors.New("loop.history_size must be >= 0"))
	}
	if cfg.Loop.MailboxSize < 0 {
		errs = append(errs, errors.New("loop.mailbox_size must be >= 0"))
	}
	if cfg.Loop.OverrunWarnPerSec < 0 {
		errs = append(errs, errors.New("loop.overrun_warn_per_sec must be >= 0"))
	}
	if cfg.Storage != nil {
		switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
		case "", "none":
		case "file", "jsonl", "sqlite", "sqlite3":
			if strings.TrimSpace(cfg.Storage.Path) == "" {
				errs = append(errs, errors.New("storage.path is required"))
			}
		default:
			errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver))
		}
		if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	for i, b := range cfg.Bindings {
		path := fmt.Sprintf("bindings[%d]", i)
		if strings.TrimSpace(b.Command) == "" {
			errs = append(errs, fmt.Errorf("%s.command is required", path))
		}
		switch b.On {
		case OnEnable, OnDisable:
			if b.Spec != "" {
				errs = append(errs, fmt.Errorf("%s.spec is only valid with on: cron", path))
			}
		case OnCron:
			if strings.TrimSpace(b.Spec) == "" {
				errs = append(errs, fmt.Errorf("%s.spec is required with on: cron", path))
			}
		default:
			errs = append(errs, fmt.Errorf("%s.on: unknown source %q", path, b.On))
		}
		switch b.ActionOrDefault() {
		case ActionSchedule, ActionCancel, ActionToggle, ActionWhile:
		default:
			errs = append(errs, fmt.Errorf("%s.action: unknown action %q", path, b.Action))
		}
	}
	return errors.Join(errs...)
}
