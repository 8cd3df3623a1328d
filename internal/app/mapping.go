package app

import (
	"fmt"
	"strings"
	"time"

	"robocmd/internal/config"
	"robocmd/internal/observability/debughttp"
	"robocmd/internal/robot"
	"robocmd/internal/scheduler"
	"robocmd/internal/storage"
	"robocmd/pkg/logx"
)

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapServiceConfig(cfg *config.Config) (scheduler.ServiceConfig, error) {
	period, err := config.LoopPeriod(cfg)
	if err != nil {
		return scheduler.ServiceConfig{}, err
	}
	return scheduler.ServiceConfig{
		Period:            period,
		MailboxSize:       cfg.Loop.MailboxSize,
		OverrunWarnPerSec: cfg.Loop.OverrunWarnPerSec,
		Scheduler:         scheduler.Config{HistorySize: cfg.Loop.HistorySize},
	}, nil
}

func mapTuning(cfg *config.Config) robot.Tuning {
	return robot.Tuning{
		MaxSpeed:     cfg.Robot.Drive.MaxSpeed,
		Forward:      cfg.Robot.Drive.Forward,
		Turn:         cfg.Robot.Drive.Turn,
		TargetRPS:    cfg.Robot.Shooter.TargetRPS,
		ToleranceRPS: cfg.Robot.Shooter.ToleranceRPS,
	}
}

// MapStorageConfig returns the storage config and whether storage is enabled.
func MapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver, err := storage.ParseDriver(sc.Driver)
	if err != nil || driver == "" {
		return storage.Config{}, false, err
	}
	path := strings.TrimSpace(sc.Path)
	if path == "" {
		return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=%s", driver)
	}
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
	if err != nil {
		return storage.Config{}, false, err
	}
	return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
}

func mapDebugConfig(cfg *config.Config) debughttp.Config {
	if cfg == nil || cfg.Debug == nil {
		return debughttp.Config{}
	}
	d := cfg.Debug
	return debughttp.Config{
		Enabled:       d.Enabled,
		Addr:          strings.TrimSpace(d.Addr),
		Token:         strings.TrimSpace(d.Token),
		AllowInsecure: d.AllowInsecure,
	}
}
