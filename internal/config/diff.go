package config

import (
	"reflect"
	"sort"
	"strings"

	"robocmd/pkg/logx"
)

// SummarizeConfigChange returns the sorted list of changed sections and
// structured fields describing the new values, for a single reload log line.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 12)

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.String("logging.format", newCfg.Logging.Format),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if strings.TrimSpace(oldCfg.Loop.Period) != strings.TrimSpace(newCfg.Loop.Period) ||
		oldCfg.Loop.HistorySize != newCfg.Loop.HistorySize ||
		oldCfg.Loop.MailboxSize != newCfg.Loop.MailboxSize ||
		oldCfg.Loop.OverrunWarnPerSec != newCfg.Loop.OverrunWarnPerSec {
		changed = append(changed, "loop")
		attrs = append(attrs,
			logx.String("loop.period", strings.TrimSpace(newCfg.Loop.Period)),
			logx.Int("loop.history_size", newCfg.Loop.HistorySize),
			logx.Int("loop.mailbox_size", newCfg.Loop.MailboxSize),
		)
	}

	if oldCfg.Robot != newCfg.Robot {
		changed = append(changed, "robot")
		attrs = append(attrs,
			logx.Bool("robot.enabled", newCfg.Robot.Enabled),
			logx.Bool("robot.enabled_changed", oldCfg.Robot.Enabled != newCfg.Robot.Enabled),
			logx.Bool("robot.tuning_changed", oldCfg.Robot.Drive != newCfg.Robot.Drive || oldCfg.Robot.Shooter != newCfg.Robot.Shooter),
		)
	}

	// Nil means disabled.
	var oS, nS StorageConfig
	if oldCfg.Storage != nil {
		oS = *oldCfg.Storage
	}
	if newCfg.Storage != nil {
		nS = *newCfg.Storage
	}
	if strings.TrimSpace(oS.Driver) != strings.TrimSpace(nS.Driver) ||
		strings.TrimSpace(oS.Path) != strings.TrimSpace(nS.Path) ||
		strings.TrimSpace(oS.BusyTimeout) != strings.TrimSpace(nS.BusyTimeout) {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", strings.TrimSpace(nS.Driver)),
			logx.Bool("storage.path_set", strings.TrimSpace(nS.Path) != ""),
		)
	}

	var oD, nD DebugConfig
	if oldCfg.Debug != nil {
		oD = *oldCfg.Debug
	}
	if newCfg.Debug != nil {
		nD = *newCfg.Debug
	}
	if oD != nD {
		changed = append(changed, "debug")
		attrs = append(attrs,
			logx.Bool("debug.enabled", nD.Enabled),
			logx.String("debug.addr", nD.Addr),
			logx.Bool("debug.token_set", nD.Token != ""),
		)
	}

	if !reflect.DeepEqual(normalizeBindings(oldCfg.Bindings), normalizeBindings(newCfg.Bindings)) {
		changed = append(changed, "bindings")
		attrs = append(attrs, logx.Int("bindings.count", len(newCfg.Bindings)))
	}

	sort.Strings(changed)
	return changed, attrs
}

// normalizeBindings resolves defaults so that an omitted field and its default
// value compare equal.
func normalizeBindings(in []BindingConfig) []BindingConfig {
	out := make([]BindingConfig, 0, len(in))
	for _, b := range in {
		interruptible := b.IsInterruptible()
		out = append(out, BindingConfig{
			Command:       strings.TrimSpace(b.Command),
			On:            b.On,
			Spec:          strings.TrimSpace(b.Spec),
			Action:        b.ActionOrDefault(),
			Interruptible: &interruptible,
		})
	}
	return out
}
