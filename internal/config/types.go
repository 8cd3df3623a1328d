package config

// Config is the root of robocmd.yaml (or .json).
type Config struct {
	Logging  LoggingConfig   `json:"logging"`
	Loop     LoopConfig      `json:"loop"`
	Robot    RobotConfig     `json:"robot"`
	Storage  *StorageConfig  `json:"storage,omitempty"`
	Debug    *DebugConfig    `json:"debug,omitempty"`
	Bindings []BindingConfig `json:"bindings,omitempty"`
}

type LoggingConfig struct {
	Level string `json:"level"`
	// Format is "console" (default) or "json" for stdout.
	Format  string      `json:"format,omitempty"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoopConfig controls the scheduler tick loop.
//
// Defaults (when fields are omitted/zero):
//   - period: "20ms"
//   - history_size: 64
//   - mailbox_size: 64
//   - overrun_warn_per_sec: 1
type LoopConfig struct {
	// Period is a Go duration string (e.g. "20ms").
	Period            string  `json:"period,omitempty"`
	HistorySize       int     `json:"history_size,omitempty"`
	MailboxSize       int     `json:"mailbox_size,omitempty"`
	OverrunWarnPerSec float64 `json:"overrun_warn_per_sec,omitempty"`
}

// RobotConfig holds the enable signal and subsystem tuning.
//
// Enabled is read on every tick: flipping it in the file enables or disables
// the robot without a restart.
type RobotConfig struct {
	Enabled bool          `json:"enabled"`
	Drive   DriveConfig   `json:"drive"`
	Shooter ShooterConfig `json:"shooter"`
}

type DriveConfig struct {
	// MaxSpeed is in meters per second at full output. Default 3.
	MaxSpeed float64 `json:"max_speed,omitempty"`
	// Forward and Turn are the default arcade drive outputs in [-1, 1].
	Forward float64 `json:"forward,omitempty"`
	Turn    float64 `json:"turn,omitempty"`
}

type ShooterConfig struct {
	// TargetRPS is the flywheel setpoint in rotations per second. Default 40.
	TargetRPS float64 `json:"target_rps,omitempty"`
	// ToleranceRPS is the band around the setpoint counted as at speed. Default 2.
	ToleranceRPS float64 `json:"tolerance_rps,omitempty"`
}

// StorageConfig controls the lifecycle journal.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./data/journal.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// DebugConfig controls the operator HTTP endpoint (status, journal, pprof).
//
// Addr defaults to 127.0.0.1:6060. Binding a non-loopback address requires
// Token unless AllowInsecure is set.
type DebugConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"`
	Token         string `json:"token,omitempty"`
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
}

// Binding sources.
const (
	OnEnable  = "enable"
	OnDisable = "disable"
	OnCron    = "cron"
)

// Binding actions.
const (
	ActionSchedule = "schedule"
	ActionCancel   = "cancel"
	ActionToggle   = "toggle"
	ActionWhile    = "while"
)

// BindingConfig ties a catalog command to a trigger.
//
// Example:
//
//	bindings:
//	  - { command: shoot, on: cron, spec: "@every 15s" }
//	  - { command: release_hatch, on: disable }
type BindingConfig struct {
	Command string `json:"command"`
	On      string `json:"on"`
	// Spec is the cron spec when On is "cron".
	Spec string `json:"spec,omitempty"`
	// Action defaults to "schedule".
	Action string `json:"action,omitempty"`
	// Interruptible defaults to true.
	Interruptible *bool `json:"interruptible,omitempty"`
}

func (b BindingConfig) IsInterruptible() bool {
	return b.Interruptible == nil || *b.Interruptible
}

func (b BindingConfig) ActionOrDefault() string {
	if b.Action == "" {
		return ActionSchedule
	}
	return b.Action
}
