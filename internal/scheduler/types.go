package scheduler

import (
	"errors"
	"time"
)

var (
	ErrStopped                   = errors.New("scheduler service stopped")
	ErrQueueFull                 = errors.New("scheduler mailbox full")
	ErrDefaultMissingRequirement = errors.New("default command must require its subsystem")
	ErrGrouped                   = errors.New("command belongs to a composite")
)

// Config controls the core scheduler.
type Config struct {
	// HistorySize bounds the list of recently ended episodes kept for Snapshot.
	// 0 applies the default (64); negative disables history.
	HistorySize int
}

func (c Config) withDefaults() Config {
	if c.HistorySize == 0 {
		c.HistorySize = 64
	}
	if c.HistorySize < 0 {
		c.HistorySize = 0
	}
	return c
}

// EnableSource reports whether the hosting system currently permits commands
// that are not disabled-safe. It is polled at the start of every Run and on
// every schedule request for a command that is not disabled-safe.
type EnableSource interface {
	Enabled() bool
}

// EnableFunc adapts a function to EnableSource.
type EnableFunc func() bool

func (f EnableFunc) Enabled() bool { return f() }

type alwaysEnabled struct{}

func (alwaysEnabled) Enabled() bool { return true }

// Lifecycle event types published on the bus.
const (
	EventInitialize = "command.initialize"
	EventFinish     = "command.finish"
	EventInterrupt  = "command.interrupt"
	EventReject     = "command.reject"
)

// Reasons attached to interrupt and reject events.
const (
	ReasonCancel    = "cancel"
	ReasonDisplaced = "displaced"
	ReasonDisabled  = "disabled"
	ReasonConflict  = "conflict"
	ReasonGrouped   = "grouped"
)

// LifecycleEvent is the Data payload of every bus event published by the scheduler.
type LifecycleEvent struct {
	Episode       string        `json:"episode,omitempty"`
	Command       string        `json:"command"`
	Interruptible bool          `json:"interruptible"`
	Requirements  []string      `json:"requirements,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	By            string        `json:"by,omitempty"` // displacing or vetoing command
	Tick          uint64        `json:"tick"`
	Ticks         uint64        `json:"ticks,omitempty"` // ticks spent running
	Duration      time.Duration `json:"duration,omitempty"`
}

// RunningInfo describes one scheduled command.
type RunningInfo struct {
	Episode       string
	Name          string
	Interruptible bool
	Requirements  []string
	Started       time.Time
	Ticks         uint64
}

// HistoryItem describes one ended scheduling episode.
type HistoryItem struct {
	Episode     string
	Name        string
	Started     time.Time
	Duration    time.Duration
	Ticks       uint64
	Interrupted bool
	Reason      string
}

// Snapshot is a point-in-time view for diagnostics.
type Snapshot struct {
	Tick         uint64
	Enabled      bool
	LastTick     time.Duration
	Running      []RunningInfo
	Subsystems   []string
	History      []HistoryItem
	Resets       uint64 // set by Service
	DroppedTasks uint64 // set by Service
}
