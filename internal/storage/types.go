package storage

import (
	"errors"
	"time"
)

// ErrDisabled is returned by journal reads when no store is configured.
var ErrDisabled = errors.New("storage disabled")

// Config selects a journal backend. See ParseDriver for accepted names.
type Config struct {
	Driver string
	Path   string
	// BusyTimeout applies to sqlite only; 0 means 5s.
	BusyTimeout time.Duration
}

// LifecycleEntry is one journaled scheduler event: an initialize, finish,
// interrupt or rejection of a command episode. Tick is the scheduler tick the
// event happened on; Ticks and TookMS describe the episode when it ended.
type LifecycleEntry struct {
	At            time.Time `json:"at"`
	Type          string    `json:"type"`
	Episode       string    `json:"episode,omitempty"`
	Command       string    `json:"command"`
	Interruptible bool      `json:"interruptible"`
	Requirements  []string  `json:"requirements,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	By            string    `json:"by,omitempty"`
	Tick          uint64    `json:"tick"`
	Ticks         uint64    `json:"ticks,omitempty"`
	TookMS        int64     `json:"took_ms,omitempty"`
}
