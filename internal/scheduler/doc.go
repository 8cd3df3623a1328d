// Package scheduler arbitrates subsystem ownership between commands and drives
// their lifecycle once per tick.
//
// Scheduler is the single-threaded core: every Initialize/Execute/IsFinished/End
// call happens synchronously inside Schedule, Cancel or Run on the caller's
// goroutine. It holds no locks and must not be shared between goroutines.
//
// Service hosts a Scheduler on its own goroutine:
//   - ticks it at a fixed period
//   - accepts work from other goroutines through a mailbox (Submit)
//   - publishes a Snapshot after every tick
//   - rebuilds a fresh Scheduler if a command panics mid-tick
package scheduler
