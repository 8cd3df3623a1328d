package app

import (
	"context"
	"strings"
	"time"

	"robocmd/internal/eventbus"
	"robocmd/internal/scheduler"
	"robocmd/internal/storage"
	"robocmd/pkg/logx"
)

var lifecycleEvents = []string{
	scheduler.EventInitialize,
	scheduler.EventFinish,
	scheduler.EventInterrupt,
	scheduler.EventReject,
}

func journalEntry(e eventbus.Event) (storage.LifecycleEntry, bool) {
	le, ok := e.Data.(scheduler.LifecycleEvent)
	if !ok {
		return storage.LifecycleEntry{}, false
	}
	return storage.LifecycleEntry{
		At:            e.Time,
		Type:          strings.TrimPrefix(e.Type, "command."),
		Episode:       le.Episode,
		Command:       le.Command,
		Interruptible: le.Interruptible,
		Requirements:  le.Requirements,
		Reason:        le.Reason,
		By:            le.By,
		Tick:          le.Tick,
		Ticks:         le.Ticks,
		TookMS:        le.Duration.Milliseconds(),
	}, true
}

// runJournal copies lifecycle events into store until ctx is canceled, then
// drains whatever is still buffered.
func runJournal(ctx context.Context, events <-chan eventbus.Event, store storage.Store, log logx.Logger) {
	write := func(e eventbus.Event) {
		entry, ok := journalEntry(e)
		if !ok {
			return
		}
		wctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := store.AppendLifecycle(wctx, entry); err != nil {
			log.Warn("journal append failed", logx.String("type", e.Type), logx.Err(err))
		}
	}
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case e, ok := <-events:
					if !ok {
						return
					}
					write(e)
				default:
					return
				}
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			write(e)
		}
	}
}
