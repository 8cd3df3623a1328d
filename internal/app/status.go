package app

import (
	"context"

	"robocmd/internal/robot"
	"robocmd/internal/runtime/supervisor"
	"robocmd/internal/scheduler"
	"robocmd/internal/storage"
)

// Status is the operator view served on /status.
type Status struct {
	Enabled   bool                   `json:"enabled"`
	Journal   bool                   `json:"journal"`
	Scheduler scheduler.Snapshot     `json:"scheduler"`
	Robot     robot.Telemetry        `json:"robot"`
	Tasks     []supervisor.TaskStats `json:"tasks,omitempty"`
	Commands  []string               `json:"commands"`
}

// statusSource adapts the app to the debug server.
type statusSource struct{ a *App }

func (s statusSource) Status(ctx context.Context) (any, error) {
	return s.a.Status(ctx)
}

func (s statusSource) Journal(ctx context.Context, limit int) (any, error) {
	if s.a.store == nil {
		return nil, storage.ErrDisabled
	}
	return s.a.store.Recent(ctx, limit)
}

// Status collects a point-in-time view. Robot telemetry is read on the loop
// goroutine, so this blocks for up to one tick.
func (a *App) Status(ctx context.Context) (Status, error) {
	st := Status{
		Enabled:   a.enabled.Load(),
		Journal:   a.store != nil,
		Scheduler: a.sched.Snapshot(),
	}
	if a.sup != nil {
		st.Tasks = a.sup.Stats()
	}
	err := a.sched.Call(ctx, func(*scheduler.Scheduler) {
		st.Robot = a.robot.Telemetry()
		st.Commands = a.robot.Commands()
	})
	return st, err
}
