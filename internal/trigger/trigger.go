// Package trigger binds boolean conditions to command scheduling.
//
// Bindings are polled once per tick by the scheduler (after the command
// sweep), so commands they schedule start executing on the following tick.
// The previous state of every binding is sampled when it is bound: a
// condition that is already true at bind time is not a rising edge.
package trigger

import (
	"robocmd/internal/command"
)

// Binder is the part of the scheduler a binding needs.
type Binder interface {
	AddButton(poll func())
	ScheduleWith(interruptible bool, cmds ...command.Command)
	Cancel(cmds ...command.Command)
	IsScheduled(cmds ...command.Command) bool
}

// state is one evaluation of a trigger. fired marks a fresh occurrence, such
// as a cron firing, that counts as a rising edge even if the trigger was
// already active on the previous poll.
type state struct {
	active bool
	fired  bool
}

// Trigger is a condition polled by the scheduler.
type Trigger struct {
	eval func() state
}

// New returns a Trigger for cond. A nil cond is never active.
func New(cond func() bool) Trigger {
	if cond == nil {
		return Trigger{}
	}
	return Trigger{eval: func() state { return state{active: cond()} }}
}

func (t Trigger) poll() state {
	if t.eval == nil {
		return state{}
	}
	return t.eval()
}

func (t Trigger) Active() bool { return t.poll().active }

// And is active when both are. Both sides are polled every time.
func (t Trigger) And(o Trigger) Trigger {
	return Trigger{eval: func() state {
		a, b := t.poll(), o.poll()
		on := a.active && b.active
		return state{active: on, fired: on && (a.fired || b.fired)}
	}}
}

// Or is active when either is. Both sides are polled every time.
func (t Trigger) Or(o Trigger) Trigger {
	return Trigger{eval: func() state {
		a, b := t.poll(), o.poll()
		return state{active: a.active || b.active, fired: a.fired || b.fired}
	}}
}

func (t Trigger) Not() Trigger {
	return Trigger{eval: func() state { return state{active: !t.poll().active} }}
}

// edge is what a binding sees on one poll.
type edge struct {
	rose, fell, cur bool
}

// bind registers a poll that calls fn with the transition since the last poll.
func (t Trigger) bind(b Binder, fn func(edge)) {
	prev := t.poll().active
	b.AddButton(func() {
		s := t.poll()
		fn(edge{
			rose: s.active && (!prev || s.fired),
			fell: prev && !s.active,
			cur:  s.active,
		})
		prev = s.active
	})
}

// WhenActive schedules cmd when the condition becomes true.
func (t Trigger) WhenActive(b Binder, cmd command.Command, interruptible bool) {
	t.bind(b, func(e edge) {
		if e.rose {
			b.ScheduleWith(interruptible, cmd)
		}
	})
}

// WhileActive keeps cmd scheduled while the condition holds, rescheduling it
// if it finishes, and cancels it when the condition becomes false.
func (t Trigger) WhileActive(b Binder, cmd command.Command, interruptible bool) {
	t.bind(b, func(e edge) {
		switch {
		case e.cur:
			b.ScheduleWith(interruptible, cmd)
		case e.fell:
			b.Cancel(cmd)
		}
	})
}

// WhenInactive schedules cmd when the condition becomes false.
func (t Trigger) WhenInactive(b Binder, cmd command.Command, interruptible bool) {
	t.bind(b, func(e edge) {
		if e.fell {
			b.ScheduleWith(interruptible, cmd)
		}
	})
}

// ToggleWhenActive schedules cmd on a rising edge, or cancels it if it is
// already scheduled.
func (t Trigger) ToggleWhenActive(b Binder, cmd command.Command, interruptible bool) {
	t.bind(b, func(e edge) {
		if !e.rose {
			return
		}
		if b.IsScheduled(cmd) {
			b.Cancel(cmd)
			return
		}
		b.ScheduleWith(interruptible, cmd)
	})
}

// CancelWhenActive cancels cmd when the condition becomes true.
func (t Trigger) CancelWhenActive(b Binder, cmd command.Command) {
	t.bind(b, func(e edge) {
		if e.rose {
			b.Cancel(cmd)
		}
	})
}
