package command

import "time"

// Functional is a command assembled from plain functions. Nil functions are no-ops;
// a nil isFinished never finishes.
type Functional struct {
	Base

	onInit     func()
	onExecute  func()
	onEnd      func(interrupted bool)
	isFinished func() bool
}

func NewFunctional(onInit, onExecute func(), onEnd func(interrupted bool), isFinished func() bool, reqs ...Subsystem) *Functional {
	c := &Functional{onInit: onInit, onExecute: onExecute, onEnd: onEnd, isFinished: isFinished}
	c.AddRequirements(reqs...)
	return c
}

func (c *Functional) Initialize() {
	if c.onInit != nil {
		c.onInit()
	}
}

func (c *Functional) Execute() {
	if c.onExecute != nil {
		c.onExecute()
	}
}

func (c *Functional) IsFinished() bool {
	return c.isFinished != nil && c.isFinished()
}

func (c *Functional) End(interrupted bool) {
	if c.onEnd != nil {
		c.onEnd(interrupted)
	}
}

// Named sets the command name and returns c, for use in constructor chains.
func (c *Functional) Named(name string) *Functional {
	c.SetName(name)
	return c
}

// NewInstant runs fn once on Initialize and finishes on the same tick.
func NewInstant(fn func(), reqs ...Subsystem) *Functional {
	return NewFunctional(fn, nil, nil, func() bool { return true }, reqs...)
}

// NewRun calls fn every tick and never finishes on its own.
func NewRun(fn func(), reqs ...Subsystem) *Functional {
	return NewFunctional(nil, fn, nil, nil, reqs...)
}

// NewStartEnd calls start on Initialize and end on End, running until interrupted.
func NewStartEnd(start, end func(), reqs ...Subsystem) *Functional {
	var onEnd func(bool)
	if end != nil {
		onEnd = func(bool) { end() }
	}
	return NewFunctional(start, nil, onEnd, nil, reqs...)
}

// NewWaitUntil finishes once cond reports true.
func NewWaitUntil(cond func() bool) *Functional {
	c := NewFunctional(nil, nil, nil, cond)
	c.SetRunsWhenDisabled(true)
	return c
}

// Wait finishes once the given duration has elapsed since Initialize.
type Wait struct {
	Base

	d       time.Duration
	now     func() time.Time
	started time.Time
}

// NewWait returns a Wait command. A nil clock uses time.Now.
func NewWait(d time.Duration, clock func() time.Time) *Wait {
	if clock == nil {
		clock = time.Now
	}
	w := &Wait{d: d, now: clock}
	w.SetRunsWhenDisabled(true)
	return w
}

func (w *Wait) Initialize()      { w.started = w.now() }
func (w *Wait) IsFinished() bool { return w.now().Sub(w.started) >= w.d }
