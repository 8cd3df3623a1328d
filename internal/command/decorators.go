package command

import "time"

// Perpetual runs cmd without ever finishing; only interruption ends it.
type Perpetual struct {
	Base

	cmd Command
}

func NewPerpetual(cmd Command) *Perpetual {
	p := &Perpetual{cmd: cmd}
	mustRegisterGrouped(p, cmd)
	p.inherit([]Command{cmd})
	p.SetName("Perpetual(" + NameOf(cmd) + ")")
	return p
}

func (p *Perpetual) Initialize()          { p.cmd.Initialize() }
func (p *Perpetual) Execute()             { p.cmd.Execute() }
func (p *Perpetual) End(interrupted bool) { p.cmd.End(interrupted) }

// Until interrupts cmd once cond reports true.
func Until(cmd Command, cond func() bool) *Race {
	r := NewRace(cmd, NewWaitUntil(cond))
	r.SetName(NameOf(cmd))
	return r
}

// WithTimeout interrupts cmd once d has elapsed. A nil clock uses time.Now.
func WithTimeout(cmd Command, d time.Duration, clock func() time.Time) *Race {
	r := NewRace(cmd, NewWait(d, clock))
	r.SetName(NameOf(cmd))
	return r
}

// Then runs cmd followed by next, in order.
func Then(cmd Command, next ...Command) *Sequential {
	return NewSequential(append([]Command{cmd}, next...)...)
}

// Along runs cmd together with others and finishes when all of them have.
func Along(cmd Command, others ...Command) *Parallel {
	return NewParallel(append([]Command{cmd}, others...)...)
}
