// Package commandtest provides recording commands and subsystems for tests.
package commandtest

import (
	"fmt"

	"robocmd/internal/command"
)

// Trace collects lifecycle calls across several recorders, in call order.
type Trace struct {
	Calls []string
}

func (t *Trace) add(format string, args ...any) {
	if t != nil {
		t.Calls = append(t.Calls, fmt.Sprintf(format, args...))
	}
}

// Recorder counts lifecycle calls. Set Finished to make IsFinished report true.
type Recorder struct {
	command.Base

	Finished bool

	Inits      int
	Execs      int
	Polls      int
	Ends       int // End(false)
	Interrupts int // End(true)

	trace *Trace
}

func New(name string, runsWhenDisabled bool, reqs ...command.Subsystem) *Recorder {
	r := &Recorder{}
	r.SetName(name)
	r.SetRunsWhenDisabled(runsWhenDisabled)
	r.AddRequirements(reqs...)
	return r
}

// Traced records calls into t as "<name>.<call>".
func (r *Recorder) Traced(t *Trace) *Recorder {
	r.trace = t
	return r
}

func (r *Recorder) Initialize() {
	r.Inits++
	r.trace.add("%s.init", r.Name())
}

func (r *Recorder) Execute() {
	r.Execs++
	r.trace.add("%s.exec", r.Name())
}

func (r *Recorder) IsFinished() bool {
	r.Polls++
	return r.Finished
}

func (r *Recorder) End(interrupted bool) {
	if interrupted {
		r.Interrupts++
		r.trace.add("%s.interrupt", r.Name())
		return
	}
	r.Ends++
	r.trace.add("%s.end", r.Name())
}

// Counts returns (inits, execs, ends, interrupts) for compact assertions.
func (r *Recorder) Counts() [4]int {
	return [4]int{r.Inits, r.Execs, r.Ends, r.Interrupts}
}

// Subsystem is a named subsystem that counts Periodic calls.
type Subsystem struct {
	command.SubsystemBase

	Periodics int
}

func NewSubsystem(name string) *Subsystem {
	return &Subsystem{SubsystemBase: command.NewSubsystemBase(name)}
}

func (s *Subsystem) Periodic() { s.Periodics++ }
