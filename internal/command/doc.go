// Package command defines the unit of work run by the scheduler and the
// composite algebra used to build larger commands from smaller ones.
//
// Every command embeds Base. Base supplies no-op lifecycle defaults, the
// requirement set, the disabled-run policy and the ownership tag that marks a
// command as absorbed into a composite. A grouped command can never again be
// scheduled on its own or added to a second composite.
//
// Lifecycle, driven by the scheduler (or by an owning composite):
//
//	Initialize()          once, when the command starts running
//	Execute()             once per tick while running
//	IsFinished() bool     polled after every Execute
//	End(interrupted)      once, when the command leaves the running state
//
// End(false) is delivered only when IsFinished reported true; every other exit
// (displacement, cancel, disabled policy, owner interruption) is End(true).
package command
