package robot

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"robocmd/internal/command"
)

var ErrUnknownCommand = errors.New("unknown command")

// Command names understood by Build.
const (
	CmdArcadeDrive   = "arcade_drive"
	CmdDriveDistance = "drive_distance"
	CmdGrabHatch     = "grab_hatch"
	CmdReleaseHatch  = "release_hatch"
	CmdSpinUp        = "spin_up"
	CmdShoot         = "shoot"
	CmdAuto          = "auto"
	CmdStopAll       = "stop_all"
)

const (
	autoDistance = 1.5 // meters
	feedTime     = 500 * time.Millisecond
	backOffTime  = time.Second
)

func (r *Robot) factories() map[string]func() command.Command {
	return map[string]func() command.Command{
		CmdArcadeDrive:   func() command.Command { return r.arcadeDrive() },
		CmdDriveDistance: func() command.Command { return r.driveDistance(autoDistance, 0.5) },
		CmdGrabHatch:     func() command.Command { return r.grabHatch() },
		CmdReleaseHatch:  func() command.Command { return r.releaseHatch() },
		CmdSpinUp:        func() command.Command { return r.spinUp() },
		CmdShoot:         func() command.Command { return r.shoot() },
		CmdAuto:          func() command.Command { return r.auto() },
		CmdStopAll:       func() command.Command { return r.stopAll() },
	}
}

// Commands returns the catalog names, sorted.
func (r *Robot) Commands() []string {
	return slices.Sorted(maps.Keys(r.factories()))
}

// Build returns a new instance of the named command. Every call returns a
// fresh command, since composites own their children permanently.
func (r *Robot) Build(name string) (command.Command, error) {
	f, ok := r.factories()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return f(), nil
}

// arcadeDrive drives with the tuned forward and turn outputs until interrupted.
func (r *Robot) arcadeDrive() command.Command {
	return command.NewFunctional(nil,
		func() { r.Drive.ArcadeDrive(r.tuning.Forward, r.tuning.Turn) },
		func(bool) { r.Drive.Stop() },
		nil, r.Drive,
	).Named("ArcadeDrive")
}

// driveDistance drives straight until the encoders report meters travelled.
func (r *Robot) driveDistance(meters, speed float64) command.Command {
	return command.NewFunctional(
		r.Drive.ResetEncoders,
		func() { r.Drive.ArcadeDrive(speed, 0) },
		func(bool) { r.Drive.Stop() },
		func() bool { return r.Drive.AverageDistance() >= meters },
		r.Drive,
	).Named("DriveDistance")
}

func (r *Robot) grabHatch() command.Command {
	return command.NewInstant(r.Hatch.Grab, r.Hatch).Named("GrabHatch")
}

// releaseHatch may run while disabled so the gripper can be opened safely.
func (r *Robot) releaseHatch() command.Command {
	c := command.NewInstant(r.Hatch.Release, r.Hatch).Named("ReleaseHatch")
	c.SetRunsWhenDisabled(true)
	return c
}

func (r *Robot) spinUp() command.Command {
	return command.NewStartEnd(r.Shooter.Enable, r.Shooter.Disable, r.Shooter).Named("SpinUp")
}

// shoot spins the flywheel up, feeds once it is at speed, then stops.
func (r *Robot) shoot() command.Command {
	spin := command.NewInstant(r.Shooter.Enable, r.Shooter)
	ready := command.NewWaitUntil(r.Shooter.AtSetpoint)
	feed := command.WithTimeout(
		command.NewStartEnd(r.Shooter.RunFeeder, r.Shooter.StopFeeder, r.Shooter),
		feedTime, r.clock,
	)
	stop := command.NewInstant(r.Shooter.Disable, r.Shooter)
	seq := command.Then(spin, ready, feed, stop)
	seq.SetName("Shoot")
	return seq
}

// auto drives forward, drops the hatch while spinning up, backs off, then shoots.
func (r *Robot) auto() command.Command {
	drop := command.Along(r.releaseHatch(), r.spinUpFor(backOffTime))
	back := command.WithTimeout(
		command.NewRun(func() { r.Drive.ArcadeDrive(-0.5, 0) }, r.Drive),
		backOffTime, r.clock,
	)
	seq := command.Then(r.driveDistance(autoDistance, 0.5), drop, back, r.shoot())
	seq.SetName("Auto")
	return seq
}

func (r *Robot) spinUpFor(d time.Duration) command.Command {
	return command.WithTimeout(r.spinUp(), d, r.clock)
}

// stopAll takes every subsystem and stops it, interrupting whatever held them.
func (r *Robot) stopAll() command.Command {
	c := command.NewInstant(func() {
		r.Drive.Stop()
		r.Shooter.Disable()
	}, r.Drive, r.Hatch, r.Shooter).Named("StopAll")
	c.SetRunsWhenDisabled(true)
	return c
}
