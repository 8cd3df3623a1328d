package robot

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"robocmd/internal/command"
	"robocmd/internal/scheduler"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

const period = 20 * time.Millisecond

func newTestRobot(t *testing.T) (*Robot, *scheduler.Scheduler, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Unix(1000, 0)}
	r := New(Tuning{}, clk.now)
	sc := scheduler.New(scheduler.Config{}, scheduler.WithClock(clk.now))
	if err := r.Setup(sc); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return r, sc, clk
}

// runUntilDone ticks until cmd is no longer scheduled or max ticks elapse.
func runUntilDone(t *testing.T, sc *scheduler.Scheduler, clk *fakeClock, cmd command.Command, max int) int {
	t.Helper()
	for i := 1; i <= max; i++ {
		clk.advance(period)
		sc.Run()
		if !sc.IsScheduled(cmd) {
			return i
		}
	}
	t.Fatalf("%s still running after %d ticks", command.NameOf(cmd), max)
	return 0
}

func TestDriveIntegratesDistance(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{t: time.Unix(0, 0)}
	d := NewDrive(2, clk.now)
	d.Periodic()
	d.ArcadeDrive(1, 0)
	clk.advance(time.Second)
	d.Periodic()
	if got := d.AverageDistance(); math.Abs(got-2) > 1e-9 {
		t.Fatalf("AverageDistance = %v, want 2", got)
	}
	d.ArcadeDrive(0, 1)
	if l, r := d.Outputs(); l != 1 || r != -1 {
		t.Fatalf("outputs = %v/%v, want 1/-1", l, r)
	}
	d.ArcadeDrive(5, 5)
	if l, r := d.Outputs(); l != 1 || r != 0 {
		t.Fatalf("clamped outputs = %v/%v, want 1/0", l, r)
	}
}

func TestShooterReachesSetpoint(t *testing.T) {
	t.Parallel()
	s := NewShooter(40, 2)
	s.Enable()
	for i := 0; i < 11; i++ {
		s.Periodic()
	}
	if !s.AtSetpoint() {
		t.Fatalf("rps = %v, not at setpoint", s.RPS())
	}
	s.Disable()
	if s.AtSetpoint() {
		t.Fatalf("disabled shooter reports at setpoint")
	}
}

func TestCatalogBuildsFreshCommands(t *testing.T) {
	t.Parallel()
	r := New(Tuning{}, nil)
	for _, name := range r.Commands() {
		a, err := r.Build(name)
		if err != nil {
			t.Fatalf("Build(%q): %v", name, err)
		}
		b, _ := r.Build(name)
		if a == b {
			t.Fatalf("Build(%q) returned the same instance twice", name)
		}
		if command.IsGrouped(a) {
			t.Fatalf("Build(%q) returned a grouped command", name)
		}
	}
	if !slices.IsSorted(r.Commands()) {
		t.Fatalf("Commands not sorted")
	}
	if _, err := r.Build("launch_rocket"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("err = %v, want ErrUnknownCommand", err)
	}
}

func TestDefaultDriveCommand(t *testing.T) {
	t.Parallel()
	r, sc, clk := newTestRobot(t)
	r.Apply(Tuning{Forward: 0.5})
	clk.advance(period)
	sc.Run()
	if def := sc.Requiring(r.Drive); def == nil || def.Name() != "ArcadeDrive" {
		t.Fatalf("drive held by %v, want ArcadeDrive", def)
	}
	clk.advance(period)
	sc.Run()
	if l, _ := r.Drive.Outputs(); l != 0.5 {
		t.Fatalf("left output = %v, want 0.5", l)
	}
}

func TestShootSequence(t *testing.T) {
	t.Parallel()
	r, sc, clk := newTestRobot(t)
	shoot, _ := r.Build(CmdShoot)
	sc.Schedule(shoot)
	runUntilDone(t, sc, clk, shoot, 200)

	tel := r.Telemetry()
	if tel.Shots == 0 {
		t.Fatalf("no shots fired")
	}
	if tel.ShooterReady || r.Shooter.feeding {
		t.Fatalf("shooter left running: %+v", tel)
	}
}

func TestAutoRoutine(t *testing.T) {
	t.Parallel()
	r, sc, clk := newTestRobot(t)
	r.Hatch.Grab()
	auto, _ := r.Build(CmdAuto)
	sc.Schedule(auto)
	runUntilDone(t, sc, clk, auto, 1000)

	tel := r.Telemetry()
	if tel.HatchGrabbed {
		t.Fatalf("hatch not released")
	}
	if tel.Shots == 0 {
		t.Fatalf("auto did not shoot")
	}
	clk.advance(period)
	sc.Run()
	if def := sc.Requiring(r.Drive); def == nil || def.Name() != "ArcadeDrive" {
		t.Fatalf("default drive command not restored after auto")
	}
}

func TestReleaseHatchRunsWhenDisabled(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{t: time.Unix(0, 0)}
	r := New(Tuning{}, clk.now)
	sc := scheduler.New(scheduler.Config{}, scheduler.WithEnableSource(scheduler.EnableFunc(func() bool { return false })))
	r.Hatch.Grab()

	release, _ := r.Build(CmdReleaseHatch)
	grab, _ := r.Build(CmdGrabHatch)
	sc.Schedule(release)
	sc.Run()
	if r.Hatch.Grabbed() {
		t.Fatalf("release did not run while disabled")
	}
	sc.Schedule(grab)
	if sc.IsScheduled(grab) || r.Hatch.Grabbed() {
		t.Fatalf("grab ran while disabled")
	}
}
