package robot

import (
	"math"
	"time"

	"robocmd/internal/command"
)

// Drive is a simulated differential drive with integrated wheel encoders.
type Drive struct {
	command.SubsystemBase

	now      func() time.Time
	last     time.Time
	maxSpeed float64 // m/s at full output

	left, right   float64 // outputs in [-1, 1]
	leftDistance  float64 // meters
	rightDistance float64
}

func NewDrive(maxSpeed float64, clock func() time.Time) *Drive {
	if clock == nil {
		clock = time.Now
	}
	d := &Drive{SubsystemBase: command.NewSubsystemBase("drive"), now: clock}
	d.SetMaxSpeed(maxSpeed)
	return d
}

func (d *Drive) SetMaxSpeed(v float64) {
	if v <= 0 {
		v = 3
	}
	d.maxSpeed = v
}

// ArcadeDrive sets wheel outputs from forward and rotation inputs.
func (d *Drive) ArcadeDrive(forward, rotation float64) {
	forward = clamp(forward)
	rotation = clamp(rotation)
	d.left = clamp(forward + rotation)
	d.right = clamp(forward - rotation)
}

func (d *Drive) Stop() { d.left, d.right = 0, 0 }

func (d *Drive) ResetEncoders() { d.leftDistance, d.rightDistance = 0, 0 }

// AverageDistance returns the mean distance travelled by both sides since the
// last reset.
func (d *Drive) AverageDistance() float64 { return (d.leftDistance + d.rightDistance) / 2 }

func (d *Drive) Outputs() (left, right float64) { return d.left, d.right }

// Periodic integrates wheel travel since the previous call.
func (d *Drive) Periodic() {
	now := d.now()
	if !d.last.IsZero() {
		dt := now.Sub(d.last).Seconds()
		d.leftDistance += d.left * d.maxSpeed * dt
		d.rightDistance += d.right * d.maxSpeed * dt
	}
	d.last = now
}

// Hatch is a simulated double solenoid gripper.
type Hatch struct {
	command.SubsystemBase

	grabbed bool
}

func NewHatch() *Hatch { return &Hatch{SubsystemBase: command.NewSubsystemBase("hatch")} }

func (h *Hatch) Grab()         { h.grabbed = true }
func (h *Hatch) Release()      { h.grabbed = false }
func (h *Hatch) Grabbed() bool { return h.grabbed }

// Shooter is a simulated flywheel with a feeder. The flywheel approaches its
// setpoint by a fixed fraction of the error on every Periodic.
type Shooter struct {
	command.SubsystemBase

	target    float64 // rotations per second
	tolerance float64
	response  float64

	enabled bool
	feeding bool
	rps     float64
	shots   int
}

func NewShooter(targetRPS, toleranceRPS float64) *Shooter {
	s := &Shooter{SubsystemBase: command.NewSubsystemBase("shooter"), response: 0.25}
	s.SetTarget(targetRPS, toleranceRPS)
	return s
}

func (s *Shooter) SetTarget(targetRPS, toleranceRPS float64) {
	if targetRPS <= 0 {
		targetRPS = 40
	}
	if toleranceRPS <= 0 {
		toleranceRPS = 2
	}
	s.target, s.tolerance = targetRPS, toleranceRPS
}

func (s *Shooter) Enable() { s.enabled = true }

// Disable stops the flywheel controller and the feeder.
func (s *Shooter) Disable() {
	s.enabled = false
	s.feeding = false
}

func (s *Shooter) RunFeeder()  { s.feeding = true }
func (s *Shooter) StopFeeder() { s.feeding = false }

func (s *Shooter) AtSetpoint() bool {
	return s.enabled && math.Abs(s.target-s.rps) <= s.tolerance
}

func (s *Shooter) RPS() float64 { return s.rps }

// Shots counts ticks on which the feeder pushed a disc through a wheel at speed.
func (s *Shooter) Shots() int { return s.shots }

func (s *Shooter) Periodic() {
	goal := 0.0
	if s.enabled {
		goal = s.target
	}
	s.rps += (goal - s.rps) * s.response
	if s.feeding && s.AtSetpoint() {
		s.shots++
	}
}

func clamp(v float64) float64 { return math.Max(-1, math.Min(1, v)) }
