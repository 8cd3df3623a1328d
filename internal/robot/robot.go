// Package robot is a simulated robot: three subsystems and a catalog of named
// commands operating on them.
//
// All methods must be called from the scheduler goroutine.
package robot

import (
	"time"

	"robocmd/internal/scheduler"
)

// Tuning holds the adjustable subsystem parameters.
type Tuning struct {
	MaxSpeed     float64
	Forward      float64
	Turn         float64
	TargetRPS    float64
	ToleranceRPS float64
}

type Robot struct {
	Drive   *Drive
	Hatch   *Hatch
	Shooter *Shooter

	clock  func() time.Time
	tuning Tuning
}

// New builds the robot. A nil clock uses time.Now.
func New(t Tuning, clock func() time.Time) *Robot {
	if clock == nil {
		clock = time.Now
	}
	return &Robot{
		Drive:   NewDrive(t.MaxSpeed, clock),
		Hatch:   NewHatch(),
		Shooter: NewShooter(t.TargetRPS, t.ToleranceRPS),
		clock:   clock,
		tuning:  t,
	}
}

// Apply updates tuning. The default drive command picks up Forward and Turn
// on its next execution.
func (r *Robot) Apply(t Tuning) {
	r.tuning = t
	r.Drive.SetMaxSpeed(t.MaxSpeed)
	r.Shooter.SetTarget(t.TargetRPS, t.ToleranceRPS)
}

// Setup registers the subsystems and default commands on sc.
func (r *Robot) Setup(sc *scheduler.Scheduler) error {
	sc.RegisterSubsystem(r.Drive, r.Hatch, r.Shooter)
	return sc.SetDefaultCommand(r.Drive, r.arcadeDrive())
}

// Telemetry is a point-in-time view of the simulated hardware.
type Telemetry struct {
	DriveLeft     float64 `json:"drive_left"`
	DriveRight    float64 `json:"drive_right"`
	DriveDistance float64 `json:"drive_distance"`
	HatchGrabbed  bool    `json:"hatch_grabbed"`
	ShooterRPS    float64 `json:"shooter_rps"`
	ShooterReady  bool    `json:"shooter_ready"`
	Shots         int     `json:"shots"`
}

func (r *Robot) Telemetry() Telemetry {
	left, right := r.Drive.Outputs()
	return Telemetry{
		DriveLeft:     left,
		DriveRight:    right,
		DriveDistance: r.Drive.AverageDistance(),
		HatchGrabbed:  r.Hatch.Grabbed(),
		ShooterRPS:    r.Shooter.RPS(),
		ShooterReady:  r.Shooter.AtSetpoint(),
		Shots:         r.Shooter.Shots(),
	}
}
