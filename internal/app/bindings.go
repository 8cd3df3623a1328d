package app

import (
	"errors"
	"fmt"
	"time"

	"robocmd/internal/command"
	"robocmd/internal/config"
	"robocmd/internal/robot"
	"robocmd/internal/trigger"
)

// ValidateBindings checks that every binding names a catalog command and,
// for cron bindings, carries a parseable spec.
func ValidateBindings(r *robot.Robot, bindings []config.BindingConfig) error {
	var errs []error
	for i, b := range bindings {
		if _, err := r.Build(b.Command); err != nil {
			errs = append(errs, fmt.Errorf("bindings[%d]: %w", i, err))
		}
		if b.On == config.OnCron {
			if _, err := trigger.ParseCron(b.Spec); err != nil {
				errs = append(errs, fmt.Errorf("bindings[%d]: %w", i, err))
			}
		}
	}
	return errors.Join(errs...)
}

// bindCommands registers one trigger binding per config entry on b. Bindings
// naming the same command share one instance, so a cancel binding cancels
// what a schedule binding started.
func bindCommands(b trigger.Binder, r *robot.Robot, bindings []config.BindingConfig, enabled func() bool, clock func() time.Time) error {
	instances := map[string]command.Command{}
	for i, bc := range bindings {
		cmd, ok := instances[bc.Command]
		if !ok {
			c, err := r.Build(bc.Command)
			if err != nil {
				return fmt.Errorf("bindings[%d]: %w", i, err)
			}
			cmd = c
			instances[bc.Command] = c
		}

		var t trigger.Trigger
		switch bc.On {
		case config.OnEnable:
			t = trigger.New(enabled)
		case config.OnDisable:
			t = trigger.New(enabled).Not()
		case config.OnCron:
			ct, err := trigger.Cron(bc.Spec, clock)
			if err != nil {
				return fmt.Errorf("bindings[%d]: %w", i, err)
			}
			t = ct
		default:
			return fmt.Errorf("bindings[%d]: unknown source %q", i, bc.On)
		}

		switch bc.ActionOrDefault() {
		case config.ActionSchedule:
			t.WhenActive(b, cmd, bc.IsInterruptible())
		case config.ActionCancel:
			t.CancelWhenActive(b, cmd)
		case config.ActionToggle:
			t.ToggleWhenActive(b, cmd, bc.IsInterruptible())
		case config.ActionWhile:
			t.WhileActive(b, cmd, bc.IsInterruptible())
		default:
			return fmt.Errorf("bindings[%d]: unknown action %q", i, bc.Action)
		}
	}
	return nil
}
