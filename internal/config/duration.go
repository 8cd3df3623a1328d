package config

import (
	"fmt"
	"strings"
	"time"
)

// ParseDurationField parses a non-negative Go duration. Empty means 0.
// path names the field in error messages.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	case d < 0:
		return 0, fmt.Errorf("%s: duration must be >= 0, got %s", path, d)
	}
	return d, nil
}

// ParseDurationOrDefault is ParseDurationField with def substituted for an
// empty or zero value.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil || d > 0 {
		return d, err
	}
	return def, nil
}

// ParseDurationBetween is ParseDurationOrDefault plus an inclusive range check
// applied after the default.
func ParseDurationBetween(path, raw string, def, lo, hi time.Duration) (time.Duration, error) {
	d, err := ParseDurationOrDefault(path, raw, def)
	if err != nil {
		return 0, err
	}
	if d < lo || d > hi {
		return 0, fmt.Errorf("%s: %s out of range [%s, %s]", path, d, lo, hi)
	}
	return d, nil
}

// Bounds for loop.period.
const (
	DefaultLoopPeriod = 20 * time.Millisecond
	MinLoopPeriod     = time.Millisecond
	MaxLoopPeriod     = time.Second
)

// LoopPeriod returns the effective tick period of cfg.
func LoopPeriod(cfg *Config) (time.Duration, error) {
	return ParseDurationBetween("loop.period", cfg.Loop.Period, DefaultLoopPeriod, MinLoopPeriod, MaxLoopPeriod)
}
