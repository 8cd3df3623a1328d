package trigger

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseCron validates a cron spec. Accepted forms are 5 or 6 fields (optional
// leading seconds) and descriptors such as "@every 5s" or "@hourly".
func ParseCron(spec string) (cron.Schedule, error) {
	sched, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", spec, err)
	}
	return sched, nil
}

// Cron returns a Trigger that is active on each poll at which the schedule
// has come due, and every such poll is a rising edge even when the previous
// poll was also due. Occurrences missed between two polls collapse into one.
// A nil clock uses time.Now.
func Cron(spec string, clock func() time.Time) (Trigger, error) {
	sched, err := ParseCron(spec)
	if err != nil {
		return Trigger{}, err
	}
	if clock == nil {
		clock = time.Now
	}
	next := sched.Next(clock())
	return Trigger{eval: func() state {
		now := clock()
		if now.Before(next) {
			return state{}
		}
		next = sched.Next(now)
		return state{active: true, fired: true}
	}}, nil
}
