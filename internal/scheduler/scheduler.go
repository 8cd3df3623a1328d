package scheduler

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"robocmd/internal/command"
	"robocmd/internal/eventbus"
	"robocmd/pkg/logx"
)

type Option func(*Scheduler)

func WithLogger(log logx.Logger) Option { return func(s *Scheduler) { s.log = log } }

func WithBus(bus eventbus.Bus) Option { return func(s *Scheduler) { s.bus = bus } }

func WithEnableSource(src EnableSource) Option {
	return func(s *Scheduler) {
		if src != nil {
			s.enable = src
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// record is one scheduling episode of a command.
type record struct {
	cmd           command.Command
	name          string
	episode       string
	interruptible bool
	reqs          []command.Subsystem
	started       time.Time
	startTick     uint64
}

// Scheduler owns the set of running commands and the subsystem bindings.
// It is not safe for concurrent use.
type Scheduler struct {
	cfg    Config
	log    logx.Logger
	bus    eventbus.Bus
	enable EnableSource
	now    func() time.Time

	order   []*record // schedule order
	running map[command.Command]*record
	holders map[command.Subsystem]*record

	subsystems []command.Subsystem
	defaults   map[command.Subsystem]command.Command
	buttons    []func()

	tick     uint64
	enabled  bool
	lastTick time.Duration
	history  []HistoryItem
}

func New(cfg Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:      cfg.withDefaults(),
		log:      logx.Nop(),
		enable:   alwaysEnabled{},
		now:      time.Now,
		running:  map[command.Command]*record{},
		holders:  map[command.Subsystem]*record{},
		defaults: map[command.Subsystem]command.Command{},
		enabled:  true,
	}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	s.log = s.log.With(logx.String("comp", "scheduler"))
	return s
}

// Schedule schedules each command as interruptible.
func (s *Scheduler) Schedule(cmds ...command.Command) {
	s.ScheduleWith(true, cmds...)
}

// ScheduleWith schedules each command in order. A command that cannot be
// scheduled (grouped, disabled, or blocked by a non-interruptible holder) is
// skipped without changing any state.
func (s *Scheduler) ScheduleWith(interruptible bool, cmds ...command.Command) {
	for _, c := range cmds {
		s.schedule(c, interruptible)
	}
}

func (s *Scheduler) schedule(c command.Command, interruptible bool) bool {
	if c == nil {
		return false
	}
	if command.IsGrouped(c) {
		s.reject(c, interruptible, ReasonGrouped, "")
		return false
	}
	if _, ok := s.running[c]; ok {
		return false
	}
	if !c.RunsWhenDisabled() && !s.enable.Enabled() {
		s.reject(c, interruptible, ReasonDisabled, "")
		return false
	}

	name := command.NameOf(c)
	// A command absorbed into c after it was scheduled on its own stops
	// before c initializes it again.
	for _, rec := range slices.Clone(s.order) {
		if s.running[rec.cmd] == rec && ownedBy(rec.cmd, c) {
			s.end(rec, true, ReasonGrouped, name)
		}
	}

	reqs := c.Requirements()
	var conflicts []*record
	for _, sub := range reqs {
		holder := s.holders[sub]
		if holder == nil || slices.Contains(conflicts, holder) {
			continue
		}
		if !holder.interruptible {
			s.reject(c, interruptible, ReasonConflict, holder.name)
			return false
		}
		conflicts = append(conflicts, holder)
	}
	slices.SortFunc(conflicts, func(a, b *record) int {
		return slices.Index(s.order, a) - slices.Index(s.order, b)
	})

	for _, holder := range conflicts {
		s.end(holder, true, ReasonDisplaced, name)
	}
	// End of a displaced command may have claimed a requirement again.
	for _, sub := range reqs {
		if holder := s.holders[sub]; holder != nil {
			s.reject(c, interruptible, ReasonConflict, holder.name)
			return false
		}
	}

	rec := &record{
		cmd:           c,
		name:          name,
		episode:       uuid.NewString(),
		interruptible: interruptible,
		reqs:          reqs,
		started:       s.now(),
		startTick:     s.tick,
	}
	s.order = append(s.order, rec)
	s.running[c] = rec
	for _, sub := range reqs {
		s.holders[sub] = rec
	}

	c.Initialize()

	s.log.Debug("command initialized",
		logx.String("command", name),
		logx.String("episode", rec.episode),
		logx.Bool("interruptible", interruptible),
		logx.Strings("requirements", command.RequirementNames(reqs)),
	)
	s.publish(EventInitialize, s.event(rec, "", ""))
	return true
}

// Cancel interrupts each scheduled command. Commands that are not scheduled
// are ignored.
func (s *Scheduler) Cancel(cmds ...command.Command) {
	for _, c := range cmds {
		if c == nil {
			continue
		}
		if rec, ok := s.running[c]; ok {
			s.end(rec, true, ReasonCancel, "")
		}
	}
}

// CancelAll interrupts every scheduled command in schedule order.
func (s *Scheduler) CancelAll() {
	for _, rec := range slices.Clone(s.order) {
		if s.running[rec.cmd] == rec {
			s.end(rec, true, ReasonCancel, "")
		}
	}
}

// IsScheduled reports whether every given command is currently scheduled.
func (s *Scheduler) IsScheduled(cmds ...command.Command) bool {
	for _, c := range cmds {
		if c == nil {
			return false
		}
		if _, ok := s.running[c]; !ok {
			return false
		}
	}
	return true
}

// Requiring returns the command currently holding sub, or nil.
func (s *Scheduler) Requiring(sub command.Subsystem) command.Command {
	if rec := s.holders[sub]; rec != nil {
		return rec.cmd
	}
	return nil
}

// Run executes one scheduler tick.
func (s *Scheduler) Run() {
	start := s.now()
	s.enabled = s.enable.Enabled()

	for _, sub := range slices.Clone(s.subsystems) {
		sub.Periodic()
	}

	for _, rec := range slices.Clone(s.order) {
		if s.running[rec.cmd] != rec {
			continue
		}
		if owner := command.Owner(rec.cmd); owner != nil {
			s.end(rec, true, ReasonGrouped, command.NameOf(owner))
			continue
		}
		if !s.enabled && !rec.cmd.RunsWhenDisabled() {
			s.end(rec, true, ReasonDisabled, "")
			continue
		}
		rec.cmd.Execute()
		if s.running[rec.cmd] != rec {
			continue
		}
		if rec.cmd.IsFinished() && s.running[rec.cmd] == rec {
			s.end(rec, false, "", "")
		}
	}

	for _, poll := range slices.Clone(s.buttons) {
		poll()
	}

	for _, sub := range s.subsystems {
		def := s.defaults[sub]
		if def == nil || s.holders[sub] != nil {
			continue
		}
		// Retried every tick, so skip rather than reject while disabled.
		if !s.enabled && !def.RunsWhenDisabled() {
			continue
		}
		s.schedule(def, true)
	}

	s.tick++
	s.lastTick = s.now().Sub(start)
}

// end removes rec and delivers End(interrupted). The record is released before
// End runs so that End may schedule follow-up commands on the same subsystems.
func (s *Scheduler) end(rec *record, interrupted bool, reason, by string) {
	delete(s.running, rec.cmd)
	for _, sub := range rec.reqs {
		if s.holders[sub] == rec {
			delete(s.holders, sub)
		}
	}
	if i := slices.Index(s.order, rec); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}

	rec.cmd.End(interrupted)

	took := s.now().Sub(rec.started)
	s.remember(HistoryItem{
		Episode:     rec.episode,
		Name:        rec.name,
		Started:     rec.started,
		Duration:    took,
		Ticks:       s.tick - rec.startTick,
		Interrupted: interrupted,
		Reason:      reason,
	})

	typ := EventFinish
	if interrupted {
		typ = EventInterrupt
	}
	s.log.Debug("command ended",
		logx.String("command", rec.name),
		logx.String("episode", rec.episode),
		logx.Bool("interrupted", interrupted),
		logx.String("reason", reason),
		logx.Duration("took", took),
	)
	ev := s.event(rec, reason, by)
	ev.Ticks = s.tick - rec.startTick
	ev.Duration = took
	s.publish(typ, ev)
}

// ownedBy reports whether c sits anywhere below owner in a composite tree.
func ownedBy(c, owner command.Command) bool {
	for o := command.Owner(c); o != nil; o = command.Owner(o) {
		if o == owner {
			return true
		}
	}
	return false
}

func (s *Scheduler) reject(c command.Command, interruptible bool, reason, by string) {
	name := command.NameOf(c)
	s.log.Debug("command not scheduled",
		logx.String("command", name),
		logx.String("reason", reason),
		logx.String("by", by),
	)
	s.publish(EventReject, LifecycleEvent{
		Command:       name,
		Interruptible: interruptible,
		Requirements:  command.RequirementNames(c.Requirements()),
		Reason:        reason,
		By:            by,
		Tick:          s.tick,
	})
}

func (s *Scheduler) event(rec *record, reason, by string) LifecycleEvent {
	return LifecycleEvent{
		Episode:       rec.episode,
		Command:       rec.name,
		Interruptible: rec.interruptible,
		Requirements:  command.RequirementNames(rec.reqs),
		Reason:        reason,
		By:            by,
		Tick:          s.tick,
	}
}

func (s *Scheduler) publish(typ string, ev LifecycleEvent) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: s.now(), Data: ev})
}

func (s *Scheduler) remember(it HistoryItem) {
	if s.cfg.HistorySize <= 0 {
		return
	}
	s.history = append(s.history, it)
	if over := len(s.history) - s.cfg.HistorySize; over > 0 {
		s.history = slices.Delete(s.history, 0, over)
	}
}

// RegisterSubsystem adds subsystems whose Periodic runs each tick and which
// may carry a default command. Registering twice is a no-op.
func (s *Scheduler) RegisterSubsystem(subs ...command.Subsystem) {
	for _, sub := range subs {
		if sub == nil || slices.Contains(s.subsystems, sub) {
			continue
		}
		s.subsystems = append(s.subsystems, sub)
	}
}

// UnregisterSubsystem removes subsystems and their default commands. Commands
// currently requiring them keep running.
func (s *Scheduler) UnregisterSubsystem(subs ...command.Subsystem) {
	for _, sub := range subs {
		if i := slices.Index(s.subsystems, sub); i >= 0 {
			s.subsystems = slices.Delete(s.subsystems, i, i+1)
		}
		delete(s.defaults, sub)
	}
}

// SetDefaultCommand sets the command scheduled whenever sub is free. The
// subsystem is registered if it was not already. A nil cmd clears the default.
func (s *Scheduler) SetDefaultCommand(sub command.Subsystem, cmd command.Command) error {
	if sub == nil {
		return fmt.Errorf("set default command: nil subsystem")
	}
	if cmd == nil {
		delete(s.defaults, sub)
		return nil
	}
	if command.IsGrouped(cmd) {
		return fmt.Errorf("%w: %s", ErrGrouped, command.NameOf(cmd))
	}
	if !slices.Contains(cmd.Requirements(), sub) {
		return fmt.Errorf("%w: %s does not require %s", ErrDefaultMissingRequirement, command.NameOf(cmd), sub.Name())
	}
	s.RegisterSubsystem(sub)
	s.defaults[sub] = cmd
	return nil
}

func (s *Scheduler) DefaultCommand(sub command.Subsystem) command.Command {
	return s.defaults[sub]
}

// AddButton registers a poll function called once per tick after the command
// sweep, in registration order.
func (s *Scheduler) AddButton(poll func()) {
	if poll != nil {
		s.buttons = append(s.buttons, poll)
	}
}

// ClearButtons removes every registered poll function.
func (s *Scheduler) ClearButtons() { s.buttons = nil }

// Tick returns the number of completed Run calls.
func (s *Scheduler) Tick() uint64 { return s.tick }

// Enabled returns the enable state observed by the last Run.
func (s *Scheduler) Enabled() bool { return s.enabled }

func (s *Scheduler) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:     s.tick,
		Enabled:  s.enabled,
		LastTick: s.lastTick,
		History:  slices.Clone(s.history),
	}
	for _, rec := range s.order {
		snap.Running = append(snap.Running, RunningInfo{
			Episode:       rec.episode,
			Name:          rec.name,
			Interruptible: rec.interruptible,
			Requirements:  command.RequirementNames(rec.reqs),
			Started:       rec.started,
			Ticks:         s.tick - rec.startTick,
		})
	}
	for _, sub := range s.subsystems {
		snap.Subsystems = append(snap.Subsystems, sub.Name())
	}
	return snap
}
