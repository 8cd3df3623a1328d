package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrNilCommand       = errors.New("command: nil command")
	ErrAlreadyGrouped   = errors.New("command: already part of a composite")
	ErrDuplicateCommand = errors.New("command: duplicate command in composite")
)

// Command is the capability set the scheduler drives.
//
// Implementations must be pointer types embedding Base; the unexported base
// accessor keeps the set closed to types that carry the ownership tag.
type Command interface {
	Initialize()
	Execute()
	IsFinished() bool
	End(interrupted bool)

	Requirements() []Subsystem
	RunsWhenDisabled() bool
	Name() string

	base() *Base
}

// Base is embedded by every command.
//
// The zero value is a command with no requirements that never finishes and is
// canceled when the system is disabled.
type Base struct {
	name             string
	requirements     []Subsystem
	runsWhenDisabled bool

	// owner is the composite this command was absorbed into. Set once, never cleared.
	owner Command
}

func (b *Base) Initialize()          {}
func (b *Base) Execute()             {}
func (b *Base) IsFinished() bool     { return false }
func (b *Base) End(interrupted bool) {}

// Requirements returns a copy of the declared requirement set.
func (b *Base) Requirements() []Subsystem { return slices.Clone(b.requirements) }

// AddRequirements declares subsystems this command needs exclusive access to.
// Nil and repeated subsystems are ignored.
func (b *Base) AddRequirements(subs ...Subsystem) {
	for _, s := range subs {
		if s == nil || slices.Contains(b.requirements, s) {
			continue
		}
		b.requirements = append(b.requirements, s)
	}
}

func (b *Base) RunsWhenDisabled() bool     { return b.runsWhenDisabled }
func (b *Base) SetRunsWhenDisabled(v bool) { b.runsWhenDisabled = v }

func (b *Base) Name() string        { return b.name }
func (b *Base) SetName(name string) { b.name = name }

func (b *Base) base() *Base { return b }

// NameOf returns c.Name(), or the dynamic type name when no name was set.
func NameOf(c Command) string {
	if c == nil {
		return "<nil>"
	}
	if n := c.Name(); n != "" {
		return n
	}
	t := strings.TrimPrefix(fmt.Sprintf("%T", c), "*")
	if i := strings.LastIndexByte(t, '.'); i >= 0 {
		t = t[i+1:]
	}
	return t
}

// IsGrouped reports whether c has been absorbed into a composite.
func IsGrouped(c Command) bool {
	return c != nil && c.base().owner != nil
}

// Owner returns the composite that absorbed c, or nil.
func Owner(c Command) Command {
	if c == nil {
		return nil
	}
	return c.base().owner
}

// RequirementNames renders a requirement set for logs and snapshots.
func RequirementNames(subs []Subsystem) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.Name())
	}
	return out
}

// registerGrouped tags every child as owned by owner. All children are checked
// before any tag is written, so a failed registration leaves no partial state.
func registerGrouped(owner Command, children ...Command) error {
	for _, c := range children {
		if c == nil {
			return ErrNilCommand
		}
		if o := c.base().owner; o != nil && o != owner {
			return fmt.Errorf("%w: %s (owned by %s)", ErrAlreadyGrouped, NameOf(c), NameOf(o))
		}
	}
	for _, c := range children {
		c.base().owner = owner
	}
	return nil
}

// mustRegisterGrouped panics on composition errors; they are programming
// mistakes, not runtime conditions.
func mustRegisterGrouped(owner Command, children ...Command) {
	if err := registerGrouped(owner, children...); err != nil {
		panic(err)
	}
}

func requireDistinct(children []Command) {
	seen := make(map[Command]struct{}, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		if _, dup := seen[c]; dup {
			panic(fmt.Errorf("%w: %s", ErrDuplicateCommand, NameOf(c)))
		}
		seen[c] = struct{}{}
	}
}

// inherit folds the children's requirements (union, first-seen order) and
// disabled-run policy (logical AND) into b.
func (b *Base) inherit(children []Command) {
	all := true
	for _, c := range children {
		b.AddRequirements(c.Requirements()...)
		if !c.RunsWhenDisabled() {
			all = false
		}
	}
	b.runsWhenDisabled = all
}
