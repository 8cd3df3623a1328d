package command

import (
	"fmt"
	"sort"
)

// Select runs exactly one of several commands, chosen by evaluating selector once
// at Initialize. A key with no mapped command makes Select finish immediately
// without touching any child.
type Select[K comparable] struct {
	Base

	cmds     map[K]Command
	selector func() K
	selected Command
}

// NewSelect panics if a mapped command is nil or already belongs to another composite.
// The same command may be mapped under several keys.
func NewSelect[K comparable](cmds map[K]Command, selector func() K) *Select[K] {
	g := &Select[K]{cmds: cmds, selector: selector}
	children := distinctValues(cmds)
	mustRegisterGrouped(g, children...)
	g.inherit(children)
	g.SetName("Select")
	return g
}

// Conditional is a Select keyed on a boolean condition.
type Conditional = Select[bool]

func NewConditional(onTrue, onFalse Command, cond func() bool) *Conditional {
	g := NewSelect(map[bool]Command{true: onTrue, false: onFalse}, cond)
	g.SetName("Conditional")
	return g
}

func (g *Select[K]) Initialize() {
	g.selected = nil
	if g.selector == nil {
		return
	}
	c, ok := g.cmds[g.selector()]
	if !ok || c == nil {
		return
	}
	g.selected = c
	c.Initialize()
}

func (g *Select[K]) Execute() {
	if g.selected != nil {
		g.selected.Execute()
	}
}

func (g *Select[K]) IsFinished() bool {
	return g.selected == nil || g.selected.IsFinished()
}

func (g *Select[K]) End(interrupted bool) {
	if g.selected != nil {
		g.selected.End(interrupted)
	}
	g.selected = nil
}

// Selected returns the command chosen by the last Initialize, or nil.
func (g *Select[K]) Selected() Command { return g.selected }

// distinctValues returns the mapped commands in a stable order (sorted by the
// printed key) so requirement unions do not depend on map iteration.
func distinctValues[K comparable](cmds map[K]Command) []Command {
	keys := make([]K, 0, len(cmds))
	for k := range cmds {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})
	out := make([]Command, 0, len(keys))
	seen := make(map[Command]struct{}, len(keys))
	for _, k := range keys {
		c := cmds[k]
		if c != nil {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
		}
		out = append(out, c)
	}
	return out
}
