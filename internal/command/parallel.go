package command

type member struct {
	cmd     Command
	running bool
}

func newMembers(cmds []Command) []member {
	ms := make([]member, len(cmds))
	for i, c := range cmds {
		ms[i] = member{cmd: c}
	}
	return ms
}

// Parallel runs all children at once and finishes when every child has finished.
type Parallel struct {
	Base

	members []member
}

// NewParallel panics if a child is nil, repeated, or already belongs to another composite.
func NewParallel(cmds ...Command) *Parallel {
	requireDistinct(cmds)
	g := &Parallel{}
	mustRegisterGrouped(g, cmds...)
	g.members = newMembers(cmds)
	g.inherit(cmds)
	g.SetName("ParallelGroup")
	return g
}

func (g *Parallel) Initialize() {
	for i := range g.members {
		g.members[i].cmd.Initialize()
		g.members[i].running = true
	}
}

func (g *Parallel) Execute() {
	for i := range g.members {
		m := &g.members[i]
		if !m.running {
			continue
		}
		m.cmd.Execute()
		if m.cmd.IsFinished() {
			m.cmd.End(false)
			m.running = false
		}
	}
}

func (g *Parallel) IsFinished() bool {
	for _, m := range g.members {
		if m.running {
			return false
		}
	}
	return true
}

func (g *Parallel) End(interrupted bool) {
	for i := range g.members {
		m := &g.members[i]
		if m.running {
			m.cmd.End(true)
			m.running = false
		}
	}
}

// Race runs all children at once and finishes as soon as any child finishes.
// Children finishing on the deciding tick end normally; the rest are interrupted
// on that same tick.
type Race struct {
	Base

	members  []member
	finished bool
}

// NewRace panics if a child is nil, repeated, or already belongs to another composite.
func NewRace(cmds ...Command) *Race {
	requireDistinct(cmds)
	g := &Race{}
	mustRegisterGrouped(g, cmds...)
	g.members = newMembers(cmds)
	g.inherit(cmds)
	g.SetName("RaceGroup")
	return g
}

func (g *Race) Initialize() {
	g.finished = false
	for i := range g.members {
		g.members[i].cmd.Initialize()
		g.members[i].running = true
	}
}

func (g *Race) Execute() {
	for i := range g.members {
		m := &g.members[i]
		if !m.running {
			continue
		}
		m.cmd.Execute()
		if m.cmd.IsFinished() {
			m.cmd.End(false)
			m.running = false
			g.finished = true
		}
	}
	if g.finished {
		g.interruptRunning()
	}
}

func (g *Race) IsFinished() bool { return g.finished || len(g.members) == 0 }

func (g *Race) End(interrupted bool) {
	g.interruptRunning()
}

func (g *Race) interruptRunning() {
	for i := range g.members {
		m := &g.members[i]
		if m.running {
			m.cmd.End(true)
			m.running = false
		}
	}
}
