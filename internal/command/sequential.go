package command

// Sequential runs its children one after another. When the active child
// finishes, the next one is initialized on the same tick.
type Sequential struct {
	Base

	cmds  []Command
	index int // -1 while not running
}

// NewSequential panics if a child is nil or already belongs to another composite.
func NewSequential(cmds ...Command) *Sequential {
	g := &Sequential{cmds: cmds, index: -1}
	mustRegisterGrouped(g, cmds...)
	g.inherit(cmds)
	g.SetName("SequentialGroup")
	return g
}

func (g *Sequential) Initialize() {
	g.index = 0
	if len(g.cmds) > 0 {
		g.cmds[0].Initialize()
	}
}

func (g *Sequential) Execute() {
	if g.index < 0 || g.index >= len(g.cmds) {
		return
	}
	cur := g.cmds[g.index]
	cur.Execute()
	if !cur.IsFinished() {
		return
	}
	cur.End(false)
	g.index++
	if g.index < len(g.cmds) {
		g.cmds[g.index].Initialize()
	}
}

func (g *Sequential) IsFinished() bool {
	return g.index >= len(g.cmds)
}

// End interrupts only the active child: earlier children already ended normally
// and later ones never started.
func (g *Sequential) End(interrupted bool) {
	if interrupted && g.index >= 0 && g.index < len(g.cmds) {
		g.cmds[g.index].End(true)
	}
	g.index = -1
}
