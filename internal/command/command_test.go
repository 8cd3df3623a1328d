package command_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"robocmd/internal/command"
	"robocmd/internal/command/commandtest"
)

func mustPanicWith(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic wrapping %v", target)
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, target) {
			t.Fatalf("panic = %v, want error wrapping %v", r, target)
		}
	}()
	fn()
}

func TestBaseDefaults(t *testing.T) {
	t.Parallel()
	var c struct{ command.Base }
	if c.IsFinished() {
		t.Fatal("zero Base should never finish")
	}
	if c.RunsWhenDisabled() {
		t.Fatal("zero Base should not run when disabled")
	}
	if len(c.Requirements()) != 0 {
		t.Fatal("zero Base should have no requirements")
	}
}

func TestAddRequirementsDedup(t *testing.T) {
	t.Parallel()
	a, b := commandtest.NewSubsystem("a"), commandtest.NewSubsystem("b")
	c := commandtest.New("c", false, a, b, a, nil)
	got := command.RequirementNames(c.Requirements())
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("Requirements = %v, want [a b]", got)
	}
	// The returned slice is a copy.
	reqs := c.Requirements()
	reqs[0] = nil
	if c.Requirements()[0] == nil {
		t.Fatal("Requirements() exposed internal storage")
	}
}

func TestNameOfFallsBackToType(t *testing.T) {
	t.Parallel()
	w := command.NewWait(time.Second, nil)
	if got := command.NameOf(w); got != "Wait" {
		t.Fatalf("NameOf = %q, want Wait", got)
	}
	if got := command.NameOf(command.NewInstant(nil).Named("grab")); got != "grab" {
		t.Fatalf("NameOf = %q, want grab", got)
	}
	if got := command.NameOf(nil); got != "<nil>" {
		t.Fatalf("NameOf(nil) = %q", got)
	}
}

func TestCompositeRequirementUnion(t *testing.T) {
	t.Parallel()
	s1, s2, s3 := commandtest.NewSubsystem("s1"), commandtest.NewSubsystem("s2"), commandtest.NewSubsystem("s3")
	c1 := commandtest.New("c1", true, s1, s2)
	c2 := commandtest.New("c2", true, s2, s3)

	g := command.NewParallel(c1, c2)
	got := command.RequirementNames(g.Requirements())
	if !slices.Equal(got, []string{"s1", "s2", "s3"}) {
		t.Fatalf("union = %v, want [s1 s2 s3]", got)
	}
	if !g.RunsWhenDisabled() {
		t.Fatal("group of disabled-safe children should be disabled-safe")
	}
}

func TestCompositeRunsWhenDisabledIsAnd(t *testing.T) {
	t.Parallel()
	g := command.NewSequential(commandtest.New("a", true), commandtest.New("b", false))
	if g.RunsWhenDisabled() {
		t.Fatal("one non-disabled-safe child must make the group non-disabled-safe")
	}
}

func TestGroupingIsPermanent(t *testing.T) {
	t.Parallel()
	c := commandtest.New("c", true)
	if command.IsGrouped(c) {
		t.Fatal("fresh command reported grouped")
	}
	g := command.NewSequential(c)
	if !command.IsGrouped(c) || command.Owner(c) != command.Command(g) {
		t.Fatal("child not tagged with its owner")
	}
	if command.IsGrouped(g) {
		t.Fatal("top-level group reported grouped")
	}

	mustPanicWith(t, command.ErrAlreadyGrouped, func() { command.NewParallel(c) })

	// The group itself can still be nested.
	outer := command.NewRace(g)
	if command.Owner(g) != command.Command(outer) {
		t.Fatal("nested group not tagged with its owner")
	}
}

func TestFailedGroupingLeavesNoTags(t *testing.T) {
	t.Parallel()
	owned := commandtest.New("owned", true)
	_ = command.NewSequential(owned)
	free := commandtest.New("free", true)

	mustPanicWith(t, command.ErrAlreadyGrouped, func() { command.NewSequential(free, owned) })
	if command.IsGrouped(free) {
		t.Fatal("failed composite construction tagged a child")
	}
}

func TestCompositeRejectsNilAndDuplicates(t *testing.T) {
	t.Parallel()
	mustPanicWith(t, command.ErrNilCommand, func() { command.NewSequential(nil) })

	c := commandtest.New("c", true)
	mustPanicWith(t, command.ErrDuplicateCommand, func() { command.NewParallel(c, c) })
	if command.IsGrouped(c) {
		t.Fatal("duplicate check must run before tagging")
	}
}

func TestConditionalAllowsSameCommandOnBothBranches(t *testing.T) {
	t.Parallel()
	c := commandtest.New("c", true)
	g := command.NewConditional(c, c, func() bool { return false })
	g.Initialize()
	if g.Selected() != command.Command(c) || c.Inits != 1 {
		t.Fatalf("selected = %v, inits = %d", g.Selected(), c.Inits)
	}
}

func TestWaitUsesClock(t *testing.T) {
	t.Parallel()
	now := time.Unix(100, 0)
	w := command.NewWait(2*time.Second, func() time.Time { return now })
	w.Initialize()
	if w.IsFinished() {
		t.Fatal("finished before the deadline")
	}
	now = now.Add(2 * time.Second)
	if !w.IsFinished() {
		t.Fatal("not finished at the deadline")
	}
}

func TestFunctionalHooks(t *testing.T) {
	t.Parallel()
	var trace []string
	done := false
	c := command.NewFunctional(
		func() { trace = append(trace, "init") },
		func() { trace = append(trace, "exec") },
		func(interrupted bool) {
			if interrupted {
				trace = append(trace, "interrupt")
			} else {
				trace = append(trace, "end")
			}
		},
		func() bool { return done },
	)
	c.Initialize()
	c.Execute()
	done = true
	if !c.IsFinished() {
		t.Fatal("IsFinished should follow the supplied func")
	}
	c.End(false)
	if !slices.Equal(trace, []string{"init", "exec", "end"}) {
		t.Fatalf("trace = %v", trace)
	}

	n := 0
	inst := command.NewInstant(func() { n++ })
	inst.Initialize()
	if n != 1 || !inst.IsFinished() {
		t.Fatalf("instant: n = %d, finished = %v", n, inst.IsFinished())
	}
	if command.NewRun(nil).IsFinished() {
		t.Fatal("run command should never finish")
	}
}
