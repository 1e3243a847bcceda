// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"context"
	"errors"
	"slices"
	"testing"
)

// recorder collects the names of actions in the order they ran.
type recorder struct {
	calls []string
}

func (r *recorder) action(label string) Action {
	return func(context.Context, Call) error {
		r.calls = append(r.calls, label)
		return nil
	}
}

func (r *recorder) failing(label string, err error) Action {
	return func(context.Context, Call) error {
		r.calls = append(r.calls, label)
		return err
	}
}

func TestRun_StyleRunsEachOnceInOrder(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	g := New()
	for _, name := range []string{"metadata", "lint", "syntax"} {
		g.Register(name+":section", nil, rec.action(name+":section"))
		g.Register(name, []string{name + ":section"}, rec.action(name))
	}
	g.Register("style", []string{"metadata", "lint", "syntax"}, nil)

	if err := g.Run(context.Background(), "style"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{
		"metadata:section", "metadata",
		"lint:section", "lint",
		"syntax:section", "syntax",
	}
	if !slices.Equal(rec.calls, expected) {
		t.Errorf("expected %v, got %v", expected, rec.calls)
	}
}

func TestRun_SharedPrerequisiteRunsOnce(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	g := New()
	g.Register("spec:prep", nil, rec.action("spec:prep"))
	g.Register("spec:unit:prep", []string{"spec:prep"}, rec.action("spec:unit:prep"))
	g.Register("spec:unit", []string{"spec:prep", "spec:unit:prep"}, rec.action("spec:unit"))

	if err := g.Run(context.Background(), "spec:unit"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"spec:prep", "spec:unit:prep", "spec:unit"}
	if !slices.Equal(rec.calls, expected) {
		t.Errorf("expected %v, got %v", expected, rec.calls)
	}
}

func TestRun_MemoIsPerInvocation(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	g := New()
	g.Register("lint", nil, rec.action("lint"))

	inv := g.NewInvocation()
	for range 2 {
		if err := inv.Invoke(context.Background(), "lint"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected one run within an invocation, got %v", rec.calls)
	}

	if err := g.Run(context.Background(), "lint"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.calls) != 2 {
		t.Errorf("expected a fresh invocation to run again, got %v", rec.calls)
	}
}

func TestRun_EnhancementsRunAfterActionInRegistrationOrder(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	g := New()
	g.Register("lint:section", nil, rec.action("lint:section"))
	g.Register("lint", nil, rec.action("lint"))

	mustNoErr(t, g.Enhance("lint", "lint:section"))
	mustNoErr(t, g.EnhanceAction("lint", rec.action("post-1")))
	mustNoErr(t, g.EnsureAction("lint", rec.action("ensure")))
	mustNoErr(t, g.EnhanceAction("lint", rec.action("post-2")))

	if err := g.Run(context.Background(), "lint"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"lint:section", "lint", "post-1", "ensure", "post-2"}
	if !slices.Equal(rec.calls, expected) {
		t.Errorf("expected %v, got %v", expected, rec.calls)
	}
}

func TestRun_EnsureActionRunsAfterFailure(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	testsFailed := errors.New("3 examples, 1 failure")

	g := New()
	g.Register("spec:unit:clean", nil, rec.action("spec:unit:clean"))
	g.Register("spec:unit", nil, rec.failing("rspec", testsFailed))
	mustNoErr(t, g.EnhanceAction("spec:unit", rec.action("report")))
	mustNoErr(t, g.EnsureAction("spec:unit", InvokeTask("spec:unit:clean")))

	inv := g.NewInvocation()
	err := inv.Invoke(context.Background(), "spec:unit")
	if !errors.Is(err, testsFailed) {
		t.Fatalf("expected test failure to propagate, got %v", err)
	}
	var taskErr *TaskError
	if !errors.As(err, &taskErr) || taskErr.Task != "spec:unit" {
		t.Errorf("expected *TaskError for spec:unit, got %T: %v", err, err)
	}

	expected := []string{"rspec", "spec:unit:clean"}
	if !slices.Equal(rec.calls, expected) {
		t.Errorf("expected %v, got %v", expected, rec.calls)
	}
	if got := inv.State("spec:unit"); got != StateFailed {
		t.Errorf("spec:unit state = %s, want failed", got)
	}
	if got := inv.State("spec:unit:clean"); got != StateDone {
		t.Errorf("spec:unit:clean state = %s, want done", got)
	}
}

func TestRun_EnsureFailureIsAccumulated(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	first := errors.New("tests failed")
	second := errors.New("cleanup failed")

	g := New()
	g.Register("spec:unit", nil, rec.failing("rspec", first))
	mustNoErr(t, g.EnsureAction("spec:unit", rec.failing("cleanup", second)))

	err := g.Run(context.Background(), "spec:unit")
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Errorf("expected both errors, got %v", err)
	}
}

func TestRun_PrerequisiteFailureAbortsRun(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	boom := errors.New("librarian-puppet failed")

	g := New()
	g.Register("spec:prep", nil, rec.failing("spec:prep", boom))
	g.Register("spec:unit:prep", nil, rec.action("spec:unit:prep"))
	g.Register("spec:unit", []string{"spec:prep", "spec:unit:prep"}, rec.action("spec:unit"))

	inv := g.NewInvocation()
	err := inv.Invoke(context.Background(), "spec:unit")
	if !errors.Is(err, boom) {
		t.Fatalf("expected prerequisite error, got %v", err)
	}
	if !slices.Equal(rec.calls, []string{"spec:prep"}) {
		t.Errorf("expected only spec:prep to run, got %v", rec.calls)
	}
	if inv.State("spec:unit") != StateFailed || inv.State("spec:unit:prep") != StateUnresolved {
		t.Errorf("unexpected states: unit=%s unit:prep=%s", inv.State("spec:unit"), inv.State("spec:unit:prep"))
	}

	// A failed task reports the same failure when reached again.
	if again := inv.Invoke(context.Background(), "spec:prep"); !errors.Is(again, boom) {
		t.Errorf("expected memoized failure, got %v", again)
	}
}

func TestRun_ClearThenRedefine(t *testing.T) {
	t.Parallel()
	type lintConfig struct{ relative bool }
	cfg := &lintConfig{}
	var seen []bool

	g := New()
	g.Register("lint", nil, func(context.Context, Call) error {
		seen = append(seen, false)
		return nil
	}, WithDescription("Run puppet-lint"))
	mustNoErr(t, g.EnhanceAction("lint", func(context.Context, Call) error {
		t.Error("enhancement of the cleared definition must not run")
		return nil
	}))

	mustNoErr(t, g.Clear("lint"))
	cfg.relative = true
	g.Register("lint", nil, func(context.Context, Call) error {
		seen = append(seen, cfg.relative)
		return nil
	}, WithDescription("Run puppet-lint"))

	if err := g.Run(context.Background(), "lint"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(seen, []bool{true}) {
		t.Errorf("expected only the redefined action with relative=true, got %v", seen)
	}
}

func TestRegister_RedefinitionReplacesActionKeepsEnhancements(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	g := New()
	g.Register("a", nil, nil)
	g.Register("b", nil, nil)
	g.Register("metadata", []string{"a"}, rec.action("old"))
	mustNoErr(t, g.EnhanceAction("metadata", rec.action("post")))
	g.Register("metadata", []string{"a", "b"}, rec.action("new"))

	task, ok := g.Lookup("metadata")
	if !ok {
		t.Fatal("metadata not registered")
	}
	if !slices.Equal(task.Prerequisites(), []string{"a", "b"}) {
		t.Errorf("unexpected prerequisites %v", task.Prerequisites())
	}
	if err := g.Run(context.Background(), "metadata"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(rec.calls, []string{"new", "post"}) {
		t.Errorf("expected [new post], got %v", rec.calls)
	}
}

func TestRun_TaskNotFound(t *testing.T) {
	t.Parallel()
	g := New()
	g.Register("unit", []string{"spec:unit"}, nil)

	err := g.Run(context.Background(), "nope")
	var nf *TaskNotFoundError
	if !errors.As(err, &nf) || nf.Name != "nope" {
		t.Fatalf("expected TaskNotFoundError for nope, got %v", err)
	}

	err = g.Run(context.Background(), "unit")
	if !errors.As(err, &nf) || nf.Name != "spec:unit" || nf.RequiredBy != "unit" {
		t.Fatalf("expected missing prerequisite error, got %v", err)
	}
	if !errors.Is(err, ErrTaskNotFound) {
		t.Error("expected errors.Is(ErrTaskNotFound)")
	}
}

func TestRun_PrerequisiteCycle(t *testing.T) {
	t.Parallel()
	g := New()
	g.Register("a", []string{"b"}, nil)
	g.Register("b", []string{"c"}, nil)
	g.Register("c", []string{"a"}, nil)

	err := g.Run(context.Background(), "a")
	var cycleErr *PrerequisiteCycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected PrerequisiteCycleError, got %T: %v", err, err)
	}
	if !slices.Equal(cycleErr.Cycle, []string{"a", "b", "c", "a"}) {
		t.Errorf("unexpected cycle %v", cycleErr.Cycle)
	}
}

func TestRun_CycleThroughInvokedTask(t *testing.T) {
	t.Parallel()
	g := New()
	g.Register("spec:unit:clean", []string{"spec:unit"}, nil)
	g.Register("spec:unit", nil, nil)
	mustNoErr(t, g.EnsureAction("spec:unit", InvokeTask("spec:unit:clean")))

	err := g.Run(context.Background(), "spec:unit")
	if !errors.Is(err, ErrPrerequisiteCycle) {
		t.Fatalf("expected cycle, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	g := New()
	g.Register("x", []string{"y"}, nil)
	g.Register("y", nil, nil)
	if err := g.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g.Register("y", []string{"x"}, nil)
	if err := g.Validate(); !errors.Is(err, ErrPrerequisiteCycle) {
		t.Errorf("expected cycle, got %v", err)
	}

	g.Register("z", []string{"missing"}, nil)
	if err := g.Validate("z"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected missing task, got %v", err)
	}
}

func TestPlan(t *testing.T) {
	t.Parallel()
	g := New()
	g.Register("spec:unit:section", nil, nil)
	g.Register("spec:prep", nil, nil)
	g.Register("spec:unit:prep", nil, nil)
	g.Register("spec:unit", []string{"spec:unit:section", "spec:prep", "spec:unit:prep"}, nil)
	g.Register("unit", []string{"spec:unit"}, nil)

	order, err := g.Plan("unit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"spec:unit:section", "spec:prep", "spec:unit:prep", "spec:unit", "unit"}
	if !slices.Equal(order, expected) {
		t.Errorf("expected %v, got %v", expected, order)
	}
}

func TestRun_ArgsForwardedByName(t *testing.T) {
	t.Parallel()
	var got []string
	g := New()
	g.Register("spec:integration:section", nil, func(_ context.Context, call Call) error {
		got = append(got, "section="+call.Arg("destroy"))
		return nil
	})
	g.Register("spec:integration", []string{"spec:integration:section"}, func(_ context.Context, call Call) error {
		got = append(got, "integration="+call.Arg("destroy"))
		return nil
	}, WithArgs("destroy"))
	g.Register("integration", []string{"spec:integration"}, nil, WithArgs("destroy"))

	if err := g.Run(context.Background(), "integration", "never", "extra"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"section=", "integration=never"}
	if !slices.Equal(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	g := New()
	g.Register("lint", nil, rec.action("lint"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := g.Run(ctx, "lint"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("no action should run, got %v", rec.calls)
	}
}

func TestEnhance_UnknownTask(t *testing.T) {
	t.Parallel()
	g := New()
	if err := g.Enhance("lint", "lint:section"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Enhance: expected ErrTaskNotFound, got %v", err)
	}
	if err := g.EnsureAction("lint", InvokeTask("x")); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("EnsureAction: expected ErrTaskNotFound, got %v", err)
	}
	if err := g.Clear("lint"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Clear: expected ErrTaskNotFound, got %v", err)
	}
}

func TestInvocation_Executed(t *testing.T) {
	t.Parallel()
	g := New()
	g.Register("a", nil, nil)
	g.Register("b", []string{"a"}, nil)

	inv := g.NewInvocation()
	mustNoErr(t, inv.Invoke(context.Background(), "b"))
	if !slices.Equal(inv.Executed(), []string{"a", "b"}) {
		t.Errorf("unexpected executed order %v", inv.Executed())
	}
	if inv.State("b") != StateDone {
		t.Errorf("b state = %s, want done", inv.State("b"))
	}
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCall_ExecuteRunsAgainAfterDone(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	g := New()
	g.Register("spec:unit:clean", nil, rec.action("spec:unit:clean"))
	g.Register("spec:clean", []string{"spec:unit:clean"}, rec.action("spec:clean"))
	g.Register("spec:unit", nil, rec.action("rspec"))
	mustNoErr(t, g.EnsureAction("spec:unit", ExecuteTask("spec:unit:clean")))

	inv := g.NewInvocation()
	ctx := context.Background()
	mustNoErr(t, inv.Invoke(ctx, "spec:clean"))
	mustNoErr(t, inv.Invoke(ctx, "spec:unit"))

	expected := []string{"spec:unit:clean", "spec:clean", "rspec", "spec:unit:clean"}
	if !slices.Equal(rec.calls, expected) {
		t.Errorf("expected %v, got %v", expected, rec.calls)
	}
	if got := inv.State("spec:unit:clean"); got != StateDone {
		t.Errorf("spec:unit:clean state = %s, want done", got)
	}
}

func TestCall_ExecuteUnknownTask(t *testing.T) {
	t.Parallel()
	g := New()
	g.Register("spec:unit", nil, nil)
	mustNoErr(t, g.EnsureAction("spec:unit", ExecuteTask("spec:unit:clean")))

	err := g.Run(context.Background(), "spec:unit")
	var notFound *TaskNotFoundError
	if !errors.As(err, &notFound) || notFound.RequiredBy != "spec:unit" {
		t.Errorf("expected TaskNotFoundError required by spec:unit, got %v", err)
	}
}
