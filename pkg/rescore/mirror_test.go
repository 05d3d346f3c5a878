package rescore

import "testing"

func TestMirrorTaskReadsAreTimeReversed(t *testing.T) {
	env := NewEnvironment()
	start := NewIntVar(env, 0, 2, 5, "start")
	dur := NewIntVar(env, 1, 3, 3, "dur")
	end := NewIntVar(env, 2, 5, 8, "end")
	task := NewTask(0, start, dur, end)

	m := task.Mirror()

	if got, want := m.Est(), -task.Lct(); got != want {
		t.Fatalf("mirror.Est() = %d, want %d (== -original.Lct())", got, want)
	}
	if got, want := m.Lst(), -task.Ect(); got != want {
		t.Fatalf("mirror.Lst() = %d, want %d", got, want)
	}
	if got, want := m.Ect(), -task.Lst(); got != want {
		t.Fatalf("mirror.Ect() = %d, want %d", got, want)
	}
	if got, want := m.Lct(), -task.Est(); got != want {
		t.Fatalf("mirror.Lct() = %d, want %d", got, want)
	}
}

func TestMirrorOfMirrorIsOriginal(t *testing.T) {
	env := NewEnvironment()
	start := NewIntVar(env, 0, 0, 10, "start")
	dur := NewIntVar(env, 1, 1, 1, "dur")
	end := NewIntVar(env, 2, 0, 10, "end")
	task := NewTask(0, start, dur, end)

	if got := task.Mirror().Mirror(); got != TaskLike(task) {
		t.Fatal("Mirror().Mirror() should return the original task")
	}
}

func TestMirrorTaskCached(t *testing.T) {
	env := NewEnvironment()
	start := NewIntVar(env, 0, 0, 10, "start")
	dur := NewIntVar(env, 1, 1, 1, "dur")
	end := NewIntVar(env, 2, 0, 10, "end")
	task := NewTask(0, start, dur, end)

	if task.Mirror() != task.Mirror() {
		t.Fatal("repeated Mirror() calls should return the same cached view")
	}
}

func TestMirrorTaskWritesRouteToOriginal(t *testing.T) {
	env := NewEnvironment()
	start := NewIntVar(env, 0, 0, 10, "start")
	dur := NewIntVar(env, 1, 0, 10, "dur")
	end := NewIntVar(env, 2, 0, 10, "end")
	task := NewTask(0, start, dur, end)
	m := task.Mirror()

	// mirror.UpdateEst(v) means "push original.lct down to -v".
	if _, err := m.UpdateEst(-6, "test"); err != nil {
		t.Fatal(err)
	}
	if got := end.UB(); got != 6 {
		t.Fatalf("original end.UB() = %d, want 6 after mirror.UpdateEst(-6)", got)
	}
}

func TestMirrorTaskOptionalDelegatesPresence(t *testing.T) {
	env := NewEnvironment()
	start := NewIntVar(env, 0, 0, 10, "start")
	dur := NewIntVar(env, 1, 0, 10, "dur")
	end := NewIntVar(env, 2, 0, 10, "end")
	presence := NewIntVar(env, 3, 0, 1, "presence")
	opt := NewOptionalTask(0, start, dur, end, presence)
	m := opt.Mirror()

	if m.MayBePerformed() != opt.MayBePerformed() {
		t.Fatal("mirror.MayBePerformed() should track the original's presence")
	}
	if _, err := presence.UpdateUpperBound(0, "test"); err != nil {
		t.Fatal(err)
	}
	if m.MayBePerformed() {
		t.Fatal("mirror.MayBePerformed() should become false once the original is forced absent")
	}
}
