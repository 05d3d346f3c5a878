package rescore

import "testing"

func TestTwoTaskDisjunctivePushesNonIntersectingOrder(t *testing.T) {
	env := NewEnvironment()
	engine := NewEngine(env, nil)

	// a: start fixed at 0, duration 5 -> [0,5). b: start in [3,20], duration
	// fixed 4. a's window and b's cannot intersect once forced apart;
	// since a is mandatory and fully fixed, b.est should be pushed to a.Ect()=5.
	aStart := NewIntVarFixed(env, 0, 0, "a.start")
	aDur := NewIntVarFixed(env, 1, 5, "a.dur")
	aEnd := NewIntVarFixed(env, 2, 5, "a.end")
	a := NewManagedTask(engine, 0, aStart, aDur, aEnd)

	bStart := NewIntVar(env, 3, 3, 20, "b.start")
	bDur := NewIntVarFixed(env, 4, 4, "b.dur")
	bEnd := NewIntVar(env, 5, 3, 24, "b.end")
	b := NewManagedTask(engine, 1, bStart, bDur, bEnd)

	engine.Register(NewTwoTaskDisjunctivePropagator(a, b, nil, nil))

	if err := engine.RunToFixpoint(); err != nil {
		t.Fatal(err)
	}
	if bStart.LB() != 5 {
		t.Fatalf("b.start.LB() = %d, want 5 (pushed past a's fixed [0,5) window)", bStart.LB())
	}
}

func TestTwoTaskDisjunctiveFailsOnMandatoryOverlap(t *testing.T) {
	env := NewEnvironment()
	engine := NewEngine(env, nil)

	aStart := NewIntVarFixed(env, 0, 0, "a.start")
	aDur := NewIntVarFixed(env, 1, 9, "a.dur")
	aEnd := NewIntVarFixed(env, 2, 9, "a.end")
	a := NewManagedTask(engine, 0, aStart, aDur, aEnd)

	bStart := NewIntVarFixed(env, 3, 8, "b.start")
	bDur := NewIntVarFixed(env, 4, 6, "b.dur")
	bEnd := NewIntVarFixed(env, 5, 14, "b.end")
	b := NewManagedTask(engine, 1, bStart, bDur, bEnd)

	engine.Register(NewTwoTaskDisjunctivePropagator(a, b, nil, nil))

	err := engine.RunToFixpoint()
	if !IsFailure(err) {
		t.Fatalf("RunToFixpoint() = %v, want a FailException: both tasks are fixed and their [0,9)/[8,14) windows overlap", err)
	}
}

func TestTwoTaskDisjunctiveExcludesOptionalTaskOnOverlap(t *testing.T) {
	env := NewEnvironment()
	engine := NewEngine(env, nil)

	aStart := NewIntVarFixed(env, 0, 0, "a.start")
	aDur := NewIntVarFixed(env, 1, 9, "a.dur")
	aEnd := NewIntVarFixed(env, 2, 9, "a.end")
	a := NewManagedTask(engine, 0, aStart, aDur, aEnd)

	bStart := NewIntVarFixed(env, 3, 8, "b.start")
	bDur := NewIntVar(env, 4, 0, 6, "b.dur")
	bEnd := NewIntVar(env, 5, 8, 14, "b.end")
	presence := NewIntVar(env, 6, 0, 1, "b.presence")
	b := NewManagedOptionalTask(engine, 1, bStart, bDur, bEnd, presence)

	engine.Register(NewTwoTaskDisjunctivePropagator(a, b, nil, nil))

	if err := engine.RunToFixpoint(); err != nil {
		t.Fatalf("RunToFixpoint() = %v, want nil (b should be excluded, not fail)", err)
	}
	if presence.UB() != 0 {
		t.Fatalf("b.presence.UB() = %d, want 0 once b is excluded from the resource", presence.UB())
	}
}
