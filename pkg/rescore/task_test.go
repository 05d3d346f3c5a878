package rescore

import "testing"

func newManagedTriple(t *testing.T, env *Environment, engine *Engine, base int, est, lct, durLB, durUB int) (*Task, *IntVar, *IntVar, *IntVar) {
	t.Helper()
	start := NewIntVar(env, base, est, lct, "start")
	dur := NewIntVar(env, base+1, durLB, durUB, "dur")
	end := NewIntVar(env, base+2, est, lct, "end")
	task := NewManagedTask(engine, base, start, dur, end)
	return task, start, dur, end
}

func TestTaskPropagatorEnforcesBoundConsistency(t *testing.T) {
	env := NewEnvironment()
	engine := NewEngine(env, nil)

	// start in [0,10], duration fixed to 4, end in [0,20]: bound
	// consistency must pin end to [4,14] and start to [0,10] stays, but
	// end's lower bound at start.lb+dur.lb=4 and end's upper bound at
	// start.ub+dur.ub=14.
	start := NewIntVar(env, 0, 0, 10, "start")
	dur := NewIntVarFixed(env, 1, 4, "dur")
	end := NewIntVar(env, 2, 0, 20, "end")
	NewManagedTask(engine, 0, start, dur, end)

	if err := engine.RunToFixpoint(); err != nil {
		t.Fatalf("RunToFixpoint() = %v, want nil", err)
	}

	if end.LB() != 4 {
		t.Fatalf("end.LB() = %d, want 4", end.LB())
	}
	if end.UB() != 14 {
		t.Fatalf("end.UB() = %d, want 14", end.UB())
	}
}

func TestTaskPropagatorFailsOnInconsistentTriple(t *testing.T) {
	env := NewEnvironment()
	engine := NewEngine(env, nil)

	start := NewIntVarFixed(env, 0, 5, "start")
	dur := NewIntVarFixed(env, 1, 3, "dur")
	end := NewIntVarFixed(env, 2, 10, "end") // 5+3 != 10

	NewManagedTask(engine, 0, start, dur, end)

	err := engine.RunToFixpoint()
	if !IsFailure(err) {
		t.Fatalf("RunToFixpoint() = %v, want a FailException", err)
	}
}

func TestTaskPropagatorPassivatesOnceDurationFixedAndEndIsOffset(t *testing.T) {
	env := NewEnvironment()
	engine := NewEngine(env, nil)

	start := NewIntVar(env, 0, 0, 10, "start")
	dur := NewIntVarFixed(env, 1, 4, "dur")
	end := NewIntVar(env, 2, 0, 20, "end")
	offsetEnd := NewOffsetView(start, 4)

	idx := engine.Register(NewTaskPropagator(NewTask(0, start, dur, end), start, dur, end, offsetEnd))

	if err := engine.RunToFixpoint(); err != nil {
		t.Fatal(err)
	}
	if !engine.IsPassive(idx) {
		t.Fatal("TaskPropagator should passivate once duration is fixed and end is start's offset view")
	}
}

func TestOptionalTaskGetterSentinelsWhileAbsent(t *testing.T) {
	env := NewEnvironment()
	start := NewIntVar(env, 0, 0, 10, "start")
	dur := NewIntVar(env, 1, 0, 10, "dur")
	end := NewIntVar(env, 2, 0, 10, "end")
	presence := NewIntVar(env, 3, 0, 1, "presence")
	opt := NewOptionalTask(0, start, dur, end, presence)

	if _, err := presence.UpdateUpperBound(0, "force absent"); err != nil {
		t.Fatal(err)
	}

	if opt.MayBePerformed() {
		t.Fatal("MayBePerformed() = true after presence.ub <- 0")
	}
	if got := opt.Est(); got != NegInfinity {
		t.Fatalf("Est() while absent = %d, want NegInfinity", got)
	}
	if got := opt.Lct(); got != PosInfinity {
		t.Fatalf("Lct() while absent = %d, want PosInfinity", got)
	}

	// Updates against an absent task must be harmless no-ops, not
	// failures, since nothing can ever constrain a task that isn't there.
	changed, err := opt.UpdateEst(1000, "test")
	if err != nil || changed {
		t.Fatalf("UpdateEst on an absent task = (%v, %v), want (false, nil)", changed, err)
	}
}

func TestOptionalTaskGuardConvertsFailureToAbsence(t *testing.T) {
	env := NewEnvironment()
	start := NewIntVarFixed(env, 0, 5, "start")
	dur := NewIntVarFixed(env, 1, 3, "dur")
	end := NewIntVarFixed(env, 2, 10, "end") // inconsistent: 5+3 != 10
	presence := NewIntVar(env, 3, 0, 1, "presence")
	opt := NewOptionalTask(0, start, dur, end, presence)

	engine := NewEngine(env, nil)
	engine.Register(NewTaskPropagator(opt, start, dur, end, nil))

	if err := engine.RunToFixpoint(); err != nil {
		t.Fatalf("RunToFixpoint() = %v, want nil (the conflict should be absorbed into presence)", err)
	}
	if opt.MustBePerformed() {
		t.Fatal("presence should have been forced to 0, not left mandatory")
	}
	if presence.UB() != 0 {
		t.Fatalf("presence.UB() = %d, want 0", presence.UB())
	}
}

func TestOptionalTaskForceToBeOptionalFailsIfAlreadyMandatory(t *testing.T) {
	env := NewEnvironment()
	start := NewIntVar(env, 0, 0, 10, "start")
	dur := NewIntVar(env, 1, 0, 10, "dur")
	end := NewIntVar(env, 2, 0, 10, "end")
	presence := NewIntVarFixed(env, 3, 1, "presence")
	opt := NewOptionalTask(0, start, dur, end, presence)

	if err := opt.ForceToBeOptional("test"); !IsFailure(err) {
		t.Fatalf("ForceToBeOptional on an already-mandatory task = %v, want a FailException", err)
	}
}

func TestTaskForceToBeOptionalIsContractViolation(t *testing.T) {
	env := NewEnvironment()
	start := NewIntVar(env, 0, 0, 10, "start")
	dur := NewIntVar(env, 1, 0, 10, "dur")
	end := NewIntVar(env, 2, 0, 10, "end")
	task := NewTask(0, start, dur, end)

	if err := task.ForceToBeOptional("test"); !IsContractViolation(err) {
		t.Fatalf("Task.ForceToBeOptional() = %v, want a ContractViolationError", err)
	}
}
