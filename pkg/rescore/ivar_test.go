package rescore

import "testing"

func TestNewIntVarRejectsInvertedBounds(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic for lb > ub")
		} else if !IsContractViolation(r.(error)) {
			t.Fatalf("expected a ContractViolationError, got %v", r)
		}
	}()
	env := NewEnvironment()
	NewIntVar(env, 0, 5, 3, "bad")
}

func TestIntVarUpdateLowerBound(t *testing.T) {
	env := NewEnvironment()
	v := NewIntVar(env, 0, 0, 10, "x")

	changed, err := v.UpdateLowerBound(4, "test")
	if err != nil || !changed {
		t.Fatalf("UpdateLowerBound(4) = (%v, %v), want (true, nil)", changed, err)
	}
	if v.LB() != 4 {
		t.Fatalf("LB() = %d, want 4", v.LB())
	}

	// Tightening to an already-satisfied bound is a no-op.
	changed, err = v.UpdateLowerBound(2, "test")
	if err != nil || changed {
		t.Fatalf("UpdateLowerBound(2) = (%v, %v), want (false, nil)", changed, err)
	}

	// Pushing the lower bound past the upper bound fails.
	_, err = v.UpdateLowerBound(11, "test")
	if !IsFailure(err) {
		t.Fatalf("UpdateLowerBound(11) err = %v, want a FailException", err)
	}
}

func TestIntVarUpdateUpperBound(t *testing.T) {
	env := NewEnvironment()
	v := NewIntVar(env, 0, 0, 10, "x")

	changed, err := v.UpdateUpperBound(6, "test")
	if err != nil || !changed {
		t.Fatalf("UpdateUpperBound(6) = (%v, %v), want (true, nil)", changed, err)
	}
	if v.UB() != 6 {
		t.Fatalf("UB() = %d, want 6", v.UB())
	}

	_, err = v.UpdateUpperBound(-1, "test")
	if !IsFailure(err) {
		t.Fatalf("UpdateUpperBound(-1) err = %v, want a FailException", err)
	}
}

func TestIntVarInstantiateTo(t *testing.T) {
	env := NewEnvironment()
	v := NewIntVar(env, 0, 0, 10, "x")

	changed, err := v.InstantiateTo(7, "test")
	if err != nil || !changed {
		t.Fatalf("InstantiateTo(7) = (%v, %v), want (true, nil)", changed, err)
	}
	if !v.IsInstantiated() || v.Value() != 7 {
		t.Fatalf("after InstantiateTo(7): instantiated=%v value=%d", v.IsInstantiated(), v.Value())
	}

	_, err = v.InstantiateTo(8, "test")
	if !IsFailure(err) {
		t.Fatalf("InstantiateTo(8) after fixing to 7 err = %v, want a FailException", err)
	}
}

func TestIntVarValuePanicsWhileFree(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic calling Value() on a non-instantiated variable")
		}
	}()
	env := NewEnvironment()
	v := NewIntVar(env, 0, 0, 10, "x")
	_ = v.Value()
}

func TestIntVarFixedConstructor(t *testing.T) {
	env := NewEnvironment()
	v := NewIntVarFixed(env, 0, 3, "fixed")
	if !v.IsInstantiated() || v.Value() != 3 {
		t.Fatalf("NewIntVarFixed(3): instantiated=%v value=%d", v.IsInstantiated(), v.Value())
	}
}

func TestIntVarBacktracksThroughEnvironment(t *testing.T) {
	env := NewEnvironment()
	v := NewIntVar(env, 0, 0, 10, "x")

	env.PushWorld()
	if _, err := v.UpdateLowerBound(5, "test"); err != nil {
		t.Fatal(err)
	}
	env.PopWorld()

	if v.LB() != 0 {
		t.Fatalf("LB() after backtrack = %d, want 0", v.LB())
	}
}

func TestOffsetViewTracksBase(t *testing.T) {
	env := NewEnvironment()
	base := NewIntVar(env, 0, 2, 8, "base")
	view := NewOffsetView(base, 3)

	if got := view.LB(); got != 5 {
		t.Fatalf("OffsetView.LB() = %d, want 5", got)
	}
	if got := view.UB(); got != 11 {
		t.Fatalf("OffsetView.UB() = %d, want 11", got)
	}
	if !view.IsOffsetOf(base, 3) {
		t.Fatal("IsOffsetOf(base, 3) = false, want true")
	}
	if view.IsOffsetOf(base, 4) {
		t.Fatal("IsOffsetOf(base, 4) = true, want false")
	}
}
