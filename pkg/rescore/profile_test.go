package rescore

import "testing"

// fixedTask builds a bare mandatory Task whose bounds are set directly
// (no propagator registered), which is all buildProfile/Profile need:
// they only read Est/Lst/Ect/Lct.
func fixedTask(env *Environment, id, start, duration int) *Task {
	s := NewIntVar(env, 3*id, start, start, "s")
	d := NewIntVar(env, 3*id+1, duration, duration, "d")
	e := NewIntVar(env, 3*id+2, start+duration, start+duration, "e")
	return NewTask(id, s, d, e)
}

func TestBuildProfileSingleTaskHeight(t *testing.T) {
	env := NewEnvironment()
	task := fixedTask(env, 0, 2, 5) // compulsory part [2,7)
	height := NewIntVarFixed(env, 10, 3, "h")

	profile, maxHeight := buildProfile([]TaskLike{task}, []*IntVar{height})

	if maxHeight != 3 {
		t.Fatalf("maxHeight = %d, want 3", maxHeight)
	}
	if got := profile.At(profile.find(2)).height; got != 3 {
		t.Fatalf("height at t=2 = %d, want 3", got)
	}
	if got := profile.At(profile.find(6)).height; got != 3 {
		t.Fatalf("height at t=6 = %d, want 3", got)
	}
	if got := profile.At(profile.find(7)).height; got != 0 {
		t.Fatalf("height at t=7 (outside the compulsory part) = %d, want 0", got)
	}
	if got := profile.At(profile.find(0)).height; got != 0 {
		t.Fatalf("height before the compulsory part = %d, want 0", got)
	}
}

func TestBuildProfileOverlappingTasksSumHeights(t *testing.T) {
	env := NewEnvironment()
	a := fixedTask(env, 0, 0, 10) // compulsory [0,10)
	b := fixedTask(env, 1, 4, 4)  // compulsory [4,8)
	ha := NewIntVarFixed(env, 20, 2, "ha")
	hb := NewIntVarFixed(env, 21, 5, "hb")

	profile, maxHeight := buildProfile([]TaskLike{a, b}, []*IntVar{ha, hb})

	if maxHeight != 7 {
		t.Fatalf("maxHeight = %d, want 7 (2+5 while both overlap)", maxHeight)
	}
	if got := profile.At(profile.find(5)).height; got != 7 {
		t.Fatalf("height at t=5 = %d, want 7", got)
	}
	if got := profile.At(profile.find(1)).height; got != 2 {
		t.Fatalf("height at t=1 = %d, want 2 (only a active)", got)
	}
	if got := profile.At(profile.find(9)).height; got != 2 {
		t.Fatalf("height at t=9 = %d, want 2 (only a active)", got)
	}
}

func TestBuildProfileIgnoresTaskWithNoCompulsoryPart(t *testing.T) {
	env := NewEnvironment()
	// start/end windows wide enough that lst >= ect: no compulsory part.
	start := NewIntVar(env, 0, 0, 10, "s")
	dur := NewIntVar(env, 1, 2, 2, "d")
	end := NewIntVar(env, 2, 2, 12, "e")
	task := NewTask(0, start, dur, end)
	height := NewIntVarFixed(env, 10, 5, "h")

	profile, maxHeight := buildProfile([]TaskLike{task}, []*IntVar{height})
	if maxHeight != 0 {
		t.Fatalf("maxHeight = %d, want 0 (no compulsory part to contribute)", maxHeight)
	}
	if got := profile.At(profile.find(5)).height; got != 0 {
		t.Fatalf("height at t=5 = %d, want 0", got)
	}
}

func TestProfileFindSentinelsBracketEveryDate(t *testing.T) {
	env := NewEnvironment()
	task := fixedTask(env, 0, 0, 5)
	height := NewIntVarFixed(env, 10, 1, "h")
	profile, _ := buildProfile([]TaskLike{task}, []*IntVar{height})

	if idx := profile.find(NegInfinity); profile.At(idx).start != NegInfinity {
		t.Fatalf("find(NegInfinity) did not land in the leading sentinel rectangle")
	}
	if idx := profile.find(PosInfinity); profile.At(idx).end != PosInfinity {
		t.Fatalf("find(PosInfinity) did not land in the trailing sentinel rectangle")
	}
}

func TestBacktrackableProfileRebuildAndRestore(t *testing.T) {
	env := NewEnvironment()
	task := fixedTask(env, 0, 0, 5)
	height := NewIntVarFixed(env, 10, 4, "h")

	bp := NewBacktrackableProfile(env, 1)

	env.PushWorld()
	bp.Rebuild([]TaskLike{task}, []*IntVar{height})
	if bp.Size() == 0 {
		t.Fatal("Size() = 0 after Rebuild, want at least one rectangle")
	}
	sizeAfterRebuild := bp.Size()
	env.PopWorld()

	if bp.Size() != 0 {
		t.Fatalf("Size() after PopWorld = %d, want 0 (rebuild itself should unwind)", bp.Size())
	}
	_ = sizeAfterRebuild
}
