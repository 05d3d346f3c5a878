package rescore

// EntailmentStatus is the three-valued result of Propagator.IsEntailed:
// FALSE if a violation is witnessed among mandatory tasks, TRUE
// only once every involved variable is instantiated and no violation
// holds, UNDEFINED otherwise.
type EntailmentStatus int

const (
	EntailmentUndefined EntailmentStatus = iota
	EntailmentTrue
	EntailmentFalse
)

func (s EntailmentStatus) String() string {
	switch s {
	case EntailmentTrue:
		return "TRUE"
	case EntailmentFalse:
		return "FALSE"
	default:
		return "UNDEFINED"
	}
}

// Propagator is the contract consumed by the engine: a filtering
// algorithm over a fixed set of IntVars that tightens bounds until a
// local fixpoint, or reports failure.
//
// Generalized from a "Propagate(solver, state) (*SolverState, error)"
// shape over copy-on-write state to "Propagate(engine, self) error" over
// trailed in-place bounds, and extended with an incremental single-event
// entry point and an entailment query.
type Propagator interface {
	// Variables returns the IntVars this propagator reads and writes, in
	// the stable slot order PropagationConditions and PropagateOne index
	// into.
	Variables() []*IntVar

	// Type identifies the propagator kind for diagnostics.
	Type() string

	String() string

	// PropagationConditions returns the event mask this propagator reacts
	// to for the variable at the given slot.
	PropagationConditions(slot int) EventMask

	// Propagate runs the propagator's filtering algorithm to a local
	// fixpoint. self is this propagator's index within the owning
	// Engine, needed to call engine.SetPassive(self) on entailment.
	Propagate(engine *Engine, self int) error

	// IsEntailed reports whether the constraint is already
	// TRUE/FALSE/UNDEFINED given current bounds.
	IsEntailed() EntailmentStatus
}

// incrementalPropagator is implemented by propagators that can react to a
// single variable event more cheaply than a full re-scan. Engine routes a
// drain to PropagateOne instead of Propagate exactly when the propagator
// was woken by one pending event and implements this interface; a
// propagator that doesn't implement it is always driven through
// Propagate. The graph-partitioned cumulative variant implements it to
// scope its own internal work to the changed task's neighborhood.
type incrementalPropagator interface {
	PropagateOne(engine *Engine, self int, slot int, mask EventMask) error
}
