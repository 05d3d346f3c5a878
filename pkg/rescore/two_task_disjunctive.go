package rescore

// TwoTaskDisjunctivePropagator is the closed-form filter for the pair
// case: with only two tasks there is no need for the theta-tree or
// ascendant-set machinery the n-ary propagator uses, so the ordering
// deduction is a handful of direct bound comparisons.
//
// Shaped like a propagator specialized to exactly two operands (the kind
// of pairwise case that often gets folded into a more general
// inequality constraint); the ordering rule itself is new code.
type TwoTaskDisjunctivePropagator struct {
	a, b   TaskLike
	heightA, heightB *IntVar
}

// NewTwoTaskDisjunctivePropagator builds the pair propagator for a and b.
// heightA/heightB may be nil when the disjunctive has no explicit height
// (unit-height tasks).
func NewTwoTaskDisjunctivePropagator(a, b TaskLike, heightA, heightB *IntVar) *TwoTaskDisjunctivePropagator {
	return &TwoTaskDisjunctivePropagator{a: a, b: b, heightA: heightA, heightB: heightB}
}

func (p *TwoTaskDisjunctivePropagator) Variables() []*IntVar {
	vars := append([]*IntVar{}, p.a.Vars()...)
	vars = append(vars, p.b.Vars()...)
	if p.heightA != nil {
		vars = append(vars, p.heightA)
	}
	if p.heightB != nil {
		vars = append(vars, p.heightB)
	}
	return vars
}

func (p *TwoTaskDisjunctivePropagator) Type() string { return "two-task-disjunctive" }

func (p *TwoTaskDisjunctivePropagator) String() string { return "TwoTaskDisjunctivePropagator" }

func (p *TwoTaskDisjunctivePropagator) PropagationConditions(slot int) EventMask {
	return EventLowerBound | EventUpperBound | EventInstantiate
}

// Propagate runs the ordering rule to a fixpoint: re-running after any
// of its own updates until no update moves a bound, since a single pass
// through the rule below can enable another application of itself (e.g.
// tightening a.lct can newly satisfy the intersect test).
func (p *TwoTaskDisjunctivePropagator) Propagate(engine *Engine, self int) error {
	for {
		changed, err := p.propagateOnce()
		if err != nil {
			return err
		}
		if !changed {
			break
		}
	}
	if p.IsEntailed() == EntailmentTrue {
		engine.SetPassive(self)
	}
	return nil
}

func (p *TwoTaskDisjunctivePropagator) propagateOnce() (bool, error) {
	a, b := p.a, p.b
	if !mayBePerformed(a, p.heightA) || !mayBePerformed(b, p.heightB) {
		return false, nil
	}
	// A task whose duration is fixed to 0 occupies no interval.
	if a.MaxDuration() == 0 || b.MaxDuration() == 0 {
		return false, nil
	}

	if intersect(a, b) {
		return p.forceWeakerOff()
	}

	changed := false
	if a.Lst() < b.Ect() {
		if mustBePerformed(a, p.heightA) {
			c, err := filterEst(b, a.Ect(), p.heightB, "two-task-disjunctive: a before b")
			if err != nil {
				return changed, err
			}
			changed = changed || c
		}
		if mustBePerformed(b, p.heightB) {
			c, err := filterLct(a, b.Lst(), p.heightA, "two-task-disjunctive: a before b")
			if err != nil {
				return changed, err
			}
			changed = changed || c
		}
	} else {
		if mustBePerformed(b, p.heightB) {
			c, err := filterEst(a, b.Ect(), p.heightA, "two-task-disjunctive: b before a")
			if err != nil {
				return changed, err
			}
			changed = changed || c
		}
		if mustBePerformed(a, p.heightA) {
			c, err := filterLct(b, a.Lst(), p.heightB, "two-task-disjunctive: b before a")
			if err != nil {
				return changed, err
			}
			changed = changed || c
		}
	}
	return changed, nil
}

// forceWeakerOff handles the intersecting-compulsory-parts case: if both
// tasks are mandatory on this resource, the overlap is a genuine
// infeasibility; otherwise the non-mandatory side is excluded.
func (p *TwoTaskDisjunctivePropagator) forceWeakerOff() (bool, error) {
	aMust := mustBePerformed(p.a, p.heightA)
	bMust := mustBePerformed(p.b, p.heightB)
	switch {
	case aMust && bMust:
		return false, Fail("two-task-disjunctive: mandatory tasks %s and %s have overlapping compulsory parts", p.a, p.b)
	case aMust:
		return filterOptionalTask(p.b, p.heightB, "two-task-disjunctive: forced off by intersection")
	default:
		return filterOptionalTask(p.a, p.heightA, "two-task-disjunctive: forced off by intersection")
	}
}

// IsEntailed reports TRUE when the windows cannot intersect or
// either task cannot be performed, FALSE when an intersection is
// witnessed with both tasks mandatory, UNDEFINED otherwise.
func (p *TwoTaskDisjunctivePropagator) IsEntailed() EntailmentStatus {
	if !mayBePerformed(p.a, p.heightA) || !mayBePerformed(p.b, p.heightB) {
		return EntailmentTrue
	}
	if intersect(p.a, p.b) {
		if mustBePerformed(p.a, p.heightA) && mustBePerformed(p.b, p.heightB) {
			return EntailmentFalse
		}
		return EntailmentUndefined
	}
	if p.a.Lct() <= p.b.Est() || p.b.Lct() <= p.a.Est() {
		return EntailmentTrue
	}
	return EntailmentUndefined
}
