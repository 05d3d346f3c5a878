package rescore

import "sort"

// NAryDisjunctivePropagator composes five filters to a fixpoint: overload
// checking, detectable precedences, not-first/not-last, edge-finding,
// and immediate selections, each run on both the forward and mirrored
// task views so the dual rules (not-first from not-last, lct from est)
// fall out of the same code.
//
// Follows an inner-loop-restarts-on-change discipline: a propagate pass
// loops its own bound-consistency fixpoint until nothing more fires.
type NAryDisjunctivePropagator struct {
	tasks   []TaskLike
	heights []*IntVar // nil entries allowed (unit height)
}

// NewNAryDisjunctivePropagator builds the n-ary disjunctive propagator
// over tasks. heights may be nil (unit-height disjunctive) or a
// parallel slice with nil entries for unit-height tasks.
func NewNAryDisjunctivePropagator(tasks []TaskLike, heights []*IntVar) *NAryDisjunctivePropagator {
	return &NAryDisjunctivePropagator{tasks: tasks, heights: heights}
}

func (p *NAryDisjunctivePropagator) Variables() []*IntVar {
	var vars []*IntVar
	for i, t := range p.tasks {
		vars = append(vars, t.Vars()...)
		if h := heightAt(p.heights, i); h != nil {
			vars = append(vars, h)
		}
	}
	return vars
}

func (p *NAryDisjunctivePropagator) Type() string { return "n-ary-disjunctive" }

func (p *NAryDisjunctivePropagator) String() string { return "NAryDisjunctivePropagator" }

func (p *NAryDisjunctivePropagator) PropagationConditions(slot int) EventMask {
	return EventLowerBound | EventUpperBound | EventInstantiate
}

// mandatory returns the subset of tasks/heights that must occupy the
// resource given current bounds.
func (p *NAryDisjunctivePropagator) mandatory() []TaskLike {
	var out []TaskLike
	for i, t := range p.tasks {
		if mustBePerformed(t, heightAt(p.heights, i)) {
			out = append(out, t)
		}
	}
	return out
}

func (p *NAryDisjunctivePropagator) mayRun() []TaskLike {
	var out []TaskLike
	for i, t := range p.tasks {
		if mayBePerformed(t, heightAt(p.heights, i)) {
			out = append(out, t)
		}
	}
	return out
}

// Propagate restarts the combined inner loop whenever any filter fires,
// running every filter (and its mirror) until a full round changes
// nothing.
func (p *NAryDisjunctivePropagator) Propagate(engine *Engine, self int) error {
	for {
		anyChanged := false

		for _, view := range []func([]TaskLike) []TaskLike{identity, mirrorAll} {
			tasks := view(p.mayRun())

			c, err := overloadCheck(tasks)
			if err != nil {
				return err
			}
			anyChanged = anyChanged || c

			c, err = detectablePrecedences(tasks)
			if err != nil {
				return err
			}
			anyChanged = anyChanged || c

			c, err = notFirstNotLast(tasks)
			if err != nil {
				return err
			}
			anyChanged = anyChanged || c

			c, err = edgeFindingAdjust(tasks)
			if err != nil {
				return err
			}
			anyChanged = anyChanged || c

			c, err = immediateSelections(tasks)
			if err != nil {
				return err
			}
			anyChanged = anyChanged || c
		}

		if !anyChanged {
			break
		}
	}

	if p.IsEntailed() == EntailmentTrue {
		engine.SetPassive(self)
	}
	return nil
}

func identity(tasks []TaskLike) []TaskLike { return tasks }

func mirrorAll(tasks []TaskLike) []TaskLike {
	out := make([]TaskLike, len(tasks))
	for i, t := range tasks {
		out[i] = t.Mirror()
	}
	return out
}

// overloadCheck is a theta-tree-based filter: mandatory
// tasks are added to the tree in increasing lct; the moment the tree's
// ect exceeds the task just added's own lct, the resource is overloaded.
func overloadCheck(tasks []TaskLike) (bool, error) {
	var mandatory []TaskLike
	for _, t := range tasks {
		if t.MustBePerformed() && t.MinDuration() > 0 {
			mandatory = append(mandatory, t)
		}
	}
	if len(mandatory) == 0 {
		return false, nil
	}
	sort.Slice(mandatory, func(i, j int) bool { return mandatory[i].Lct() < mandatory[j].Lct() })

	leaves := make([]ThetaLeaf, len(mandatory))
	for i, t := range mandatory {
		leaves[i] = ThetaLeaf{ID: i, Est: t.Est(), Proc: t.MinDuration()}
	}
	tree := NewThetaTree(leaves)
	for i, t := range mandatory {
		tree.Add(i)
		if tree.GetEct() > t.Lct() {
			return false, Fail("disjunctive overload: mandatory tasks cannot all complete by %d", t.Lct())
		}
	}
	return false, nil
}

// detectablePrecedences: a task known to start after another
// mandatory task's compulsory part necessarily begins can have its est
// pushed to that predecessor set's ect.
func detectablePrecedences(tasks []TaskLike) (bool, error) {
	changed := false
	for _, cur := range tasks {
		if !cur.MayBePerformed() {
			continue
		}
		var predecessors []TaskLike
		selfInSet := false
		for _, t := range tasks {
			if !t.MustBePerformed() || t.MinDuration() <= 0 {
				continue
			}
			if t.Lst() < cur.Ect() {
				predecessors = append(predecessors, t)
				if sameTask(t, cur) {
					selfInSet = true
				}
			}
		}
		if len(predecessors) == 0 {
			continue
		}
		leaves := make([]ThetaLeaf, len(predecessors))
		for i, t := range predecessors {
			leaves[i] = ThetaLeaf{ID: i, Est: t.Est(), Proc: t.MinDuration()}
		}
		tree := NewThetaTree(leaves)
		selfPos := -1
		for i, t := range predecessors {
			tree.Add(i)
			if sameTask(t, cur) {
				selfPos = i
			}
		}

		var newEst int
		if selfInSet && selfPos >= 0 {
			newEst = tree.GetEctWithout(selfPos)
		} else {
			newEst = tree.GetEct()
		}
		c, err := filterEst(cur, newEst, nil, "disjunctive: detectable precedence")
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}
	return changed, nil
}

// notFirstNotLast: if a task cannot complete before another
// mandatory task currently holding the latest compulsory-part start, it
// cannot be scheduled last among that set, which tightens its lct.
func notFirstNotLast(tasks []TaskLike) (bool, error) {
	changed := false
	for _, cur := range tasks {
		if !cur.MayBePerformed() {
			continue
		}
		var set []TaskLike
		for _, t := range tasks {
			if !t.MustBePerformed() || t.MinDuration() <= 0 {
				continue
			}
			if t.Lst() < cur.Lct() {
				set = append(set, t)
			}
		}
		if len(set) == 0 {
			continue
		}
		sort.Slice(set, func(i, j int) bool { return set[i].Lst() < set[j].Lst() })
		last := set[len(set)-1]
		if sameTask(last, cur) {
			continue
		}

		leaves := make([]ThetaLeaf, len(set))
		for i, t := range set {
			leaves[i] = ThetaLeaf{ID: i, Est: t.Est(), Proc: t.MinDuration()}
		}
		tree := NewThetaTree(leaves)
		curPos := -1
		for i, t := range set {
			tree.Add(i)
			if sameTask(t, cur) {
				curPos = i
			}
		}
		var ect int
		if curPos >= 0 {
			ect = tree.GetEctWithout(curPos)
		} else {
			ect = tree.GetEct()
		}
		if ect > last.Lst() {
			c, err := filterLct(cur, last.Lst(), nil, "disjunctive: not-first/not-last")
			if err != nil {
				return changed, err
			}
			changed = changed || c
		}
	}
	return changed, nil
}

// immediateSelections sweeps tasks ordered by decreasing lst
// against tasks ordered by decreasing ect; whenever an ect-sweep task
// cannot precede the task at the lst sweep, that ordering is forced the
// other way and both tasks are tightened. Only mandatory tasks with a
// positive minimum duration take part. Recorded and applied as a batch
// so the sweep itself observes a consistent snapshot.
func immediateSelections(tasks []TaskLike) (bool, error) {
	n := len(tasks)
	if n < 2 {
		return false, nil
	}
	byLst := append([]TaskLike(nil), tasks...)
	sort.Slice(byLst, func(i, j int) bool { return byLst[i].Lst() > byLst[j].Lst() })
	byEct := append([]TaskLike(nil), tasks...)
	sort.Slice(byEct, func(i, j int) bool { return byEct[i].Ect() > byEct[j].Ect() })

	type estPush struct {
		task TaskLike
		v    int
	}
	type lctPush struct {
		task TaskLike
		v    int
	}
	var estPushes []estPush
	var lctPushes []lctPush

	i1 := 0
	for i2 := 0; i2 < n; i2++ {
		cur := byLst[i2]
		for i1 < n && byEct[i1].Ect() > cur.Lst() {
			i1++
		}
		// Tasks byEct[0:i1] cannot complete by cur.Lst(), so none of
		// them can precede cur: cur runs before each of them. Each starts
		// no earlier than cur's ect, and cur ends by their smallest lst.
		if !cur.MustBePerformed() || cur.MinDuration() <= 0 {
			continue
		}
		minLst := PosInfinity
		for k := 0; k < i1; k++ {
			if sameTask(byEct[k], cur) || !byEct[k].MustBePerformed() || byEct[k].MinDuration() <= 0 {
				continue
			}
			if byEct[k].Lst() < minLst {
				minLst = byEct[k].Lst()
			}
			estPushes = append(estPushes, estPush{byEct[k], cur.Ect()})
		}
		if minLst < PosInfinity {
			lctPushes = append(lctPushes, lctPush{cur, minLst})
		}
	}

	changed := false
	for _, e := range estPushes {
		c, err := filterEst(e.task, e.v, nil, "disjunctive: immediate selection")
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}
	for _, l := range lctPushes {
		c, err := filterLct(l.task, l.v, nil, "disjunctive: immediate selection")
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}
	return changed, nil
}

func sameTask(a, b TaskLike) bool {
	av, bv := a.Vars(), b.Vars()
	if len(av) == 0 || len(bv) == 0 {
		return false
	}
	return av[0] == bv[0]
}

// IsEntailed reports FALSE as soon as two mandatory tasks with positive
// duration have overlapping compulsory parts, TRUE once every task is
// fixed and no such pair exists, and UNDEFINED otherwise.
func (p *NAryDisjunctivePropagator) IsEntailed() EntailmentStatus {
	return isEntailed(true, p.tasks, p.heights, nil)
}
