package rescore

import "sort"

// CumulativeVariant selects which of three internal strategies an
// NAryCumulativePropagator runs. The Cumulative factory picks
// CumulativeBacktrackable or CumulativeGraph; CumulativeTransient is
// reached only through NewNAryCumulativePropagator.
type CumulativeVariant int

const (
	// CumulativeTransient rebuilds its profile from scratch on every
	// Propagate call; the simplest strategy.
	CumulativeTransient CumulativeVariant = iota
	// CumulativeBacktrackable allocates a trailed BacktrackableProfile,
	// but its filtering does not read it: like CumulativeTransient, it
	// rebuilds a transient profile from scratch on every Propagate call.
	CumulativeBacktrackable
	// CumulativeGraph additionally maintains an overlap graph and
	// scopes incremental work to a changed task's neighborhood when
	// that neighborhood is small.
	CumulativeGraph
)

// NAryCumulativePropagator composes three filters to a local fixpoint:
// time-table sweep (rebuilding the profile until stable), Vilím (2011)
// overload checking, and the height-upper-bound update derived from the
// profile.
//
// Shaped like a cumulative constraint that owns a slice of tasks/heights
// plus a capacity; the filtering algorithms themselves are new code.
type NAryCumulativePropagator struct {
	tasks    []TaskLike
	heights  []*IntVar
	capacity *IntVar

	variant   CumulativeVariant
	btProfile *BacktrackableProfile

	// neighbors[i] holds the indices of tasks whose [est,lct) windows
	// overlap task i's, used only by CumulativeGraph.
	neighbors [][]int
}

// NewNAryCumulativePropagator builds the cumulative propagator for
// tasks/heights against capacity using the given variant. env is only
// consulted for CumulativeBacktrackable/CumulativeGraph, which need
// trailed storage for their profile.
func NewNAryCumulativePropagator(env *Environment, tasks []TaskLike, heights []*IntVar, capacity *IntVar, variant CumulativeVariant) *NAryCumulativePropagator {
	if len(tasks) != len(heights) {
		panic(ContractViolation("NewNAryCumulativePropagator: %d tasks but %d heights", len(tasks), len(heights)))
	}
	p := &NAryCumulativePropagator{tasks: tasks, heights: heights, capacity: capacity, variant: variant}
	if variant != CumulativeTransient {
		p.btProfile = NewBacktrackableProfile(env, len(tasks))
	}
	if variant == CumulativeGraph {
		p.rebuildGraph()
	}
	return p
}

func (p *NAryCumulativePropagator) rebuildGraph() {
	n := len(p.tasks)
	p.neighbors = make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if windowsOverlap(p.tasks[i], p.tasks[j]) {
				p.neighbors[i] = append(p.neighbors[i], j)
				p.neighbors[j] = append(p.neighbors[j], i)
			}
		}
	}
}

func windowsOverlap(a, b TaskLike) bool {
	return a.Est() < b.Lct() && b.Est() < a.Lct()
}

func (p *NAryCumulativePropagator) Variables() []*IntVar {
	vars := []*IntVar{p.capacity}
	for i, t := range p.tasks {
		vars = append(vars, t.Vars()...)
		if h := p.heights[i]; h != nil {
			vars = append(vars, h)
		}
	}
	return vars
}

func (p *NAryCumulativePropagator) Type() string { return "n-ary-cumulative" }

func (p *NAryCumulativePropagator) String() string { return "NAryCumulativePropagator" }

func (p *NAryCumulativePropagator) PropagationConditions(slot int) EventMask {
	return EventLowerBound | EventUpperBound | EventInstantiate
}

func (p *NAryCumulativePropagator) buildOrRebuildProfile() *Profile {
	if p.btProfile == nil {
		profile, _ := buildProfile(p.tasks, p.heights)
		return profile
	}
	p.btProfile.Rebuild(p.tasks, p.heights)
	return profileFromBacktrackable(p.btProfile)
}

func profileFromBacktrackable(bp *BacktrackableProfile) *Profile {
	rects := make([]rectangle, bp.Size())
	for i := range rects {
		rects[i] = bp.At(i)
	}
	return &Profile{rects: rects}
}

// Propagate runs (a) time-table, (b) overload, (c) height update to a
// fixpoint over p.tasks/p.heights.
func (p *NAryCumulativePropagator) Propagate(engine *Engine, self int) error {
	return p.propagateOver(p.tasks, p.heights, engine, self)
}

// PropagateOne implements incrementalPropagator for the graph variant:
// when the changed task has fewer than 2n neighbors, only that
// neighborhood is re-filtered; otherwise it falls back to the full
// Propagate. Non-graph variants always take the full-propagate path,
// since they maintain no neighbor scoping.
func (p *NAryCumulativePropagator) PropagateOne(engine *Engine, self int, slot int, mask EventMask) error {
	if p.variant != CumulativeGraph {
		return p.Propagate(engine, self)
	}

	changedTaskIdx := p.taskIndexForSlot(slot)
	if changedTaskIdx < 0 {
		return p.Propagate(engine, self)
	}
	neighbors := p.neighbors[changedTaskIdx]
	if len(neighbors) >= 2*len(p.tasks) {
		return p.Propagate(engine, self)
	}

	scope := append([]int{changedTaskIdx}, neighbors...)
	localTasks := make([]TaskLike, len(scope))
	localHeights := make([]*IntVar, len(scope))
	for i, idx := range scope {
		localTasks[i] = p.tasks[idx]
		localHeights[i] = p.heights[idx]
	}
	return p.propagateOver(localTasks, localHeights, engine, self)
}

// taskIndexForSlot maps a Variables() slot back to the task it belongs
// to. Each task contributes len(Vars())+1 (height) consecutive slots
// after the leading capacity slot.
func (p *NAryCumulativePropagator) taskIndexForSlot(slot int) int {
	if slot == 0 {
		return -1 // capacity itself; no single task owns it
	}
	cursor := 1
	for i, t := range p.tasks {
		width := len(t.Vars())
		if p.heights[i] != nil {
			width++
		}
		if slot < cursor+width {
			return i
		}
		cursor += width
	}
	return -1
}

func (p *NAryCumulativePropagator) propagateOver(tasks []TaskLike, heights []*IntVar, engine *Engine, self int) error {
	for {
		changed := false

		c, profile, err := timeTableFilter(tasks, heights, p.capacity)
		if err != nil {
			return err
		}
		changed = changed || c

		c, err = cumulativeOverloadCheck(tasks, heights, p.capacity)
		if err != nil {
			return err
		}
		changed = changed || c

		c, err = heightUpdate(tasks, heights, p.capacity, profile)
		if err != nil {
			return err
		}
		changed = changed || c

		if !changed {
			break
		}
	}

	if p.IsEntailed() == EntailmentTrue {
		engine.SetPassive(self)
	}
	return nil
}

// timeTableFilter rebuilds the profile, sweeps every
// task forward from its est and backward from its lct looking for a
// profile rectangle whose height would overflow capacity once the
// task's own height is added in, pushing est/lct past it. Rebuilds and
// restarts whenever a task's move could have changed the profile
// (it remains mandatory with a compulsory part).
func timeTableFilter(tasks []TaskLike, heights []*IntVar, capacity *IntVar) (bool, *Profile, error) {
	anyChanged := false
	var profile *Profile
	for {
		profile, _ = buildProfile(tasks, heights)
		roundChanged := false

		for i, t := range tasks {
			h := heightAt(heights, i)
			if !mayBePerformed(t, h) {
				continue
			}

			limit := minInt(t.Ect(), t.Lst())
			idx := profile.find(t.Est())
			for idx < profile.Len() && profile.At(idx).start < limit {
				rect := profile.At(idx)
				if capacity.UB()-heightLB(h) < rect.height {
					newEst := minInt(t.Lst(), rect.end)
					ch, err := filterEst(t, newEst, h, "cumulative: time-table forward sweep")
					if err != nil {
						return anyChanged, profile, err
					}
					if ch {
						roundChanged = true
					}
					break
				}
				idx++
			}

			floor := maxInt(t.Ect(), t.Lst())
			idx2 := profile.find(t.Lct() - 1)
			for idx2 >= 0 && profile.At(idx2).end > floor {
				rect := profile.At(idx2)
				if capacity.UB()-heightLB(h) < rect.height {
					newLct := maxInt(rect.start, t.Ect())
					ch, err := filterLct(t, newLct, h, "cumulative: time-table backward sweep")
					if err != nil {
						return anyChanged, profile, err
					}
					if ch {
						roundChanged = true
					}
					break
				}
				idx2--
			}
		}

		anyChanged = anyChanged || roundChanged
		if !roundChanged {
			return anyChanged, profile, nil
		}
	}
}

// heightUpdate checks every profile rectangle overlapping a
// mandatory task's own compulsory part bounds how much more height that
// rectangle can tolerate, net of the task's own contribution.
func heightUpdate(tasks []TaskLike, heights []*IntVar, capacity *IntVar, profile *Profile) (bool, error) {
	changed := false
	for i, t := range tasks {
		h := heightAt(heights, i)
		if h == nil || !mustBePerformed(t, h) || !t.HasCompulsoryPart() {
			continue
		}
		idx := profile.find(t.Lst())
		for idx < profile.Len() && profile.At(idx).start < t.Ect() {
			rect := profile.At(idx)
			newUB := capacity.UB() - (rect.height - h.LB())
			c, err := h.UpdateUpperBound(newUB, "cumulative: height update")
			if err != nil {
				return changed, err
			}
			changed = changed || c
			idx++
		}
	}
	return changed, nil
}

// cumulativeOverloadCheck implements Vilím (2011): compute
// ttAfter at every mandatory task's est/lct, then scan tasks with
// positive free duration in increasing est, accumulating the minimum
// energy that must be packed into [est(a), lct(b)) and comparing it to
// the capacity the window actually offers.
func cumulativeOverloadCheck(tasks []TaskLike, heights []*IntVar, capacity *IntVar) (bool, error) {
	var pointSet []int
	for i, t := range tasks {
		h := heightAt(heights, i)
		if mustBePerformed(t, h) {
			pointSet = append(pointSet, t.Est(), t.Lct())
		}
	}
	if len(pointSet) == 0 {
		return false, nil
	}
	profile, _ := buildProfile(tasks, heights)
	ttAfter := make(map[int]int, len(pointSet))
	for _, pt := range pointSet {
		if _, ok := ttAfter[pt]; ok {
			continue
		}
		ttAfter[pt] = areaRightOf(profile, pt)
	}

	type candidate struct {
		idx     int
		freeDur int
	}
	var cands []candidate
	for i, t := range tasks {
		h := heightAt(heights, i)
		if !mayBePerformed(t, h) {
			continue
		}
		freeDur := t.MinDuration() - maxInt(0, t.Ect()-t.Lst())
		if freeDur > 0 {
			cands = append(cands, candidate{i, freeDur})
		}
	}
	sort.Slice(cands, func(x, y int) bool {
		tx, ty := tasks[cands[x].idx], tasks[cands[y].idx]
		if tx.Est() != ty.Est() {
			return tx.Est() < ty.Est()
		}
		return tx.Est()+cands[x].freeDur < ty.Est()+cands[y].freeDur
	})

	for bi := range cands {
		b := tasks[cands[bi].idx]
		hb := heightAt(heights, cands[bi].idx)

		subset := append([]candidate(nil), cands[:bi+1]...)
		sort.Slice(subset, func(x, y int) bool {
			return tasks[subset[x].idx].Est() > tasks[subset[y].idx].Est()
		})

		eEF := 0
		for _, a := range subset {
			ta := tasks[a.idx]
			ha := heightAt(heights, a.idx)
			if ta.Lct() > b.Lct() {
				continue
			}
			eEF += a.freeDur * heightLB(ha)

			width := b.Lct() - ta.Est()
			limit := capacity.UB() * width
			rhs := eEF + ttAfter[ta.Est()] - ttAfter[b.Lct()]
			if limit < rhs {
				if mustBePerformed(b, hb) {
					return false, Fail("cumulative overload: energy %d exceeds capacity*width %d over [%d,%d)", rhs, limit, ta.Est(), b.Lct())
				}
				return filterOptionalTask(b, hb, "cumulative: overload forces task optional")
			}
		}
	}
	return false, nil
}

func areaRightOf(profile *Profile, point int) int {
	area := 0
	for i := 0; i < profile.Len(); i++ {
		r := profile.At(i)
		if r.height == 0 {
			continue
		}
		lo, hi := maxInt(r.start, point), r.end
		if lo >= hi {
			continue
		}
		area += (hi - lo) * r.height
	}
	return area
}

// IsEntailed delegates to the shared cumulative entailment rule.
func (p *NAryCumulativePropagator) IsEntailed() EntailmentStatus {
	return isEntailed(false, p.tasks, p.heights, p.capacity)
}
