package rescore

// This file holds the shared filtering primitives used by every resource
// propagator: mayBePerformed/mustBePerformed gated by an optional height,
// filterOptionalTask, the filterXxx family that prefers excluding a task
// from the resource over failing outright when that is sound, the
// interleaving test intersect, and the shared isEntailed used by both the
// disjunctive and cumulative propagators.
//
// Shaped like the small static helper functions shared by several
// constraints elsewhere in this package; the height-gated semantics
// themselves are specific to resource scheduling and built fresh here.

// mayBePerformed reports whether task can still occupy the resource: its
// own presence allows it, and (if height is given) height's upper bound
// is still positive.
func mayBePerformed(task TaskLike, height *IntVar) bool {
	if height != nil && height.UB() <= 0 {
		return false
	}
	return task.MayBePerformed()
}

// mustBePerformed reports whether task is certain to occupy the
// resource: its own presence requires it, and (if height is given)
// height's lower bound is already positive.
func mustBePerformed(task TaskLike, height *IntVar) bool {
	if height != nil && height.LB() <= 0 {
		return false
	}
	return task.MustBePerformed()
}

// filterOptionalTask forces task out of the resource: by closing height
// to 0 when a height variable is given, otherwise by routing through the
// task's own presence gate. Calling this against a task with neither (a
// plain mandatory Task and no height) surfaces the contract violation
// Task.ForceToBeOptional raises — this filter must never be called in
// that situation.
func filterOptionalTask(task TaskLike, height *IntVar, cause string) (bool, error) {
	if height != nil {
		return height.UpdateUpperBound(0, cause)
	}
	if err := task.ForceToBeOptional(cause); err != nil {
		return false, err
	}
	return true, nil
}

// softFail runs update and, if it reports a genuine (non-contract)
// failure while the task carries a zero-lower-bound height and is not
// already mandatory on this resource, converts the failure into
// excluding the task via filterOptionalTask instead of propagating it
// (setting height.ub <- 0 instead of applying the update).
func softFail(task TaskLike, height *IntVar, changed bool, err error, cause string) (bool, error) {
	if err == nil {
		return changed, nil
	}
	if !IsFailure(err) || height == nil || height.LB() != 0 || mustBePerformed(task, height) {
		return changed, err
	}
	return filterOptionalTask(task, height, cause)
}

func filterEst(task TaskLike, v int, height *IntVar, cause string) (bool, error) {
	c, err := task.UpdateEst(v, cause)
	return softFail(task, height, c, err, cause)
}

func filterLst(task TaskLike, v int, height *IntVar, cause string) (bool, error) {
	c, err := task.UpdateLst(v, cause)
	return softFail(task, height, c, err, cause)
}

func filterEct(task TaskLike, v int, height *IntVar, cause string) (bool, error) {
	c, err := task.UpdateEct(v, cause)
	return softFail(task, height, c, err, cause)
}

func filterLct(task TaskLike, v int, height *IntVar, cause string) (bool, error) {
	c, err := task.UpdateLct(v, cause)
	return softFail(task, height, c, err, cause)
}

func filterMinDuration(task TaskLike, v int, height *IntVar, cause string) (bool, error) {
	c, err := task.UpdateMinDuration(v, cause)
	return softFail(task, height, c, err, cause)
}

func filterMaxDuration(task TaskLike, v int, height *IntVar, cause string) (bool, error) {
	c, err := task.UpdateMaxDuration(v, cause)
	return softFail(task, height, c, err, cause)
}

// intersect reports whether a and b may both be performed and their
// start windows interleave: b can start before a finishes and a
// can start before b finishes.
func intersect(a, b TaskLike) bool {
	if !a.MayBePerformed() || !b.MayBePerformed() {
		return false
	}
	return b.Lst() < a.Ect() && a.Lst() < b.Ect()
}

func heightLB(height *IntVar) int {
	if height == nil {
		return 1
	}
	return height.LB()
}

func heightUB(height *IntVar) int {
	if height == nil {
		return 1
	}
	return height.UB()
}

// isEntailed implements the shared entailment contract for both resource kinds:
// FALSE the moment a violation is witnessed among mandatory tasks
// (overlapping compulsory parts for disjunctive, an overloaded instant
// for cumulative); TRUE only once every task, height and the capacity
// (when given) are instantiated and no violation holds; UNDEFINED
// otherwise.
func isEntailed(isDisjunctive bool, tasks []TaskLike, heights []*IntVar, capacity *IntVar) EntailmentStatus {
	allFixed := capacity == nil || capacity.IsInstantiated()
	for i, t := range tasks {
		if !taskFixed(t) {
			allFixed = false
		}
		if heights != nil && heights[i] != nil && !heights[i].IsInstantiated() {
			allFixed = false
		}
	}

	if isDisjunctive {
		for i := 0; i < len(tasks); i++ {
			hi := heightAt(heights, i)
			if !mustBePerformed(tasks[i], hi) || tasks[i].MinDuration() <= 0 || heightLB(hi) <= 0 {
				continue
			}
			for j := i + 1; j < len(tasks); j++ {
				hj := heightAt(heights, j)
				if !mustBePerformed(tasks[j], hj) || tasks[j].MinDuration() <= 0 || heightLB(hj) <= 0 {
					continue
				}
				if tasks[j].Lst() < tasks[i].Ect() && tasks[i].Lst() < tasks[j].Ect() {
					return EntailmentFalse
				}
			}
		}
	} else {
		cap := PosInfinity
		if capacity != nil {
			cap = capacity.UB()
		}
		for i, t := range tasks {
			hi := heightAt(heights, i)
			if !mustBePerformed(t, hi) || !t.HasCompulsoryPart() {
				continue
			}
			at := t.Lst()
			sum := 0
			for j, u := range tasks {
				hj := heightAt(heights, j)
				if !mustBePerformed(u, hj) {
					continue
				}
				if u.Lst() <= at && at < u.Ect() {
					sum += heightLB(hj)
				}
			}
			if sum > cap {
				return EntailmentFalse
			}
		}
	}

	if allFixed {
		return EntailmentTrue
	}
	return EntailmentUndefined
}

func heightAt(heights []*IntVar, i int) *IntVar {
	if heights == nil {
		return nil
	}
	return heights[i]
}

func taskFixed(t TaskLike) bool {
	if !t.MayBePerformed() {
		return t.MustBePerformed() == t.MayBePerformed()
	}
	return t.MustBePerformed() &&
		t.Est() == t.Lst() &&
		t.Ect() == t.Lct() &&
		t.MinDuration() == t.MaxDuration()
}
