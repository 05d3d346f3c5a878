package rescore

import "sort"

// Disjunctive posts the disjunctive constraint over tasks in its
// unit-height form: the two-task closed form when exactly two tasks are
// given, the n-ary propagator otherwise, and nothing at all when there
// are fewer than two tasks to conflict over.
//
// Dispatches on the same "pair vs n-ary" split a no-overlap constraint
// for interval scheduling typically uses.
func Disjunctive(engine *Engine, tasks []TaskLike) {
	DisjunctiveWithHeights(engine, tasks, nil, nil)
}

// DisjunctiveWithHeights posts disjunctive(tasks, heights, capacity): a
// capacity propagator runs alongside the chosen disjunctive filter so
// height/capacity bounds stay consistent even though the disjunctive
// filter itself treats the resource as binary.
func DisjunctiveWithHeights(engine *Engine, tasks []TaskLike, heights []*IntVar, capacity *IntVar) {
	if capacity != nil {
		engine.Register(NewCapacityPropagator(engine.Env(), tasks, heights, capacity))
	}
	switch {
	case len(tasks) < 2:
		return
	case len(tasks) == 2:
		engine.Register(NewTwoTaskDisjunctivePropagator(tasks[0], tasks[1], heightAt(heights, 0), heightAt(heights, 1)))
	default:
		engine.Register(NewNAryDisjunctivePropagator(tasks, heights))
	}
}

// cumulativeGraphThreshold is the task count above which Cumulative
// chooses the graph-partitioned variant over the plain backtrackable
// one: the overlap graph it builds up front costs O(n^2), which only
// pays for itself once there are enough tasks that a single-task event
// can plausibly touch a small fraction of them.
const cumulativeGraphThreshold = 8

// Cumulative posts "cumulative(tasks, heights, capacity)": tasks with
// a structurally zero contribution (height.ub == 0 or maxDuration == 0)
// are dropped before posting, since they can never affect the resource.
// The remainder is partitioned once, at post-time, into
//
//  1. a single surviving task: an arithmetic height <= capacity
//     propagator (reusing CapacityPropagator, which already enforces
//     exactly that for any number of tasks and degrades to it for one);
//  2. capacity.ub <= 1: posted as disjunctive instead of cumulative,
//     since no two tasks can ever share the resource;
//  3. otherwise: a combined posting of the capacity propagator, an
//     n-ary disjunctive propagator restricted to the subset whose
//     minimum positive height exceeds half of capacity.ub (no two of
//     those can ever overlap either), and an n-ary cumulative
//     propagator over the full remaining set — CumulativeGraph once
//     there are more than cumulativeGraphThreshold tasks to scope
//     incremental work against, CumulativeBacktrackable below that.
func Cumulative(engine *Engine, tasks []TaskLike, heights []*IntVar, capacity *IntVar) {
	var liveTasks []TaskLike
	var liveHeights []*IntVar
	for i, t := range tasks {
		h := heightAt(heights, i)
		if heightUB(h) == 0 || t.MaxDuration() == 0 {
			continue
		}
		liveTasks = append(liveTasks, t)
		liveHeights = append(liveHeights, h)
	}
	if len(liveTasks) == 0 {
		return
	}

	engine.Register(NewCapacityPropagator(engine.Env(), liveTasks, liveHeights, capacity))

	if len(liveTasks) == 1 {
		return
	}

	if capacity.UB() <= 1 {
		DisjunctiveWithHeights(engine, liveTasks, liveHeights, nil)
		return
	}

	half := capacity.UB() / 2
	var heavy []TaskLike
	var heavyHeights []*IntVar
	for i, t := range liveTasks {
		h := liveHeights[i]
		if heightLB(h) > half {
			heavy = append(heavy, t)
			heavyHeights = append(heavyHeights, h)
		}
	}
	if len(heavy) >= 2 {
		engine.Register(NewNAryDisjunctivePropagator(heavy, heavyHeights))
	}

	variant := CumulativeBacktrackable
	if len(liveTasks) > cumulativeGraphThreshold {
		variant = CumulativeGraph
	}
	engine.Register(NewNAryCumulativePropagator(engine.Env(), liveTasks, liveHeights, capacity, variant))
}

// ArbitrationRule breaks ties among equally-preferred tasks in Smallest:
// a small int enum selected by a switch in the strategy's tie-break step.
type ArbitrationRule int

const (
	// RuleSmallestID prefers the task that was created first.
	RuleSmallestID ArbitrationRule = iota
	// RuleSmallestSlack prefers the task with the least lst-est slack.
	RuleSmallestSlack
	// RuleLargestDuration prefers the task with the largest minDuration.
	RuleLargestDuration
)

// BranchingStrategy is a thin search-interface contract, intentionally
// out of scope beyond it: Next picks the task to branch on next, or
// reports done when every task is already fixed.
type BranchingStrategy interface {
	Next() (TaskLike, bool)
}

type setTimesStrategy struct{ tasks []TaskLike }

// SetTimes returns a branching strategy that always picks the
// unfixed task with the lowest est.
func SetTimes(tasks []TaskLike) BranchingStrategy {
	return &setTimesStrategy{tasks: tasks}
}

func (s *setTimesStrategy) Next() (TaskLike, bool) {
	best := -1
	for i, t := range s.tasks {
		if taskFixed(t) {
			continue
		}
		if best == -1 || t.Est() < s.tasks[best].Est() {
			best = i
		}
	}
	if best == -1 {
		return nil, false
	}
	return s.tasks[best], true
}

type smallestStrategy struct {
	tasks []TaskLike
	rule  ArbitrationRule
}

// Smallest returns a branching strategy that picks the unfixed task
// with the lowest est, breaking ties per rule. An unrecognized rule is
// a contract violation, not a search failure.
func Smallest(tasks []TaskLike, rule ArbitrationRule) (BranchingStrategy, error) {
	switch rule {
	case RuleSmallestID, RuleSmallestSlack, RuleLargestDuration:
	default:
		return nil, ContractViolation("Smallest: unrecognized ArbitrationRule %d", rule)
	}
	return &smallestStrategy{tasks: tasks, rule: rule}, nil
}

func (s *smallestStrategy) Next() (TaskLike, bool) {
	var candidates []TaskLike
	bestEst := PosInfinity
	for _, t := range s.tasks {
		if taskFixed(t) {
			continue
		}
		switch {
		case t.Est() < bestEst:
			bestEst = t.Est()
			candidates = []TaskLike{t}
		case t.Est() == bestEst:
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		switch s.rule {
		case RuleSmallestSlack:
			return (a.Lst() - a.Est()) < (b.Lst() - b.Est())
		case RuleLargestDuration:
			return a.MinDuration() > b.MinDuration()
		default: // RuleSmallestID
			return a.Vars()[0].ID() < b.Vars()[0].ID()
		}
	})
	return candidates[0], true
}
