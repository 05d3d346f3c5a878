// Command schedcore-demo posts a small disjunctive model and a small
// cumulative model against the resource-scheduling propagation core and
// prints the bounds each prunes to.
package main

import (
	"fmt"

	"github.com/gitrdm/rescore/pkg/rescore"
)

func main() {
	runDisjunctiveDemo()
	fmt.Println()
	runCumulativeDemo()
}

// runDisjunctiveDemo posts three unit-height tasks over a shared
// single-slot resource and lets n-ary disjunctive filtering narrow
// their windows before any search takes place.
func runDisjunctiveDemo() {
	fmt.Println("=== Disjunctive Demo (3 tasks, 1 resource) ===")

	env := rescore.NewEnvironment()
	engine := rescore.NewEngine(env, nil)
	engine.SetStats(rescore.NewStats())

	spec := []struct {
		name           string
		est, lct, proc int
	}{
		{"A", 0, 20, 5},
		{"B", 0, 20, 4},
		{"C", 3, 20, 6},
	}

	tasks := make([]rescore.TaskLike, len(spec))
	for i, s := range spec {
		start := rescore.NewIntVar(env, 3*i, s.est, s.lct-s.proc, s.name+".start")
		dur := rescore.NewIntVarFixed(env, 3*i+1, s.proc, s.name+".duration")
		end := rescore.NewIntVar(env, 3*i+2, s.est+s.proc, s.lct, s.name+".end")
		tasks[i] = rescore.NewManagedTask(engine, i, start, dur, end)
	}

	rescore.Disjunctive(engine, tasks)

	if err := engine.RunToFixpoint(); err != nil {
		fmt.Printf("infeasible: %v\n", err)
		return
	}

	for _, t := range tasks {
		fmt.Printf("  %s\n", t)
	}
}

// runCumulativeDemo posts three tasks with varying demand against a
// resource of capacity 3 and lets the time-table/overload filters
// narrow their windows.
func runCumulativeDemo() {
	fmt.Println("=== Cumulative Demo (3 tasks, capacity=3) ===")

	env := rescore.NewEnvironment()
	engine := rescore.NewEngine(env, nil)
	engine.SetStats(rescore.NewStats())

	capacity := rescore.NewIntVarFixed(env, 100, 3, "capacity")

	spec := []struct {
		name                   string
		est, lct, proc, demand int
	}{
		{"A", 0, 10, 2, 2},
		{"B", 0, 10, 2, 1},
		{"C", 0, 10, 3, 1},
	}

	tasks := make([]rescore.TaskLike, len(spec))
	heights := make([]*rescore.IntVar, len(spec))
	for i, s := range spec {
		start := rescore.NewIntVar(env, 10+3*i, s.est, s.lct-s.proc, s.name+".start")
		dur := rescore.NewIntVarFixed(env, 10+3*i+1, s.proc, s.name+".duration")
		end := rescore.NewIntVar(env, 10+3*i+2, s.est+s.proc, s.lct, s.name+".end")
		tasks[i] = rescore.NewManagedTask(engine, 10+i, start, dur, end)
		heights[i] = rescore.NewIntVarFixed(env, 20+i, s.demand, s.name+".height")
	}

	rescore.Cumulative(engine, tasks, heights, capacity)

	if err := engine.RunToFixpoint(); err != nil {
		fmt.Printf("infeasible: %v\n", err)
		return
	}

	for _, t := range tasks {
		fmt.Printf("  %s\n", t)
	}
}
