// Package rescore provides the resource-scheduling constraint core of a
// constraint-programming solver: bound-consistency on task triples,
// time-table reasoning, edge-finding, overload checking, detectable
// precedences, not-first/not-last, and the supporting trailed memory,
// event-point profiles, theta-tree and ascendant-set search tree.
//
// This file defines the trailed (backtrackable) memory subsystem. The host
// solver in a production system would own this; here it is provided
// in-process so the module is self-contained. Reworked around real
// trailed cells rather than copy-on-write state snapshots, since the
// propagators in this package need bound-only, signed, possibly
// huge-range integers restored on backtrack rather than enumerated
// bitset domains.
package rescore

// Environment is a trailed (backtrackable) memory manager. It hands out
// TrailedInt cells whose mutations are journaled; PushWorld marks a
// restore point and PopWorld rewinds every cell (and every registered
// one-shot action) back to the values they held at the matching Push.
//
// Environment is not safe for concurrent use: propagation in this package
// is single-threaded cooperative.
type Environment struct {
	trail    []trailEntry
	worlds   []int // trail length at each PushWorld
	onBacktrack []backtrackAction
	actionMarks []int
}

type trailEntry struct {
	cell *TrailedInt
	old  int
}

type backtrackAction struct {
	fn func()
}

// NewEnvironment creates an empty trailed environment at world depth 0.
func NewEnvironment() *Environment {
	return &Environment{}
}

// WorldIndex returns the current backtrack depth (number of PushWorld calls
// not yet matched by PopWorld).
func (e *Environment) WorldIndex() int {
	return len(e.worlds)
}

// PushWorld opens a new backtrackable choice point.
func (e *Environment) PushWorld() {
	e.worlds = append(e.worlds, len(e.trail))
	e.actionMarks = append(e.actionMarks, len(e.onBacktrack))
}

// PopWorld restores every trailed cell modified since the matching
// PushWorld to its prior value, and fires (in reverse order of
// registration) every one-shot action saved since then. It is a
// contract violation to pop without a matching push.
func (e *Environment) PopWorld() {
	if len(e.worlds) == 0 {
		panic(ContractViolation("PopWorld called without a matching PushWorld"))
	}
	mark := e.worlds[len(e.worlds)-1]
	e.worlds = e.worlds[:len(e.worlds)-1]

	for i := len(e.trail) - 1; i >= mark; i-- {
		entry := e.trail[i]
		entry.cell.value = entry.old
	}
	e.trail = e.trail[:mark]

	actionMark := e.actionMarks[len(e.actionMarks)-1]
	e.actionMarks = e.actionMarks[:len(e.actionMarks)-1]
	for i := len(e.onBacktrack) - 1; i >= actionMark; i-- {
		e.onBacktrack[i].fn()
	}
	e.onBacktrack = e.onBacktrack[:actionMark]
}

// Save schedules a one-shot restore action to run the next time the
// environment backtracks past the current world.
func (e *Environment) Save(action func()) {
	e.onBacktrack = append(e.onBacktrack, backtrackAction{fn: action})
}

// MakeInt returns a new trailed integer initialized to value.
func (e *Environment) MakeInt(value int) *TrailedInt {
	return &TrailedInt{env: e, value: value}
}

// TrailedInt is an integer whose modifications are journaled on its
// Environment's trail, so that PopWorld restores it to what it held at
// the matching PushWorld.
type TrailedInt struct {
	env   *Environment
	value int
}

// Get returns the current value.
func (t *TrailedInt) Get() int {
	return t.value
}

// Set records the current value on the trail and stores newValue. A no-op
// write (newValue == current value) is not journaled.
func (t *TrailedInt) Set(newValue int) {
	if newValue == t.value {
		return
	}
	t.env.trail = append(t.env.trail, trailEntry{cell: t, old: t.value})
	t.value = newValue
}

// Add is shorthand for Set(Get() + delta).
func (t *TrailedInt) Add(delta int) {
	t.Set(t.value + delta)
}
