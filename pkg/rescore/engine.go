package rescore

import "fmt"

// EngineConfig holds propagation/search tuning knobs: a plain struct of
// defaults, constructed via DefaultEngineConfig and attached at Engine
// construction.
type EngineConfig struct {
	// MaxPropagationRounds bounds the number of propagator activations
	// drained per RunToFixpoint call, a literal maxIterations safety valve
	// on the propagate loop. A correctly implemented fixpoint never needs
	// it; it exists so a bug in a propagator surfaces as an error instead
	// of a hang.
	MaxPropagationRounds int
}

// DefaultEngineConfig returns the engine's default tuning.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{MaxPropagationRounds: 1_000_000}
}

// Engine schedules propagators to a fixpoint over a shared Environment.
// Rather than re-scanning every constraint each round against a
// copy-on-write solver state, Engine mutates IntVar bounds in place
// through trailed cells and uses an IntQueueSet so only propagators
// actually touched by the last round of bound changes are re-examined.
// Alongside the queue it keeps a side-channel of the (slot, mask) events
// that scheduled each propagator, so a propagator woken by exactly one
// event can be driven through its cheaper incrementalPropagator entry
// point instead of a full Propagate.
type Engine struct {
	env    *Environment
	config *EngineConfig
	stats  *Stats

	props   []Propagator
	active  []*TrailedInt // 0 = ACTIVE, 1 = PASSIVE
	queue   *IntQueueSet
	pending [][]pendingEvent // pending[idx]: events accumulated for props[idx] since its last drain
}

// pendingEvent records a single variable event that scheduled a
// propagator, so its drain can decide between Propagate and PropagateOne.
type pendingEvent struct {
	slot int
	mask EventMask
}

// NewEngine creates an engine bound to env with the given configuration.
// Pass nil for config to use DefaultEngineConfig().
func NewEngine(env *Environment, config *EngineConfig) *Engine {
	if config == nil {
		config = DefaultEngineConfig()
	}
	return &Engine{
		env:    env,
		config: config,
		queue:  NewIntQueueSet(0),
	}
}

// SetStats attaches a statistics collector; pass nil to detach.
func (e *Engine) SetStats(stats *Stats) { e.stats = stats }

// Env returns the engine's trailed environment, used by propagators that
// need their own backtrackable cells (profiles, ttAfter tables).
func (e *Engine) Env() *Environment { return e.env }

// Register adds a propagator to the engine, subscribes it to every
// variable it names, and schedules it for an initial propagation pass.
// Returns the propagator's stable index.
func (e *Engine) Register(p Propagator) int {
	idx := len(e.props)
	e.props = append(e.props, p)
	e.active = append(e.active, e.env.MakeInt(0))
	e.pending = append(e.pending, nil)

	// Grow the queue's backing capacity.
	grown := NewIntQueueSet(idx + 1)
	for i := 0; i < idx; i++ {
		if e.queue.Contains(i) {
			grown.Add(i)
		}
	}
	e.queue = grown

	for slot, v := range p.Variables() {
		v.subscribe(e, idx, slot)
	}
	e.queue.Add(idx)
	return idx
}

// SetPassive transitions propagator idx to PASSIVE: it stops reacting to
// variable events until the engine backtracks past the world in which
// SetPassive was called. Trailed so backtracking restores it to
// ACTIVE automatically.
func (e *Engine) SetPassive(idx int) {
	if e.stats != nil && e.active[idx].Get() == 0 {
		e.stats.RecordPassivation()
	}
	e.active[idx].Set(1)
}

// IsPassive reports whether propagator idx is currently passivated.
func (e *Engine) IsPassive(idx int) bool { return e.active[idx].Get() == 1 }

func (e *Engine) onVariableEvent(propID, slot int, mask EventMask) {
	if e.IsPassive(propID) {
		return
	}
	if !e.props[propID].PropagationConditions(slot).Intersects(mask) {
		return
	}
	if e.queue.Contains(propID) && len(e.pending[propID]) == 0 {
		return // still queued for its registration pass, a full Propagate
	}
	e.pending[propID] = append(e.pending[propID], pendingEvent{slot: slot, mask: mask})
	e.queue.Add(propID)
}

// PushWorld / PopWorld delegate to the environment, provided here so
// callers need only hold the Engine.
func (e *Engine) PushWorld() { e.env.PushWorld() }
func (e *Engine) PopWorld()  { e.env.PopWorld() }

// RunToFixpoint drains the activation queue, calling each active
// propagator until no propagator remains scheduled (every variable
// touched settled without triggering further events) or a propagator
// reports failure. A propagator's initial registration pass, and any
// drain woken by more than one pending event, runs its full Propagate;
// a drain woken by exactly one pending event is instead routed to
// PropagateOne when the propagator implements incrementalPropagator, so
// it can scope its own work to that single change instead of re-scanning
// everything it owns. Returns the failure (or contract violation) as an
// error; the caller is responsible for backtracking on *FailException.
func (e *Engine) RunToFixpoint() error {
	rounds := 0
	for !e.queue.IsEmpty() {
		rounds++
		if rounds > e.config.MaxPropagationRounds {
			return fmt.Errorf("propagation failed to reach fixed point after %d activations", rounds)
		}
		idx := e.queue.Remove()
		events := e.pending[idx]
		e.pending[idx] = nil
		if e.IsPassive(idx) {
			continue
		}
		if e.stats != nil {
			e.stats.RecordPropagation()
		}

		var err error
		if ip, ok := e.props[idx].(incrementalPropagator); ok && len(events) == 1 {
			err = ip.PropagateOne(e, idx, events[0].slot, events[0].mask)
		} else {
			err = e.props[idx].Propagate(e, idx)
		}
		if err != nil {
			if e.stats != nil && IsFailure(err) {
				e.stats.RecordBacktrack()
			}
			return err
		}
	}
	return nil
}

// Propagators returns the registered propagators in registration order.
func (e *Engine) Propagators() []Propagator {
	return e.props
}
