package rescore

import (
	"fmt"
	"math"
)

// NegInfinity and PosInfinity are the reserved sentinel bounds used
// throughout this package in place of the mathematical −∞/+∞ (compulsory-
// part sentinels, the ascendant-set search tree's ub/ksi, an absent
// OptionalTask's est/lct). Using INT_MIN/INT_MAX directly would overflow
// the moment a filter adds or subtracts a processing time or an offset;
// halving math.MinInt32/MaxInt32 leaves comfortable headroom for every
// addition this package performs while still comparing correctly against
// any realistic task bound.
const (
	NegInfinity = math.MinInt32 / 2
	PosInfinity = math.MaxInt32 / 2
)

// EventMask identifies the kinds of domain change a propagator can react
// to: lowerBound, upperBound, instantiate, remove.
type EventMask uint8

const (
	EventLowerBound EventMask = 1 << iota
	EventUpperBound
	EventInstantiate
	EventRemove
	EventNone EventMask = 0
	EventAll  EventMask = EventLowerBound | EventUpperBound | EventInstantiate | EventRemove
)

// Has reports whether mask includes every bit set in other.
func (m EventMask) Has(other EventMask) bool { return m&other == other }

// Intersects reports whether mask shares any bit with other.
func (m EventMask) Intersects(other EventMask) bool { return m&other != 0 }

type subscription struct {
	engine *Engine
	propID int
	slot   int
}

// IntVar is a bound-only integer domain variable: [lb, ub]. Propagators in
// this package never enumerate values, only read and tighten bounds.
// Bounds live in trailed cells so backtracking restores them automatically.
//
// Its id + domain + name shape mirrors a finite-domain variable, adapted
// from an enumerated bitset domain to a trailed bound pair since task
// bounds here are signed and may range up to NegInfinity/PosInfinity,
// which a bitset cannot represent.
type IntVar struct {
	id   int
	name string
	lb   *TrailedInt
	ub   *TrailedInt

	subs []subscription
}

// NewIntVarInterval creates a bound variable over [lb, ub]; an alias for
// NewIntVar kept under this name for the modeling-layer convenience
// constructors, echoing a declarative "variable over an interval" builder
// but building a bound-only IntVar directly rather than a constraint object.
func NewIntVarInterval(env *Environment, id int, lb, ub int, name string) *IntVar {
	return NewIntVar(env, id, lb, ub, name)
}

// NewIntVarFixed creates a variable already instantiated to value.
func NewIntVarFixed(env *Environment, id int, value int, name string) *IntVar {
	return NewIntVar(env, id, value, value, name)
}

// NewIntVar creates a bound variable over [lb, ub]. lb must be <= ub.
func NewIntVar(env *Environment, id int, lb, ub int, name string) *IntVar {
	if lb > ub {
		panic(ContractViolation("NewIntVar %s: lb %d > ub %d", name, lb, ub))
	}
	return &IntVar{
		id:   id,
		name: name,
		lb:   env.MakeInt(lb),
		ub:   env.MakeInt(ub),
	}
}

// ID returns the variable's unique index within its model.
func (v *IntVar) ID() int { return v.id }

// Name returns the variable's debug name.
func (v *IntVar) Name() string { return v.name }

// LB returns the current lower bound.
func (v *IntVar) LB() int { return v.lb.Get() }

// UB returns the current upper bound.
func (v *IntVar) UB() int { return v.ub.Get() }

// IsInstantiated reports whether the domain has collapsed to a single value.
func (v *IntVar) IsInstantiated() bool { return v.lb.Get() == v.ub.Get() }

// Value returns the singleton value. Panics if the variable is not
// instantiated; callers check IsInstantiated first.
func (v *IntVar) Value() int {
	if !v.IsInstantiated() {
		panic(ContractViolation("IntVar %s: Value() called while not instantiated (domain=[%d,%d])", v.name, v.LB(), v.UB()))
	}
	return v.lb.Get()
}

// subscribe registers a propagator slot to be notified of this variable's
// changes. Called once per (propagator, variable) pair at registration
// time (Engine.Register).
func (v *IntVar) subscribe(engine *Engine, propID, slot int) {
	v.subs = append(v.subs, subscription{engine: engine, propID: propID, slot: slot})
}

func (v *IntVar) notify(mask EventMask) {
	for _, s := range v.subs {
		s.engine.onVariableEvent(s.propID, s.slot, mask)
	}
}

// UpdateLowerBound tightens lb to max(lb, value). Returns whether the bound
// actually moved. cause is advisory, used only for diagnostics in this
// self-contained module.
func (v *IntVar) UpdateLowerBound(value int, cause string) (bool, error) {
	if value <= v.lb.Get() {
		return false, nil
	}
	if value > v.ub.Get() {
		return false, Fail("%s: updateLowerBound(%d) > ub(%d) [%s]", v.name, value, v.ub.Get(), cause)
	}
	v.lb.Set(value)
	mask := EventLowerBound
	if value == v.ub.Get() {
		mask |= EventInstantiate
	}
	v.notify(mask)
	return true, nil
}

// UpdateUpperBound tightens ub to min(ub, value). Returns whether the bound
// actually moved.
func (v *IntVar) UpdateUpperBound(value int, cause string) (bool, error) {
	if value >= v.ub.Get() {
		return false, nil
	}
	if value < v.lb.Get() {
		return false, Fail("%s: updateUpperBound(%d) < lb(%d) [%s]", v.name, value, v.lb.Get(), cause)
	}
	v.ub.Set(value)
	mask := EventUpperBound
	if value == v.lb.Get() {
		mask |= EventInstantiate
	}
	v.notify(mask)
	return true, nil
}

// UpdateBounds tightens both ends at once: lb <- max(lb, lo), ub <- min(ub, hi).
func (v *IntVar) UpdateBounds(lo, hi int, cause string) (bool, error) {
	changed, err := v.UpdateLowerBound(lo, cause)
	if err != nil {
		return changed, err
	}
	changed2, err := v.UpdateUpperBound(hi, cause)
	return changed || changed2, err
}

// InstantiateTo fixes the variable to value, failing if value lies outside
// the current bounds.
func (v *IntVar) InstantiateTo(value int, cause string) (bool, error) {
	if value < v.lb.Get() || value > v.ub.Get() {
		return false, Fail("%s: instantiateTo(%d) outside [%d,%d] [%s]", v.name, value, v.lb.Get(), v.ub.Get(), cause)
	}
	if v.lb.Get() == value && v.ub.Get() == value {
		return false, nil
	}
	v.lb.Set(value)
	v.ub.Set(value)
	v.notify(EventLowerBound | EventUpperBound | EventInstantiate)
	return true, nil
}

// String renders the variable for debugging: a bound value or interval
// notation.
func (v *IntVar) String() string {
	if v.IsInstantiated() {
		return fmt.Sprintf("%s=%d", v.name, v.LB())
	}
	return fmt.Sprintf("%s=[%d,%d]", v.name, v.LB(), v.UB())
}

// OffsetView is a virtual variable whose bounds are var.domain + offset.
// Structural equality with start+offset is what lets the task propagator
// passivate: recognizing the end variable as exactly start + duration
// makes the task propagator itself redundant.
type OffsetView struct {
	base   *IntVar
	offset int
}

// NewOffsetView returns base shifted by offset: view = base + offset.
func NewOffsetView(base *IntVar, offset int) *OffsetView {
	return &OffsetView{base: base, offset: offset}
}

// LB returns base.LB() + offset.
func (o *OffsetView) LB() int { return o.base.LB() + o.offset }

// UB returns base.UB() + offset.
func (o *OffsetView) UB() int { return o.base.UB() + o.offset }

// IsOffsetOf reports whether v is structurally the offset view of base by
// exactly offset, used by the task propagator to decide whether it can
// passivate.
func (o *OffsetView) IsOffsetOf(base *IntVar, offset int) bool {
	return o.base == base && o.offset == offset
}
