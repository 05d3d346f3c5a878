package rescore

// CapacityPropagator is a per-task sanity filter: it keeps the global
// capacity upper bound consistent with every task's height without
// running the full time-table/overload machinery. It is cheap enough to
// run before (and alongside) the heavier cumulative filters.
//
// Follows the single-purpose propagator shape used elsewhere in this
// package, including a lastCapaMax trailed short-circuit that skips the
// per-task scan while capacity's upper bound is unchanged.
type CapacityPropagator struct {
	tasks    []TaskLike
	heights  []*IntVar
	capacity *IntVar

	lastCapaMax *TrailedInt
}

// NewCapacityPropagator builds the capacity propagator for tasks against
// their respective heights (1:1, no nils) and capacity. env is used to
// allocate the lastCapaMax trailed cell.
func NewCapacityPropagator(env *Environment, tasks []TaskLike, heights []*IntVar, capacity *IntVar) *CapacityPropagator {
	if len(tasks) != len(heights) {
		panic(ContractViolation("NewCapacityPropagator: %d tasks but %d heights", len(tasks), len(heights)))
	}
	return &CapacityPropagator{
		tasks:       tasks,
		heights:     heights,
		capacity:    capacity,
		lastCapaMax: env.MakeInt(NegInfinity),
	}
}

func (p *CapacityPropagator) Variables() []*IntVar {
	vars := []*IntVar{p.capacity}
	for i, t := range p.tasks {
		vars = append(vars, t.Vars()...)
		vars = append(vars, p.heights[i])
	}
	return vars
}

func (p *CapacityPropagator) Type() string { return "capacity" }

func (p *CapacityPropagator) String() string { return "CapacityPropagator" }

func (p *CapacityPropagator) PropagationConditions(slot int) EventMask {
	return EventLowerBound | EventUpperBound | EventInstantiate
}

// Propagate enforces the capacity bound. The per-task linear scan (forcing
// overcommitted tasks off, tightening height/capacity from mandatory
// tasks) only re-runs when capacity.ub has actually moved since the last
// pass; the aggregate passivation check always runs, since it alone is
// cheap and any height change can trigger it.
func (p *CapacityPropagator) Propagate(engine *Engine, self int) error {
	if p.capacity.UB() != p.lastCapaMax.Get() {
		for i, t := range p.tasks {
			h := p.heights[i]

			if p.capacity.UB() < h.LB() {
				if t.MustBePerformed() {
					if _, err := filterMaxDuration(t, 0, nil, "capacity: overcommitted mandatory task"); err != nil {
						return err
					}
				} else {
					if _, err := filterOptionalTask(t, h, "capacity: overcommitted optional task"); err != nil {
						return err
					}
				}
			}

			if t.MustBePerformed() && t.MinDuration() > 0 {
				if _, err := h.UpdateUpperBound(p.capacity.UB(), "capacity: height <= capacity.ub"); err != nil {
					return err
				}
				if _, err := p.capacity.UpdateLowerBound(h.LB(), "capacity: capacity.lb >= height.lb"); err != nil {
					return err
				}
			}
		}
		p.lastCapaMax.Set(p.capacity.UB())
	}

	sum := 0
	for _, h := range p.heights {
		sum += h.UB()
	}
	if sum <= p.capacity.LB() {
		engine.SetPassive(self)
	}
	return nil
}

// IsEntailed delegates to the shared cumulative entailment rule.
func (p *CapacityPropagator) IsEntailed() EntailmentStatus {
	return isEntailed(false, p.tasks, p.heights, p.capacity)
}
