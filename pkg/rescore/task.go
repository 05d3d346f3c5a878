package rescore

import "fmt"

// TaskLike is the capability trait every resource-propagator filter reads
// and writes through: est, lst, ect, lct, updateEst, ..., mayBePerformed,
// mustBePerformed, forceToBeOptional.
// *Task and *OptionalTask both satisfy it directly; the mirror views in
// mirror.go satisfy it as a time-reversed view over either one. Filters in this
// package never type-switch on the concrete task kind — they operate
// through this interface alone, so the same algorithm runs unmodified on
// mandatory tasks, optional tasks, and mirrors.
type TaskLike interface {
	Est() int
	Lst() int
	Ect() int
	Lct() int
	MinDuration() int
	MaxDuration() int
	HasCompulsoryPart() bool

	MayBePerformed() bool
	MustBePerformed() bool

	UpdateEst(v int, cause string) (bool, error)
	UpdateLst(v int, cause string) (bool, error)
	UpdateEct(v int, cause string) (bool, error)
	UpdateLct(v int, cause string) (bool, error)
	UpdateMinDuration(v int, cause string) (bool, error)
	UpdateMaxDuration(v int, cause string) (bool, error)
	InstantiateStartAt(v int, cause string) (bool, error)
	InstantiateEndAt(v int, cause string) (bool, error)

	ForceToBePerformed(cause string) error
	ForceToBeOptional(cause string) error

	// Vars returns the underlying IntVars this task is backed by (start,
	// duration, end, and presence if optional), used by propagators to
	// subscribe to engine events. A mirror returns its original's Vars.
	Vars() []*IntVar

	Mirror() TaskLike
	String() string
}

// Task is the triple (start, duration, end) with the invariant
// start + duration = end. A Task is always mandatory; see OptionalTask
// for the presence-gated variant.
//
// It owns its IntVars and registers a propagator with the engine, the
// same shape a finite-domain variable/constraint pairing takes, adapted
// here around the triple-with-invariant structure a schedulable task
// needs.
type Task struct {
	id       int
	start    *IntVar
	duration *IntVar
	end      *IntVar

	mirror *mirrorTask
}

// NewTask creates a mandatory task over the given start/duration/end
// variables. The caller is responsible for ensuring these three
// variables are not shared with another Task (propagators assume
// exclusive ownership of the identity start+duration=end they enforce).
func NewTask(id int, start, duration, end *IntVar) *Task {
	return &Task{id: id, start: start, duration: duration, end: end}
}

func (t *Task) ID() int { return t.id }

func (t *Task) StartVar() *IntVar    { return t.start }
func (t *Task) DurationVar() *IntVar { return t.duration }
func (t *Task) EndVar() *IntVar      { return t.end }

func (t *Task) Est() int         { return t.start.LB() }
func (t *Task) Lst() int         { return t.start.UB() }
func (t *Task) Ect() int         { return t.end.LB() }
func (t *Task) Lct() int         { return t.end.UB() }
func (t *Task) MinDuration() int { return t.duration.LB() }
func (t *Task) MaxDuration() int { return t.duration.UB() }

// HasCompulsoryPart reports lst < ect: the task is guaranteed to be
// running throughout [lst, ect) in every feasible schedule.
func (t *Task) HasCompulsoryPart() bool { return t.Lst() < t.Ect() }

func (t *Task) MayBePerformed() bool { return true }
func (t *Task) MustBePerformed() bool { return true }

func (t *Task) UpdateEst(v int, cause string) (bool, error) {
	return t.start.UpdateLowerBound(v, cause)
}

func (t *Task) UpdateLst(v int, cause string) (bool, error) {
	return t.start.UpdateUpperBound(v, cause)
}

func (t *Task) UpdateEct(v int, cause string) (bool, error) {
	return t.end.UpdateLowerBound(v, cause)
}

func (t *Task) UpdateLct(v int, cause string) (bool, error) {
	return t.end.UpdateUpperBound(v, cause)
}

func (t *Task) UpdateMinDuration(v int, cause string) (bool, error) {
	return t.duration.UpdateLowerBound(v, cause)
}

func (t *Task) UpdateMaxDuration(v int, cause string) (bool, error) {
	return t.duration.UpdateUpperBound(v, cause)
}

func (t *Task) InstantiateStartAt(v int, cause string) (bool, error) {
	return t.start.InstantiateTo(v, cause)
}

func (t *Task) InstantiateEndAt(v int, cause string) (bool, error) {
	return t.end.InstantiateTo(v, cause)
}

// ForceToBePerformed is a no-op for a mandatory task: it is already
// always performed.
func (t *Task) ForceToBePerformed(cause string) error { return nil }

// ForceToBeOptional is a contract violation for a plain Task: only an
// OptionalTask can become optional.
func (t *Task) ForceToBeOptional(cause string) error {
	return ContractViolation("task %d has no presence variable, cannot force optional [%s]", t.id, cause)
}

func (t *Task) Vars() []*IntVar { return []*IntVar{t.start, t.duration, t.end} }

// Mirror returns the lazily-created time-reversed view of this task:
// est = −lct(original), and writes to the mirror's est route
// through updateLct(original, −newEst). Only one propagator at a time
// is expected to hold the mirror alive during a filtering pass, but the
// view itself is safe to retain across passes; it is cached so repeated
// calls do not allocate.
func (t *Task) Mirror() TaskLike {
	if t.mirror == nil {
		t.mirror = newMirrorTask(t)
	}
	return t.mirror
}

func (t *Task) String() string {
	return fmt.Sprintf("Task#%d[start=%s,duration=%s,end=%s]", t.id, t.start, t.duration, t.end)
}

// OptionalTask augments Task with a boolean presence variable.
// presence must be an IntVar constrained to {0,1}; mayBePerformed /
// mustBePerformed read presence.ub/lb as spec'd. While the task may not
// be performed, every getter reports the sentinel values so that no
// filter is able to further constrain an absent task.
type OptionalTask struct {
	*Task
	presence *IntVar

	mirror *mirrorTaskOptional
}

// NewOptionalTask creates an optional task over start/duration/end gated
// by presence. presence's domain must already be restricted to {0,1}.
func NewOptionalTask(id int, start, duration, end, presence *IntVar) *OptionalTask {
	return &OptionalTask{Task: NewTask(id, start, duration, end), presence: presence}
}

func (o *OptionalTask) PresenceVar() *IntVar { return o.presence }

func (o *OptionalTask) MayBePerformed() bool { return o.presence.UB() >= 1 }
func (o *OptionalTask) MustBePerformed() bool { return o.presence.LB() >= 1 }

func (o *OptionalTask) Est() int {
	if !o.MayBePerformed() {
		return NegInfinity
	}
	return o.Task.Est()
}

func (o *OptionalTask) Lst() int {
	if !o.MayBePerformed() {
		return NegInfinity
	}
	return o.Task.Lst()
}

func (o *OptionalTask) Ect() int {
	if !o.MayBePerformed() {
		return PosInfinity
	}
	return o.Task.Ect()
}

func (o *OptionalTask) Lct() int {
	if !o.MayBePerformed() {
		return PosInfinity
	}
	return o.Task.Lct()
}

func (o *OptionalTask) MinDuration() int {
	if !o.MayBePerformed() {
		return 0
	}
	return o.Task.MinDuration()
}

func (o *OptionalTask) MaxDuration() int {
	if !o.MayBePerformed() {
		return PosInfinity
	}
	return o.Task.MaxDuration()
}

func (o *OptionalTask) HasCompulsoryPart() bool {
	if !o.MayBePerformed() {
		return false
	}
	return o.Task.HasCompulsoryPart()
}

// guard intercepts a would-be-emptying failure from the underlying
// update and converts it to presence.ub <- 0, unless presence is already
// fixed to 1, in which case the conflict is genuine and is re-raised.
func (o *OptionalTask) guard(changed bool, err error, cause string) (bool, error) {
	if err == nil {
		return changed, nil
	}
	if !IsFailure(err) {
		return changed, err
	}
	if o.MustBePerformed() {
		return changed, err
	}
	forced, ferr := o.presence.UpdateUpperBound(0, cause)
	if ferr != nil {
		return changed, ferr
	}
	return forced, nil
}

func (o *OptionalTask) UpdateEst(v int, cause string) (bool, error) {
	if !o.MayBePerformed() {
		return false, nil
	}
	c, err := o.Task.UpdateEst(v, cause)
	return o.guard(c, err, cause)
}

func (o *OptionalTask) UpdateLst(v int, cause string) (bool, error) {
	if !o.MayBePerformed() {
		return false, nil
	}
	c, err := o.Task.UpdateLst(v, cause)
	return o.guard(c, err, cause)
}

func (o *OptionalTask) UpdateEct(v int, cause string) (bool, error) {
	if !o.MayBePerformed() {
		return false, nil
	}
	c, err := o.Task.UpdateEct(v, cause)
	return o.guard(c, err, cause)
}

func (o *OptionalTask) UpdateLct(v int, cause string) (bool, error) {
	if !o.MayBePerformed() {
		return false, nil
	}
	c, err := o.Task.UpdateLct(v, cause)
	return o.guard(c, err, cause)
}

func (o *OptionalTask) UpdateMinDuration(v int, cause string) (bool, error) {
	if !o.MayBePerformed() {
		return false, nil
	}
	c, err := o.Task.UpdateMinDuration(v, cause)
	return o.guard(c, err, cause)
}

func (o *OptionalTask) UpdateMaxDuration(v int, cause string) (bool, error) {
	if !o.MayBePerformed() {
		return false, nil
	}
	c, err := o.Task.UpdateMaxDuration(v, cause)
	return o.guard(c, err, cause)
}

func (o *OptionalTask) InstantiateStartAt(v int, cause string) (bool, error) {
	if !o.MayBePerformed() {
		return false, nil
	}
	c, err := o.Task.InstantiateStartAt(v, cause)
	return o.guard(c, err, cause)
}

func (o *OptionalTask) InstantiateEndAt(v int, cause string) (bool, error) {
	if !o.MayBePerformed() {
		return false, nil
	}
	c, err := o.Task.InstantiateEndAt(v, cause)
	return o.guard(c, err, cause)
}

// ForceToBePerformed fixes presence.lb <- 1, making the task mandatory.
func (o *OptionalTask) ForceToBePerformed(cause string) error {
	_, err := o.presence.UpdateLowerBound(1, cause)
	return err
}

// ForceToBeOptional fixes presence.ub <- 0, excluding the task. Raised
// as a genuine failure (not caught) if presence is already fixed to 1.
func (o *OptionalTask) ForceToBeOptional(cause string) error {
	if o.MustBePerformed() {
		return Fail("task %d: cannot force optional, presence already fixed to 1 [%s]", o.id, cause)
	}
	_, err := o.presence.UpdateUpperBound(0, cause)
	return err
}

func (o *OptionalTask) Vars() []*IntVar {
	return []*IntVar{o.start, o.duration, o.end, o.presence}
}

func (o *OptionalTask) Mirror() TaskLike {
	if o.mirror == nil {
		o.mirror = newMirrorTaskOptional(o)
	}
	return o.mirror
}

func (o *OptionalTask) String() string {
	return fmt.Sprintf("OptionalTask#%d[start=%s,duration=%s,end=%s,presence=%s]",
		o.id, o.start, o.duration, o.end, o.presence)
}

// TaskPropagator enforces the triple invariant start + duration = end to
// bound consistency. It is registered once per Task/OptionalTask at
// model-build time and passivates itself the moment duration becomes
// fixed and end is structurally the offset view start+duration: from
// that point the invariant is maintained for free by the domain store
// and re-running this propagator can only ever rediscover what it
// already enforced.
type TaskPropagator struct {
	task  TaskLike
	start *IntVar
	dur   *IntVar
	end   *IntVar

	// offsetEnd, when non-nil, is the OffsetView the engine considers
	// structurally equal to start+duration once duration fixes; if that
	// equality actually holds when duration fixes, Propagate passivates.
	offsetEnd *OffsetView
}

// NewTaskPropagator builds the bound-consistency propagator for task,
// whose three underlying variables are start/duration/end. Pass a non-nil
// offsetEnd when the model constructed end as start's offset view, so
// the propagator can detect and exploit the structural equality.
func NewTaskPropagator(task TaskLike, start, dur, end *IntVar, offsetEnd *OffsetView) *TaskPropagator {
	return &TaskPropagator{task: task, start: start, dur: dur, end: end, offsetEnd: offsetEnd}
}

func (p *TaskPropagator) Variables() []*IntVar { return []*IntVar{p.start, p.dur, p.end} }

func (p *TaskPropagator) Type() string { return "task" }

func (p *TaskPropagator) String() string { return fmt.Sprintf("TaskPropagator(%s)", p.task) }

// PropagationConditions reacts to any bound movement on any of the three
// variables; the fixpoint loop itself decides which update is useful.
func (p *TaskPropagator) PropagationConditions(slot int) EventMask {
	return EventLowerBound | EventUpperBound | EventInstantiate
}

// Propagate runs the six-update fixpoint loop until a pass changes
// nothing, then checks for structural passivation. For an optional task
// a failure of that loop sets presence.ub <- 0 instead, unless presence
// is already fixed to 1; a task that can no longer be performed is left
// alone.
func (p *TaskPropagator) Propagate(engine *Engine, self int) error {
	if !p.task.MayBePerformed() {
		return nil
	}
	if err := p.fixpoint(); err != nil {
		if !IsFailure(err) || p.task.MustBePerformed() {
			return err
		}
		return p.task.ForceToBeOptional("task: start + duration = end cannot hold")
	}

	if p.dur.IsInstantiated() && p.offsetEnd != nil && p.offsetEnd.IsOffsetOf(p.start, p.dur.Value()) {
		engine.SetPassive(self)
	}
	return nil
}

func (p *TaskPropagator) fixpoint() error {
	for {
		changed := false

		if c, err := p.start.UpdateUpperBound(p.end.UB()-p.dur.LB(), "task.1"); err != nil {
			return err
		} else {
			changed = changed || c
		}
		if c, err := p.start.UpdateLowerBound(p.end.LB()-p.dur.UB(), "task.2"); err != nil {
			return err
		} else {
			changed = changed || c
		}
		if c, err := p.end.UpdateLowerBound(p.start.LB()+p.dur.LB(), "task.3"); err != nil {
			return err
		} else {
			changed = changed || c
		}
		if c, err := p.end.UpdateUpperBound(p.start.UB()+p.dur.UB(), "task.4"); err != nil {
			return err
		} else {
			changed = changed || c
		}
		if c, err := p.dur.UpdateLowerBound(p.end.LB()-p.start.UB(), "task.5"); err != nil {
			return err
		} else {
			changed = changed || c
		}
		if c, err := p.dur.UpdateUpperBound(p.end.UB()-p.start.LB(), "task.6"); err != nil {
			return err
		} else {
			changed = changed || c
		}

		if !changed {
			break
		}
	}
	return nil
}

// IsEntailed reports TRUE once start/duration/end are all instantiated
// and consistent (always true at that point, since Propagate would have
// failed otherwise), UNDEFINED while any remains free.
func (p *TaskPropagator) IsEntailed() EntailmentStatus {
	if p.start.IsInstantiated() && p.dur.IsInstantiated() && p.end.IsInstantiated() {
		return EntailmentTrue
	}
	return EntailmentUndefined
}

// NewManagedTask builds a Task over start/duration/end and registers its
// TaskPropagator with engine in the same step, the usual way a model
// brings a task into existence.
func NewManagedTask(engine *Engine, id int, start, duration, end *IntVar) *Task {
	task := NewTask(id, start, duration, end)
	engine.Register(NewTaskPropagator(task, start, duration, end, nil))
	return task
}

// NewManagedOptionalTask is NewManagedTask's presence-gated counterpart.
func NewManagedOptionalTask(engine *Engine, id int, start, duration, end, presence *IntVar) *OptionalTask {
	task := NewOptionalTask(id, start, duration, end, presence)
	engine.Register(NewTaskPropagator(task, start, duration, end, nil))
	return task
}
