package rescore

import "fmt"

// mirrorTask is the time-reversed view of a mandatory Task: it reads
// est = −lct(original), lst = −ect(original), ect = −lst(original),
// lct = −est(original), and routes every write to the symmetric update on
// the original. Filters that need a "forward" rule applied "backward"
// (e.g. not-first derived from not-last) run unmodified against a mirror
// because mirrorTask satisfies TaskLike like any other task.
//
// The mirror exposes the same interface but reads est = −lct(original)
// and writes updateLct(original, −newEst). A time axis to reverse has no
// precedent elsewhere in this package, so this is new code, written in
// its plain-struct-with-methods idiom.
type mirrorTask struct {
	original *Task
}

func newMirrorTask(original *Task) *mirrorTask {
	return &mirrorTask{original: original}
}

func (m *mirrorTask) Est() int         { return -m.original.Lct() }
func (m *mirrorTask) Lst() int         { return -m.original.Ect() }
func (m *mirrorTask) Ect() int         { return -m.original.Lst() }
func (m *mirrorTask) Lct() int         { return -m.original.Est() }
func (m *mirrorTask) MinDuration() int { return m.original.MinDuration() }
func (m *mirrorTask) MaxDuration() int { return m.original.MaxDuration() }

func (m *mirrorTask) HasCompulsoryPart() bool { return m.original.HasCompulsoryPart() }

func (m *mirrorTask) MayBePerformed() bool  { return m.original.MayBePerformed() }
func (m *mirrorTask) MustBePerformed() bool { return m.original.MustBePerformed() }

// UpdateEst on the mirror means "push the original's lct down": new
// mirror-est e translates to original.lct <= -e.
func (m *mirrorTask) UpdateEst(v int, cause string) (bool, error) {
	return m.original.UpdateLct(-v, cause)
}

func (m *mirrorTask) UpdateLst(v int, cause string) (bool, error) {
	return m.original.UpdateEct(-v, cause)
}

func (m *mirrorTask) UpdateEct(v int, cause string) (bool, error) {
	return m.original.UpdateLst(-v, cause)
}

func (m *mirrorTask) UpdateLct(v int, cause string) (bool, error) {
	return m.original.UpdateEst(-v, cause)
}

func (m *mirrorTask) UpdateMinDuration(v int, cause string) (bool, error) {
	return m.original.UpdateMinDuration(v, cause)
}

func (m *mirrorTask) UpdateMaxDuration(v int, cause string) (bool, error) {
	return m.original.UpdateMaxDuration(v, cause)
}

func (m *mirrorTask) InstantiateStartAt(v int, cause string) (bool, error) {
	return m.original.InstantiateEndAt(-v, cause)
}

func (m *mirrorTask) InstantiateEndAt(v int, cause string) (bool, error) {
	return m.original.InstantiateStartAt(-v, cause)
}

func (m *mirrorTask) ForceToBePerformed(cause string) error { return m.original.ForceToBePerformed(cause) }
func (m *mirrorTask) ForceToBeOptional(cause string) error  { return m.original.ForceToBeOptional(cause) }

// Mirror returns the original task: a mirror's mirror is the task itself.
func (m *mirrorTask) Mirror() TaskLike { return m.original }

func (m *mirrorTask) Vars() []*IntVar { return m.original.Vars() }

func (m *mirrorTask) String() string { return fmt.Sprintf("Mirror(%s)", m.original) }

// mirrorTaskOptional is the mirror of an OptionalTask; identical to
// mirrorTask except it delegates the presence-gated entry points to the
// OptionalTask so forceToBeOptional/mayBePerformed reflect presence, not
// a hardcoded mandatory task.
type mirrorTaskOptional struct {
	original *OptionalTask
}

func newMirrorTaskOptional(original *OptionalTask) *mirrorTaskOptional {
	return &mirrorTaskOptional{original: original}
}

func (m *mirrorTaskOptional) Est() int         { return -m.original.Lct() }
func (m *mirrorTaskOptional) Lst() int         { return -m.original.Ect() }
func (m *mirrorTaskOptional) Ect() int         { return -m.original.Lst() }
func (m *mirrorTaskOptional) Lct() int         { return -m.original.Est() }
func (m *mirrorTaskOptional) MinDuration() int { return m.original.MinDuration() }
func (m *mirrorTaskOptional) MaxDuration() int { return m.original.MaxDuration() }

func (m *mirrorTaskOptional) HasCompulsoryPart() bool { return m.original.HasCompulsoryPart() }

func (m *mirrorTaskOptional) MayBePerformed() bool  { return m.original.MayBePerformed() }
func (m *mirrorTaskOptional) MustBePerformed() bool { return m.original.MustBePerformed() }

func (m *mirrorTaskOptional) UpdateEst(v int, cause string) (bool, error) {
	return m.original.UpdateLct(-v, cause)
}

func (m *mirrorTaskOptional) UpdateLst(v int, cause string) (bool, error) {
	return m.original.UpdateEct(-v, cause)
}

func (m *mirrorTaskOptional) UpdateEct(v int, cause string) (bool, error) {
	return m.original.UpdateLst(-v, cause)
}

func (m *mirrorTaskOptional) UpdateLct(v int, cause string) (bool, error) {
	return m.original.UpdateEst(-v, cause)
}

func (m *mirrorTaskOptional) UpdateMinDuration(v int, cause string) (bool, error) {
	return m.original.UpdateMinDuration(v, cause)
}

func (m *mirrorTaskOptional) UpdateMaxDuration(v int, cause string) (bool, error) {
	return m.original.UpdateMaxDuration(v, cause)
}

func (m *mirrorTaskOptional) InstantiateStartAt(v int, cause string) (bool, error) {
	return m.original.InstantiateEndAt(-v, cause)
}

func (m *mirrorTaskOptional) InstantiateEndAt(v int, cause string) (bool, error) {
	return m.original.InstantiateStartAt(-v, cause)
}

func (m *mirrorTaskOptional) ForceToBePerformed(cause string) error {
	return m.original.ForceToBePerformed(cause)
}

func (m *mirrorTaskOptional) ForceToBeOptional(cause string) error {
	return m.original.ForceToBeOptional(cause)
}

func (m *mirrorTaskOptional) Mirror() TaskLike { return m.original }

func (m *mirrorTaskOptional) Vars() []*IntVar { return m.original.Vars() }

func (m *mirrorTaskOptional) String() string { return fmt.Sprintf("Mirror(%s)", m.original) }
