package rescore

// eventType distinguishes the kinds of profile event emitted while
// sweeping a set of tasks into a compulsory-part profile. Only mandatory
// tasks' own compulsory parts are swept here; optional-task conditional
// contribution is handled by the capacity/cumulative propagators
// themselves (filterOptionalTask, heightUpdate) rather than by folding
// extra event kinds into this sweep.
type eventType int

const (
	eventSCP eventType = iota // start of compulsory part
	eventECP                  // end of compulsory part
)

type profileEvent struct {
	typ       eventType
	taskIndex int
	date      int
}

func lessEvent(a, b profileEvent) bool {
	if a.date != b.date {
		return a.date < b.date
	}
	return a.typ < b.typ
}

// EventPointSeries is the ordered event list a profile sweep consumes:
// sorted by (date ascending, type ascending), with addEvent
// and updateEvent maintaining that order incrementally by insertion
// rather than a full re-sort, since a single event typically moves only
// a handful of positions after a bound update.
type EventPointSeries struct {
	events []profileEvent
}

// NewEventPointSeries returns an empty series.
func NewEventPointSeries() *EventPointSeries { return &EventPointSeries{} }

// Len returns the number of events currently held.
func (s *EventPointSeries) Len() int { return len(s.events) }

// At returns the event at position i.
func (s *EventPointSeries) At(i int) profileEvent { return s.events[i] }

func (s *EventPointSeries) swap(i, j int) { s.events[i], s.events[j] = s.events[j], s.events[i] }

// addEvent appends ev and bubbles it into sorted position.
func (s *EventPointSeries) addEvent(ev profileEvent) {
	s.events = append(s.events, ev)
	i := len(s.events) - 1
	for i > 0 && lessEvent(s.events[i], s.events[i-1]) {
		s.swap(i, i-1)
		i--
	}
}

// updateEvent changes the date of the event at position i and restores
// sortedness by bubbling it toward wherever it now belongs.
func (s *EventPointSeries) updateEvent(i, newDate int) {
	s.events[i].date = newDate
	for i > 0 && lessEvent(s.events[i], s.events[i-1]) {
		s.swap(i, i-1)
		i--
	}
	for i < len(s.events)-1 && lessEvent(s.events[i+1], s.events[i]) {
		s.swap(i, i+1)
		i++
	}
}

func (s *EventPointSeries) reset() { s.events = s.events[:0] }

// rectangle is one step of a compulsory-part profile: constant height
// over [start, end).
type rectangle struct {
	start, end, height int
}

// Profile is a step function: a sequence of rectangles ordered by start,
// contiguous, bracketed by zero-height sentinels at
// NegInfinity/PosInfinity.
//
// A resource timeline has no direct precedent elsewhere in this package,
// so this is new code written in its plain-struct style.
type Profile struct {
	rects []rectangle
}

// find returns the index of the rectangle containing date. The sentinel
// rectangles guarantee a hit for any date, including NegInfinity and
// PosInfinity themselves.
func (p *Profile) find(date int) int {
	lo, hi := 0, len(p.rects)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if p.rects[mid].start <= date {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// At returns the rectangle at index i.
func (p *Profile) At(i int) rectangle { return p.rects[i] }

// Len returns the number of rectangles.
func (p *Profile) Len() int { return len(p.rects) }

// buildProfile emits SCP/ECP events for every mandatory task with a
// compulsory part, sweeps them into rectangles, and reports the maximum
// interior height (used by callers to raise capacity.lb).
func buildProfile(tasks []TaskLike, heights []*IntVar) (*Profile, int) {
	series := NewEventPointSeries()
	for i, t := range tasks {
		h := heightAt(heights, i)
		if mustBePerformed(t, h) && t.HasCompulsoryPart() {
			series.addEvent(profileEvent{eventSCP, i, t.Lst()})
			series.addEvent(profileEvent{eventECP, i, t.Ect()})
		}
	}
	return sweepProfile(series, heights)
}

func sweepProfile(series *EventPointSeries, heights []*IntVar) (*Profile, int) {
	rects := make([]rectangle, 0, series.Len()+2)
	h := 0
	prevDate := NegInfinity
	maxHeight := 0

	i := 0
	for i < series.Len() {
		date := series.At(i).date
		if date != prevDate {
			rects = append(rects, rectangle{prevDate, date, h})
			if h > maxHeight {
				maxHeight = h
			}
			prevDate = date
		}
		for i < series.Len() && series.At(i).date == date {
			ev := series.At(i)
			hv := heightLB(heightAt(heights, ev.taskIndex))
			switch ev.typ {
			case eventSCP:
				h += hv
			case eventECP:
				h -= hv
			}
			i++
		}
	}
	rects = append(rects, rectangle{prevDate, PosInfinity, 0})

	return &Profile{rects: rects}, maxHeight
}

// BacktrackableProfile holds the same rectangle-sweep semantics as
// Profile, but the rectangle arrays live in trailed cells so a profile
// survives across propagation calls within one search node and is
// restored for free on backtrack.
type BacktrackableProfile struct {
	env     *Environment
	starts  []*TrailedInt
	ends    []*TrailedInt
	heights []*TrailedInt
	size    *TrailedInt
}

// NewBacktrackableProfile preallocates trailed storage for up to
// 2*maxTasks+2 rectangles (the worst case: every task contributes a
// start and an end event, bracketed by two sentinels).
func NewBacktrackableProfile(env *Environment, maxTasks int) *BacktrackableProfile {
	capacity := 2*maxTasks + 2
	bp := &BacktrackableProfile{
		env:     env,
		starts:  make([]*TrailedInt, capacity),
		ends:    make([]*TrailedInt, capacity),
		heights: make([]*TrailedInt, capacity),
		size:    env.MakeInt(0),
	}
	for i := 0; i < capacity; i++ {
		bp.starts[i] = env.MakeInt(0)
		bp.ends[i] = env.MakeInt(0)
		bp.heights[i] = env.MakeInt(0)
	}
	return bp
}

// Rebuild recomputes the profile from tasks/heights and stores it in the
// trailed cells, replacing whatever was stored before (and so
// participating in backtrack like any other trailed write). Returns the
// maximum interior height.
func (bp *BacktrackableProfile) Rebuild(tasks []TaskLike, heights []*IntVar) int {
	transient, maxHeight := buildProfile(tasks, heights)
	if len(transient.rects) > len(bp.starts) {
		panic(ContractViolation("BacktrackableProfile: rebuilt profile has %d rectangles, capacity is %d", len(transient.rects), len(bp.starts)))
	}
	for i, r := range transient.rects {
		bp.starts[i].Set(r.start)
		bp.ends[i].Set(r.end)
		bp.heights[i].Set(r.height)
	}
	bp.size.Set(len(transient.rects))
	return maxHeight
}

// Size returns the current number of rectangles.
func (bp *BacktrackableProfile) Size() int { return bp.size.Get() }

// At returns the rectangle at index i as it currently stands (reflecting
// any backtrack since the last Rebuild).
func (bp *BacktrackableProfile) At(i int) rectangle {
	return rectangle{bp.starts[i].Get(), bp.ends[i].Get(), bp.heights[i].Get()}
}

// find mirrors Profile.find over the trailed storage.
func (bp *BacktrackableProfile) find(date int) int {
	lo, hi := 0, bp.Size()-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if bp.starts[mid].Get() <= date {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
