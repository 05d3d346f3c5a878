package rescore

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stats holds statistics about an Engine's propagation and search
// activity. All fields use atomic operations so a caller can poll Stats
// from another goroutine while the engine itself runs single-threaded.
//
// Trimmed to the counters this package's propagation core and search
// helpers actually produce, named around this package's Engine-centric
// vocabulary rather than a generic solver's.
type Stats struct {
	PropagationCount int64
	PassivationCount int64
	BacktrackCount   int64
	NodesExplored    int64
	SolutionsFound   int64
	MaxDepth         int64
	PropagationTime  int64 // nanoseconds

	startTime time.Time
	propStart atomic.Int64
}

// NewStats creates a zeroed Stats collector.
func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

// StartPropagation marks the beginning of a timed propagation round.
// Safe to call on a nil Stats.
func (s *Stats) StartPropagation() {
	if s == nil {
		return
	}
	s.propStart.Store(time.Now().UnixNano())
}

// EndPropagation closes out a timed propagation round started with
// StartPropagation.
func (s *Stats) EndPropagation() {
	if s == nil {
		return
	}
	start := s.propStart.Load()
	if start != 0 {
		atomic.AddInt64(&s.PropagationTime, time.Now().UnixNano()-start)
		s.propStart.Store(0)
	}
}

// RecordPropagation records a single propagator activation.
func (s *Stats) RecordPropagation() {
	if s == nil {
		return
	}
	atomic.AddInt64(&s.PropagationCount, 1)
}

// RecordPassivation records a propagator transitioning to PASSIVE.
func (s *Stats) RecordPassivation() {
	if s == nil {
		return
	}
	atomic.AddInt64(&s.PassivationCount, 1)
}

// RecordBacktrack records a search backtrack (equivalently, a
// propagation failure caught by the search driver).
func (s *Stats) RecordBacktrack() {
	if s == nil {
		return
	}
	atomic.AddInt64(&s.BacktrackCount, 1)
}

// RecordNode records a search-tree node being explored.
func (s *Stats) RecordNode() {
	if s == nil {
		return
	}
	atomic.AddInt64(&s.NodesExplored, 1)
}

// RecordSolution records a complete, consistent assignment being found.
func (s *Stats) RecordSolution() {
	if s == nil {
		return
	}
	atomic.AddInt64(&s.SolutionsFound, 1)
}

// RecordDepth updates the high-water mark for search depth.
func (s *Stats) RecordDepth(depth int) {
	if s == nil {
		return
	}
	d := int64(depth)
	for {
		old := atomic.LoadInt64(&s.MaxDepth)
		if d <= old || atomic.CompareAndSwapInt64(&s.MaxDepth, old, d) {
			return
		}
	}
}

// Snapshot returns a copy of the current counters, safe to read while the
// engine continues running.
func (s *Stats) Snapshot() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		PropagationCount: atomic.LoadInt64(&s.PropagationCount),
		PassivationCount: atomic.LoadInt64(&s.PassivationCount),
		BacktrackCount:   atomic.LoadInt64(&s.BacktrackCount),
		NodesExplored:    atomic.LoadInt64(&s.NodesExplored),
		SolutionsFound:   atomic.LoadInt64(&s.SolutionsFound),
		MaxDepth:         atomic.LoadInt64(&s.MaxDepth),
		PropagationTime:  atomic.LoadInt64(&s.PropagationTime),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"Stats:\n"+
			"  Propagations:   %d\n"+
			"  Passivations:   %d\n"+
			"  Backtracks:     %d\n"+
			"  Nodes Explored: %d\n"+
			"  Solutions:      %d\n"+
			"  Max Depth:      %d\n"+
			"  Prop Time:      %v\n",
		s.PropagationCount,
		s.PassivationCount,
		s.BacktrackCount,
		s.NodesExplored,
		s.SolutionsFound,
		s.MaxDepth,
		time.Duration(s.PropagationTime),
	)
}
