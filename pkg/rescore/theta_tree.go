package rescore

import "sort"

// thetaTreeNode is one node of the augmented complete binary tree: its
// own (est, proc) contribution if it is a present leaf (NegInfinity, 0
// otherwise, including for every internal node), plus the derived
// sigmaP/ect caches.
type thetaTreeNode struct {
	ownEst  int
	ownProc int
	sigmaP  int
	ect     int
}

// ThetaLeaf is one task's contribution to a ThetaTree, keyed by an
// arbitrary caller-chosen id (typically the task's index in the owning
// propagator's task slice).
type ThetaLeaf struct {
	ID   int
	Est  int
	Proc int
}

// ThetaTree computes, incrementally, the earliest-completion-time
// envelope of a growing subset of tasks: the maximum over every
// non-empty subset S' of the present tasks of
// min_{i in S'} est(i) + sum_{i in S'} proc(i).
//
// A scheduling envelope structure has no direct precedent elsewhere in
// this package, so this is new code, written in its small
// struct-with-receiver-methods style.
type ThetaTree struct {
	size    int // number of leaf slots, a power of two >= n
	nodes   []thetaTreeNode
	idPos   map[int]int
	rawEst  []int
	rawProc []int
	present []bool
}

// NewThetaTree builds a tree over leaves, sorted internally by
// increasing Est, with every leaf initially absent.
// Callers call Add to bring tasks into the tree.
func NewThetaTree(leaves []ThetaLeaf) *ThetaTree {
	sorted := append([]ThetaLeaf(nil), leaves...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Est < sorted[j].Est })

	n := len(sorted)
	size := 1
	for size < n {
		size *= 2
	}
	if size == 0 {
		size = 1
	}

	t := &ThetaTree{
		size:  size,
		nodes: make([]thetaTreeNode, 2*size),
		idPos: make(map[int]int, n),
	}
	for i := 1; i < size; i++ {
		t.nodes[i].ownEst = NegInfinity
	}
	for i := 0; i < size; i++ {
		leaf := &t.nodes[size+i]
		leaf.ownEst = NegInfinity
		leaf.ownProc = 0
		if i < n {
			t.idPos[sorted[i].ID] = i
		}
	}
	// Stash the raw (est, proc) pairs so Add can restore them without
	// the caller re-supplying leaf data.
	t.rawEst = make([]int, size)
	t.rawProc = make([]int, size)
	t.present = make([]bool, size)
	for i := 0; i < n; i++ {
		t.rawEst[i] = sorted[i].Est
		t.rawProc[i] = sorted[i].Proc
	}
	for i := 0; i < size; i++ {
		t.recomputeLeaf(i)
	}
	for i := size - 1; i >= 1; i-- {
		t.recomputeInternal(i)
	}
	return t
}

func (t *ThetaTree) recomputeLeaf(pos int) {
	n := &t.nodes[t.size+pos]
	n.sigmaP = n.ownProc
	n.ect = n.ownEst + n.ownProc
}

func (t *ThetaTree) recomputeInternal(idx int) {
	left, right := 2*idx, 2*idx+1
	n := &t.nodes[idx]
	ln, rn := t.nodes[left], t.nodes[right]
	n.sigmaP = n.ownProc + ln.sigmaP + rn.sigmaP
	ect := maxInt(ln.ect+n.ownProc+rn.sigmaP, n.ownEst+n.ownProc+rn.sigmaP)
	n.ect = maxInt(ect, rn.ect)
}

func (t *ThetaTree) propagateUp(pos int) {
	t.recomputeLeaf(pos)
	idx := (t.size + pos) / 2
	for idx >= 1 {
		t.recomputeInternal(idx)
		idx /= 2
	}
}

// Add brings task id into the tree as present, using the (est, proc) it
// was constructed with.
func (t *ThetaTree) Add(id int) {
	pos := t.idPos[id]
	leaf := &t.nodes[t.size+pos]
	leaf.ownEst = t.rawEst[pos]
	leaf.ownProc = t.rawProc[pos]
	t.present[pos] = true
	t.propagateUp(pos)
}

// Remove excludes task id from the tree; its slot contributes
// (NegInfinity, 0) until Add is called again.
func (t *ThetaTree) Remove(id int) {
	pos := t.idPos[id]
	leaf := &t.nodes[t.size+pos]
	leaf.ownEst = NegInfinity
	leaf.ownProc = 0
	t.present[pos] = false
	t.propagateUp(pos)
}

// IsPresent reports whether id is currently in the tree.
func (t *ThetaTree) IsPresent(id int) bool {
	return t.present[t.idPos[id]]
}

// GetEct returns the earliest completion time of the entire present set.
func (t *ThetaTree) GetEct() int { return t.nodes[1].ect }

// GetEctWithout returns the ect the tree would report if id were absent,
// without permanently mutating the tree: it removes id, reads the root,
// then restores id's membership. If id is already absent, it is
// equivalent to GetEct.
func (t *ThetaTree) GetEctWithout(id int) int {
	if !t.IsPresent(id) {
		return t.GetEct()
	}
	t.Remove(id)
	result := t.GetEct()
	t.Add(id)
	return result
}
