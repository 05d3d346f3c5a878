package rescore

import (
	"container/heap"
	"sort"
)

// ascNode mirrors thetaTreeNode's shape but caches the envelope
// ksi instead of ect, and sigma is cached directly rather than re-read
// from a child each time, since adjust's inner loop queries it on every
// descent step of findSc.
type ascNode struct {
	lct    int // only meaningful for leaves
	pPlus  int
	sigmaP int // total pPlus of this subtree
	sigma  int // sigmaP(rightChild) -- "mass to the right" term
	ksi    int
}

// AscendantSetSearchTree is the augmented complete binary tree behind
// Carlier-Pinson edge-finding: leaves hold tasks sorted by
// decreasing lct, and the tree answers, in O(log n), "does some subset
// of the present tasks overflow the slack before ub" via the ksi
// envelope, and "which task is the tightest super-critical task for a
// given threshold" via findSc.
//
// Reuses the same theta-tree-shaped sigmaP/derived-value caching this
// package already uses for ThetaTree (theta_tree.go), since the node
// recurrence's sigma(n) plays exactly the role of ThetaTree's
// sigmaP(rightChild): the processing mass "to the right" that the left
// subtree's envelope must add in.
type AscendantSetSearchTree struct {
	size  int
	nodes []ascNode
	idPos map[int]int
	ub    int
}

// NewAscendantSetSearchTree builds the tree over the given (id, p, lct)
// triples, sorted internally by decreasing lct. ub is
// one past the maximum lct among the leaves.
func NewAscendantSetSearchTree(ids []int, p []int, lct []int) *AscendantSetSearchTree {
	n := len(ids)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return lct[order[a]] > lct[order[b]] })

	size := 1
	for size < n {
		size *= 2
	}
	if size == 0 {
		size = 1
	}

	maxLct := NegInfinity
	for _, l := range lct {
		if l > maxLct {
			maxLct = l
		}
	}

	t := &AscendantSetSearchTree{
		size:  size,
		nodes: make([]ascNode, 2*size),
		idPos: make(map[int]int, n),
		ub:    maxLct + 1,
	}
	for pos := 0; pos < size; pos++ {
		leaf := &t.nodes[size+pos]
		if pos < n {
			src := order[pos]
			t.idPos[ids[src]] = pos
			leaf.lct = lct[src]
			leaf.pPlus = p[src]
		} else {
			leaf.lct = NegInfinity
			leaf.pPlus = 0
		}
	}
	for pos := 0; pos < size; pos++ {
		t.recomputeLeaf(pos)
	}
	for idx := size - 1; idx >= 1; idx-- {
		t.recomputeInternal(idx)
	}
	return t
}

func (t *AscendantSetSearchTree) recomputeLeaf(pos int) {
	n := &t.nodes[t.size+pos]
	n.sigmaP = n.pPlus
	n.sigma = 0
	if n.pPlus > 0 {
		n.ksi = t.ub - n.lct
	} else {
		n.ksi = NegInfinity
	}
}

func (t *AscendantSetSearchTree) recomputeInternal(idx int) {
	left, right := 2*idx, 2*idx+1
	n := &t.nodes[idx]
	ln, rn := t.nodes[left], t.nodes[right]
	n.sigma = rn.sigmaP
	n.sigmaP = ln.sigmaP + rn.sigmaP
	n.ksi = maxInt(ln.ksi+n.sigma, rn.ksi)
}

func (t *AscendantSetSearchTree) propagateUp(pos int) {
	t.recomputeLeaf(pos)
	idx := (t.size + pos) / 2
	for idx >= 1 {
		t.recomputeInternal(idx)
		idx /= 2
	}
}

// PPlus returns task id's current processing-time contribution.
func (t *AscendantSetSearchTree) PPlus(id int) int {
	return t.nodes[t.size+t.idPos[id]].pPlus
}

// UpdateAt adjusts task id's pPlus by delta and re-derives every
// ancestor up to the root.
func (t *AscendantSetSearchTree) UpdateAt(id int, delta int) {
	pos := t.idPos[id]
	t.nodes[t.size+pos].pPlus += delta
	t.propagateUp(pos)
}

// FindSc locates the tightest super-critical task for a candidate task
// with the given (est, p): the task whose inclusion in the
// ascendant set first makes the slack-vs-mass envelope exceed
// delta = ub - (est + p). Returns -1 if none does. id's own leaf is
// temporarily excluded from the search (zeroed and restored) so a task
// is never reported as its own super-critical witness.
func (t *AscendantSetSearchTree) FindSc(id int, est, p int) int {
	pos := t.idPos[id]
	saved := t.nodes[t.size+pos].pPlus
	if saved != 0 {
		t.UpdateAt(id, -saved)
		defer t.UpdateAt(id, saved)
	}

	delta := t.ub - (est + p)
	k := 1
	for t.nodes[k].ksi > delta {
		if k >= t.size {
			if t.nodes[k].pPlus > 0 && t.ub-t.nodes[k].lct+t.nodes[k].sigma > delta {
				return t.idAt(k - t.size)
			}
			return -1
		}
		left, right := 2*k, 2*k+1
		if t.nodes[left].ksi+t.nodes[k].sigma > delta {
			k = left
			continue
		}
		if t.nodes[k].pPlus > 0 && t.ub-t.nodes[k].lct+t.nodes[k].sigma > delta {
			return t.idAt(k - t.size)
		}
		k = right
	}
	return -1
}

func (t *AscendantSetSearchTree) idAt(pos int) int {
	for id, p := range t.idPos {
		if p == pos {
			return id
		}
	}
	return -1
}

// heapItem is one entry of the priority queue A in adjust, keyed
// by lct ascending.
type heapItem struct {
	id  int
	lct int
}

type lctHeap []heapItem

func (h lctHeap) Len() int            { return len(h) }
func (h lctHeap) Less(i, j int) bool  { return h[i].lct < h[j].lct }
func (h lctHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *lctHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *lctHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func (h *lctHeap) removeID(id int) bool {
	for i, it := range *h {
		if it.id == id {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}

// edgeFindingAdjust runs the Carlier-Pinson adjustment over tasks,
// pushing est forward wherever a super-critical set forces it. Returns
// whether any task's est actually moved.
//
// Translates the classic set-bookkeeping algorithm (sets U/A/S/D) into a
// heap for A (ordered by lct), a decreasing-est stack for U, and a
// sorted-with-removal-flags scan for S, preferring plain slices and maps
// over specialized container types everywhere except where a heap is
// the only genuine requirement.
func edgeFindingAdjust(tasks []TaskLike) (bool, error) {
	n := len(tasks)
	if n == 0 {
		return false, nil
	}

	ids := make([]int, n)
	p := make([]int, n)
	lct := make([]int, n)
	for i, tk := range tasks {
		ids[i] = i
		p[i] = tk.MinDuration()
		lct[i] = tk.Lct()
	}
	tree := NewAscendantSetSearchTree(ids, p, lct)

	tMin := PosInfinity
	for _, tk := range tasks {
		if tk.Est() < tMin {
			tMin = tk.Est()
		}
	}
	t := tMin

	var U []int
	for i, tk := range tasks {
		if tk.Est() > t {
			U = append(U, i)
		}
	}
	sort.Slice(U, func(a, b int) bool { return tasks[U[a]].Est() > tasks[U[b]].Est() })

	A := &lctHeap{}
	heap.Init(A)
	for i, tk := range tasks {
		if tk.Est() == t {
			heap.Push(A, heapItem{id: i, lct: tk.Lct()})
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return tasks[order[a]].Lct() < tasks[order[b]].Lct() })
	removedFromS := make([]bool, n)
	remainingS := n
	sPtr := 0
	smallestInS := func() int {
		for sPtr < n && removedFromS[order[sPtr]] {
			sPtr++
		}
		if sPtr >= n {
			return -1
		}
		return order[sPtr]
	}
	removeFromS := func(id int) {
		if !removedFromS[id] {
			removedFromS[id] = true
			remainingS--
		}
	}

	scOf := make(map[int]int)
	changed := false

	for remainingS > 0 {
		var foundSc []int
		for _, it := range *A {
			if tasks[it.id].Est() != t {
				continue
			}
			if _, known := scOf[it.id]; known {
				continue
			}
			if sc := tree.FindSc(it.id, tasks[it.id].Est(), tree.PPlus(it.id)); sc >= 0 {
				scOf[it.id] = sc
				foundSc = append(foundSc, it.id)
			}
		}
		// Once c's sc is known, c moves from A to D: it no longer
		// participates in the argmin-lct selection below, and its pPlus
		// is no longer consumed by that selection either.
		for _, id := range foundSc {
			A.removeID(id)
		}

		if t >= tree.ub {
			return changed, Fail("edge-finding: no feasible placement before the horizon")
		}

		i := -1
		if A.Len() > 0 {
			i = (*A)[0].id
		}
		tPrime := PosInfinity
		if len(U) > 0 {
			tPrime = tasks[U[len(U)-1]].Est()
		}

		var eps int
		switch {
		case i >= 0:
			eps = minInt(tree.PPlus(i), tPrime-t)
		case tPrime < PosInfinity:
			eps = tPrime - t
		default:
			// Neither A nor U can advance further; nothing more to
			// deduce even though S is not fully drained (can happen
			// when remaining tasks in S have no positive pPlus left).
			return changed, nil
		}
		if eps <= 0 {
			eps = 1
		}

		t += eps
		if i >= 0 {
			tree.UpdateAt(i, -eps)
			if tree.PPlus(i) <= 0 {
				removeFromS(i)
				A.removeID(i)
			}
		}

		nu := smallestInS()
		nuLct := PosInfinity
		if nu >= 0 {
			nuLct = tasks[nu].Lct()
		}

		for j, sc := range scOf {
			stale := tree.PPlus(sc) <= 0 || (nu >= 0 && nuLct > tasks[sc].Lct())
			if !stale {
				continue
			}
			delete(scOf, j)
			c, err := filterEst(tasks[j], t, nil, "edge-finding: super-critical set forces later start")
			if err != nil {
				return changed, err
			}
			changed = changed || c
		}

		for len(U) > 0 && tasks[U[len(U)-1]].Est() == t {
			id := U[len(U)-1]
			U = U[:len(U)-1]
			heap.Push(A, heapItem{id: id, lct: tasks[id].Lct()})
		}
	}

	return changed, nil
}
