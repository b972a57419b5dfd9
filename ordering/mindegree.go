package ordering

import "container/heap"

// MinimumDegree returns an elimination order (a permutation of
// 0..n-1) for n variables whose adjacency is given as neighbor lists.
// Adjacency may contain duplicates and self-references; both are
// ignored. Ties break on the smaller variable index, which makes the
// order deterministic for a fixed graph.
//
// Complexity: O((V + fill) log V) heap work plus the clique updates.
func MinimumDegree(n int, adj [][]int) []int {
	// Symmetrized neighbor sets; the input is treated as undirected.
	nb := make([]map[int]struct{}, n)
	for v := range nb {
		nb[v] = make(map[int]struct{})
	}
	for v, ns := range adj {
		if v >= n {
			break
		}
		for _, w := range ns {
			if w == v || w < 0 || w >= n {
				continue
			}
			nb[v][w] = struct{}{}
			nb[w][v] = struct{}{}
		}
	}

	h := &degreeHeap{}
	heap.Init(h)
	for v := 0; v < n; v++ {
		heap.Push(h, degreeEntry{v: v, deg: len(nb[v])})
	}

	order := make([]int, 0, n)
	eliminated := make([]bool, n)
	for h.Len() > 0 {
		e := heap.Pop(h).(degreeEntry)
		if eliminated[e.v] || e.deg != len(nb[e.v]) {
			continue // stale entry under the lazy decrease-key scheme
		}
		eliminated[e.v] = true
		order = append(order, e.v)

		// The eliminated variable's neighbors become a clique.
		ns := make([]int, 0, len(nb[e.v]))
		for w := range nb[e.v] {
			ns = append(ns, w)
		}
		for _, w := range ns {
			delete(nb[w], e.v)
		}
		for i, w := range ns {
			for _, u := range ns[i+1:] {
				nb[w][u] = struct{}{}
				nb[u][w] = struct{}{}
			}
		}
		for _, w := range ns {
			heap.Push(h, degreeEntry{v: w, deg: len(nb[w])})
		}
	}

	return order
}

// degreeEntry is one (variable, degree-at-push-time) heap element.
type degreeEntry struct {
	v, deg int
}

// degreeHeap is a min-heap on degree with index tie-breaking.
type degreeHeap []degreeEntry

func (h degreeHeap) Len() int { return len(h) }

func (h degreeHeap) Less(i, j int) bool {
	if h[i].deg != h[j].deg {
		return h[i].deg < h[j].deg
	}

	return h[i].v < h[j].v
}

func (h degreeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *degreeHeap) Push(x interface{}) { *h = append(*h, x.(degreeEntry)) }

func (h *degreeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]

	return e
}
