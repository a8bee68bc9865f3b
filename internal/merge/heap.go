package merge

// runHeap is a min-heap of runs ordered by head element.
// Uses parallel index/key slices for O(log k) push/pop without boxing.
type runHeap struct {
	runs []int32 // Run indices
	keys []int64 // Corresponding head elements
}

func newRunHeap(capacity int) *runHeap {
	return &runHeap{
		runs: make([]int32, 0, capacity),
		keys: make([]int64, 0, capacity),
	}
}

func (h *runHeap) len() int {
	return len(h.runs)
}

// push adds a run keyed by its head element. O(log k).
func (h *runHeap) push(run int, key int64) {
	h.runs = append(h.runs, int32(run))
	h.keys = append(h.keys, key)
	h.up(len(h.runs) - 1)
}

// top returns the run with the smallest head.
func (h *runHeap) top() int {
	return int(h.runs[0])
}

// next returns the second-smallest key, i.e. the smallest head among the
// runs other than top. ok is false when top is the only run.
func (h *runHeap) next() (key int64, ok bool) {
	switch len(h.keys) {
	case 0, 1:
		return 0, false
	case 2:
		return h.keys[1], true
	default:
		return min(h.keys[1], h.keys[2]), true
	}
}

// replaceTop re-keys the top run after its head advanced. Equivalent to
// pop followed by push with the same run, with one sift instead of two.
func (h *runHeap) replaceTop(key int64) {
	h.keys[0] = key
	h.down(0, len(h.runs))
}

// pop removes and returns the top run.
func (h *runHeap) pop() int {
	n := len(h.runs) - 1
	h.swap(0, n)
	h.down(0, n)
	run := h.runs[n]
	h.runs = h.runs[:n]
	h.keys = h.keys[:n]
	return int(run)
}

func (h *runHeap) swap(i, j int) {
	h.runs[i], h.runs[j] = h.runs[j], h.runs[i]
	h.keys[i], h.keys[j] = h.keys[j], h.keys[i]
}

func (h *runHeap) less(i, j int) bool {
	if h.keys[i] != h.keys[j] {
		return h.keys[i] < h.keys[j]
	}
	// Deterministic tie-break by run index
	return h.runs[i] < h.runs[j]
}

func (h *runHeap) up(j int) {
	for {
		i := (j - 1) / 2 // parent
		if i == j || !h.less(j, i) {
			break
		}
		h.swap(i, j)
		j = i
	}
}

func (h *runHeap) down(i, n int) {
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1 // left child
		if j2 := j1 + 1; j2 < n && h.less(j2, j1) {
			j = j2 // right child
		}
		if !h.less(j, i) {
			break
		}
		h.swap(i, j)
		i = j
	}
}
