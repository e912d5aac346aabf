package vectorindex

import "container/heap"

type candidate struct {
	row  int
	dist float64
}

// candidateQueue is a max-heap on distance, so the root is the worst of the
// current top k. Equal distances rank the higher row as worse.
type candidateQueue []candidate

func (pq candidateQueue) Len() int { return len(pq) }

func (pq candidateQueue) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist > pq[j].dist
	}
	return pq[i].row > pq[j].row
}

func (pq candidateQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *candidateQueue) Push(x any) {
	*pq = append(*pq, x.(candidate))
}

func (pq *candidateQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// pushWithLimit keeps at most k candidates.
func (pq *candidateQueue) pushWithLimit(c candidate, k int) {
	heap.Push(pq, c)
	if pq.Len() > k {
		heap.Pop(pq)
	}
}
