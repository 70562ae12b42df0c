package epollreactor

import (
	"sync/atomic"
	"time"
)

// timerEntry is one pending AfterFunc registration. Stop can be called from
// any goroutine; the reactor loop only touches the flag after popping the
// entry off the heap, where it sets it before firing, so a single atomic
// flag is enough — no additional locking needed between Stop and the loop.
type timerEntry struct {
	deadline time.Time
	fn       func()
	index    int
	stopFlag int32
}

// Stop cancels the timer. It reports true if the timer had not already
// fired or been stopped.
func (t *timerEntry) Stop() bool {
	return atomic.CompareAndSwapInt32(&t.stopFlag, 0, 1)
}

func (t *timerEntry) isStopped() bool {
	return atomic.LoadInt32(&t.stopFlag) == 1
}

// timerHeap is a container/heap ordering timerEntry by deadline, giving the
// reactor loop O(log n) insertion and always-cheapest-next-deadline access.
type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	entry := x.(*timerEntry)
	entry.index = len(*h)
	*h = append(*h, entry)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return entry
}
