package fetcher

import (
	"sync"

	"github.com/patchhound/patchhound/internal/spider"
)

// requestQueue holds pending fetch requests in two FIFO buckets.
// Priority 1 requests are always dispatched before priority 0 ones.
// URLs are deduplicated across the run so the same page is never
// fetched twice. pop blocks while requests are in flight: a page being
// processed may still push follow-ups.
type requestQueue struct {
	mu   sync.Mutex
	cond *sync.Cond

	high []spider.FetchRequest
	low  []spider.FetchRequest

	seen        map[string]struct{}
	outstanding int // queued + in-flight requests
	closed      bool
}

func newRequestQueue() *requestQueue {
	q := &requestQueue{
		seen: make(map[string]struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push enqueues a request unless its URL was already requested this
// run or the queue is closed.
func (q *requestQueue) push(req spider.FetchRequest) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if _, dup := q.seen[req.URL]; dup {
		return false
	}
	q.seen[req.URL] = struct{}{}
	q.outstanding++

	if req.Priority > 0 {
		q.high = append(q.high, req)
	} else {
		q.low = append(q.low, req)
	}
	q.cond.Signal()
	return true
}

// pop returns the next request, blocking while the queue is empty but
// work is still in flight. Returns false when the run is drained or
// the queue has been closed.
func (q *requestQueue) pop() (spider.FetchRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.closed {
			return spider.FetchRequest{}, false
		}
		if len(q.high) > 0 {
			req := q.high[0]
			q.high = q.high[1:]
			return req, true
		}
		if len(q.low) > 0 {
			req := q.low[0]
			q.low = q.low[1:]
			return req, true
		}
		if q.outstanding == 0 {
			return spider.FetchRequest{}, false
		}
		q.cond.Wait()
	}
}

// taskDone marks one popped request as fully processed.
func (q *requestQueue) taskDone() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.outstanding--
	if q.outstanding <= 0 {
		q.cond.Broadcast()
	}
}

// close unblocks all waiters; subsequent pushes are dropped.
func (q *requestQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
}
