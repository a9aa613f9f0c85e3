package model

import (
	"container/heap"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/celer/core/geo"
)

// Request is a passenger trip request.
type Request struct {
	ID         string        `json:"id"`
	Start      geo.Point     `json:"start"`
	Stop       geo.Point     `json:"stop"`
	PickupTime time.Time     `json:"pickup_time"`
	Seats      int           `json:"seats"`
	MaxTime    time.Duration `json:"max_time"`
	Selected   bool          `json:"selected"`
}

// NewRequest returns a request with a fresh identifier.
func NewRequest(start, stop geo.Point, pickup time.Time, seats int) *Request {
	return &Request{
		ID:         uuid.NewString(),
		Start:      start,
		Stop:       stop,
		PickupTime: pickup,
		Seats:      seats,
	}
}

// Validate checks basic request fields.
func (r *Request) Validate() error {
	if r.PickupTime.IsZero() {
		return fmt.Errorf("request %s: pickup time required", r.ID)
	}
	if r.Seats < 0 {
		return fmt.Errorf("request %s: seats must be non-negative", r.ID)
	}
	return nil
}

// Queue orders pending requests by pickup time. Requests with the same
// pickup time leave in submission order. It is not safe for concurrent use.
type Queue struct {
	items requestHeap
	seq   uint64
}

// NewQueue returns an empty queue.
func NewQueue() *Queue { return &Queue{} }

// Push adds requests to the queue.
func (q *Queue) Push(reqs ...*Request) {
	for _, r := range reqs {
		heap.Push(&q.items, queued{req: r, seq: q.seq})
		q.seq++
	}
}

// Len returns the number of pending requests.
func (q *Queue) Len() int { return q.items.Len() }

// Peek returns the earliest request without removing it.
func (q *Queue) Peek() *Request {
	if q.items.Len() == 0 {
		return nil
	}
	return q.items[0].req
}

// PopDue removes and returns every request with a pickup time at or before
// now, earliest first.
func (q *Queue) PopDue(now time.Time) []*Request {
	var out []*Request
	for q.items.Len() > 0 && !q.items[0].req.PickupTime.After(now) {
		out = append(out, heap.Pop(&q.items).(queued).req)
	}
	return out
}

type queued struct {
	req *Request
	seq uint64
}

type requestHeap []queued

func (h requestHeap) Len() int { return len(h) }
func (h requestHeap) Less(i, j int) bool {
	a, b := h[i].req.PickupTime, h[j].req.PickupTime
	if !a.Equal(b) {
		return a.Before(b)
	}
	return h[i].seq < h[j].seq
}
func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *requestHeap) Push(x any)   { *h = append(*h, x.(queued)) }
func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
