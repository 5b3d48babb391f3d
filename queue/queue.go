// Package queue provides the capacity-bounded priority queue that feeds
// ready tasks to worker loops.
//
// Ordering is by dequeue rank (lower first), then enqueue time, then a
// monotonic sequence number, so dequeue order within one priority level
// is strict FIFO even when enqueue timestamps collide.
package queue

import (
	"container/heap"
	"sync"
	"time"

	"github.com/pondworks/taskpool"
	"github.com/pondworks/taskpool/id"
)

// Entry is one queued reference to a pending task.
type Entry struct {
	// Rank is the dequeue ordering key derived from the task's priority.
	// Lower rank dequeues first.
	Rank int

	// EnqueuedAt is when the entry was pushed. Retries re-enqueue with a
	// fresh timestamp, so a retried task rejoins the back of its level.
	EnqueuedAt time.Time

	// Seq breaks ties between entries with identical rank and timestamp.
	Seq uint64

	// TaskID references the task in the engine registry.
	TaskID id.TaskID
}

// Queue is a capacity-bounded priority queue. It manages its own
// internal locking and is safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	entries  entryHeap
	seq      uint64
	capacity int

	// notify wakes one idle worker after a push. Capacity 1: a pending
	// wake-up is never lost, duplicates are collapsed.
	notify chan struct{}
}

// New creates a Queue holding at most capacity entries.
func New(capacity int) *Queue {
	q := &Queue{
		entries:  make(entryHeap, 0, capacity),
		capacity: capacity,
		notify:   make(chan struct{}, 1),
	}
	heap.Init(&q.entries)
	return q
}

// Push inserts an entry for the given task. It returns ErrQueueFull when
// the capacity bound is exceeded; the queue state is unchanged by a
// rejected push and later pushes still succeed.
func (q *Queue) Push(rank int, enqueuedAt time.Time, taskID id.TaskID) error {
	q.mu.Lock()
	if q.capacity > 0 && len(q.entries) >= q.capacity {
		q.mu.Unlock()
		return taskpool.ErrQueueFull
	}

	q.seq++
	heap.Push(&q.entries, Entry{
		Rank:       rank,
		EnqueuedAt: enqueuedAt,
		Seq:        q.seq,
		TaskID:     taskID,
	})
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Pop removes and returns the next ready entry. It never blocks; the
// second return value is false when the queue is empty.
func (q *Queue) Pop() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Entry{}, false
	}
	e := heap.Pop(&q.entries).(Entry)
	return e, true
}

// Len returns the current number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Wake returns a channel that receives after a push. Workers select on
// it alongside their stop signal and poll tick to implement a bounded
// wait for the next ready entry.
func (q *Queue) Wake() <-chan struct{} {
	return q.notify
}

// entryHeap implements heap.Interface as a min-heap over
// (Rank, EnqueuedAt, Seq).
type entryHeap []Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].Rank != h[j].Rank {
		return h[i].Rank < h[j].Rank
	}
	if !h[i].EnqueuedAt.Equal(h[j].EnqueuedAt) {
		return h[i].EnqueuedAt.Before(h[j].EnqueuedAt)
	}
	return h[i].Seq < h[j].Seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(Entry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
