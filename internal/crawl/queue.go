package crawl

import (
	set "github.com/deckarep/golang-set/v2"
)

// Queue holds the directories waiting to be listed. FIFO order is what makes
// the walk breadth-first; the visited set keeps a path from being queued twice,
// which is what stops symlink loops.
type Queue struct {
	pending []string
	visited set.Set[string]
}

// NewQueue returns an empty queue with an empty visited set.
func NewQueue() *Queue {
	return &Queue{
		visited: set.NewThreadUnsafeSet[string](),
	}
}

// Seed queues the starting path without recording it as visited.
func (q *Queue) Seed(path string) {
	q.pending = append(q.pending, path)
}

// EnqueueIfNew queues path unless it was queued before during this traversal.
func (q *Queue) EnqueueIfNew(path string) bool {
	if !q.visited.Add(path) {
		return false
	}
	q.pending = append(q.pending, path)
	return true
}

// Dequeue removes and returns the oldest pending path.
func (q *Queue) Dequeue() (string, error) {
	if len(q.pending) == 0 {
		return "", ErrEmptyQueue
	}
	head := q.pending[0]
	q.pending[0] = ""
	q.pending = q.pending[1:]
	return head, nil
}

// Len is the number of pending paths.
func (q *Queue) Len() int {
	return len(q.pending)
}

// Visited reports whether path has been enqueued.
func (q *Queue) Visited(path string) bool {
	return q.visited.Contains(path)
}
