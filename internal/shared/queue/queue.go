// Package queue holds a tiny fixed-capacity ring of key hashes. Shards
// use it to hand stale keys to the background refresher without
// allocating; a full ring drops the push and the key is retried on a
// later read.
package queue

import "sync"

type Queue struct {
	mu         sync.Mutex
	buf        []uint64
	head, tail int
}

func (q *Queue) Init(size int) {
	if size < 2 {
		size = 2
	}
	q.buf = make([]uint64, size)
	q.head, q.tail = 0, 0
}

func (q *Queue) TryPush(k uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	next := (q.head + 1) % len(q.buf)
	if next == q.tail { // full
		return false
	}
	q.buf[q.head] = k
	q.head = next
	return true
}

func (q *Queue) TryPop() (uint64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head == q.tail {
		return 0, false
	}
	v := q.buf[q.tail]
	q.tail = (q.tail + 1) % len(q.buf)
	return v, true
}

// Len reports the number of queued keys.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.head - q.tail
	if n < 0 {
		n += len(q.buf)
	}
	return n
}
