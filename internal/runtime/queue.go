package runtime

import (
	"sync"
	"time"
)

// Queue is an unbounded FIFO with close semantics and bounded waits.
// Wakeups assume a single consumer; producers may be concurrent.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	head   int
	closed bool

	signal    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (queue *Queue[T]) Push(item T) bool {
	queue.mu.Lock()
	if queue.closed {
		queue.mu.Unlock()
		return false
	}
	queue.items = append(queue.items, item)
	queue.mu.Unlock()

	select {
	case queue.signal <- struct{}{}:
	default:
	}
	return true
}

// TryPop returns the oldest item without waiting.
func (queue *Queue[T]) TryPop() (T, bool) {
	queue.mu.Lock()
	defer queue.mu.Unlock()
	return queue.popLocked()
}

// PopWithin waits up to timeout for an item. It returns false on timeout, or
// once the queue is closed and empty. Items pushed before Close stay readable.
func (queue *Queue[T]) PopWithin(timeout time.Duration) (T, bool) {
	if item, ok := queue.TryPop(); ok {
		return item, true
	}
	if timeout <= 0 {
		var zero T
		return zero, false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-queue.signal:
		case <-queue.done:
			return queue.TryPop()
		case <-timer.C:
			return queue.TryPop()
		}
		if item, ok := queue.TryPop(); ok {
			return item, true
		}
	}
}

// Pop blocks until an item arrives or the queue is closed and empty.
func (queue *Queue[T]) Pop() (T, bool) {
	for {
		if item, ok := queue.TryPop(); ok {
			return item, true
		}
		select {
		case <-queue.signal:
		case <-queue.done:
			return queue.TryPop()
		}
	}
}

func (queue *Queue[T]) Len() int {
	queue.mu.Lock()
	defer queue.mu.Unlock()
	return len(queue.items) - queue.head
}

func (queue *Queue[T]) Closed() bool {
	queue.mu.Lock()
	defer queue.mu.Unlock()
	return queue.closed
}

func (queue *Queue[T]) Close() {
	queue.closeOnce.Do(func() {
		queue.mu.Lock()
		queue.closed = true
		queue.mu.Unlock()
		close(queue.done)
	})
}

func (queue *Queue[T]) popLocked() (T, bool) {
	if queue.head >= len(queue.items) {
		var zero T
		return zero, false
	}
	item := queue.items[queue.head]
	var zero T
	queue.items[queue.head] = zero
	queue.head++
	queue.compact()
	return item, true
}

func (queue *Queue[T]) compact() {
	if queue.head == 0 {
		return
	}
	if queue.head < 1024 && queue.head*2 < len(queue.items) {
		return
	}
	remaining := len(queue.items) - queue.head
	copy(queue.items[:remaining], queue.items[queue.head:])
	clear(queue.items[remaining:])
	queue.items = queue.items[:remaining]
	queue.head = 0
}
