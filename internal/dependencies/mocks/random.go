package mocks

import (
	"sync"

	"github.com/mcoot/battleship-go/internal/dependencies/random"
)

// MockRandom replays queued values. Once the queue is drained it falls back
// to Fallback if set, otherwise it returns 0.
type MockRandom struct {
	mu       sync.Mutex
	queue    []int
	Fallback random.Random
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued value
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		if r.Fallback != nil {
			return r.Fallback.Intn(n)
		}
		return 0
	}
	v := r.queue[0]
	r.queue = r.queue[1:]
	return v
}

// QueueIntn adds values to the result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	r.queue = append(r.queue, values...)
	r.mu.Unlock()
}

// QueuePlacement queues one ship placement: orientation then origin
func (r *MockRandom) QueuePlacement(vertical bool, x, y int) {
	o := 0
	if vertical {
		o = 1
	}
	r.QueueIntn(o, x, y)
}

// Pending returns how many queued values have not been consumed
func (r *MockRandom) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Reset clears the queue
func (r *MockRandom) Reset() {
	r.mu.Lock()
	r.queue = nil
	r.mu.Unlock()
}
