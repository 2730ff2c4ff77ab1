package pipeline

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/xeptore/musicflow/must"
)

// Limiter is the admission gate bounding concurrently in-flight jobs. The
// weighted semaphore admits waiters in FIFO order, so no queued job starves
// under bounded total work.
type Limiter struct {
	sem      *semaphore.Weighted
	capacity int
}

func NewLimiter(capacity int) *Limiter {
	must.Be(capacity > 0, "limiter capacity must be positive")

	return &Limiter{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

func (l *Limiter) Capacity() int {
	return l.capacity
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *Limiter) Release() {
	l.sem.Release(1)
}
