package bot

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

var ErrJobCanceled = errors.New("job canceled")

// Worker admits one download batch at a time per bot instance. The pipeline
// fans out within the batch; overlapping batches would fight over the same
// network budget.
type Worker struct {
	sem     *semaphore.Weighted
	mu      sync.Mutex
	current *Job
}

func NewWorker() *Worker {
	return &Worker{
		sem:     semaphore.NewWeighted(1),
		mu:      sync.Mutex{},
		current: nil,
	}
}

// Job is the admission handle of one running batch. Cancel tears down this
// job only, regardless of how many batches the worker admitted since.
type Job struct {
	worker *Worker
	cancel context.CancelCauseFunc
	once   sync.Once
}

func (w *Worker) TryAcquireJob(ctx context.Context) (context.Context, *Job, bool) {
	if !w.sem.TryAcquire(1) {
		return nil, nil, false
	}

	ctx, cancel := context.WithCancelCause(ctx)
	job := &Job{worker: w, cancel: cancel, once: sync.Once{}}

	w.mu.Lock()
	w.current = job
	w.mu.Unlock()

	return ctx, job, true
}

// CancelJob stops whatever batch is currently running, if any.
func (w *Worker) CancelJob() {
	w.mu.Lock()
	job := w.current
	w.mu.Unlock()

	if nil != job {
		job.Cancel()
	}
}

// Cancel stops the job and frees its admission slot. It is idempotent, and a
// no-op on the slot once another job has been admitted after this one ended.
func (j *Job) Cancel() {
	j.once.Do(func() {
		j.cancel(ErrJobCanceled)

		j.worker.mu.Lock()
		if j.worker.current == j {
			j.worker.current = nil
		}
		j.worker.mu.Unlock()

		j.worker.sem.Release(1)
	})
}
