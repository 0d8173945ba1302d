// Package worker provides a single background goroutine that serializes
// calls into components with their own start/stop lifecycle, mirroring the
// upstream pattern of a dedicated thread running one event loop that every
// start_task/stop_task call is marshaled onto.
package worker

import "context"

// Task is anything with an asynchronous start/stop lifecycle, such as a
// session.Client or scanner.Scanner wrapped to match this signature.
type Task interface {
	Start(ctx context.Context) error
	Stop() error
}

type job func() error

// Worker runs submitted jobs one at a time on a single goroutine. Unlike
// the upstream thread-plus-event-loop, there is no separate async runtime
// to hand work to: the goroutine itself is the serialization point.
type Worker struct {
	jobs  chan job
	ready chan struct{}
	done  chan struct{}
}

// New starts the worker's background goroutine and blocks until it is
// accepting jobs, mirroring the upstream constructor's wait for the event
// loop thread to report ready before returning.
func New() *Worker {
	w := &Worker{
		jobs:  make(chan job, 16),
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
	go w.run()
	<-w.ready
	return w
}

func (w *Worker) run() {
	defer close(w.done)
	close(w.ready)
	for j := range w.jobs {
		_ = j()
	}
}

// submit enqueues fn and returns a channel that receives its single result
// once fn has run. The channel is buffered so a caller that never reads it
// cannot leak the worker goroutine.
func (w *Worker) submit(fn func() error) <-chan error {
	result := make(chan error, 1)
	w.jobs <- job(func() error {
		err := fn()
		result <- err
		return err
	})
	return result
}

// StartTask submits task.Start to run on the worker goroutine.
func (w *Worker) StartTask(ctx context.Context, task Task) <-chan error {
	return w.submit(func() error { return task.Start(ctx) })
}

// StopTask submits task.Stop to run on the worker goroutine.
func (w *Worker) StopTask(task Task) <-chan error {
	return w.submit(func() error { return task.Stop() })
}

// StopLoop closes the job queue, letting the background goroutine drain and
// exit once every already-submitted job has run. Calling StartTask/StopTask
// after StopLoop panics, matching the upstream's one-shot shutdown.
func (w *Worker) StopLoop() {
	close(w.jobs)
	<-w.done
}
