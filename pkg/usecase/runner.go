package usecase

import "sync"

// Runner schedules work off the presentation goroutine.
type Runner interface {
	Go(fn func())
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(fn func())

func (f RunnerFunc) Go(fn func()) { f(fn) }

// Inline runs work on the caller's goroutine. Tests use it to make settlement deterministic.
var Inline Runner = RunnerFunc(func(fn func()) { fn() })

// AsyncRunner runs every task on its own goroutine and tracks them so the
// process can drain in-flight requests before exiting.
type AsyncRunner struct {
	wg sync.WaitGroup
}

func NewAsyncRunner() *AsyncRunner {
	return &AsyncRunner{}
}

func (r *AsyncRunner) Go(fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
}

// Wait blocks until every task started so far has returned.
func (r *AsyncRunner) Wait() {
	r.wg.Wait()
}
