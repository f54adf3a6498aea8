package overlay

import "sync"

// DefaultLoopBuffer is the number of tasks a Loop queues before Post blocks.
const DefaultLoopBuffer = 64

// Loop is the rendering execution context: a single goroutine that runs
// posted tasks one at a time, in order. Gate state and visual output are
// only touched from tasks on the loop.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewLoop creates a stopped loop; call Run to start it.
func NewLoop() *Loop {
	return &Loop{
		tasks: make(chan func(), DefaultLoopBuffer),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run executes tasks until Stop is called. It blocks.
func (l *Loop) Run() {
	defer close(l.done)
	for {
		select {
		case f := <-l.tasks:
			f()
		case <-l.quit:
			return
		}
	}
}

// Post queues f. It reports false if the loop has been stopped.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}

	select {
	case l.tasks <- f:
		return true
	case <-l.quit:
		return false
	}
}

// Sync runs f on the loop and waits for it to finish. It reports false if
// the loop stopped before f ran.
func (l *Loop) Sync(f func()) bool {
	ran := make(chan struct{})
	if !l.Post(func() {
		f()
		close(ran)
	}) {
		return false
	}

	select {
	case <-ran:
		return true
	case <-l.done:
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

// Stop ends Run after the task in progress. Queued tasks are discarded.
func (l *Loop) Stop() {
	l.once.Do(func() {
		close(l.quit)
	})
}

// Done is closed when Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
