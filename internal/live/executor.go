package live

import "sync"

// Executor runs posted functions one at a time, in posting order.
type Executor interface {
	Post(fn func())
}

type inline struct{}

func (inline) Post(fn func()) { fn() }

// Inline runs each function immediately on the posting goroutine. Tests use
// it to drive view-models deterministically.
var Inline Executor = inline{}

// Loop is an Executor backed by one goroutine and an unbounded FIFO queue.
// Post never blocks.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewLoop starts a loop goroutine.
func NewLoop() *Loop {
	l := &Loop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Post queues fn. Functions posted after Close are dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
}

// Close stops the loop after the queued functions have run and waits for it
// to exit. It must not be called from a function running on the loop.
func (l *Loop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		l.cond.Signal()
	}
	l.mu.Unlock()
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}

// Call posts fn to exec and waits for it to finish. It must not be called
// from a function already running on exec unless exec is Inline. If exec
// drops fn, Call returns false.
func Call(exec Executor, fn func()) bool {
	if exec == Inline {
		fn()
		return true
	}

	ran := make(chan struct{})
	exec.Post(func() {
		defer close(ran)
		fn()
	})

	if l, ok := exec.(*Loop); ok {
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
	<-ran
	return true
}
