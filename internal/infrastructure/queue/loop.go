package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dataflow/console/internal/core/ports"
)

const defaultBuffer = 256

// Loop runs every scheduled callback on a single goroutine, in the order the
// callbacks became due. Services that poll the backend get the serial
// execution model without holding their own locks across callbacks.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
	log   zerolog.Logger
}

// NewLoop creates a Loop with room for buffer queued callbacks.
// If buffer <= 0, defaultBuffer is used.
func NewLoop(buffer int, log zerolog.Logger) *Loop {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
		log:   log,
	}
}

// Start launches the loop goroutine. It stops when ctx is cancelled; callbacks
// that become due afterwards are dropped.
func (l *Loop) Start(ctx context.Context) {
	go l.run(ctx)
}

// Done is closed once the loop goroutine exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) Now() time.Time {
	return time.Now()
}

// AfterFunc queues f on the loop after d elapses.
func (l *Loop) AfterFunc(d time.Duration, f func()) ports.Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.enqueue(func() {
			if t.state.CompareAndSwap(timerPending, timerFired) {
				f()
			}
		})
	})
	return t
}

// Do queues f to run on the loop as soon as possible.
func (l *Loop) Do(f func()) {
	l.enqueue(f)
}

// Offload runs work on its own goroutine and queues then on the loop once
// work returned.
func (l *Loop) Offload(work, then func()) {
	go func() {
		work()
		l.Do(then)
	}()
}

func (l *Loop) enqueue(f func()) {
	select {
	case l.tasks <- f:
	case <-l.done:
	}
}

func (l *Loop) run(ctx context.Context) {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-l.tasks:
			l.exec(f)
		}
	}
}

func (l *Loop) exec(f func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Interface("panic", r).Msg("scheduled callback panicked")
		}
	}()
	f()
}

const (
	timerPending int32 = iota
	timerFired
	timerStopped
)

type loopTimer struct {
	timer *time.Timer
	state atomic.Int32
}

// Stop prevents the callback from running, even when its timer already fired
// and the callback is waiting in the loop queue.
func (t *loopTimer) Stop() bool {
	if !t.state.CompareAndSwap(timerPending, timerStopped) {
		return false
	}
	t.timer.Stop()
	return true
}
