package interactions

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Dispatcher feeds events to a Registry from a single consumer goroutine, so
// listeners of one event finish before the next event is dispatched.
type Dispatcher struct {
	registry *Registry

	queue chan Event
	done  chan struct{}

	// closeMu keeps Stop from racing an in-flight Enqueue.
	closeMu sync.RWMutex
	closed  bool

	stateMu sync.Mutex
	started bool
	pending int
	rootCtx context.Context
}

// NewDispatcher creates a dispatcher with a fixed-size queue.
func NewDispatcher(registry *Registry, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Dispatcher{
		registry: registry,
		queue:    make(chan Event, queueSize),
		done:     make(chan struct{}),
	}
}

// Start begins the dispatch loop. It runs until ctx is canceled.
func (d *Dispatcher) Start(ctx context.Context) error {
	if d.registry == nil {
		return errors.New("registry is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.stateMu.Lock()
	if d.started {
		d.stateMu.Unlock()
		return errors.New("dispatcher already started")
	}
	d.started = true
	d.rootCtx = ctx
	d.stateMu.Unlock()

	go d.run(ctx)
	return nil
}

// Enqueue submits one event for FIFO dispatch.
func (d *Dispatcher) Enqueue(ctx context.Context, event Event) error {
	if event == nil {
		return errors.New("event is required")
	}
	rootCtx, started := d.dispatchContext()
	if !started {
		return errors.New("dispatcher is not started")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.closeMu.RLock()
	defer d.closeMu.RUnlock()
	if d.closed {
		return ErrDispatcherStopped
	}
	if err := rootCtx.Err(); err != nil {
		return err
	}

	d.addPending(1)
	select {
	case <-rootCtx.Done():
		d.addPending(-1)
		return rootCtx.Err()
	case <-ctx.Done():
		d.addPending(-1)
		return ctx.Err()
	case d.queue <- event:
		return nil
	}
}

// Stop rejects further events and drops the queued ones. An in-flight
// dispatch is left to finish.
func (d *Dispatcher) Stop() {
	d.closeMu.Lock()
	d.closed = true
	d.closeMu.Unlock()
	d.drain()
}

func (d *Dispatcher) drain() {
	for {
		select {
		case <-d.queue:
			d.addPending(-1)
		default:
			return
		}
	}
}

// Wait blocks until the dispatch loop exits.
func (d *Dispatcher) Wait() {
	if _, started := d.dispatchContext(); !started {
		return
	}
	<-d.done
}

// WaitUntilIdle blocks until no event is being dispatched and the queue is empty.
func (d *Dispatcher) WaitUntilIdle(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		if d.isIdle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case event := <-d.queue:
			d.registry.Dispatch(ctx, event)
			d.addPending(-1)
		}
	}
}

func (d *Dispatcher) dispatchContext() (context.Context, bool) {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.rootCtx, d.started
}

func (d *Dispatcher) addPending(delta int) {
	d.stateMu.Lock()
	d.pending += delta
	d.stateMu.Unlock()
}

func (d *Dispatcher) isIdle() bool {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return !d.started || d.pending == 0
}
