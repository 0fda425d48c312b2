package dom

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ErrClosed is returned when subscribing to a closed dispatcher.
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher fans mutation notifications out to subscribers on a single
// goroutine, which runs only while there are subscribers. Notifications that
// arrive while a round is running coalesce into one more round, so a
// subscriber is never called concurrently with itself.
type Dispatcher struct {
	logger  *zap.Logger
	pending chan struct{}

	mu      sync.Mutex
	fns     map[int]func()
	nextID  int
	stop    chan struct{}
	stopped chan struct{}
	closed  bool
}

// NewDispatcher creates an idle dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		logger:  logger,
		pending: make(chan struct{}, 1),
		fns:     make(map[int]func()),
	}
}

// Subscribe registers fn and returns its cancel function. cancel must not
// be called from within a subscriber.
func (d *Dispatcher) Subscribe(fn func()) (func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	id := d.nextID
	d.nextID++
	d.fns[id] = fn

	if d.stop == nil {
		d.stop = make(chan struct{})
		d.stopped = make(chan struct{})
		go d.run(d.stop, d.stopped)
	}

	var once sync.Once
	return func() { once.Do(func() { d.unsubscribe(id) }) }, nil
}

// Notify schedules a round of subscriber calls. It never blocks.
func (d *Dispatcher) Notify() {
	select {
	case d.pending <- struct{}{}:
	default:
	}
}

// Close drops every subscriber and stops the goroutine.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.fns = make(map[int]func())
	stop, stopped := d.detach()
	d.mu.Unlock()

	wait(stop, stopped)
}

func (d *Dispatcher) unsubscribe(id int) {
	d.mu.Lock()
	delete(d.fns, id)
	var stop, stopped chan struct{}
	if len(d.fns) == 0 {
		stop, stopped = d.detach()
	}
	d.mu.Unlock()

	wait(stop, stopped)
}

// detach hands the running goroutine's channels to the caller; d.mu must be held.
func (d *Dispatcher) detach() (chan struct{}, chan struct{}) {
	stop, stopped := d.stop, d.stopped
	d.stop, d.stopped = nil, nil
	return stop, stopped
}

func wait(stop, stopped chan struct{}) {
	if stop == nil {
		return
	}
	close(stop)
	<-stopped
}

func (d *Dispatcher) run(stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	for {
		select {
		case <-stop:
			return
		case <-d.pending:
			for _, fn := range d.snapshot() {
				d.call(fn)
			}
		}
	}
}

func (d *Dispatcher) snapshot() []func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]int, 0, len(d.fns))
	for id := range d.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]func(), 0, len(ids))
	for _, id := range ids {
		out = append(out, d.fns[id])
	}
	return out
}

func (d *Dispatcher) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("Mutation subscriber panicked", zap.Any("panic", r))
		}
	}()
	fn()
}
