package eventbus

import "sync"

// hookList is a registration list that can be appended to while it is being
// run; run works on a snapshot.
type hookList[F any] struct {
	mu  sync.RWMutex
	fns []F
}

func (l *hookList[F]) add(fn F) {
	l.mu.Lock()
	l.fns = append(l.fns, fn)
	l.mu.Unlock()
}

func (l *hookList[F]) snapshot() []F {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]F(nil), l.fns...)
}

type hooks struct {
	published hookList[func(Event, any)]
	dropped   hookList[func(Event, any)]
	panicked  hookList[func(Event, any, any)]
}

// OnPublish registers fn to run after an event is enqueued.
func (bus *EventBus) OnPublish(fn func(event Event, payload any)) {
	bus.hooks.published.add(fn)
}

// OnDrop registers fn to run when an event is dropped because the buffer is
// full.
func (bus *EventBus) OnDrop(fn func(event Event, payload any)) {
	bus.hooks.dropped.add(fn)
}

// OnPanic registers fn to run when a subscriber panics. A panicking hook is
// recovered and ignored.
func (bus *EventBus) OnPanic(fn func(event Event, payload any, recovered any)) {
	bus.hooks.panicked.add(fn)
}

// send enqueues an event without blocking. Publishing on a nil bus is a no-op
// so components can run without one.
func (bus *EventBus) send(event Event, payload any) {
	if bus == nil {
		return
	}

	list := &bus.hooks.published
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
	default:
		list = &bus.hooks.dropped
	}
	for _, fn := range list.snapshot() {
		fn(event, payload)
	}
}

func (bus *EventBus) firePanic(event Event, payload any, recovered any) {
	for _, fn := range bus.hooks.panicked.snapshot() {
		func() {
			defer func() { _ = recover() }()
			fn(event, payload, recovered)
		}()
	}
}
