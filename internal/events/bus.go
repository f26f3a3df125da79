// Package events is a small in-process domain event bus. Producers never
// publish directly: they take an Outbox, enqueue while their transaction is
// in flight, and Commit only after the write succeeded. A discarded outbox
// delivers nothing, which keeps listeners from observing rolled-back work.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CarVault/CarVault/internal/common/logger"
)

// Event is any domain notification with a stable name.
type Event interface {
	Name() string
}

// Envelope wraps an event with delivery metadata.
type Envelope struct {
	ID         string
	OccurredAt time.Time
	Event      Event
}

// Listener receives events off the producer's goroutine. Panics are
// contained and logged; they never reach the producer.
type Listener func(ctx context.Context, env Envelope)

// Bus fans events out to listeners through a single dispatcher goroutine, so
// listeners observe events in publish order. Delivery is at-least-once from
// the producer's point of view and asynchronous with respect to it.
type Bus struct {
	log   logger.Logger
	queue chan Envelope

	mu        sync.RWMutex
	listeners []Listener
	closed    bool

	done chan struct{}
}

const defaultQueueDepth = 256

func NewBus(log logger.Logger) *Bus {
	b := &Bus{
		log:   log,
		queue: make(chan Envelope, defaultQueueDepth),
		done:  make(chan struct{}),
	}
	go b.dispatch()
	return b
}

// Subscribe registers a listener for all events.
func (b *Bus) Subscribe(l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	b.listeners = append(b.listeners, l)
	b.mu.Unlock()
}

// Publish enqueues an event for asynchronous delivery. Events published
// after Close are dropped.
func (b *Bus) Publish(ev Event) {
	if ev == nil {
		return
	}
	env := Envelope{
		ID:         uuid.NewString(),
		OccurredAt: time.Now(),
		Event:      ev,
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		if b.log != nil {
			b.log.Warnf("event bus closed, dropping event %s", ev.Name())
		}
		return
	}
	b.queue <- env
}

// Close stops accepting events and blocks until queued events are delivered.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.queue)
	<-b.done
}

func (b *Bus) dispatch() {
	defer close(b.done)
	for env := range b.queue {
		b.mu.RLock()
		ls := make([]Listener, len(b.listeners))
		copy(ls, b.listeners)
		b.mu.RUnlock()

		for _, l := range ls {
			b.deliver(l, env)
		}
	}
}

func (b *Bus) deliver(l Listener, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			if b.log != nil {
				b.log.Errorf("event listener panicked on %s: %v", env.Event.Name(), r)
			}
		}
	}()
	// Listeners run detached from the producing request; they must not hold
	// producer resources, so they get a fresh context.
	l(context.Background(), env)
}

// Outbox buffers events for one producing transaction.
type Outbox struct {
	bus     *Bus
	pending []Event
	settled bool
}

// Outbox returns a fresh buffer bound to this bus.
func (b *Bus) Outbox() *Outbox {
	return &Outbox{bus: b}
}

// Enqueue records an event to be published if the transaction commits.
func (o *Outbox) Enqueue(ev Event) {
	if o.settled || ev == nil {
		return
	}
	o.pending = append(o.pending, ev)
}

// Commit releases the buffered events to the bus, in enqueue order.
func (o *Outbox) Commit() {
	if o.settled {
		return
	}
	o.settled = true
	for _, ev := range o.pending {
		o.bus.Publish(ev)
	}
	o.pending = nil
}

// Discard drops the buffered events. Safe to defer unconditionally: it is a
// no-op after Commit.
func (o *Outbox) Discard() {
	if o.settled {
		return
	}
	o.settled = true
	o.pending = nil
}
