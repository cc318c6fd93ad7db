// Package events fans ledger activity out to subscribers such as websocket
// clients. Two kinds of event are published: progress lines produced while
// the ledger works and a notice for every block appended to the chain.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Kind identifies what an event describes.
type Kind string

// Set of event kinds.
const (
	KindLedger        Kind = "ledger"
	KindBlockAppended Kind = "block_appended"
)

// BlockAppended describes a block that was written to the chain.
type BlockAppended struct {
	Index        uint64 `json:"index"`
	Hash         string `json:"hash"`
	PreviousHash string `json:"previous_hash"`
	AircraftName string `json:"aircraft_name"`
	Nonce        uint64 `json:"nonce"`
}

// Event is a single notification delivered to subscribers.
type Event struct {
	Kind    Kind           `json:"kind"`
	Time    time.Time      `json:"time"`
	Message string         `json:"message,omitempty"`
	Block   *BlockAppended `json:"block,omitempty"`
}

// Ledger constructs a progress event from a ledger log line.
func Ledger(msg string) Event {
	return Event{
		Kind:    KindLedger,
		Time:    time.Now().UTC(),
		Message: msg,
	}
}

// Appended constructs the event published once a block is on the chain.
func Appended(ba BlockAppended) Event {
	return Event{
		Kind:    KindBlockAppended,
		Time:    time.Now().UTC(),
		Message: fmt.Sprintf("block %d appended for %s", ba.Index, ba.AircraftName),
		Block:   &ba,
	}
}

// =============================================================================

// subscriberBuffer bounds how far a subscriber can fall behind before events
// are dropped for it. Mining emits bursts of progress lines.
const subscriberBuffer = 256

type subscriber struct {
	ch      chan Event
	dropped atomic.Uint64
}

// Events tracks the set of subscribers keyed by a unique id.
type Events struct {
	mu   sync.RWMutex
	subs map[string]*subscriber
}

// New constructs an empty set of subscribers.
func New() *Events {
	return &Events{
		subs: make(map[string]*subscriber),
	}
}

// Subscribe registers the id and returns the channel its events arrive on.
// Subscribing an id twice returns the existing channel.
func (evt *Events) Subscribe(id string) <-chan Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.subs[id]; exists {
		return sub.ch
	}

	sub := subscriber{ch: make(chan Event, subscriberBuffer)}
	evt.subs[id] = &sub

	return sub.ch
}

// Unsubscribe removes the id and closes its channel. It returns the number
// of events that were dropped because the subscriber was not keeping up.
func (evt *Events) Unsubscribe(id string) (uint64, error) {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.subs[id]
	if !exists {
		return 0, fmt.Errorf("subscriber %q does not exist", id)
	}

	delete(evt.subs, id)
	close(sub.ch)

	return sub.dropped.Load(), nil
}

// Publish delivers the event to every subscriber without blocking. A
// subscriber with a full buffer misses the event. Publishing on a nil
// Events is a no-op.
func (evt *Events) Publish(e Event) {
	if evt == nil {
		return
	}

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, sub := range evt.subs {
		select {
		case sub.ch <- e:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Shutdown closes and removes every subscriber.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, sub := range evt.subs {
		delete(evt.subs, id)
		close(sub.ch)
	}
}

// Count returns the number of subscribers.
func (evt *Events) Count() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.subs)
}
