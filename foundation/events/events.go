// Package events fans out node activity to websocket subscribers.
package events

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Prefix marks the event handler messages that are published to subscribers.
const Prefix = "viewer:"

// messageBuffer is the number of events a slow subscriber can fall behind
// before events are dropped for it.
const messageBuffer = 100

// Event is a single piece of node activity.
type Event struct {
	Node    int       `json:"node"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Parse turns an event handler message such as "viewer: block: mined: 3"
// into an event. It reports false for messages without the prefix.
func Parse(node int, msg string) (Event, bool) {
	rest, found := strings.CutPrefix(msg, Prefix)
	if !found {
		return Event{}, false
	}

	kind, message, _ := strings.Cut(strings.TrimSpace(rest), ":")

	evt := Event{
		Node:    node,
		Kind:    strings.TrimSpace(kind),
		Message: strings.TrimSpace(message),
		Time:    time.Now().UTC(),
	}

	return evt, true
}

// =============================================================================

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	m  map[string]chan Event
	mu sync.RWMutex
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]chan Event),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive events.
func (evt *Events) Acquire(id string) <-chan Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	evt.m[id] = make(chan Event, messageBuffer)
	return evt.m[id]
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Subscribers returns the number of registered channels.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send signals an event to every registered channel. Send will not block
// waiting for a receiver on any given channel.
func (evt *Events) Send(e Event) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- e:
		default:
		}
	}
}
