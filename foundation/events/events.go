// Package events fans node events out to the websocket clients that are
// subscribed to them.
package events

import (
	"fmt"
	"strings"
	"sync"
)

// messageBuffer is the number of events held for a subscriber that is
// slow to read. Events beyond that are dropped for that subscriber.
const messageBuffer = 100

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	prefixes []string
	m        map[string]chan string
	mu       sync.RWMutex
}

// New constructs an events for registering and receiving events. When
// prefixes are provided, only events starting with one of them are sent.
func New(prefixes ...string) *Events {
	return &Events{
		prefixes: prefixes,
		m:        make(map[string]chan string),
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
func (evt *Events) Acquire(id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	evt.m[id] = make(chan string, messageBuffer)
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

// Len returns the number of subscribers.
func (evt *Events) Len() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send signals a message to every registered channel. Send will not block
// waiting for a receiver on any given channel.
func (evt *Events) Send(s string) {
	if !evt.match(s) {
		return
	}

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- s:
		default:
		}
	}
}

func (evt *Events) match(s string) bool {
	if len(evt.prefixes) == 0 {
		return true
	}

	for _, prefix := range evt.prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}

	return false
}
