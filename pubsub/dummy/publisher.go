package dummy

import (
	"sync"

	"github.com/lunahome/luna/pubsub"
)

// Dummy Publisher for testing
type Publisher struct {
	mu     sync.Mutex
	Events []*pubsub.Event
}

func (self *Publisher) ID() string {
	return "dummy"
}

func (self *Publisher) Emit(ev *pubsub.Event) {
	self.mu.Lock()
	self.Events = append(self.Events, ev)
	self.mu.Unlock()
}

// Emitted returns a copy of the events emitted so far.
func (self *Publisher) Emitted() []*pubsub.Event {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]*pubsub.Event(nil), self.Events...)
}
