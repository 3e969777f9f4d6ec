package debugbus

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded generation-service call.
type Entry struct {
	ID        string      `json:"id"`
	Method    string      `json:"method"`
	Payload   interface{} `json:"payload"`
	Response  interface{} `json:"response"`
	Latency   int64       `json:"latency"` // milliseconds
	Status    string      `json:"status"`  // "success" or "error"
	Timestamp time.Time   `json:"timestamp"`
}

// Subscriber receives entries as they are published.
type Subscriber func(Entry)

// Bus is a process-wide publish/subscribe channel for generation-call
// telemetry. Publish never blocks on delivery and keeps no history: an entry
// published while no subscriber is attached is dropped, not replayed.
type Bus struct {
	mu   sync.Mutex
	subs []subscription
	next int
}

type subscription struct {
	id int
	fn Subscriber
}

func New() *Bus {
	return &Bus{}
}

// Subscribe attaches a subscriber and returns a handle for Unsubscribe.
// Subscribers are notified in attachment order.
func (b *Bus) Subscribe(fn Subscriber) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.subs = append(b.subs, subscription{id: b.next, fn: fn})
	return b.next
}

// Unsubscribe detaches a subscriber. Detaching stops delivery immediately.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish assigns the entry an identifier and timestamp, then notifies all
// current subscribers synchronously.
func (b *Bus) Publish(entry Entry) {
	entry.ID = uuid.NewString()
	entry.Timestamp = time.Now()

	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(entry)
	}
}
