package netsync

import (
	"sync"

	"github.com/ShangTsung3/battle-city-pro/internal/net/proto"
	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
)

const (
	inboxOccupancyMetricKey = "netsync_inbox_occupancy"
	inboxOverflowMetricKey  = "netsync_inbox_overflow_total"

	// DefaultInboxCapacity bounds the messages buffered between two ticks.
	DefaultInboxCapacity = 1024
)

// Inbox stages inbound messages in a fixed-size ring. It is safe for
// concurrent producers and a single consumer: transports push, the engine
// drains once per tick.
type Inbox struct {
	mu      sync.Mutex
	data    []proto.Message
	head    int
	tail    int
	count   int
	dropped uint64
	metrics telemetry.Metrics
}

// NewInbox constructs a ring with the provided capacity.
func NewInbox(capacity int, metrics telemetry.Metrics) *Inbox {
	if capacity < 1 {
		capacity = 1
	}
	return &Inbox{
		data:    make([]proto.Message, capacity),
		metrics: metrics,
	}
}

// Capacity reports the maximum number of messages the inbox can hold.
func (b *Inbox) Capacity() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Push stages a message, returning false if the inbox is full.
func (b *Inbox) Push(msg proto.Message) bool {
	if b == nil || msg == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == len(b.data) {
		b.dropped++
		if b.metrics != nil {
			b.metrics.Add(inboxOverflowMetricKey, 1)
		}
		return false
	}
	b.data[b.tail] = msg
	b.tail = (b.tail + 1) % len(b.data)
	b.count++
	b.storeOccupancyLocked()
	return true
}

// Drain returns all staged messages in FIFO order and clears the inbox.
func (b *Inbox) Drain() []proto.Message {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return nil
	}
	messages := make([]proto.Message, b.count)
	for i := 0; i < b.count; i++ {
		idx := (b.head + i) % len(b.data)
		messages[i] = b.data[idx]
		b.data[idx] = nil
	}
	b.head = 0
	b.tail = 0
	b.count = 0
	b.storeOccupancyLocked()
	return messages
}

// Len reports the number of staged messages.
func (b *Inbox) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// TakeDropped returns the overflow count since the previous call and resets
// it.
func (b *Inbox) TakeDropped() uint64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	dropped := b.dropped
	b.dropped = 0
	return dropped
}

func (b *Inbox) storeOccupancyLocked() {
	if b.metrics == nil {
		return
	}
	b.metrics.Store(inboxOccupancyMetricKey, uint64(b.count))
}
