// Package messaging implements the inter-agent Message Bus contract
// (send/inbox, TTL expiry) behind a pluggable Bus interface: RedisBus when
// a Redis URL is configured, MemoryBus otherwise. Grounded on
// Sergey-Bar-Alfred/services/gateway's redis+ttl wiring shape for the
// Redis backend, and on the teacher's own in-memory map idioms for the
// fallback.
package messaging

import (
	"context"
	"sort"
	"sync"
	"time"
)

// AgentID aliases a bare integer id, kept independent of the agents package.
type AgentID uint64

// Message is one inbox entry.
type Message struct {
	ID       uint64    `json:"id"`
	From     AgentID   `json:"from"`
	To       AgentID   `json:"to"`
	Body     string    `json:"body"`
	SentDay  int       `json:"sent_day"`
	SentTick time.Time `json:"sent_at"`
}

// Bus is the pluggable Message Bus backing store.
type Bus interface {
	Send(ctx context.Context, msg Message) error
	Inbox(ctx context.Context, to AgentID) ([]Message, error)
	Sweep(ctx context.Context) error
}

// MemoryBus is the in-process fallback used when no Redis URL is
// configured, grounded on the teacher's mutex-guarded map idiom.
type MemoryBus struct {
	mu     sync.Mutex
	nextID uint64
	ttl    time.Duration
	byTo   map[AgentID][]Message
}

// NewMemoryBus constructs a MemoryBus with the given message retention TTL.
func NewMemoryBus(ttl time.Duration) *MemoryBus {
	return &MemoryBus{ttl: ttl, byTo: make(map[AgentID][]Message)}
}

// Send appends msg to the recipient's inbox.
func (b *MemoryBus) Send(_ context.Context, msg Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	msg.ID = b.nextID
	if msg.SentTick.IsZero() {
		msg.SentTick = time.Now()
	}
	b.byTo[msg.To] = append(b.byTo[msg.To], msg)
	return nil
}

// Inbox returns to's current messages, oldest first, after sweeping
// expired entries.
func (b *MemoryBus) Inbox(ctx context.Context, to AgentID) ([]Message, error) {
	if err := b.Sweep(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := append([]Message(nil), b.byTo[to]...)
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].SentTick.Before(msgs[j].SentTick) })
	return msgs, nil
}

// Sweep drops every message older than the TTL across all inboxes.
func (b *MemoryBus) Sweep(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cutoff := time.Now().Add(-b.ttl)
	for to, msgs := range b.byTo {
		kept := msgs[:0]
		for _, m := range msgs {
			if m.SentTick.After(cutoff) {
				kept = append(kept, m)
			}
		}
		b.byTo[to] = kept
	}
	return nil
}
