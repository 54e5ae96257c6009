// Package feed fans transcript fragments out to live subscribers.
package feed

import (
	"sync"

	"github.com/meetsync/recall-relay/internal/domain"
)

const subscriberBuffer = 32

// Hub broadcasts transcript fragments per bot. Subscribers that fall behind
// their channel buffer miss fragments rather than block webhook handling.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.TranscriptFragment]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan domain.TranscriptFragment]struct{})}
}

// Subscribe registers a live feed for the bot. The returned cancel function
// removes the subscription and closes the channel.
func (h *Hub) Subscribe(botID string) (<-chan domain.TranscriptFragment, func()) {
	ch := make(chan domain.TranscriptFragment, subscriberBuffer)

	h.mu.Lock()
	if h.subs[botID] == nil {
		h.subs[botID] = make(map[chan domain.TranscriptFragment]struct{})
	}
	h.subs[botID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[botID], ch)
			if len(h.subs[botID]) == 0 {
				delete(h.subs, botID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers a fragment to the bot's subscribers. Slow subscribers are
// skipped.
func (h *Hub) Publish(botID string, fragment domain.TranscriptFragment) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[botID] {
		select {
		case ch <- fragment:
		default:
		}
	}
}
