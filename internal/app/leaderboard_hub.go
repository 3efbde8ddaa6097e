package app

import (
	"sync"

	"trivia-quiz-service/internal/domain"
)

// LeaderboardHub fans leaderboard snapshots out to in-process subscribers, keyed by period.
type LeaderboardHub struct {
	mu          sync.Mutex
	subscribers map[domain.Period]map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardHub() *LeaderboardHub {
	return &LeaderboardHub{
		subscribers: make(map[domain.Period]map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe registers a channel that first receives initial and then every broadcast for period.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *LeaderboardHub) Subscribe(period domain.Period, initial domain.Leaderboard) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	h.mu.Lock()
	subs, ok := h.subscribers[period]
	if !ok {
		subs = make(map[chan domain.Leaderboard]struct{})
		h.subscribers[period] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[period]
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, period)
		}
	}
	return ch, cancel
}

// Broadcast delivers lb to every subscriber of lb.Period without blocking.
// A full subscriber buffer loses its oldest snapshot.
func (h *LeaderboardHub) Broadcast(lb domain.Leaderboard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[lb.Period] {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

// Periods lists the periods that currently have subscribers.
func (h *LeaderboardHub) Periods() []domain.Period {
	h.mu.Lock()
	defer h.mu.Unlock()
	periods := make([]domain.Period, 0, len(h.subscribers))
	for p := range h.subscribers {
		periods = append(periods, p)
	}
	return periods
}
