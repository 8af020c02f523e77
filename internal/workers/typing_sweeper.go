package workers

import (
	"context"
	"time"

	"label-cabinet/backstage/internal/logging"
)

// TypingClearer resets typing flags older than a TTL.
type TypingClearer interface {
	ClearStaleTyping(ctx context.Context, ttl time.Duration) (int, error)
}

// TypingSweeper clears typing indicators whose client stopped refreshing them.
type TypingSweeper struct {
	tickets  TypingClearer
	ttl      time.Duration
	interval time.Duration
}

// NewTypingSweeper checks every ttl/2 so a flag lives at most 1.5×ttl.
func NewTypingSweeper(tickets TypingClearer, ttl time.Duration) *TypingSweeper {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	return &TypingSweeper{tickets: tickets, ttl: ttl, interval: interval}
}

// Start runs until ctx is cancelled.
func (s *TypingSweeper) Start(ctx context.Context) {
	logging.Info("Starting typing sweeper", "ttl", s.ttl.String(), "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info("Typing sweeper shutting down")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *TypingSweeper) sweep(ctx context.Context) {
	cleared, err := s.tickets.ClearStaleTyping(ctx, s.ttl)
	if err != nil {
		if ctx.Err() == nil {
			logging.Error("Failed to clear stale typing flags", "error", err)
		}
		return
	}
	if cleared > 0 {
		logging.Debug("Cleared stale typing flags", "count", cleared)
	}
}
