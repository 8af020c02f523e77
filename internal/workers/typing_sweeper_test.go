package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingClearer struct {
	calls atomic.Int32
	ttl   atomic.Int64
}

func (c *countingClearer) ClearStaleTyping(_ context.Context, ttl time.Duration) (int, error) {
	c.calls.Add(1)
	c.ttl.Store(int64(ttl))
	return 1, nil
}

func TestNewTypingSweeper_Interval(t *testing.T) {
	if s := NewTypingSweeper(&countingClearer{}, 6*time.Second); s.interval != 3*time.Second {
		t.Errorf("Expected half the ttl, got %s", s.interval)
	}
	if s := NewTypingSweeper(&countingClearer{}, time.Second); s.interval != time.Second {
		t.Errorf("Expected a one second floor, got %s", s.interval)
	}
}

func TestTypingSweeper_StopsOnCancel(t *testing.T) {
	clearer := &countingClearer{}
	s := NewTypingSweeper(clearer, 6*time.Second)
	s.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for clearer.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("Expected the sweeper to run")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected the sweeper to stop after cancel")
	}
	if time.Duration(clearer.ttl.Load()) != 6*time.Second {
		t.Errorf("Expected configured ttl passed through, got %s", time.Duration(clearer.ttl.Load()))
	}
}
