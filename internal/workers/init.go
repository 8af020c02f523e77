package workers

import (
	"context"
	"sync"
	"time"

	"label-cabinet/backstage/internal/realtime"
)

type WorkersContainer struct {
	TypingSweeper *TypingSweeper

	wg sync.WaitGroup
}

// InitWorkers starts the background workers. bridge is nil when Redis is
// disabled and the hub stays local.
func InitWorkers(
	ctx context.Context,
	tickets TypingClearer,
	typingTTL time.Duration,
	hub *realtime.Hub,
	bridge *realtime.RedisBridge,
) *WorkersContainer {
	c := &WorkersContainer{
		TypingSweeper: NewTypingSweeper(tickets, typingTTL),
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.TypingSweeper.Start(ctx)
	}()

	if bridge != nil {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			RunRealtimeBridge(ctx, bridge, hub)
		}()
	}

	return c
}

// Wait blocks until every worker has returned after ctx cancellation.
func (c *WorkersContainer) Wait() {
	c.wg.Wait()
}
