package workers

import (
	"context"
	"time"

	"label-cabinet/backstage/internal/logging"
	"label-cabinet/backstage/internal/realtime"
)

const bridgeRetryDelay = 5 * time.Second

// RunRealtimeBridge keeps the Redis subscription alive, resubscribing after
// failures until ctx is cancelled.
func RunRealtimeBridge(ctx context.Context, bridge *realtime.RedisBridge, hub *realtime.Hub) {
	logging.Info("Starting realtime bridge")

	for {
		err := bridge.Run(ctx, hub)
		if ctx.Err() != nil {
			logging.Info("Realtime bridge shutting down")
			return
		}
		logging.Error("Realtime bridge stopped, retrying", "error", err, "delay", bridgeRetryDelay.String())

		select {
		case <-ctx.Done():
			return
		case <-time.After(bridgeRetryDelay):
		}
	}
}
