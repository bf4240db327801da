package postgres

import (
	"context"
	"encoding/json"
	"time"

	"retailops/internal/events"
	"retailops/pkg/logger"
)

// Listener holds one dedicated connection on LISTEN and forwards decoded
// notifications to the in-process bus. If the connection drops it reconnects
// with backoff; subscribers must treat their next full read as the truth
// rather than assume no events were missed.
type Listener struct {
	pool *Pool
	bus  *events.Bus
}

func NewListener(pool *Pool, bus *events.Bus) *Listener {
	return &Listener{pool: pool, bus: bus}
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) {
	for {
		if err := l.listen(ctx); err != nil && ctx.Err() == nil {
			logger.Warn(ctx, "notify listener disconnected, reconnecting", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	logger.Info(ctx, "notify listener started", "channel", notifyChannel)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var event events.Event
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			logger.Warn(ctx, "dropping malformed notification", "error", err)
			continue
		}
		l.bus.Dispatch(event)
	}
}
