package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"retailops/internal/events"
)

// notifyChannel is the single NOTIFY channel all events travel on; the
// payload carries the topic.
const notifyChannel = "retailops_events"

// NotifyPublisher implements events.Publisher over pg_notify. The NOTIFY is
// issued on the caller's transaction, so listeners only ever see events for
// committed writes, and an aborted retry attempt emits nothing.
type NotifyPublisher struct {
	txm *TxManager
}

var _ events.Publisher = (*NotifyPublisher)(nil)

func NewNotifyPublisher(txm *TxManager) *NotifyPublisher {
	return &NotifyPublisher{txm: txm}
}

// Publish emits the event on the shared channel.
func (p *NotifyPublisher) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	querier := p.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, "SELECT pg_notify($1, $2)", notifyChannel, string(payload)); err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}
	return nil
}
