// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces, not concrete implementations;
// the actual implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
//
// RunSerializable is the write path for every contended ledger operation:
// fn must read every row it will touch, validate invariants from that read
// snapshot, then issue all writes derived from the snapshot. On optimistic
// conflict (first-committer-wins) the implementation re-invokes fn with a
// fresh snapshot; fn must therefore be a pure function of its reads with no
// external side effects. Validation failures returned by fn abort the
// transaction with no partial writes and are never retried.
type Manager interface {
	// RunInTransaction executes fn within a read-committed transaction.
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// RunSerializable executes fn in a serializable transaction, retrying
	// transparently on serialization conflicts.
	RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}
