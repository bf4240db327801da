package ledger

import (
	"context"
	"time"

	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// Repository defines storage operations for branch stock, batches and the
// movement log. Mutating methods are expected to run inside the caller's
// transaction (obtained from context).
type Repository interface {
	// Branch stock entries

	// GetBranchStock returns the entry for (branch, product), or a
	// zero-quantity entry when none exists.
	GetBranchStock(ctx context.Context, branchID, productID id.ID) (BranchStock, error)

	// UpsertBranchStock writes the entry's quantity (insert or update).
	UpsertBranchStock(ctx context.Context, entry BranchStock) error

	// DeleteBranchStock removes the entry entirely.
	DeleteBranchStock(ctx context.Context, branchID, productID id.ID) error

	// ListBranchStock returns all entries for a branch (quantity > 0 by construction).
	ListBranchStock(ctx context.Context, branchID id.ID) ([]BranchStock, error)

	// Batches

	GetBatch(ctx context.Context, batchID id.ID) (StockBatch, error)
	InsertBatch(ctx context.Context, batch StockBatch) error
	UpdateBatchRemaining(ctx context.Context, batchID id.ID, remaining types.Quantity) error
	DeleteBatch(ctx context.Context, batchID id.ID) error
	ListBatches(ctx context.Context, productID *id.ID) ([]StockBatch, error)

	// Movement log

	InsertLog(ctx context.Context, entry StockLog) error
	DeleteLog(ctx context.Context, logID id.ID) error
	ListLogs(ctx context.Context, branchID id.ID, filter LogFilter) ([]StockLog, error)
}

// LogFilter narrows movement log queries. The zero value matches everything;
// a Limit of zero means unbounded (report replays need the full range).
type LogFilter struct {
	ProductID *id.ID
	Type      LogType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
