package allocations

import (
	"context"
	"time"

	"retailops/internal/core/id"
)

// Repository is the persistence port for allocation records.
type Repository interface {
	GetAllocation(ctx context.Context, allocationID id.ID) (Allocation, error)
	InsertAllocation(ctx context.Context, allocation Allocation) error
	DeleteAllocation(ctx context.Context, allocationID id.ID) error
	// ListAllocations returns allocations newest first, optionally scoped to
	// one branch.
	ListAllocations(ctx context.Context, branchID *id.ID) ([]Allocation, error)

	// Now returns the database clock. Revert lock checks use it instead of
	// the application host clock so a skewed server cannot reopen an
	// expired window.
	Now(ctx context.Context) (time.Time, error)
}
