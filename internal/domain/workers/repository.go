package workers

import (
	"context"

	"retailops/internal/core/id"
)

// Repository is the persistence port for worker accounts.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (Worker, error)
	GetByID(ctx context.Context, workerID id.ID) (Worker, error)
	Insert(ctx context.Context, worker Worker) error
	ListByBranch(ctx context.Context, branchID id.ID) ([]Worker, error)
}
