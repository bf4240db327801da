// Package allocations moves stock from the central batch pool out to
// branches and supports reverting a movement within a bounded window.
package allocations

import (
	"time"

	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// Allocation records one movement of quantity from a central batch to a
// branch. LogID links the transferIn movement entry written with it; a
// revert removes both together.
type Allocation struct {
	ID              id.ID          `json:"id" db:"id"`
	BatchID         id.ID          `json:"batchId" db:"batch_id"`
	ProductID       id.ID          `json:"productId" db:"product_id"`
	BranchID        id.ID          `json:"branchId" db:"branch_id"`
	Quantity        types.Quantity `json:"quantity" db:"quantity"`
	ItemParticulars string         `json:"itemParticulars" db:"item_particulars"`
	LogID           id.ID          `json:"logId" db:"log_id"`
	AllocatedBy     string         `json:"allocatedBy" db:"allocated_by"`
	AllocatedAt     time.Time      `json:"allocatedAt" db:"allocated_at"`
}

// Age of the allocation relative to now.
func (a *Allocation) Age(now time.Time) time.Duration {
	return now.Sub(a.AllocatedAt)
}
