// Package ledger maintains per-branch stock quantities, the central batch
// pool, and the immutable stock movement log.
//
// All mutations follow the same protocol: read every row to be touched
// inside the transaction, validate invariants from that read snapshot, then
// write values derived from the snapshot. The serializable transaction
// manager retries the whole operation on conflict, so the operation body is
// a pure function of its reads.
package ledger

import (
	"time"

	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// LogType classifies a stock movement log entry.
type LogType string

const (
	LogTypeSale        LogType = "sale"
	LogTypeTransferIn  LogType = "transferIn"
	LogTypeTransferOut LogType = "transferOut"
)

// BranchStock is the quantity of one product held at one branch.
// A row only exists while quantity > 0; it is deleted (not zeroed) when the
// quantity reaches 0, which keeps in-stock queries cheap.
type BranchStock struct {
	BranchID  id.ID          `db:"branch_id" json:"branchId"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

// StockBatch is a batch in the central stock pool. Remaining decreases only
// through allocation and increases only through allocation revert, and
// always satisfies 0 <= remaining <= original.
type StockBatch struct {
	ID           id.ID          `db:"id" json:"id"`
	ProductID    id.ID          `db:"product_id" json:"productId"`
	BatchCode    string         `db:"batch_code" json:"batchCode"`
	OriginalQty  types.Quantity `db:"original_qty" json:"originalQty"`
	RemainingQty types.Quantity `db:"remaining_qty" json:"remainingQty"`
	ExpiryDate   time.Time      `db:"expiry_date" json:"expiryDate"`
	AddedAt      time.Time      `db:"added_at" json:"addedAt"`
}

// StockLog is an immutable movement log entry. Entries are never updated,
// and deleted only when an allocation revert removes its paired entry.
type StockLog struct {
	ID              id.ID          `db:"id" json:"id"`
	BranchID        id.ID          `db:"branch_id" json:"branchId"`
	Type            LogType        `db:"type" json:"type"`
	ProductID       id.ID          `db:"product_id" json:"productId"`
	Quantity        types.Quantity `db:"quantity" json:"quantity"`
	ItemParticulars string         `db:"item_particulars" json:"itemParticulars"`
	TargetBranchID  *id.ID         `db:"target_branch_id" json:"targetBranchId,omitempty"`
	TransferID      *id.ID         `db:"transfer_id" json:"transferId,omitempty"`
	Note            string         `db:"note" json:"note,omitempty"`
	PerformedBy     string         `db:"performed_by" json:"performedBy"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
}

// SignedQuantity returns the entry's effect on the branch quantity:
// transferIn increases it, sale and transferOut decrease it.
func (l *StockLog) SignedQuantity() types.Quantity {
	if l.Type == LogTypeTransferIn {
		return l.Quantity
	}
	return -l.Quantity
}
