// Package reports reconstructs historical stock movement and cash positions
// from immutable logs plus one current snapshot. There is no point-in-time
// snapshot store; historical balances are derived by walking backward from
// the present.
package reports

import (
	"time"

	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// StockMovementRow is one product's movement over a report range. The row
// satisfies opening + transferIn - transferOut - sales == closing.
type StockMovementRow struct {
	ProductID       id.ID          `json:"productId"`
	ItemParticulars string         `json:"itemParticulars"`
	Opening         types.Quantity `json:"opening"`
	Sales           types.Quantity `json:"sales"`
	TransferIn      types.Quantity `json:"transferIn"`
	TransferOut     types.Quantity `json:"transferOut"`
	Closing         types.Quantity `json:"closing"`
}

// StockMovementReport is the per-branch movement report over [from, to).
type StockMovementReport struct {
	BranchID id.ID              `json:"branchId"`
	From     time.Time          `json:"from"`
	To       time.Time          `json:"to"`
	Rows     []StockMovementRow `json:"rows"`
}

// ProductCashRow splits one product's sold value into cash and credit. The
// overall sale discount is spread proportionally over line nets, so row
// values sum to the sale grand totals they came from.
type ProductCashRow struct {
	ProductID       id.ID          `json:"productId"`
	ItemParticulars string         `json:"itemParticulars"`
	QuantitySold    types.Quantity `json:"quantitySold"`
	CashValue       types.Money    `json:"cashValue"`
	CreditValue     types.Money    `json:"creditValue"`
}

// CashReport is the per-branch cash position over [from, to).
type CashReport struct {
	BranchID id.ID     `json:"branchId"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`

	// CashCollected is paid amounts of in-range sales plus in-range deposits
	// whose parent sale falls outside the range.
	CashCollected     types.Money `json:"cashCollected"`
	ExternalDeposits  types.Money `json:"externalDeposits"`
	CreditOutstanding types.Money `json:"creditOutstanding"`
	Expenses          types.Money `json:"expenses"`
	NetCash           types.Money `json:"netCash"`

	Products []ProductCashRow `json:"products"`
}

// DailyCash is one day of the summary series.
type DailyCash struct {
	Date     string      `json:"date"`
	CashIn   types.Money `json:"cashIn"`
	Expenses types.Money `json:"expenses"`
}

// BranchSummary backs the branch dashboard counters.
type BranchSummary struct {
	BranchID id.ID     `json:"branchId"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`

	StockTotal        types.Quantity `json:"stockTotal"`
	SalesCount        int            `json:"salesCount"`
	CashCollected     types.Money    `json:"cashCollected"`
	CreditOutstanding types.Money    `json:"creditOutstanding"`
	Expenses          types.Money    `json:"expenses"`
	NetCash           types.Money    `json:"netCash"`

	Days []DailyCash `json:"days"`
}
