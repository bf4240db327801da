// Package sales implements the sale aggregate: the header document, its
// item lines, and the append-only payment sub-ledger.
package sales

import (
	"time"

	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// Status of a sale, derived from its money fields and never stored
// independently of them.
type Status string

const (
	StatusCleared Status = "Cleared"
	StatusPartial Status = "Partial"
	StatusUnpaid  Status = "Unpaid"
)

// PaymentType is fixed at sale creation: a cash sale settles in full
// immediately, a credit sale opens a balance to be paid down by deposits.
type PaymentType string

const (
	PaymentTypeCash   PaymentType = "cash"
	PaymentTypeCredit PaymentType = "credit"
)

// Payment methods. A cash sale's opening payment is MethodCash; deposits
// against an outstanding balance use MethodCreditDeposit.
const (
	MethodCash          = "cash"
	MethodCreditDeposit = "credit-deposit"
)

// SaleItem is one line of a sale. Unit price and particulars are snapshotted
// from the catalog at sale time so later catalog edits do not rewrite
// history.
type SaleItem struct {
	ID              id.ID          `json:"id" db:"id"`
	SaleID          id.ID          `json:"saleId" db:"sale_id"`
	ProductID       id.ID          `json:"productId" db:"product_id"`
	ItemParticulars string         `json:"itemParticulars" db:"item_particulars"`
	UnitPrice       types.Money    `json:"unitPrice" db:"unit_price"`
	Quantity        types.Quantity `json:"quantity" db:"quantity"`
	DiscountPct     types.Percent  `json:"discountPct" db:"discount_pct"`
	LineTotal       types.Money    `json:"lineTotal" db:"line_total"`
}

// Sale is the aggregate header. The invariant paidAmount + balanceDue ==
// grandTotal holds on every committed row.
type Sale struct {
	ID                 id.ID         `json:"id" db:"id"`
	BranchID           id.ID         `json:"branchId" db:"branch_id"`
	CustomerName       string        `json:"customerName" db:"customer_name"`
	CustomerPhone      string        `json:"customerPhone" db:"customer_phone"`
	PaymentType        PaymentType   `json:"paymentType" db:"payment_type"`
	OverallDiscountPct types.Percent `json:"overallDiscountPct" db:"overall_discount_pct"`
	GrandTotal         types.Money   `json:"grandTotal" db:"grand_total"`
	PaidAmount         types.Money   `json:"paidAmount" db:"paid_amount"`
	BalanceDue         types.Money   `json:"balanceDue" db:"balance_due"`
	Status             Status        `json:"status" db:"status"`
	SoldBy             string        `json:"soldBy" db:"sold_by"`
	CreatedAt          time.Time     `json:"createdAt" db:"created_at"`

	Items []SaleItem `json:"items" db:"-"`
}

// Payment is one entry in a sale's payment sub-ledger. Entries are
// append-only; corrections are new entries, not edits.
type Payment struct {
	ID         id.ID       `json:"id" db:"id"`
	SaleID     id.ID       `json:"saleId" db:"sale_id"`
	BranchID   id.ID       `json:"branchId" db:"branch_id"`
	Amount     types.Money `json:"amount" db:"amount"`
	Method     string      `json:"method" db:"method"`
	ReceivedBy string      `json:"receivedBy" db:"received_by"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
}

// Receipt is the persisted print projection of a sale.
type Receipt struct {
	ID        id.ID     `json:"id" db:"id"`
	SaleID    id.ID     `json:"saleId" db:"sale_id"`
	BranchID  id.ID     `json:"branchId" db:"branch_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// LineNet returns the line total after the per-line discount:
// unitPrice * quantity * (100 - discountPct) / 100.
func (it SaleItem) LineNet() types.Money {
	gross := it.UnitPrice.Mul(types.NewMoney(it.Quantity.Int64()))
	return types.ApplyDiscount(gross, it.DiscountPct)
}

// ComputeTotals derives the grand total from item lines with the two-stage
// discount: per-line discounts first, then the overall discount over the sum
// of discounted lines. It also fills each item's LineTotal.
func ComputeTotals(items []SaleItem, overallDiscountPct types.Percent) (lineNetTotal, grandTotal types.Money) {
	lineNetTotal = types.ZeroMoney()
	for i := range items {
		items[i].LineTotal = items[i].LineNet()
		lineNetTotal = lineNetTotal.Add(items[i].LineTotal)
	}
	grandTotal = types.ApplyDiscount(lineNetTotal, overallDiscountPct)
	return lineNetTotal, grandTotal
}

// DeriveStatus maps the money fields onto a status. A settled balance is
// Cleared; an outstanding balance with some payment is Partial; no payment
// at all is Unpaid.
func DeriveStatus(paidAmount, balanceDue types.Money) Status {
	switch {
	case balanceDue.IsZero():
		return StatusCleared
	case paidAmount.IsPositive():
		return StatusPartial
	default:
		return StatusUnpaid
	}
}
