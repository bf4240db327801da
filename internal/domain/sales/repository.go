package sales

import (
	"context"
	"time"

	"retailops/internal/core/id"
)

// SaleFilter narrows sale listings.
type SaleFilter struct {
	Status *Status
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// Repository is the persistence port for sales, payments and receipts.
type Repository interface {
	// InsertSale persists the header and all item lines.
	InsertSale(ctx context.Context, sale Sale) error
	// GetSale returns the header with item lines loaded.
	GetSale(ctx context.Context, saleID id.ID) (Sale, error)
	// UpdateSaleBalance rewrites the money fields and derived status.
	UpdateSaleBalance(ctx context.Context, sale Sale) error
	ListSales(ctx context.Context, branchID id.ID, filter SaleFilter) ([]Sale, error)

	InsertPayment(ctx context.Context, payment Payment) error
	ListPayments(ctx context.Context, saleID id.ID) ([]Payment, error)
	// ListPaymentsInRange returns payments across a branch by payment date,
	// regardless of when the parent sale was made.
	ListPaymentsInRange(ctx context.Context, branchID id.ID, from, to time.Time) ([]Payment, error)

	UpsertReceipt(ctx context.Context, receipt Receipt) error
	GetReceipt(ctx context.Context, saleID id.ID) (Receipt, error)
}
