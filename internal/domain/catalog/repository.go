package catalog

import (
	"context"

	"retailops/internal/core/id"
)

// Repository defines read access to catalog reference data.
type Repository interface {
	GetProduct(ctx context.Context, productID id.ID) (Product, error)
	// GetProducts returns the requested products keyed by id and fails with
	// a not-found error if any id is unknown.
	GetProducts(ctx context.Context, productIDs []id.ID) (map[id.ID]Product, error)
	ListProducts(ctx context.Context) ([]Product, error)

	GetBranch(ctx context.Context, branchID id.ID) (Branch, error)
	ListBranches(ctx context.Context) ([]Branch, error)
}
