package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/catalog"
	"retailops/internal/events"
)

type stockKey struct {
	branchID  id.ID
	productID id.ID
}

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	stock   map[stockKey]BranchStock
	batches map[id.ID]StockBatch
	logs    []StockLog
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		stock:   make(map[stockKey]BranchStock),
		batches: make(map[id.ID]StockBatch),
	}
}

func (r *fakeRepo) GetBranchStock(_ context.Context, branchID, productID id.ID) (BranchStock, error) {
	if entry, ok := r.stock[stockKey{branchID, productID}]; ok {
		return entry, nil
	}
	return BranchStock{BranchID: branchID, ProductID: productID}, nil
}

func (r *fakeRepo) UpsertBranchStock(_ context.Context, entry BranchStock) error {
	r.stock[stockKey{entry.BranchID, entry.ProductID}] = entry
	return nil
}

func (r *fakeRepo) DeleteBranchStock(_ context.Context, branchID, productID id.ID) error {
	delete(r.stock, stockKey{branchID, productID})
	return nil
}

func (r *fakeRepo) ListBranchStock(_ context.Context, branchID id.ID) ([]BranchStock, error) {
	var out []BranchStock
	for _, entry := range r.stock {
		if entry.BranchID == branchID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetBatch(_ context.Context, batchID id.ID) (StockBatch, error) {
	batch, ok := r.batches[batchID]
	if !ok {
		return StockBatch{}, apperror.NewNotFound("stock batch", batchID.String())
	}
	return batch, nil
}

func (r *fakeRepo) InsertBatch(_ context.Context, batch StockBatch) error {
	r.batches[batch.ID] = batch
	return nil
}

func (r *fakeRepo) UpdateBatchRemaining(_ context.Context, batchID id.ID, remaining types.Quantity) error {
	batch := r.batches[batchID]
	batch.RemainingQty = remaining
	r.batches[batchID] = batch
	return nil
}

func (r *fakeRepo) DeleteBatch(_ context.Context, batchID id.ID) error {
	delete(r.batches, batchID)
	return nil
}

func (r *fakeRepo) ListBatches(_ context.Context, productID *id.ID) ([]StockBatch, error) {
	var out []StockBatch
	for _, batch := range r.batches {
		if productID == nil || batch.ProductID == *productID {
			out = append(out, batch)
		}
	}
	return out, nil
}

func (r *fakeRepo) InsertLog(_ context.Context, entry StockLog) error {
	r.logs = append(r.logs, entry)
	return nil
}

func (r *fakeRepo) DeleteLog(_ context.Context, logID id.ID) error {
	for i, entry := range r.logs {
		if entry.ID == logID {
			r.logs = append(r.logs[:i], r.logs[i+1:]...)
			return nil
		}
	}
	return apperror.NewNotFound("stock log", logID.String())
}

func (r *fakeRepo) ListLogs(_ context.Context, branchID id.ID, filter LogFilter) ([]StockLog, error) {
	var out []StockLog
	for _, entry := range r.logs {
		if entry.BranchID != branchID {
			continue
		}
		if filter.ProductID != nil && entry.ProductID != *filter.ProductID {
			continue
		}
		if filter.Type != "" && entry.Type != filter.Type {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// fakeCatalog serves a fixed product set.
type fakeCatalog struct {
	products map[id.ID]catalog.Product
}

func (c *fakeCatalog) GetProduct(_ context.Context, productID id.ID) (catalog.Product, error) {
	product, ok := c.products[productID]
	if !ok {
		return catalog.Product{}, apperror.NewNotFound("product", productID.String())
	}
	return product, nil
}

func (c *fakeCatalog) GetProducts(ctx context.Context, ids []id.ID) (map[id.ID]catalog.Product, error) {
	out := make(map[id.ID]catalog.Product, len(ids))
	for _, productID := range ids {
		product, err := c.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		out[productID] = product
	}
	return out, nil
}

func (c *fakeCatalog) ListProducts(_ context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, product := range c.products {
		out = append(out, product)
	}
	return out, nil
}

func (c *fakeCatalog) GetBranch(_ context.Context, branchID id.ID) (catalog.Branch, error) {
	return catalog.Branch{ID: branchID}, nil
}

func (c *fakeCatalog) ListBranches(_ context.Context) ([]catalog.Branch, error) {
	return nil, nil
}

// passthroughTxManager runs the body directly without a database.
type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo *fakeRepo, products ...catalog.Product) *Service {
	cat := &fakeCatalog{products: make(map[id.ID]catalog.Product)}
	for _, p := range products {
		cat.products[p.ID] = p
	}
	return NewService(repo, cat, passthroughTxManager{}, events.NopPublisher{})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	product := catalog.Product{ID: id.New(), ItemCode: "AMX-500", ItemParticulars: "Amoxicillin 500mg"}
	source := id.New()
	target := id.New()

	t.Run("moves stock and writes paired logs", func(t *testing.T) {
		repo := newFakeRepo()
		repo.stock[stockKey{source, product.ID}] = BranchStock{BranchID: source, ProductID: product.ID, Quantity: 10}
		svc := newTestService(repo, product)

		err := svc.Transfer(ctx, TransferCommand{
			SourceBranchID: source,
			TargetBranchID: target,
			ProductID:      product.ID,
			Quantity:       4,
			PerformedBy:    "Amina Yusuf",
		})
		require.NoError(t, err)

		assert.Equal(t, types.Quantity(6), repo.stock[stockKey{source, product.ID}].Quantity)
		assert.Equal(t, types.Quantity(4), repo.stock[stockKey{target, product.ID}].Quantity)

		require.Len(t, repo.logs, 2)
		out, in := repo.logs[0], repo.logs[1]
		assert.Equal(t, LogTypeTransferOut, out.Type)
		assert.Equal(t, LogTypeTransferIn, in.Type)
		require.NotNil(t, out.TransferID)
		require.NotNil(t, in.TransferID)
		assert.Equal(t, *out.TransferID, *in.TransferID)
		assert.Equal(t, target, *out.TargetBranchID)
		assert.Equal(t, source, *in.TargetBranchID)
	})

	t.Run("deletes source entry when drained to zero", func(t *testing.T) {
		repo := newFakeRepo()
		repo.stock[stockKey{source, product.ID}] = BranchStock{BranchID: source, ProductID: product.ID, Quantity: 5}
		svc := newTestService(repo, product)

		err := svc.Transfer(ctx, TransferCommand{
			SourceBranchID: source,
			TargetBranchID: target,
			ProductID:      product.ID,
			Quantity:       5,
		})
		require.NoError(t, err)

		_, exists := repo.stock[stockKey{source, product.ID}]
		assert.False(t, exists, "exhausted entry must be removed, not kept at zero")
		assert.Equal(t, types.Quantity(5), repo.stock[stockKey{target, product.ID}].Quantity)
	})

	t.Run("rejects insufficient stock", func(t *testing.T) {
		repo := newFakeRepo()
		repo.stock[stockKey{source, product.ID}] = BranchStock{BranchID: source, ProductID: product.ID, Quantity: 3}
		svc := newTestService(repo, product)

		err := svc.Transfer(ctx, TransferCommand{
			SourceBranchID: source,
			TargetBranchID: target,
			ProductID:      product.ID,
			Quantity:       7,
		})
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

		assert.Equal(t, types.Quantity(3), repo.stock[stockKey{source, product.ID}].Quantity)
		assert.Empty(t, repo.logs)
	})

	t.Run("rejects transfer out of a branch with no entry", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo, product)

		err := svc.Transfer(ctx, TransferCommand{
			SourceBranchID: source,
			TargetBranchID: target,
			ProductID:      product.ID,
			Quantity:       1,
		})
		assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	})

	t.Run("rejects same-branch transfer", func(t *testing.T) {
		svc := newTestService(newFakeRepo(), product)
		err := svc.Transfer(ctx, TransferCommand{
			SourceBranchID: source,
			TargetBranchID: source,
			ProductID:      product.ID,
			Quantity:       1,
		})
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc := newTestService(newFakeRepo(), product)
		err := svc.Transfer(ctx, TransferCommand{
			SourceBranchID: source,
			TargetBranchID: target,
			ProductID:      product.ID,
			Quantity:       0,
		})
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})
}

func TestDebitForSale(t *testing.T) {
	ctx := context.Background()
	product := catalog.Product{ID: id.New(), ItemParticulars: "Paracetamol 500mg"}
	branch := id.New()

	t.Run("debits, logs the sale and keeps entry while positive", func(t *testing.T) {
		repo := newFakeRepo()
		repo.stock[stockKey{branch, product.ID}] = BranchStock{BranchID: branch, ProductID: product.ID, Quantity: 9}
		svc := newTestService(repo, product)

		debit := SaleDebit{ProductID: product.ID, Quantity: 4, ItemParticulars: product.ItemParticulars}
		require.NoError(t, svc.DebitForSale(ctx, branch, debit, "Amina Yusuf"))
		assert.Equal(t, types.Quantity(5), repo.stock[stockKey{branch, product.ID}].Quantity)

		require.Len(t, repo.logs, 1)
		assert.Equal(t, LogTypeSale, repo.logs[0].Type)
		assert.Equal(t, types.Quantity(4), repo.logs[0].Quantity)
		assert.Equal(t, "Amina Yusuf", repo.logs[0].PerformedBy)
	})

	t.Run("deletes entry at zero", func(t *testing.T) {
		repo := newFakeRepo()
		repo.stock[stockKey{branch, product.ID}] = BranchStock{BranchID: branch, ProductID: product.ID, Quantity: 4}
		svc := newTestService(repo, product)

		debit := SaleDebit{ProductID: product.ID, Quantity: 4}
		require.NoError(t, svc.DebitForSale(ctx, branch, debit, ""))
		_, exists := repo.stock[stockKey{branch, product.ID}]
		assert.False(t, exists)
	})

	t.Run("reports remaining units on shortfall", func(t *testing.T) {
		repo := newFakeRepo()
		repo.stock[stockKey{branch, product.ID}] = BranchStock{BranchID: branch, ProductID: product.ID, Quantity: 2}
		svc := newTestService(repo, product)

		err := svc.DebitForSale(ctx, branch, SaleDebit{ProductID: product.ID, Quantity: 6}, "")
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
		assert.Contains(t, appErr.Message, "only 2 unit(s) remaining")
	})
}

func TestBatches(t *testing.T) {
	ctx := context.Background()
	product := catalog.Product{ID: id.New(), ItemParticulars: "Ibuprofen 200mg"}

	t.Run("add batch defaults remaining to original", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo, product)

		batch, err := svc.AddBatch(ctx, product.ID, 100, "SB-2026-01", time.Now().AddDate(1, 0, 0))
		require.NoError(t, err)
		assert.Equal(t, types.Quantity(100), batch.OriginalQty)
		assert.Equal(t, types.Quantity(100), batch.RemainingQty)
		assert.Contains(t, repo.batches, batch.ID)
	})

	t.Run("add batch rejects unknown product", func(t *testing.T) {
		svc := newTestService(newFakeRepo(), product)
		_, err := svc.AddBatch(ctx, id.New(), 10, "", time.Time{})
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("delete is allowed only while untouched", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo, product)

		batch, err := svc.AddBatch(ctx, product.ID, 50, "", time.Time{})
		require.NoError(t, err)

		require.NoError(t, repo.UpdateBatchRemaining(ctx, batch.ID, 30))
		err = svc.DeleteBatch(ctx, batch.ID)
		assert.True(t, apperror.IsCode(err, apperror.CodeBatchInUse))

		require.NoError(t, repo.UpdateBatchRemaining(ctx, batch.ID, 50))
		require.NoError(t, svc.DeleteBatch(ctx, batch.ID))
		assert.NotContains(t, repo.batches, batch.ID)
	})
}
