package allocations

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
	"retailops/internal/domain/ledger"
	"retailops/internal/events"
)

type fakeRepo struct {
	allocations map[id.ID]Allocation
	clock       time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		allocations: make(map[id.ID]Allocation),
		clock:       time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func (r *fakeRepo) GetAllocation(_ context.Context, allocationID id.ID) (Allocation, error) {
	allocation, ok := r.allocations[allocationID]
	if !ok {
		return Allocation{}, apperror.NewNotFound("allocation", allocationID.String())
	}
	return allocation, nil
}

func (r *fakeRepo) InsertAllocation(_ context.Context, allocation Allocation) error {
	r.allocations[allocation.ID] = allocation
	return nil
}

func (r *fakeRepo) DeleteAllocation(_ context.Context, allocationID id.ID) error {
	delete(r.allocations, allocationID)
	return nil
}

func (r *fakeRepo) ListAllocations(_ context.Context, branchID *id.ID) ([]Allocation, error) {
	var out []Allocation
	for _, allocation := range r.allocations {
		if branchID == nil || allocation.BranchID == *branchID {
			out = append(out, allocation)
		}
	}
	return out, nil
}

func (r *fakeRepo) Now(_ context.Context) (time.Time, error) {
	return r.clock, nil
}

type stockKey struct {
	branchID  id.ID
	productID id.ID
}

type fakeLedgerRepo struct {
	stock   map[stockKey]ledger.BranchStock
	batches map[id.ID]ledger.StockBatch
	logs    map[id.ID]ledger.StockLog
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		stock:   make(map[stockKey]ledger.BranchStock),
		batches: make(map[id.ID]ledger.StockBatch),
		logs:    make(map[id.ID]ledger.StockLog),
	}
}

func (r *fakeLedgerRepo) GetBranchStock(_ context.Context, branchID, productID id.ID) (ledger.BranchStock, error) {
	if entry, ok := r.stock[stockKey{branchID, productID}]; ok {
		return entry, nil
	}
	return ledger.BranchStock{BranchID: branchID, ProductID: productID}, nil
}

func (r *fakeLedgerRepo) UpsertBranchStock(_ context.Context, entry ledger.BranchStock) error {
	r.stock[stockKey{entry.BranchID, entry.ProductID}] = entry
	return nil
}

func (r *fakeLedgerRepo) DeleteBranchStock(_ context.Context, branchID, productID id.ID) error {
	delete(r.stock, stockKey{branchID, productID})
	return nil
}

func (r *fakeLedgerRepo) ListBranchStock(_ context.Context, _ id.ID) ([]ledger.BranchStock, error) {
	return nil, nil
}

func (r *fakeLedgerRepo) GetBatch(_ context.Context, batchID id.ID) (ledger.StockBatch, error) {
	batch, ok := r.batches[batchID]
	if !ok {
		return ledger.StockBatch{}, apperror.NewNotFound("stock batch", batchID.String())
	}
	return batch, nil
}

func (r *fakeLedgerRepo) InsertBatch(_ context.Context, batch ledger.StockBatch) error {
	r.batches[batch.ID] = batch
	return nil
}

func (r *fakeLedgerRepo) UpdateBatchRemaining(_ context.Context, batchID id.ID, remaining types.Quantity) error {
	batch := r.batches[batchID]
	batch.RemainingQty = remaining
	r.batches[batchID] = batch
	return nil
}

func (r *fakeLedgerRepo) DeleteBatch(_ context.Context, batchID id.ID) error {
	delete(r.batches, batchID)
	return nil
}

func (r *fakeLedgerRepo) ListBatches(_ context.Context, _ *id.ID) ([]ledger.StockBatch, error) {
	return nil, nil
}

func (r *fakeLedgerRepo) InsertLog(_ context.Context, entry ledger.StockLog) error {
	r.logs[entry.ID] = entry
	return nil
}

func (r *fakeLedgerRepo) DeleteLog(_ context.Context, logID id.ID) error {
	if _, ok := r.logs[logID]; !ok {
		return apperror.NewNotFound("stock log", logID.String())
	}
	delete(r.logs, logID)
	return nil
}

func (r *fakeLedgerRepo) ListLogs(_ context.Context, _ id.ID, _ ledger.LogFilter) ([]ledger.StockLog, error) {
	return nil, nil
}

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

func (c *fakeCatalog) GetProducts(_ context.Context, _ []id.ID) (map[id.ID]catalog.Product, error) {
	return nil, nil
}
func (c *fakeCatalog) ListProducts(_ context.Context) ([]catalog.Product, error) { return nil, nil }
func (c *fakeCatalog) GetBranch(_ context.Context, branchID id.ID) (catalog.Branch, error) {
	return catalog.Branch{ID: branchID}, nil
}
func (c *fakeCatalog) ListBranches(_ context.Context) ([]catalog.Branch, error) { return nil, nil }

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	repo    *fakeRepo
	ledger  *fakeLedgerRepo
	svc     *Service
	product catalog.Product
	batch   ledger.StockBatch
	branch  id.ID
}

func newFixture(remaining types.Quantity) *fixture {
	product := catalog.Product{ID: id.New(), ItemParticulars: "Amoxicillin 500mg"}
	batch := ledger.StockBatch{
		ID:           id.New(),
		ProductID:    product.ID,
		BatchCode:    "SB-2026-07",
		OriginalQty:  remaining,
		RemainingQty: remaining,
	}
	repo := newFakeRepo()
	ledgerRepo := newFakeLedgerRepo()
	ledgerRepo.batches[batch.ID] = batch
	cat := &fakeCatalog{products: map[id.ID]catalog.Product{product.ID: product}}
	return &fixture{
		repo:    repo,
		ledger:  ledgerRepo,
		svc:     NewService(repo, ledgerRepo, cat, passthroughTxManager{}, events.NopPublisher{}, 24*time.Hour),
		product: product,
		batch:   batch,
		branch:  id.New(),
	}
}

func TestAllocate(t *testing.T) {
	ctx := context.Background()

	t.Run("moves quantity from batch to branch with a linked log", func(t *testing.T) {
		f := newFixture(200)

		allocation, err := f.svc.Allocate(ctx, AllocateCommand{
			BatchID:     f.batch.ID,
			BranchID:    f.branch,
			Quantity:    50,
			AllocatedBy: "Fatima Bello",
		})
		require.NoError(t, err)

		assert.Equal(t, types.Quantity(150), f.ledger.batches[f.batch.ID].RemainingQty)
		assert.Equal(t, types.Quantity(50), f.ledger.stock[stockKey{f.branch, f.product.ID}].Quantity)

		logEntry, ok := f.ledger.logs[allocation.LogID]
		require.True(t, ok, "allocation must link an existing log entry")
		assert.Equal(t, ledger.LogTypeTransferIn, logEntry.Type)
		assert.Equal(t, types.Quantity(50), logEntry.Quantity)
		assert.Equal(t, "From Main Store", logEntry.Note)
	})

	t.Run("adds onto an existing branch entry", func(t *testing.T) {
		f := newFixture(200)
		f.ledger.stock[stockKey{f.branch, f.product.ID}] = ledger.BranchStock{
			BranchID: f.branch, ProductID: f.product.ID, Quantity: 30,
		}

		_, err := f.svc.Allocate(ctx, AllocateCommand{BatchID: f.batch.ID, BranchID: f.branch, Quantity: 20})
		require.NoError(t, err)
		assert.Equal(t, types.Quantity(50), f.ledger.stock[stockKey{f.branch, f.product.ID}].Quantity)
	})

	t.Run("rejects over-allocation", func(t *testing.T) {
		f := newFixture(40)

		_, err := f.svc.Allocate(ctx, AllocateCommand{BatchID: f.batch.ID, BranchID: f.branch, Quantity: 41})
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
		assert.Equal(t, types.Quantity(40), f.ledger.batches[f.batch.ID].RemainingQty)
		assert.Empty(t, f.repo.allocations)
	})

	t.Run("rejects unknown batch", func(t *testing.T) {
		f := newFixture(40)
		_, err := f.svc.Allocate(ctx, AllocateCommand{BatchID: id.New(), BranchID: f.branch, Quantity: 1})
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestRevert(t *testing.T) {
	ctx := context.Background()

	allocate := func(t *testing.T, f *fixture, qty types.Quantity) Allocation {
		t.Helper()
		allocation, err := f.svc.Allocate(ctx, AllocateCommand{
			BatchID:  f.batch.ID,
			BranchID: f.branch,
			Quantity: qty,
		})
		require.NoError(t, err)
		return allocation
	}

	t.Run("restores batch and removes entry drained to zero", func(t *testing.T) {
		f := newFixture(200)
		allocation := allocate(t, f, 50)

		f.repo.clock = f.repo.clock.Add(2 * time.Hour)
		require.NoError(t, f.svc.Revert(ctx, allocation.ID))

		assert.Equal(t, types.Quantity(200), f.ledger.batches[f.batch.ID].RemainingQty)
		_, exists := f.ledger.stock[stockKey{f.branch, f.product.ID}]
		assert.False(t, exists, "entry back at zero must be removed")
		assert.NotContains(t, f.repo.allocations, allocation.ID)
		assert.NotContains(t, f.ledger.logs, allocation.LogID)
	})

	t.Run("keeps entry when other stock remains", func(t *testing.T) {
		f := newFixture(200)
		f.ledger.stock[stockKey{f.branch, f.product.ID}] = ledger.BranchStock{
			BranchID: f.branch, ProductID: f.product.ID, Quantity: 10,
		}
		allocation := allocate(t, f, 50)

		require.NoError(t, f.svc.Revert(ctx, allocation.ID))
		assert.Equal(t, types.Quantity(10), f.ledger.stock[stockKey{f.branch, f.product.ID}].Quantity)
	})

	t.Run("locks after the window", func(t *testing.T) {
		f := newFixture(200)
		allocation := allocate(t, f, 50)

		f.repo.clock = f.repo.clock.Add(25 * time.Hour)
		err := f.svc.Revert(ctx, allocation.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeRevertLocked))

		// Nothing was mutated.
		assert.Equal(t, types.Quantity(150), f.ledger.batches[f.batch.ID].RemainingQty)
		assert.Equal(t, types.Quantity(50), f.ledger.stock[stockKey{f.branch, f.product.ID}].Quantity)
		assert.Contains(t, f.repo.allocations, allocation.ID)
	})

	t.Run("locks exactly at the boundary", func(t *testing.T) {
		f := newFixture(200)
		allocation := allocate(t, f, 50)

		f.repo.clock = f.repo.clock.Add(24 * time.Hour)
		err := f.svc.Revert(ctx, allocation.ID)
		assert.True(t, apperror.IsCode(err, apperror.CodeRevertLocked))
	})

	t.Run("fails inconsistent when branch stock was sold off", func(t *testing.T) {
		f := newFixture(200)
		allocation := allocate(t, f, 50)

		// Branch sold 20 of the allocated 50 in the meantime.
		entry := f.ledger.stock[stockKey{f.branch, f.product.ID}]
		entry.Quantity = 30
		f.ledger.stock[stockKey{f.branch, f.product.ID}] = entry

		err := f.svc.Revert(ctx, allocation.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeInconsistentStock))
		assert.Equal(t, types.Quantity(150), f.ledger.batches[f.batch.ID].RemainingQty)
	})

	t.Run("unknown allocation", func(t *testing.T) {
		f := newFixture(200)
		err := f.svc.Revert(ctx, id.New())
		assert.True(t, apperror.IsNotFound(err))
	})
}
