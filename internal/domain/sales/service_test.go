package sales

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
	sales    map[id.ID]Sale
	payments []Payment
	receipts map[id.ID]Receipt
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sales:    make(map[id.ID]Sale),
		receipts: make(map[id.ID]Receipt),
	}
}

func (r *fakeRepo) InsertSale(_ context.Context, sale Sale) error {
	r.sales[sale.ID] = sale
	return nil
}

func (r *fakeRepo) GetSale(_ context.Context, saleID id.ID) (Sale, error) {
	sale, ok := r.sales[saleID]
	if !ok {
		return Sale{}, apperror.NewNotFound("sale", saleID.String())
	}
	return sale, nil
}

func (r *fakeRepo) UpdateSaleBalance(_ context.Context, sale Sale) error {
	stored := r.sales[sale.ID]
	stored.PaidAmount = sale.PaidAmount
	stored.BalanceDue = sale.BalanceDue
	stored.Status = sale.Status
	r.sales[sale.ID] = stored
	return nil
}

func (r *fakeRepo) ListSales(_ context.Context, branchID id.ID, _ SaleFilter) ([]Sale, error) {
	var out []Sale
	for _, sale := range r.sales {
		if sale.BranchID == branchID {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (r *fakeRepo) InsertPayment(_ context.Context, payment Payment) error {
	r.payments = append(r.payments, payment)
	return nil
}

func (r *fakeRepo) ListPayments(_ context.Context, saleID id.ID) ([]Payment, error) {
	var out []Payment
	for _, payment := range r.payments {
		if payment.SaleID == saleID {
			out = append(out, payment)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListPaymentsInRange(_ context.Context, branchID id.ID, from, to time.Time) ([]Payment, error) {
	var out []Payment
	for _, payment := range r.payments {
		if payment.BranchID == branchID && !payment.CreatedAt.Before(from) && payment.CreatedAt.Before(to) {
			out = append(out, payment)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpsertReceipt(_ context.Context, receipt Receipt) error {
	r.receipts[receipt.SaleID] = receipt
	return nil
}

func (r *fakeRepo) GetReceipt(_ context.Context, saleID id.ID) (Receipt, error) {
	receipt, ok := r.receipts[saleID]
	if !ok {
		return Receipt{}, apperror.NewNotFound("receipt", saleID.String())
	}
	return receipt, nil
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

func (c *fakeCatalog) ListProducts(_ context.Context) ([]catalog.Product, error) { return nil, nil }
func (c *fakeCatalog) GetBranch(_ context.Context, branchID id.ID) (catalog.Branch, error) {
	return catalog.Branch{ID: branchID}, nil
}
func (c *fakeCatalog) ListBranches(_ context.Context) ([]catalog.Branch, error) { return nil, nil }

// fakeLedger tracks on-hand quantities per product.
type fakeLedger struct {
	stock  map[id.ID]types.Quantity
	debits []ledger.SaleDebit
}

func (l *fakeLedger) DebitForSale(_ context.Context, _ id.ID, debit ledger.SaleDebit, _ string) error {
	available := l.stock[debit.ProductID]
	if debit.Quantity > available {
		return apperror.NewInsufficientStock(debit.ProductID.String(), debit.Quantity.Int64(), available.Int64())
	}
	l.stock[debit.ProductID] = available - debit.Quantity
	l.debits = append(l.debits, debit)
	return nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	repo    *fakeRepo
	ledger  *fakeLedger
	svc     *Service
	product catalog.Product
}

func newFixture(price string, onHand types.Quantity) *fixture {
	product := catalog.Product{
		ID:              id.New(),
		ItemCode:        "PCM-500",
		ItemParticulars: "Paracetamol 500mg",
		SellingPrice:    types.MustMoney(price),
	}
	repo := newFakeRepo()
	led := &fakeLedger{stock: map[id.ID]types.Quantity{product.ID: onHand}}
	cat := &fakeCatalog{products: map[id.ID]catalog.Product{product.ID: product}}
	return &fixture{
		repo:    repo,
		ledger:  led,
		svc:     NewService(repo, cat, led, passthroughTxManager{}, events.NopPublisher{}),
		product: product,
	}
}

func TestComputeTotals(t *testing.T) {
	items := []SaleItem{
		{UnitPrice: types.MustMoney("100"), Quantity: 2, DiscountPct: types.MustMoney("10")},
		{UnitPrice: types.MustMoney("50"), Quantity: 1, DiscountPct: types.ZeroMoney()},
	}

	lineNetTotal, grandTotal := ComputeTotals(items, types.MustMoney("5"))

	// 100*2*0.9 = 180, 50*1 = 50, total 230, then 5% off = 218.50
	assert.True(t, lineNetTotal.Equal(types.MustMoney("230")), "got %s", lineNetTotal)
	assert.True(t, grandTotal.Equal(types.MustMoney("218.5")), "got %s", grandTotal)
	assert.True(t, items[0].LineTotal.Equal(types.MustMoney("180")))
	assert.True(t, items[1].LineTotal.Equal(types.MustMoney("50")))
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, StatusCleared, DeriveStatus(types.MustMoney("100"), types.ZeroMoney()))
	assert.Equal(t, StatusCleared, DeriveStatus(types.ZeroMoney(), types.ZeroMoney()))
	assert.Equal(t, StatusPartial, DeriveStatus(types.MustMoney("40"), types.MustMoney("60")))
	assert.Equal(t, StatusUnpaid, DeriveStatus(types.ZeroMoney(), types.MustMoney("100")))
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("cash sale settles in full", func(t *testing.T) {
		f := newFixture("100", 10)

		sale, err := f.svc.Create(ctx, CreateCommand{
			BranchID:    id.New(),
			PaymentType: PaymentTypeCash,
			Items:       []CreateItem{{ProductID: f.product.ID, Quantity: 3}},
			SoldBy:      "Kwame Mensah",
		})
		require.NoError(t, err)

		assert.True(t, sale.GrandTotal.Equal(types.MustMoney("300")))
		assert.True(t, sale.PaidAmount.Equal(types.MustMoney("300")))
		assert.True(t, sale.BalanceDue.IsZero())
		assert.Equal(t, StatusCleared, sale.Status)
		assert.Equal(t, types.Quantity(7), f.ledger.stock[f.product.ID])

		require.Len(t, f.repo.payments, 1)
		assert.Equal(t, MethodCash, f.repo.payments[0].Method)
		assert.Contains(t, f.repo.receipts, sale.ID)
	})

	t.Run("credit sale without deposit records no payment", func(t *testing.T) {
		f := newFixture("100", 10)

		sale, err := f.svc.Create(ctx, CreateCommand{
			BranchID:     id.New(),
			CustomerName: "Ama Serwaa",
			PaymentType:  PaymentTypeCredit,
			Items:        []CreateItem{{ProductID: f.product.ID, Quantity: 2}},
			PaidAmount:   types.ZeroMoney(),
		})
		require.NoError(t, err)

		assert.Equal(t, StatusUnpaid, sale.Status)
		assert.True(t, sale.BalanceDue.Equal(types.MustMoney("200")))
		assert.Empty(t, f.repo.payments)
	})

	t.Run("credit sale with immediate deposit opens partially paid", func(t *testing.T) {
		f := newFixture("100", 10)

		sale, err := f.svc.Create(ctx, CreateCommand{
			BranchID:    id.New(),
			PaymentType: PaymentTypeCredit,
			Items:       []CreateItem{{ProductID: f.product.ID, Quantity: 2}},
			PaidAmount:  types.MustMoney("60"),
		})
		require.NoError(t, err)

		assert.Equal(t, StatusPartial, sale.Status)
		assert.True(t, sale.BalanceDue.Equal(types.MustMoney("140")))
		require.Len(t, f.repo.payments, 1)
		assert.Equal(t, MethodCreditDeposit, f.repo.payments[0].Method)
	})

	t.Run("discounts compound per line then overall", func(t *testing.T) {
		f := newFixture("200", 10)

		sale, err := f.svc.Create(ctx, CreateCommand{
			BranchID:           id.New(),
			PaymentType:        PaymentTypeCredit,
			Items:              []CreateItem{{ProductID: f.product.ID, Quantity: 1, DiscountPct: types.MustMoney("10")}},
			OverallDiscountPct: types.MustMoney("10"),
			PaidAmount:         types.ZeroMoney(),
		})
		require.NoError(t, err)

		// 200 * 0.9 * 0.9 = 162, not 200 * 0.8
		assert.True(t, sale.GrandTotal.Equal(types.MustMoney("162")), "got %s", sale.GrandTotal)
	})

	t.Run("insufficient stock fails before the header is written", func(t *testing.T) {
		f := newFixture("100", 2)

		_, err := f.svc.Create(ctx, CreateCommand{
			BranchID:    id.New(),
			PaymentType: PaymentTypeCredit,
			Items:       []CreateItem{{ProductID: f.product.ID, Quantity: 5}},
			PaidAmount:  types.ZeroMoney(),
		})
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
		assert.Empty(t, f.repo.sales)
		assert.Empty(t, f.repo.payments)
	})

	t.Run("deposit above the grand total is rejected", func(t *testing.T) {
		f := newFixture("100", 10)

		_, err := f.svc.Create(ctx, CreateCommand{
			BranchID:    id.New(),
			PaymentType: PaymentTypeCredit,
			Items:       []CreateItem{{ProductID: f.product.ID, Quantity: 1}},
			PaidAmount:  types.MustMoney("150"),
		})
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("unknown payment type is rejected", func(t *testing.T) {
		f := newFixture("100", 10)

		_, err := f.svc.Create(ctx, CreateCommand{
			BranchID:    id.New(),
			PaymentType: PaymentType("cheque"),
			Items:       []CreateItem{{ProductID: f.product.ID, Quantity: 1}},
		})
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("empty sale is rejected", func(t *testing.T) {
		f := newFixture("100", 10)
		_, err := f.svc.Create(ctx, CreateCommand{BranchID: id.New(), PaymentType: PaymentTypeCash})
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})
}

func TestApplyPayment(t *testing.T) {
	ctx := context.Background()

	newCreditSale := func(t *testing.T, f *fixture) Sale {
		t.Helper()
		sale, err := f.svc.Create(ctx, CreateCommand{
			BranchID:    id.New(),
			PaymentType: PaymentTypeCredit,
			Items:       []CreateItem{{ProductID: f.product.ID, Quantity: 2}},
			PaidAmount:  types.ZeroMoney(),
		})
		require.NoError(t, err)
		return sale
	}

	t.Run("settles a credit sale across deposits", func(t *testing.T) {
		f := newFixture("100", 10)
		sale := newCreditSale(t, f)

		updated, err := f.svc.ApplyPayment(ctx, sale.ID, types.MustMoney("80"), "Kwame Mensah")
		require.NoError(t, err)
		assert.Equal(t, StatusPartial, updated.Status)
		assert.True(t, updated.BalanceDue.Equal(types.MustMoney("120")))

		updated, err = f.svc.ApplyPayment(ctx, sale.ID, types.MustMoney("120"), "Kwame Mensah")
		require.NoError(t, err)
		assert.Equal(t, StatusCleared, updated.Status)
		assert.True(t, updated.BalanceDue.IsZero())

		payments, err := f.svc.Payments(ctx, sale.ID)
		require.NoError(t, err)
		require.Len(t, payments, 2)
		for _, payment := range payments {
			assert.Equal(t, MethodCreditDeposit, payment.Method)
		}
	})

	t.Run("deposit above the balance is rejected", func(t *testing.T) {
		f := newFixture("100", 10)
		sale := newCreditSale(t, f)

		_, err := f.svc.ApplyPayment(ctx, sale.ID, types.MustMoney("250"), "")
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeExceedsBalance))

		stored, err := f.svc.Get(ctx, sale.ID)
		require.NoError(t, err)
		assert.True(t, stored.BalanceDue.Equal(types.MustMoney("200")), "balance must be untouched")
		assert.Empty(t, f.repo.payments)
	})

	t.Run("second racing deposit observes the reduced balance", func(t *testing.T) {
		f := newFixture("100", 10)
		sale := newCreditSale(t, f)

		_, err := f.svc.ApplyPayment(ctx, sale.ID, types.MustMoney("150"), "")
		require.NoError(t, err)

		// A teller who still sees the stale 200 balance tries to collect it.
		_, err = f.svc.ApplyPayment(ctx, sale.ID, types.MustMoney("200"), "")
		assert.True(t, apperror.IsCode(err, apperror.CodeExceedsBalance))
	})

	t.Run("payment on a settled sale is rejected", func(t *testing.T) {
		f := newFixture("100", 10)
		sale := newCreditSale(t, f)

		_, err := f.svc.ApplyPayment(ctx, sale.ID, types.MustMoney("200"), "")
		require.NoError(t, err)
		_, err = f.svc.ApplyPayment(ctx, sale.ID, types.MustMoney("1"), "")
		assert.True(t, apperror.IsCode(err, apperror.CodeExceedsBalance))
	})
}

func TestGetReceipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture("100", 10)

	sale, err := f.svc.Create(ctx, CreateCommand{
		BranchID:     id.New(),
		CustomerName: "Ama Serwaa",
		PaymentType:  PaymentTypeCash,
		Items:        []CreateItem{{ProductID: f.product.ID, Quantity: 2}},
		SoldBy:       "Kwame Mensah",
	})
	require.NoError(t, err)

	receipt, err := f.svc.GetReceipt(ctx, sale.ID)
	require.NoError(t, err)
	assert.Contains(t, receipt.Body, "Paracetamol 500mg")
	assert.Contains(t, receipt.Body, "Ama Serwaa")
	assert.Contains(t, receipt.Body, "200.00")

	// Renders on the fly when no receipt was persisted.
	delete(f.repo.receipts, sale.ID)
	receipt, err = f.svc.GetReceipt(ctx, sale.ID)
	require.NoError(t, err)
	assert.Contains(t, receipt.Body, "Kwame Mensah")
}
