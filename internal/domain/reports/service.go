package reports

import (
	"context"
	"sort"
	"time"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/tx"
	"retailops/internal/core/types"
	"retailops/internal/domain/catalog"
	"retailops/internal/domain/expenses"
	"retailops/internal/domain/ledger"
	"retailops/internal/domain/sales"
)

// Service builds reports by replaying logs against current snapshots. Every
// report runs inside one read transaction so the snapshot and the logs it is
// reconciled against belong to the same instant.
type Service struct {
	ledgerRepo  ledger.Repository
	salesRepo   sales.Repository
	expenseRepo expenses.Repository
	catalogRepo catalog.Repository
	txManager   tx.Manager
}

func NewService(ledgerRepo ledger.Repository, salesRepo sales.Repository, expenseRepo expenses.Repository, catalogRepo catalog.Repository, txManager tx.Manager) *Service {
	return &Service{
		ledgerRepo:  ledgerRepo,
		salesRepo:   salesRepo,
		expenseRepo: expenseRepo,
		catalogRepo: catalogRepo,
		txManager:   txManager,
	}
}

func validRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return apperror.NewValidation("report range requires both from and to")
	}
	if !from.Before(to) {
		return apperror.NewValidation("report range must satisfy from < to")
	}
	return nil
}

type movementAccumulator struct {
	particulars string
	sales       types.Quantity
	transferIn  types.Quantity
	transferOut types.Quantity
	closing     types.Quantity
}

// StockMovement reconstructs per-product opening, movement and closing
// quantities over [from, to).
//
// The store keeps no historical snapshots, so closing-as-of-to is derived
// from the current snapshot by reversing every log entry recorded after to:
// sale and transferOut reduced the quantity, so they are added back, while
// transferIn increased it and is subtracted back. Opening then follows as
// closing + transferOut + sales - transferIn.
func (s *Service) StockMovement(ctx context.Context, branchID id.ID, from, to time.Time) (StockMovementReport, error) {
	if err := validRange(from, to); err != nil {
		return StockMovementReport{}, err
	}

	report := StockMovementReport{BranchID: branchID, From: from, To: to}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inRange, err := s.ledgerRepo.ListLogs(ctx, branchID, ledger.LogFilter{From: &from, To: &to})
		if err != nil {
			return err
		}
		current, err := s.ledgerRepo.ListBranchStock(ctx, branchID)
		if err != nil {
			return err
		}
		after, err := s.ledgerRepo.ListLogs(ctx, branchID, ledger.LogFilter{From: &to})
		if err != nil {
			return err
		}

		products := make(map[id.ID]*movementAccumulator)
		at := func(productID id.ID, particulars string) *movementAccumulator {
			acc, ok := products[productID]
			if !ok {
				acc = &movementAccumulator{}
				products[productID] = acc
			}
			if acc.particulars == "" {
				acc.particulars = particulars
			}
			return acc
		}

		for _, entry := range inRange {
			acc := at(entry.ProductID, entry.ItemParticulars)
			switch entry.Type {
			case ledger.LogTypeSale:
				acc.sales += entry.Quantity
			case ledger.LogTypeTransferIn:
				acc.transferIn += entry.Quantity
			case ledger.LogTypeTransferOut:
				acc.transferOut += entry.Quantity
			}
		}

		// Closing as of now.
		for _, entry := range current {
			at(entry.ProductID, "").closing = entry.Quantity
		}

		// Roll the snapshot back to closing as of to.
		for _, entry := range after {
			acc := at(entry.ProductID, entry.ItemParticulars)
			switch entry.Type {
			case ledger.LogTypeSale, ledger.LogTypeTransferOut:
				acc.closing += entry.Quantity
			case ledger.LogTypeTransferIn:
				acc.closing -= entry.Quantity
			}
		}

		// Products that only appear in the snapshot carry no log entry to
		// take the particulars from, so resolve those from the catalog.
		var unnamed []id.ID
		for productID, acc := range products {
			if acc.particulars == "" {
				unnamed = append(unnamed, productID)
			}
		}
		if len(unnamed) > 0 {
			named, err := s.catalogRepo.GetProducts(ctx, unnamed)
			if err != nil {
				return err
			}
			for _, productID := range unnamed {
				products[productID].particulars = named[productID].ItemParticulars
			}
		}

		for productID, acc := range products {
			if acc.closing.IsNegative() {
				return apperror.NewInconsistentStock(
					"movement log does not reconcile with the stock snapshot for product " + productID.String())
			}
			report.Rows = append(report.Rows, StockMovementRow{
				ProductID:       productID,
				ItemParticulars: acc.particulars,
				Opening:         acc.closing + acc.transferOut + acc.sales - acc.transferIn,
				Sales:           acc.sales,
				TransferIn:      acc.transferIn,
				TransferOut:     acc.transferOut,
				Closing:         acc.closing,
			})
		}
		return nil
	})
	if err != nil {
		return StockMovementReport{}, err
	}

	sort.Slice(report.Rows, func(i, j int) bool {
		return report.Rows[i].ItemParticulars < report.Rows[j].ItemParticulars
	})
	return report, nil
}

// Cash builds the cash position over [from, to). Deposits are attributed to
// the day the money was received; a deposit whose parent sale is itself in
// range is already counted inside that sale's paid amount and is skipped.
func (s *Service) Cash(ctx context.Context, branchID id.ID, from, to time.Time) (CashReport, error) {
	if err := validRange(from, to); err != nil {
		return CashReport{}, err
	}

	report := CashReport{
		BranchID:          branchID,
		From:              from,
		To:                to,
		CashCollected:     types.ZeroMoney(),
		ExternalDeposits:  types.ZeroMoney(),
		CreditOutstanding: types.ZeroMoney(),
		Expenses:          types.ZeroMoney(),
		NetCash:           types.ZeroMoney(),
	}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inRange, err := s.salesRepo.ListSales(ctx, branchID, sales.SaleFilter{From: &from, To: &to})
		if err != nil {
			return err
		}

		inRangeIDs := make(map[id.ID]bool, len(inRange))
		productRows := make(map[id.ID]*ProductCashRow)
		for _, sale := range inRange {
			inRangeIDs[sale.ID] = true
			report.CashCollected = report.CashCollected.Add(sale.PaidAmount)
			report.CreditOutstanding = report.CreditOutstanding.Add(sale.BalanceDue)
			s.splitSaleByProduct(sale, productRows)
		}

		payments, err := s.salesRepo.ListPaymentsInRange(ctx, branchID, from, to)
		if err != nil {
			return err
		}
		for _, payment := range payments {
			if payment.Method != sales.MethodCreditDeposit || inRangeIDs[payment.SaleID] {
				continue
			}
			report.ExternalDeposits = report.ExternalDeposits.Add(payment.Amount)
		}
		report.CashCollected = report.CashCollected.Add(report.ExternalDeposits)

		expensesInRange, err := s.expenseRepo.ListExpenses(ctx, branchID, from, to)
		if err != nil {
			return err
		}
		for _, expense := range expensesInRange {
			report.Expenses = report.Expenses.Add(expense.Amount)
		}
		report.NetCash = report.CashCollected.Sub(report.Expenses)

		for _, row := range productRows {
			report.Products = append(report.Products, *row)
		}
		return nil
	})
	if err != nil {
		return CashReport{}, err
	}

	sort.Slice(report.Products, func(i, j int) bool {
		return report.Products[i].ItemParticulars < report.Products[j].ItemParticulars
	})
	return report, nil
}

// splitSaleByProduct attributes a sale's value to its products. The overall
// discount is spread proportionally: each line is scaled by
// grandTotal / lineNetTotal so the per-product values sum back to the grand
// total, then split cash/credit by the sale's paid fraction.
func (s *Service) splitSaleByProduct(sale sales.Sale, rows map[id.ID]*ProductCashRow) {
	lineNetTotal := types.ZeroMoney()
	for _, item := range sale.Items {
		lineNetTotal = lineNetTotal.Add(item.LineTotal)
	}
	if lineNetTotal.IsZero() || sale.GrandTotal.IsZero() {
		return
	}
	scale := sale.GrandTotal.Div(lineNetTotal)
	paidFraction := sale.PaidAmount.Div(sale.GrandTotal)

	for _, item := range sale.Items {
		row, ok := rows[item.ProductID]
		if !ok {
			row = &ProductCashRow{
				ProductID:       item.ProductID,
				ItemParticulars: item.ItemParticulars,
				CashValue:       types.ZeroMoney(),
				CreditValue:     types.ZeroMoney(),
			}
			rows[item.ProductID] = row
		}
		effective := item.LineTotal.Mul(scale)
		cash := effective.Mul(paidFraction)
		row.QuantitySold += item.Quantity
		row.CashValue = row.CashValue.Add(cash)
		row.CreditValue = row.CreditValue.Add(effective.Sub(cash))
	}
}

// Summary backs the branch dashboard: headline counters plus a per-day cash
// series over [from, to).
func (s *Service) Summary(ctx context.Context, branchID id.ID, from, to time.Time) (BranchSummary, error) {
	cash, err := s.Cash(ctx, branchID, from, to)
	if err != nil {
		return BranchSummary{}, err
	}

	summary := BranchSummary{
		BranchID:          branchID,
		From:              from,
		To:                to,
		CashCollected:     cash.CashCollected,
		CreditOutstanding: cash.CreditOutstanding,
		Expenses:          cash.Expenses,
		NetCash:           cash.NetCash,
	}
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		stock, err := s.ledgerRepo.ListBranchStock(ctx, branchID)
		if err != nil {
			return err
		}
		for _, entry := range stock {
			summary.StockTotal += entry.Quantity
		}

		inRange, err := s.salesRepo.ListSales(ctx, branchID, sales.SaleFilter{From: &from, To: &to})
		if err != nil {
			return err
		}
		summary.SalesCount = len(inRange)

		payments, err := s.salesRepo.ListPaymentsInRange(ctx, branchID, from, to)
		if err != nil {
			return err
		}
		expensesInRange, err := s.expenseRepo.ListExpenses(ctx, branchID, from, to)
		if err != nil {
			return err
		}

		days := make(map[string]*DailyCash)
		at := func(ts time.Time) *DailyCash {
			key := ts.UTC().Format("2006-01-02")
			day, ok := days[key]
			if !ok {
				day = &DailyCash{Date: key, CashIn: types.ZeroMoney(), Expenses: types.ZeroMoney()}
				days[key] = day
			}
			return day
		}
		for _, payment := range payments {
			day := at(payment.CreatedAt)
			day.CashIn = day.CashIn.Add(payment.Amount)
		}
		for _, expense := range expensesInRange {
			day := at(expense.CreatedAt)
			day.Expenses = day.Expenses.Add(expense.Amount)
		}
		for _, day := range days {
			summary.Days = append(summary.Days, *day)
		}
		return nil
	})
	if err != nil {
		return BranchSummary{}, err
	}

	sort.Slice(summary.Days, func(i, j int) bool {
		return summary.Days[i].Date < summary.Days[j].Date
	})
	return summary, nil
}
