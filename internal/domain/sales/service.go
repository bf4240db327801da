package sales

import (
	"context"
	"fmt"
	"time"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/tx"
	"retailops/internal/core/types"
	"retailops/internal/domain/catalog"
	"retailops/internal/domain/ledger"
	"retailops/internal/events"
	"retailops/pkg/logger"
)

// stockLedger is the slice of the ledger service the sale path needs.
type stockLedger interface {
	DebitForSale(ctx context.Context, branchID id.ID, debit ledger.SaleDebit, performedBy string) error
}

// Service implements sale creation and the payment sub-ledger.
type Service struct {
	repo      Repository
	catalog   catalog.Repository
	ledger    stockLedger
	txManager tx.Manager
	publisher events.Publisher
	receipts  *ReceiptRenderer
}

// NewService creates a new sales service.
func NewService(repo Repository, catalogRepo catalog.Repository, stock stockLedger, txManager tx.Manager, publisher events.Publisher) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalogRepo,
		ledger:    stock,
		txManager: txManager,
		publisher: publisher,
		receipts:  NewReceiptRenderer(),
	}
}

// CreateItem is one requested sale line.
type CreateItem struct {
	ProductID   id.ID
	Quantity    types.Quantity
	DiscountPct types.Percent
}

// CreateCommand describes a new sale. PaidAmount is the optional immediate
// deposit of a credit sale; a cash sale always settles in full and ignores
// it.
type CreateCommand struct {
	BranchID           id.ID
	CustomerName       string
	CustomerPhone      string
	PaymentType        PaymentType
	Items              []CreateItem
	OverallDiscountPct types.Percent
	PaidAmount         types.Money
	SoldBy             string
}

// Create records a sale: every line is validated and debited against fresh
// stock reads inside one transaction, so either all lines commit together
// with the header and opening payment, or nothing does.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (Sale, error) {
	if len(cmd.Items) == 0 {
		return Sale{}, apperror.NewValidation("sale must contain at least one item")
	}
	if cmd.PaymentType != PaymentTypeCash && cmd.PaymentType != PaymentTypeCredit {
		return Sale{}, apperror.NewValidation("payment type must be cash or credit")
	}
	if !types.ValidPercent(cmd.OverallDiscountPct) {
		return Sale{}, apperror.NewValidation("overall discount must be between 0 and 100")
	}
	if cmd.PaidAmount.IsNegative() {
		return Sale{}, apperror.NewValidation("paid amount cannot be negative")
	}
	productIDs := make([]id.ID, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		if !item.Quantity.IsPositive() {
			return Sale{}, apperror.NewValidation("item quantity must be positive")
		}
		if !types.ValidPercent(item.DiscountPct) {
			return Sale{}, apperror.NewValidation("item discount must be between 0 and 100")
		}
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := s.catalog.GetProducts(ctx, productIDs)
	if err != nil {
		return Sale{}, err
	}

	saleID := id.New()
	items := make([]SaleItem, len(cmd.Items))
	for i, item := range cmd.Items {
		product := products[item.ProductID]
		items[i] = SaleItem{
			ID:              id.New(),
			SaleID:          saleID,
			ProductID:       item.ProductID,
			ItemParticulars: product.ItemParticulars,
			UnitPrice:       product.SellingPrice,
			Quantity:        item.Quantity,
			DiscountPct:     item.DiscountPct,
		}
	}
	_, grandTotal := ComputeTotals(items, cmd.OverallDiscountPct)

	paidAmount := cmd.PaidAmount
	if cmd.PaymentType == PaymentTypeCash {
		paidAmount = grandTotal
	}
	if paidAmount.GreaterThan(grandTotal) {
		return Sale{}, apperror.NewValidation("paid amount cannot exceed the grand total")
	}
	balanceDue := grandTotal.Sub(paidAmount)

	sale := Sale{
		ID:                 saleID,
		BranchID:           cmd.BranchID,
		CustomerName:       cmd.CustomerName,
		CustomerPhone:      cmd.CustomerPhone,
		PaymentType:        cmd.PaymentType,
		OverallDiscountPct: cmd.OverallDiscountPct,
		GrandTotal:         grandTotal,
		PaidAmount:         paidAmount,
		BalanceDue:         balanceDue,
		Status:             DeriveStatus(paidAmount, balanceDue),
		SoldBy:             cmd.SoldBy,
		CreatedAt:          time.Now().UTC(),
		Items:              items,
	}

	err = s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		for _, item := range items {
			debit := ledger.SaleDebit{
				ProductID:       item.ProductID,
				Quantity:        item.Quantity,
				ItemParticulars: item.ItemParticulars,
			}
			if err := s.ledger.DebitForSale(ctx, cmd.BranchID, debit, cmd.SoldBy); err != nil {
				return err
			}
		}
		if err := s.repo.InsertSale(ctx, sale); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		if sale.PaidAmount.IsPositive() {
			method := MethodCash
			if cmd.PaymentType == PaymentTypeCredit {
				method = MethodCreditDeposit
			}
			payment := Payment{
				ID:         id.New(),
				SaleID:     saleID,
				BranchID:   cmd.BranchID,
				Amount:     sale.PaidAmount,
				Method:     method,
				ReceivedBy: cmd.SoldBy,
				CreatedAt:  sale.CreatedAt,
			}
			if err := s.repo.InsertPayment(ctx, payment); err != nil {
				return fmt.Errorf("insert opening payment: %w", err)
			}
		}
		return s.publisher.Publish(ctx, events.Event{
			Topic:      events.TopicSales,
			Action:     events.ActionCreated,
			BranchID:   cmd.BranchID,
			EntityID:   saleID.String(),
			OccurredAt: sale.CreatedAt,
		})
	})
	if err != nil {
		return Sale{}, err
	}

	s.persistReceipt(ctx, sale)

	logger.Info(ctx, "sale recorded",
		"sale_id", sale.ID,
		"branch_id", sale.BranchID,
		"grand_total", sale.GrandTotal,
		"status", sale.Status,
	)
	return sale, nil
}

// persistReceipt renders and stores the print projection, replacing any
// previous rendering. The sale or payment is already committed, so a
// receipt failure is logged and swallowed; the receipt can be re-rendered
// from the sale on demand.
func (s *Service) persistReceipt(ctx context.Context, sale Sale) {
	body, err := s.receipts.Render(sale)
	if err != nil {
		logger.Warn(ctx, "receipt render failed", "sale_id", sale.ID, "error", err)
		return
	}
	receipt := Receipt{
		ID:        id.New(),
		SaleID:    sale.ID,
		BranchID:  sale.BranchID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.UpsertReceipt(ctx, receipt); err != nil {
		logger.Warn(ctx, "receipt persist failed", "sale_id", sale.ID, "error", err)
	}
}

// ApplyPayment appends a deposit to the sale's payment sub-ledger. The
// amount is checked against the balance read inside the transaction, so two
// tellers racing on the same balance cannot overpay it together.
func (s *Service) ApplyPayment(ctx context.Context, saleID id.ID, amount types.Money, receivedBy string) (Sale, error) {
	if !amount.IsPositive() {
		return Sale{}, apperror.NewValidation("payment amount must be positive")
	}

	var updated Sale
	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		sale, err := s.repo.GetSale(ctx, saleID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(sale.BalanceDue) {
			return apperror.NewExceedsBalance(saleID.String(), amount.String(), sale.BalanceDue.String())
		}

		now := time.Now().UTC()
		payment := Payment{
			ID:         id.New(),
			SaleID:     saleID,
			BranchID:   sale.BranchID,
			Amount:     amount,
			Method:     MethodCreditDeposit,
			ReceivedBy: receivedBy,
			CreatedAt:  now,
		}
		if err := s.repo.InsertPayment(ctx, payment); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		sale.PaidAmount = sale.PaidAmount.Add(amount)
		sale.BalanceDue = sale.BalanceDue.Sub(amount)
		sale.Status = DeriveStatus(sale.PaidAmount, sale.BalanceDue)
		if err := s.repo.UpdateSaleBalance(ctx, sale); err != nil {
			return fmt.Errorf("update sale balance: %w", err)
		}
		updated = sale

		return s.publisher.Publish(ctx, events.Event{
			Topic:      events.TopicPayments,
			Action:     events.ActionCreated,
			BranchID:   sale.BranchID,
			EntityID:   payment.ID.String(),
			OccurredAt: now,
		})
	})
	if err != nil {
		return Sale{}, err
	}

	s.persistReceipt(ctx, updated)

	logger.Info(ctx, "payment recorded",
		"sale_id", saleID,
		"amount", amount,
		"balance_due", updated.BalanceDue,
		"status", updated.Status,
	)
	return updated, nil
}

// Get returns a sale with its item lines.
func (s *Service) Get(ctx context.Context, saleID id.ID) (Sale, error) {
	return s.repo.GetSale(ctx, saleID)
}

// List returns sales for a branch.
func (s *Service) List(ctx context.Context, branchID id.ID, filter SaleFilter) ([]Sale, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.ListSales(ctx, branchID, filter)
}

// Payments returns the payment sub-ledger of a sale, oldest first.
func (s *Service) Payments(ctx context.Context, saleID id.ID) ([]Payment, error) {
	return s.repo.ListPayments(ctx, saleID)
}

// GetReceipt returns the stored receipt for a sale, rendering it on the fly
// if persistence was skipped at sale time.
func (s *Service) GetReceipt(ctx context.Context, saleID id.ID) (Receipt, error) {
	receipt, err := s.repo.GetReceipt(ctx, saleID)
	if err == nil {
		return receipt, nil
	}
	if !apperror.IsNotFound(err) {
		return Receipt{}, err
	}

	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return Receipt{}, err
	}
	body, err := s.receipts.Render(sale)
	if err != nil {
		return Receipt{}, apperror.NewInternal(err)
	}
	return Receipt{
		ID:        id.New(),
		SaleID:    sale.ID,
		BranchID:  sale.BranchID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}, nil
}
