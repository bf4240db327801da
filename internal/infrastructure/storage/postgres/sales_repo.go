package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/domain/sales"
)

const (
	salesTable    = "sales"
	saleItemTable = "sale_items"
	paymentTable  = "payments"
	receiptTable  = "receipts"
)

// SalesRepo implements sales.Repository.
type SalesRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ sales.Repository = (*SalesRepo)(nil)

func NewSalesRepo(txm *TxManager) *SalesRepo {
	return &SalesRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var saleColumns = []string{
	"id", "branch_id", "customer_name", "customer_phone", "payment_type",
	"overall_discount_pct", "grand_total", "paid_amount", "balance_due",
	"status", "sold_by", "created_at",
}

func (r *SalesRepo) InsertSale(ctx context.Context, sale sales.Sale) error {
	querier := r.txm.GetQuerier(ctx)

	q := r.builder.Insert(salesTable).Columns(saleColumns...).
		Values(sale.ID, sale.BranchID, sale.CustomerName, sale.CustomerPhone, sale.PaymentType,
			sale.OverallDiscountPct, sale.GrandTotal, sale.PaidAmount, sale.BalanceDue,
			sale.Status, sale.SoldBy, sale.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	if len(sale.Items) == 0 {
		return nil
	}
	itemQ := r.builder.Insert(saleItemTable).
		Columns("id", "sale_id", "product_id", "item_particulars", "unit_price", "quantity", "discount_pct", "line_total")
	for _, item := range sale.Items {
		itemQ = itemQ.Values(item.ID, sale.ID, item.ProductID, item.ItemParticulars,
			item.UnitPrice, item.Quantity, item.DiscountPct, item.LineTotal)
	}
	sql, args, err = itemQ.ToSql()
	if err != nil {
		return fmt.Errorf("build item insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale items: %w", err)
	}
	return nil
}

func (r *SalesRepo) GetSale(ctx context.Context, saleID id.ID) (sales.Sale, error) {
	q := r.builder.Select(saleColumns...).From(salesTable).Where(squirrel.Eq{"id": saleID})

	sql, args, err := q.ToSql()
	if err != nil {
		return sales.Sale{}, fmt.Errorf("build query: %w", err)
	}

	var sale sales.Sale
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &sale, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return sales.Sale{}, apperror.NewNotFound("sale", saleID.String())
	}
	if err != nil {
		return sales.Sale{}, fmt.Errorf("select sale: %w", err)
	}

	items, err := r.listItems(ctx, []id.ID{saleID})
	if err != nil {
		return sales.Sale{}, err
	}
	sale.Items = items[saleID]
	return sale, nil
}

func (r *SalesRepo) listItems(ctx context.Context, saleIDs []id.ID) (map[id.ID][]sales.SaleItem, error) {
	q := r.builder.Select("id", "sale_id", "product_id", "item_particulars", "unit_price", "quantity", "discount_pct", "line_total").
		From(saleItemTable).
		Where(squirrel.Eq{"sale_id": saleIDs}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build item query: %w", err)
	}

	var items []sales.SaleItem
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select sale items: %w", err)
	}

	out := make(map[id.ID][]sales.SaleItem, len(saleIDs))
	for _, item := range items {
		out[item.SaleID] = append(out[item.SaleID], item)
	}
	return out, nil
}

func (r *SalesRepo) UpdateSaleBalance(ctx context.Context, sale sales.Sale) error {
	q := r.builder.Update(salesTable).
		Set("paid_amount", sale.PaidAmount).
		Set("balance_due", sale.BalanceDue).
		Set("status", sale.Status).
		Where(squirrel.Eq{"id": sale.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", sale.ID.String())
	}
	return nil
}

func (r *SalesRepo) ListSales(ctx context.Context, branchID id.ID, filter sales.SaleFilter) ([]sales.Sale, error) {
	q := r.builder.Select(saleColumns...).From(salesTable).
		Where(squirrel.Eq{"branch_id": branchID}).
		OrderBy("created_at DESC", "id DESC")

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"created_at": *filter.To})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []sales.Sale
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("select sales: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	saleIDs := make([]id.ID, len(list))
	for i, sale := range list {
		saleIDs[i] = sale.ID
	}
	items, err := r.listItems(ctx, saleIDs)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Items = items[list[i].ID]
	}
	return list, nil
}

func (r *SalesRepo) InsertPayment(ctx context.Context, payment sales.Payment) error {
	q := r.builder.Insert(paymentTable).
		Columns("id", "sale_id", "branch_id", "amount", "method", "received_by", "created_at").
		Values(payment.ID, payment.SaleID, payment.BranchID, payment.Amount, payment.Method, payment.ReceivedBy, payment.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *SalesRepo) ListPayments(ctx context.Context, saleID id.ID) ([]sales.Payment, error) {
	q := r.builder.Select("id", "sale_id", "branch_id", "amount", "method", "received_by", "created_at").
		From(paymentTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var payments []sales.Payment
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	return payments, nil
}

func (r *SalesRepo) ListPaymentsInRange(ctx context.Context, branchID id.ID, from, to time.Time) ([]sales.Payment, error) {
	q := r.builder.Select("id", "sale_id", "branch_id", "amount", "method", "received_by", "created_at").
		From(paymentTable).
		Where(squirrel.Eq{"branch_id": branchID}).
		Where(squirrel.GtOrEq{"created_at": from}).
		Where(squirrel.Lt{"created_at": to}).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var payments []sales.Payment
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	return payments, nil
}

func (r *SalesRepo) UpsertReceipt(ctx context.Context, receipt sales.Receipt) error {
	q := r.builder.Insert(receiptTable).
		Columns("id", "sale_id", "branch_id", "body", "created_at").
		Values(receipt.ID, receipt.SaleID, receipt.BranchID, receipt.Body, receipt.CreatedAt).
		Suffix("ON CONFLICT (sale_id) DO UPDATE SET body = EXCLUDED.body, created_at = EXCLUDED.created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert receipt: %w", err)
	}
	return nil
}

func (r *SalesRepo) GetReceipt(ctx context.Context, saleID id.ID) (sales.Receipt, error) {
	q := r.builder.Select("id", "sale_id", "branch_id", "body", "created_at").
		From(receiptTable).
		Where(squirrel.Eq{"sale_id": saleID})

	sql, args, err := q.ToSql()
	if err != nil {
		return sales.Receipt{}, fmt.Errorf("build query: %w", err)
	}

	var receipt sales.Receipt
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &receipt, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return sales.Receipt{}, apperror.NewNotFound("receipt", saleID.String())
	}
	if err != nil {
		return sales.Receipt{}, fmt.Errorf("select receipt: %w", err)
	}
	return receipt, nil
}
