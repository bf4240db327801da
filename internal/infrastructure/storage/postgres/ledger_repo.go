package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/ledger"
)

const (
	branchStockTable = "branch_stock"
	stockBatchTable  = "stock_batches"
	stockLogTable    = "stock_logs"
)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ ledger.Repository = (*LedgerRepo)(nil)

func NewLedgerRepo(txm *TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *LedgerRepo) GetBranchStock(ctx context.Context, branchID, productID id.ID) (ledger.BranchStock, error) {
	q := r.builder.Select("branch_id", "product_id", "quantity", "updated_at").
		From(branchStockTable).
		Where(squirrel.Eq{"branch_id": branchID, "product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return ledger.BranchStock{}, fmt.Errorf("build query: %w", err)
	}

	var entry ledger.BranchStock
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &entry, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		// Absent entry means zero on hand.
		return ledger.BranchStock{BranchID: branchID, ProductID: productID}, nil
	}
	if err != nil {
		return ledger.BranchStock{}, fmt.Errorf("select branch stock: %w", err)
	}
	return entry, nil
}

func (r *LedgerRepo) UpsertBranchStock(ctx context.Context, entry ledger.BranchStock) error {
	q := r.builder.Insert(branchStockTable).
		Columns("branch_id", "product_id", "quantity", "updated_at").
		Values(entry.BranchID, entry.ProductID, entry.Quantity, entry.UpdatedAt).
		Suffix("ON CONFLICT (branch_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert branch stock: %w", err)
	}
	return nil
}

func (r *LedgerRepo) DeleteBranchStock(ctx context.Context, branchID, productID id.ID) error {
	q := r.builder.Delete(branchStockTable).
		Where(squirrel.Eq{"branch_id": branchID, "product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete branch stock: %w", err)
	}
	return nil
}

func (r *LedgerRepo) ListBranchStock(ctx context.Context, branchID id.ID) ([]ledger.BranchStock, error) {
	q := r.builder.Select("branch_id", "product_id", "quantity", "updated_at").
		From(branchStockTable).
		Where(squirrel.Eq{"branch_id": branchID}).
		OrderBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.BranchStock
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select branch stock: %w", err)
	}
	return entries, nil
}

func (r *LedgerRepo) GetBatch(ctx context.Context, batchID id.ID) (ledger.StockBatch, error) {
	q := r.builder.Select("id", "product_id", "batch_code", "original_qty", "remaining_qty", "expiry_date", "added_at").
		From(stockBatchTable).
		Where(squirrel.Eq{"id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return ledger.StockBatch{}, fmt.Errorf("build query: %w", err)
	}

	var batch ledger.StockBatch
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &batch, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.StockBatch{}, apperror.NewNotFound("stock batch", batchID.String())
	}
	if err != nil {
		return ledger.StockBatch{}, fmt.Errorf("select batch: %w", err)
	}
	return batch, nil
}

func (r *LedgerRepo) InsertBatch(ctx context.Context, batch ledger.StockBatch) error {
	q := r.builder.Insert(stockBatchTable).
		Columns("id", "product_id", "batch_code", "original_qty", "remaining_qty", "expiry_date", "added_at").
		Values(batch.ID, batch.ProductID, batch.BatchCode, batch.OriginalQty, batch.RemainingQty, batch.ExpiryDate, batch.AddedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (r *LedgerRepo) UpdateBatchRemaining(ctx context.Context, batchID id.ID, remaining types.Quantity) error {
	q := r.builder.Update(stockBatchTable).
		Set("remaining_qty", remaining).
		Where(squirrel.Eq{"id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update batch remaining: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("stock batch", batchID.String())
	}
	return nil
}

func (r *LedgerRepo) DeleteBatch(ctx context.Context, batchID id.ID) error {
	q := r.builder.Delete(stockBatchTable).Where(squirrel.Eq{"id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("stock batch", batchID.String())
	}
	return nil
}

func (r *LedgerRepo) ListBatches(ctx context.Context, productID *id.ID) ([]ledger.StockBatch, error) {
	q := r.builder.Select("id", "product_id", "batch_code", "original_qty", "remaining_qty", "expiry_date", "added_at").
		From(stockBatchTable).
		OrderBy("added_at DESC")
	if productID != nil {
		q = q.Where(squirrel.Eq{"product_id": *productID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []ledger.StockBatch
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}
	return batches, nil
}

func (r *LedgerRepo) InsertLog(ctx context.Context, entry ledger.StockLog) error {
	q := r.builder.Insert(stockLogTable).
		Columns("id", "branch_id", "type", "product_id", "quantity", "item_particulars",
			"target_branch_id", "transfer_id", "note", "performed_by", "created_at").
		Values(entry.ID, entry.BranchID, entry.Type, entry.ProductID, entry.Quantity, entry.ItemParticulars,
			entry.TargetBranchID, entry.TransferID, entry.Note, entry.PerformedBy, entry.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock log: %w", err)
	}
	return nil
}

func (r *LedgerRepo) DeleteLog(ctx context.Context, logID id.ID) error {
	q := r.builder.Delete(stockLogTable).Where(squirrel.Eq{"id": logID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete stock log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("stock log", logID.String())
	}
	return nil
}

func (r *LedgerRepo) ListLogs(ctx context.Context, branchID id.ID, filter ledger.LogFilter) ([]ledger.StockLog, error) {
	q := r.builder.Select("id", "branch_id", "type", "product_id", "quantity", "item_particulars",
		"target_branch_id", "transfer_id", "note", "performed_by", "created_at").
		From(stockLogTable).
		Where(squirrel.Eq{"branch_id": branchID}).
		OrderBy("created_at DESC", "id DESC")

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"type": filter.Type})
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

	var logs []ledger.StockLog
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &logs, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock logs: %w", err)
	}
	return logs, nil
}
