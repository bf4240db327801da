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
	"retailops/internal/domain/allocations"
)

const allocationTable = "allocations"

// AllocationRepo implements allocations.Repository.
type AllocationRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ allocations.Repository = (*AllocationRepo)(nil)

func NewAllocationRepo(txm *TxManager) *AllocationRepo {
	return &AllocationRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var allocationColumns = []string{
	"id", "batch_id", "product_id", "branch_id", "quantity",
	"item_particulars", "log_id", "allocated_by", "allocated_at",
}

func (r *AllocationRepo) GetAllocation(ctx context.Context, allocationID id.ID) (allocations.Allocation, error) {
	q := r.builder.Select(allocationColumns...).From(allocationTable).
		Where(squirrel.Eq{"id": allocationID})

	sql, args, err := q.ToSql()
	if err != nil {
		return allocations.Allocation{}, fmt.Errorf("build query: %w", err)
	}

	var allocation allocations.Allocation
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &allocation, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return allocations.Allocation{}, apperror.NewNotFound("allocation", allocationID.String())
	}
	if err != nil {
		return allocations.Allocation{}, fmt.Errorf("select allocation: %w", err)
	}
	return allocation, nil
}

func (r *AllocationRepo) InsertAllocation(ctx context.Context, allocation allocations.Allocation) error {
	q := r.builder.Insert(allocationTable).Columns(allocationColumns...).
		Values(allocation.ID, allocation.BatchID, allocation.ProductID, allocation.BranchID, allocation.Quantity,
			allocation.ItemParticulars, allocation.LogID, allocation.AllocatedBy, allocation.AllocatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

func (r *AllocationRepo) DeleteAllocation(ctx context.Context, allocationID id.ID) error {
	q := r.builder.Delete(allocationTable).Where(squirrel.Eq{"id": allocationID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("allocation", allocationID.String())
	}
	return nil
}

func (r *AllocationRepo) ListAllocations(ctx context.Context, branchID *id.ID) ([]allocations.Allocation, error) {
	q := r.builder.Select(allocationColumns...).From(allocationTable).
		OrderBy("allocated_at DESC", "id DESC")
	if branchID != nil {
		q = q.Where(squirrel.Eq{"branch_id": *branchID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []allocations.Allocation
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("select allocations: %w", err)
	}
	return list, nil
}

// Now reads the database clock, inside the surrounding transaction when one
// is open.
func (r *AllocationRepo) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, "SELECT now()").Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("select now: %w", err)
	}
	return now.UTC(), nil
}
