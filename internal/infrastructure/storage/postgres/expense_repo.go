package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailops/internal/core/id"
	"retailops/internal/domain/expenses"
)

const expenseTable = "expenses"

// ExpenseRepo implements expenses.Repository.
type ExpenseRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ expenses.Repository = (*ExpenseRepo)(nil)

func NewExpenseRepo(txm *TxManager) *ExpenseRepo {
	return &ExpenseRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ExpenseRepo) InsertExpense(ctx context.Context, expense expenses.Expense) error {
	q := r.builder.Insert(expenseTable).
		Columns("id", "branch_id", "note", "amount", "recorded_by", "created_at").
		Values(expense.ID, expense.BranchID, expense.Note, expense.Amount, expense.RecordedBy, expense.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (r *ExpenseRepo) ListExpenses(ctx context.Context, branchID id.ID, from, to time.Time) ([]expenses.Expense, error) {
	q := r.builder.Select("id", "branch_id", "note", "amount", "recorded_by", "created_at").
		From(expenseTable).
		Where(squirrel.Eq{"branch_id": branchID}).
		Where(squirrel.GtOrEq{"created_at": from}).
		Where(squirrel.Lt{"created_at": to}).
		OrderBy("created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []expenses.Expense
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("select expenses: %w", err)
	}
	return list, nil
}
