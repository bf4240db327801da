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
	"retailops/internal/domain/workers"
)

const workerTable = "workers"

// WorkerRepo implements workers.Repository.
type WorkerRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ workers.Repository = (*WorkerRepo)(nil)

func NewWorkerRepo(txm *TxManager) *WorkerRepo {
	return &WorkerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var workerColumns = []string{"id", "full_name", "email", "password_hash", "branch_id", "role", "active", "created_at"}

func (r *WorkerRepo) GetByEmail(ctx context.Context, email string) (workers.Worker, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email}, email)
}

func (r *WorkerRepo) GetByID(ctx context.Context, workerID id.ID) (workers.Worker, error) {
	return r.getOne(ctx, squirrel.Eq{"id": workerID}, workerID.String())
}

func (r *WorkerRepo) getOne(ctx context.Context, cond squirrel.Eq, key string) (workers.Worker, error) {
	q := r.builder.Select(workerColumns...).From(workerTable).Where(cond)

	sql, args, err := q.ToSql()
	if err != nil {
		return workers.Worker{}, fmt.Errorf("build query: %w", err)
	}

	var worker workers.Worker
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &worker, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return workers.Worker{}, apperror.NewNotFound("worker", key)
	}
	if err != nil {
		return workers.Worker{}, fmt.Errorf("select worker: %w", err)
	}
	return worker, nil
}

func (r *WorkerRepo) Insert(ctx context.Context, worker workers.Worker) error {
	q := r.builder.Insert(workerTable).Columns(workerColumns...).
		Values(worker.ID, worker.FullName, worker.Email, worker.PasswordHash,
			worker.BranchID, worker.Role, worker.Active, worker.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert worker: %w", err)
	}
	return nil
}

func (r *WorkerRepo) ListByBranch(ctx context.Context, branchID id.ID) ([]workers.Worker, error) {
	q := r.builder.Select(workerColumns...).From(workerTable).
		Where(squirrel.Eq{"branch_id": branchID}).
		OrderBy("full_name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []workers.Worker
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("select workers: %w", err)
	}
	return list, nil
}
