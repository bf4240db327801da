// Package expenses records branch operating expenses. Expenses never touch
// stock; they only reduce net cash in reporting.
package expenses

import (
	"context"
	"time"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/tx"
	"retailops/internal/core/types"
	"retailops/internal/events"
	"retailops/pkg/logger"
)

// Expense is one branch cash outflow.
type Expense struct {
	ID         id.ID       `json:"id" db:"id"`
	BranchID   id.ID       `json:"branchId" db:"branch_id"`
	Note       string      `json:"note" db:"note"`
	Amount     types.Money `json:"amount" db:"amount"`
	RecordedBy string      `json:"recordedBy" db:"recorded_by"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
}

// Repository is the persistence port for expenses.
type Repository interface {
	InsertExpense(ctx context.Context, expense Expense) error
	ListExpenses(ctx context.Context, branchID id.ID, from, to time.Time) ([]Expense, error)
}

// Service records and lists branch expenses.
type Service struct {
	repo      Repository
	txManager tx.Manager
	publisher events.Publisher
}

func NewService(repo Repository, txManager tx.Manager, publisher events.Publisher) *Service {
	return &Service{repo: repo, txManager: txManager, publisher: publisher}
}

// Record persists a new expense for a branch.
func (s *Service) Record(ctx context.Context, branchID id.ID, note string, amount types.Money, recordedBy string) (Expense, error) {
	if note == "" {
		return Expense{}, apperror.NewValidation("expense note is required")
	}
	if !amount.IsPositive() {
		return Expense{}, apperror.NewValidation("expense amount must be positive")
	}

	expense := Expense{
		ID:         id.New(),
		BranchID:   branchID,
		Note:       note,
		Amount:     amount,
		RecordedBy: recordedBy,
		CreatedAt:  time.Now().UTC(),
	}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.InsertExpense(ctx, expense); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, events.Event{
			Topic:      events.TopicExpenses,
			Action:     events.ActionCreated,
			BranchID:   branchID,
			EntityID:   expense.ID.String(),
			OccurredAt: expense.CreatedAt,
		})
	})
	if err != nil {
		return Expense{}, err
	}

	logger.Info(ctx, "expense recorded", "expense_id", expense.ID, "branch_id", branchID, "amount", amount)
	return expense, nil
}

// List returns expenses for a branch within [from, to).
func (s *Service) List(ctx context.Context, branchID id.ID, from, to time.Time) ([]Expense, error) {
	return s.repo.ListExpenses(ctx, branchID, from, to)
}
