package allocations

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

// Service implements allocation and revert against the central batch pool.
type Service struct {
	repo       Repository
	ledgerRepo ledger.Repository
	catalog    catalog.Repository
	txManager  tx.Manager
	publisher  events.Publisher
	lockWindow time.Duration
}

// NewService creates a new allocation service. lockWindow bounds how long
// after allocation a revert is still accepted.
func NewService(repo Repository, ledgerRepo ledger.Repository, catalogRepo catalog.Repository, txManager tx.Manager, publisher events.Publisher, lockWindow time.Duration) *Service {
	return &Service{
		repo:       repo,
		ledgerRepo: ledgerRepo,
		catalog:    catalogRepo,
		txManager:  txManager,
		publisher:  publisher,
		lockWindow: lockWindow,
	}
}

// AllocateCommand moves quantity from a central batch to a branch.
type AllocateCommand struct {
	BatchID     id.ID
	BranchID    id.ID
	Quantity    types.Quantity
	AllocatedBy string
}

// Allocate decrements the batch remaining, credits the branch entry and
// writes the allocation record with its paired transferIn movement entry,
// all in one transaction against freshly read state.
func (s *Service) Allocate(ctx context.Context, cmd AllocateCommand) (Allocation, error) {
	if !cmd.Quantity.IsPositive() {
		return Allocation{}, apperror.NewValidation("quantity must be positive")
	}

	var allocation Allocation
	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		batch, err := s.ledgerRepo.GetBatch(ctx, cmd.BatchID)
		if err != nil {
			return err
		}
		if cmd.Quantity > batch.RemainingQty {
			return apperror.NewInsufficientStock(batch.ProductID.String(), cmd.Quantity.Int64(), batch.RemainingQty.Int64())
		}
		product, err := s.catalog.GetProduct(ctx, batch.ProductID)
		if err != nil {
			return err
		}
		entry, err := s.ledgerRepo.GetBranchStock(ctx, cmd.BranchID, batch.ProductID)
		if err != nil {
			return fmt.Errorf("read branch stock: %w", err)
		}

		now, err := s.repo.Now(ctx)
		if err != nil {
			return fmt.Errorf("read database clock: %w", err)
		}

		if err := s.ledgerRepo.UpdateBatchRemaining(ctx, batch.ID, batch.RemainingQty-cmd.Quantity); err != nil {
			return fmt.Errorf("update batch remaining: %w", err)
		}
		entry.Quantity += cmd.Quantity
		entry.BranchID = cmd.BranchID
		entry.ProductID = batch.ProductID
		entry.UpdatedAt = now
		if err := s.ledgerRepo.UpsertBranchStock(ctx, entry); err != nil {
			return fmt.Errorf("write branch stock: %w", err)
		}

		logEntry := ledger.StockLog{
			ID:              id.New(),
			BranchID:        cmd.BranchID,
			Type:            ledger.LogTypeTransferIn,
			ProductID:       batch.ProductID,
			Quantity:        cmd.Quantity,
			ItemParticulars: product.ItemParticulars,
			Note:            "From Main Store",
			PerformedBy:     cmd.AllocatedBy,
			CreatedAt:       now,
		}
		if err := s.ledgerRepo.InsertLog(ctx, logEntry); err != nil {
			return fmt.Errorf("write allocation log: %w", err)
		}

		allocation = Allocation{
			ID:              id.New(),
			BatchID:         batch.ID,
			ProductID:       batch.ProductID,
			BranchID:        cmd.BranchID,
			Quantity:        cmd.Quantity,
			ItemParticulars: product.ItemParticulars,
			LogID:           logEntry.ID,
			AllocatedBy:     cmd.AllocatedBy,
			AllocatedAt:     now,
		}
		if err := s.repo.InsertAllocation(ctx, allocation); err != nil {
			return fmt.Errorf("insert allocation: %w", err)
		}

		return s.publisher.Publish(ctx, events.Event{
			Topic:      events.TopicAllocations,
			Action:     events.ActionCreated,
			BranchID:   cmd.BranchID,
			EntityID:   allocation.ID.String(),
			OccurredAt: now,
		})
	})
	if err != nil {
		return Allocation{}, err
	}

	logger.Info(ctx, "stock allocated",
		"allocation_id", allocation.ID,
		"batch_id", allocation.BatchID,
		"branch_id", allocation.BranchID,
		"quantity", allocation.Quantity,
	)
	return allocation, nil
}

// Revert undoes an allocation: batch remaining is restored, the branch entry
// is debited (removed at zero), and the allocation with its movement entry
// is deleted. The lock window is re-checked against the database clock
// inside the transaction, so a request submitted from a stale screen after
// the window closed still fails.
func (s *Service) Revert(ctx context.Context, allocationID id.ID) error {
	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		allocation, err := s.repo.GetAllocation(ctx, allocationID)
		if err != nil {
			return err
		}

		now, err := s.repo.Now(ctx)
		if err != nil {
			return fmt.Errorf("read database clock: %w", err)
		}
		if age := allocation.Age(now); age >= s.lockWindow {
			return apperror.NewRevertLocked(allocationID.String(), age.Hours())
		}

		batch, err := s.ledgerRepo.GetBatch(ctx, allocation.BatchID)
		if err != nil {
			return err
		}
		restored := batch.RemainingQty + allocation.Quantity
		if restored > batch.OriginalQty {
			return apperror.NewInconsistentStock(
				fmt.Sprintf("reverting allocation %s would push batch %s above its original quantity", allocationID, batch.ID))
		}

		entry, err := s.ledgerRepo.GetBranchStock(ctx, allocation.BranchID, allocation.ProductID)
		if err != nil {
			return fmt.Errorf("read branch stock: %w", err)
		}
		if allocation.Quantity > entry.Quantity {
			return apperror.NewInconsistentStock(
				fmt.Sprintf("branch %s holds %d of product %s, cannot revert %d",
					allocation.BranchID, entry.Quantity, allocation.ProductID, allocation.Quantity))
		}

		if err := s.ledgerRepo.UpdateBatchRemaining(ctx, batch.ID, restored); err != nil {
			return fmt.Errorf("restore batch remaining: %w", err)
		}

		remaining := entry.Quantity - allocation.Quantity
		if remaining.IsZero() {
			if err := s.ledgerRepo.DeleteBranchStock(ctx, allocation.BranchID, allocation.ProductID); err != nil {
				return fmt.Errorf("delete branch stock: %w", err)
			}
		} else {
			entry.Quantity = remaining
			entry.UpdatedAt = now
			if err := s.ledgerRepo.UpsertBranchStock(ctx, entry); err != nil {
				return fmt.Errorf("write branch stock: %w", err)
			}
		}

		if err := s.ledgerRepo.DeleteLog(ctx, allocation.LogID); err != nil {
			return fmt.Errorf("delete allocation log: %w", err)
		}
		if err := s.repo.DeleteAllocation(ctx, allocationID); err != nil {
			return fmt.Errorf("delete allocation: %w", err)
		}

		return s.publisher.Publish(ctx, events.Event{
			Topic:      events.TopicAllocations,
			Action:     events.ActionDeleted,
			BranchID:   allocation.BranchID,
			EntityID:   allocationID.String(),
			OccurredAt: now,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "allocation reverted", "allocation_id", allocationID)
	return nil
}

// List returns allocations, optionally scoped to one branch.
func (s *Service) List(ctx context.Context, branchID *id.ID) ([]Allocation, error) {
	return s.repo.ListAllocations(ctx, branchID)
}
