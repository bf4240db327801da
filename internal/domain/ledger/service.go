package ledger

import (
	"context"
	"fmt"
	"time"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/tx"
	"retailops/internal/core/types"
	"retailops/internal/domain/catalog"
	"retailops/internal/events"
	"retailops/pkg/logger"
)

// Service provides business operations for the inventory ledger.
type Service struct {
	repo      Repository
	catalog   catalog.Repository
	txManager tx.Manager
	publisher events.Publisher
}

// NewService creates a new ledger service.
func NewService(repo Repository, catalogRepo catalog.Repository, txManager tx.Manager, publisher events.Publisher) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalogRepo,
		txManager: txManager,
		publisher: publisher,
	}
}

// TransferCommand moves stock between two branches.
type TransferCommand struct {
	SourceBranchID id.ID
	TargetBranchID id.ID
	ProductID      id.ID
	Quantity       types.Quantity
	Note           string
	PerformedBy    string
}

// Transfer atomically moves quantity from the source branch to the target
// branch and writes a paired transferOut/transferIn log entry sharing one
// time-ordered correlation id.
func (s *Service) Transfer(ctx context.Context, cmd TransferCommand) error {
	if cmd.SourceBranchID == cmd.TargetBranchID {
		return apperror.NewValidation("source and target branch must differ")
	}
	if !cmd.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive")
	}

	product, err := s.catalog.GetProduct(ctx, cmd.ProductID)
	if err != nil {
		return err
	}

	err = s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		source, err := s.repo.GetBranchStock(ctx, cmd.SourceBranchID, cmd.ProductID)
		if err != nil {
			return fmt.Errorf("read source stock: %w", err)
		}
		target, err := s.repo.GetBranchStock(ctx, cmd.TargetBranchID, cmd.ProductID)
		if err != nil {
			return fmt.Errorf("read target stock: %w", err)
		}

		if cmd.Quantity > source.Quantity {
			return apperror.NewInsufficientStock(cmd.ProductID.String(), cmd.Quantity.Int64(), source.Quantity.Int64())
		}

		if err := s.writeQuantity(ctx, cmd.SourceBranchID, cmd.ProductID, source.Quantity-cmd.Quantity); err != nil {
			return err
		}
		if err := s.writeQuantity(ctx, cmd.TargetBranchID, cmd.ProductID, target.Quantity+cmd.Quantity); err != nil {
			return err
		}

		transferID := id.New()
		now := time.Now().UTC()
		outEntry := StockLog{
			ID:              id.New(),
			BranchID:        cmd.SourceBranchID,
			Type:            LogTypeTransferOut,
			ProductID:       cmd.ProductID,
			Quantity:        cmd.Quantity,
			ItemParticulars: product.ItemParticulars,
			TargetBranchID:  &cmd.TargetBranchID,
			TransferID:      &transferID,
			Note:            cmd.Note,
			PerformedBy:     cmd.PerformedBy,
			CreatedAt:       now,
		}
		inEntry := StockLog{
			ID:              id.New(),
			BranchID:        cmd.TargetBranchID,
			Type:            LogTypeTransferIn,
			ProductID:       cmd.ProductID,
			Quantity:        cmd.Quantity,
			ItemParticulars: product.ItemParticulars,
			TargetBranchID:  &cmd.SourceBranchID,
			TransferID:      &transferID,
			Note:            cmd.Note,
			PerformedBy:     cmd.PerformedBy,
			CreatedAt:       now,
		}
		if err := s.repo.InsertLog(ctx, outEntry); err != nil {
			return fmt.Errorf("write transferOut log: %w", err)
		}
		if err := s.repo.InsertLog(ctx, inEntry); err != nil {
			return fmt.Errorf("write transferIn log: %w", err)
		}

		for _, branchID := range []id.ID{cmd.SourceBranchID, cmd.TargetBranchID} {
			err := s.publisher.Publish(ctx, events.Event{
				Topic:      events.TopicBranchStock,
				Action:     events.ActionUpdated,
				BranchID:   branchID,
				EntityID:   cmd.ProductID.String(),
				OccurredAt: now,
			})
			if err != nil {
				return err
			}
		}
		for _, entry := range []StockLog{outEntry, inEntry} {
			err := s.publisher.Publish(ctx, events.Event{
				Topic:      events.TopicStockLogs,
				Action:     events.ActionCreated,
				BranchID:   entry.BranchID,
				EntityID:   entry.ID.String(),
				OccurredAt: now,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "stock transferred",
		"product_id", cmd.ProductID,
		"quantity", cmd.Quantity,
		"source", cmd.SourceBranchID,
		"target", cmd.TargetBranchID,
	)
	return nil
}

// SaleDebit is one sold line to debit from branch stock.
type SaleDebit struct {
	ProductID       id.ID
	Quantity        types.Quantity
	ItemParticulars string
}

// DebitForSale removes quantity from a branch entry as part of a sale and
// records the matching sale movement log. It must run inside the sale's
// transaction; the caller opens the transaction and this method reuses it
// from context. The quantity check is made against the freshly read entry,
// never against UI state.
func (s *Service) DebitForSale(ctx context.Context, branchID id.ID, debit SaleDebit, performedBy string) error {
	if !debit.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive")
	}

	entry, err := s.repo.GetBranchStock(ctx, branchID, debit.ProductID)
	if err != nil {
		return fmt.Errorf("read branch stock: %w", err)
	}
	if debit.Quantity > entry.Quantity {
		return apperror.NewInsufficientStock(debit.ProductID.String(), debit.Quantity.Int64(), entry.Quantity.Int64())
	}
	if err := s.writeQuantity(ctx, branchID, debit.ProductID, entry.Quantity-debit.Quantity); err != nil {
		return err
	}

	return s.repo.InsertLog(ctx, StockLog{
		ID:              id.New(),
		BranchID:        branchID,
		Type:            LogTypeSale,
		ProductID:       debit.ProductID,
		Quantity:        debit.Quantity,
		ItemParticulars: debit.ItemParticulars,
		PerformedBy:     performedBy,
		CreatedAt:       time.Now().UTC(),
	})
}

// writeQuantity persists the derived quantity, deleting the entry at zero.
func (s *Service) writeQuantity(ctx context.Context, branchID, productID id.ID, quantity types.Quantity) error {
	if quantity.IsNegative() {
		return apperror.NewInconsistentStock(
			fmt.Sprintf("branch stock for product %s would go negative", productID))
	}
	if quantity.IsZero() {
		if err := s.repo.DeleteBranchStock(ctx, branchID, productID); err != nil {
			return fmt.Errorf("delete exhausted entry: %w", err)
		}
		return nil
	}
	err := s.repo.UpsertBranchStock(ctx, BranchStock{
		BranchID:  branchID,
		ProductID: productID,
		Quantity:  quantity,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("write branch stock: %w", err)
	}
	return nil
}

// AddBatch registers a new batch in the central stock pool.
func (s *Service) AddBatch(ctx context.Context, productID id.ID, quantity types.Quantity, batchCode string, expiry time.Time) (StockBatch, error) {
	if !quantity.IsPositive() {
		return StockBatch{}, apperror.NewValidation("quantity must be positive")
	}
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return StockBatch{}, err
	}
	if batchCode == "" {
		batchCode = time.Now().UTC().Format("SB20060102150405")
	}

	batch := StockBatch{
		ID:           id.New(),
		ProductID:    productID,
		BatchCode:    batchCode,
		OriginalQty:  quantity,
		RemainingQty: quantity,
		ExpiryDate:   expiry,
		AddedAt:      time.Now().UTC(),
	}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.InsertBatch(ctx, batch)
	})
	if err != nil {
		return StockBatch{}, err
	}

	logger.Info(ctx, "stock batch added", "batch_id", batch.ID, "product_id", productID, "quantity", quantity)
	return batch, nil
}

// DeleteBatch removes an untouched batch. A batch that has been allocated
// from (remaining < original) is in use and is kept for audit.
func (s *Service) DeleteBatch(ctx context.Context, batchID id.ID) error {
	return s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		batch, err := s.repo.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.RemainingQty != batch.OriginalQty {
			return apperror.NewBatchInUse(batchID.String())
		}
		return s.repo.DeleteBatch(ctx, batchID)
	})
}

// BranchStock returns all in-stock entries for a branch.
func (s *Service) BranchStock(ctx context.Context, branchID id.ID) ([]BranchStock, error) {
	return s.repo.ListBranchStock(ctx, branchID)
}

// Batches returns central pool batches, optionally filtered by product.
func (s *Service) Batches(ctx context.Context, productID *id.ID) ([]StockBatch, error) {
	return s.repo.ListBatches(ctx, productID)
}

// MovementHistory returns movement log entries for a branch.
func (s *Service) MovementHistory(ctx context.Context, branchID id.ID, filter LogFilter) ([]StockLog, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.ListLogs(ctx, branchID, filter)
}
