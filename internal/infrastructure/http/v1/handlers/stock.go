package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/apperror"
	"retailops/internal/core/appctx"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/ledger"
	"retailops/internal/infrastructure/http/v1/dto"
)

// StockHandler serves branch stock, transfers, batches and movement logs.
type StockHandler struct {
	BaseHandler
	ledger *ledger.Service
}

func NewStockHandler(ledgerSvc *ledger.Service) *StockHandler {
	return &StockHandler{ledger: ledgerSvc}
}

// List returns in-stock entries for the scoped branch.
func (h *StockHandler) List(c *gin.Context) {
	branchID, ok := h.BranchScope(c)
	if !ok {
		return
	}
	entries, err := h.ledger.BranchStock(c.Request.Context(), branchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entries)
}

// Transfer moves stock from the caller's scoped branch to another branch.
func (h *StockHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	identity, ok := h.Identity(c)
	if !ok {
		return
	}

	sourceID, err := id.Parse(req.SourceBranchID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid sourceBranchId"))
		return
	}
	targetID, err := id.Parse(req.TargetBranchID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid targetBranchId"))
		return
	}
	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId"))
		return
	}
	if !identity.CanAccessBranch(sourceID) {
		h.Error(c, apperror.NewForbidden("cannot transfer out of another branch"))
		return
	}

	err = h.ledger.Transfer(c.Request.Context(), ledger.TransferCommand{
		SourceBranchID: sourceID,
		TargetBranchID: targetID,
		ProductID:      productID,
		Quantity:       types.Quantity(req.Quantity),
		Note:           req.Note,
		PerformedBy:    appctx.PerformedBy(c.Request.Context()),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.SuccessResponse{Success: true, Message: "stock transferred"})
}

// Logs returns movement history for the scoped branch.
func (h *StockHandler) Logs(c *gin.Context) {
	branchID, ok := h.BranchScope(c)
	if !ok {
		return
	}
	var query dto.StockLogQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := ledger.LogFilter{
		Type:   ledger.LogType(query.Type),
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if query.ProductID != "" {
		productID, err := id.Parse(query.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId"))
			return
		}
		filter.ProductID = &productID
	}
	if from, ok := h.ParseTime(c, "from", query.From); !ok {
		return
	} else if !from.IsZero() {
		filter.From = &from
	}
	if to, ok := h.ParseEndTime(c, "to", query.To); !ok {
		return
	} else if !to.IsZero() {
		filter.To = &to
	}

	logs, err := h.ledger.MovementHistory(c.Request.Context(), branchID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, logs)
}

// ListBatches returns central pool batches. Superadmin only.
func (h *StockHandler) ListBatches(c *gin.Context) {
	var productID *id.ID
	if raw := c.Query("productId"); raw != "" {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId"))
			return
		}
		productID = &parsed
	}

	batches, err := h.ledger.Batches(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, batches)
}

// AddBatch registers new stock in the central pool. Superadmin only.
func (h *StockHandler) AddBatch(c *gin.Context) {
	var req dto.AddBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId"))
		return
	}
	var expiry time.Time
	if req.ExpiryDate != "" {
		expiry, err = time.Parse("2006-01-02", req.ExpiryDate)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid expiryDate, want YYYY-MM-DD"))
			return
		}
	}

	batch, err := h.ledger.AddBatch(c.Request.Context(), productID, types.Quantity(req.Quantity), req.BatchCode, expiry)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, batch.ID.String())
}

// DeleteBatch removes an untouched batch. Superadmin only.
func (h *StockHandler) DeleteBatch(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteBatch(c.Request.Context(), batchID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
