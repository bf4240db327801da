package handlers

import (
	"github.com/gin-gonic/gin"

	"retailops/internal/core/apperror"
	"retailops/internal/core/appctx"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/allocations"
	"retailops/internal/infrastructure/http/v1/dto"
)

// AllocationHandler serves central-pool allocations. All routes are gated
// behind the superadmin role except listing a branch's own allocations.
type AllocationHandler struct {
	BaseHandler
	allocations *allocations.Service
}

func NewAllocationHandler(allocationSvc *allocations.Service) *AllocationHandler {
	return &AllocationHandler{allocations: allocationSvc}
}

// Create allocates stock from a batch to a branch.
func (h *AllocationHandler) Create(c *gin.Context) {
	var req dto.AllocateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	batchID, err := id.Parse(req.BatchID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid batchId"))
		return
	}
	branchID, err := id.Parse(req.BranchID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid branchId"))
		return
	}

	allocation, err := h.allocations.Allocate(c.Request.Context(), allocations.AllocateCommand{
		BatchID:     batchID,
		BranchID:    branchID,
		Quantity:    types.Quantity(req.Quantity),
		AllocatedBy: appctx.PerformedBy(c.Request.Context()),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, allocation.ID.String())
}

// Revert undoes an allocation while its revert window is open.
func (h *AllocationHandler) Revert(c *gin.Context) {
	allocationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.allocations.Revert(c.Request.Context(), allocationID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// List returns allocations. The superadmin sees all branches unless a
// branchId filter is given; everyone else sees their own branch.
func (h *AllocationHandler) List(c *gin.Context) {
	identity, ok := h.Identity(c)
	if !ok {
		return
	}

	var branchID *id.ID
	if identity.IsSuperAdmin() {
		if raw := c.Query("branchId"); raw != "" {
			parsed, err := id.Parse(raw)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid branchId"))
				return
			}
			branchID = &parsed
		}
	} else {
		branchID = &identity.BranchID
	}

	list, err := h.allocations.List(c.Request.Context(), branchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, list)
}
