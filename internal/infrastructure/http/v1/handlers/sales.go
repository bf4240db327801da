package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/apperror"
	"retailops/internal/core/appctx"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/sales"
	"retailops/internal/infrastructure/http/v1/dto"
)

// SalesHandler serves sale creation, listing, payments and receipts.
type SalesHandler struct {
	BaseHandler
	sales *sales.Service
}

func NewSalesHandler(salesSvc *sales.Service) *SalesHandler {
	return &SalesHandler{sales: salesSvc}
}

// Create records a new sale against the caller's branch.
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	identity, ok := h.Identity(c)
	if !ok {
		return
	}

	items := make([]sales.CreateItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId"))
			return
		}
		discount, ok := h.ParseMoney(c, "discountPct", item.DiscountPct)
		if !ok {
			return
		}
		items = append(items, sales.CreateItem{
			ProductID:   productID,
			Quantity:    types.Quantity(item.Quantity),
			DiscountPct: discount,
		})
	}
	overallDiscount, ok := h.ParseMoney(c, "overallDiscountPct", req.OverallDiscountPct)
	if !ok {
		return
	}
	paidAmount, ok := h.ParseMoney(c, "paidAmount", req.PaidAmount)
	if !ok {
		return
	}

	sale, err := h.sales.Create(c.Request.Context(), sales.CreateCommand{
		BranchID:           identity.BranchID,
		CustomerName:       req.CustomerName,
		CustomerPhone:      req.CustomerPhone,
		PaymentType:        sales.PaymentType(req.PaymentType),
		Items:              items,
		OverallDiscountPct: overallDiscount,
		PaidAmount:         paidAmount,
		SoldBy:             appctx.PerformedBy(c.Request.Context()),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// List returns sales for the scoped branch.
func (h *SalesHandler) List(c *gin.Context) {
	branchID, ok := h.BranchScope(c)
	if !ok {
		return
	}
	var query dto.SaleListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := sales.SaleFilter{Limit: query.Limit, Offset: query.Offset}
	if query.Status != "" {
		status := sales.Status(query.Status)
		filter.Status = &status
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

	list, err := h.sales.List(c.Request.Context(), branchID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, list)
}

// Get returns one sale with items.
func (h *SalesHandler) Get(c *gin.Context) {
	sale, ok := h.loadScopedSale(c)
	if !ok {
		return
	}
	h.OK(c, sale)
}

// AddPayment appends a deposit to a credit sale.
func (h *SalesHandler) AddPayment(c *gin.Context) {
	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sale, ok := h.loadScopedSale(c)
	if !ok {
		return
	}
	amount, ok := h.ParseMoney(c, "amount", req.Amount)
	if !ok {
		return
	}

	updated, err := h.sales.ApplyPayment(c.Request.Context(), sale.ID, amount, appctx.PerformedBy(c.Request.Context()))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// Payments returns the payment sub-ledger of a sale.
func (h *SalesHandler) Payments(c *gin.Context) {
	sale, ok := h.loadScopedSale(c)
	if !ok {
		return
	}
	payments, err := h.sales.Payments(c.Request.Context(), sale.ID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, payments)
}

// Receipt returns the printable receipt of a sale.
func (h *SalesHandler) Receipt(c *gin.Context) {
	sale, ok := h.loadScopedSale(c)
	if !ok {
		return
	}
	receipt, err := h.sales.GetReceipt(c.Request.Context(), sale.ID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, receipt)
}

// loadScopedSale fetches the sale from the path id and enforces branch
// scoping against the caller.
func (h *SalesHandler) loadScopedSale(c *gin.Context) (sales.Sale, bool) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return sales.Sale{}, false
	}
	identity, ok := h.Identity(c)
	if !ok {
		return sales.Sale{}, false
	}

	sale, err := h.sales.Get(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return sales.Sale{}, false
	}
	if !identity.CanAccessBranch(sale.BranchID) {
		h.Error(c, apperror.NewForbidden("branch access denied"))
		return sales.Sale{}, false
	}
	return sale, true
}
