package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/appctx"
	"retailops/internal/domain/expenses"
	"retailops/internal/infrastructure/http/v1/dto"
)

// ExpenseHandler records and lists branch expenses.
type ExpenseHandler struct {
	BaseHandler
	expenses *expenses.Service
}

func NewExpenseHandler(expenseSvc *expenses.Service) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenseSvc}
}

// Create records an expense against the caller's branch.
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req dto.ExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	identity, ok := h.Identity(c)
	if !ok {
		return
	}
	amount, ok := h.ParseMoney(c, "amount", req.Amount)
	if !ok {
		return
	}

	expense, err := h.expenses.Record(c.Request.Context(), identity.BranchID, req.Note, amount, appctx.PerformedBy(c.Request.Context()))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, expense.ID.String())
}

// List returns expenses for the scoped branch. Without a range it defaults
// to the last 30 days.
func (h *ExpenseHandler) List(c *gin.Context) {
	branchID, ok := h.BranchScope(c)
	if !ok {
		return
	}

	from, ok := h.ParseTime(c, "from", c.Query("from"))
	if !ok {
		return
	}
	to, ok := h.ParseEndTime(c, "to", c.Query("to"))
	if !ok {
		return
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}

	list, err := h.expenses.List(c.Request.Context(), branchID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, list)
}
