package handlers

import (
	"github.com/gin-gonic/gin"

	"retailops/internal/domain/reports"
	"retailops/internal/infrastructure/http/v1/dto"
)

// ReportHandler serves stock movement, cash and summary reports.
type ReportHandler struct {
	BaseHandler
	reports *reports.Service
}

func NewReportHandler(reportSvc *reports.Service) *ReportHandler {
	return &ReportHandler{reports: reportSvc}
}

// StockMovement returns the per-product movement report for a range.
func (h *ReportHandler) StockMovement(c *gin.Context) {
	branchID, ok := h.BranchScope(c)
	if !ok {
		return
	}
	var query dto.DateRangeQuery
	if !h.BindQuery(c, &query) {
		return
	}
	from, to, ok := h.ParseRange(c, query)
	if !ok {
		return
	}

	report, err := h.reports.StockMovement(c.Request.Context(), branchID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Cash returns the cash position report for a range.
func (h *ReportHandler) Cash(c *gin.Context) {
	branchID, ok := h.BranchScope(c)
	if !ok {
		return
	}
	var query dto.DateRangeQuery
	if !h.BindQuery(c, &query) {
		return
	}
	from, to, ok := h.ParseRange(c, query)
	if !ok {
		return
	}

	report, err := h.reports.Cash(c.Request.Context(), branchID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Summary returns the dashboard counters for a range.
func (h *ReportHandler) Summary(c *gin.Context) {
	branchID, ok := h.BranchScope(c)
	if !ok {
		return
	}
	var query dto.DateRangeQuery
	if !h.BindQuery(c, &query) {
		return
	}
	from, to, ok := h.ParseRange(c, query)
	if !ok {
		return
	}

	summary, err := h.reports.Summary(c.Request.Context(), branchID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}
