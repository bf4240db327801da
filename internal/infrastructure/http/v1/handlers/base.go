// Package handlers implements the v1 HTTP API.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/apperror"
	"retailops/internal/core/appctx"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Created sends 201 response with ID.
func (h *BaseHandler) Created(c *gin.Context, resourceID string) {
	c.JSON(http.StatusCreated, dto.IDResponse{ID: resourceID})
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Identity returns the authenticated caller, failing the request when the
// auth middleware did not run.
func (h *BaseHandler) Identity(c *gin.Context) (*appctx.Identity, bool) {
	identity := appctx.GetIdentity(c.Request.Context())
	if identity == nil {
		h.Error(c, apperror.NewUnauthorized("missing identity"))
		return nil, false
	}
	return identity, true
}

// BranchScope resolves which branch the request operates on. Workers and
// branch managers are pinned to their own branch; the superadmin may select
// any branch via the branchId query parameter and defaults to their own.
func (h *BaseHandler) BranchScope(c *gin.Context) (id.ID, bool) {
	identity, ok := h.Identity(c)
	if !ok {
		return id.Nil(), false
	}

	requested := c.Query("branchId")
	if requested == "" {
		return identity.BranchID, true
	}

	branchID, err := id.Parse(requested)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid branchId"))
		return id.Nil(), false
	}
	if !identity.CanAccessBranch(branchID) {
		h.Error(c, apperror.NewForbidden("branch access denied"))
		return id.Nil(), false
	}
	return branchID, true
}

// ParseID parses a path parameter as a UUID.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(param))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+param))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseMoney parses a decimal amount from its string form. Empty input
// yields zero.
func (h *BaseHandler) ParseMoney(c *gin.Context, field, value string) (types.Money, bool) {
	if value == "" {
		return types.ZeroMoney(), true
	}
	amount, err := types.NewMoneyFromString(value)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+field))
		return types.ZeroMoney(), false
	}
	return amount, true
}

// ParseTime accepts an ISO date or RFC 3339 timestamp. A bare date means
// midnight UTC.
func (h *BaseHandler) ParseTime(c *gin.Context, field, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), true
	}
	h.Error(c, apperror.NewValidation("invalid "+field+", want YYYY-MM-DD or RFC 3339"))
	return time.Time{}, false
}

// ParseEndTime parses the inclusive end of a range. A bare date is advanced
// to the following midnight so the [from, to) filters downstream cover the
// whole end day; a timestamp is taken as the exact cut-off.
func (h *BaseHandler) ParseEndTime(c *gin.Context, field, value string) (time.Time, bool) {
	t, ok := h.ParseTime(c, field, value)
	if !ok || t.IsZero() {
		return t, ok
	}
	if _, err := time.Parse("2006-01-02", value); err == nil {
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}

// ParseRange parses the from/to report range.
func (h *BaseHandler) ParseRange(c *gin.Context, query dto.DateRangeQuery) (from, to time.Time, ok bool) {
	from, ok = h.ParseTime(c, "from", query.From)
	if !ok {
		return
	}
	to, ok = h.ParseEndTime(c, "to", query.To)
	return
}
