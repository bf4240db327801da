// Package dto defines request and response shapes for the v1 HTTP API.
package dto

// IDResponse returns the id of a created resource.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is a generic acknowledgement.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// DateRangeQuery is the common report range, ISO dates or RFC 3339
// timestamps. A bare-date to includes the whole end day; a timestamp is an
// exact exclusive cut-off.
type DateRangeQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}
