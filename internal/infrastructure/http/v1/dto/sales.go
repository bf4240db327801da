package dto

// SaleItemRequest is one requested sale line.
type SaleItemRequest struct {
	ProductID   string `json:"productId" binding:"required,uuid"`
	Quantity    int64  `json:"quantity" binding:"required,gt=0"`
	DiscountPct string `json:"discountPct"`
}

// CreateSaleRequest records a sale. PaidAmount is the immediate deposit of
// a credit sale; cash sales settle in full regardless.
type CreateSaleRequest struct {
	CustomerName       string            `json:"customerName"`
	CustomerPhone      string            `json:"customerPhone"`
	PaymentType        string            `json:"paymentType" binding:"required,oneof=cash credit"`
	Items              []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	OverallDiscountPct string            `json:"overallDiscountPct"`
	PaidAmount         string            `json:"paidAmount"`
}

// PaymentRequest appends a deposit to a sale's payment ledger.
type PaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// SaleListQuery filters branch sales.
type SaleListQuery struct {
	Status string `form:"status"`
	From   string `form:"from"`
	To     string `form:"to"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// ExpenseRequest records a branch expense.
type ExpenseRequest struct {
	Note   string `json:"note" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}
