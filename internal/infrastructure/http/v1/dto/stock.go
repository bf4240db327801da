package dto

// TransferRequest moves stock between branches.
type TransferRequest struct {
	SourceBranchID string `json:"sourceBranchId" binding:"required,uuid"`
	TargetBranchID string `json:"targetBranchId" binding:"required,uuid"`
	ProductID      string `json:"productId" binding:"required,uuid"`
	Quantity       int64  `json:"quantity" binding:"required,gt=0"`
	Note           string `json:"note"`
}

// AddBatchRequest registers stock in the central pool.
type AddBatchRequest struct {
	ProductID  string `json:"productId" binding:"required,uuid"`
	Quantity   int64  `json:"quantity" binding:"required,gt=0"`
	BatchCode  string `json:"batchCode"`
	ExpiryDate string `json:"expiryDate"`
}

// StockLogQuery filters branch movement history.
type StockLogQuery struct {
	ProductID string `form:"productId"`
	Type      string `form:"type"`
	From      string `form:"from"`
	To        string `form:"to"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

// AllocateRequest moves stock from a central batch to a branch.
type AllocateRequest struct {
	BatchID  string `json:"batchId" binding:"required,uuid"`
	BranchID string `json:"branchId" binding:"required,uuid"`
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
}
