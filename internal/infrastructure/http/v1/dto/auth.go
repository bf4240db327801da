package dto

// LoginRequest carries worker credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse returns the session token and the worker's profile.
type LoginResponse struct {
	Token  string        `json:"token"`
	Worker WorkerProfile `json:"worker"`
}

// WorkerProfile is the public view of a worker account.
type WorkerProfile struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	BranchID string `json:"branchId"`
	Role     string `json:"role"`
}

// RegisterWorkerRequest creates a staff account (superadmin only).
type RegisterWorkerRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	BranchID string `json:"branchId" binding:"required,uuid"`
	Role     string `json:"role" binding:"required"`
}
