// Package workers holds staff accounts and authentication.
package workers

import (
	"time"

	"retailops/internal/core/id"
)

// Worker is a staff account. Role gates what the portal exposes: workers
// sell, branch managers additionally see branch reports, and the superadmin
// manages the central pool and allocations across branches.
type Worker struct {
	ID           id.ID     `json:"id" db:"id"`
	FullName     string    `json:"fullName" db:"full_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	BranchID     id.ID     `json:"branchId" db:"branch_id"`
	Role         string    `json:"role" db:"role"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
