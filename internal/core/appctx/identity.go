// Package appctx provides request-scoped values extraction.
package appctx

import (
	"context"

	"retailops/internal/core/id"
)

// Roles recognised by the portal.
const (
	RoleWorker     = "worker"
	RoleManager    = "branch-manager"
	RoleSuperAdmin = "superadmin"
)

// Identity is the authenticated caller: a worker with a branch scope.
// It is installed by the auth middleware and passed explicitly into ledger
// operations; core logic never reads ambient globals.
type Identity struct {
	WorkerID id.ID
	FullName string
	BranchID id.ID
	Role     string
}

// IsSuperAdmin reports whether the caller may operate across branches.
func (i *Identity) IsSuperAdmin() bool {
	return i.Role == RoleSuperAdmin
}

// CanAccessBranch reports whether the caller may act on the given branch.
func (i *Identity) CanAccessBranch(branchID id.ID) bool {
	return i.IsSuperAdmin() || i.BranchID == branchID
}

type identityKey struct{}

// WithIdentity adds the caller identity to the context.
func WithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

// GetIdentity returns the caller identity from the context, or nil.
func GetIdentity(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return v
	}
	return nil
}

// PerformedBy returns the caller's full name for audit fields, or "" when
// no identity is present.
func PerformedBy(ctx context.Context) string {
	if ident := GetIdentity(ctx); ident != nil {
		return ident.FullName
	}
	return ""
}

type traceKey struct{}

// TraceInfo carries request correlation ids for logging.
type TraceInfo struct {
	RequestID string
	TraceID   string
}

// WithTrace adds trace info to the context.
func WithTrace(ctx context.Context, t *TraceInfo) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// GetTrace returns trace info from the context, or nil.
func GetTrace(ctx context.Context) *TraceInfo {
	if v, ok := ctx.Value(traceKey{}).(*TraceInfo); ok {
		return v
	}
	return nil
}
