package workers

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"retailops/internal/core/apperror"
	"retailops/internal/core/appctx"
	"retailops/internal/core/id"
	"retailops/pkg/logger"
)

// Service authenticates workers and manages accounts.
type Service struct {
	repo   Repository
	tokens *TokenIssuer
}

func NewService(repo Repository, tokens *TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Session is a successful login result.
type Session struct {
	Token  string `json:"token"`
	Worker Worker `json:"worker"`
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password produce the same error, so the endpoint does not reveal
// which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, apperror.NewValidation("email and password are required")
	}

	worker, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return Session{}, apperror.NewUnauthorized("invalid credentials")
		}
		return Session{}, err
	}
	if !worker.Active {
		return Session{}, apperror.NewUnauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(worker.PasswordHash), []byte(password)); err != nil {
		return Session{}, apperror.NewUnauthorized("invalid credentials")
	}

	token, err := s.tokens.Issue(worker)
	if err != nil {
		return Session{}, apperror.NewInternal(err)
	}

	logger.Info(ctx, "worker logged in", "worker_id", worker.ID, "branch_id", worker.BranchID, "role", worker.Role)
	return Session{Token: token, Worker: worker}, nil
}

// Register creates a worker account. Only the superadmin may call it.
func (s *Service) Register(ctx context.Context, fullName, email, password string, branchID id.ID, role string) (Worker, error) {
	identity := appctx.GetIdentity(ctx)
	if identity == nil || !identity.IsSuperAdmin() {
		return Worker{}, apperror.NewForbidden("only the superadmin can register workers")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return Worker{}, apperror.NewValidation("full name and email are required")
	}
	if len(password) < 8 {
		return Worker{}, apperror.NewValidation("password must be at least 8 characters")
	}
	switch role {
	case appctx.RoleWorker, appctx.RoleManager, appctx.RoleSuperAdmin:
	default:
		return Worker{}, apperror.NewValidation("unknown role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Worker{}, apperror.NewInternal(err)
	}

	worker := Worker{
		ID:           id.New(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
		BranchID:     branchID,
		Role:         role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, worker); err != nil {
		return Worker{}, err
	}

	logger.Info(ctx, "worker registered", "worker_id", worker.ID, "branch_id", branchID, "role", role)
	return worker, nil
}

// Verify resolves a bearer token to an identity.
func (s *Service) Verify(tokenString string) (appctx.Identity, error) {
	return s.tokens.Verify(tokenString)
}
