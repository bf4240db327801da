package handlers

import (
	"github.com/gin-gonic/gin"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/domain/workers"
	"retailops/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves login and worker registration.
type AuthHandler struct {
	BaseHandler
	workers *workers.Service
}

func NewAuthHandler(workerSvc *workers.Service) *AuthHandler {
	return &AuthHandler{workers: workerSvc}
}

// Login exchanges credentials for a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.workers.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{
		Token:  session.Token,
		Worker: workerProfile(session.Worker),
	})
}

// Register creates a worker account. Superadmin only (enforced in the
// service as well as by route middleware).
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterWorkerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	branchID, err := id.Parse(req.BranchID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid branchId"))
		return
	}

	worker, err := h.workers.Register(c.Request.Context(), req.FullName, req.Email, req.Password, branchID, req.Role)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, worker.ID.String())
}

func workerProfile(worker workers.Worker) dto.WorkerProfile {
	return dto.WorkerProfile{
		ID:       worker.ID.String(),
		FullName: worker.FullName,
		Email:    worker.Email,
		BranchID: worker.BranchID.String(),
		Role:     worker.Role,
	}
}
