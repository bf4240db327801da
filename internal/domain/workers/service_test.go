package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"retailops/internal/core/apperror"
	"retailops/internal/core/appctx"
	"retailops/internal/core/id"
)

type fakeRepo struct {
	byEmail map[string]Worker
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (Worker, error) {
	worker, ok := r.byEmail[email]
	if !ok {
		return Worker{}, apperror.NewNotFound("worker", email)
	}
	return worker, nil
}

func (r *fakeRepo) GetByID(_ context.Context, workerID id.ID) (Worker, error) {
	for _, worker := range r.byEmail {
		if worker.ID == workerID {
			return worker, nil
		}
	}
	return Worker{}, apperror.NewNotFound("worker", workerID.String())
}

func (r *fakeRepo) Insert(_ context.Context, worker Worker) error {
	r.byEmail[worker.Email] = worker
	return nil
}

func (r *fakeRepo) ListByBranch(_ context.Context, _ id.ID) ([]Worker, error) { return nil, nil }

func newTestService(t *testing.T, password string) (*Service, Worker) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	worker := Worker{
		ID:           id.New(),
		FullName:     "Kwame Mensah",
		Email:        "kwame@example.com",
		PasswordHash: string(hash),
		BranchID:     id.New(),
		Role:         appctx.RoleWorker,
		Active:       true,
	}
	repo := &fakeRepo{byEmail: map[string]Worker{worker.Email: worker}}
	return NewService(repo, NewTokenIssuer("test-secret", time.Hour)), worker
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a verifiable token", func(t *testing.T) {
		svc, worker := newTestService(t, "hunter2secret")

		session, err := svc.Login(ctx, "Kwame@Example.com ", "hunter2secret")
		require.NoError(t, err)
		assert.NotEmpty(t, session.Token)

		identity, err := svc.Verify(session.Token)
		require.NoError(t, err)
		assert.Equal(t, worker.ID, identity.WorkerID)
		assert.Equal(t, worker.BranchID, identity.BranchID)
		assert.Equal(t, appctx.RoleWorker, identity.Role)
		assert.Equal(t, "Kwame Mensah", identity.FullName)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		svc, _ := newTestService(t, "hunter2secret")

		_, errWrong := svc.Login(ctx, "kwame@example.com", "nope")
		_, errUnknown := svc.Login(ctx, "nobody@example.com", "nope")

		assert.True(t, apperror.IsCode(errWrong, apperror.CodeUnauthorized))
		assert.True(t, apperror.IsCode(errUnknown, apperror.CodeUnauthorized))
		appWrong, _ := apperror.AsAppError(errWrong)
		appUnknown, _ := apperror.AsAppError(errUnknown)
		assert.Equal(t, appWrong.Message, appUnknown.Message)
	})

	t.Run("inactive account is rejected", func(t *testing.T) {
		svc, worker := newTestService(t, "hunter2secret")
		worker.Active = false
		require.NoError(t, svc.repo.Insert(ctx, worker))

		_, err := svc.Login(ctx, worker.Email, "hunter2secret")
		assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
	})
}

func TestVerify(t *testing.T) {
	t.Run("rejects a token signed with a different secret", func(t *testing.T) {
		worker := Worker{ID: id.New(), BranchID: id.New(), Role: appctx.RoleWorker}
		token, err := NewTokenIssuer("other-secret", time.Hour).Issue(worker)
		require.NoError(t, err)

		_, err = NewTokenIssuer("test-secret", time.Hour).Verify(token)
		assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		worker := Worker{ID: id.New(), BranchID: id.New(), Role: appctx.RoleWorker}
		issuer := NewTokenIssuer("test-secret", -time.Minute)
		token, err := issuer.Issue(worker)
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
	})
}

func TestRegister(t *testing.T) {
	svc, admin := newTestService(t, "hunter2secret")
	admin.Role = appctx.RoleSuperAdmin
	adminCtx := appctx.WithIdentity(context.Background(), &appctx.Identity{
		WorkerID: admin.ID,
		BranchID: admin.BranchID,
		Role:     appctx.RoleSuperAdmin,
	})

	t.Run("superadmin registers a worker", func(t *testing.T) {
		worker, err := svc.Register(adminCtx, "Ama Serwaa", "AMA@example.com", "longenough", id.New(), appctx.RoleManager)
		require.NoError(t, err)
		assert.Equal(t, "ama@example.com", worker.Email)
		assert.NotEqual(t, "longenough", worker.PasswordHash)
		assert.True(t, worker.Active)
	})

	t.Run("non-admin is refused", func(t *testing.T) {
		workerCtx := appctx.WithIdentity(context.Background(), &appctx.Identity{Role: appctx.RoleWorker})
		_, err := svc.Register(workerCtx, "X", "x@example.com", "longenough", id.New(), appctx.RoleWorker)
		assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
	})

	t.Run("short password is refused", func(t *testing.T) {
		_, err := svc.Register(adminCtx, "X", "x@example.com", "short", id.New(), appctx.RoleWorker)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})
}
