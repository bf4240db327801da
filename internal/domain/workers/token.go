package workers

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"retailops/internal/core/apperror"
	"retailops/internal/core/appctx"
	"retailops/internal/core/id"
)

// Claims carried in a session token. Subject is the worker id.
type Claims struct {
	FullName string `json:"name"`
	BranchID string `json:"branchId"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for a worker.
func (t *TokenIssuer) Issue(worker Worker) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		FullName: worker.FullName,
		BranchID: worker.BranchID.String(),
		Role:     worker.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   worker.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses a token and reconstructs the caller's identity.
func (t *TokenIssuer) Verify(tokenString string) (appctx.Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return appctx.Identity{}, apperror.NewUnauthorized("invalid or expired token")
	}

	workerID, err := id.Parse(claims.Subject)
	if err != nil {
		return appctx.Identity{}, apperror.NewUnauthorized("malformed token subject")
	}
	branchID, err := id.Parse(claims.BranchID)
	if err != nil {
		return appctx.Identity{}, apperror.NewUnauthorized("malformed token branch")
	}
	return appctx.Identity{
		WorkerID: workerID,
		FullName: claims.FullName,
		BranchID: branchID,
		Role:     claims.Role,
	}, nil
}
