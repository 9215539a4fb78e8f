package handler

import (
	"context"
	"time"

	"github.com/iliyamo/garbage-collection-service/internal/model"
)

// The store interfaces below describe what handlers need from the
// persistence layer. Both the MySQL repositories and the in-memory
// store satisfy them, so the same handlers serve production traffic
// and tests.

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint64, name, email, role string) error
	Delete(ctx context.Context, id uint64) error
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// RequestStore persists pickup requests and garbage reports together
// with their append-only status history.
type RequestStore interface {
	Create(ctx context.Context, req *model.Request, note string) error
	GetByID(ctx context.Context, id uint64) (*model.Request, error)
	ListByRole(ctx context.Context, role string, callerID uint64) ([]model.Request, error)
	History(ctx context.Context, requestID uint64) ([]model.StatusHistoryEntry, error)
	ApplyTransition(ctx context.Context, id uint64, up model.TransitionUpdate) error
	CountActiveByWorker(ctx context.Context, workerID uint64) (int, error)
	WorkerStats(ctx context.Context, maxTasks int) ([]model.WorkerStats, error)
	DashboardStats(ctx context.Context) (model.DashboardStats, error)
}
