package core

import (
	"context"

	"github.com/huangsam/boardline/internal/contract"
)

// Context keys for layout runs
type contextKey string

const (
	runIDKey        contextKey = "runID"
	storeManagerKey contextKey = "storeManager"
)

// withRunID tags the context with the history run being recorded
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// getRunID returns the history run id from context, if any
func getRunID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(runIDKey).(int64)
	return id, ok && id > 0
}

// withStoreManager makes the store manager available to helpers further down the call chain
func withStoreManager(ctx context.Context, mgr contract.StoreManager) context.Context {
	return context.WithValue(ctx, storeManagerKey, mgr)
}

// storeManagerFromContext returns the store manager from context, or nil
func storeManagerFromContext(ctx context.Context) contract.StoreManager {
	mgr, _ := ctx.Value(storeManagerKey).(contract.StoreManager)
	return mgr
}
