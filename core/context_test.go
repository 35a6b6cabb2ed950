package core

import (
	"context"
	"sync"
	"testing"

	"github.com/huangsam/boardline/internal/iocache"
	"github.com/stretchr/testify/assert"
)

func TestRunIDContext(t *testing.T) {
	_, ok := getRunID(context.Background())
	assert.False(t, ok)

	_, ok = getRunID(withRunID(context.Background(), 0))
	assert.False(t, ok, "zero is not a valid run id")

	id, ok := getRunID(withRunID(context.Background(), 42))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestStoreManagerContext(t *testing.T) {
	assert.Nil(t, storeManagerFromContext(context.Background()))

	mgr := &iocache.MockStoreManager{}
	assert.Same(t, mgr, storeManagerFromContext(withStoreManager(context.Background(), mgr)))
}

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	mgr := &iocache.MockStoreManager{}
	ctx := withStoreManager(withRunID(context.Background(), 12345), mgr)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id, ok := getRunID(ctx)
			assert.True(t, ok, "goroutine %d", n)
			assert.Equal(t, int64(12345), id, "goroutine %d", n)
			assert.Same(t, mgr, storeManagerFromContext(ctx), "goroutine %d", n)
		}(i)
	}
	wg.Wait()
}
