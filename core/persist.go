package core

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/huangsam/boardline/internal/contract"
)

// saveTimeout bounds a single background write.
const saveTimeout = 10 * time.Second

// saveFunc writes one snapshot to the store.
type saveFunc func(ctx context.Context) error

// saver runs fire-and-forget writes in the background.
// Writes for the same key are coalesced so only the newest snapshot is written,
// and writes never overlap, so an older snapshot cannot land after a newer one.
type saver struct {
	debounced func(func())

	mu      sync.Mutex
	pending map[string]saveFunc
	order   []string

	writeMu sync.Mutex
}

func newSaver(wait time.Duration) *saver {
	return &saver{
		debounced: debounce.New(wait),
		pending:   make(map[string]saveFunc),
	}
}

// schedule queues fn as the newest write for key.
func (s *saver) schedule(key string, fn saveFunc) {
	s.mu.Lock()
	if _, queued := s.pending[key]; !queued {
		s.order = append(s.order, key)
	}
	s.pending[key] = fn
	s.mu.Unlock()
	s.debounced(s.flush)
}

// flush writes everything queued so far. Errors are logged and swallowed.
func (s *saver) flush() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	pending, order := s.pending, s.order
	s.pending, s.order = make(map[string]saveFunc), nil
	s.mu.Unlock()

	for _, key := range order {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if err := pending[key](ctx); err != nil {
			contract.LogWarn("Failed to save "+key, err)
		}
		cancel()
	}
}

// Flush synchronously writes anything still queued.
func (s *saver) Flush() {
	s.flush()
}
