package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
)

// VisibilityFilter owns the hidden-item set of one board.
type VisibilityFilter struct {
	mu      sync.RWMutex
	boardID string
	store   contract.BoardStore
	saver   *saver
	hidden  map[string]struct{}
}

// NewVisibilityFilter returns a filter with nothing hidden.
// A nil store keeps the set in memory only.
func NewVisibilityFilter(boardID string, store contract.BoardStore, sv *saver) *VisibilityFilter {
	return &VisibilityFilter{
		boardID: boardID,
		store:   store,
		saver:   sv,
		hidden:  make(map[string]struct{}),
	}
}

// Load adds the persisted hidden ids to the in-memory set.
func (f *VisibilityFilter) Load(ctx context.Context) error {
	if f.store == nil {
		return nil
	}
	ids, err := f.store.LoadHidden(ctx, f.boardID)
	if err != nil {
		return fmt.Errorf("load hidden items for board %s: %w", f.boardID, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.hidden[id] = struct{}{}
	}
	return nil
}

// Hide excludes the items from rendering. It reports whether the set changed.
func (f *VisibilityFilter) Hide(ids ...string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := false
	for _, id := range ids {
		if _, ok := f.hidden[id]; !ok {
			f.hidden[id] = struct{}{}
			changed = true
		}
	}
	if changed {
		f.persistLocked()
	}
	return changed
}

// Unhide restores the items. It reports whether the set changed.
func (f *VisibilityFilter) Unhide(ids ...string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := false
	for _, id := range ids {
		if _, ok := f.hidden[id]; ok {
			delete(f.hidden, id)
			changed = true
		}
	}
	if changed {
		f.persistLocked()
	}
	return changed
}

// UnhideAll restores every hidden item.
func (f *VisibilityFilter) UnhideAll() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.hidden) == 0 {
		return false
	}
	f.hidden = make(map[string]struct{})
	f.persistLocked()
	return true
}

// IsHidden reports whether an item is hidden.
func (f *VisibilityFilter) IsHidden(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.hidden[id]
	return ok
}

// Hidden returns the sorted hidden ids.
func (f *VisibilityFilter) Hidden() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sortedLocked()
}

// Visible returns the items that are not hidden, keeping their order.
func (f *VisibilityFilter) Visible(items []schema.TimelineItem) []schema.TimelineItem {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]schema.TimelineItem, 0, len(items))
	for _, it := range items {
		if _, ok := f.hidden[it.ID]; !ok {
			out = append(out, it)
		}
	}
	return out
}

// Flush writes any pending save synchronously.
func (f *VisibilityFilter) Flush() {
	if f.saver != nil {
		f.saver.Flush()
	}
}

func (f *VisibilityFilter) sortedLocked() []string {
	ids := make([]string, 0, len(f.hidden))
	for id := range f.hidden {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (f *VisibilityFilter) persistLocked() {
	if f.store == nil || f.saver == nil {
		return
	}
	ids := f.sortedLocked()
	boardID, store := f.boardID, f.store
	f.saver.schedule("hidden:"+boardID, func(ctx context.Context) error {
		return store.SaveHidden(ctx, boardID, ids)
	})
}
