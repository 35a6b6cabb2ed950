package core

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
)

// BoundsFunc returns the drag bounds for a placed item, or false when unknown.
type BoundsFunc func(p schema.Placement) (DragBounds, bool)

// Reconciler owns the vertical deltas of one board.
// All delta mutation goes through it; every mutation persists the whole map.
type Reconciler struct {
	mu      sync.RWMutex
	boardID string
	store   contract.BoardStore
	saver   *saver
	anchor  schema.AnchorPolicy
	deltas  map[string]float64
}

// NewReconciler returns an empty reconciler for deltas computed against anchor.
// A nil store keeps deltas in memory only.
func NewReconciler(boardID string, anchor schema.AnchorPolicy, store contract.BoardStore, sv *saver) *Reconciler {
	return &Reconciler{
		boardID: boardID,
		store:   store,
		saver:   sv,
		anchor:  anchor,
		deltas:  make(map[string]float64),
	}
}

// Load merges the persisted deltas into memory. Deltas committed in this
// session win over loaded ones. A record saved under a different anchor
// policy is discarded. On error the in-memory state is left untouched.
func (r *Reconciler) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	record, err := r.store.LoadDeltas(ctx, r.boardID)
	if err != nil {
		return fmt.Errorf("load deltas for board %s: %w", r.boardID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if record.Anchor != "" && record.Anchor != r.anchor {
		contract.LogDebug("discarding %d deltas saved for anchor %s (current %s)", len(record.Deltas), record.Anchor, r.anchor)
		r.persistLocked()
		return nil
	}
	merged := make(map[string]float64, len(record.Deltas)+len(r.deltas))
	maps.Copy(merged, record.Deltas)
	maps.Copy(merged, r.deltas)
	r.deltas = merged
	return nil
}

// Commit stores the delta for one item and persists the map.
func (r *Reconciler) Commit(itemID string, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas[itemID] = delta
	r.persistLocked()
}

// Forget drops the delta for one item, if any.
func (r *Reconciler) Forget(itemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deltas[itemID]; !ok {
		return
	}
	delete(r.deltas, itemID)
	r.persistLocked()
}

// OnAnchorPolicyChange clears every delta and persists the empty map under the new policy.
func (r *Reconciler) OnAnchorPolicyChange(policy schema.AnchorPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anchor = policy
	r.deltas = make(map[string]float64)
	r.persistLocked()
}

// ApplyDefaultsForOutOfBounds replaces every stored delta that would put its
// item outside the current bounds with a fresh default: a small stagger up for
// even ordinals and down for odd ones, clamped into bounds.
// It returns the ids whose delta was replaced. A second call without changes
// replaces nothing.
func (r *Reconciler) ApplyDefaultsForOutOfBounds(placements []schema.Placement, bounds BoundsFunc, t schema.Tuning) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var replaced []string
	for _, p := range placements {
		delta, ok := r.deltas[p.ItemID]
		if !ok {
			continue
		}
		b, ok := bounds(p)
		if !ok {
			continue
		}
		if b.Contains(p.OffsetPx + delta) {
			continue
		}

		stagger := t.StaggerPx
		if p.Ordinal%2 == 0 {
			stagger = -stagger
		}
		r.deltas[p.ItemID] = b.ClampOffset(p.OffsetPx+stagger) - p.OffsetPx
		replaced = append(replaced, p.ItemID)
	}

	if len(replaced) > 0 {
		contract.LogDebug("reset out-of-bounds deltas: %s", schema.FormatIDs(replaced))
		r.persistLocked()
	}
	return replaced
}

// Delta returns the stored delta for an item.
func (r *Reconciler) Delta(itemID string) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.deltas[itemID]
	return d, ok
}

// Snapshot returns a copy of the delta map.
func (r *Reconciler) Snapshot() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.deltas)
}

// Anchor returns the policy the deltas are relative to.
func (r *Reconciler) Anchor() schema.AnchorPolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.anchor
}

// Flush writes any pending save synchronously.
func (r *Reconciler) Flush() {
	if r.saver != nil {
		r.saver.Flush()
	}
}

func (r *Reconciler) persistLocked() {
	if r.store == nil || r.saver == nil {
		return
	}
	record := schema.DeltaRecord{Anchor: r.anchor, Deltas: maps.Clone(r.deltas)}
	boardID, store := r.boardID, r.store
	r.saver.schedule("deltas:"+boardID, func(ctx context.Context) error {
		return store.SaveDeltas(ctx, boardID, record)
	})
}
