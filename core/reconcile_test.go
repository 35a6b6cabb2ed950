package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/boardline/internal/iocache"
	"github.com/huangsam/boardline/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReconcilerCommitAndRead(t *testing.T) {
	r := NewReconciler("b1", schema.BelowAnchor, nil, nil)

	r.Commit("a", 12.5)
	d, ok := r.Delta("a")
	assert.True(t, ok)
	assert.Equal(t, 12.5, d)

	snap := r.Snapshot()
	snap["a"] = 99
	d, _ = r.Delta("a")
	assert.Equal(t, 12.5, d, "snapshot is a copy")

	r.Forget("a")
	_, ok = r.Delta("a")
	assert.False(t, ok)
}

func TestReconcilerAnchorChangeClears(t *testing.T) {
	r := NewReconciler("b1", schema.BelowAnchor, nil, nil)
	r.Commit("a", 10)
	r.Commit("b", -20)

	r.OnAnchorPolicyChange(schema.AlternateAnchor)
	assert.Empty(t, r.Snapshot())
	assert.Equal(t, schema.AlternateAnchor, r.Anchor())
}

func TestReconcilerPersistsLatestSnapshot(t *testing.T) {
	store := &iocache.MockBoardStore{}
	store.On("SaveDeltas", mock.Anything, "b1", schema.DeltaRecord{
		Anchor: schema.BelowAnchor,
		Deltas: map[string]float64{"a": 5, "b": 6},
	}).Return(nil).Once()

	r := NewReconciler("b1", schema.BelowAnchor, store, newSaver(time.Hour))
	r.Commit("a", 5)
	r.Commit("b", 6)
	r.Flush()
	r.Flush()

	store.AssertExpectations(t)
	store.AssertNumberOfCalls(t, "SaveDeltas", 1)
}

func TestReconcilerSaveErrorIsSwallowed(t *testing.T) {
	store := &iocache.MockBoardStore{}
	store.On("SaveDeltas", mock.Anything, "b1", mock.Anything).Return(errors.New("disk full"))

	r := NewReconciler("b1", schema.BelowAnchor, store, newSaver(time.Hour))
	r.Commit("a", 5)
	r.Flush()

	d, ok := r.Delta("a")
	assert.True(t, ok)
	assert.Equal(t, 5.0, d, "in-memory state stays authoritative")
}

func TestReconcilerLoad(t *testing.T) {
	t.Run("merges with session commits winning", func(t *testing.T) {
		store := &iocache.MockBoardStore{}
		store.On("LoadDeltas", mock.Anything, "b1").Return(schema.DeltaRecord{
			Anchor: schema.BelowAnchor,
			Deltas: map[string]float64{"a": 1, "c": 3},
		}, nil)
		store.On("SaveDeltas", mock.Anything, "b1", mock.Anything).Return(nil).Maybe()

		r := NewReconciler("b1", schema.BelowAnchor, store, newSaver(time.Hour))
		r.Commit("a", 9)
		require.NoError(t, r.Load(context.Background()))
		assert.Equal(t, map[string]float64{"a": 9, "c": 3}, r.Snapshot())
	})

	t.Run("discards record for another anchor", func(t *testing.T) {
		store := &iocache.MockBoardStore{}
		store.On("LoadDeltas", mock.Anything, "b1").Return(schema.DeltaRecord{
			Anchor: schema.AboveAnchor,
			Deltas: map[string]float64{"a": 1},
		}, nil)
		store.On("SaveDeltas", mock.Anything, "b1", mock.Anything).Return(nil).Maybe()

		r := NewReconciler("b1", schema.BelowAnchor, store, newSaver(time.Hour))
		require.NoError(t, r.Load(context.Background()))
		assert.Empty(t, r.Snapshot())
	})

	t.Run("error leaves state untouched", func(t *testing.T) {
		store := &iocache.MockBoardStore{}
		store.On("LoadDeltas", mock.Anything, "b1").Return(schema.DeltaRecord{}, errors.New("offline"))
		store.On("SaveDeltas", mock.Anything, "b1", mock.Anything).Return(nil).Maybe()

		r := NewReconciler("b1", schema.BelowAnchor, store, newSaver(time.Hour))
		r.Commit("a", 4)
		assert.Error(t, r.Load(context.Background()))
		assert.Equal(t, map[string]float64{"a": 4}, r.Snapshot())
	})

	t.Run("no store is a no-op", func(t *testing.T) {
		r := NewReconciler("b1", schema.BelowAnchor, nil, nil)
		assert.NoError(t, r.Load(context.Background()))
	})
}

func TestApplyDefaultsForOutOfBounds(t *testing.T) {
	r := NewReconciler("b1", schema.BelowAnchor, nil, nil)
	r.Commit("a", 500)
	r.Commit("b", 10)
	r.Commit("c", -500)
	r.Commit("x", 900)

	placements := []schema.Placement{
		{ItemID: "a", Ordinal: 0, Side: schema.SideBelow, OffsetPx: 40},
		{ItemID: "b", Ordinal: 1, Side: schema.SideBelow, OffsetPx: 40},
		{ItemID: "c", Ordinal: 3, Side: schema.SideBelow, OffsetPx: 40},
		{ItemID: "x", Ordinal: 4, Side: schema.SideBelow, OffsetPx: 40},
	}
	bounds := func(p schema.Placement) (DragBounds, bool) {
		if p.ItemID == "x" {
			return DragBounds{}, false
		}
		return DragBounds{MinOffsetPx: -30, MaxOffsetPx: 200}, true
	}
	tuning := schema.DefaultTuning()

	replaced := r.ApplyDefaultsForOutOfBounds(placements, bounds, tuning)
	assert.Equal(t, []string{"a", "c"}, replaced)

	want := map[string]float64{"a": -10, "b": 10, "c": 10, "x": 900}
	assert.Equal(t, want, r.Snapshot())

	// Idempotent: nothing changes on a second pass.
	assert.Empty(t, r.ApplyDefaultsForOutOfBounds(placements, bounds, tuning))
	assert.Equal(t, want, r.Snapshot())
}

func TestApplyDefaultsClampsStaggerIntoBounds(t *testing.T) {
	r := NewReconciler("b1", schema.BelowAnchor, nil, nil)
	r.Commit("a", 300)

	placements := []schema.Placement{{ItemID: "a", Ordinal: 1, Side: schema.SideBelow, OffsetPx: 90}}
	bounds := func(schema.Placement) (DragBounds, bool) {
		return DragBounds{MinOffsetPx: -20, MaxOffsetPx: 95}, true
	}

	r.ApplyDefaultsForOutOfBounds(placements, bounds, schema.DefaultTuning())
	d, _ := r.Delta("a")
	assert.InDelta(t, 5, d, 1e-9)
	assert.Empty(t, r.ApplyDefaultsForOutOfBounds(placements, bounds, schema.DefaultTuning()))
}
