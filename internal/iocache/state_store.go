package iocache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
)

// stateVersion is bumped whenever the JSON shape of a stored value changes.
// Entries written with another version read back as the empty default.
const stateVersion = 1

// Key prefixes inside the board state table.
const (
	hiddenKeyPrefix = "hidden:"
	deltasKeyPrefix = "deltas:"
)

// StateStore keeps per-board hidden sets and delta records in a KVStore.
type StateStore struct {
	kv  contract.KVStore
	now func() time.Time
}

var _ contract.BoardStore = &StateStore{} // Compile-time check

// NewStateStore wraps kv as a BoardStore.
func NewStateStore(kv contract.KVStore) *StateStore {
	return &StateStore{kv: kv, now: time.Now}
}

// LoadHidden returns the hidden item ids of a board, or nil when none were saved.
func (s *StateStore) LoadHidden(ctx context.Context, boardID string) ([]string, error) {
	var ids []string
	found, err := s.load(ctx, hiddenKeyPrefix+boardID, &ids)
	if err != nil || !found {
		return nil, err
	}
	return ids, nil
}

// SaveHidden replaces the hidden item ids of a board.
func (s *StateStore) SaveHidden(ctx context.Context, boardID string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return s.save(ctx, hiddenKeyPrefix+boardID, ids)
}

// LoadDeltas returns the delta record of a board, or an empty record when none was saved.
func (s *StateStore) LoadDeltas(ctx context.Context, boardID string) (schema.DeltaRecord, error) {
	var record schema.DeltaRecord
	found, err := s.load(ctx, deltasKeyPrefix+boardID, &record)
	if err != nil || !found {
		return schema.DeltaRecord{}, err
	}
	if record.Deltas == nil {
		record.Deltas = map[string]float64{}
	}
	return record, nil
}

// SaveDeltas replaces the delta record of a board.
func (s *StateStore) SaveDeltas(ctx context.Context, boardID string, record schema.DeltaRecord) error {
	return s.save(ctx, deltasKeyPrefix+boardID, record)
}

// ClearBoard removes every stored value of one board.
func (s *StateStore) ClearBoard(ctx context.Context, boardID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, prefix := range []string{hiddenKeyPrefix, deltasKeyPrefix} {
		if err := s.kv.Delete(prefix + boardID); err != nil {
			return fmt.Errorf("failed to clear %s%s: %w", prefix, boardID, err)
		}
	}
	return nil
}

func (s *StateStore) load(ctx context.Context, key string, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	data, version, _, err := s.kv.Get(key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if version != stateVersion {
		contract.LogDebug("Ignoring %s stored with version %d", key, version)
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *StateStore) save(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.kv.Set(key, data, stateVersion, s.now().Unix()); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
