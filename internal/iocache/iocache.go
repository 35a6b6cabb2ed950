// Package iocache persists board state and layout history in SQL databases.
package iocache

import (
	"sync"

	"github.com/huangsam/boardline/internal/contract"
)

// StoreManager manages the board state and layout history stores.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	kv           contract.KVStore
	state        contract.BoardStore
	history      contract.HistoryStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// GetStateStore returns the board state store, or nil when persistence is off.
func (mgr *StoreManager) GetStateStore() contract.BoardStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.state
}

// GetHistoryStore returns the layout history store, or nil when history is off.
func (mgr *StoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}

// GetKVStore returns the key/value table behind the board state store.
func (mgr *StoreManager) GetKVStore() contract.KVStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.kv
}
