// Package mempool maintains the transactions a node has accepted but not yet
// included in a block.
package mempool

import (
	"sync"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// Mempool represents a cache of transactions keyed by transaction id. The
// order transactions arrive in is kept so blocks are built first come, first
// served.
type Mempool struct {
	mu    sync.RWMutex
	pool  map[string]database.Tx
	order []string
}

// New constructs a new empty mempool.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]database.Tx),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Exists reports whether a transaction with the specified id is in the pool.
func (mp *Mempool) Exists(txID string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.pool[txID]
	return exists
}

// Upsert adds or replaces a transaction in the mempool. A replaced
// transaction keeps its position.
func (mp *Mempool) Upsert(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[tx.ID]; !exists {
		mp.order = append(mp.order, tx.ID)
	}
	mp.pool[tx.ID] = tx

	return len(mp.pool)
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(txID string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[txID]; !exists {
		return
	}
	delete(mp.pool, txID)

	for i, id := range mp.order {
		if id == txID {
			mp.order = append(mp.order[:i], mp.order[i+1:]...)
			break
		}
	}
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.Tx)
	mp.order = nil
}

// Copy returns every transaction in the pool in arrival order.
func (mp *Mempool) Copy() []database.Tx {
	return mp.PickBest(-1)
}

// PickBest returns up to howMany transactions in arrival order for the next
// block. Any negative value returns them all.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if howMany < 0 || howMany > len(mp.order) {
		howMany = len(mp.order)
	}

	trans := make([]database.Tx, 0, howMany)
	for _, id := range mp.order[:howMany] {
		trans = append(trans, mp.pool[id])
	}

	return trans
}
