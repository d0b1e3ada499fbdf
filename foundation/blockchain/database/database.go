// Package database handles the ledger of a single node: the ordered chain of
// accepted blocks and the set of unspent transaction outputs derived from it.
package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
)

// Config represents the configuration required to construct a database.
type Config struct {
	Storage   Storage
	Genesis   genesis.Genesis
	Strict    bool
	EvHandler EventHandler

	// CoinbaseLimit caps what a transaction with no inputs may create after
	// genesis when Strict is set. Zero means no cap.
	CoinbaseLimit uint64
}

// Database manages the chain and the UTXO set for one node. The chain and the
// UTXO set only change through CreateGenesisBlock, InstallGenesis and AddBlock.
type Database struct {
	mu sync.RWMutex

	genesis       genesis.Genesis
	strict        bool
	coinbaseLimit uint64
	evHandler     EventHandler
	latestBlock   Block
	utxos         UTXOSet

	storage Storage
}

// New constructs a new database. Any blocks already held by the storage are
// replayed to rebuild the UTXO set.
func New(cfg Config) (*Database, error) {
	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	db := Database{
		genesis:       cfg.Genesis,
		strict:        cfg.Strict,
		coinbaseLimit: cfg.CoinbaseLimit,
		evHandler:     ev,
		utxos:         make(UTXOSet),
		storage:       cfg.Storage,
	}

	iter := db.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if err := db.validateBlock(block); err != nil {
			return nil, fmt.Errorf("replaying block %s: %w", short(block.Hash), err)
		}

		db.utxos.apply(block)
		db.latestBlock = block
	}

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// Reset clears the chain and the UTXO set.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Reset(); err != nil {
		return err
	}

	db.latestBlock = Block{}
	db.utxos = make(UTXOSet)

	return nil
}

// =============================================================================

// CreateGenesisBlock seeds the ledger. A zero input transaction sends the
// genesis seed amount to the genesis sentinel, the block is mined on top of
// the zero hash and appended without a linkage check.
func (db *Database) CreateGenesisBlock() (Block, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.storage.Count() > 0 {
		return Block{}, ErrGenesisExist
	}

	tx := NewTx(nil, []TxOutput{
		{
			Amount:    db.genesis.SeedAmount,
			Recipient: SentinelRecipient(db.genesis.SeedRecipient),
		},
	})

	block := POW(POWArgs{
		PrevBlockHash: signature.ZeroHash,
		Difficulty:    db.genesis.Difficulty,
		Trans:         []Tx{tx},
		EvHandler:     db.evHandler,
	})

	if err := db.commit(block); err != nil {
		return Block{}, err
	}

	db.evHandler("database: CreateGenesisBlock: genesis block created: hash[%s]", block.Hash)

	return block, nil
}

// InstallGenesis admits a genesis block that was mined somewhere else so
// several ledgers can share the same starting point.
func (db *Database) InstallGenesis(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.storage.Count() > 0 {
		return ErrGenesisExist
	}

	if block.Header.PrevBlockHash != signature.ZeroHash {
		return fmt.Errorf("%w: genesis must follow the zero hash, got %s", ErrLinkage, block.Header.PrevBlockHash)
	}

	if !ValidProof(block.Hash, block.Header.Difficulty) {
		return fmt.Errorf("%w: %s", ErrInvalidProof, block.Hash)
	}

	if err := db.commit(block); err != nil {
		return err
	}

	db.evHandler("database: InstallGenesis: genesis block installed: hash[%s]", block.Hash)

	return nil
}

// ValidateBlock takes a block and validates it to be included as the next
// block in the chain.
func (db *Database) ValidateBlock(block Block) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.validateBlock(block)
}

// AddBlock validates the block and on success appends it to the chain and
// updates the UTXO set. On failure nothing changes.
func (db *Database) AddBlock(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.validateBlock(block); err != nil {
		db.evHandler("database: AddBlock: REJECTED: blk[%s]: %s", short(block.Hash), err)
		return err
	}

	if err := db.commit(block); err != nil {
		return err
	}

	db.evHandler("database: AddBlock: ACCEPTED: blk[%s]: height[%d]", short(block.Hash), db.storage.Count())

	return nil
}

// =============================================================================

// Chain returns a copy of the accepted blocks in order.
func (db *Database) Chain() ([]Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var blocks []Block

	iter := db.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

// GetBlock returns the block at the specified position, genesis being 0.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.storage.GetBlock(num)
}

// UTXOSet returns a copy of the current unspent outputs.
func (db *Database) UTXOSet() UTXOSet {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.utxos.Copy()
}

// LatestBlock returns the tip of the chain.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// Height returns the number of blocks in the chain.
func (db *Database) Height() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.storage.Count()
}

// Difficulty returns the difficulty new blocks are mined with.
func (db *Database) Difficulty() uint16 {
	return db.genesis.Difficulty
}

// Genesis returns the genesis settings of the ledger.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// Strict reports whether strict validation is enabled.
func (db *Database) Strict() bool {
	return db.strict
}

// =============================================================================

// validateBlock applies the consensus rules. The caller must hold the lock.
func (db *Database) validateBlock(block Block) error {
	if db.latestBlock.Hash != "" {
		db.evHandler("database: ValidateBlock: validate: blk[%s]: check: parent hash does match parent block", short(block.Hash))

		if block.Header.PrevBlockHash != db.latestBlock.Hash {
			return fmt.Errorf("%w: got %s, exp %s", ErrLinkage, block.Header.PrevBlockHash, db.latestBlock.Hash)
		}
	}

	db.evHandler("database: ValidateBlock: validate: blk[%s]: check: block hash has been solved", short(block.Hash))

	if !ValidProof(block.Hash, block.Header.Difficulty) {
		return fmt.Errorf("%w: %s difficulty %d", ErrInvalidProof, block.Hash, block.Header.Difficulty)
	}

	if db.strict {
		return db.validateStrict(block)
	}

	return nil
}

// commit writes the block and updates the UTXO set as one step. The caller
// must hold the lock and the block must already be valid.
func (db *Database) commit(block Block) error {
	if err := db.storage.Write(block); err != nil {
		return fmt.Errorf("writing block: %w", err)
	}

	db.latestBlock = block
	db.updateUTXOSet(block)

	return nil
}

// updateUTXOSet removes every output spent by the block and adds every output
// the block creates.
func (db *Database) updateUTXOSet(block Block) {
	for _, tx := range block.Transactions() {
		db.evHandler("database: updateUTXOSet: tx[%s]", tx)
	}

	db.utxos.apply(block)
}
