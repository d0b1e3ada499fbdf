package database

import (
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/merkle"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/go-playground/validator/v10"
)

// validate holds the settings and caches for validating transaction shapes.
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateTx checks the shape of a transaction: well formed ids, non negative
// indexes, positive amounts whose total fits in 64 bits, a set recipient for
// every output and an id that matches the content.
func ValidateTx(tx Tx) error {
	if err := validate.Struct(tx); err != nil {
		return fmt.Errorf("%w: tx[%s]: %s", ErrMalformed, short(tx.ID), err)
	}

	for i, out := range tx.Outputs {
		if out.Recipient.IsZero() {
			return fmt.Errorf("%w: tx[%s]: output %d has no recipient", ErrMalformed, short(tx.ID), i)
		}

		// JSON replaces invalid UTF-8 so two different names would share an id.
		if name, ok := out.Recipient.Sentinel(); ok && !utf8.ValidString(name) {
			return fmt.Errorf("%w: tx[%s]: output %d sentinel is not valid UTF-8", ErrMalformed, short(tx.ID), i)
		}
	}

	if _, err := tx.OutputTotal(); err != nil {
		return err
	}

	if tx.ID != tx.ComputeID() {
		return fmt.Errorf("%w: tx[%s]: id does not match content", ErrMalformed, short(tx.ID))
	}

	return nil
}

// =============================================================================

// validateStrict runs the checks the default rules leave out. Transactions
// are checked in block order against a view of the UTXO set so an output
// created earlier in the block can be spent later in the same block.
//
// A transaction with no inputs is exempt from value conservation. Only the
// coinbase limit, when configured, bounds what it creates, so without a limit
// any block may mint. The caller must hold the lock.
func (db *Database) validateStrict(block Block) error {
	db.evHandler("database: validateStrict: validate: blk[%s]: check: block hash and merkle root match content", short(block.Hash))

	if hash := block.ComputeHash(); hash != block.Hash {
		return fmt.Errorf("%w: hash got %s, exp %s", ErrTampered, block.Hash, hash)
	}

	trans := block.Transactions()
	if root := merkle.Root(trans); root != block.Header.MerkleRoot {
		return fmt.Errorf("%w: merkle root got %s, exp %s", ErrTampered, block.Header.MerkleRoot, root)
	}

	db.evHandler("database: validateStrict: validate: blk[%s]: check: block difficulty", short(block.Hash))

	if block.Header.Difficulty < db.genesis.Difficulty {
		return fmt.Errorf("%w: got %d, exp %d", ErrDifficulty, block.Header.Difficulty, db.genesis.Difficulty)
	}

	view := newTxView(db.utxos, db.latestBlock.Hash == "", db.coinbaseLimit)

	for _, tx := range trans {
		db.evHandler("database: validateStrict: validate: blk[%s]: check: tx[%s]", short(block.Hash), tx)

		if err := view.apply(tx); err != nil {
			return err
		}
	}

	return nil
}

// SelectTransactions splits the candidates, in order, into the transactions
// that can share the next block and the ones that would get it rejected. On a
// ledger without strict validation every candidate is selected.
func (db *Database) SelectTransactions(candidates []Tx) (selected []Tx, rejected map[string]error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if !db.strict {
		return candidates, nil
	}

	rejected = make(map[string]error)
	view := newTxView(db.utxos, db.latestBlock.Hash == "", db.coinbaseLimit)

	for _, tx := range candidates {
		if err := view.apply(tx); err != nil {
			db.evHandler("database: SelectTransactions: tx[%s]: rejected: %s", tx, err)
			rejected[tx.ID] = err
			continue
		}
		selected = append(selected, tx)
	}

	return selected, rejected
}

// =============================================================================

// txView is the UTXO set as seen part way through a block.
type txView struct {
	utxos         UTXOSet
	spent         map[UTXOKey]struct{}
	genesis       bool
	coinbaseLimit uint64
}

func newTxView(utxos UTXOSet, genesis bool, coinbaseLimit uint64) *txView {
	return &txView{
		utxos:         utxos.Copy(),
		spent:         make(map[UTXOKey]struct{}),
		genesis:       genesis,
		coinbaseLimit: coinbaseLimit,
	}
}

// apply checks the transaction against the view and, when it passes, spends
// its inputs and adds its outputs. A failed transaction leaves the view as it
// was.
func (v *txView) apply(tx Tx) error {
	if err := ValidateTx(tx); err != nil {
		return err
	}

	outputTotal, err := tx.OutputTotal()
	if err != nil {
		return err
	}

	var inputTotal uint64
	keys := make(map[UTXOKey]struct{}, len(tx.Inputs))

	for _, in := range tx.Inputs {
		key := in.Key()

		if _, exists := v.spent[key]; exists {
			return fmt.Errorf("%w: %s", ErrDoubleSpend, key)
		}
		if _, exists := keys[key]; exists {
			return fmt.Errorf("%w: %s", ErrDoubleSpend, key)
		}

		out, exists := v.utxos[key]
		if !exists {
			return fmt.Errorf("%w: %s", ErrMissingInput, key)
		}

		if err := verifyInput(tx, in, out); err != nil {
			return err
		}

		var ok bool
		if inputTotal, ok = addAmount(inputTotal, out.Amount); !ok {
			return fmt.Errorf("%w: tx[%s]: inputs overflow the total", ErrMalformed, short(tx.ID))
		}
		keys[key] = struct{}{}
	}

	switch {
	case tx.IsCoinbase():
		if !v.genesis && v.coinbaseLimit > 0 && outputTotal > v.coinbaseLimit {
			return fmt.Errorf("%w: tx[%s]: coinbase out %d limit %d", ErrInsufficientValue, short(tx.ID), outputTotal, v.coinbaseLimit)
		}

	case outputTotal > inputTotal:
		return fmt.Errorf("%w: tx[%s]: in %d out %d", ErrInsufficientValue, short(tx.ID), inputTotal, outputTotal)
	}

	for key := range keys {
		delete(v.utxos, key)
		v.spent[key] = struct{}{}
	}
	for i, out := range tx.Outputs {
		v.utxos[UTXOKey{TxID: tx.ID, Index: i}] = out
	}

	return nil
}

// verifyInput checks the input signature against the recipient of the output
// being spent. Outputs held by a sentinel have no key and are not checked.
func verifyInput(tx Tx, in TxInput, out TxOutput) error {
	switch out.Recipient.Kind() {
	case RecipientSentinel:
		return nil

	case RecipientPublicKey:
		key, _ := out.Recipient.PublicKey()
		if err := signature.Verify(tx.ID, in.Signature, key); err != nil {
			return fmt.Errorf("%w: %s: %s", ErrBadSignature, in.Key(), err)
		}
		return nil
	}

	return fmt.Errorf("%w: %s: output has no recipient", ErrBadSignature, in.Key())
}
