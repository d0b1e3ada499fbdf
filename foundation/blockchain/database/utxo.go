package database

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// UTXOKey identifies a spendable output by the id of the transaction that
// produced it and the position of the output in that transaction.
type UTXOKey struct {
	TxID  string
	Index int
}

// String implements the fmt.Stringer interface.
func (k UTXOKey) String() string {
	return k.TxID + ":" + strconv.Itoa(k.Index)
}

// MarshalText implements the encoding.TextMarshaler interface so the key can
// be used in JSON objects.
func (k UTXOKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (k *UTXOKey) UnmarshalText(text []byte) error {
	txID, index, found := strings.Cut(string(text), ":")
	if !found {
		return errors.New("utxo key missing index")
	}

	i, err := strconv.Atoi(index)
	if err != nil {
		return fmt.Errorf("utxo key index: %w", err)
	}

	k.TxID = txID
	k.Index = i
	return nil
}

// =============================================================================

// UTXO pairs an unspent output with its key.
type UTXO struct {
	Key    UTXOKey  `json:"key"`
	Output TxOutput `json:"output"`
}

// UTXOSet maps every unspent output key to its output.
type UTXOSet map[UTXOKey]TxOutput

// Copy returns a copy of the set.
func (us UTXOSet) Copy() UTXOSet {
	cpy := make(UTXOSet, len(us))
	for k, out := range us {
		cpy[k] = out
	}
	return cpy
}

// Total returns the sum of every unspent amount. The sum stops at the
// largest uint64 instead of wrapping.
func (us UTXOSet) Total() uint64 {
	var total uint64
	for _, out := range us {
		total = saturate(total, out.Amount)
	}
	return total
}

// List returns the unspent outputs ordered by transaction id and index.
func (us UTXOSet) List() []UTXO {
	list := make([]UTXO, 0, len(us))
	for k, out := range us {
		list = append(list, UTXO{Key: k, Output: out})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Key.TxID != list[j].Key.TxID {
			return list[i].Key.TxID < list[j].Key.TxID
		}
		return list[i].Key.Index < list[j].Key.Index
	})

	return list
}

// Owned returns the ordered unspent outputs that belong to the recipient.
func (us UTXOSet) Owned(recipient Recipient) []UTXO {
	var owned []UTXO
	for _, utxo := range us.List() {
		if utxo.Output.Recipient.Equal(recipient) {
			owned = append(owned, utxo)
		}
	}
	return owned
}

// Balance returns the sum of the unspent outputs that belong to the recipient.
// Like Total it does not wrap.
func (us UTXOSet) Balance(recipient Recipient) uint64 {
	var total uint64
	for _, utxo := range us.Owned(recipient) {
		total = saturate(total, utxo.Output.Amount)
	}
	return total
}

// apply spends the inputs and creates the outputs of every transaction in
// the block, in order.
func (us UTXOSet) apply(block Block) {
	for _, tx := range block.Transactions() {
		for _, in := range tx.Inputs {
			delete(us, in.Key())
		}

		for i, out := range tx.Outputs {
			us[UTXOKey{TxID: tx.ID, Index: i}] = out
		}
	}
}
