package database

import (
	"crypto/ecdsa"
	"fmt"
	"math"
	"math/bits"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
)

// TxInput references an output of a prior transaction that is being spent.
type TxInput struct {
	TxID        string `json:"tx_id" validate:"required,len=64,hexadecimal"` // Id of the transaction that produced the output.
	OutputIndex int    `json:"output_index" validate:"gte=0"`                // Position of the output in that transaction.
	Signature   string `json:"signature"`                                    // Signature over the spending transaction id.
}

// Key returns the UTXO key this input consumes.
func (in TxInput) Key() UTXOKey {
	return UTXOKey{TxID: in.TxID, Index: in.OutputIndex}
}

// TxOutput is an amount assigned to a recipient.
type TxOutput struct {
	Amount    uint64    `json:"amount" validate:"gt=0"`
	Recipient Recipient `json:"recipient"`
}

// =============================================================================

// Tx is an ordered set of inputs being spent and outputs being created. A
// transaction with no inputs introduces new value and is only expected for
// seeding the ledger.
type Tx struct {
	ID      string     `json:"tx_id" validate:"required,len=64,hexadecimal"`
	Inputs  []TxInput  `json:"inputs" validate:"dive"`
	Outputs []TxOutput `json:"outputs" validate:"required,min=1,dive"`
}

// NewTx constructs a new transaction and derives its id from the inputs and
// outputs. Signatures are not part of the id, they are attached later by
// calling Sign.
func NewTx(inputs []TxInput, outputs []TxOutput) Tx {
	tx := Tx{
		Inputs:  append([]TxInput(nil), inputs...),
		Outputs: append([]TxOutput(nil), outputs...),
	}
	tx.ID = tx.ComputeID()

	return tx
}

// ComputeID returns the digest of the canonical form of the inputs and
// outputs. An input contributes only the output it references, so attaching
// signatures never changes the id.
func (tx Tx) ComputeID() string {
	type inputID struct {
		TxID        string `json:"tx_id"`
		OutputIndex int    `json:"output_index"`
	}

	type outputID struct {
		Amount    uint64 `json:"amount"`
		Recipient string `json:"recipient_pubkey"`
	}

	inputs := make([]inputID, 0, len(tx.Inputs))
	for _, in := range tx.Inputs {
		inputs = append(inputs, inputID{TxID: in.TxID, OutputIndex: in.OutputIndex})
	}

	outputs := make([]outputID, 0, len(tx.Outputs))
	for _, out := range tx.Outputs {
		outputs = append(outputs, outputID{Amount: out.Amount, Recipient: out.Recipient.String()})
	}

	data := struct {
		Inputs  []inputID  `json:"inputs"`
		Outputs []outputID `json:"outputs"`
	}{
		Inputs:  inputs,
		Outputs: outputs,
	}

	return signature.Hash(data)
}

// Sign uses the specified private key to sign the transaction id and returns
// a copy of the transaction with the signature attached to every input.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (Tx, error) {
	sig, err := signature.Sign(tx.ID, privateKey)
	if err != nil {
		return Tx{}, fmt.Errorf("signing tx[%s]: %w", tx.ID, err)
	}

	signed := tx
	signed.Inputs = make([]TxInput, len(tx.Inputs))
	for i, in := range tx.Inputs {
		in.Signature = sig
		signed.Inputs[i] = in
	}

	return signed, nil
}

// IsCoinbase reports whether the transaction spends nothing.
func (tx Tx) IsCoinbase() bool {
	return len(tx.Inputs) == 0
}

// OutputTotal returns the sum of all output amounts. A sum that does not fit
// in 64 bits is reported as malformed.
func (tx Tx) OutputTotal() (uint64, error) {
	var total uint64
	for i, out := range tx.Outputs {
		var ok bool
		if total, ok = addAmount(total, out.Amount); !ok {
			return 0, fmt.Errorf("%w: tx[%s]: output %d overflows the total", ErrMalformed, short(tx.ID), i)
		}
	}
	return total, nil
}

// Hash implements the merkle Hashable interface. The leaf of a transaction
// is its id.
func (tx Tx) Hash() string {
	return tx.ID
}

// Equals implements the merkle Hashable interface.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx.ID == otherTx.ID
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:in[%d]:out[%d]", short(tx.ID), len(tx.Inputs), len(tx.Outputs))
}

// addAmount returns the sum of two amounts and false when it overflows.
func addAmount(total uint64, amount uint64) (uint64, bool) {
	sum, carry := bits.Add64(total, amount, 0)
	return sum, carry == 0
}

// saturate adds the amount, sticking at the largest value on overflow.
func saturate(total uint64, amount uint64) uint64 {
	sum, ok := addAmount(total, amount)
	if !ok {
		return math.MaxUint64
	}
	return sum
}

// short trims a hash for log output.
func short(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
