// Package wallet holds a private key and builds signed transactions that
// spend the outputs the key owns.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/bits"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
)

// Set of errors returned when a transaction can't be built.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNothingToClaim    = errors.New("nothing to claim")
	ErrNoOutputs         = errors.New("transaction requires at least one output")
	ErrAmountOverflow    = errors.New("amounts overflow 64 bits")
)

// Wallet represents a key pair that can own and spend outputs.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	recipient  database.Recipient
}

// New generates a wallet with a fresh key.
func New() (*Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	return FromPrivateKey(privateKey), nil
}

// FromPrivateKey constructs a wallet around an existing key.
func FromPrivateKey(privateKey *ecdsa.PrivateKey) *Wallet {
	return &Wallet{
		privateKey: privateKey,
		recipient:  database.PublicKeyToRecipient(privateKey.PublicKey),
	}
}

// Load reads the key from the specified file.
func Load(path string) (*Wallet, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("loading key %q: %w", path, err)
	}

	return FromPrivateKey(privateKey), nil
}

// Save writes the key to the specified file.
func (w *Wallet) Save(path string) error {
	return crypto.SaveECDSA(path, w.privateKey)
}

// PrivateKey returns the key used for signing.
func (w *Wallet) PrivateKey() *ecdsa.PrivateKey {
	return w.privateKey
}

// Recipient returns the recipient outputs must name to be spendable by this
// wallet.
func (w *Wallet) Recipient() database.Recipient {
	return w.recipient
}

// Address returns a short human readable form of the wallet identity.
func (w *Wallet) Address() string {
	return base58.Encode(crypto.PubkeyToAddress(w.privateKey.PublicKey).Bytes())
}

// Balance returns the sum of the outputs this wallet owns.
func (w *Wallet) Balance(utxos database.UTXOSet) uint64 {
	return utxos.Balance(w.recipient)
}

// =============================================================================

// CreateTransaction selects outputs owned by this wallet in key order until
// they cover the requested outputs, adds a change output back to the wallet
// when there is a remainder and signs every input. ErrInsufficientFunds is
// returned when the owned outputs can't cover the amount.
func (w *Wallet) CreateTransaction(utxos database.UTXOSet, outputs []database.TxOutput) (database.Tx, error) {
	if len(outputs) == 0 {
		return database.Tx{}, ErrNoOutputs
	}

	required, err := sum(outputs)
	if err != nil {
		return database.Tx{}, err
	}

	var inputs []database.TxInput
	var change uint64
	needed := required

	for _, utxo := range utxos.Owned(w.recipient) {
		if needed == 0 {
			break
		}

		inputs = append(inputs, database.TxInput{TxID: utxo.Key.TxID, OutputIndex: utxo.Key.Index})

		if utxo.Output.Amount >= needed {
			change = utxo.Output.Amount - needed
			needed = 0
			break
		}
		needed -= utxo.Output.Amount
	}

	if needed > 0 {
		return database.Tx{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, required-needed, required)
	}

	outs := append([]database.TxOutput(nil), outputs...)
	if change > 0 {
		outs = append(outs, database.TxOutput{Amount: change, Recipient: w.recipient})
	}

	return database.NewTx(inputs, outs).Sign(w.privateKey)
}

// Claim builds a transaction moving every output held by the sentinel to
// this wallet. Sentinel outputs carry no key so anyone may claim them.
func (w *Wallet) Claim(utxos database.UTXOSet, sentinel string) (database.Tx, error) {
	owned := utxos.Owned(database.SentinelRecipient(sentinel))
	if len(owned) == 0 {
		return database.Tx{}, fmt.Errorf("%w: %s", ErrNothingToClaim, sentinel)
	}

	var inputs []database.TxInput
	var claimed []database.TxOutput
	for _, utxo := range owned {
		inputs = append(inputs, database.TxInput{TxID: utxo.Key.TxID, OutputIndex: utxo.Key.Index})
		claimed = append(claimed, utxo.Output)
	}

	total, err := sum(claimed)
	if err != nil {
		return database.Tx{}, err
	}

	outputs := []database.TxOutput{{Amount: total, Recipient: w.recipient}}

	return database.NewTx(inputs, outputs).Sign(w.privateKey)
}

// sum adds the output amounts, failing instead of wrapping.
func sum(outputs []database.TxOutput) (uint64, error) {
	var total uint64
	for _, out := range outputs {
		var carry uint64
		total, carry = bits.Add64(total, out.Amount, 0)
		if carry != 0 {
			return 0, ErrAmountOverflow
		}
	}
	return total, nil
}
