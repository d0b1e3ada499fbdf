package sim

import (
	"fmt"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
)

// Report describes the state of the network once a scenario has run.
type Report struct {
	Blocks    []database.Block
	Claim     database.Tx
	Payment   database.Tx
	UTXOs     []database.UTXO
	Total     uint64
	Converged bool
}

// RunScenario has the first node claim the genesis seed for alice, mine it,
// then has alice pay the amount to bob with change back to herself and mines
// that too. Every block is flooded so all nodes end on the same tip.
func (nw *Network) RunScenario(alice *wallet.Wallet, bob *wallet.Wallet, amount uint64) (Report, error) {
	origin := nw.Nodes[0]
	seed := origin.DB().Genesis().SeedRecipient

	claim, err := alice.Claim(origin.DB().UTXOSet(), seed)
	if err != nil {
		return Report{}, fmt.Errorf("claim: %w", err)
	}

	if err := nw.mine(claim); err != nil {
		return Report{}, fmt.Errorf("claim: %w", err)
	}

	payment, err := alice.CreateTransaction(origin.DB().UTXOSet(), []database.TxOutput{
		{Amount: amount, Recipient: bob.Recipient()},
	})
	if err != nil {
		return Report{}, fmt.Errorf("payment: %w", err)
	}

	if err := nw.mine(payment); err != nil {
		return Report{}, fmt.Errorf("payment: %w", err)
	}

	blocks, err := origin.DB().Chain()
	if err != nil {
		return Report{}, err
	}

	utxos := origin.DB().UTXOSet()

	report := Report{
		Blocks:    blocks,
		Claim:     claim,
		Payment:   payment,
		UTXOs:     utxos.List(),
		Total:     utxos.Total(),
		Converged: nw.Converged(),
	}

	return report, nil
}

// mine submits the transaction on the first node and mines it into a block.
func (nw *Network) mine(tx database.Tx) error {
	origin := nw.Nodes[0]

	if err := origin.SubmitTransaction(tx); err != nil {
		return err
	}

	if _, err := origin.MineNewBlock(); err != nil {
		return err
	}

	return nil
}
