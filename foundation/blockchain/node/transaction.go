package node

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/peer"
)

// ErrDuplicateTx is returned when a submitted transaction was already seen.
var ErrDuplicateTx = errors.New("transaction already seen")

// SubmitTransaction takes a transaction built by a wallet, adds it to the
// local mempool and floods it to the network. On a strict ledger the
// transaction shape is checked first.
func (n *Node) SubmitTransaction(tx database.Tx) error {
	n.evHandler("node: SubmitTransaction: started: node[%s]: tx[%s]", n.id, tx)
	defer n.evHandler("node: SubmitTransaction: completed: node[%s]: tx[%s]", n.id, tx)

	if n.db.Strict() {
		if err := database.ValidateTx(tx); err != nil {
			return err
		}
	}

	if !n.ReceiveMessage(peer.NewTxMessage(tx)) {
		return fmt.Errorf("%w: %s", ErrDuplicateTx, tx.ID)
	}

	return nil
}
