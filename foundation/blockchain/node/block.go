package node

import (
	"errors"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/peer"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are no transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// MineNewBlock bundles the pending transactions into a block on top of the
// local tip, solves the proof of work, adds the block to the local ledger and
// floods it to the network. On a strict ledger, pending transactions that
// would get the block rejected are evicted from the mempool instead.
func (n *Node) MineNewBlock() (database.Block, error) {
	n.evHandler("node: MineNewBlock: MINING: node[%s]: check mempool count", n.id)

	if n.db.Height() == 0 {
		return database.Block{}, database.ErrNoGenesis
	}

	if n.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	trans, rejected := n.db.SelectTransactions(n.mempool.PickBest(-1))
	for id, err := range rejected {
		n.evHandler("node: MineNewBlock: MINING: node[%s]: tx[%s]: evicted: %s", n.id, short(id), err)
		n.mempool.Delete(id)
	}

	if len(trans) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	n.evHandler("node: MineNewBlock: MINING: node[%s]: perform POW: trans[%d]", n.id, len(trans))

	block := database.POW(database.POWArgs{
		PrevBlockHash: n.db.LatestBlock().Hash,
		Difficulty:    n.db.Difficulty(),
		Trans:         trans,
		EvHandler:     database.EventHandler(n.evHandler),
	})

	n.evHandler("node: MineNewBlock: MINING: node[%s]: validate and update database", n.id)

	if err := n.db.AddBlock(block); err != nil {
		return database.Block{}, err
	}

	n.markSeen(block.Hash)
	n.removeFromMempool(block)
	n.metrics.mined(n.id)
	n.metrics.setHeight(n.id, n.db.Height())

	n.Broadcast(peer.NewBlockMessage(block))

	return block, nil
}

// acceptBlock validates a block received from the network against the local
// ledger and adds it. Invalid blocks are dropped and never forwarded.
func (n *Node) acceptBlock(block database.Block) bool {
	n.evHandler("node: acceptBlock: started: node[%s]: prevBlk[%s]: newBlk[%s]: numTrans[%d]", n.id, short(block.Header.PrevBlockHash), short(block.Hash), len(block.Transactions()))

	if err := n.db.ValidateBlock(block); err != nil {
		n.evHandler("node: acceptBlock: node[%s]: blk[%s]: dropped: %s", n.id, short(block.Hash), err)
		n.metrics.message(n.id, peer.KindBlock, outcomeRejected)
		return false
	}

	if err := n.db.AddBlock(block); err != nil {
		n.evHandler("node: acceptBlock: node[%s]: blk[%s]: dropped: %s", n.id, short(block.Hash), err)
		n.metrics.message(n.id, peer.KindBlock, outcomeRejected)
		return false
	}

	n.removeFromMempool(block)
	n.metrics.message(n.id, peer.KindBlock, outcomeAccepted)
	n.metrics.setHeight(n.id, n.db.Height())

	n.evHandler("node: acceptBlock: completed: node[%s]: blk[%s]: height[%d]", n.id, short(block.Hash), n.db.Height())

	return true
}

// removeFromMempool drops the transactions a block has included.
func (n *Node) removeFromMempool(block database.Block) {
	for _, tx := range block.Transactions() {
		n.mempool.Delete(tx.ID)
	}
}
