package node

import (
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/peer"
)

// delivery is one pending hand off of a message to a peer.
type delivery struct {
	to  peer.Peer
	msg peer.Message
}

// ReceiveMessage processes a message and, when it is new and valid, floods it
// to the node's peers.
func (n *Node) ReceiveMessage(msg peer.Message) bool {
	if !n.Accept(msg) {
		return false
	}

	n.Broadcast(msg)
	return true
}

// Broadcast delivers the message to every peer in the order they were added.
// Every peer that accepts the message has its own peers queued in turn, so the
// flood walks the whole connected network without recursion. It terminates
// because each node accepts a given id at most once.
func (n *Node) Broadcast(msg peer.Message) {
	n.evHandler("node: Broadcast: started: node[%s]: kind[%s]: id[%s]", n.id, msg.Kind, short(msg.ID()))

	var queue []delivery
	for _, p := range n.peers.Copy("") {
		queue = append(queue, delivery{to: p, msg: msg})
	}

	var deliveries int
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		deliveries++

		if !d.to.Accept(d.msg) {
			continue
		}

		for _, p := range d.to.Peers() {
			queue = append(queue, delivery{to: p, msg: d.msg})
		}
	}

	n.evHandler("node: Broadcast: completed: node[%s]: id[%s]: deliveries[%d]", n.id, short(msg.ID()), deliveries)
}

// Accept implements the peer.Peer interface. It processes the message against
// the local state and reports whether the message should travel further.
func (n *Node) Accept(msg peer.Message) bool {
	id := msg.ID()

	switch msg.Kind {
	case peer.KindTransaction, peer.KindBlock:
	default:
		n.evHandler("node: Accept: node[%s]: unknown message kind[%s]: ignored", n.id, msg.Kind)
		n.metrics.message(n.id, msg.Kind, outcomeIgnored)
		return false
	}

	if id == "" {
		n.evHandler("node: Accept: node[%s]: kind[%s]: missing payload: ignored", n.id, msg.Kind)
		n.metrics.message(n.id, msg.Kind, outcomeIgnored)
		return false
	}

	if msg.Kind == peer.KindTransaction && n.db.Strict() {
		if err := database.ValidateTx(*msg.Tx); err != nil {
			n.evHandler("node: Accept: node[%s]: tx[%s]: rejected: %s", n.id, msg.Tx, err)
			n.metrics.message(n.id, msg.Kind, outcomeRejected)
			return false
		}
	}

	if !n.markSeen(id) {
		n.metrics.message(n.id, msg.Kind, outcomeDuplicate)
		return false
	}

	switch msg.Kind {
	case peer.KindTransaction:
		count := n.mempool.Upsert(*msg.Tx)
		n.evHandler("node: Accept: node[%s]: tx[%s]: added to mempool: count[%d]", n.id, msg.Tx, count)
		n.metrics.message(n.id, msg.Kind, outcomeAccepted)
		return true

	default:
		return n.acceptBlock(*msg.Block)
	}
}

// =============================================================================

// short trims an id for log output.
func short(id string) string {
	if len(id) > 16 {
		return id[:16]
	}
	return id
}
