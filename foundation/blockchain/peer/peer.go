// Package peer maintains the peer related information such as the set
// of known peers, their status and the messages they exchange.
package peer

import (
	"sync"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// Kind identifies what a message carries.
type Kind string

// Set of message kinds nodes know how to process.
const (
	KindTransaction Kind = "transaction"
	KindBlock       Kind = "block"
)

// Message is the unit nodes flood to each other. Only the field matching the
// kind is set.
type Message struct {
	Kind  Kind            `json:"kind"`
	Tx    *database.Tx    `json:"tx,omitempty"`
	Block *database.Block `json:"block,omitempty"`
}

// NewTxMessage constructs a message carrying a transaction.
func NewTxMessage(tx database.Tx) Message {
	return Message{Kind: KindTransaction, Tx: &tx}
}

// NewBlockMessage constructs a message carrying a block.
func NewBlockMessage(block database.Block) Message {
	return Message{Kind: KindBlock, Block: &block}
}

// ID returns the identifier used to suppress duplicates: the transaction id
// or the block hash. Unknown kinds or missing payloads return an empty id.
func (m Message) ID() string {
	switch m.Kind {
	case KindTransaction:
		if m.Tx != nil {
			return m.Tx.ID
		}
	case KindBlock:
		if m.Block != nil {
			return m.Block.Hash
		}
	}
	return ""
}

// =============================================================================

// Peer represents any node that can take part in the flood. Accept processes
// the message locally and reports whether it was new and valid, in which case
// the caller is responsible for delivering it to the peer's own peers.
type Peer interface {
	ID() string
	Accept(msg Message) bool
	Peers() []Peer
}

// PeerStatus represents information about the status of any given peer.
type PeerStatus struct {
	ID                string   `json:"id"`
	LatestBlockHash   string   `json:"latest_block_hash"`
	LatestBlockNumber uint64   `json:"latest_block_number"`
	KnownPeers        []string `json:"known_peers"`
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known
// peers. Peers are kept in the order they were added.
type PeerSet struct {
	mu    sync.RWMutex
	peers []Peer
	set   map[string]struct{}
}

// NewPeerSet constructs a new set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[string]struct{}),
	}
}

// Add adds a new peer to the set. It returns false if a peer with the same
// id is already known.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, exists := ps.set[peer.ID()]; exists {
		return false
	}

	ps.set[peer.ID()] = struct{}{}
	ps.peers = append(ps.peers, peer)

	return true
}

// Remove removes a peer from the set.
func (ps *PeerSet) Remove(id string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, exists := ps.set[id]; !exists {
		return
	}
	delete(ps.set, id)

	for i, peer := range ps.peers {
		if peer.ID() == id {
			ps.peers = append(ps.peers[:i:i], ps.peers[i+1:]...)
			break
		}
	}
}

// Len returns the number of known peers.
func (ps *PeerSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.peers)
}

// Copy returns the known peers in the order they were added, leaving out the
// peer with the specified id.
func (ps *PeerSet) Copy(excludeID string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	peers := make([]Peer, 0, len(ps.peers))
	for _, peer := range ps.peers {
		if peer.ID() != excludeID {
			peers = append(peers, peer)
		}
	}

	return peers
}
