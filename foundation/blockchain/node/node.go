// Package node is the core API for a member of the in-process network. A node
// owns its ledger, its pending transactions and the set of message ids it has
// already processed, and floods what it accepts to its peers.
package node

import (
	"errors"
	"sort"
	"sync"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/peer"
	"github.com/google/uuid"
)

// EventHandler defines a function that is called when events
// occur in the processing of messages and blocks.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start a node.
type Config struct {
	ID        string
	DB        *database.Database
	EvHandler EventHandler
	Metrics   *Metrics
}

// Node manages one ledger and its place in the flood.
type Node struct {
	id        string
	db        *database.Database
	evHandler EventHandler
	metrics   *Metrics

	mempool *mempool.Mempool
	peers   *peer.PeerSet

	mu   sync.Mutex
	seen map[string]struct{}
}

// New constructs a node for the specified ledger. A random id is assigned
// when one is not provided.
func New(cfg Config) (*Node, error) {
	if cfg.DB == nil {
		return nil, errors.New("database is required")
	}

	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	n := Node{
		id:        id,
		db:        cfg.DB,
		evHandler: ev,
		metrics:   cfg.Metrics,
		mempool:   mempool.New(),
		peers:     peer.NewPeerSet(),
		seen:      make(map[string]struct{}),
	}

	n.metrics.setHeight(n.id, n.db.Height())

	return &n, nil
}

// ID returns the identity of the node.
func (n *Node) ID() string {
	return n.id
}

// DB returns the ledger owned by the node.
func (n *Node) DB() *database.Database {
	return n.db
}

// Mempool returns the pending transactions of the node.
func (n *Node) Mempool() *mempool.Mempool {
	return n.mempool
}

// AddPeer adds a peer the node will forward messages to. Peers are delivered
// to in the order they were added.
func (n *Node) AddPeer(p peer.Peer) bool {
	if p.ID() == n.id {
		return false
	}
	return n.peers.Add(p)
}

// Peers implements the peer.Peer interface.
func (n *Node) Peers() []peer.Peer {
	return n.peers.Copy("")
}

// HasSeen reports whether the node already processed the message id.
func (n *Node) HasSeen(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	_, exists := n.seen[id]
	return exists
}

// Seen returns the processed message ids, sorted.
func (n *Node) Seen() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	ids := make([]string, 0, len(n.seen))
	for id := range n.seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// Status returns what the node reports about itself to the outside.
func (n *Node) Status() peer.PeerStatus {
	latest := n.db.LatestBlock()

	var known []string
	for _, p := range n.peers.Copy("") {
		known = append(known, p.ID())
	}

	return peer.PeerStatus{
		ID:                n.id,
		LatestBlockHash:   latest.Hash,
		LatestBlockNumber: n.db.Height(),
		KnownPeers:        known,
	}
}

// =============================================================================

// markSeen records the id and reports whether it was new. The check and the
// insert happen under one lock so each id is processed at most once.
func (n *Node) markSeen(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.seen[id]; exists {
		return false
	}
	n.seen[id] = struct{}{}

	return true
}
