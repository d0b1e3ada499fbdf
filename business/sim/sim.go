// Package sim builds an in-process network of nodes and drives the ledger
// scenario across it.
package sim

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/node"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/storage/memory"
)

// Topology describes how the nodes of a network are linked.
type Topology string

// Set of supported topologies. Links are always made in both directions.
const (
	Mesh Topology = "mesh"
	Line Topology = "line"
	Ring Topology = "ring"
)

// ParseTopology validates a topology name.
func ParseTopology(s string) (Topology, error) {
	switch t := Topology(s); t {
	case Mesh, Line, Ring:
		return t, nil
	}
	return "", fmt.Errorf("unknown topology %q", s)
}

// linked reports whether node i forwards to node j.
func (t Topology) linked(i, j, size int) bool {
	if i == j {
		return false
	}

	switch t {
	case Mesh:
		return true
	case Line:
		return i-j == 1 || j-i == 1
	case Ring:
		return (i+1)%size == j || (j+1)%size == i
	}
	return false
}

// =============================================================================

// Config represents the settings for building a network.
type Config struct {
	Size          int
	Topology      Topology
	Genesis       genesis.Genesis
	Strict        bool
	CoinbaseLimit uint64
	EvHandler     node.EventHandler
	Metrics       *node.Metrics
}

// Network is a set of linked nodes that share one genesis block.
type Network struct {
	Nodes   []*node.Node
	Genesis database.Block
}

// Build constructs the nodes, mines one genesis block on the first ledger and
// installs that same block on every other ledger before linking the nodes.
func Build(cfg Config) (*Network, error) {
	if cfg.Size < 1 {
		return nil, errors.New("network requires at least one node")
	}

	if _, err := ParseTopology(string(cfg.Topology)); err != nil {
		return nil, err
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	var nw Network
	for i := 0; i < cfg.Size; i++ {
		db, err := database.New(database.Config{
			Storage:       memory.New(),
			Genesis:       cfg.Genesis,
			Strict:        cfg.Strict,
			CoinbaseLimit: cfg.CoinbaseLimit,
			EvHandler:     database.EventHandler(ev),
		})
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}

		switch i {
		case 0:
			nw.Genesis, err = db.CreateGenesisBlock()
		default:
			err = db.InstallGenesis(nw.Genesis)
		}
		if err != nil {
			return nil, fmt.Errorf("node %d: genesis: %w", i, err)
		}

		n, err := node.New(node.Config{
			ID:        fmt.Sprintf("node%d", i),
			DB:        db,
			EvHandler: ev,
			Metrics:   cfg.Metrics,
		})
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}

		nw.Nodes = append(nw.Nodes, n)
	}

	for i, from := range nw.Nodes {
		for j, to := range nw.Nodes {
			if cfg.Topology.linked(i, j, cfg.Size) {
				from.AddPeer(to)
			}
		}
	}

	return &nw, nil
}

// Node returns the node with the specified id.
func (nw *Network) Node(id string) (*node.Node, bool) {
	for _, n := range nw.Nodes {
		if n.ID() == id {
			return n, true
		}
	}
	return nil, false
}

// Converged reports whether every node has the same tip.
func (nw *Network) Converged() bool {
	tip := nw.Nodes[0].DB().LatestBlock().Hash
	for _, n := range nw.Nodes[1:] {
		if n.DB().LatestBlock().Hash != tip {
			return false
		}
	}
	return true
}
