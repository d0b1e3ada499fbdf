package node

import (
	"github.com/ardanlabs/utxoledger/foundation/blockchain/peer"
	"github.com/prometheus/client_golang/prometheus"
)

// Set of outcomes recorded for processed messages.
const (
	outcomeAccepted  = "accepted"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeIgnored   = "ignored"
)

// Metrics holds the prometheus collectors shared by every node in a process.
// A nil value records nothing.
type Metrics struct {
	messages *prometheus.CounterVec
	blocks   *prometheus.CounterVec
	height   *prometheus.GaugeVec
}

// NewMetrics constructs the node collectors and registers them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := Metrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_node_messages_total",
			Help: "Number of messages processed by a node by kind and outcome.",
		}, []string{"node", "kind", "outcome"}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_node_blocks_mined_total",
			Help: "Number of blocks mined by a node.",
		}, []string{"node"}),
		height: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ledger_node_chain_height",
			Help: "Number of blocks in the chain of a node.",
		}, []string{"node"}),
	}

	reg.MustRegister(m.messages)
	reg.MustRegister(m.blocks)
	reg.MustRegister(m.height)

	return &m
}

func (m *Metrics) message(node string, kind peer.Kind, outcome string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(node, string(kind), outcome).Inc()
}

func (m *Metrics) mined(node string) {
	if m == nil {
		return
	}
	m.blocks.WithLabelValues(node).Inc()
}

func (m *Metrics) setHeight(node string, height uint64) {
	if m == nil {
		return
	}
	m.height.WithLabelValues(node).Set(float64(height))
}
