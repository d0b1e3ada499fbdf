// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/utxoledger/business/sim"
	"github.com/ardanlabs/utxoledger/business/web/errs"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/node"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/peer"
	"github.com/ardanlabs/utxoledger/foundation/events"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
	"github.com/ardanlabs/utxoledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Network *sim.Network
	NS      *nameservice.NameService
	WS      websocket.Upgrader
	Evts    *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	id, ch := h.Evts.Acquire()
	defer h.Evts.Release(id)

	h.Log.Infow("events", "traceid", web.GetTraceID(ctx), "subscriber", id)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Nodes returns the status of every node in the network.
func (h Handlers) Nodes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	statuses := make([]peer.PeerStatus, len(h.Network.Nodes))
	for i, n := range h.Network.Nodes {
		statuses[i] = n.Status()
	}

	return web.Respond(ctx, w, statuses, http.StatusOK)
}

// Chain returns the blocks held by a node.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	n, err := h.node(r)
	if err != nil {
		return err
	}

	dbBlocks, err := n.DB().Chain()
	if err != nil {
		return err
	}

	blocks := make([]block, len(dbBlocks))
	for i, dbBlock := range dbBlocks {
		blocks[i] = toBlock(h.NS, i, dbBlock)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// UTXOs returns the unspent outputs known to a node.
func (h Handlers) UTXOs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	n, err := h.node(r)
	if err != nil {
		return err
	}

	set := n.DB().UTXOSet()
	list := set.List()

	utxos := make([]utxo, len(list))
	for i, u := range list {
		utxos[i] = utxo{
			Key:    u.Key.String(),
			output: toOutput(h.NS, u.Output),
		}
	}

	resp := utxoSet{
		LatestBlock: n.DB().LatestBlock().Hash,
		Total:       set.Total(),
		UTXOs:       utxos,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the pending transactions of a node.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	n, err := h.node(r)
	if err != nil {
		return err
	}

	pending := n.Mempool().Copy()

	trans := make([]tx, len(pending))
	for i, dbTx := range pending {
		trans[i] = toTx(h.NS, dbTx)
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// SubmitTransaction adds a signed wallet transaction to the mempool of a node
// and floods it to the network.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	n, err := h.node(r)
	if err != nil {
		return err
	}

	var dbTx database.Tx
	if err := web.Decode(r, &dbTx); err != nil {
		if web.IsFieldErrors(err) {
			return err
		}
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if dbTx.ID != dbTx.ComputeID() {
		return errs.NewTrusted(fmt.Errorf("tx id %s does not match content", dbTx.ID), http.StatusBadRequest)
	}

	h.Log.Infow("submit tx", "traceid", v.TraceID, "node", n.ID(), "tx", dbTx)

	if err := n.SubmitTransaction(dbTx); err != nil {
		switch {
		case errors.Is(err, node.ErrDuplicateTx):
			return errs.NewTrusted(err, http.StatusConflict)
		case errors.Is(err, database.ErrMalformed):
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	resp := struct {
		Status string `json:"status"`
		TxID   string `json:"tx_id"`
	}{
		Status: "transaction added to mempool",
		TxID:   dbTx.ID,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// node returns the node named in the route or the first node.
func (h Handlers) node(r *http.Request) (*node.Node, error) {
	id := web.Param(r, "node")
	if id == "" {
		return h.Network.Nodes[0], nil
	}

	n, ok := h.Network.Node(id)
	if !ok {
		return nil, errs.NewTrusted(fmt.Errorf("node %q not found", id), http.StatusNotFound)
	}

	return n, nil
}
