package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/utxoledger/app/services/node/handlers"
	"github.com/ardanlabs/utxoledger/business/sim"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/node"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/utxoledger/foundation/events"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type setup struct {
	public  http.Handler
	debug   http.Handler
	network *sim.Network
	alice   *wallet.Wallet
	bob     *wallet.Wallet
}

func newSetup(t *testing.T) setup {
	g := genesis.Default()
	g.Difficulty = 2

	registry := prometheus.NewRegistry()

	network, err := sim.Build(sim.Config{
		Size:     2,
		Topology: sim.Mesh,
		Genesis:  g,
		Metrics:  node.NewMetrics(registry),
	})
	require.NoError(t, err)

	ns, err := nameservice.New("")
	require.NoError(t, err)

	alice, err := wallet.New()
	require.NoError(t, err)
	bob, err := wallet.New()
	require.NoError(t, err)
	ns.Add(alice.Recipient(), "alice")
	ns.Add(bob.Recipient(), "bob")

	_, err = network.RunScenario(alice, bob, 30)
	require.NoError(t, err)

	log := zap.NewNop().Sugar()

	return setup{
		public: handlers.PublicMux(handlers.MuxConfig{
			Shutdown: make(chan os.Signal, 1),
			Log:      log,
			Network:  network,
			NS:       ns,
			Evts:     events.New(),
			Registry: registry,
		}),
		debug:   handlers.DebugMux("test", log, network, registry),
		network: network,
		alice:   alice,
		bob:     bob,
	}
}

func get(t *testing.T, h http.Handler, path string, v any) int {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	if v != nil && w.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(w.Body).Decode(v))
	}

	return w.Code
}

func post(t *testing.T, h http.Handler, path string, body string, v any) int {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, r)

	if v != nil {
		require.NoError(t, json.NewDecoder(w.Body).Decode(v))
	}

	return w.Code
}

func TestSubmitTransaction(t *testing.T) {
	s := newSetup(t)

	t.Run("field-errors", func(t *testing.T) {
		body := `{"inputs":[],"outputs":[{"amount":0,"recipient":{"kind":"sentinel","value":"x"}}]}`

		var resp struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		require.Equal(t, http.StatusBadRequest, post(t, s.public, "/v1/tx/submit", body, &resp))
		assert.Equal(t, "data validation error", resp.Error)
		assert.Contains(t, resp.Fields, "tx_id")
		assert.Contains(t, resp.Fields, "amount")
	})

	t.Run("bad-json", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, post(t, s.public, "/v1/tx/submit", `{"inputs":`, nil))
	})

	tx, err := s.alice.CreateTransaction(s.network.Nodes[0].DB().UTXOSet(), []database.TxOutput{
		{Amount: 5, Recipient: s.bob.Recipient()},
	})
	require.NoError(t, err)

	t.Run("id-mismatch", func(t *testing.T) {
		bad := tx
		bad.ID = strings.Repeat("1", 64)

		data, err := json.Marshal(bad)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, post(t, s.public, "/v1/tx/submit", string(data), nil))
	})

	data, err := json.Marshal(tx)
	require.NoError(t, err)

	t.Run("accepted", func(t *testing.T) {
		var resp struct {
			TxID string `json:"tx_id"`
		}
		require.Equal(t, http.StatusOK, post(t, s.public, "/v1/tx/submit/node1", string(data), &resp))
		assert.Equal(t, tx.ID, resp.TxID)

		for _, n := range s.network.Nodes {
			assert.True(t, n.Mempool().Exists(tx.ID), n.ID())
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		assert.Equal(t, http.StatusConflict, post(t, s.public, "/v1/tx/submit", string(data), nil))
	})

	t.Run("unknown-node", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, post(t, s.public, "/v1/tx/submit/node9", string(data), nil))
	})
}

func TestPublic(t *testing.T) {
	s := newSetup(t)

	t.Run("nodes", func(t *testing.T) {
		var nodes []struct {
			ID                string   `json:"id"`
			LatestBlockNumber uint64   `json:"latest_block_number"`
			KnownPeers        []string `json:"known_peers"`
		}
		require.Equal(t, http.StatusOK, get(t, s.public, "/v1/nodes", &nodes))
		require.Len(t, nodes, 2)
		assert.Equal(t, "node0", nodes[0].ID)
		assert.EqualValues(t, 3, nodes[0].LatestBlockNumber)
		assert.Equal(t, []string{"node1"}, nodes[0].KnownPeers)
	})

	t.Run("chain", func(t *testing.T) {
		var blocks []struct {
			Number int    `json:"number"`
			Hash   string `json:"hash"`
			Trans  []struct {
				ID string `json:"tx_id"`
			} `json:"trans"`
		}
		require.Equal(t, http.StatusOK, get(t, s.public, "/v1/chain/node1", &blocks))
		require.Len(t, blocks, 3)
		assert.Equal(t, 2, blocks[2].Number)
		assert.Len(t, blocks[2].Trans, 1)
	})

	t.Run("utxos", func(t *testing.T) {
		var set struct {
			Total uint64 `json:"total"`
			UTXOs []struct {
				Key    string `json:"key"`
				Amount uint64 `json:"amount"`
				Name   string `json:"name"`
			} `json:"utxos"`
		}
		require.Equal(t, http.StatusOK, get(t, s.public, "/v1/utxos", &set))
		assert.EqualValues(t, 50, set.Total)
		require.Len(t, set.UTXOs, 2)

		names := map[string]uint64{}
		for _, u := range set.UTXOs {
			names[u.Name] = u.Amount
		}
		assert.Equal(t, map[string]uint64{"alice": 20, "bob": 30}, names)
	})

	t.Run("mempool", func(t *testing.T) {
		var trans []any
		require.Equal(t, http.StatusOK, get(t, s.public, "/v1/mempool", &trans))
		assert.Empty(t, trans)
	})

	t.Run("unknown-node", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(t, s.public, "/v1/chain/node9", nil))
	})
}

func TestDebug(t *testing.T) {
	s := newSetup(t)

	assert.Equal(t, http.StatusOK, get(t, s.debug, "/debug/readiness", nil))
	assert.Equal(t, http.StatusOK, get(t, s.debug, "/debug/liveness", nil))

	w := httptest.NewRecorder()
	s.debug.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "ledger_node_chain_height"))
}
