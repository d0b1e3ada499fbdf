package public

import (
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
)

type input struct {
	TxID        string `json:"tx_id"`
	OutputIndex int    `json:"output_index"`
	Signature   string `json:"signature"`
}

type output struct {
	Amount    uint64 `json:"amount"`
	Kind      string `json:"kind"`
	Recipient string `json:"recipient"`
	Name      string `json:"name"`
}

type tx struct {
	ID      string   `json:"tx_id"`
	Inputs  []input  `json:"inputs"`
	Outputs []output `json:"outputs"`
}

type block struct {
	Number        int    `json:"number"`
	Hash          string `json:"hash"`
	PrevBlockHash string `json:"prev_block_hash"`
	TimeStamp     uint64 `json:"timestamp"`
	Nonce         uint64 `json:"nonce"`
	Difficulty    uint16 `json:"difficulty"`
	MerkleRoot    string `json:"merkle_root"`
	Trans         []tx   `json:"trans"`
}

type utxo struct {
	Key string `json:"key"`
	output
}

type utxoSet struct {
	LatestBlock string `json:"latest_block"`
	Total       uint64 `json:"total"`
	UTXOs       []utxo `json:"utxos"`
}

// =============================================================================

func toOutput(ns *nameservice.NameService, out database.TxOutput) output {
	return output{
		Amount:    out.Amount,
		Kind:      out.Recipient.Kind().String(),
		Recipient: out.Recipient.String(),
		Name:      ns.Lookup(out.Recipient),
	}
}

func toTx(ns *nameservice.NameService, dbTx database.Tx) tx {
	ins := make([]input, len(dbTx.Inputs))
	for i, in := range dbTx.Inputs {
		ins[i] = input{TxID: in.TxID, OutputIndex: in.OutputIndex, Signature: in.Signature}
	}

	outs := make([]output, len(dbTx.Outputs))
	for i, out := range dbTx.Outputs {
		outs[i] = toOutput(ns, out)
	}

	return tx{ID: dbTx.ID, Inputs: ins, Outputs: outs}
}

func toBlock(ns *nameservice.NameService, number int, dbBlock database.Block) block {
	dbTrans := dbBlock.Transactions()

	trans := make([]tx, len(dbTrans))
	for i, dbTx := range dbTrans {
		trans[i] = toTx(ns, dbTx)
	}

	return block{
		Number:        number,
		Hash:          dbBlock.Hash,
		PrevBlockHash: dbBlock.Header.PrevBlockHash,
		TimeStamp:     dbBlock.Header.TimeStamp,
		Nonce:         dbBlock.Header.Nonce,
		Difficulty:    dbBlock.Header.Difficulty,
		MerkleRoot:    dbBlock.Header.MerkleRoot,
		Trans:         trans,
	}
}
