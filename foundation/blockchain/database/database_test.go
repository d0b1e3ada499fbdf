package database_test

import (
	"crypto/ecdsa"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/storage/memory"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	keyA = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	keyB = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

func privateKey(t *testing.T, hexKey string) *ecdsa.PrivateKey {
	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load a private key: %s", failed, err)
	}
	return pk
}

func newDB(t *testing.T, strict bool) *database.Database {
	db, err := database.New(database.Config{
		Storage: memory.New(),
		Genesis: genesis.Default(),
		Strict:  strict,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open database: %s", failed, err)
	}

	if _, err := db.CreateGenesisBlock(); err != nil {
		t.Fatalf("\t%s\tShould be able to create the genesis block: %s", failed, err)
	}

	return db
}

func mineOn(db *database.Database, trans ...database.Tx) database.Block {
	return database.POW(database.POWArgs{
		PrevBlockHash: db.LatestBlock().Hash,
		Difficulty:    db.Difficulty(),
		Trans:         trans,
	})
}

func genesisKey(t *testing.T, db *database.Database) database.UTXOKey {
	for key, out := range db.UTXOSet() {
		if name, ok := out.Recipient.Sentinel(); ok && name == genesis.DefaultSeedRecipient {
			return key
		}
	}

	t.Fatalf("\t%s\tShould find the genesis output.", failed)
	return database.UTXOKey{}
}

// =============================================================================

func Test_TxID(t *testing.T) {
	pk := privateKey(t, keyA)
	to := database.PublicKeyToRecipient(pk.PublicKey)

	inputs := []database.TxInput{{TxID: strings.Repeat("a", 64), OutputIndex: 1}}
	outputs := []database.TxOutput{{Amount: 30, Recipient: to}}

	t.Log("Given the need to derive transaction ids.")
	{
		tx1 := database.NewTx(inputs, outputs)
		tx2 := database.NewTx(inputs, outputs)
		if tx1.ID != tx2.ID {
			t.Fatalf("\t%s\tShould get the same id for the same content.", failed)
		}
		t.Logf("\t%s\tShould get the same id for the same content.", success)

		signed, err := tx1.Sign(pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %s", failed, err)
		}
		if signed.Inputs[0].Signature == "" {
			t.Fatalf("\t%s\tShould attach a signature to every input.", failed)
		}
		if tx1.Inputs[0].Signature != "" {
			t.Fatalf("\t%s\tShould not change the original transaction when signing.", failed)
		}
		if signed.ComputeID() != tx1.ID {
			t.Fatalf("\t%s\tShould keep the id stable after signing.", failed)
		}
		t.Logf("\t%s\tShould keep the id stable after signing.", success)

		other := database.NewTx(inputs, []database.TxOutput{{Amount: 31, Recipient: to}})
		if other.ID == tx1.ID {
			t.Fatalf("\t%s\tShould get a different id for different content.", failed)
		}
		t.Logf("\t%s\tShould get a different id for different content.", success)

		coinbase := database.NewTx(nil, []database.TxOutput{{Amount: 50, Recipient: database.SentinelRecipient("genesis")}})
		const exp = `{"inputs":[],"outputs":[{"amount":50,"recipient_pubkey":"genesis"}]}`
		if coinbase.ID != signature.Digest([]byte(exp)) {
			t.Logf("\t%s\tgot: %s", failed, coinbase.ID)
			t.Logf("\t%s\texp: %s", failed, signature.Digest([]byte(exp)))
			t.Fatalf("\t%s\tShould hash the canonical form of the transaction.", failed)
		}
		t.Logf("\t%s\tShould hash the canonical form of the transaction.", success)
	}
}

func Test_ParseRecipient(t *testing.T) {
	pkA := privateKey(t, keyA)
	recA := database.PublicKeyToRecipient(pkA.PublicKey)

	t.Log("Given the need to rebuild recipients from their text.")
	{
		tt := []struct {
			kind  string
			value string
			exp   database.Recipient
			fails bool
		}{
			{kind: "sentinel", value: "genesis", exp: database.SentinelRecipient("genesis")},
			{kind: "pubkey", value: recA.String(), exp: recA},
			{kind: "pubkey", value: "0x" + recA.String(), exp: recA},
			{kind: "pubkey", value: "zz", fails: true},
			{kind: "other", value: "genesis", fails: true},
		}

		for testID, tst := range tt {
			got, err := database.ParseRecipient(tst.kind, tst.value)
			switch {
			case tst.fails:
				if err == nil {
					t.Fatalf("\t%s\tTest %d:\tShould fail to parse %s %q.", failed, testID, tst.kind, tst.value)
				}
			case err != nil || !got.Equal(tst.exp):
				t.Fatalf("\t%s\tTest %d:\tShould parse %s %q: %v", failed, testID, tst.kind, tst.value, err)
			}
			t.Logf("\t%s\tTest %d:\tShould handle %s %q.", success, testID, tst.kind, tst.value)
		}
	}
}

func Test_MerkleRoot(t *testing.T) {
	r := database.SentinelRecipient("genesis")
	tx1 := database.NewTx(nil, []database.TxOutput{{Amount: 1, Recipient: r}})
	tx2 := database.NewTx(nil, []database.TxOutput{{Amount: 2, Recipient: r}})

	t.Log("Given the need to commit to the block transactions.")
	{
		b := database.NewBlock(signature.ZeroHash, []database.Tx{tx1}, 0)
		if b.Header.MerkleRoot != tx1.ID {
			t.Fatalf("\t%s\tShould use the tx id as the root of a single transaction.", failed)
		}
		t.Logf("\t%s\tShould use the tx id as the root of a single transaction.", success)

		b = database.NewBlock(signature.ZeroHash, []database.Tx{tx1, tx2}, 0)
		if b.Header.MerkleRoot != signature.Digest([]byte(tx1.ID+tx2.ID)) {
			t.Fatalf("\t%s\tShould hash the concatenated ids of two transactions.", failed)
		}
		t.Logf("\t%s\tShould hash the concatenated ids of two transactions.", success)

		b = database.NewBlock(signature.ZeroHash, nil, 0)
		if b.Header.MerkleRoot != "" {
			t.Fatalf("\t%s\tShould use the empty root for no transactions.", failed)
		}
		t.Logf("\t%s\tShould use the empty root for no transactions.", success)
	}
}

func Test_ValidProof(t *testing.T) {
	tt := []struct {
		name       string
		hash       string
		difficulty uint16
		exp        bool
	}{
		{"zero-difficulty", "abcd", 0, true},
		{"solved", "0000ab", 4, true},
		{"unsolved", "000ab0", 4, false},
		{"too-short", "000", 4, false},
	}

	for testID, tst := range tt {
		f := func(t *testing.T) {
			if got := database.ValidProof(tst.hash, tst.difficulty); got != tst.exp {
				t.Fatalf("\t%s\tTest %d:\tShould get %t for %s.", failed, testID, tst.exp, tst.hash)
			}
			t.Logf("\t%s\tTest %d:\tShould get %t for %s.", success, testID, tst.exp, tst.hash)
		}

		t.Run(tst.name, f)
	}
}

func Test_Mine(t *testing.T) {
	t.Log("Given the need to mine blocks.")
	{
		b := database.NewBlock(signature.ZeroHash, nil, 3)
		database.Mine(&b, nil)

		if !strings.HasPrefix(b.Hash, "000") {
			t.Fatalf("\t%s\tShould get a hash with the leading zeros: %s", failed, b.Hash)
		}
		if b.Hash != b.ComputeHash() {
			t.Fatalf("\t%s\tShould keep the hash current with the nonce.", failed)
		}
		t.Logf("\t%s\tShould get a hash with the leading zeros: nonce %d", success, b.Header.Nonce)

		nonce := b.Header.Nonce
		database.Mine(&b, nil)
		if b.Header.Nonce != nonce {
			t.Fatalf("\t%s\tShould not move the nonce of a solved block.", failed)
		}
		t.Logf("\t%s\tShould not move the nonce of a solved block.", success)
	}
}

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to bootstrap a ledger.")
	{
		db := newDB(t, false)

		chain, err := db.Chain()
		if err != nil || len(chain) != 1 {
			t.Fatalf("\t%s\tShould have one block in the chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould have one block in the chain.", success)

		if chain[0].Header.PrevBlockHash != signature.ZeroHash {
			t.Fatalf("\t%s\tShould link the genesis block to the zero hash.", failed)
		}
		if !database.ValidProof(chain[0].Hash, genesis.DefaultDifficulty) {
			t.Fatalf("\t%s\tShould have mined the genesis block.", failed)
		}
		t.Logf("\t%s\tShould have mined the genesis block.", success)

		utxos := db.UTXOSet()
		if len(utxos) != 1 || utxos.Total() != genesis.DefaultSeedAmount {
			t.Fatalf("\t%s\tShould seed a single output of %d: %v", failed, genesis.DefaultSeedAmount, utxos)
		}
		if utxos.Balance(database.SentinelRecipient("genesis")) != genesis.DefaultSeedAmount {
			t.Fatalf("\t%s\tShould credit the genesis sentinel.", failed)
		}
		t.Logf("\t%s\tShould seed a single output to the genesis sentinel.", success)

		if _, err := db.CreateGenesisBlock(); !errors.Is(err, database.ErrGenesisExist) {
			t.Fatalf("\t%s\tShould not create a second genesis block: %v", failed, err)
		}
		t.Logf("\t%s\tShould not create a second genesis block.", success)

		other, err := database.New(database.Config{Storage: memory.New(), Genesis: genesis.Default()})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open database: %s", failed, err)
		}
		if err := other.InstallGenesis(chain[0]); err != nil {
			t.Fatalf("\t%s\tShould be able to install a shared genesis block: %s", failed, err)
		}
		if other.LatestBlock().Hash != chain[0].Hash || other.UTXOSet().Total() != genesis.DefaultSeedAmount {
			t.Fatalf("\t%s\tShould get the same state from the shared genesis block.", failed)
		}
		t.Logf("\t%s\tShould be able to install a shared genesis block.", success)
	}
}

func Test_AddBlock(t *testing.T) {
	pkA := privateKey(t, keyA)
	pkB := privateKey(t, keyB)
	recA := database.PublicKeyToRecipient(pkA.PublicKey)
	recB := database.PublicKeyToRecipient(pkB.PublicKey)

	t.Log("Given the need to extend the chain.")
	{
		db := newDB(t, false)
		gKey := genesisKey(t, db)

		claim := database.NewTx(
			[]database.TxInput{{TxID: gKey.TxID, OutputIndex: gKey.Index}},
			[]database.TxOutput{{Amount: 50, Recipient: recA}},
		)

		b1 := mineOn(db, claim)
		if err := db.AddBlock(b1); err != nil {
			t.Fatalf("\t%s\tShould be able to add block 1: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to add block 1.", success)

		utxos := db.UTXOSet()
		if _, exists := utxos[gKey]; exists {
			t.Fatalf("\t%s\tShould remove the spent genesis output.", failed)
		}
		if out, exists := utxos[database.UTXOKey{TxID: claim.ID, Index: 0}]; !exists || !out.Recipient.Equal(recA) {
			t.Fatalf("\t%s\tShould add the claim output.", failed)
		}
		t.Logf("\t%s\tShould spend inputs and create outputs.", success)

		pay, err := database.NewTx(
			[]database.TxInput{{TxID: claim.ID, OutputIndex: 0}},
			[]database.TxOutput{{Amount: 30, Recipient: recB}, {Amount: 20, Recipient: recA}},
		).Sign(pkA)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign: %s", failed, err)
		}

		stale := database.POW(database.POWArgs{
			PrevBlockHash: signature.ZeroHash,
			Difficulty:    db.Difficulty(),
			Trans:         []database.Tx{pay},
		})

		before := db.UTXOSet()
		if err := db.AddBlock(stale); !errors.Is(err, database.ErrLinkage) {
			t.Fatalf("\t%s\tShould reject a block that does not link to the tip: %v", failed, err)
		}
		if db.Height() != 2 || len(db.UTXOSet()) != len(before) {
			t.Fatalf("\t%s\tShould not change the ledger on a rejected block.", failed)
		}
		t.Logf("\t%s\tShould reject a block that does not link to the tip.", success)

		unsolved := mineOn(db, pay)
		unsolved.Hash = "f" + unsolved.Hash[1:]
		if err := db.AddBlock(unsolved); !errors.Is(err, database.ErrInvalidProof) {
			t.Fatalf("\t%s\tShould reject a block with an unsolved hash: %v", failed, err)
		}
		if db.Height() != 2 {
			t.Fatalf("\t%s\tShould not change the ledger on a rejected block.", failed)
		}
		t.Logf("\t%s\tShould reject a block with an unsolved hash.", success)

		b2 := mineOn(db, pay)
		if err := db.AddBlock(b2); err != nil {
			t.Fatalf("\t%s\tShould be able to add block 2: %s", failed, err)
		}

		utxos = db.UTXOSet()
		if len(utxos) != 2 || utxos.Total() != 50 {
			t.Fatalf("\t%s\tShould have two outputs totaling 50: %v", failed, utxos.List())
		}
		if utxos.Balance(recB) != 30 || utxos.Balance(recA) != 20 {
			t.Fatalf("\t%s\tShould have 30 for B and 20 for A.", failed)
		}
		t.Logf("\t%s\tShould have 30 for B and 20 for A.", success)

		chain, _ := db.Chain()
		for i := 1; i < len(chain); i++ {
			if chain[i].Header.PrevBlockHash != chain[i-1].Hash {
				t.Fatalf("\t%s\tShould keep every block linked to its parent.", failed)
			}
		}
		t.Logf("\t%s\tShould keep every block linked to its parent.", success)
	}
}

func Test_DefaultRulesGap(t *testing.T) {
	pkA := privateKey(t, keyA)
	recA := database.PublicKeyToRecipient(pkA.PublicKey)

	t.Log("Given the default rules do not check value or inputs.")
	{
		db := newDB(t, false)

		ghost := database.NewTx(
			[]database.TxInput{{TxID: strings.Repeat("b", 64), OutputIndex: 7}},
			[]database.TxOutput{{Amount: 1_000, Recipient: recA}},
		)

		if err := db.AddBlock(mineOn(db, ghost)); err != nil {
			t.Fatalf("\t%s\tShould accept a block spending an unknown output: %s", failed, err)
		}
		if db.UTXOSet().Balance(recA) != 1_000 {
			t.Fatalf("\t%s\tShould create the outputs anyway.", failed)
		}
		t.Logf("\t%s\tShould accept a block spending an unknown output.", success)

		huge := database.NewTx(nil, []database.TxOutput{
			{Amount: math.MaxUint64, Recipient: recA},
			{Amount: 50, Recipient: recA},
		})
		if err := db.AddBlock(mineOn(db, huge)); err != nil {
			t.Fatalf("\t%s\tShould accept outputs past 64 bits: %s", failed, err)
		}
		if db.UTXOSet().Total() != math.MaxUint64 || db.UTXOSet().Balance(recA) != math.MaxUint64 {
			t.Fatalf("\t%s\tShould stop the totals at the largest value: %d", failed, db.UTXOSet().Total())
		}
		t.Logf("\t%s\tShould stop the totals at the largest value.", success)
	}
}

func Test_Strict(t *testing.T) {
	pkA := privateKey(t, keyA)
	pkB := privateKey(t, keyB)
	recA := database.PublicKeyToRecipient(pkA.PublicKey)
	recB := database.PublicKeyToRecipient(pkB.PublicKey)

	// setup returns a strict ledger where A owns a 50 output.
	setup := func(t *testing.T) (*database.Database, database.Tx) {
		db := newDB(t, true)
		gKey := genesisKey(t, db)

		claim, err := database.NewTx(
			[]database.TxInput{{TxID: gKey.TxID, OutputIndex: gKey.Index}},
			[]database.TxOutput{{Amount: 50, Recipient: recA}},
		).Sign(pkA)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign: %s", failed, err)
		}

		if err := db.AddBlock(mineOn(db, claim)); err != nil {
			t.Fatalf("\t%s\tShould accept the claim in strict mode: %s", failed, err)
		}

		return db, claim
	}

	spend := func(claim database.Tx, amounts ...uint64) database.Tx {
		var outputs []database.TxOutput
		for _, a := range amounts {
			outputs = append(outputs, database.TxOutput{Amount: a, Recipient: recB})
		}
		return database.NewTx([]database.TxInput{{TxID: claim.ID, OutputIndex: 0}}, outputs)
	}

	tt := []struct {
		name  string
		build func(t *testing.T, db *database.Database, claim database.Tx) database.Block
		exp   error
	}{
		{
			name: "valid",
			build: func(t *testing.T, db *database.Database, claim database.Tx) database.Block {
				tx, _ := spend(claim, 30, 20).Sign(pkA)
				return mineOn(db, tx)
			},
			exp: nil,
		},
		{
			name: "missing-input",
			build: func(t *testing.T, db *database.Database, claim database.Tx) database.Block {
				tx := database.NewTx([]database.TxInput{{TxID: strings.Repeat("c", 64)}}, []database.TxOutput{{Amount: 1, Recipient: recB}})
				tx, _ = tx.Sign(pkA)
				return mineOn(db, tx)
			},
			exp: database.ErrMissingInput,
		},
		{
			name: "double-spend",
			build: func(t *testing.T, db *database.Database, claim database.Tx) database.Block {
				tx1, _ := spend(claim, 10).Sign(pkA)
				tx2, _ := spend(claim, 20).Sign(pkA)
				return mineOn(db, tx1, tx2)
			},
			exp: database.ErrDoubleSpend,
		},
		{
			name: "insufficient-value",
			build: func(t *testing.T, db *database.Database, claim database.Tx) database.Block {
				tx, _ := spend(claim, 51).Sign(pkA)
				return mineOn(db, tx)
			},
			exp: database.ErrInsufficientValue,
		},
		{
			name: "bad-signature",
			build: func(t *testing.T, db *database.Database, claim database.Tx) database.Block {
				tx, _ := spend(claim, 50).Sign(pkB)
				return mineOn(db, tx)
			},
			exp: database.ErrBadSignature,
		},
		{
			name: "malformed",
			build: func(t *testing.T, db *database.Database, claim database.Tx) database.Block {
				tx, _ := spend(claim, 0).Sign(pkA)
				return mineOn(db, tx)
			},
			exp: database.ErrMalformed,
		},
		{
			name: "output-overflow",
			build: func(t *testing.T, db *database.Database, claim database.Tx) database.Block {
				tx, _ := spend(claim, math.MaxUint64, 50).Sign(pkA)
				return mineOn(db, tx)
			},
			exp: database.ErrMalformed,
		},
		{
			name: "invalid-utf8-sentinel",
			build: func(t *testing.T, db *database.Database, claim database.Tx) database.Block {
				tx := database.NewTx(
					[]database.TxInput{{TxID: claim.ID, OutputIndex: 0}},
					[]database.TxOutput{{Amount: 50, Recipient: database.SentinelRecipient("burn\xff")}},
				)
				tx, _ = tx.Sign(pkA)
				return mineOn(db, tx)
			},
			exp: database.ErrMalformed,
		},
		{
			name: "same-input-twice",
			build: func(t *testing.T, db *database.Database, claim database.Tx) database.Block {
				in := database.TxInput{TxID: claim.ID, OutputIndex: 0}
				tx := database.NewTx([]database.TxInput{in, in}, []database.TxOutput{{Amount: 100, Recipient: recB}})
				tx, _ = tx.Sign(pkA)
				return mineOn(db, tx)
			},
			exp: database.ErrDoubleSpend,
		},
		{
			name: "tampered",
			build: func(t *testing.T, db *database.Database, claim database.Tx) database.Block {
				tx, _ := spend(claim, 50).Sign(pkA)
				b := mineOn(db, tx)
				b.Header.Nonce++
				return b
			},
			exp: database.ErrTampered,
		},
		{
			name: "low-difficulty",
			build: func(t *testing.T, db *database.Database, claim database.Tx) database.Block {
				tx, _ := spend(claim, 50).Sign(pkA)
				return database.POW(database.POWArgs{
					PrevBlockHash: db.LatestBlock().Hash,
					Difficulty:    1,
					Trans:         []database.Tx{tx},
				})
			},
			exp: database.ErrDifficulty,
		},
	}

	t.Log("Given the need to apply the strict rules.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				db, claim := setup(t)
				before := db.UTXOSet()

				err := db.AddBlock(tst.build(t, db, claim))

				switch tst.exp {
				case nil:
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould accept the block: %s", failed, testID, err)
					}
				default:
					if !errors.Is(err, tst.exp) {
						t.Fatalf("\t%s\tTest %d:\tShould reject with %q, got %v", failed, testID, tst.exp, err)
					}
					if len(db.UTXOSet()) != len(before) || db.Height() != 2 {
						t.Fatalf("\t%s\tTest %d:\tShould not change the ledger.", failed, testID)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould get the expected result: %v", success, testID, err)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_CoinbaseLimit(t *testing.T) {
	t.Log("Given the need to cap what a transaction with no inputs creates.")
	{
		storage := memory.New()
		cfg := database.Config{
			Storage:       storage,
			Genesis:       genesis.Default(),
			Strict:        true,
			CoinbaseLimit: 10,
		}

		db, err := database.New(cfg)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open database: %s", failed, err)
		}
		if _, err := db.CreateGenesisBlock(); err != nil {
			t.Fatalf("\t%s\tShould create a genesis seed above the limit: %s", failed, err)
		}
		t.Logf("\t%s\tShould create a genesis seed above the limit.", success)

		over := database.NewTx(nil, []database.TxOutput{{Amount: 11, Recipient: database.SentinelRecipient("mint")}})
		if err := db.AddBlock(mineOn(db, over)); !errors.Is(err, database.ErrInsufficientValue) {
			t.Fatalf("\t%s\tShould reject a coinbase over the limit, got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a coinbase over the limit.", success)

		under := database.NewTx(nil, []database.TxOutput{{Amount: 10, Recipient: database.SentinelRecipient("mint")}})
		if err := db.AddBlock(mineOn(db, under)); err != nil {
			t.Fatalf("\t%s\tShould accept a coinbase within the limit: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept a coinbase within the limit.", success)

		if _, err := database.New(cfg); err != nil {
			t.Fatalf("\t%s\tShould replay the capped chain: %s", failed, err)
		}
		t.Logf("\t%s\tShould replay the capped chain.", success)
	}
}

func Test_SelectTransactions(t *testing.T) {
	pkA := privateKey(t, keyA)
	recA := database.PublicKeyToRecipient(pkA.PublicKey)

	t.Log("Given the need to pick the transactions that fit the next block.")
	{
		db := newDB(t, true)
		gKey := genesisKey(t, db)

		ghost, _ := database.NewTx(
			[]database.TxInput{{TxID: strings.Repeat("a", 64)}},
			[]database.TxOutput{{Amount: 5, Recipient: recA}},
		).Sign(pkA)
		claim := database.NewTx(
			[]database.TxInput{{TxID: gKey.TxID, OutputIndex: gKey.Index}},
			[]database.TxOutput{{Amount: 50, Recipient: recA}},
		)
		again := database.NewTx(
			[]database.TxInput{{TxID: gKey.TxID, OutputIndex: gKey.Index}},
			[]database.TxOutput{{Amount: 40, Recipient: recA}},
		)
		mint := database.NewTx(nil, []database.TxOutput{{Amount: 1, Recipient: recA}})

		selected, rejected := db.SelectTransactions([]database.Tx{ghost, claim, again, mint})

		if len(selected) != 2 || selected[0].ID != claim.ID || selected[1].ID != mint.ID {
			t.Fatalf("\t%s\tShould select the valid transactions in order: %v", failed, selected)
		}
		t.Logf("\t%s\tShould select the valid transactions in order.", success)

		if !errors.Is(rejected[ghost.ID], database.ErrMissingInput) || !errors.Is(rejected[again.ID], database.ErrDoubleSpend) || len(rejected) != 2 {
			t.Fatalf("\t%s\tShould name why each transaction was rejected: %v", failed, rejected)
		}
		t.Logf("\t%s\tShould name why each transaction was rejected.", success)

		if err := db.AddBlock(mineOn(db, selected...)); err != nil {
			t.Fatalf("\t%s\tShould accept a block of the selected transactions: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept a block of the selected transactions.", success)
	}

	t.Log("Given a ledger without strict validation.")
	{
		db := newDB(t, false)
		ghost := database.NewTx([]database.TxInput{{TxID: strings.Repeat("a", 64)}}, []database.TxOutput{{Amount: 5, Recipient: recA}})

		selected, rejected := db.SelectTransactions([]database.Tx{ghost})
		if len(selected) != 1 || len(rejected) != 0 {
			t.Fatalf("\t%s\tShould select every candidate.", failed)
		}
		t.Logf("\t%s\tShould select every candidate.", success)
	}
}

func Test_Replay(t *testing.T) {
	t.Log("Given the need to rebuild a ledger from stored blocks.")
	{
		storage := memory.New()

		db, err := database.New(database.Config{Storage: storage, Genesis: genesis.Default()})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open database: %s", failed, err)
		}
		if _, err := db.CreateGenesisBlock(); err != nil {
			t.Fatalf("\t%s\tShould be able to create the genesis block: %s", failed, err)
		}

		coinbase := database.NewTx(nil, []database.TxOutput{{Amount: 5, Recipient: database.SentinelRecipient("mint")}})
		if err := db.AddBlock(mineOn(db, coinbase)); err != nil {
			t.Fatalf("\t%s\tShould accept a zero input transaction: %s", failed, err)
		}

		replayed, err := database.New(database.Config{Storage: storage, Genesis: genesis.Default()})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to replay the stored blocks: %s", failed, err)
		}

		if replayed.LatestBlock().Hash != db.LatestBlock().Hash {
			t.Fatalf("\t%s\tShould end on the same tip.", failed)
		}
		if replayed.UTXOSet().Total() != 55 {
			t.Fatalf("\t%s\tShould rebuild the same UTXO set: %d", failed, replayed.UTXOSet().Total())
		}
		t.Logf("\t%s\tShould be able to replay the stored blocks.", success)
	}
}
