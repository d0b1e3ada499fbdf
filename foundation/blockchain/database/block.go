package database

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/merkle"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
)

// EventHandler defines a function that is called when events occur in the
// processing of blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	PrevBlockHash string `json:"prev_block_hash"` // Bitcoin: Hash of the previous block in the chain.
	TimeStamp     uint64 `json:"timestamp"`       // Bitcoin: Time the block was created in unix nanoseconds.
	Nonce         uint64 `json:"nonce"`           // Bitcoin: Value identified to solve the hash solution.
	Difficulty    uint16 `json:"difficulty"`      // Ethereum: Number of 0's needed to solve the hash solution.
	MerkleRoot    string `json:"merkle_root"`     // Bitcoin: Represents the merkle tree root hash for the transactions in this block.
}

// Block represents a group of transactions batched together. The hash is
// derived from the header and is kept current every time the nonce changes.
type Block struct {
	Header BlockHeader
	Hash   string
	Trans  *merkle.Tree[Tx]
}

// NewBlock constructs a block on top of the specified previous hash. The
// merkle root is computed once here from the transactions.
func NewBlock(prevBlockHash string, trans []Tx, difficulty uint16) Block {
	tree := merkle.NewTree(trans)

	b := Block{
		Header: BlockHeader{
			PrevBlockHash: prevBlockHash,
			TimeStamp:     uint64(time.Now().UTC().UnixNano()),
			Nonce:         0, // Will be identified by the POW algorithm.
			Difficulty:    difficulty,
			MerkleRoot:    tree.RootHex(),
		},
		Trans: tree,
	}
	b.Hash = b.ComputeHash()

	return b
}

// ComputeHash returns the digest of the previous hash, merkle root, timestamp
// and nonce concatenated as text.
func (b Block) ComputeHash() string {
	h := b.Header
	data := h.PrevBlockHash + h.MerkleRoot + strconv.FormatUint(h.TimeStamp, 10) + strconv.FormatUint(h.Nonce, 10)
	return signature.Digest([]byte(data))
}

// Transactions returns the transactions held by the block in order.
func (b Block) Transactions() []Tx {
	if b.Trans == nil {
		return nil
	}
	return b.Trans.Values()
}

// MarshalJSON implements the json.Marshaler interface.
func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(NewBlockData(b))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (b *Block) UnmarshalJSON(data []byte) error {
	var bd BlockData
	if err := json.Unmarshal(data, &bd); err != nil {
		return err
	}

	*b = ToBlock(bd)
	return nil
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	PrevBlockHash string
	Difficulty    uint16
	Trans         []Tx
	EvHandler     EventHandler
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle.
func POW(args POWArgs) Block {
	nb := NewBlock(args.PrevBlockHash, args.Trans, args.Difficulty)
	Mine(&nb, args.EvHandler)

	return nb
}

// Mine does the work of mining to find a valid hash for the block. The nonce
// is incremented from its current value and the hash recomputed until the
// hash satisfies the block difficulty. The block is updated in place. There
// is no way to stop this loop.
func Mine(b *Block, ev EventHandler) *Block {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("database: Mine: MINING: started: difficulty[%d]", b.Header.Difficulty)

	var attempts uint64
	for !ValidProof(b.Hash, b.Header.Difficulty) {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: Mine: MINING: attempts[%d]", attempts)
		}

		b.Header.Nonce++
		b.Hash = b.ComputeHash()
	}

	ev("database: Mine: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%d]", short(b.Header.PrevBlockHash), b.Hash, b.Header.Nonce)

	return b
}

// ValidProof checks the hash to make sure it complies with the POW rules.
// The first difficulty characters of the hex hash must all be '0'.
func ValidProof(hash string, difficulty uint16) bool {
	if int(difficulty) > len(hash) {
		return false
	}

	for i := 0; i < int(difficulty); i++ {
		if hash[i] != '0' {
			return false
		}
	}

	return true
}

// =============================================================================

// BlockData represents what is serialized for a block.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []Tx        `json:"trans"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:   block.Hash,
		Header: block.Header,
		Trans:  block.Transactions(),
	}
}

// ToBlock converts a BlockData into a Block. The hash is taken as given so
// validation can detect a block that does not match its content.
func ToBlock(blockData BlockData) Block {
	return Block{
		Header: blockData.Header,
		Hash:   blockData.Hash,
		Trans:  merkle.NewTree(blockData.Trans),
	}
}
