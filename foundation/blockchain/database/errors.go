package database

import "errors"

// Set of errors returned when a block is not accepted. A rejected block never
// changes the chain or the UTXO set.
var (
	ErrLinkage      = errors.New("previous hash mismatch")
	ErrInvalidProof = errors.New("invalid proof-of-work")
	ErrGenesisExist = errors.New("genesis block already exists")
	ErrNoGenesis    = errors.New("chain has no genesis block")
)

// Set of errors only returned by strict validation.
var (
	ErrTampered          = errors.New("block does not match its content")
	ErrDifficulty        = errors.New("block difficulty below chain difficulty")
	ErrMalformed         = errors.New("malformed transaction")
	ErrMissingInput      = errors.New("input is not an unspent output")
	ErrDoubleSpend       = errors.New("output spent twice in block")
	ErrInsufficientValue = errors.New("outputs exceed inputs")
	ErrBadSignature      = errors.New("input signature does not match recipient")
)
