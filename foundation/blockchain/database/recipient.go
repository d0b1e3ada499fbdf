package database

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RecipientKind identifies which variant a Recipient holds.
type RecipientKind uint8

// Set of recipient kinds.
const (
	RecipientSentinel  RecipientKind = iota + 1 // A named marker such as "genesis".
	RecipientPublicKey                          // A serialized public key.
)

// String implements the fmt.Stringer interface.
func (k RecipientKind) String() string {
	switch k {
	case RecipientSentinel:
		return "sentinel"
	case RecipientPublicKey:
		return "pubkey"
	}
	return "unknown"
}

// =============================================================================

// Recipient identifies who can spend an output. It is either a sentinel name
// or a public key, never both. Consumers switch on Kind instead of probing
// the value.
type Recipient struct {
	kind     RecipientKind
	sentinel string
	key      []byte
}

// SentinelRecipient constructs a recipient that is a named marker.
func SentinelRecipient(name string) Recipient {
	return Recipient{
		kind:     RecipientSentinel,
		sentinel: name,
	}
}

// PublicKeyRecipient constructs a recipient from the serialized public key.
func PublicKeyRecipient(key []byte) Recipient {
	k := make([]byte, len(key))
	copy(k, key)

	return Recipient{
		kind: RecipientPublicKey,
		key:  k,
	}
}

// PublicKeyToRecipient converts the public key to a recipient value.
func PublicKeyToRecipient(pk ecdsa.PublicKey) Recipient {
	return PublicKeyRecipient(signature.PublicKeyBytes(pk))
}

// ParseRecipient constructs a recipient from a kind name and the canonical
// text returned by String.
func ParseRecipient(kind string, value string) (Recipient, error) {
	switch kind {
	case RecipientSentinel.String():
		return SentinelRecipient(value), nil

	case RecipientPublicKey.String():
		key, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
		if err != nil {
			return Recipient{}, fmt.Errorf("decoding public key: %w", err)
		}
		return PublicKeyRecipient(key), nil
	}

	return Recipient{}, errors.New("unknown recipient kind: " + kind)
}

// Kind returns the variant held by the recipient.
func (r Recipient) Kind() RecipientKind {
	return r.kind
}

// IsZero reports whether the recipient was never set.
func (r Recipient) IsZero() bool {
	return r.kind == 0
}

// Sentinel returns the sentinel name if this recipient is a sentinel.
func (r Recipient) Sentinel() (string, bool) {
	if r.kind != RecipientSentinel {
		return "", false
	}
	return r.sentinel, true
}

// PublicKey returns a copy of the public key if this recipient is a key.
func (r Recipient) PublicKey() ([]byte, bool) {
	if r.kind != RecipientPublicKey {
		return nil, false
	}

	k := make([]byte, len(r.key))
	copy(k, r.key)
	return k, true
}

// Equal reports whether both recipients hold the same variant and value.
func (r Recipient) Equal(other Recipient) bool {
	if r.kind != other.kind {
		return false
	}

	switch r.kind {
	case RecipientSentinel:
		return r.sentinel == other.sentinel
	case RecipientPublicKey:
		return bytes.Equal(r.key, other.key)
	}

	return true
}

// String returns the canonical text for the recipient. This is the value
// that feeds the transaction id: the sentinel name as is, or the hex of the
// public key with no prefix.
func (r Recipient) String() string {
	switch r.kind {
	case RecipientSentinel:
		return r.sentinel
	case RecipientPublicKey:
		return hex.EncodeToString(r.key)
	}
	return ""
}

// =============================================================================

// recipientJSON is the wire shape of a recipient.
type recipientJSON struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// MarshalJSON implements the json.Marshaler interface.
func (r Recipient) MarshalJSON() ([]byte, error) {
	rj := recipientJSON{
		Kind: r.kind.String(),
	}

	switch r.kind {
	case RecipientSentinel:
		rj.Value = r.sentinel
	case RecipientPublicKey:
		rj.Value = hexutil.Encode(r.key)
	default:
		return []byte("null"), nil
	}

	return json.Marshal(rj)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (r *Recipient) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Recipient{}
		return nil
	}

	var rj recipientJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return err
	}

	switch rj.Kind {
	case RecipientSentinel.String():
		*r = SentinelRecipient(rj.Value)

	case RecipientPublicKey.String():
		key, err := hexutil.Decode(rj.Value)
		if err != nil {
			return fmt.Errorf("decoding public key: %w", err)
		}
		*r = PublicKeyRecipient(key)

	default:
		return errors.New("unknown recipient kind: " + rj.Kind)
	}

	return nil
}
