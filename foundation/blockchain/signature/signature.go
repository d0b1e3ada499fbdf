// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros. It is the previous hash of the
// genesis block.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// Set of errors returned when verifying signatures.
var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrSignatureFormat  = errors.New("invalid signature format")
)

// =============================================================================

// Digest returns the sha256 of the data as a lowercase hex string with no
// prefix. Every hash that feeds the consensus rules goes through here.
func Digest(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Canonical returns the JSON encoding of the value with all object keys
// sorted. The value is marshaled, decoded into a generic form and marshaled
// again, so the same logical value always produces the same bytes no matter
// the field or insertion order used to build it.
func Canonical(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()

	var generic any
	if err := d.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("re-marshal: %w", err)
	}

	return canonical, nil
}

// Hash returns a unique string for the value.
func Hash(value any) string {
	data, err := Canonical(value)
	if err != nil {
		return ZeroHash
	}

	return Digest(data)
}

// =============================================================================

// Sign uses the specified private key to sign the digest. The signature is
// returned as a 0x prefixed hex string in the [R|S|V] format.
func Sign(digest string, privateKey *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(stamp(digest), privateKey)
	if err != nil {
		return "", err
	}

	return hexutil.Encode(sig), nil
}

// Verify checks the signature was produced over the digest by the private key
// that belongs to the specified public key.
func Verify(digest string, sigStr string, publicKey []byte) error {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSignatureFormat, err)
	}

	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("%w: length %d", ErrSignatureFormat, len(sig))
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(publicKey, stamp(digest), rs) {
		return ErrInvalidSignature
	}

	return nil
}

// PublicKeyBytes returns the uncompressed encoding of the public key.
func PublicKeyBytes(pk ecdsa.PublicKey) []byte {
	return crypto.FromECDSAPub(&pk)
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the digest with the
// ledger stamp embedded into the final hash.
func stamp(digest string) []byte {
	txHash := crypto.Keccak256([]byte(digest))

	// This stamp is used so signatures we produce when signing data are
	// always unique to this ledger.
	stamp := []byte("\x19Ledger Signed Message:\n32")

	return crypto.Keccak256(stamp, txHash)
}
