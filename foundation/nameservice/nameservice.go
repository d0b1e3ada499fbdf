// Package nameservice reads a folder of wallet keys and creates a name
// service lookup for the recipients those keys own.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
)

// NameService maintains a map of recipients for name lookup.
type NameService struct {
	names map[string]string
}

// New constructs a name service with the wallets found under root. An empty
// root gives an empty name service.
func New(root string) (*NameService, error) {
	ns := NameService{
		names: make(map[string]string),
	}

	if root == "" {
		return &ns, nil
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return err
		}

		recipient := database.PublicKeyToRecipient(privateKey.PublicKey)
		ns.names[recipient.String()] = strings.TrimSuffix(path.Base(fileName), ".ecdsa")

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Add registers a name for the recipient.
func (ns *NameService) Add(recipient database.Recipient, name string) {
	ns.names[recipient.String()] = name
}

// Lookup returns the name for the specified recipient. Sentinels are their
// own name and unknown keys come back as a shortened hex string.
func (ns *NameService) Lookup(recipient database.Recipient) string {
	if name, ok := recipient.Sentinel(); ok {
		return name
	}

	key := recipient.String()
	if name, exists := ns.names[key]; exists {
		return name
	}

	if len(key) > 16 {
		return key[:16]
	}
	return key
}

// Copy returns a copy of the map of recipients and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.names))
	for recipient, name := range ns.names {
		cpy[recipient] = name
	}
	return cpy
}
