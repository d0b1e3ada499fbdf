// Package genesis maintains access to the genesis settings that seed a new
// ledger.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Set of default genesis values.
const (
	DefaultDifficulty    = 4
	DefaultSeedAmount    = 50
	DefaultSeedRecipient = "genesis"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time `json:"date"`
	Difficulty    uint16    `json:"difficulty"`     // How difficult it needs to be to solve the work problem.
	SeedAmount    uint64    `json:"seed_amount"`    // Amount created by the genesis transaction.
	SeedRecipient string    `json:"seed_recipient"` // Sentinel name that receives the seed amount.
}

// Default returns the genesis values used when no file is provided.
func Default() Genesis {
	return Genesis{
		Date:          time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Difficulty:    DefaultDifficulty,
		SeedAmount:    DefaultSeedAmount,
		SeedRecipient: DefaultSeedRecipient,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Any value missing from the file
// keeps its default.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("parsing genesis %q: %w", path, err)
	}

	if genesis.SeedRecipient == "" {
		genesis.SeedRecipient = DefaultSeedRecipient
	}

	return genesis, nil
}
