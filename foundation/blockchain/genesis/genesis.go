// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time `json:"date"`
	Capacity     int       `json:"capacity"`       // The number of transactions that fill a block.
	Difficulty   uint      `json:"difficulty"`     // How difficult it needs to be to solve the work problem.
	CoinsPerNode uint64    `json:"coins_per_node"` // Coins the bootstrap node hands every participant.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, fmt.Errorf("genesis %q: %w", path, err)
	}

	return genesis, nil
}

// Validate checks the settings can run a network.
func (g Genesis) Validate() error {
	if g.Capacity < 1 {
		return errors.New("capacity must be at least 1")
	}

	if g.Difficulty > 64 {
		return errors.New("difficulty can not exceed the hash length")
	}

	if g.CoinsPerNode == 0 {
		return errors.New("coins per node must be greater than zero")
	}

	return nil
}

// Supply returns the coins minted for a network of the specified size.
func (g Genesis) Supply(nodes int) uint64 {
	return g.CoinsPerNode * uint64(nodes)
}
