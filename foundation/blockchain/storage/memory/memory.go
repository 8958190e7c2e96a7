// Package memory implements the ability to read and write blocks to memory
// using a map keyed by block index.
package memory

import (
	"errors"
	"sync"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
)

// ErrNotFound is returned when the block does not exist.
var ErrNotFound = errors.New("block not found")

// Memory represents the serialization implementation for reading and storing
// blocks in memory. This implements the database.Storage interface.
type Memory struct {
	mu     sync.RWMutex
	blocks map[uint64]database.Block
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{
		blocks: make(map[uint64]database.Block),
	}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write stores the block, replacing any block with the same index.
func (m *Memory) Write(block database.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks[block.Header.Index] = block.Copy()
	return nil
}

// GetBlock returns the block for the specified index.
func (m *Memory) GetBlock(num uint64) (database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	block, exists := m.blocks[num]
	if !exists {
		return database.Block{}, ErrNotFound
	}

	return block.Copy(), nil
}

// Replace swaps every stored block for the specified blocks.
func (m *Memory) Replace(blocks []database.Block) error {
	next := make(map[uint64]database.Block, len(blocks))
	for _, block := range blocks {
		next[block.Header.Index] = block.Copy()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = next
	return nil
}
