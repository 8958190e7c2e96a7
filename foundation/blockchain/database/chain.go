package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/noobcash/blockchain/foundation/blockchain/signature"
)

// ErrEmptyChain is returned when an operation needs an active block and the
// chain has none yet.
var ErrEmptyChain = errors.New("blockchain has no blocks")

// ErrGenesisMismatch is returned when a chain does not start from the
// genesis block this node holds.
var ErrGenesisMismatch = errors.New("genesis block does not match")

// ChainData is the serializable form of the chain sent between nodes.
type ChainData struct {
	Capacity   int     `json:"capacity" validate:"gte=1"`
	Difficulty uint    `json:"difficulty"`
	Blocks     []Block `json:"blocks" validate:"required,min=1,dive"`
}

// Validate checks every block chains correctly from the one before it. The
// genesis block only has to match its own header.
func (cd ChainData) Validate(evHandler EventHandler) error {
	if len(cd.Blocks) == 0 {
		return ErrEmptyChain
	}

	genesis := cd.Blocks[0]
	if genesis.Header.Index != 0 || genesis.Header.PrevBlockHash != signature.ZeroHash {
		return fmt.Errorf("block 0: not a genesis block: %w", ErrGenesisMismatch)
	}

	if hash := genesis.ComputeHash(); genesis.Hash != hash {
		return fmt.Errorf("block 0: hash does not match its header, got %s, exp %s: %w", genesis.Hash, hash, ErrGenesisMismatch)
	}

	for i := 1; i < len(cd.Blocks); i++ {
		if err := cd.Blocks[i].ValidateBlock(cd.Blocks[i-1], evHandler); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}

	return nil
}

// =============================================================================

// Chain manages the ordered set of blocks a node holds. The last block is
// the active block that receives executed transactions.
type Chain struct {
	mu         sync.RWMutex
	capacity   int
	difficulty uint
	blocks     []Block
	storage    Storage
	evHandler  EventHandler
}

// NewChain constructs a chain that mirrors every change into storage.
func NewChain(capacity int, difficulty uint, storage Storage, evHandler EventHandler) *Chain {
	if evHandler == nil {
		evHandler = noopEvHandler
	}

	return &Chain{
		capacity:   capacity,
		difficulty: difficulty,
		storage:    storage,
		evHandler:  evHandler,
	}
}

// Capacity returns the number of transactions that fill a block.
func (c *Chain) Capacity() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.capacity
}

// Difficulty returns the difficulty new blocks are mined with.
func (c *Chain) Difficulty() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.difficulty
}

// Len returns the number of blocks in the chain.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.blocks)
}

// LatestBlock returns a copy of the head of the chain.
func (c *Chain) LatestBlock() (Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.blocks) == 0 {
		return Block{}, ErrEmptyChain
	}

	return c.blocks[len(c.blocks)-1].Copy(), nil
}

// AppendTx records an executed transaction into the active block. It reports
// if the block is at or over capacity with this transaction.
func (c *Chain) AppendTx(tx SignedTx) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.blocks) == 0 {
		return false, ErrEmptyChain
	}

	last := len(c.blocks) - 1
	c.blocks[last].Trans = append(c.blocks[last].Trans, tx)

	if err := c.storage.Write(c.blocks[last]); err != nil {
		return false, fmt.Errorf("write block %d: %w", c.blocks[last].Header.Index, err)
	}

	return len(c.blocks[last].Trans) >= c.capacity, nil
}

// Append adds a block to the head of the chain. Validation against the head
// is the caller's responsibility.
func (c *Chain) Append(block Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	block = block.Copy()
	if err := c.storage.Write(block); err != nil {
		return fmt.Errorf("write block %d: %w", block.Header.Index, err)
	}

	c.blocks = append(c.blocks, block)
	c.evHandler("database: Append: blk[%d]: hash[%s]", block.Header.Index, block.Hash)

	return nil
}

// Validate checks the entire chain.
func (c *Chain) Validate() error {
	return c.Data().Validate(c.evHandler)
}

// ValidateCandidate checks a chain received from a peer before it is allowed
// to replace this one. Once this node holds a genesis block the candidate
// must start from it.
func (c *Chain) ValidateCandidate(data ChainData) error {
	c.mu.RLock()
	var genesis string
	if len(c.blocks) > 0 {
		genesis = c.blocks[0].Hash
	}
	c.mu.RUnlock()

	if len(data.Blocks) > 0 && genesis != "" && data.Blocks[0].Hash != genesis {
		return fmt.Errorf("got %s, exp %s: %w", data.Blocks[0].Hash, genesis, ErrGenesisMismatch)
	}

	return data.Validate(c.evHandler)
}

// Import replaces the whole chain with the specified one. When storage
// fails to take the new chain, both storage and memory keep the old one.
func (c *Chain) Import(data ChainData) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	blocks := make([]Block, len(data.Blocks))
	for i, block := range data.Blocks {
		blocks[i] = block.Copy()
	}

	if err := c.storage.Replace(blocks); err != nil {
		return fmt.Errorf("replace storage: %w", err)
	}

	c.capacity = data.Capacity
	c.difficulty = data.Difficulty
	c.blocks = blocks

	c.evHandler("database: Import: blocks[%d]", len(blocks))

	return nil
}

// Data returns a copy of the chain that is safe to serialize.
func (c *Chain) Data() ChainData {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blocks := make([]Block, len(c.blocks))
	for i, block := range c.blocks {
		blocks[i] = block.Copy()
	}

	return ChainData{
		Capacity:   c.capacity,
		Difficulty: c.difficulty,
		Blocks:     blocks,
	}
}
