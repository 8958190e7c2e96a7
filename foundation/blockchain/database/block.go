package database

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/noobcash/blockchain/foundation/blockchain/signature"
)

// ErrUnexpectedBlock is returned when a block does not chain from the block
// it is being validated against.
var ErrUnexpectedBlock = errors.New("block does not chain from the current head")

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Index         uint64 `json:"index"`                               // Position of the block in the chain.
	TimeStamp     uint64 `json:"timestamp"`                           // Time the block was mined.
	PrevBlockHash string `json:"prev_block_hash" validate:"required"` // Hash of the previous block in the chain.
	Nonce         uint64 `json:"nonce"`                               // Value identified to solve the hash solution.
	Difficulty    uint   `json:"difficulty"`                          // Number of 0's needed to solve the hash solution.
	PrevTransHash string `json:"prev_trans_hash" validate:"required"` // Hash of the transaction ids sealed into the previous block.
}

// Block represents a group of transactions batched together. Transactions
// are appended to the active block after it was mined, so a block's own
// transactions are sealed by the header of the block that follows it.
type Block struct {
	Header BlockHeader `json:"header"`
	Hash   string      `json:"hash" validate:"required"`
	Trans  []SignedTx  `json:"trans" validate:"dive"`
}

// GenesisBlock constructs the first block of the chain holding the
// transaction that seeds the coin supply.
func GenesisBlock(tx SignedTx, difficulty uint, date time.Time) Block {
	b := Block{
		Header: BlockHeader{
			Index:         0,
			TimeStamp:     uint64(date.UTC().UnixMilli()),
			PrevBlockHash: signature.ZeroHash,
			Difficulty:    difficulty,
			PrevTransHash: signature.ZeroHash,
		},
		Trans: []SignedTx{tx},
	}
	b.Hash = b.ComputeHash()

	return b
}

// NextBlock constructs the empty block that will follow the specified block
// once its nonce has been found. It seals the transactions the previous
// block holds at this moment.
func NextBlock(prevBlock Block, difficulty uint) Block {
	return Block{
		Header: BlockHeader{
			Index:         prevBlock.Header.Index + 1,
			PrevBlockHash: prevBlock.Hash,
			Difficulty:    difficulty,
			PrevTransHash: TransHash(prevBlock.Trans),
		},
		Trans: []SignedTx{},
	}
}

// TransHash returns the hash of the ordered transaction ids.
func TransHash(trans []SignedTx) string {
	ids := make([]string, len(trans))
	for i, tx := range trans {
		ids[i] = tx.ID
	}

	return signature.Hash(ids)
}

// POW performs the work to find a nonce that solves the cryptographic POW
// puzzle for the specified block.
func POW(ctx context.Context, block Block, evHandler EventHandler) (Block, error) {
	if evHandler == nil {
		evHandler = noopEvHandler
	}

	block.Header.TimeStamp = uint64(time.Now().UTC().UnixMilli())

	if err := block.performPOW(ctx, evHandler); err != nil {
		return Block{}, err
	}

	return block, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, ev EventHandler) error {
	ev("database: performPOW: MINING: started: blk[%d]", b.Header.Index)
	defer ev("database: performPOW: MINING: completed: blk[%d]", b.Header.Index)

	// Choose a random starting point for the nonce. After this, the nonce
	// will be incremented by 1 until a solution is found.
	nBig, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return err
	}
	b.Header.Nonce = nBig.Uint64()

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: performPOW: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("database: performPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		hash := b.ComputeHash()
		if !isHashSolved(b.Header.Difficulty, hash) {
			b.Header.Nonce++
			continue
		}

		b.Hash = hash

		ev("database: performPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.PrevBlockHash, hash)
		ev("database: performPOW: MINING: attempts[%d]", attempts)

		return nil
	}
}

// ComputeHash returns the hash of the block header.
func (b Block) ComputeHash() string {
	return signature.Hash(b.Header)
}

// ValidateBlock takes a block and validates it can be appended after the
// specified previous block.
func (b Block) ValidateBlock(previousBlock Block, evHandler EventHandler) error {
	if evHandler == nil {
		evHandler = noopEvHandler
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: stored hash matches the header", b.Header.Index)

	if hash := b.ComputeHash(); b.Hash != hash {
		return fmt.Errorf("block hash does not match its header, got %s, exp %s", b.Hash, hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block difficulty is the same or greater than parent block difficulty", b.Header.Index)

	if b.Header.Difficulty < previousBlock.Header.Difficulty {
		return fmt.Errorf("block difficulty is less than previous block difficulty, parent %d, block %d", previousBlock.Header.Difficulty, b.Header.Difficulty)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Header.Index)

	if !isHashSolved(b.Header.Difficulty, b.Hash) {
		return fmt.Errorf("%s invalid block hash", b.Hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block index is the next index", b.Header.Index)

	nextIndex := previousBlock.Header.Index + 1
	if b.Header.Index != nextIndex {
		return fmt.Errorf("this block is not the next index, got %d, exp %d: %w", b.Header.Index, nextIndex, ErrUnexpectedBlock)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Index)

	if b.Header.PrevBlockHash != previousBlock.Hash {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s: %w", b.Header.PrevBlockHash, previousBlock.Hash, ErrUnexpectedBlock)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent transactions match the sealed transactions", b.Header.Index)

	if hash := TransHash(previousBlock.Trans); b.Header.PrevTransHash != hash {
		return fmt.Errorf("parent block transactions don't match the sealed transactions, got %s, exp %s: %w", b.Header.PrevTransHash, hash, ErrUnexpectedBlock)
	}

	return nil
}

// Copy returns a copy of the block that shares no transaction storage.
func (b Block) Copy() Block {
	trans := make([]SignedTx, len(b.Trans))
	copy(trans, b.Trans)
	b.Trans = trans

	return b
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint, hash string) bool {
	hash = strings.TrimPrefix(hash, "0x")
	if len(hash) != 64 || difficulty > 64 {
		return false
	}

	return hash[:difficulty] == strings.Repeat("0", int(difficulty))
}
