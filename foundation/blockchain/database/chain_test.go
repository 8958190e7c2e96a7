package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/storage/memory"
)

const difficulty = 1

func newChain(t *testing.T, capacity int) *database.Chain {
	c := database.NewChain(capacity, difficulty, memory.New(), nil)
	genesis := database.GenesisBlock(database.GenesisTx("bootstrap", 400), difficulty, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	if err := c.Append(genesis); err != nil {
		t.Fatalf("Should be able to append the genesis block: %s", err)
	}

	return c
}

func mineNext(t *testing.T, c *database.Chain) database.Block {
	head, err := c.LatestBlock()
	if err != nil {
		t.Fatalf("Should have a head block: %s", err)
	}

	block, err := database.POW(context.Background(), database.NextBlock(head, c.Difficulty()), nil)
	if err != nil {
		t.Fatalf("Should be able to mine the block: %s", err)
	}

	return block
}

func Test_POW(t *testing.T) {
	c := newChain(t, 2)
	head, _ := c.LatestBlock()

	block := mineNext(t, c)

	if err := block.ValidateBlock(head, nil); err != nil {
		t.Fatalf("Should validate the mined block: %s", err)
	}

	if block.Hash[:3] != "0x0" {
		t.Logf("got: %s", block.Hash)
		t.Fatalf("Should solve the hash to the difficulty.")
	}

	tampered := block
	tampered.Header.Nonce++
	if err := tampered.ValidateBlock(head, nil); err == nil {
		t.Fatalf("Should reject a block whose header no longer matches its hash.")
	}

	if err := c.Append(block); err != nil {
		t.Fatalf("Should be able to append the block: %s", err)
	}

	if err := block.ValidateBlock(block, nil); !errors.Is(err, database.ErrUnexpectedBlock) {
		t.Logf("got: %v", err)
		t.Logf("exp: %v", database.ErrUnexpectedBlock)
		t.Fatalf("Should reject a block that does not chain from the head.")
	}
}

func Test_AppendTx(t *testing.T) {
	c := newChain(t, 2)

	full, err := c.AppendTx(database.GenesisTx("a", 1))
	if err != nil {
		t.Fatalf("Should be able to append the transaction: %s", err)
	}

	if !full {
		t.Fatalf("Should report the genesis block full at capacity.")
	}

	if err := c.Append(mineNext(t, c)); err != nil {
		t.Fatalf("Should be able to append the block: %s", err)
	}

	full, _ = c.AppendTx(database.GenesisTx("b", 1))
	if full {
		t.Fatalf("Should not report a new block full.")
	}

	head, _ := c.LatestBlock()
	if len(head.Trans) != 1 {
		t.Logf("got: %d", len(head.Trans))
		t.Logf("exp: %d", 1)
		t.Fatalf("Should append transactions into the head block.")
	}
}

func Test_Import(t *testing.T) {
	src := newChain(t, 2)
	for range 3 {
		if err := src.Append(mineNext(t, src)); err != nil {
			t.Fatalf("Should be able to append the block: %s", err)
		}
	}

	if err := src.Validate(); err != nil {
		t.Fatalf("Should validate the chain: %s", err)
	}

	dst := newChain(t, 2)
	if err := dst.Import(src.Data()); err != nil {
		t.Fatalf("Should be able to import the chain: %s", err)
	}

	if dst.Len() != 4 {
		t.Logf("got: %d", dst.Len())
		t.Logf("exp: %d", 4)
		t.Fatalf("Should hold the imported blocks.")
	}

	data := src.Data()
	data.Blocks[2].Header.PrevBlockHash = data.Blocks[0].Hash
	if err := data.Validate(nil); err == nil {
		t.Fatalf("Should reject a chain with broken linkage.")
	}
}

func Test_SealedTransactions(t *testing.T) {
	c := newChain(t, 3)

	// Mined while the head held only the genesis transaction.
	early := mineNext(t, c)

	if _, err := c.AppendTx(database.GenesisTx("a", 1)); err != nil {
		t.Fatalf("Should be able to append the transaction: %s", err)
	}

	head, _ := c.LatestBlock()
	err := early.ValidateBlock(head, nil)
	if !errors.Is(err, database.ErrUnexpectedBlock) {
		t.Logf("got: %v", err)
		t.Logf("exp: %v", database.ErrUnexpectedBlock)
		t.Fatalf("Should reject a block sealing different transactions than the head holds.")
	}

	late := mineNext(t, c)
	if err := late.ValidateBlock(head, nil); err != nil {
		t.Fatalf("Should validate a block sealing the head's transactions: %s", err)
	}

	if late.Header.PrevTransHash != database.TransHash(head.Trans) {
		t.Logf("got: %s", late.Header.PrevTransHash)
		t.Logf("exp: %s", database.TransHash(head.Trans))
		t.Fatalf("Should commit to the transactions of the previous block.")
	}
}

func Test_ValidateCandidate(t *testing.T) {
	own := newChain(t, 2)
	if err := own.Append(mineNext(t, own)); err != nil {
		t.Fatalf("Should be able to append the block: %s", err)
	}

	same := newChain(t, 2)
	for range 2 {
		if err := same.Append(mineNext(t, same)); err != nil {
			t.Fatalf("Should be able to append the block: %s", err)
		}
	}

	if err := own.ValidateCandidate(same.Data()); err != nil {
		t.Fatalf("Should accept a valid chain from the same genesis: %s", err)
	}

	foreign := database.NewChain(2, difficulty, memory.New(), nil)
	genesis := database.GenesisBlock(database.GenesisTx("intruder", 400), difficulty, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := foreign.Append(genesis); err != nil {
		t.Fatalf("Should be able to append the genesis block: %s", err)
	}
	for range 3 {
		if err := foreign.Append(mineNext(t, foreign)); err != nil {
			t.Fatalf("Should be able to append the block: %s", err)
		}
	}

	if err := foreign.Validate(); err != nil {
		t.Fatalf("Should validate the foreign chain on its own: %s", err)
	}

	err := own.ValidateCandidate(foreign.Data())
	if !errors.Is(err, database.ErrGenesisMismatch) {
		t.Logf("got: %v", err)
		t.Logf("exp: %v", database.ErrGenesisMismatch)
		t.Fatalf("Should reject a chain built on a different genesis block.")
	}

	forged := same.Data()
	forged.Blocks[0].Trans = append(forged.Blocks[0].Trans, database.GenesisTx("intruder", 1))
	forged.Blocks[0].Header.Nonce++
	if err := database.NewChain(2, difficulty, memory.New(), nil).ValidateCandidate(forged); !errors.Is(err, database.ErrGenesisMismatch) {
		t.Logf("got: %v", err)
		t.Logf("exp: %v", database.ErrGenesisMismatch)
		t.Fatalf("Should reject a genesis block whose hash does not match its header.")
	}
}

// failingStorage accepts single writes but refuses to replace the chain.
type failingStorage struct {
	*memory.Memory
}

func (failingStorage) Replace([]database.Block) error {
	return errors.New("disk full")
}

func Test_ImportFailure(t *testing.T) {
	store := failingStorage{memory.New()}

	c := database.NewChain(2, difficulty, store, nil)
	genesis := database.GenesisBlock(database.GenesisTx("bootstrap", 400), difficulty, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := c.Append(genesis); err != nil {
		t.Fatalf("Should be able to append the genesis block: %s", err)
	}

	src := newChain(t, 2)
	for range 2 {
		if err := src.Append(mineNext(t, src)); err != nil {
			t.Fatalf("Should be able to append the block: %s", err)
		}
	}

	if err := c.Import(src.Data()); err == nil {
		t.Fatalf("Should report the storage failure.")
	}

	if c.Len() != 1 {
		t.Logf("got: %d", c.Len())
		t.Logf("exp: %d", 1)
		t.Fatalf("Should keep the old chain in memory.")
	}

	stored, err := store.GetBlock(0)
	if err != nil || stored.Hash != genesis.Hash {
		t.Logf("got: %v %s", err, stored.Hash)
		t.Logf("exp: %s", genesis.Hash)
		t.Fatalf("Should keep the old chain in storage.")
	}

	if _, err := store.GetBlock(1); err == nil {
		t.Fatalf("Should not leave part of the new chain in storage.")
	}
}
