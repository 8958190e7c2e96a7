// Package disk implements the ability to read and write blocks to a bbolt
// database file so the chain of a run can be inspected after the node exits.
package disk

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned when the block does not exist.
var ErrNotFound = errors.New("block not found")

var bucketBlocks = []byte("blocks")

// Disk represents the serialization implementation for reading and storing
// blocks in a bbolt file. This implements the database.Storage interface.
type Disk struct {
	db *bbolt.DB
}

// New opens or creates the database file at the specified path.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("disk: create directory: %w", err)
	}

	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("disk: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBlocks)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disk: create bucket: %w", err)
	}

	return &Disk{db: db}, nil
}

// Close closes the underlying database.
func (d *Disk) Close() error {
	return d.db.Close()
}

// Write stores the block, replacing any block with the same index.
func (d *Disk) Write(block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("disk: encode block: %w", err)
	}

	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBlocks).Put(indexKey(block.Header.Index), data)
	})
}

// GetBlock returns the block for the specified index.
func (d *Disk) GetBlock(num uint64) (database.Block, error) {
	var block database.Block
	err := d.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketBlocks).Get(indexKey(num))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &block)
	})
	if err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// Replace swaps every stored block for the specified blocks inside a single
// transaction, so a failure rolls back to the previous chain.
func (d *Disk) Replace(blocks []database.Block) error {
	encoded := make([][]byte, len(blocks))
	for i, block := range blocks {
		data, err := json.Marshal(block)
		if err != nil {
			return fmt.Errorf("disk: encode block %d: %w", block.Header.Index, err)
		}
		encoded[i] = data
	}

	return d.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketBlocks) != nil {
			if err := tx.DeleteBucket(bucketBlocks); err != nil {
				return err
			}
		}

		bucket, err := tx.CreateBucket(bucketBlocks)
		if err != nil {
			return err
		}

		for i, block := range blocks {
			if err := bucket.Put(indexKey(block.Header.Index), encoded[i]); err != nil {
				return fmt.Errorf("disk: put block %d: %w", block.Header.Index, err)
			}
		}

		return nil
	})
}

// indexKey encodes a block index as a big-endian key for sorted storage.
func indexKey(num uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, num)
	return k
}
