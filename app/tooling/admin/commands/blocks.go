// Package commands contains the functionality for the admin tool.
package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/storage/disk"
)

// Blocks prints every block stored in the archive.
func Blocks(w io.Writer, db *disk.Disk) error {
	blocks, err := loadBlocks(db)
	if err != nil {
		return err
	}

	for _, b := range blocks {
		fmt.Fprintf(w, "Block: %d  Hash: %s  Prev: %s  Nonce: %d  Trans: %d\n",
			b.Header.Index, b.Hash, b.Header.PrevBlockHash, b.Header.Nonce, len(b.Trans))

		for _, tx := range b.Trans {
			fmt.Fprintf(w, "    %s\n", tx)
		}
	}

	if err := (database.ChainData{Blocks: blocks}).Validate(nil); err != nil {
		fmt.Fprintf(w, "\nWARNING: archive does not hold a valid chain: %s\n", err)
	}

	return nil
}

// loadBlocks reads blocks from index zero until the first missing one.
func loadBlocks(db *disk.Disk) ([]database.Block, error) {
	var blocks []database.Block
	for i := uint64(0); ; i++ {
		b, err := db.GetBlock(i)
		if err != nil {
			if errors.Is(err, disk.ErrNotFound) {
				return blocks, nil
			}
			return nil, err
		}
		blocks = append(blocks, b)
	}
}
