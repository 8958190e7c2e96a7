package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/storage/disk"
)

// Balances replays the archived chain and prints the balance of every
// public key, or only the specified one.
func Balances(w io.Writer, db *disk.Disk, only string) error {
	blocks, err := loadBlocks(db)
	if err != nil {
		return err
	}

	bals := balances(blocks)

	keys := make([]string, 0, len(bals))
	for key := range bals {
		if only != "" && key != only {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "Blocks: %d\n\n", len(blocks))
	for _, key := range keys {
		fmt.Fprintf(w, "Account: %s  Balance: %d\n", key, bals[key])
	}

	return nil
}

func balances(blocks []database.Block) map[string]uint64 {
	utxos := database.NewUTXOSet()
	outputs := utxos.Replay(blocks)

	byOwner := make(map[string][]database.TxOutput)
	for _, out := range outputs {
		byOwner[out.Recipient] = append(byOwner[out.Recipient], out)
	}

	bals := make(map[string]uint64, len(byOwner))
	for owner, outs := range byOwner {
		bals[owner] = utxos.Balance(outs)
	}

	return bals
}
