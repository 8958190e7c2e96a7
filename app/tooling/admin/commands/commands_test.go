package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/state"
	"github.com/noobcash/blockchain/foundation/blockchain/storage/disk"
	"github.com/stretchr/testify/require"
)

func Test_Workload(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Workload(dir, 4, 25, 10))

	for id := 0; id < 4; id++ {
		spends, err := state.LoadWorkload(state.WorkloadPath(dir, 4, id))
		require.NoError(t, err)
		require.Len(t, spends, 25)

		for _, s := range spends {
			if s.To == id || s.To < 0 || s.To > 3 || s.Amount < 1 || s.Amount > 10 {
				t.Logf("got: %+v", s)
				t.Fatalf("Should only spend 1..10 coins to another node.")
			}
		}
	}
}

func Test_Archive(t *testing.T) {
	db, err := disk.New(filepath.Join(t.TempDir(), "blocks.db"))
	require.NoError(t, err)
	defer db.Close()

	w, err := database.NewWallet()
	require.NoError(t, err)

	genTx := database.GenesisTx(w.PublicKey, 300)
	genesis := database.GenesisBlock(genTx, 0, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	utxos := database.NewUTXOSet()
	utxos.Replay([]database.Block{genesis})

	tx, err := w.NewTransaction("0xreceiver", 120, utxos.Unspent([]database.TxOutput{genTx.ReceiverOutput()}))
	require.NoError(t, err)
	genesis.Trans = append(genesis.Trans, tx)

	require.NoError(t, db.Write(genesis))

	blocks, err := loadBlocks(db)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	bals := balances(blocks)
	require.Equal(t, uint64(180), bals[w.PublicKey])
	require.Equal(t, uint64(120), bals["0xreceiver"])

	var buf bytes.Buffer
	require.NoError(t, Balances(&buf, db, "0xreceiver"))
	if !strings.Contains(buf.String(), "Balance: 120") || strings.Contains(buf.String(), w.PublicKey) {
		t.Logf("got: %s", buf.String())
		t.Fatalf("Should only print the requested account.")
	}
}
