package disk_test

import (
	"path/filepath"
	"testing"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/storage/disk"
	"github.com/stretchr/testify/require"
)

func Test_WriteUpsert(t *testing.T) {
	d, err := disk.New(filepath.Join(t.TempDir(), "chain", "blocks.db"))
	require.NoError(t, err)
	defer d.Close()

	block := database.Block{Header: database.BlockHeader{Index: 1}, Hash: "0xabc"}
	require.NoError(t, d.Write(block))

	block.Trans = append(block.Trans, database.GenesisTx("key", 10))
	require.NoError(t, d.Write(block))

	got, err := d.GetBlock(1)
	require.NoError(t, err)
	require.Equal(t, "0xabc", got.Hash)
	require.Len(t, got.Trans, 1, "Should replace the block with the same index.")

	replacing := []database.Block{
		{Header: database.BlockHeader{Index: 0}, Hash: "0xdef"},
		{Header: database.BlockHeader{Index: 2}, Hash: "0x123"},
	}
	require.NoError(t, d.Replace(replacing))

	_, err = d.GetBlock(1)
	require.ErrorIs(t, err, disk.ErrNotFound, "Should drop blocks missing from the replacing chain.")

	got, err = d.GetBlock(2)
	require.NoError(t, err)
	require.Equal(t, "0x123", got.Hash)
}
