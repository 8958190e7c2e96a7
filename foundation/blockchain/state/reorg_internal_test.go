package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/genesis"
	"github.com/noobcash/blockchain/foundation/blockchain/peer"
	"github.com/noobcash/blockchain/foundation/blockchain/storage/memory"
)

type offline struct{}

func (offline) Send(ctx context.Context, host string, route string, dataSend any, dataRecv any) error {
	return errors.New("offline")
}

func Test_Preferred(t *testing.T) {
	gen := genesis.Genesis{
		Date:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Capacity:     2,
		Difficulty:   1,
		CoinsPerNode: 100,
	}

	wallet, err := database.NewWallet()
	if err != nil {
		t.Fatalf("Should be able to generate a wallet: %s", err)
	}

	genesisAt := func(date time.Time) database.Block {
		return database.GenesisBlock(database.GenesisTx(wallet.PublicKey, 200), gen.Difficulty, date)
	}

	// Two genesis blocks with distinct dates yield distinct hashes.
	a := genesisAt(gen.Date.Add(time.Hour))
	b := genesisAt(gen.Date.Add(2 * time.Hour))

	own := genesisAt(gen.Date)
	lower, higher := a, b
	if lower.Hash > higher.Hash {
		lower, higher = higher, lower
	}

	mined, err := database.POW(context.Background(), database.NextBlock(own, gen.Difficulty), nil)
	if err != nil {
		t.Fatalf("Should be able to mine a block: %s", err)
	}

	chainOf := func(blocks ...database.Block) database.ChainData {
		return database.ChainData{Capacity: gen.Capacity, Difficulty: gen.Difficulty, Blocks: blocks}
	}

	type table struct {
		name       string
		adoptEqual bool
		candidate  database.ChainData
		exp        bool
	}

	tt := []table{
		{name: "longer", candidate: chainOf(own, mined), exp: true},
		{name: "shorter", candidate: chainOf(), exp: false},
		{name: "same", candidate: chainOf(own), exp: false},
		{name: "equal-lower", candidate: chainOf(lower), exp: lower.Hash < own.Hash},
		{name: "equal-higher", candidate: chainOf(higher), exp: higher.Hash < own.Hash},
		{name: "adopt-equal", adoptEqual: true, candidate: chainOf(higher), exp: true},
		{name: "adopt-equal-shorter", adoptEqual: true, candidate: chainOf(), exp: false},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			st, err := New(Config{
				ID:               BootstrapID,
				Nodes:            2,
				Host:             "node0",
				Wallet:           wallet,
				Genesis:          gen,
				Storage:          memory.New(),
				Transport:        offline{},
				AdoptEqualLength: tst.adoptEqual,
			})
			if err != nil {
				t.Fatalf("Should be able to construct the node: %s", err)
			}
			defer st.Shutdown()

			if err := st.chain.Import(chainOf(own)); err != nil {
				t.Fatalf("Should be able to import the chain: %s", err)
			}

			var got bool
			if err := st.query(context.Background(), func() { got = st.preferred(tst.candidate) }); err != nil {
				t.Fatalf("Should be able to query the node: %s", err)
			}

			if got != tst.exp {
				t.Logf("got: %t", got)
				t.Logf("exp: %t", tst.exp)
				t.Fatalf("Should apply the fork rule.")
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_ConsiderChain(t *testing.T) {
	gen := genesis.Genesis{
		Date:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Capacity:     3,
		Difficulty:   1,
		CoinsPerNode: 100,
	}

	boot, err := database.NewWallet()
	if err != nil {
		t.Fatalf("Should be able to generate a wallet: %s", err)
	}

	other, err := database.NewWallet()
	if err != nil {
		t.Fatalf("Should be able to generate a wallet: %s", err)
	}

	genTx := database.GenesisTx(boot.PublicKey, gen.Supply(2))
	genesisBlock := database.GenesisBlock(genTx, gen.Difficulty, gen.Date)

	// The bootstrap node executes this transfer into its genesis block
	// before it learns about the candidate chain.
	transfer, err := boot.NewTransaction(other.PublicKey, 40, []database.TxOutput{genTx.ReceiverOutput()})
	if err != nil {
		t.Fatalf("Should be able to create the transaction: %s", err)
	}

	mine := func(prev database.Block) database.Block {
		block, err := database.POW(context.Background(), database.NextBlock(prev, gen.Difficulty), nil)
		if err != nil {
			t.Fatalf("Should be able to mine a block: %s", err)
		}
		return block
	}

	chainOf := func(blocks ...database.Block) database.ChainData {
		return database.ChainData{Capacity: gen.Capacity, Difficulty: gen.Difficulty, Blocks: blocks}
	}

	withTransfer := genesisBlock
	withTransfer.Trans = []database.SignedTx{genTx, transfer}

	next := mine(genesisBlock)
	tampered := mine(next)
	tampered.Header.Nonce++

	foreign := database.GenesisBlock(genTx, gen.Difficulty, gen.Date.Add(time.Hour))
	foreignNext := mine(foreign)

	type table struct {
		name      string
		candidate database.ChainData
		blocks    int
		at        int
	}

	tt := []table{
		{name: "orphan-restored", candidate: chainOf(genesisBlock, next), blocks: 2, at: 1},
		{name: "already-sealed", candidate: chainOf(withTransfer, mine(withTransfer)), blocks: 2, at: 0},
		{name: "longer-invalid", candidate: chainOf(genesisBlock, next, tampered), blocks: 1, at: 0},
		{name: "foreign-genesis", candidate: chainOf(foreign, foreignNext, mine(foreignNext)), blocks: 1, at: 0},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			st, err := New(Config{
				ID:        BootstrapID,
				Nodes:     2,
				Host:      "node0",
				Wallet:    boot,
				Genesis:   gen,
				Storage:   memory.New(),
				Transport: offline{},
			})
			if err != nil {
				t.Fatalf("Should be able to construct the node: %s", err)
			}
			defer st.Shutdown()

			ctx := context.Background()

			var applyErr error
			err = st.query(ctx, func() {
				if _, applyErr = st.contacts.Set(1, peer.New("node1", other.PublicKey)); applyErr != nil {
					return
				}
				_, applyErr = st.applyTransaction(transfer, 0, 1)
			})
			if err != nil || applyErr != nil {
				t.Fatalf("Should be able to apply the transfer: %v %v", err, applyErr)
			}

			if err := st.query(ctx, func() { st.considerChain(1, tst.candidate) }); err != nil {
				t.Fatalf("Should be able to query the node: %s", err)
			}

			chain, err := st.RetrieveBlockchain(ctx)
			if err != nil {
				t.Fatalf("Should be able to retrieve the chain: %s", err)
			}

			if len(chain.Blocks) != tst.blocks {
				t.Logf("got: %d", len(chain.Blocks))
				t.Logf("exp: %d", tst.blocks)
				t.Fatalf("Should only adopt a valid chain from the same genesis block.")
			}

			var found []int
			for _, block := range chain.Blocks {
				for _, tx := range block.Trans {
					if tx.ID == transfer.ID {
						found = append(found, int(block.Header.Index))
					}
				}
			}

			if len(found) != 1 || found[0] != tst.at {
				t.Logf("got: %v", found)
				t.Logf("exp: %v", []int{tst.at})
				t.Fatalf("Should hold the transfer exactly once.")
			}

			contacts, err := st.RetrieveContacts(ctx)
			if err != nil {
				t.Fatalf("Should be able to retrieve the contacts: %s", err)
			}

			if contacts[0].Balance != 160 || contacts[1].Balance != 40 {
				t.Logf("got: %d %d", contacts[0].Balance, contacts[1].Balance)
				t.Logf("exp: %d %d", 160, 40)
				t.Fatalf("Should keep the transfer in the balances.")
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_MeasurementsReport(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var m measurements
	m.start(start)
	m.Created = 10
	m.BlockTimes = []float64{1, 3}
	m.finish(start.Add(5 * time.Second))

	r := m.report()

	if r.TransactionsTime != 5 {
		t.Logf("got: %v", r.TransactionsTime)
		t.Logf("exp: %v", 5)
		t.Fatalf("Should measure the creation phase.")
	}

	if r.Throughput != 2 {
		t.Logf("got: %v", r.Throughput)
		t.Logf("exp: %v", 2)
		t.Fatalf("Should derive the throughput.")
	}

	if r.MeanBlockTime != 2 {
		t.Logf("got: %v", r.MeanBlockTime)
		t.Logf("exp: %v", 2)
		t.Fatalf("Should derive the mean block time.")
	}

	var empty measurements
	if r := empty.report(); r.Throughput != 0 || r.MeanBlockTime != 0 {
		t.Fatalf("Should not divide by zero without samples.")
	}
}
