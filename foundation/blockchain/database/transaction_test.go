package database_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/noobcash/blockchain/foundation/blockchain/database"
)

func newWallet(t *testing.T) database.Wallet {
	w, err := database.NewWallet()
	if err != nil {
		t.Fatalf("Should be able to generate a wallet: %s", err)
	}
	return w
}

func Test_TransactionValidate(t *testing.T) {
	alice := newWallet(t)
	bob := newWallet(t)

	genesis := database.GenesisTx(alice.PublicKey, 100)

	type table struct {
		name   string
		build  func() database.SignedTx
		expErr error
	}

	tt := []table{
		{
			name: "valid",
			build: func() database.SignedTx {
				tx, _ := alice.NewTransaction(bob.PublicKey, 40, []database.TxOutput{genesis.ReceiverOutput()})
				return tx
			},
		},
		{
			name: "insufficient",
			build: func() database.SignedTx {
				tx, _ := alice.NewTransaction(bob.PublicKey, 400, []database.TxOutput{genesis.ReceiverOutput()})
				return tx
			},
			expErr: database.ErrInsufficientFunds,
		},
		{
			name: "wrongsigner",
			build: func() database.SignedTx {
				tx := database.NewTx(alice.PublicKey, bob.PublicKey, 40, []database.TxOutput{genesis.ReceiverOutput()})
				pk, _ := crypto.GenerateKey()
				signed, _ := tx.Sign(pk)
				return signed
			},
			expErr: database.ErrInvalidSignature,
		},
		{
			name: "spent",
			build: func() database.SignedTx {
				tx, _ := alice.NewTransaction(bob.PublicKey, 40, []database.TxOutput{{ID: "missing:0", Recipient: alice.PublicKey, Amount: 100}})
				return tx
			},
			expErr: database.ErrSpentInput,
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			utxos := database.NewUTXOSet()
			utxos.Reset(genesis.Outputs)

			err := tst.build().Validate(utxos)

			switch {
			case tst.expErr == nil && err != nil:
				t.Fatalf("Should validate the transaction: %s", err)
			case tst.expErr != nil && !errors.Is(err, tst.expErr):
				t.Logf("got: %v", err)
				t.Logf("exp: %v", tst.expErr)
				t.Fatalf("Should reject the transaction with the expected error.")
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_UTXOApplyOnce(t *testing.T) {
	alice := newWallet(t)
	bob := newWallet(t)

	genesis := database.GenesisTx(alice.PublicKey, 100)

	utxos := database.NewUTXOSet()
	utxos.Reset(genesis.Outputs)

	tx, err := alice.NewTransaction(bob.PublicKey, 30, utxos.Unspent(genesis.Outputs))
	if err != nil {
		t.Fatalf("Should be able to sign the transaction: %s", err)
	}

	if err := tx.Validate(utxos); err != nil {
		t.Fatalf("Should validate the transaction: %s", err)
	}
	utxos.Apply(tx)

	aliceOuts := append(genesis.Outputs, tx.ChangeOutput())
	bobOuts := []database.TxOutput{tx.ReceiverOutput()}

	if got := utxos.Balance(aliceOuts); got != 70 {
		t.Logf("got: %d", got)
		t.Logf("exp: %d", 70)
		t.Fatalf("Should debit the sender exactly once.")
	}

	if got := utxos.Balance(bobOuts); got != 30 {
		t.Logf("got: %d", got)
		t.Logf("exp: %d", 30)
		t.Fatalf("Should credit the receiver exactly once.")
	}

	if err := tx.Validate(utxos); !errors.Is(err, database.ErrSpentInput) {
		t.Logf("got: %v", err)
		t.Logf("exp: %v", database.ErrSpentInput)
		t.Fatalf("Should reject replaying the same transaction.")
	}
}
